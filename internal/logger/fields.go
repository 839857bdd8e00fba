package logger

// Standard field keys for structured logging.
// Use these keys consistently so log lines can be correlated with ledger
// rows by username and identity name.
const (
	// Directory records
	KeyUser     = "user"     // directory username
	KeyIdentity = "identity" // identity name (provider-qualified)
	KeyProvider = "provider" // identity provider prefix
	KeyExcluded = "excluded" // exclusion verdict for the record

	// Remote calls
	KeyOperation   = "operation"    // directory operation name
	KeyAttempt     = "attempt"      // 1-based attempt number
	KeyMaxAttempts = "max_attempts" // configured attempt ceiling
	KeyDelay       = "delay"        // pause before the next attempt
	KeyStatus      = "status"       // HTTP status of the response

	// Workflow
	KeyPhase      = "phase"       // scan, delete, create, cleanup
	KeyPath       = "path"        // local file path (ledger, exclusions, log)
	KeyCount      = "count"       // item count for progress and summaries
	KeyDryRun     = "dry_run"     // simulation mode indicator
	KeyDurationMS = "duration_ms" // elapsed milliseconds
	KeyError      = "error"       // error detail
)

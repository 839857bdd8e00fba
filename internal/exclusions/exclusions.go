// Package exclusions loads the list of usernames protected from deletion.
package exclusions

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Set answers whether a username is protected. A set loaded from an empty
// path is empty and protects nothing; reconciliation then applies to every
// matched record.
type Set struct {
	source string
	names  map[string]struct{}
}

// Load reads the exclusion file at path. An empty path yields an empty set.
// A configured path that cannot be read is an error: a run must never treat
// a missing exclusion list as "nothing is protected".
func Load(path string) (*Set, error) {
	set := &Set{
		source: path,
		names:  make(map[string]struct{}),
	}

	if path == "" {
		return set, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open exclusion list %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set.names[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read exclusion list %q: %w", path, err)
	}

	return set, nil
}

// IsExcluded reports whether the username is protected. Matching is exact
// and case-sensitive.
func (s *Set) IsExcluded(username string) bool {
	_, ok := s.names[username]
	return ok
}

// Len returns the number of protected usernames.
func (s *Set) Len() int {
	return len(s.names)
}

// Source returns the path the set was loaded from, "" for the empty set.
func (s *Set) Source() string {
	return s.source
}

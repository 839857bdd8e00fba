package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects the console sink to a buffer for testing.
// Returns the buffer and a cleanup function to restore original state.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalConsole := console
	originalColor := useColor
	originalFile := fileOut
	originalQuiet := quiet
	console = buf
	useColor = false // Disable colors for easier testing
	fileOut = nil
	quiet = false
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		console = originalConsole
		useColor = originalColor
		fileOut = originalFile
		quiet = originalQuiet
		mu.Unlock()
		SetLevel("INFO")
		SetFormat("text")
		reconfigure()
	}

	return buf, cleanup
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.Contains(t, out, "debug message")
		assert.Contains(t, out, "info message")
		assert.Contains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("InfoLevelFiltersDebug", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")

		Debug("debug message")
		Info("info message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.Contains(t, out, "info message")
	})

	t.Run("ErrorLevelShowsOnlyErrors", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.NotContains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("InvalidLevelIgnored", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetLevel("bogus")

		Info("still info")
		assert.Contains(t, buf.String(), "still info")
	})
}

func TestStructuredFields(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")

	Info("deleted", KeyUser, "alice", KeyIdentity, "ldap-corp:alice", KeyCount, 3)

	out := buf.String()
	assert.Contains(t, out, "deleted")
	assert.Contains(t, out, "user=alice")
	assert.Contains(t, out, "identity=ldap-corp:alice")
	assert.Contains(t, out, "count=3")
}

func TestTextLineFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	Info("hello")

	// [2006-01-02 15:04:05] [INFO] hello
	re := regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \[INFO\] hello`)
	assert.Regexp(t, re, buf.String())
}

func TestWith(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")

	l := With(KeyPhase, "scan")
	l.Info("progress", KeyCount, 5)

	out := buf.String()
	assert.Contains(t, out, "phase=scan")
	assert.Contains(t, out, "count=5")
}

func TestInitFileSink(t *testing.T) {
	t.Run("TeesToConsoleAndFile", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		path := filepath.Join(t.TempDir(), "run.log")
		require.NoError(t, Init(Config{Level: "INFO", Format: "text", File: path}))

		Info("teed message", KeyUser, "bob")

		assert.Contains(t, buf.String(), "teed message")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "teed message")
		assert.Contains(t, string(data), "user=bob")
	})

	t.Run("QuietDropsConsoleOnly", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		path := filepath.Join(t.TempDir(), "run.log")
		require.NoError(t, Init(Config{Level: "INFO", File: path, Quiet: true}))

		Info("file only")

		assert.Empty(t, buf.String())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "file only")
	})

	t.Run("JSONFormatAppliesToFile", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()

		path := filepath.Join(t.TempDir(), "run.log")
		require.NoError(t, Init(Config{Level: "INFO", Format: "json", File: path, Quiet: true}))

		Info("structured", KeyProvider, "ldap-corp")

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var record map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
		assert.Equal(t, "structured", record["msg"])
		assert.Equal(t, "ldap-corp", record["provider"])
	})

	t.Run("AppendsAcrossInits", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()

		path := filepath.Join(t.TempDir(), "run.log")
		require.NoError(t, Init(Config{Level: "INFO", File: path, Quiet: true}))
		Info("first run")
		require.NoError(t, Init(Config{Level: "INFO", File: path, Quiet: true}))
		Info("second run")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "first run")
		assert.Contains(t, string(data), "second run")
	})

	t.Run("UnwritableFileFails", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()

		err := Init(Config{File: filepath.Join(t.TempDir(), "missing", "run.log")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open log file")
	})
}

func TestSetFormatIgnoresInvalid(t *testing.T) {
	_, cleanup := captureOutput()
	defer cleanup()

	SetFormat("xml")
	format, _ := currentFormat.Load().(string)
	assert.Equal(t, "text", format)
}

func TestConcurrentLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Info("concurrent", KeyCount, n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 20)
	for _, line := range lines {
		assert.Contains(t, line, "concurrent")
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

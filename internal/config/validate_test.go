package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func loadFromYAML(t *testing.T, content string) (*Config, error) {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "idsweep.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return Load(NewViper(Sweep, configPath), Sweep)
}

func TestValidate_RetryBounds(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "max attempts above ceiling",
			yaml:    "retry:\n  max_attempts: 11\n",
			wantErr: "retry.max_attempts must be at most 10",
		},
		{
			name:    "max attempts below floor",
			yaml:    "retry:\n  max_attempts: 0\n",
			wantErr: "retry.max_attempts must be at least 1",
		},
		{
			name:    "delay above ceiling",
			yaml:    "retry:\n  delay_seconds: 61\n",
			wantErr: "retry.delay_seconds must be at most 60",
		},
		{
			name:    "delay below floor",
			yaml:    "retry:\n  delay_seconds: 0\n",
			wantErr: "retry.delay_seconds must be at least 1",
		},
		{
			name:    "negative call timeout",
			yaml:    "retry:\n  call_timeout: \"-5s\"\n",
			wantErr: "retry.call_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFromYAML(t, tt.yaml)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidate_BoundaryValuesAccepted(t *testing.T) {
	for _, yaml := range []string{
		"retry:\n  max_attempts: 1\n  delay_seconds: 1\n",
		"retry:\n  max_attempts: 10\n  delay_seconds: 60\n",
	} {
		if _, err := loadFromYAML(t, yaml); err != nil {
			t.Errorf("Expected boundary values to be accepted, got %v", err)
		}
	}
}

func TestValidate_LoggingValues(t *testing.T) {
	if _, err := loadFromYAML(t, "logging:\n  level: TRACE\n"); err == nil {
		t.Error("Expected error for invalid log level")
	}
	if _, err := loadFromYAML(t, "logging:\n  format: xml\n"); err == nil {
		t.Error("Expected error for invalid log format")
	}
}

func TestValidate_ServerURL(t *testing.T) {
	if _, err := loadFromYAML(t, "server:\n  url: \"not a url\"\n"); err == nil {
		t.Error("Expected error for malformed server URL")
	}

	// Empty URL passes struct validation; remote commands enforce presence
	if _, err := loadFromYAML(t, "server:\n  url: \"\"\n"); err != nil {
		t.Errorf("Expected empty server URL to pass, got %v", err)
	}
}

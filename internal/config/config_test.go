// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pkcs8.
//
// go-pkcs8 is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.


package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return path
}

// clearEnv keeps overrides from the surrounding environment out of a test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PKCS8_KEYSTORE_BACKEND",
		"PKCS8_KEYSTORE_PATH",
		"PKCS8_LOG_LEVEL",
		"PKCS8_LOG_FORMAT",
		"PKCS8_METRICS_ENABLED",
		"PKCS8_METRICS_TEXTFILE",
	} {
		t.Setenv(key, "")
	}
}

// TestLoad_Success tests successful loading of a valid config file
func TestLoad_Success(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
keystore:
  backend: "file"
  path: "/data/pkcs8"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: false
  textfile: "/var/lib/node_exporter/pkcs8.prom"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Keystore.Backend != BackendFile {
		t.Errorf("Expected backend file, got %s", cfg.Keystore.Backend)
	}
	if cfg.Keystore.Path != "/data/pkcs8" {
		t.Errorf("Expected path /data/pkcs8, got %s", cfg.Keystore.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format json, got %s", cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics to be disabled")
	}
	if cfg.Metrics.Textfile != "/var/lib/node_exporter/pkcs8.prom" {
		t.Errorf("Unexpected textfile: %s", cfg.Metrics.Textfile)
	}
}

// TestLoad_PartialFile tests that unset fields keep their defaults
func TestLoad_PartialFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
keystore:
  backend: memory
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	def := Default()
	if cfg.Keystore.Backend != BackendMemory {
		t.Errorf("Expected backend memory, got %s", cfg.Keystore.Backend)
	}
	if cfg.Keystore.Path != def.Keystore.Path {
		t.Errorf("Expected default path %s, got %s", def.Keystore.Path, cfg.Keystore.Path)
	}
	if cfg.Logging != def.Logging {
		t.Errorf("Expected default logging %+v, got %+v", def.Logging, cfg.Logging)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected metrics to stay enabled")
	}
}

// TestLoad_FileNotFound tests loading a non-existent file
func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Unexpected error: %v", err)
	}
}

// TestLoad_InvalidYAML tests loading malformed YAML
func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "keystore: [unterminated\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("Unexpected error: %v", err)
	}
}

// TestLoad_InvalidValues tests that Load validates the merged result
func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "UnknownBackend",
			content: "keystore:\n  backend: redis\n",
			wantErr: "invalid keystore backend",
		},
		{
			name:    "FileBackendWithoutPath",
			content: "keystore:\n  backend: file\n  path: \"\"\n",
			wantErr: "keystore path is required",
		},
		{
			name:    "UnknownLevel",
			content: "logging:\n  level: verbose\n",
			wantErr: "invalid log level",
		},
		{
			name:    "UnknownFormat",
			content: "logging:\n  format: xml\n",
			wantErr: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), "invalid configuration") {
				t.Errorf("Expected wrapped validation error, got: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

// TestLoad_EnvOverrides tests that environment variables win over the file
func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
keystore:
  backend: file
  path: /from/file
logging:
  level: info
`)

	t.Setenv("PKCS8_KEYSTORE_PATH", "/from/env")
	t.Setenv("PKCS8_LOG_LEVEL", "error")
	t.Setenv("PKCS8_LOG_FORMAT", "json")
	t.Setenv("PKCS8_METRICS_ENABLED", "false")
	t.Setenv("PKCS8_METRICS_TEXTFILE", "/tmp/pkcs8.prom")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Keystore.Path != "/from/env" {
		t.Errorf("Expected env path, got %s", cfg.Keystore.Path)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Expected env level, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected env format, got %s", cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled by env")
	}
	if cfg.Metrics.Textfile != "/tmp/pkcs8.prom" {
		t.Errorf("Expected env textfile, got %s", cfg.Metrics.Textfile)
	}
}

// TestRead_DefersValidation tests that Read and Environ return invalid
// settings so that later overrides can repair them before Validate
func TestRead_DefersValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("PKCS8_LOG_LEVEL", "bogus")
	path := writeConfig(t, "keystore:\n  backend: s3\n")

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cfg.Keystore.Backend != "s3" || cfg.Logging.Level != "bogus" {
		t.Errorf("Expected raw file and env values, got %+v", cfg)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected Validate to reject the raw values")
	}

	cfg.Keystore.Backend = BackendMemory
	cfg.Logging.Level = "debug"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed after overrides: %v", err)
	}

	env := Environ()
	if env.Logging.Level != "bogus" {
		t.Errorf("Expected env level, got %s", env.Logging.Level)
	}
	if _, err := FromEnv(); err == nil {
		t.Error("Expected FromEnv to validate")
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected Load to validate")
	}
}

// TestFromEnv tests configuration built from defaults and the environment
func TestFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)
		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv failed: %v", err)
		}
		if *cfg != *Default() {
			t.Errorf("Expected defaults, got %+v", cfg)
		}
	})

	t.Run("MemoryBackend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PKCS8_KEYSTORE_BACKEND", "memory")
		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv failed: %v", err)
		}
		if cfg.Keystore.Backend != BackendMemory {
			t.Errorf("Expected memory backend, got %s", cfg.Keystore.Backend)
		}
	})

	t.Run("InvalidBackend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PKCS8_KEYSTORE_BACKEND", "s3")
		if _, err := FromEnv(); err == nil {
			t.Error("Expected error for invalid backend")
		}
	})

	t.Run("InvalidMetricsFlagKeepsDefault", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PKCS8_METRICS_ENABLED", "maybe")
		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv failed: %v", err)
		}
		if !cfg.Metrics.Enabled {
			t.Error("Expected metrics to stay enabled on an unparsable value")
		}
	})
}

// TestDefault tests the default configuration
func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.Keystore.Backend != BackendFile {
		t.Errorf("Expected default backend file, got %s", cfg.Keystore.Backend)
	}
	if !strings.HasSuffix(cfg.Keystore.Path, filepath.Join("pkcs8", "keystore")) {
		t.Errorf("Unexpected default path: %s", cfg.Keystore.Path)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "text" {
		t.Errorf("Unexpected default logging: %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Textfile != "" {
		t.Errorf("Unexpected default metrics: %+v", cfg.Metrics)
	}
}

// TestValidate_CaseInsensitive tests that level and format ignore case
func TestValidate_CaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "DEBUG"
	cfg.Logging.Format = "JSON"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected mixed case to validate: %v", err)
	}
}

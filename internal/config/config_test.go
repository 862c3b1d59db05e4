package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "custom window",
			mutate:  func(c *Config) { c.Window = "36h" },
			wantErr: false,
		},
		{
			name:    "unparseable window",
			mutate:  func(c *Config) { c.Window = "one day" },
			wantErr: true,
		},
		{
			name:    "negative window",
			mutate:  func(c *Config) { c.Window = "-1h" },
			wantErr: true,
		},
		{
			name:    "zero window",
			mutate:  func(c *Config) { c.Window = "0s" },
			wantErr: true,
		},
		{
			name:    "threshold above 100",
			mutate:  func(c *Config) { c.HealthyThreshold = 101 },
			wantErr: true,
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.HealthyThreshold = -5 },
			wantErr: true,
		},
		{
			name:    "report name with path",
			mutate:  func(c *Config) { c.ReportName = "../escape" },
			wantErr: true,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.WindowDuration() != 24*time.Hour {
		t.Errorf("WindowDuration() = %v, want 24h", cfg.WindowDuration())
	}
	if cfg.HealthyThreshold != 75 {
		t.Errorf("HealthyThreshold = %v, want 75", cfg.HealthyThreshold)
	}
	if cfg.ReportName != "agent_availability_report" {
		t.Errorf("ReportName = %q", cfg.ReportName)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yml")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.Window != DefaultWindow || cfg.ReportName != DefaultReportName {
		t.Errorf("Load() expected defaults for non-existent file, got %+v", cfg)
	}
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(configPath, []byte("window: 12h\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.WindowDuration() != 12*time.Hour {
		t.Errorf("WindowDuration() = %v, want 12h", cfg.WindowDuration())
	}
	if cfg.HealthyThreshold != DefaultHealthyThreshold {
		t.Errorf("HealthyThreshold = %v, want default", cfg.HealthyThreshold)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yml")

	original := &Config{
		DataDir:          filepath.Join(tmpDir, "data"),
		ReportsDir:       filepath.Join(tmpDir, "reports"),
		Window:           "48h",
		HealthyThreshold: 90,
		ReportName:       "nightly",
		LogLevel:         "debug",
	}

	if err := original.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if info.Mode().Perm()&0077 != 0 {
		t.Errorf("Config file has insecure permissions: %v", info.Mode())
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *loaded != *original {
		t.Errorf("Load() = %+v, want %+v", loaded, original)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")

	if err := os.WriteFile(configPath, []byte("not: valid: yaml: {{"), 0600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestResolveDirs(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg := &Config{DataDir: "~/agents", ReportsDir: "/srv/reports"}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		t.Fatalf("ResolveDataDir() error: %v", err)
	}
	if want := filepath.Join(home, "agents"); dataDir != want {
		t.Errorf("ResolveDataDir() = %q, want %q", dataDir, want)
	}

	reportsDir, err := cfg.ResolveReportsDir()
	if err != nil {
		t.Fatalf("ResolveReportsDir() error: %v", err)
	}
	if reportsDir != "/srv/reports" {
		t.Errorf("ResolveReportsDir() = %q", reportsDir)
	}

	empty := &Config{}
	dataDir, err = empty.ResolveDataDir()
	if err != nil {
		t.Fatalf("ResolveDataDir() error: %v", err)
	}
	if want := filepath.Join(home, ".availcheck"); dataDir != want {
		t.Errorf("ResolveDataDir() = %q, want %q", dataDir, want)
	}
}

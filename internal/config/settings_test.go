package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettingsDefaults(t *testing.T) {
	s := DefaultSettings()

	if got := s.String("Application.Name", ""); got != "EventEase" {
		t.Errorf("Application.Name = %q, want EventEase", got)
	}
	if got := s.Bool("Features.EnableSampleData", false); !got {
		t.Error("Features.EnableSampleData = false, want true")
	}
	if got := s.Int("Performance.CacheTimeoutMinutes", 0); got != 30 {
		t.Errorf("Performance.CacheTimeoutMinutes = %d, want 30", got)
	}
	if !s.IsDevelopment() || s.IsProduction() {
		t.Error("default environment should be Development")
	}
}

func TestSettingsFallbacks(t *testing.T) {
	s := DefaultSettings()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"missing string", s.String("Nope.Key", "def"), "def"},
		{"section as string", s.String("Features", "def"), "def"},
		{"missing bool", s.Bool("Security.Nope", true), true},
		{"string not bool", s.Bool("Application.Name", true), true},
		{"missing int", s.Int("Performance.Nope", 7), 7},
		{"int as string", s.String("Features.MaxAttendeesPerEvent", ""), "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadSettingsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	doc := `{
		"Application": {"Environment": "Production"},
		"Security": {"EnableAuditLogging": "false"},
		"Performance": {"CacheTimeoutMinutes": 5}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	if !s.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}
	if s.Bool("Security.EnableAuditLogging", true) {
		t.Error("EnableAuditLogging = true, want false")
	}
	if got := s.Int("Performance.CacheTimeoutMinutes", 0); got != 5 {
		t.Errorf("CacheTimeoutMinutes = %d, want 5", got)
	}
	if got := s.String("Application.Name", ""); got != "EventEase" {
		t.Errorf("untouched key lost: Application.Name = %q", got)
	}
}

func TestLoadSettingsMergesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	doc := `{"Features": {"MaxAttendeesPerEvent": 250, "Beta": "on"}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"overridden", s.Int("Features.MaxAttendeesPerEvent", 0), 250},
		{"sibling kept", s.Int("Features.ReportRetentionDays", 0), 365},
		{"new key", s.String("Features.Beta", ""), "on"},
		{"other section kept", s.Int("Security.SessionTimeoutMinutes", 0), 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := DefaultSettings()

	snap := s.Snapshot()
	app, ok := snap["Application"].(map[string]any)
	if !ok {
		t.Fatalf("Snapshot()[Application] = %T, want map", snap["Application"])
	}
	app["Name"] = "changed"

	if got := s.String("Application.Name", ""); got != "EventEase" {
		t.Errorf("Application.Name = %q after editing snapshot, want EventEase", got)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	if _, err := LoadSettings(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadSettings() error = nil, want error")
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "cassandra")

	if _, err := New(); err == nil {
		t.Error("New() error = nil, want error")
	}
}

func TestNewPostgresRequiresCredentials(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", BackendPostgres)
	t.Setenv("POSTGRES_USER", "")

	if _, err := New(); err == nil {
		t.Error("New() error = nil, want missing POSTGRES_USER")
	}
}

package config

import (
	"fmt"
	"strconv"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Settings is the application settings tree: built-in defaults overlaid with
// an optional JSON document. Keys are dotted paths such as
// "Features.EnableSampleData".
type Settings struct {
	k *koanf.Koanf
}

func defaultSettings() map[string]any {
	return map[string]any{
		"Application": map[string]any{
			"Name":        "EventEase",
			"Version":     "1.0.0",
			"Environment": "Development",
		},
		"Features": map[string]any{
			"EnableSampleData":     true,
			"EnableDiagnostics":    true,
			"MaxAttendeesPerEvent": 1000,
			"ReportRetentionDays":  365,
		},
		"Performance": map[string]any{
			"CacheTimeoutMinutes":     30,
			"MaxConcurrentOperations": 10,
			"DatabaseTimeoutSeconds":  30,
		},
		"Security": map[string]any{
			"RequireAuthentication": false,
			"EnableAuditLogging":    true,
			"SessionTimeoutMinutes": 60,
		},
	}
}

func DefaultSettings() *Settings {
	k := koanf.New(".")
	// a nested literal map cannot fail to load
	_ = k.Load(confmap.Provider(defaultSettings(), "."), nil)
	return &Settings{k: k}
}

// LoadSettings overlays the JSON file at path onto the defaults. An empty
// path yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	const op = "config.LoadSettings"

	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	if err := s.k.Load(file.Provider(path), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return s, nil
}

func (s *Settings) lookup(key string) (any, bool) {
	if !s.k.Exists(key) {
		return nil, false
	}
	return s.k.Get(key), true
}

func (s *Settings) String(key, def string) string {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}

	switch t := v.(type) {
	case string:
		return t
	case map[string]any, []any, nil:
		return def
	default:
		return fmt.Sprint(t)
	}
}

func (s *Settings) Bool(key string, def bool) bool {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}

	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
	}
	return def
}

func (s *Settings) Int(key string, def int) int {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}

	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		if t == float64(int(t)) {
			return int(t)
		}
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}
	return def
}

func (s *Settings) Environment() string {
	return s.String("Application.Environment", "Development")
}

func (s *Settings) IsDevelopment() bool {
	return strings.EqualFold(s.Environment(), "Development")
}

func (s *Settings) IsProduction() bool {
	return strings.EqualFold(s.Environment(), "Production")
}

// Snapshot returns a copy of the settings tree for diagnostics output.
func (s *Settings) Snapshot() map[string]any {
	return s.k.Raw()
}

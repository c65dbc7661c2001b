package settings

import (
	"errors"
	"reflect"
	"testing"
)

// storedSettings is a settings object as written by the 0.1.x plugin.
func storedSettings() map[string]any {
	return map[string]any{
		"version":            "0.1.0",
		"frameScriptEnabled": false,
		"scriptAssetEnabled": false,
		"extensions":         []any{"hx"},
		"languages":          []any{"hscript"},
	}
}

func TestMigrate_NilGivesDefaults(t *testing.T) {
	s, err := Migrate(nil, "1.2.0")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !reflect.DeepEqual(s.FilterConfig, Defaults()) {
		t.Fatalf("got %+v", s.FilterConfig)
	}
	if s.Version != "1.2.0" {
		t.Fatalf("version = %q", s.Version)
	}
}

func TestMigrate_KeepsStoredSettings(t *testing.T) {
	s, err := Migrate(storedSettings(), "1.2.0")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if s.FrameScriptEnabled || s.ScriptAssetEnabled {
		t.Fatalf("disabled scopes were re-enabled: %+v", s.FilterConfig)
	}
	if !reflect.DeepEqual(s.Extensions, []string{"hx"}) || !reflect.DeepEqual(s.Languages, []string{"hscript"}) {
		t.Fatalf("filters = %v %v", s.Extensions, s.Languages)
	}
	if s.Version != "1.2.0" {
		t.Fatalf("version = %q, want the new plugin version", s.Version)
	}

	m := s.Map()
	if m["frameScriptEnabled"] != false || m["scriptAssetEnabled"] != false {
		t.Fatalf("map = %v", m)
	}
}

func TestMigrate_FillsMissingAndDropsUnknown(t *testing.T) {
	s, err := Migrate(map[string]any{
		"version":            "0.0.9",
		"scriptAssetEnabled": false,
		"theme":              "dark",
	}, "1.2.0")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !s.FrameScriptEnabled {
		t.Error("missing frame script key should default to enabled")
	}
	if s.ScriptAssetEnabled {
		t.Error("script assets should stay disabled")
	}
	if !reflect.DeepEqual(s.Extensions, []string{"hx"}) {
		t.Errorf("extensions = %v", s.Extensions)
	}
	if _, ok := s.Map()["theme"]; ok {
		t.Error("unknown keys should be dropped")
	}
}

func TestMigrate_NormalizesLists(t *testing.T) {
	s, err := Migrate(map[string]any{
		KeyExtensions: []any{".hx", "hx", " hxs"},
		KeyLanguages:  []any{"hscript", " hscript", ""},
	}, "1.2.0")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !reflect.DeepEqual(s.Extensions, []string{"hx", "hxs"}) {
		t.Errorf("extensions = %v", s.Extensions)
	}
	if !reflect.DeepEqual(s.Languages, []string{"hscript"}) {
		t.Errorf("languages = %v", s.Languages)
	}
}

func TestMigrate_RejectsWrongTypes(t *testing.T) {
	_, err := Migrate(map[string]any{KeyExtensions: "hx"}, "1.2.0")
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != KeyExtensions {
		t.Fatalf("expected *FieldError on %s, got %v", KeyExtensions, err)
	}
}

func TestStoredVersion(t *testing.T) {
	if got := StoredVersion(storedSettings()); got != "0.1.0" {
		t.Fatalf("StoredVersion = %q", got)
	}
	if got := StoredVersion(map[string]any{"version": 2.0}); got != "" {
		t.Fatalf("non-string version = %q", got)
	}
	if got := StoredVersion(nil); got != "" {
		t.Fatalf("nil = %q", got)
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"  ", []string{}},
		{"hscript", []string{"hscript"}},
		{"a, b ,a", []string{"a", "b"}},
	}
	for _, tt := range tests {
		if got := ParseList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := ParseExtensions(".hx,hxs"); !reflect.DeepEqual(got, []string{"hx", "hxs"}) {
		t.Errorf("ParseExtensions = %v", got)
	}
}

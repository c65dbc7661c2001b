package settings

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if !cfg.FrameScriptEnabled || !cfg.ScriptAssetEnabled {
		t.Fatal("both scopes should be enabled by default")
	}
	if !reflect.DeepEqual(cfg.Extensions, []string{"hx"}) {
		t.Fatalf("extensions = %v", cfg.Extensions)
	}
	if !reflect.DeepEqual(cfg.Languages, []string{"hscript"}) {
		t.Fatalf("languages = %v", cfg.Languages)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		wantErr string
	}{
		{name: "nil map gives defaults", raw: nil},
		{name: "empty map gives defaults", raw: map[string]any{}},
		{name: "bool fields", raw: map[string]any{KeyFrameScripts: false, KeyScriptAssets: false}},
		{name: "json lists", raw: map[string]any{KeyExtensions: []any{"hx", "hxs"}}},
		{name: "bad bool", raw: map[string]any{KeyFrameScripts: "yes"}, wantErr: KeyFrameScripts},
		{name: "bad list", raw: map[string]any{KeyLanguages: "hscript"}, wantErr: KeyLanguages},
		{name: "bad list item", raw: map[string]any{KeyExtensions: []any{"hx", 3.0}}, wantErr: KeyExtensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FieldError, got %v", err)
			}
			if fe.Field != tt.wantErr {
				t.Fatalf("field = %q, want %q", fe.Field, tt.wantErr)
			}
		})
	}
}

func TestDecode_StoredKeys(t *testing.T) {
	cfg, err := Decode(map[string]any{
		"version":            "0.1.0",
		"frameScriptEnabled": false,
		"scriptAssetEnabled": false,
		"extensions":         []any{"hx"},
		"languages":          []any{"hscript"},
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.FrameScriptEnabled || cfg.ScriptAssetEnabled {
		t.Fatalf("stored scope flags ignored: %+v", cfg)
	}
}

func TestDecode_Values(t *testing.T) {
	cfg, err := Decode(map[string]any{
		KeyFrameScripts: false,
		KeyExtensions:   []any{"hx", "hxs"},
		KeyLanguages:    []any{},
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.FrameScriptEnabled {
		t.Error("frame scripts should be disabled")
	}
	if !cfg.ScriptAssetEnabled {
		t.Error("missing key should default to enabled")
	}
	if !reflect.DeepEqual(cfg.Extensions, []string{"hx", "hxs"}) {
		t.Errorf("extensions = %v", cfg.Extensions)
	}
	if len(cfg.Languages) != 0 {
		t.Errorf("languages = %v, want empty", cfg.Languages)
	}
}

func TestSettings_MapRoundTripsThroughJSON(t *testing.T) {
	s := New(Defaults(), "1.2.0")
	blob, err := json.Marshal(s.Map())
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(blob, &raw); err != nil {
		t.Fatal(err)
	}
	cfg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(cfg, Defaults()) {
		t.Fatalf("round trip = %+v", cfg)
	}
	if raw[KeyVersion] != "1.2.0" {
		t.Fatalf("version = %v", raw[KeyVersion])
	}
}

func TestSettings_JSONShape(t *testing.T) {
	blob, err := json.Marshal(New(Defaults(), "1.2.0"))
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(blob, &got); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"frameScriptEnabled", "scriptAssetEnabled", "extensions", "languages", "version"} {
		if _, ok := got[k]; !ok {
			t.Errorf("missing key %q in %s", k, blob)
		}
	}
}

func TestDiff(t *testing.T) {
	a := Defaults()
	b := a.Clone()
	if d := Diff(a, b); len(d) != 0 {
		t.Fatalf("diff of equal configs = %v", d)
	}
	b.FrameScriptEnabled = false
	b.Languages = []string{"hscript", "lua"}
	want := []string{KeyFrameScripts, KeyLanguages}
	if d := Diff(a, b); !reflect.DeepEqual(d, want) {
		t.Fatalf("diff = %v, want %v", d, want)
	}
}

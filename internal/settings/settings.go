// Package settings owns the plugin's user settings: their defaults, the
// wire form the host persists, migrations between versions, and the
// settings panel that turns user actions into change notifications.
package settings

import (
	"fmt"
	"sort"

	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

// Host keys.
const (
	KeyFrameScripts = "frameScriptEnabled"
	KeyScriptAssets = "scriptAssetEnabled"
	KeyExtensions   = "extensions"
	KeyLanguages    = "languages"
	KeyVersion      = "version"
)

// Defaults returns the configuration declared on first activation.
func Defaults() typedefs.FilterConfig {
	return typedefs.FilterConfig{
		FrameScriptEnabled: true,
		ScriptAssetEnabled: true,
		Extensions:         []string{"hx"},
		Languages:          []string{"hscript"},
	}
}

// Settings is the persisted form of a FilterConfig. Version is the
// version of the plugin that wrote it.
type Settings struct {
	typedefs.FilterConfig
	Version string `json:"version"`
}

// New stamps cfg with the plugin version.
func New(cfg typedefs.FilterConfig, version string) Settings {
	return Settings{FilterConfig: cfg.Clone(), Version: version}
}

// Map renders s as the generic map the host stores.
func (s Settings) Map() map[string]any {
	return map[string]any{
		KeyFrameScripts: s.FrameScriptEnabled,
		KeyScriptAssets: s.ScriptAssetEnabled,
		KeyExtensions:   append([]string{}, s.Extensions...),
		KeyLanguages:    append([]string{}, s.Languages...),
		KeyVersion:      s.Version,
	}
}

// FieldError reports a settings value of the wrong shape.
type FieldError struct {
	Field string
	Want  string
	Got   any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("settings field %q: want %s, got %T", e.Field, e.Want, e.Got)
}

// Decode reads a host settings map. Missing keys take their defaults;
// values of the wrong type are rejected.
func Decode(raw map[string]any) (typedefs.FilterConfig, error) {
	cfg := Defaults()
	if raw == nil {
		return cfg, nil
	}
	if v, ok := raw[KeyFrameScripts]; ok {
		b, ok := v.(bool)
		if !ok {
			return cfg, &FieldError{Field: KeyFrameScripts, Want: "bool", Got: v}
		}
		cfg.FrameScriptEnabled = b
	}
	if v, ok := raw[KeyScriptAssets]; ok {
		b, ok := v.(bool)
		if !ok {
			return cfg, &FieldError{Field: KeyScriptAssets, Want: "bool", Got: v}
		}
		cfg.ScriptAssetEnabled = b
	}
	if v, ok := raw[KeyExtensions]; ok {
		list, err := stringList(KeyExtensions, v)
		if err != nil {
			return cfg, err
		}
		cfg.Extensions = list
	}
	if v, ok := raw[KeyLanguages]; ok {
		list, err := stringList(KeyLanguages, v)
		if err != nil {
			return cfg, err
		}
		cfg.Languages = list
	}
	return cfg, nil
}

func stringList(field string, v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string{}, list...), nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, &FieldError{Field: field, Want: "list of strings", Got: item}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &FieldError{Field: field, Want: "list of strings", Got: v}
	}
}

// Diff lists the host keys whose values differ between a and b, sorted.
func Diff(a, b typedefs.FilterConfig) []string {
	var keys []string
	if a.FrameScriptEnabled != b.FrameScriptEnabled {
		keys = append(keys, KeyFrameScripts)
	}
	if a.ScriptAssetEnabled != b.ScriptAssetEnabled {
		keys = append(keys, KeyScriptAssets)
	}
	if !equal(a.Extensions, b.Extensions) {
		keys = append(keys, KeyExtensions)
	}
	if !equal(a.Languages, b.Languages) {
		keys = append(keys, KeyLanguages)
	}
	sort.Strings(keys)
	return keys
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

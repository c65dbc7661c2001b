package settings

import "strings"

// Migrate rewrites settings stored by any earlier plugin version for the
// plugin at toVersion. Stored settings share the current key set, so
// migration keeps the known keys, fills missing ones with their defaults,
// drops everything else, normalizes the filter lists and restamps the
// version.
func Migrate(raw map[string]any, toVersion string) (Settings, error) {
	if raw == nil {
		return New(Defaults(), toVersion), nil
	}
	known := make(map[string]any, len(raw))
	for _, k := range []string{KeyFrameScripts, KeyScriptAssets, KeyExtensions, KeyLanguages} {
		if v, ok := raw[k]; ok {
			known[k] = v
		}
	}

	cfg, err := Decode(known)
	if err != nil {
		return Settings{}, err
	}
	cfg.Extensions = normalizeExtensions(cfg.Extensions)
	cfg.Languages = normalizeList(cfg.Languages)
	return New(cfg, toVersion), nil
}

// StoredVersion returns the plugin version recorded in raw, or "" when
// there is none.
func StoredVersion(raw map[string]any) string {
	v, _ := raw[KeyVersion].(string)
	return v
}

// ParseList splits a comma-separated field the way the panel and the CLI
// accept it.
func ParseList(s string) []string {
	return normalizeList(splitList(s))
}

// ParseExtensions is ParseList with leading dots removed.
func ParseExtensions(s string) []string {
	return normalizeExtensions(splitList(s))
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func normalizeExtensions(list []string) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, strings.TrimPrefix(strings.TrimSpace(e), "."))
	}
	return normalizeList(out)
}

// normalizeList trims entries, drops empties and duplicates and keeps the
// first-seen order.
func normalizeList(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

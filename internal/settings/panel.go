package settings

import (
	"context"
	"fmt"

	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

// Change is the single outbound message produced by a panel action. It
// carries the full updated configuration; the host persists it.
type Change struct {
	Settings Settings `json:"settings"`
	// Fields lists the host keys that changed.
	Fields []string `json:"fields"`
}

// Notifier delivers config changes to the host.
type Notifier interface {
	Notify(ctx context.Context, change Change) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, change Change) error

func (f NotifierFunc) Notify(ctx context.Context, change Change) error { return f(ctx, change) }

// ControlKind is the widget type of a panel control.
type ControlKind string

const (
	ControlCheckbox ControlKind = "checkbox"
	ControlList     ControlKind = "list"
)

// Control describes one form field of the settings panel.
type Control struct {
	Key   string      `json:"key"`
	Kind  ControlKind `json:"kind"`
	Label string      `json:"label"`
	Help  string      `json:"help,omitempty"`
	// Value is a bool for checkboxes and a []string for lists.
	Value any `json:"value"`
}

// Panel renders a read-only config snapshot and turns user actions into
// change notifications. It never mutates the snapshot it was built from:
// after an action the host pushes a new snapshot and a new Panel is built.
type Panel struct {
	cfg      typedefs.FilterConfig
	version  string
	notifier Notifier
}

// NewPanel builds a panel for cfg whose changes are stamped with the
// plugin version. A nil notifier drops changes.
func NewPanel(cfg typedefs.FilterConfig, version string, n Notifier) *Panel {
	if n == nil {
		n = NotifierFunc(func(context.Context, Change) error { return nil })
	}
	return &Panel{cfg: cfg.Clone(), version: version, notifier: n}
}

// Config returns a copy of the snapshot the panel renders.
func (p *Panel) Config() typedefs.FilterConfig { return p.cfg.Clone() }

// Controls describes the form.
func (p *Panel) Controls() []Control {
	return []Control{
		{
			Key:   KeyFrameScripts,
			Kind:  ControlCheckbox,
			Label: "Enable for frame scripts",
			Help:  "Provide type hints to scripts attached to animation frames.",
			Value: p.cfg.FrameScriptEnabled,
		},
		{
			Key:   KeyScriptAssets,
			Kind:  ControlCheckbox,
			Label: "Enable for script assets",
			Help:  "Provide type hints to script files in the project.",
			Value: p.cfg.ScriptAssetEnabled,
		},
		{
			Key:   KeyExtensions,
			Kind:  ControlList,
			Label: "File extensions",
			Help:  "Script assets must end in one of these. Empty allows all.",
			Value: append([]string{}, p.cfg.Extensions...),
		},
		{
			Key:   KeyLanguages,
			Kind:  ControlList,
			Label: "Scripting languages",
			Help:  "Scripts must declare one of these languages. Empty allows all.",
			Value: append([]string{}, p.cfg.Languages...),
		},
	}
}

// ToggleFrameScripts flips the frame script checkbox.
func (p *Panel) ToggleFrameScripts(ctx context.Context) (typedefs.FilterConfig, error) {
	next := p.cfg.Clone()
	next.FrameScriptEnabled = !next.FrameScriptEnabled
	return p.emit(ctx, next)
}

// ToggleScriptAssets flips the script asset checkbox.
func (p *Panel) ToggleScriptAssets(ctx context.Context) (typedefs.FilterConfig, error) {
	next := p.cfg.Clone()
	next.ScriptAssetEnabled = !next.ScriptAssetEnabled
	return p.emit(ctx, next)
}

// SetExtensions replaces the extension filter.
func (p *Panel) SetExtensions(ctx context.Context, exts []string) (typedefs.FilterConfig, error) {
	next := p.cfg.Clone()
	next.Extensions = normalizeExtensions(exts)
	return p.emit(ctx, next)
}

// SetLanguages replaces the language filter.
func (p *Panel) SetLanguages(ctx context.Context, langs []string) (typedefs.FilterConfig, error) {
	next := p.cfg.Clone()
	next.Languages = normalizeList(langs)
	return p.emit(ctx, next)
}

// Apply sends a full replacement config, as the host's generic settings
// endpoint does.
func (p *Panel) Apply(ctx context.Context, cfg typedefs.FilterConfig) (typedefs.FilterConfig, error) {
	next := cfg.Clone()
	next.Extensions = normalizeExtensions(next.Extensions)
	next.Languages = normalizeList(next.Languages)
	return p.emit(ctx, next)
}

func (p *Panel) emit(ctx context.Context, next typedefs.FilterConfig) (typedefs.FilterConfig, error) {
	change := Change{Settings: New(next, p.version), Fields: Diff(p.cfg, next)}
	if err := p.notifier.Notify(ctx, change); err != nil {
		return p.cfg.Clone(), fmt.Errorf("notify host of settings change: %w", err)
	}
	return next, nil
}

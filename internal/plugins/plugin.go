package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/efebarandurmaz/fraytypes/internal/observability"
	"github.com/efebarandurmaz/fraytypes/internal/settings"
	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

// AssetMetadata is the part of a script asset's metadata the provider reads.
type AssetMetadata struct {
	ObjectType string `json:"objectType,omitempty"`
}

// TypeDefinitionRequest is the host's request for a script's declarations.
// An empty Filename marks a frame script.
type TypeDefinitionRequest struct {
	Filename          string         `json:"filename,omitempty"`
	ScriptingLanguage string         `json:"scriptingLanguage,omitempty"`
	Metadata          AssetMetadata  `json:"metadata"`
	Settings          map[string]any `json:"settings,omitempty"`
}

// Context converts r to the selector's request context.
func (r TypeDefinitionRequest) Context() typedefs.RequestContext {
	return typedefs.RequestContext{
		Filename:          r.Filename,
		ScriptingLanguage: r.ScriptingLanguage,
		ObjectType:        r.Metadata.ObjectType,
	}
}

// MigrationRequest asks to upgrade settings persisted by an older version.
// An empty FromVersion is read from the settings' own version key.
type MigrationRequest struct {
	FromVersion string         `json:"fromVersion"`
	Settings    map[string]any `json:"settings"`
}

// Settings update actions.
const (
	ActionToggleFrameScripts = "toggleFrameScripts"
	ActionToggleScriptAssets = "toggleScriptAssets"
	ActionSetExtensions      = "setExtensions"
	ActionSetLanguages       = "setLanguages"
	ActionReplace            = "replace"
)

// SettingsUpdate is one user action on the settings panel.
type SettingsUpdate struct {
	Action string `json:"action"`
	// Current is the host's snapshot the panel is rendering.
	Current map[string]any `json:"current,omitempty"`
	// Values carries the list for setExtensions and setLanguages.
	Values []string `json:"values,omitempty"`
	// Settings carries the full replacement for replace.
	Settings map[string]any `json:"settings,omitempty"`
}

// Callback receives the declarations for one request.
type Callback func(defs []typedefs.Declaration) error

// Options configures a Plugin. Zero values are usable.
type Options struct {
	Version  string
	Selector typedefs.Selector
	// Defaults overrides settings.Defaults for Setup and for requests that
	// carry no settings snapshot.
	Defaults *typedefs.FilterConfig
	Notifier settings.Notifier
	Metrics  *observability.ProviderMetrics
	Audit    *observability.AuditLogger
	Logger   *slog.Logger
}

// Plugin implements the host lifecycle of the type-definition plugin.
type Plugin struct {
	version  string
	registry *Registry
	fallback Provider
	defaults typedefs.FilterConfig
	notifier settings.Notifier
	metrics  *observability.ProviderMetrics
	audit    *observability.AuditLogger
	logger   *slog.Logger
}

// New creates a plugin with the hscript provider registered.
func New(opts Options) *Plugin {
	p := &Plugin{
		version:  opts.Version,
		registry: NewRegistry(),
		fallback: NewHScript(opts.Selector),
		defaults: settings.Defaults(),
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		audit:    opts.Audit,
		logger:   opts.Logger,
	}
	if p.version == "" {
		p.version = "dev"
	}
	if opts.Defaults != nil {
		p.defaults = opts.Defaults.Clone()
	}
	if p.metrics == nil {
		p.metrics = observability.NewProviderMetrics()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.registry.Register(p.fallback)
	return p
}

// Registry returns the provider registry.
func (p *Plugin) Registry() *Registry { return p.registry }

// Metrics returns the plugin's metrics.
func (p *Plugin) Metrics() *observability.ProviderMetrics { return p.metrics }

// SetNotifier replaces the outbound config-change channel.
func (p *Plugin) SetNotifier(n settings.Notifier) { p.notifier = n }

// Manifest describes the plugin.
func (p *Plugin) Manifest() Manifest {
	return DefaultManifest(p.version, p.registry.Languages())
}

// Defaults returns the configuration used on first activation.
func (p *Plugin) Defaults() typedefs.FilterConfig { return p.defaults.Clone() }

// Setup returns the settings the host stores on first activation.
func (p *Plugin) Setup(ctx context.Context) settings.Settings {
	ctx, span := observability.StartSettingsSpan(ctx, "setup")
	defer span.End()

	s := settings.New(p.defaults, p.version)
	p.audit.LogSetup(ctx, s.Map())
	p.logger.Info("plugin setup", "settings_version", s.Version)
	return s
}

// Migrate upgrades settings persisted by an older plugin version.
func (p *Plugin) Migrate(ctx context.Context, req MigrationRequest) (settings.Settings, error) {
	ctx, span := observability.StartSettingsSpan(ctx, "migrate")
	defer span.End()

	from := req.FromVersion
	if from == "" {
		from = settings.StoredVersion(req.Settings)
	}
	s, err := settings.Migrate(req.Settings, p.version)
	p.audit.LogMigrate(ctx, from, p.version, err)
	if err != nil {
		observability.RecordError(span, err)
		p.metrics.ErrorsTotal.Inc()
		return settings.Settings{}, fmt.Errorf("migrating settings from %q: %w", from, err)
	}
	p.metrics.MigrationsTotal.Inc()
	p.logger.Info("settings migrated", "from", from, "to", s.Version)
	return s, nil
}

// HandleTypeDefinitions selects the declarations for req and passes them
// to cb. A suppressed request calls cb with an empty slice.
func (p *Plugin) HandleTypeDefinitions(ctx context.Context, req TypeDefinitionRequest, cb Callback) error {
	rc := req.Context()
	ctx, span := observability.StartSelectSpan(ctx, rc.Filename, rc.ScriptingLanguage, rc.ObjectType)
	defer span.End()

	cfg, err := p.filterConfig(req.Settings)
	if err != nil {
		observability.RecordError(span, err)
		p.metrics.ErrorsTotal.Inc()
		return err
	}

	start := time.Now()
	defs := p.provider(rc.ScriptingLanguage).TypeDefinitions(ctx, rc, cfg)
	bytes := 0
	for _, d := range defs {
		bytes += len(d.Contents)
	}
	p.metrics.RecordSelect(time.Since(start), len(defs), bytes)
	observability.RecordSelectResult(span, len(defs), bytes)

	p.logger.Debug("type definitions selected",
		"filename", rc.Filename,
		"language", rc.ScriptingLanguage,
		"object_type", rc.ObjectType,
		"declarations", len(defs),
	)

	if defs == nil {
		defs = []typedefs.Declaration{}
	}
	if err := cb(defs); err != nil {
		observability.RecordError(span, err)
		p.metrics.ErrorsTotal.Inc()
		return fmt.Errorf("delivering type definitions: %w", err)
	}
	return nil
}

// UpdateSettings applies one panel action and emits exactly one
// config-change notification.
func (p *Plugin) UpdateSettings(ctx context.Context, u SettingsUpdate) (settings.Settings, error) {
	ctx, span := observability.StartSettingsSpan(ctx, "change")
	defer span.End()

	current, err := p.filterConfig(u.Current)
	if err != nil {
		observability.RecordError(span, err)
		p.metrics.ErrorsTotal.Inc()
		return settings.Settings{}, err
	}
	panel := p.Panel(current)

	var next typedefs.FilterConfig
	switch u.Action {
	case ActionToggleFrameScripts:
		next, err = panel.ToggleFrameScripts(ctx)
	case ActionToggleScriptAssets:
		next, err = panel.ToggleScriptAssets(ctx)
	case ActionSetExtensions:
		next, err = panel.SetExtensions(ctx, u.Values)
	case ActionSetLanguages:
		next, err = panel.SetLanguages(ctx, u.Values)
	case ActionReplace:
		var cfg typedefs.FilterConfig
		if cfg, err = settings.Decode(u.Settings); err == nil {
			next, err = panel.Apply(ctx, cfg)
		}
	default:
		err = fmt.Errorf("unknown settings action %q", u.Action)
	}
	if err != nil {
		observability.RecordError(span, err)
		p.metrics.ErrorsTotal.Inc()
		return settings.Settings{}, err
	}
	return settings.New(next, p.version), nil
}

// Panel builds a settings panel over cfg whose changes are counted,
// audited and forwarded to the plugin's notifier.
func (p *Plugin) Panel(cfg typedefs.FilterConfig) *settings.Panel {
	return settings.NewPanel(cfg, p.version, settings.NotifierFunc(p.notify))
}

func (p *Plugin) notify(ctx context.Context, change settings.Change) error {
	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, change); err != nil {
			return err
		}
	}
	p.metrics.ConfigChangesTotal.Inc()
	p.audit.LogConfigChange(ctx, change.Fields, change.Settings.Map())
	p.logger.Info("settings changed", "fields", change.Fields)
	return nil
}

func (p *Plugin) filterConfig(raw map[string]any) (typedefs.FilterConfig, error) {
	if raw == nil {
		return p.defaults.Clone(), nil
	}
	cfg, err := settings.Decode(raw)
	if err != nil {
		return typedefs.FilterConfig{}, fmt.Errorf("decoding settings: %w", err)
	}
	return cfg, nil
}

// provider picks the provider for lang, falling back to hscript. The
// selector's language gate still applies to the fallback.
func (p *Plugin) provider(lang string) Provider {
	if lang == "" {
		return p.fallback
	}
	pr, err := p.registry.Provider(lang)
	if err != nil {
		return p.fallback
	}
	return pr
}

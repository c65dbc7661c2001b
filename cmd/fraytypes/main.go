package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/fraytypes/internal/bridge"
	"github.com/efebarandurmaz/fraytypes/internal/config"
	"github.com/efebarandurmaz/fraytypes/internal/observability"
	"github.com/efebarandurmaz/fraytypes/internal/plugins"
	"github.com/efebarandurmaz/fraytypes/internal/settings"
	"github.com/efebarandurmaz/fraytypes/internal/tui"
	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "fraytypes",
		Short:         "Fraymakers hscript type definitions for FrayTools",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (YAML)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve type definitions to the editor host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(loadConfig(configPath))
		},
	}

	var (
		emitFile       string
		emitLanguage   string
		emitObjectType string
		emitNoFrame    bool
		emitNoAsset    bool
		emitExt        string
		emitLang       string
		emitJSON       bool
	)
	emitCmd := &cobra.Command{
		Use:   "emit",
		Short: "Print the declarations served for one script",
		Long: "Print the declarations served for one script. Without --file the\n" +
			"request is treated as a frame script.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(configPath).Defaults.FilterConfig()
			if emitNoFrame {
				cfg.FrameScriptEnabled = false
			}
			if emitNoAsset {
				cfg.ScriptAssetEnabled = false
			}
			if cmd.Flags().Changed("ext") {
				cfg.Extensions = settings.ParseExtensions(emitExt)
			}
			if cmd.Flags().Changed("lang") {
				cfg.Languages = settings.ParseList(emitLang)
			}
			req := plugins.TypeDefinitionRequest{
				Filename:          emitFile,
				ScriptingLanguage: emitLanguage,
				Metadata:          plugins.AssetMetadata{ObjectType: emitObjectType},
			}
			return runEmit(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, req, emitJSON)
		},
	}
	emitCmd.Flags().StringVar(&emitFile, "file", "", "Script asset filename (empty for a frame script)")
	emitCmd.Flags().StringVar(&emitLanguage, "language", plugins.LanguageHScript, "Scripting language of the script")
	emitCmd.Flags().StringVar(&emitObjectType, "object-type", "", "objectType from the asset metadata (e.g. CHARACTER)")
	emitCmd.Flags().BoolVar(&emitNoFrame, "no-frame", false, "Disable type hints for frame scripts")
	emitCmd.Flags().BoolVar(&emitNoAsset, "no-asset", false, "Disable type hints for script assets")
	emitCmd.Flags().StringVar(&emitExt, "ext", "", "Comma-separated extension filter (empty allows all)")
	emitCmd.Flags().StringVar(&emitLang, "lang", "", "Comma-separated language filter (empty allows all)")
	emitCmd.Flags().BoolVar(&emitJSON, "json", false, "Output the declaration list as JSON")

	var rulesFormat string
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List the object type rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeFormatted(cmd.OutOrStdout(), rulesFormat, typedefs.Rules())
		},
	}
	rulesCmd.Flags().StringVar(&rulesFormat, "format", "yaml", "Output format: yaml or json")

	var defaultsFormat string
	defaultsCmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the settings declared on first activation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(configPath).Defaults.FilterConfig()
			return writeFormatted(cmd.OutOrStdout(), defaultsFormat, settings.New(cfg, version).Map())
		},
	}
	defaultsCmd.Flags().StringVar(&defaultsFormat, "format", "yaml", "Output format: yaml or json")

	var migrateFormat string
	migrateCmd := &cobra.Command{
		Use:   "migrate <settings-file>",
		Short: "Upgrade settings saved by an older plugin version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.OutOrStdout(), args[0], migrateFormat)
		},
	}
	migrateCmd.Flags().StringVar(&migrateFormat, "format", "json", "Output format: yaml or json")

	var serverURL string
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Edit settings in an interactive form",
		Long: "Edit settings in an interactive form. With --server each change is\n" +
			"sent to a running provider, which forwards it to connected hosts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettings(cmd.OutOrStdout(), loadConfig(configPath), serverURL)
		},
	}
	settingsCmd.Flags().StringVar(&serverURL, "server", "", "Base URL of a running provider (e.g. http://127.0.0.1:7420)")

	rootCmd.AddCommand(serveCmd, emitCmd, rulesCmd, defaultsCmd, migrateCmd, settingsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig falls back to defaults when the file cannot be read.
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed (%v), using defaults\n", err)
		return config.Default()
	}
	return cfg
}

func quietLogger() *slog.Logger {
	return observability.NewLogger(observability.LogConfig{Level: "warn"}, os.Stderr)
}

func runEmit(stdout, stderr io.Writer, cfg typedefs.FilterConfig, req plugins.TypeDefinitionRequest, asJSON bool) error {
	p := plugins.New(plugins.Options{Version: version, Defaults: &cfg, Logger: quietLogger()})
	return p.HandleTypeDefinitions(context.Background(), req, func(defs []typedefs.Declaration) error {
		if asJSON {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(bridge.DefinitionsPayload{Definitions: defs})
		}
		if len(defs) == 0 {
			fmt.Fprintln(stderr, "No declarations: the request is suppressed by the current settings.")
			return nil
		}
		fmt.Fprintf(stderr, "// %s (%d bytes)\n", defs[0].Filename, len(defs[0].Contents))
		for _, d := range defs {
			if _, err := io.WriteString(stdout, d.Contents); err != nil {
				return err
			}
		}
		return nil
	})
}

func runMigrate(w io.Writer, path, format string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	// YAML is a superset of JSON, so both host exports parse here.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing settings: %w", err)
	}
	s, err := settings.Migrate(raw, version)
	if err != nil {
		return fmt.Errorf("migrating settings from %q: %w", settings.StoredVersion(raw), err)
	}
	return writeFormatted(w, format, s.Map())
}

func runSettings(w io.Writer, cfg *config.Config, serverURL string) error {
	defaults := cfg.Defaults.FilterConfig()
	opts := plugins.Options{Version: version, Defaults: &defaults, Logger: quietLogger()}
	if serverURL != "" {
		opts.Notifier = newRemoteNotifier(serverURL)
	}
	p := plugins.New(opts)

	final, err := tui.RunSettings(defaults, p.Panel)
	if err != nil {
		return err
	}
	return writeFormatted(w, "json", settings.New(final, version).Map())
}

func writeFormatted(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", format)
	}
}

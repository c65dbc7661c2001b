package plugins

// PluginType is the host's category for plugins that feed the script
// editor's language service.
const PluginType = "TypeDefinitionPlugin"

// Manifest describes the plugin to the host. Version is also stamped on
// every settings object the plugin writes.
type Manifest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Languages   []string `json:"languages"`
}

// DefaultManifest returns the manifest of this build.
func DefaultManifest(version string, languages []string) Manifest {
	return Manifest{
		ID:          "fraymakers.typedefs",
		Name:        "Fraymakers Type Definitions",
		Version:     version,
		Type:        PluginType,
		Description: "Type hints for Fraymakers hscript in frame scripts and script assets.",
		Languages:   languages,
	}
}

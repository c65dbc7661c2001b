package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

// RunSettings starts the interactive settings form over cfg and returns
// the configuration shown when the user quit.
func RunSettings(cfg typedefs.FilterConfig, newPanel PanelFactory) (typedefs.FilterConfig, error) {
	p := tea.NewProgram(NewSettingsModel(cfg, newPanel), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return typedefs.FilterConfig{}, fmt.Errorf("TUI error: %w", err)
	}
	return finalModel.(SettingsModel).Config(), nil
}

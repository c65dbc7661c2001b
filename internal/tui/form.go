package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/efebarandurmaz/fraytypes/internal/settings"
	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

// PanelFactory builds a panel over a config snapshot.
type PanelFactory func(cfg typedefs.FilterConfig) *settings.Panel

// previewTypes are cycled through by the preview pane.
var previewTypes = append([]typedefs.ObjectType{""}, typedefs.ObjectTypes...)

// SettingsModel is the settings form. Each action sends one change
// through the panel; on success the form rebuilds itself from the new
// snapshot the way the host would push it back.
type SettingsModel struct {
	panel     *settings.Panel
	newPanel  PanelFactory
	styles    *Styles
	cursor    int
	editing   bool
	textInput textinput.Model
	help      help.Model
	keys      keyMap
	status    string
	statusErr bool
	quitting  bool

	// preview request
	previewType  int
	previewAsset bool
}

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	Edit       key.Binding
	Cancel     key.Binding
	ObjectType key.Binding
	Scope      key.Binding
	Quit       key.Binding
}

func (km keyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Up, km.Down, km.Toggle, km.Edit, km.ObjectType, km.Scope, km.Quit}
}

func (km keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{km.Up, km.Down},
		{km.Toggle, km.Edit, km.Cancel},
		{km.ObjectType, km.Scope, km.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x/space", "toggle"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit/save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		ObjectType: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "preview type"),
		),
		Scope: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "frame/asset"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// NewSettingsModel creates the form over cfg. A nil factory builds
// panels that drop their changes.
func NewSettingsModel(cfg typedefs.FilterConfig, newPanel PanelFactory) SettingsModel {
	if newPanel == nil {
		newPanel = func(cfg typedefs.FilterConfig) *settings.Panel { return settings.NewPanel(cfg, "", nil) }
	}
	ti := textinput.New()
	ti.Placeholder = "comma-separated, empty allows all"
	ti.Width = 40

	return SettingsModel{
		panel:     newPanel(cfg),
		newPanel:  newPanel,
		styles:    DefaultStyles(),
		textInput: ti,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Config returns the snapshot the form currently shows.
func (m SettingsModel) Config() typedefs.FilterConfig { return m.panel.Config() }

func (m SettingsModel) Init() tea.Cmd {
	return nil
}

func (m SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}

		controls := m.panel.Controls()
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(controls)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Toggle):
			switch controls[m.cursor].Key {
			case settings.KeyFrameScripts:
				m.apply(m.panel.ToggleFrameScripts(context.Background()))
			case settings.KeyScriptAssets:
				m.apply(m.panel.ToggleScriptAssets(context.Background()))
			}

		case key.Matches(msg, m.keys.Edit):
			c := controls[m.cursor]
			if c.Kind != settings.ControlList {
				break
			}
			m.editing = true
			m.textInput.SetValue(strings.Join(c.Value.([]string), ", "))
			m.textInput.CursorEnd()
			return m, m.textInput.Focus()

		case key.Matches(msg, m.keys.ObjectType):
			m.previewType = (m.previewType + 1) % len(previewTypes)

		case key.Matches(msg, m.keys.Scope):
			m.previewAsset = !m.previewAsset
		}
	}
	return m, nil
}

func (m SettingsModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Edit):
		value := m.textInput.Value()
		switch m.panel.Controls()[m.cursor].Key {
		case settings.KeyExtensions:
			m.apply(m.panel.SetExtensions(context.Background(), settings.ParseExtensions(value)))
		case settings.KeyLanguages:
			m.apply(m.panel.SetLanguages(context.Background(), settings.ParseList(value)))
		}
		m.stopEditing()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.stopEditing()
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *SettingsModel) stopEditing() {
	m.editing = false
	m.textInput.Blur()
	m.textInput.SetValue("")
}

// apply adopts next as the new snapshot when the change was delivered.
func (m *SettingsModel) apply(next typedefs.FilterConfig, err error) {
	if err != nil {
		m.status, m.statusErr = err.Error(), true
		return
	}
	fields := settings.Diff(m.panel.Config(), next)
	m.panel = m.newPanel(next)
	if len(fields) == 0 {
		m.status, m.statusErr = "no change", false
		return
	}
	m.status, m.statusErr = "sent: "+strings.Join(fields, ", "), false
}

// previewRequest is the sample script the preview pane selects for.
func (m SettingsModel) previewRequest() typedefs.RequestContext {
	rc := typedefs.RequestContext{
		ScriptingLanguage: "hscript",
		ObjectType:        string(previewTypes[m.previewType]),
	}
	if m.previewAsset {
		rc.Filename = "Script.hx"
	}
	return rc
}

func (m SettingsModel) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.styles.Title.Render("Fraymakers Type Definitions"),
		m.renderControls(),
		m.renderPreview(),
	}
	if m.status != "" {
		style := m.styles.StatusSent
		if m.statusErr {
			style = m.styles.StatusError
		}
		sections = append(sections, style.Render(m.status))
	}
	sections = append(sections, m.styles.Help.Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SettingsModel) renderControls() string {
	var b strings.Builder
	for i, c := range m.panel.Controls() {
		label := m.styles.Label
		marker := "  "
		if i == m.cursor {
			label = m.styles.ActiveLabel
			marker = "> "
		}

		var value string
		switch v := c.Value.(type) {
		case bool:
			value = m.styles.Checkbox(v)
		case []string:
			if m.editing && i == m.cursor {
				value = m.textInput.View()
			} else if len(v) == 0 {
				value = m.styles.Muted.Render("(any)")
			} else {
				value = m.styles.Value.Render(strings.Join(v, ", "))
			}
		}
		fmt.Fprintf(&b, "%s%s  %s\n", marker, label.Render(c.Label), value)
		if i == m.cursor && c.Help != "" {
			fmt.Fprintf(&b, "    %s\n", m.styles.Muted.Render(c.Help))
		}
	}
	return m.styles.Border.Render(strings.TrimRight(b.String(), "\n"))
}

func (m SettingsModel) renderPreview() string {
	rc := m.previewRequest()
	scope := "frame script"
	if !rc.IsFrameScript() {
		scope = rc.Filename
	}
	objectType := rc.ObjectType
	if objectType == "" {
		objectType = "(none)"
	}
	header := fmt.Sprintf("Preview: %s, objectType %s", scope, objectType)

	res := typedefs.Select(rc, m.panel.Config())
	body := m.styles.Muted.Render("suppressed: no declarations")
	if !res.Empty() {
		names := make([]string, 0, len(res.Fragments))
		for _, n := range res.Names() {
			names = append(names, m.styles.Fragment.Render(n))
		}
		body = strings.Join(names, " ")
	}
	return m.styles.Preview.Render(header + "\n" + body)
}

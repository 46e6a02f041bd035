package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the palette every style is derived from
type Theme struct {
	Name string

	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Highlight   lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Name: "Tokyo Night",

	Background: lipgloss.Color("#1a1b26"),
	Foreground: lipgloss.Color("#c0caf5"),
	Muted:      lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),
	Accent:    lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#7aa2f7"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Highlight:   lipgloss.Color("#33467c"),
}

// Current holds the active theme
var Current = TokyoNight

// MaxWidth caps the content width on wide terminals
const MaxWidth = 80

// ContentWidth returns the smaller of the terminal width and MaxWidth
func ContentWidth(terminalWidth int) int {
	return min(terminalWidth, MaxWidth)
}

// CenterView centers content horizontally once the terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Center, lipgloss.Top, content)
}

// Styles holds the pre-computed styles for the task list screen
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style
	Danger     lipgloss.Style

	// rows
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	TaskTitle    lipgloss.Style
	TaskDone     lipgloss.Style
	TaskMeta     lipgloss.Style
	Checkbox     lipgloss.Style
	Marker       lipgloss.Style
	Selected     lipgloss.Style

	// header with filter and sort indicators
	FilterBar lipgloss.Style

	Button         lipgloss.Style
	ButtonFocused  lipgloss.Style
	ButtonDisabled lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style
	FieldError   lipgloss.Style

	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	Snackbar        lipgloss.Style
	SnackbarWarning lipgloss.Style
	SnackbarError   lipgloss.Style
	SnackbarAction  lipgloss.Style
}

func bordered(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c)
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current
	button := bordered(t.Border).Foreground(t.Foreground).Padding(0, 2)

	return &Styles{
		Title:      lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		TitleMuted: lipgloss.NewStyle().Foreground(t.Muted),
		Danger:     lipgloss.NewStyle().Foreground(t.Error).Bold(true),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),
		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Highlight).
			Padding(0, 2).
			Bold(true),
		TaskTitle: lipgloss.NewStyle().Foreground(t.Foreground),
		TaskDone:  lipgloss.NewStyle().Foreground(t.Muted).Strikethrough(true),
		TaskMeta:  lipgloss.NewStyle().Foreground(t.Muted),
		Checkbox:  lipgloss.NewStyle().Foreground(t.Success),
		Marker:    lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		Selected: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Secondary).
			Padding(0, 1).
			Bold(true),

		FilterBar: bordered(t.Border).Padding(0, 1),

		Button: button,
		ButtonFocused: button.
			Foreground(t.Primary).
			BorderForeground(t.BorderFocus).
			Bold(true),
		ButtonDisabled: button.Foreground(t.Muted),

		Input:        bordered(t.Border).Foreground(t.Foreground).Padding(0, 1),
		InputFocused: bordered(t.BorderFocus).Foreground(t.Foreground).Padding(0, 1),
		FieldError:   lipgloss.NewStyle().Foreground(t.Error),

		Help:     lipgloss.NewStyle().Foreground(t.Muted).Padding(1, 2),
		HelpKey:  lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		HelpDesc: lipgloss.NewStyle().Foreground(t.Muted),

		Snackbar:        bordered(t.Info).Foreground(t.Foreground).Padding(0, 1),
		SnackbarWarning: bordered(t.Warning).Foreground(t.Warning).Padding(0, 1),
		SnackbarError:   bordered(t.Error).Foreground(t.Error).Padding(0, 1),
		SnackbarAction:  lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
	}
}

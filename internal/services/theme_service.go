package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/list"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"lexshell/internal/data/embedded"
	"lexshell/internal/logger"
	"lexshell/pkg/lextypes"
)

// ThemeService loads the embedded themes and picks one for the terminal.
type ThemeService struct {
	initialized bool
	themes      map[string]*Theme
	detect      func() string
}

// Theme is a resolved set of lipgloss styles.
type Theme struct {
	Name      string
	Title     lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Meta      lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Info      lipgloss.Style
	Highlight lipgloss.Style
	Muted     lipgloss.Style
	Tag       lipgloss.Style
	List      lipgloss.Style
}

// NewThemeService creates a ThemeService that detects the terminal background.
func NewThemeService() *ThemeService {
	return &ThemeService{
		themes: make(map[string]*Theme),
		detect: DetectThemeName,
	}
}

// Name returns the service name "theme" for registration.
func (t *ThemeService) Name() string {
	return "theme"
}

// Initialize parses the embedded theme files.
func (t *ThemeService) Initialize() error {
	for name, data := range embedded.ThemeData() {
		theme, err := loadThemeFile(data)
		if err != nil {
			logger.Error("Failed to load theme", "theme", name, "error", err)
			t.themes[name] = PlainTheme()
			continue
		}
		t.themes[name] = theme
	}
	if _, ok := t.themes["plain"]; !ok {
		t.themes["plain"] = PlainTheme()
	}
	t.initialized = true
	return nil
}

// AvailableThemes returns the loaded theme names in sorted order.
func (t *ThemeService) AvailableThemes() []string {
	names := make([]string, 0, len(t.themes))
	for name := range t.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetThemeByName resolves a theme name, never failing.
// "auto" and "" pick a theme from the terminal; unknown names fall back to plain.
func (t *ThemeService) GetThemeByName(name string) *Theme {
	if !t.initialized {
		return PlainTheme()
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		name = t.detect()
	}
	if theme, ok := t.themes[name]; ok {
		return theme
	}
	logger.Debug("Unknown theme requested, using plain theme", "theme", name, "available", t.AvailableThemes())
	return t.themes["plain"]
}

// DetectThemeName picks a theme for the current terminal.
// NO_COLOR or a colorless terminal gives "plain"; otherwise the background decides.
func DetectThemeName() string {
	if termenv.EnvNoColor() || termenv.EnvColorProfile() == termenv.Ascii {
		return "plain"
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// PlainTheme returns a theme with no styling.
func PlainTheme() *Theme {
	s := lipgloss.NewStyle()
	return &Theme{
		Name: "plain", Title: s, User: s, Assistant: s, Meta: s, Success: s, Error: s,
		Warning: s, Info: s, Highlight: s, Muted: s, Tag: s, List: s,
	}
}

func loadThemeFile(data []byte) (*Theme, error) {
	var file lextypes.ThemeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse theme file: %w", err)
	}
	c := file.Styles
	return &Theme{
		Name:      file.Name,
		Title:     createStyle(c.Title),
		User:      createStyle(c.User),
		Assistant: createStyle(c.Assistant),
		Meta:      createStyle(c.Meta),
		Success:   createStyle(c.Success),
		Error:     createStyle(c.Error),
		Warning:   createStyle(c.Warning),
		Info:      createStyle(c.Info),
		Highlight: createStyle(c.Highlight),
		Muted:     createStyle(c.Muted),
		Tag:       createStyle(c.Tag),
		List:      createStyle(c.List),
	}, nil
}

func createStyle(config lextypes.StyleConfig) lipgloss.Style {
	style := lipgloss.NewStyle()

	if color := parseColor(config.Foreground); color != nil {
		style = style.Foreground(color)
	}
	if color := parseColor(config.Background); color != nil {
		style = style.Background(color)
	}
	if config.Bold != nil && *config.Bold {
		style = style.Bold(true)
	}
	if config.Italic != nil && *config.Italic {
		style = style.Italic(true)
	}
	if config.Underline != nil && *config.Underline {
		style = style.Underline(true)
	}
	if config.Strikethrough != nil && *config.Strikethrough {
		style = style.Strikethrough(true)
	}

	return style
}

// parseColor accepts a color string or a {light, dark} mapping.
func parseColor(value interface{}) lipgloss.TerminalColor {
	switch v := value.(type) {
	case string:
		return lipgloss.Color(v)
	case map[string]interface{}:
		light, hasLight := v["light"].(string)
		dark, hasDark := v["dark"].(string)
		if hasLight && hasDark {
			return lipgloss.AdaptiveColor{Light: light, Dark: dark}
		}
	}
	return nil
}

// CreateList creates a list with the theme's enumerator style.
func (t *Theme) CreateList(items ...any) *list.List {
	return list.New(items...).EnumeratorStyle(t.List.PaddingRight(1))
}

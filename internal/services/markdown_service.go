package services

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"

	"lexshell/internal/logger"
)

// DefaultWordWrap is the markdown wrap width when none is configured.
const DefaultWordWrap = 80

// MarkdownService renders assistant replies and AI overviews with Glamour.
type MarkdownService struct {
	initialized bool
	renderer    *glamour.TermRenderer
	width       int
	style       string
}

// NewMarkdownService creates a MarkdownService. A width <= 0 uses DefaultWordWrap;
// style is one of auto, dark, light, plain or ascii.
func NewMarkdownService(width int, style string) *MarkdownService {
	if width <= 0 {
		width = DefaultWordWrap
	}
	return &MarkdownService{width: width, style: style}
}

// Name returns the service name "markdown" for registration.
func (m *MarkdownService) Name() string {
	return "markdown"
}

// Initialize builds the Glamour renderer.
func (m *MarkdownService) Initialize() error {
	renderer, err := glamour.NewTermRenderer(styleOption(m.style), glamour.WithWordWrap(m.width))
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	m.renderer = renderer
	m.initialized = true

	logger.Debug("MarkdownService initialized", "width", m.width, "style", m.style)
	return nil
}

// Render renders markdown to ANSI terminal output.
// Blank input renders as "".
func (m *MarkdownService) Render(markdown string) (string, error) {
	if !m.initialized {
		return "", fmt.Errorf("markdown service not initialized")
	}
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}

	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return rendered, nil
}

// Width returns the configured wrap width.
func (m *MarkdownService) Width() int {
	return m.width
}

func styleOption(style string) glamour.TermRendererOption {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "dark":
		return glamour.WithStandardStyle(styles.DarkStyle)
	case "light":
		return glamour.WithStandardStyle(styles.LightStyle)
	case "plain", "notty":
		return glamour.WithStandardStyle(styles.NoTTYStyle)
	case "ascii":
		return glamour.WithStandardStyle(styles.AsciiStyle)
	}
	return glamour.WithAutoStyle()
}

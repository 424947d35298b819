// Package shell wires the lexshell components together and drives them from
// the interactive REPL and the one-shot CLI commands.
package shell

import (
	"fmt"
	"io"
	"os"

	"lexshell/internal/api"
	"lexshell/internal/config"
	"lexshell/internal/conversation"
	"lexshell/internal/httpclient"
	"lexshell/internal/logger"
	"lexshell/internal/mutation"
	"lexshell/internal/render"
	"lexshell/internal/search"
	"lexshell/internal/services"
	"lexshell/internal/store"
	"lexshell/internal/testutils"
	"lexshell/internal/version"
	"lexshell/pkg/lextypes"
)

// ChatMutationKey identifies the shared chat mutation.
const ChatMutationKey = "chatAgent"

// Copier copies text to the clipboard. *services.ClipboardService satisfies it.
type Copier interface {
	Copy(text string) error
}

// Session is one user's state: the UI store, the conversation and the search page.
type Session struct {
	Store     *store.Store
	Chat      *conversation.Conversation
	Search    *search.Search
	Render    *render.Renderer
	Clipboard Copier
	Out       io.Writer
}

// InitializeServices registers and initializes the presentation services.
func InitializeServices(cfg *config.Config) (*services.Registry, error) {
	registry := services.NewRegistry()
	for _, svc := range []lextypes.Service{
		services.NewThemeService(),
		services.NewMarkdownService(cfg.RenderWidth, cfg.RenderStyle),
		services.NewClipboardService(),
	} {
		if err := registry.RegisterService(svc); err != nil {
			return nil, err
		}
	}
	if err := registry.InitializeAll(); err != nil {
		return nil, err
	}
	logger.Debug("Services initialized")
	return registry, nil
}

// NewSession builds a Session talking to the configured backend.
func NewSession(cfg *config.Config, out io.Writer) (*Session, error) {
	registry, err := InitializeServices(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	themes, err := services.Get[*services.ThemeService](registry, "theme")
	if err != nil {
		return nil, err
	}
	md, err := services.Get[*services.MarkdownService](registry, "markdown")
	if err != nil {
		return nil, err
	}
	clip, err := services.Get[*services.ClipboardService](registry, "clipboard")
	if err != nil {
		return nil, err
	}

	hc := httpclient.New(cfg.APIURL,
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithUserAgent(version.UserAgent()),
	)
	client := api.New(hc)

	st := store.New()
	chat := mutation.New(ChatMutationKey, client.SendChatMessage)

	if out == nil {
		out = os.Stdout
	}
	return &Session{
		Store:     st,
		Chat:      conversation.New(chat, testutils.NewGenerator(cfg.TestMode)),
		Search:    search.New(client, st),
		Render:    render.New(themes.GetThemeByName(cfg.RenderStyle), md, cfg.RenderWidth),
		Clipboard: clip,
		Out:       out,
	}, nil
}

func (s *Session) println(a ...any) {
	_, _ = fmt.Fprintln(s.Out, a...)
}

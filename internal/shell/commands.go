package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"lexshell/internal/conversation"
	"lexshell/internal/logger"
	"lexshell/pkg/lextypes"
)

// CommandPrefix starts every shell command; other input is a chat message or a search query.
const CommandPrefix = `\`

// ErrUsage marks a command invoked with bad arguments.
var ErrUsage = errors.New("usage")

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, s *Session, args string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"search":        {`\search <query>`, "Switch to search mode and search past questions", runSearch},
		"chat":          {`\chat`, "Switch to chat mode and show the conversation", runChat},
		"mode":          {`\mode <search|chat|none>`, "Set where plain input goes", runMode},
		"status":        {`\status`, "Show the current mode, query and loading state", runStatus},
		"filter":        {`\filter <key> <value>`, "Toggle a search filter (course, institution, year, semester, session, exam_type, type, tags)", runFilter},
		"tag":           {`\tag <id>`, "Toggle a tag filter", runTag},
		"clear-filters": {`\clear-filters`, "Remove every search filter", runClearFilters},
		"facets":        {`\facets [facet] [query]`, "List filter options, optionally narrowed by query", runFacets},
		"show":          {`\show <id>`, "Show a past question with its AI overview", runShow},
		"close":         {`\close`, "Close the open past question", runClose},
		"retry":         {`\retry`, "Re-run the last search", runRetry},
		"follow":        {`\follow <n>`, "Ask the n-th suggested follow-up question", runFollow},
		"act":           {`\act <n>`, "Run the n-th suggested action", runAct},
		"new":           {`\new`, "Start a new conversation", runNew},
		"clear":         {`\clear`, "Clear the conversation", runClear},
		"copy":          {`\copy [n]`, "Copy message n (default: last reply) to the clipboard", runCopy},
		"export":        {`\export <path>`, "Export the conversation as JSON, or YAML for .yaml/.yml paths", runExport},
		"help":          {`\help`, "Show this help", runHelp},
	}
}

// Execute runs one line of input. It reports whether the shell should exit.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	if !strings.HasPrefix(line, CommandPrefix) {
		return false, s.route(ctx, line)
	}

	name, args, _ := strings.Cut(strings.TrimPrefix(line, CommandPrefix), " ")
	name = strings.ToLower(name)
	args = strings.TrimSpace(args)
	if name == "exit" || name == "quit" {
		return true, nil
	}
	cmd, ok := commands[name]
	if !ok {
		return false, fmt.Errorf("unknown command %s%s", CommandPrefix, name)
	}
	logger.Debug("Running command", "command", name, "args", args)
	if err := cmd.run(ctx, s, args); err != nil {
		if errors.Is(err, ErrUsage) {
			return false, fmt.Errorf("usage: %s", cmd.usage)
		}
		return false, err
	}
	return false, nil
}

// route sends plain input to search or chat depending on the active mode.
func (s *Session) route(ctx context.Context, line string) error {
	if s.Store.Action() == lextypes.ActionSearch {
		return s.submitSearch(ctx, line)
	}
	s.Store.SetAction(lextypes.ActionChat)
	return s.send(ctx, line)
}

func (s *Session) send(ctx context.Context, text string) error {
	msg, err := s.Chat.Send(ctx, text)
	if err != nil {
		return err
	}
	s.println(s.Render.Message(msg))
	return nil
}

func (s *Session) submitSearch(ctx context.Context, query string) error {
	_, err := s.Search.Submit(ctx, query)
	return s.printResults(err)
}

func (s *Session) printResults(err error) error {
	if err != nil {
		s.println(s.Render.Error(err))
		s.println(s.Render.Theme().Muted.Render(`Type \retry to try again.`))
		return nil
	}
	state := s.Search.Results()
	s.println(s.Render.Results(state.Data, state.Count, s.Search.Params()))
	return nil
}

func runSearch(ctx context.Context, s *Session, args string) error {
	s.Store.SetAction(lextypes.ActionSearch)
	return s.submitSearch(ctx, args)
}

func runChat(_ context.Context, s *Session, _ string) error {
	s.Store.SetAction(lextypes.ActionChat)
	s.println(s.Render.Transcript(s.Chat.Messages()))
	return nil
}

func runMode(_ context.Context, s *Session, args string) error {
	if args == "" {
		return ErrUsage
	}
	action, err := lextypes.ParseUIAction(args)
	if err != nil {
		return err
	}
	s.Store.SetAction(action)
	s.println(s.Render.Status(s.Store.State()))
	return nil
}

func runStatus(_ context.Context, s *Session, _ string) error {
	s.println(s.Render.Status(s.Store.State()))
	return nil
}

func runFilter(ctx context.Context, s *Session, args string) error {
	keyArg, value, _ := strings.Cut(args, " ")
	value = strings.TrimSpace(value)
	if keyArg == "" || value == "" {
		return ErrUsage
	}
	key, ok := lextypes.ParseFilterKey(keyArg)
	if !ok {
		return fmt.Errorf("unknown filter %q", keyArg)
	}
	s.Store.SetAction(lextypes.ActionSearch)
	_, err := s.Search.ToggleFilter(ctx, key, value)
	return s.printResults(err)
}

func runTag(ctx context.Context, s *Session, args string) error {
	if args == "" {
		return ErrUsage
	}
	s.Store.SetAction(lextypes.ActionSearch)
	_, err := s.Search.ToggleTag(ctx, args)
	return s.printResults(err)
}

func runClearFilters(ctx context.Context, s *Session, _ string) error {
	_, err := s.Search.ClearFilters(ctx)
	return s.printResults(err)
}

func runRetry(ctx context.Context, s *Session, _ string) error {
	_, err := s.Search.Retry(ctx)
	return s.printResults(err)
}

func runFacets(ctx context.Context, s *Session, args string) error {
	if s.Search.FilterMap().Data == nil {
		if _, err := s.Search.LoadFilters(ctx); err != nil {
			return err
		}
	}

	keyArg, query, _ := strings.Cut(args, " ")
	if keyArg == "" {
		params := s.Search.Params()
		for _, key := range lextypes.FilterKeys {
			s.println(s.Render.Facets(key, s.Search.FacetOptions(key, ""), params.Get(key)))
		}
		return nil
	}

	key, ok := lextypes.ParseFilterKey(keyArg)
	if !ok {
		return fmt.Errorf("unknown filter %q", keyArg)
	}
	options := s.Search.FacetOptions(key, query)
	s.println(s.Render.Facets(key, options, s.Search.Params().Get(key)))
	return nil
}

func runShow(ctx context.Context, s *Session, args string) error {
	if args == "" {
		return ErrUsage
	}
	detail, err := s.Search.OpenDetail(ctx, args)
	if err != nil {
		return err
	}
	s.println(s.Render.Detail(detail))
	return nil
}

func runClose(_ context.Context, s *Session, _ string) error {
	s.Search.CloseDetail()
	s.println(s.Render.Info("Closed."))
	return nil
}

func runFollow(ctx context.Context, s *Session, args string) error {
	resp, ok := s.Chat.LastResponse()
	if !ok {
		return errors.New("no suggestions yet")
	}
	i, err := pick(args, len(resp.FollowUpQuestions))
	if err != nil {
		return err
	}
	msg, err := s.Chat.SelectFollowUp(ctx, resp.FollowUpQuestions[i])
	if err != nil {
		return err
	}
	s.println(s.Render.Message(msg))
	return nil
}

func runAct(ctx context.Context, s *Session, args string) error {
	resp, ok := s.Chat.LastResponse()
	if !ok {
		return errors.New("no suggestions yet")
	}
	i, err := pick(args, len(resp.SmartActions))
	if err != nil {
		return err
	}
	msg, err := s.Chat.SelectSmartAction(ctx, resp.SmartActions[i])
	if err != nil {
		return err
	}
	s.println(s.Render.Message(msg))
	return nil
}

func runNew(_ context.Context, s *Session, _ string) error {
	s.Chat.NewChat()
	s.Store.SetAction(lextypes.ActionChat)
	s.println(s.Render.Info("Started a new conversation."))
	return nil
}

func runClear(_ context.Context, s *Session, _ string) error {
	s.Chat.Clear()
	s.println(s.Render.Info("Conversation cleared."))
	return nil
}

func runCopy(_ context.Context, s *Session, args string) error {
	if s.Clipboard == nil {
		return errors.New("clipboard not available")
	}
	messages := s.Chat.Messages()
	var msg conversation.Message
	if args == "" {
		found := false
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Role == lextypes.RoleAssistant && messages[i].Status == conversation.StatusFulfilled {
				msg, found = messages[i], true
				break
			}
		}
		if !found {
			return errors.New("no reply to copy")
		}
	} else {
		i, err := pick(args, len(messages))
		if err != nil {
			return err
		}
		msg = messages[i]
	}
	if err := s.Clipboard.Copy(msg.Content); err != nil {
		return err
	}
	s.println(s.Render.Success("Copied to clipboard."))
	return nil
}

// createExportFile opens the destination of \export.
var createExportFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func runExport(_ context.Context, s *Session, args string) error {
	if args == "" {
		return ErrUsage
	}
	f, err := createExportFile(args)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", args, err)
	}
	if err := s.Chat.Export(f, conversation.FormatForPath(args)); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export conversation: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", args, err)
	}
	s.println(s.Render.Success(fmt.Sprintf("Exported %d messages to %s", s.Chat.Len(), args)))
	return nil
}

func runHelp(_ context.Context, s *Session, _ string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	theme := s.Render.Theme()
	s.println(theme.Title.Render("Commands"))
	for _, name := range names {
		cmd := commands[name]
		s.println(fmt.Sprintf("  %-28s %s", cmd.usage, theme.Muted.Render(cmd.help)))
	}
	s.println(fmt.Sprintf("  %-28s %s", `\exit`, theme.Muted.Render("Leave the shell")))
	s.println(theme.Muted.Render("Plain input is sent to the assistant, or searched in search mode."))
	return nil
}

// pick parses a 1-based index into a list of n items.
func pick(arg string, n int) (int, error) {
	if arg == "" {
		return 0, ErrUsage
	}
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", arg)
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("no item %d (have %d)", i, n)
	}
	return i - 1, nil
}

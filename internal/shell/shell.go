package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/abiosoft/readline"

	"lexshell/internal/logger"
	"lexshell/internal/version"
	"lexshell/pkg/lextypes"
)

// Prompt returns the REPL prompt for a mode.
func Prompt(action lextypes.UIAction) string {
	if action == lextypes.ActionNone || action == "" {
		return "lex> "
	}
	return fmt.Sprintf("lex[%s]> ", action)
}

// Completer completes command names after the command prefix.
func Completer() readline.AutoCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands)+1)
	for name := range commands {
		items = append(items, readline.PcItem(CommandPrefix+name))
	}
	items = append(items, readline.PcItem(CommandPrefix+"exit"))
	return readline.NewPrefixCompleter(items...)
}

// Run starts the interactive shell and blocks until the user exits.
func Run(ctx context.Context, s *Session, historyFile string) {
	sh := ishell.NewWithConfig(&readline.Config{
		Prompt:          Prompt(s.Store.Action()),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       `\exit`,
	})
	sh.SetOut(s.Out)

	// Remove built-in commands so their names reach the assistant as plain text.
	sh.DeleteCmd("exit")
	sh.DeleteCmd("help")
	sh.DeleteCmd("clear")
	sh.CustomCompleter(Completer())

	unsubscribe := s.Store.Subscribe(func(state lextypes.UIActionState) {
		sh.SetPrompt(Prompt(state.Action))
	})
	defer unsubscribe()

	sh.NotFound(func(c *ishell.Context) {
		line := strings.TrimSpace(strings.Join(c.RawArgs, " "))
		exit, err := s.Execute(ctx, line)
		if err != nil {
			logger.Error("Command failed", "input", line, "error", err)
			c.Println(s.Render.Error(err))
			if !strings.Contains(strings.ToLower(line), "help") {
				c.Println(s.Render.Theme().Muted.Render(`Type \help for available commands`))
			}
		}
		if exit {
			c.Stop()
		}
	})

	sh.Println(fmt.Sprintf("%s - past questions and legal research assistant", version.GetFormattedVersion()))
	sh.Println(`Ask a question, or type \search <query>. Type \help for commands or \exit to quit.`)

	sh.Run()
	sh.Close()
}

// Package main provides the lexshell CLI entry point.
// lexshell is a terminal client for the past-questions search and legal AI assistant backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lexshell/internal/config"
	"lexshell/internal/conversation"
	"lexshell/internal/logger"
	"lexshell/internal/shell"
	"lexshell/internal/version"
	"lexshell/pkg/lextypes"
)

var (
	v   = config.New()
	cfg *config.Config

	searchFilters lextypes.SearchParams
	searchTags    []string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lexshell",
	Short: "lexshell - past questions search and legal AI assistant",
	Long: `lexshell is a terminal client for the past-questions search service and the
legal AI assistant. Run it without arguments for the interactive shell.`,
	SilenceUsage: true,
	RunE:         runShell,
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start interactive shell mode",
	RunE:  runShell,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search past questions",
	Args:  cobra.ArbitraryArgs,
	RunE:  runSearch,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a past question with its AI overview",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var facetsCmd = &cobra.Command{
	Use:   "facets [facet] [query]",
	Short: "List the available search filters",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runFacets,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		if verbose {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetDetailedVersion())
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.GetFormattedVersion())
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("api-url", "", "Backend base URL [default: "+config.DefaultAPIURL+"]")
	flags.String("log-level", "", "Set log level (debug|info|warn|error) [default: warn]")
	flags.String("log-file", "", "Write logs to file instead of stderr")
	flags.Bool("test-mode", false, "Run in deterministic test mode")
	flags.String("style", "", "Render style (auto|dark|light|plain)")
	flags.Int("width", 0, "Render width in columns")

	bindings := map[string]string{
		config.KeyAPIURL:      "api-url",
		config.KeyLogLevel:    "log-level",
		config.KeyLogFile:     "log-file",
		config.KeyTestMode:    "test-mode",
		config.KeyRenderStyle: "style",
		config.KeyRenderWidth: "width",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", flag, err)
			os.Exit(1)
		}
	}

	sf := searchCmd.Flags()
	sf.StringVar(&searchFilters.CourseID, "course", "", "Filter by course id")
	sf.StringVar(&searchFilters.InstitutionID, "institution", "", "Filter by institution id")
	sf.StringVar(&searchFilters.Year, "year", "", "Filter by year")
	sf.StringVar(&searchFilters.Semester, "semester", "", "Filter by semester")
	sf.StringVar(&searchFilters.Session, "session", "", "Filter by academic session")
	sf.StringVar(&searchFilters.ExamType, "exam-type", "", "Filter by exam type")
	sf.StringVar(&searchFilters.Type, "type", "", "Filter by question type (mcq|essay)")
	sf.StringSliceVar(&searchTags, "tag", nil, "Filter by tag id (repeatable)")

	versionCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed build information")

	rootCmd.AddCommand(shellCmd, askCmd, searchCmd, showCmd, facetsCmd, versionCmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	configDir, err := config.UserConfigDir()
	if err != nil {
		configDir = ""
	}
	workDir, _ := os.Getwd()
	if _, err := config.LoadDotEnv(workDir, configDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err = config.Load(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.HistoryFile == "" && configDir != "" {
		cfg.HistoryFile = filepath.Join(configDir, "history")
	}

	if err := logger.Configure(cfg.LogLevel, cfg.LogFile, cfg.TestMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("Configuration loaded", "api_url", cfg.APIURL, "timeout", cfg.Timeout)
	if err := version.ValidateVersion(); err != nil {
		logger.Warn("Build version is not a semantic version", "error", err)
	}
}

func newSession(cmd *cobra.Command) (*shell.Session, error) {
	return shell.NewSession(cfg, cmd.OutOrStdout())
}

func runShell(cmd *cobra.Command, _ []string) error {
	logger.Info("Starting lexshell", "version", version.Version, "api_url", cfg.APIURL)

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	history := cfg.HistoryFile
	if history != "" {
		if err := os.MkdirAll(filepath.Dir(history), 0o755); err != nil {
			logger.Warn("History disabled", "path", history, "error", err)
			history = ""
		}
	}

	shell.Run(cmd.Context(), s, history)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	msg, err := s.Chat.Send(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s.Render.Message(msg))
	if msg.Status == conversation.StatusFailed {
		return fmt.Errorf("chat request failed")
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	params := searchFilters
	params.Query = strings.Join(args, " ")
	params.Tags = strings.Join(searchTags, ",")
	s.Search.SetParams(params)

	results, err := s.Search.Retry(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s.Render.Results(results, s.Search.Results().Count, s.Search.Params()))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	detail, err := s.Search.OpenDetail(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s.Render.Detail(detail))
	return nil
}

func runFacets(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	line := `\facets ` + strings.Join(args, " ")
	_, err = s.Execute(cmd.Context(), line)
	return err
}

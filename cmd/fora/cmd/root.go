package cmd

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/fora/internal/config"
	"github.com/pders01/fora/internal/debuglog"
	"github.com/pders01/fora/internal/history"
	"github.com/pders01/fora/internal/navigation"
	"github.com/pders01/fora/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

const forumView navigation.ViewID = "forum"

var (
	cfgFile    string
	dbPath     string
	logLevel   string
	logFile    string
	quiet      bool
	permissive bool
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fora",
	Short: "Terminal forum browser",
	Long: `fora browses a local forum of sections, topics and posts.

Every page is a search: browsing into a message lists its replies, and
custom searches filter by text, author or topic. Pages are addressed by
history tokens, so back/forward and "fora open <token>" return to them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "generate" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		return setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = debuglog.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context(), "")
	},
}

// Execute runs the root command with a background context.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context, so an
// interrupt cancels running imports and searches.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/fora/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: off, error, warn, info, debug (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file, - for stderr (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&permissive, "permissive", false, "allow any database path and local feed URLs")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "skip the startup banner")
}

func setupLogging() error {
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	file := cfg.Log.File
	if logFile != "" {
		file = logFile
	}

	parsed := debuglog.ParseLogLevel(level)
	if file == "-" {
		debuglog.SetOutput(parsed, os.Stderr)
		return nil
	}
	if err := debuglog.Setup(parsed, file); err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	return nil
}

// runTUI opens the forum and runs the interactive browser, starting at
// token or, when token is empty, where the last session stopped.
func runTUI(ctx context.Context, token string) error {
	if !quiet {
		tui.ShowBanner(Version)
	}

	f, err := openForum()
	if err != nil {
		return err
	}
	defer f.Close()

	if token == "" && cfg.History.Persist {
		if token, err = history.Restore(f.store); err != nil {
			debuglog.Warnf("%v", err)
		}
	}

	browser := history.NewBrowser(cfg.History.MaxEntries, forumView)
	session := navigation.NewSession(browser, cfg.History.Prefix, forumView)
	bridge := tui.NewBridge()
	orch := navigation.NewOrchestrator(session, f.exec, bridge)

	tui.ApplyColors(cfg.UI.Colors)
	app := tui.NewApp(ctx, cfg, f.store, orch, browser)
	app.SetImporter(f.importer())
	app.SetListener(f.listener())
	app.SetAuthor(currentLogin())
	app.SetStartToken(token)

	p := tea.NewProgram(app, tea.WithContext(ctx))
	bridge.Attach(p.Send)

	_, runErr := p.Run()
	orch.Wait()

	if cfg.History.Persist {
		if err := browser.Persist(f.store); err != nil {
			debuglog.Warnf("%v", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("run browser: %w", runErr)
	}
	return nil
}

// withPrefix accepts tokens with or without the configured prefix.
func withPrefix(token string) string {
	if strings.HasPrefix(token, cfg.History.Prefix) {
		return token
	}
	return cfg.History.Prefix + token
}

func currentLogin() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if login := os.Getenv("USER"); login != "" {
		return login
	}
	return "anonymous"
}

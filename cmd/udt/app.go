package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/j-veylop/usage-dashboard-tui/internal/app"
	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/services"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/tabs/account"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/tabs/auth"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/tabs/dashboard"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/tabs/history"
	"github.com/j-veylop/usage-dashboard-tui/internal/version"
)

// errNotSignedIn is returned by subcommands that need a session.
var errNotSignedIn = errors.New("not signed in, run 'udt login' first")

// runner holds what every command needs. Tests swap both fields.
type runner struct {
	out        io.Writer
	loadConfig func() (*config.Config, error)
}

// command builds the root command.
func (r *runner) command() *cli.Command {
	return &cli.Command{
		Name:    "udt",
		Usage:   "Terminal dashboard for API usage, cost and forecasts",
		Version: version.GetVersion(),
		Description: `Runs the interactive dashboard when called without a subcommand.

Configuration is read from .env files (current directory, then
~/.config/usage-dashboard-tui/.env) and the environment:
  API_URL, REQUEST_TIMEOUT, REFRESH_INTERVAL, DEFAULT_PERIOD, AUTO_REFRESH,
  SESSION_PATH, DATABASE_PATH, LOG_PATH, LOG_LEVEL, DESKTOP_NOTIFICATIONS`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "export-dir",
				Usage: "directory the dashboard writes exports to",
				Value: ".",
			},
		},
		Action: r.runTUI,
		Commands: []*cli.Command{
			r.loginCommand(),
			r.registerCommand(),
			r.logoutCommand(),
			r.whoamiCommand(),
			r.usageCommand(),
			r.recordCommand(),
			r.exportCommand(),
			r.predictionsCommand(),
			r.keysCommand(),
			r.settingsCommand(),
			r.versionCommand(),
		},
	}
}

// setup loads configuration, points the logger at the log file and starts
// the service manager. The returned cleanup must always be called.
func (r *runner) setup() (*services.Manager, *config.Config, func(), error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var logCloser io.Closer
	if cfg.LogPath != "" {
		logCloser, err = logger.Setup(cfg.LogPath, cfg.LogLevel)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	mgr, err := services.NewManager(cfg)
	if err != nil {
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	cleanup := func() {
		if closeErr := mgr.Close(); closeErr != nil {
			logger.Warn("error closing services", "error", closeErr)
		}
		if logCloser != nil {
			_ = logCloser.Close()
		}
	}
	return mgr, cfg, cleanup, nil
}

// withManager runs fn with a started manager.
func (r *runner) withManager(fn func(mgr *services.Manager, cfg *config.Config) error) error {
	mgr, cfg, cleanup, err := r.setup()
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(mgr, cfg)
}

// withSession runs fn after verifying the persisted session.
func (r *runner) withSession(ctx context.Context, fn func(mgr *services.Manager, cfg *config.Config) error) error {
	return r.withManager(func(mgr *services.Manager, cfg *config.Config) error {
		if err := mgr.CheckAuth(ctx); err != nil {
			return err
		}
		if !mgr.Session().IsAuthenticated {
			return errNotSignedIn
		}
		return fn(mgr, cfg)
	})
}

// runTUI is the default action.
func (r *runner) runTUI(ctx context.Context, cmd *cli.Command) error {
	return r.withManager(func(mgr *services.Manager, cfg *config.Config) error {
		model := app.NewModel(mgr)

		state := model.GetState()
		model.SetTabs([]app.Tab{
			dashboard.New(state, mgr, cmd.String("export-dir")), // Tab 0: usage overview
			history.New(state, mgr),                             // Tab 1: snapshot history
			account.New(state, mgr, cfg),                        // Tab 2: profile and API keys
		})
		model.SetAuthScreen(auth.New(state, mgr))

		p := tea.NewProgram(
			model,
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
		)

		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				p.Send(tea.Quit())
			case <-done:
			}
		}()

		logger.Info("starting dashboard", "version", version.GetVersion(), "api", cfg.APIURL)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	})
}

// printf writes to the command output. Write errors on a terminal are not
// actionable.
func (r *runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func exportDir(dir string) string {
	if dir != "" {
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

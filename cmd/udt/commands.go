package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/format"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/predictions"
	"github.com/j-veylop/usage-dashboard-tui/internal/services"
	"github.com/j-veylop/usage-dashboard-tui/internal/version"
)

const defaultRecordLimit = 20

func (r *runner) loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "account email", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "account password", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			creds := models.Credentials{
				Email:    strings.TrimSpace(cmd.String("email")),
				Password: cmd.String("password"),
			}
			if err := creds.Validate(); err != nil {
				return err
			}
			return r.withManager(func(mgr *services.Manager, _ *config.Config) error {
				if err := mgr.Login(ctx, creds); err != nil {
					return err
				}
				r.printf("Signed in as %s\n", mgr.Session().User.DisplayName())
				return nil
			})
		},
	}
}

func (r *runner) registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "display name", Required: true},
			&cli.StringFlag{Name: "organization", Usage: "organization"},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "account email", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "account password", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reg := models.Registration{
				Name:         strings.TrimSpace(cmd.String("name")),
				Organization: strings.TrimSpace(cmd.String("organization")),
				Email:        strings.TrimSpace(cmd.String("email")),
				Password:     cmd.String("password"),
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			return r.withManager(func(mgr *services.Manager, _ *config.Config) error {
				if err := mgr.Register(ctx, reg); err != nil {
					return err
				}
				r.printf("Account created, signed in as %s\n", mgr.Session().User.DisplayName())
				return nil
			})
		},
	}
}

func (r *runner) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Sign out and forget the stored session",
		Action: func(context.Context, *cli.Command) error {
			return r.withManager(func(mgr *services.Manager, _ *config.Config) error {
				mgr.Logout()
				r.printf("Signed out\n")
				return nil
			})
		},
	}
}

func (r *runner) whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in user",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return r.withSession(ctx, func(mgr *services.Manager, cfg *config.Config) error {
				user := mgr.Session().User
				for _, f := range []struct{ key, label string }{
					{"name", "Name"},
					{"email", "Email"},
					{"organization", "Organization"},
					{"role", "Role"},
				} {
					if v := user.Field(f.key); v != "" {
						r.printf("%-14s %s\n", f.label+":", v)
					}
				}
				r.printf("%-14s %s\n", "API:", cfg.APIURL)
				return nil
			})
		},
	}
}

func periodFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "period",
		Aliases: []string{"P"},
		Usage:   "time window: 24h, 7d, 30d or 90d (default from DEFAULT_PERIOD)",
	}
}

// periodOf resolves the --period flag against the configured default.
func periodOf(cmd *cli.Command, cfg *config.Config) (models.Period, error) {
	if v := cmd.String("period"); v != "" {
		return models.ParsePeriod(v)
	}
	if cfg.DefaultPeriod != "" {
		return cfg.DefaultPeriod, nil
	}
	return models.DefaultPeriod, nil
}

func (r *runner) usageCommand() *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "Print usage totals and the most recent requests",
		Flags: []cli.Flag{
			periodFlag(),
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "number of records to list", Value: defaultRecordLimit},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return r.withSession(ctx, func(mgr *services.Manager, cfg *config.Config) error {
				period, err := periodOf(cmd, cfg)
				if err != nil {
					return err
				}

				stats, err := mgr.Gateway().Stats(ctx, period)
				if err != nil {
					return err
				}
				records, err := mgr.Gateway().Usage(ctx, period)
				if err != nil {
					return err
				}

				r.printf("%s\n\n", period.Label())
				r.printf("%-14s %s %s\n", "Total cost:", format.Currency(stats.TotalCost), format.Trend(stats.CostTrend))
				r.printf("%-14s %s\n", "Tokens:", format.Number(stats.TotalTokens))
				r.printf("%-14s %s\n", "Requests:", format.Number(stats.TotalRequests))
				r.printf("%-14s %s\n", "Error rate:", format.Percent(stats.ErrorRate))
				if stats.AvgResponseTime != nil {
					r.printf("%-14s %s\n", "Avg latency:", format.Latency(*stats.AvgResponseTime))
				}

				if len(records) == 0 {
					r.printf("\nNo usage recorded in this period\n")
					return nil
				}

				limit := max(int(cmd.Int("limit")), 1)
				if len(records) > limit {
					records = records[len(records)-limit:]
				}
				rows := make([][]string, 0, len(records))
				for i := len(records) - 1; i >= 0; i-- {
					rec := records[i]
					rows = append(rows, []string{
						rec.Timestamp.Local().Format("Jan 02 15:04"),
						rec.ModelName,
						format.Compact(rec.TotalTokens),
						format.Currency(rec.Cost),
					})
				}
				r.printf("\n%s\n", renderTable([]string{"Time", "Model", "Tokens", "Cost"}, rows))
				return nil
			})
		},
	}
}

func (r *runner) recordCommand() *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Record a single API request",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "key-id", Usage: "id of the API key used", Required: true},
			&cli.StringFlag{Name: "model", Usage: "model name", Required: true},
			&cli.IntFlag{Name: "input", Usage: "input tokens"},
			&cli.IntFlag{Name: "output", Usage: "output tokens"},
			&cli.StringFlag{Name: "endpoint", Usage: "endpoint called"},
			&cli.IntFlag{Name: "status", Usage: "HTTP status code"},
			&cli.IntFlag{Name: "latency", Usage: "response time in milliseconds"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			in := models.UsageRecordInput{
				APIKeyID:       cmd.String("key-id"),
				ModelName:      cmd.String("model"),
				InputTokens:    int64(cmd.Int("input")),
				OutputTokens:   int64(cmd.Int("output")),
				Endpoint:       cmd.String("endpoint"),
				StatusCode:     int(cmd.Int("status")),
				ResponseTimeMs: int64(cmd.Int("latency")),
			}
			if err := in.Validate(); err != nil {
				return err
			}
			return r.withSession(ctx, func(mgr *services.Manager, _ *config.Config) error {
				rec, err := mgr.RecordUsage(ctx, in)
				if err != nil {
					return err
				}
				r.printf("Recorded %s tokens on %s (%s)\n",
					format.Number(rec.TotalTokens), rec.ModelName, format.Currency(rec.Cost))
				return nil
			})
		},
	}
}

func (r *runner) exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Download usage for a period as JSON",
		Flags: []cli.Flag{
			periodFlag(),
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "output directory", Value: "."},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return r.withSession(ctx, func(mgr *services.Manager, cfg *config.Config) error {
				period, err := periodOf(cmd, cfg)
				if err != nil {
					return err
				}
				path, err := mgr.Export(ctx, period, exportDir(cmd.String("dir")))
				if err != nil {
					return err
				}
				r.printf("%s\n", path)
				return nil
			})
		},
	}
}

func (r *runner) predictionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "predictions",
		Usage: "List cost forecasts",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "generate", Aliases: []string{"g"}, Usage: "ask the server for a new forecast first"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return r.withSession(ctx, func(mgr *services.Manager, _ *config.Config) error {
				f := predictions.New(mgr.Gateway())
				state := f.Load(ctx)
				if state.Error != "" {
					return errors.New(state.Error)
				}
				if cmd.Bool("generate") {
					if _, err := f.Generate(ctx); err != nil {
						return err
					}
					state = f.State()
				}
				if len(state.Predictions) == 0 {
					r.printf("No forecasts yet. Run 'udt predictions --generate' to create one.\n")
					return nil
				}

				rows := make([][]string, 0, len(state.Predictions))
				for _, p := range state.Predictions {
					rows = append(rows, []string{
						p.CreatedAt.Local().Format("2006-01-02"),
						format.Currency(p.PredictedDailyCost),
						format.Currency(p.PredictedWeeklyCost),
						format.Currency(p.PredictedMonthlyCost),
						format.Percent(p.ConfidencePercent()),
					})
				}
				r.printf("%s\n", renderTable([]string{"Created", "Daily", "Weekly", "Monthly", "Confidence"}, rows))
				return nil
			})
		},
	}
}

func (r *runner) keysCommand() *cli.Command {
	list := func(ctx context.Context, _ *cli.Command) error {
		return r.withSession(ctx, func(mgr *services.Manager, _ *config.Config) error {
			keys, err := mgr.APIKeys(ctx)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				r.printf("No API keys registered.\n")
				return nil
			}
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				status := "disabled"
				if k.IsActive {
					status = "active"
				}
				rows = append(rows, []string{k.ID, k.Name, k.Provider, k.KeyPreview, status})
			}
			r.printf("%s\n", renderTable([]string{"ID", "Name", "Provider", "Key", "Status"}, rows))
			return nil
		})
	}

	setActive := func(active bool) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("usage: udt keys %s <id>", cmd.Name)
			}
			return r.withSession(ctx, func(mgr *services.Manager, _ *config.Config) error {
				key, err := mgr.SetAPIKeyActive(ctx, id, active)
				if err != nil {
					return err
				}
				state := "disabled"
				if key.IsActive {
					state = "enabled"
				}
				r.printf("%s %s\n", key.Name, state)
				return nil
			})
		}
	}

	return &cli.Command{
		Name:   "keys",
		Usage:  "Manage provider API keys",
		Action: list,
		Commands: []*cli.Command{
			{Name: "list", Usage: "List registered keys", Action: list},
			{
				Name:  "add",
				Usage: "Register a provider key",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "label for the key", Required: true},
					&cli.StringFlag{Name: "provider", Usage: "provider, e.g. openai", Required: true},
					&cli.StringFlag{Name: "key", Usage: "the secret key", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					in := models.APIKeyInput{
						Name:     strings.TrimSpace(cmd.String("name")),
						Provider: strings.ToLower(strings.TrimSpace(cmd.String("provider"))),
						APIKey:   strings.TrimSpace(cmd.String("key")),
					}
					if err := in.Validate(); err != nil {
						return err
					}
					return r.withSession(ctx, func(mgr *services.Manager, _ *config.Config) error {
						key, err := mgr.CreateAPIKey(ctx, in)
						if err != nil {
							return err
						}
						r.printf("Added %s (%s)\n", key.Name, key.ID)
						return nil
					})
				},
			},
			{Name: "enable", Usage: "Enable a key", ArgsUsage: "<id>", Action: setActive(true)},
			{Name: "disable", Usage: "Disable a key", ArgsUsage: "<id>", Action: setActive(false)},
			{
				Name:      "delete",
				Usage:     "Delete a key",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id := cmd.Args().First()
					if id == "" {
						return fmt.Errorf("usage: udt keys delete <id>")
					}
					return r.withSession(ctx, func(mgr *services.Manager, _ *config.Config) error {
						if err := mgr.DeleteAPIKey(ctx, id); err != nil {
							return err
						}
						r.printf("Deleted %s\n", id)
						return nil
					})
				},
			},
		},
	}
}

func (r *runner) settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Update profile name, organization or password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "new display name"},
			&cli.StringFlag{Name: "organization", Usage: "new organization"},
			&cli.StringFlag{Name: "password", Usage: "new password"},
			&cli.StringFlag{Name: "confirm-password", Usage: "repeat the new password"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			update := models.SettingsUpdate{
				Name:            strings.TrimSpace(cmd.String("name")),
				Organization:    strings.TrimSpace(cmd.String("organization")),
				Password:        cmd.String("password"),
				ConfirmPassword: cmd.String("confirm-password"),
			}
			if err := update.Validate(); err != nil {
				return err
			}
			return r.withSession(ctx, func(mgr *services.Manager, _ *config.Config) error {
				if err := mgr.UpdateSettings(ctx, update); err != nil {
					return err
				}
				r.printf("Settings updated\n")
				return nil
			})
		},
	}
}

func (r *runner) versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(context.Context, *cli.Command) error {
			r.printf("%s\n", version.Info())
			return nil
		},
	}
}

// renderTable draws rows with a plain border so output stays readable when piped.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}

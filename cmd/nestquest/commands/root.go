package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/nestquest/nestquest-cli/internal/app"
	"github.com/nestquest/nestquest-cli/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "nestquest",
		Usage: "NestQuest property platform companion",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "backend--base-url",
				Usage: "backend API base URL",
				Value: app.DefaultConfigBackendBaseURL,
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			registerCommand(),
			logoutCommand(),
			passwordResetCommand(),
			whoamiCommand(),
			profileCommand(),
			propertyCommand(),
			eventsCommand(),
			meetingsCommand(),
			notificationsCommand(),
			gatewayCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// setup loads configuration, installs logging and builds the application.
// Every command action starts here.
func setup(cmd *cli.Command) (*app.App, *app.Config, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating app
	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return nil, nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create app: %w", err)
	}

	return application, cfg, nil
}

func gatewayCommand() *cli.Command {
	return &cli.Command{
		Name:  "gateway",
		Usage: "local authenticating gateway for frontend development",
		Commands: []*cli.Command{
			{
				Name: "start",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "log-format",
						Usage: "log format (text|json)",
						Value: string(app.DefaultConfigLogFormat),
					},
					&cli.StringFlag{
						Name:  "gateway--host",
						Usage: "gateway listen host",
						Value: app.DefaultConfigGatewayHost,
					},
					&cli.IntFlag{
						Name:  "gateway--port",
						Usage: "gateway listen port",
						Value: int(app.DefaultConfigGatewayPort),
					},
				},
				Action: gatewayStartAction,
			},
		},
	}
}

func gatewayStartAction(ctx context.Context, cmd *cli.Command) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	slog.InfoContext(ctx, "starting")

	if err := application.StartGateway(ctx); err != nil {
		return fmt.Errorf("gateway failed: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"mpc-refresher/internal/di"
	"mpc-refresher/internal/domain/entity"
	"mpc-refresher/internal/infrastructure/config"
	"mpc-refresher/internal/infrastructure/env"
	"mpc-refresher/internal/usecase/refresh"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:      "refresher",
		Usage:     "Log into makeplayingcards.com and refresh saved design projects",
		ArgsUsage: "[project-id]",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "project-id",
				UsageText: "refresh only this project instead of every saved one",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-attempts",
				Usage: "Give up on a project after this many failed visits (0 retries forever)",
			},
			&cli.DurationFlag{
				Name:  "shutdown-delay",
				Usage: "Wait this long after the browser is closed",
			},
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "Run Chrome without a window",
			},
		},
		Action: run,
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if _, err := env.Load(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	req := entity.RefreshRequest{ProjectID: entity.ProjectID(cmd.StringArg("project-id"))}

	runName := "refresh_all"
	if req.ProjectID != "" {
		runName = "refresh_" + req.ProjectID.String()
	}

	container, err := di.NewContainer(ctx, runName, cfg)
	if err != nil {
		return err
	}
	defer func() {
		container.Close()
		if cfg.Refresh.ShutdownDelay > 0 {
			container.Logger.Debug("Waiting after shutdown", "delay", cfg.Refresh.ShutdownDelay.String())
			_ = refresh.Sleep(ctx, cfg.Refresh.ShutdownDelay)
		}
	}()

	start := time.Now()
	container.Logger.Info("Run started", "project_id", req.ProjectID.String())

	result, err := container.Refresher.Execute(ctx, req)
	if err != nil {
		container.Logger.Error("Run failed", "error", err, "duration", time.Since(start).String())
		return err
	}

	container.Logger.Info("Run finished", "refreshed", len(result.Refreshed), "duration", time.Since(start).String())
	return nil
}

// applyFlags lets explicit command-line flags override the environment.
func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("max-attempts") {
		cfg.Refresh.MaxAttempts = int(cmd.Int("max-attempts"))
	}
	if cmd.IsSet("shutdown-delay") {
		cfg.Refresh.ShutdownDelay = cmd.Duration("shutdown-delay")
	}
	if cmd.IsSet("headless") {
		cfg.Browser.Headless = env.Flag(cmd.Bool("headless"))
	}
}

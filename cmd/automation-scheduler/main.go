package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/bloomandco/automation/pkg/cmd"
	"github.com/bloomandco/automation/pkg/dispatcher"
	"github.com/bloomandco/automation/pkg/engine"
	"github.com/bloomandco/automation/pkg/gateway"
	"github.com/bloomandco/automation/pkg/log"
)

func main() {
	logger := log.WithModule("automation-scheduler")

	command := &cli.Command{
		Name:                  "automation-scheduler",
		EnableShellCompletion: true,
		Usage:                 "Fire scheduled workflows on their cron expressions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing automation scheduler")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "automation-scheduler", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			// The scheduler only enqueues jobs; runs happen in workers. The
			// engine here exists for definition validation on trigger.
			eng := engine.New(cmd.NewCapabilityRegistry(logger, gateway.NewClient("", "")), logger)
			disp := dispatcher.New(persistence, eng, eventBus, logger)

			scheduler := NewScheduler(persistence, disp, logger)

			if err := scheduler.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Scheduler stopped with error", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

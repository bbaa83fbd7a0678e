package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/bloomandco/automation/pkg/cmd"
	"github.com/bloomandco/automation/pkg/gateway"
	"github.com/bloomandco/automation/pkg/idempotency"
	"github.com/bloomandco/automation/pkg/log"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "automation-api",
		Usage:                 "Create and manage automation workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the idempotency guard (in-memory store when empty)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "gateway-url",
				Usage:   "Base URL of the commerce gateway",
				Sources: cli.EnvVars("GATEWAY_URL"),
			},
			&cli.StringFlag{
				Name:    "gateway-token",
				Usage:   "Bearer token for the commerce gateway",
				Sources: cli.EnvVars("GATEWAY_TOKEN"),
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

			logger.InfoContext(ctx, "Initializing automation API")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "automation-api", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var store idempotency.ReservationStore
			if redisURL := command.String("redis-url"); redisURL != "" {
				redisStore, err := idempotency.NewRedisStore(redisURL)
				if err != nil {
					return err
				}

				defer func() {
					if err := redisStore.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close Redis store", "error", err)
					}
				}()

				store = redisStore
			} else {
				logger.WarnContext(ctx, "No Redis URL configured, duplicate suppression is per-process only")

				store = idempotency.NewMemoryStore()
			}

			guard := idempotency.NewGuard(store, "automation-api", logger)

			gw := gateway.NewClient(command.String("gateway-url"), command.String("gateway-token"))
			registry := cmd.NewCapabilityRegistry(logger, gw)

			api := NewAPI(logger, persistence, registry, eventBus, guard)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/audit"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/cmd"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/log"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/ratecounter"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/rules"
)

const (
	serviceName = "taskbe"
	defaultPort = 9080
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "taskbe-api",
		Usage:                 "Evaluate business rules and manage approval workflows",
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
				Usage:    "Database connection URL for persistence (postgres:// or file://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "audit-bus",
				Usage:   "Audit event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("AUDIT_BUS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis address for the request rate counter (empty disables counting)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.IntFlag{
				Name:    "leave-max-days",
				Usage:   "Leave days beyond which requests need manager approval",
				Value:   10,
				Sources: cli.EnvVars("LEAVE_MAX_DAYS"),
			},
			&cli.IntFlag{
				Name:    "otp-max-requests",
				Usage:   "OTP requests allowed per user per hour",
				Value:   5,
				Sources: cli.EnvVars("OTP_MAX_REQUESTS"),
			},
			&cli.StringFlag{
				Name:    "rules-reload",
				Usage:   "Cron spec for periodic rule snapshot reloads",
				Value:   "@every 5m",
				Sources: cli.EnvVars("RULES_RELOAD"),
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

			logger.InfoContext(ctx, "Initializing taskbe API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			publisher, subscriber := cmd.NewAuditChannel(command.String("audit-bus"), serviceName, logger)

			sink := audit.NewWatermillSink(publisher, logger)
			defer func() {
				err := sink.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close audit sink", "error", err)
				}
			}()

			// With the in-process bus nothing else consumes the stream, so
			// the audit logger drains it into the structured log.
			if command.String("audit-bus") != "kafka" {
				err := audit.RunLogger(ctx, subscriber, log.WithModule("audit"))
				if err != nil {
					logger.ErrorContext(ctx, "Failed to start audit logger", "error", err)
				}
			}

			var counter ratecounter.Counter = ratecounter.NopCounter{}

			if redisURL := command.String("redis-url"); redisURL != "" {
				redisCounter, err := ratecounter.NewRedisCounter(ctx, logger, redisURL, time.Hour)
				if err != nil {
					return err
				}

				defer func() {
					err := redisCounter.Close()
					if err != nil {
						logger.ErrorContext(ctx, "Failed to close rate counter", "error", err)
					}
				}()

				counter = redisCounter
			}

			store := rules.NewStore(persistence.RuleRepository(), logger)

			err := store.Load(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Initial rule load failed, evaluations retry lazily", "error", err)
			}

			scheduler := cron.New()

			_, err = scheduler.AddFunc(command.String("rules-reload"), func() {
				err := store.Load(context.Background())
				if err != nil {
					logger.Error("Scheduled rule reload failed", "error", err)
				}
			})
			if err != nil {
				return err
			}

			scheduler.Start()
			defer scheduler.Stop()

			thresholds := rules.Thresholds{
				LeaveMaxDays:   command.Int("leave-max-days"),
				OTPMaxRequests: command.Int("otp-max-requests"),
			}

			api := NewAPI(logger, persistence, store, sink, counter, thresholds)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

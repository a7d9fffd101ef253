package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukex/webmonitor/pkg/auth"
	"github.com/dukex/webmonitor/pkg/cmd"
	"github.com/dukex/webmonitor/pkg/log"
	"github.com/dukex/webmonitor/pkg/otelhelper"
	"github.com/dukex/webmonitor/pkg/persistence/file"
	"github.com/dukex/webmonitor/pkg/runs"
	"github.com/dukex/webmonitor/pkg/scheduler"
	"github.com/dukex/webmonitor/pkg/services"
	"github.com/dukex/webmonitor/pkg/web"
	"github.com/go-playground/validator/v10"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 10 * time.Second

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the scheduler and the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "public-dir",
				Usage:   "Directory with the web client served under /",
				Sources: cli.EnvVars("PUBLIC_DIR"),
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Shared password required to use the API",
				Value:   auth.DefaultPassword,
				Sources: cli.EnvVars("APP_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "session-store",
				Usage:   "Session store (memory, redis://...)",
				Value:   "memory",
				Sources: cli.EnvVars("SESSION_STORE"),
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Usage:   "Lifetime of a session token in Redis (0 keeps tokens until logout)",
				Sources: cli.EnvVars("SESSION_TTL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (memory, kafka)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.BoolFlag{
				Name:    "watch-schedule",
				Usage:   "Reload the schedule when the file store's schedule document changes on disk",
				Sources: cli.EnvVars("WATCH_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Action: serve,
	}
}

func serve(ctx context.Context, command *cli.Command) (err error) {
	log.Setup(command.String("log-level"), command.String("log-format"))
	logger := log.WithModule("serve")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Server panicked", "panic", r)
			err = fmt.Errorf("server panicked: %v", r)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	location, err := loadLocation(command.String("timezone"))
	if err != nil {
		return err
	}

	tracer, shutdownTracer, err := newTracer(ctx, command.Bool("otel"))
	if err != nil {
		return err
	}

	defer func() {
		if shutdownErr := shutdownTracer(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.ErrorContext(ctx, "Failed to shut down tracer", "error", shutdownErr)
		}
	}()

	p, err := newPipeline(ctx, logger, command, tracer)
	if err != nil {
		return err
	}
	defer p.Close(context.WithoutCancel(ctx), logger)

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := eventBus.Close(); closeErr != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", closeErr)
		}
	}()

	worker := runs.NewWorker(logger, p.runner, eventBus)

	err = worker.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start run worker: %w", err)
	}

	dispatcher := runs.NewDispatcher(logger, eventBus)

	manager := scheduler.NewManager(logger, p.persistence, p.persistence, dispatcher, scheduler.WithLocation(location))
	defer manager.Stop()

	count, err := manager.Start(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Scheduler inactive", "error", err)
	} else {
		logger.InfoContext(ctx, "Scheduler started", "entries", count, "timezone", location.String())
	}

	if command.Bool("watch-schedule") {
		watchSchedule(ctx, logger, p, manager)
	}

	sessions, err := cmd.NewSessionStore(ctx, command.String("session-store"), command.Duration("session-ttl"))
	if err != nil {
		return err
	}

	authenticator := auth.NewAuthenticator(logger, command.String("password"), sessions)

	defer func() {
		if closeErr := authenticator.Close(); closeErr != nil {
			logger.ErrorContext(ctx, "Failed to close session store", "error", closeErr)
		}
	}()

	handlers := web.NewAPIHandlers(
		services.NewWebsites(logger, p.persistence),
		services.NewSchedule(logger, p.persistence, manager),
		services.NewScreenshots(p.artifacts, p.persistence),
		services.NewRuns(logger, p.persistence, dispatcher, worker),
		authenticator,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := web.NewApp(handlers, authenticator, web.AppConfig{
		Screenshots: p.artifacts.Fs(),
		PublicDir:   command.String("public-dir"),
	})

	listenErr := make(chan error, 1)

	go func() {
		listenErr <- app.Listen(":" + strconv.Itoa(command.Int("port")))
	}()

	logger.InfoContext(ctx, "Server listening", "port", command.Int("port"))

	select {
	case err = <-listenErr:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err = app.ShutdownWithContext(shutdownCtx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}

func newTracer(ctx context.Context, enabled bool) (trace.Tracer, otelhelper.Shutdown, error) {
	if !enabled {
		return otelhelper.NoopTracer(), func(context.Context) error { return nil }, nil
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, "webmonitor")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	return tracer, shutdown, nil
}

// watchSchedule reloads the scheduler on SIGHUP and, for the file store, when
// the schedule document changes on disk.
func watchSchedule(ctx context.Context, logger *slog.Logger, p *pipeline, manager *scheduler.Manager) {
	reload := func(ctx context.Context) {
		count, err := manager.Reload(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to reload schedule", "error", err)

			return
		}

		logger.InfoContext(ctx, "Schedule reloaded", "entries", count)
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	go func() {
		defer signal.Stop(hup)

		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				reload(ctx)
			}
		}
	}()

	store, ok := p.persistence.(*file.Persistence)
	if !ok {
		return
	}

	go func() {
		err := store.WatchSchedule(ctx, reload)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorContext(ctx, "Schedule watcher stopped", "error", err)
		}
	}()
}

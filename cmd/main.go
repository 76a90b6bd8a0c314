package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/robertasolimandonofreo/ezlfp-core/internal"
)

const shutdownTimeout = 15 * time.Second

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	app := &cli.App{
		Name:  "ezlfp-core",
		Usage: "Riot account and player stats resolution service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"EZLFP_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			workerCommand(),
			lookupCommand(),
			verifyCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// service holds the collaborators every command builds from config.
type service struct {
	cfg        *internal.Config
	logger     *internal.Logger
	metrics    *internal.MetricsCollector
	riotClient *internal.RiotAPIClient
	aggregator *internal.StatsAggregator
}

func newService(c *cli.Context) (*service, error) {
	cfg, err := internal.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := internal.NewLogger(cfg)
	metrics := internal.NewMetricsCollector()

	riotClient, err := internal.NewRiotAPIClient(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	return &service{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		riotClient: riotClient,
		aggregator: internal.NewStatsAggregator(riotClient, logger, metrics, cfg.MatchFetchConcurrency),
	}, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API (and the resolve worker when NATS is enabled)",
		Action: func(c *cli.Context) error {
			svc, err := newService(c)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(c.Context)
			defer stop()

			cacheManager := internal.NewCacheManager(svc.cfg, svc.logger, svc.metrics)
			defer cacheManager.Close()

			db := internal.NewDatabaseManager(ctx, svc.cfg, svc.logger)
			defer db.Close()

			deps := internal.ServerDeps{
				Resolver:    svc.aggregator,
				RateLimiter: internal.NewRateLimiter(svc.cfg, svc.logger),
				Logger:      svc.logger,
				Metrics:     svc.metrics,
				Profiler:    internal.NewProfiler(svc.cfg, svc.logger),
				SnapshotTTL: svc.cfg.SnapshotTTL,
				Region:      svc.riotClient.Region(),
				HealthChecks: map[string]func(context.Context) error{
					"redis":    cacheManager.Ping,
					"database": db.Ping,
				},
			}
			if cacheManager.Enabled() {
				deps.Snapshots = cacheManager
			}
			if db.Enabled {
				deps.Database = db
			}

			if svc.cfg.NATSEnabled {
				natsClient, err := internal.NewNATSClient(svc.cfg, svc.logger)
				if err != nil {
					return err
				}
				defer natsClient.Close()
				deps.Publisher = natsClient

				worker := internal.NewResolveWorker(svc.aggregator, deps.Snapshots, natsClient, svc.cfg.SnapshotTTL, svc.logger)
				if _, err := natsClient.StartResolveWorker(ctx, worker); err != nil {
					return fmt.Errorf("failed to start resolve worker: %w", err)
				}
			}

			deps.Profiler.StartPeriodicMemoryLogging(ctx)

			server := &http.Server{
				Addr:              ":" + svc.cfg.AppPort,
				Handler:           internal.NewServer(deps).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				svc.logger.Info("server_started").
					Component("main").
					Operation("serve").
					Meta("port", svc.cfg.AppPort).
					Meta("environment", svc.cfg.AppEnv).
					Log()
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			svc.logger.Info("server_stopping").
				Component("main").
				Operation("serve").
				Log()
			return server.Shutdown(shutdownCtx)
		},
	}
}

func workerCommand() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "run only the NATS resolve worker",
		Action: func(c *cli.Context) error {
			svc, err := newService(c)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(c.Context)
			defer stop()

			natsClient, err := internal.NewNATSClient(svc.cfg, svc.logger)
			if err != nil {
				return err
			}
			defer natsClient.Close()

			cacheManager := internal.NewCacheManager(svc.cfg, svc.logger, svc.metrics)
			defer cacheManager.Close()

			var store internal.SnapshotStore
			if cacheManager.Enabled() {
				store = cacheManager
			}

			worker := internal.NewResolveWorker(svc.aggregator, store, natsClient, svc.cfg.SnapshotTTL, svc.logger)
			sub, err := natsClient.StartResolveWorker(ctx, worker)
			if err != nil {
				return fmt.Errorf("failed to start resolve worker: %w", err)
			}

			<-ctx.Done()
			svc.logger.Info("worker_stopping").
				Component("main").
				Operation("worker").
				Log()
			return sub.Drain()
		},
	}
}

func riotIDArgs(c *cli.Context) (string, string, error) {
	if c.NArg() != 2 {
		return "", "", fmt.Errorf("usage: %s <gameName> <tagLine>", c.Command.Name)
	}
	return c.Args().Get(0), c.Args().Get(1), nil
}

func lookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "resolve a Riot ID and print the stats result",
		ArgsUsage: "<gameName> <tagLine>",
		Action: func(c *cli.Context) error {
			gameName, tagLine, err := riotIDArgs(c)
			if err != nil {
				return err
			}
			svc, err := newService(c)
			if err != nil {
				return err
			}

			result, err := svc.aggregator.ResolvePlayerStats(c.Context, gameName, tagLine)
			if err != nil {
				return fmt.Errorf("%s: %w", internal.UserMessage(err), err)
			}

			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "main role: %s\n", result.MainRole())
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "check whether a Riot ID exists",
		ArgsUsage: "<gameName> <tagLine>",
		Action: func(c *cli.Context) error {
			gameName, tagLine, err := riotIDArgs(c)
			if err != nil {
				return err
			}
			svc, err := newService(c)
			if err != nil {
				return err
			}

			exists, err := svc.aggregator.VerifyAccount(c.Context, gameName, tagLine)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s#%s exists: %t\n", gameName, tagLine, exists)
			if !exists {
				return cli.Exit("", 2)
			}
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply database migrations",
		Action: func(c *cli.Context) error {
			svc, err := newService(c)
			if err != nil {
				return err
			}

			db := internal.NewDatabaseManager(c.Context, svc.cfg, svc.logger)
			defer db.Close()
			if !db.Enabled {
				return internal.ErrDatabaseDisabled
			}
			return db.Migrate(c.Context)
		},
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/okian/racepick/internal/adapters/console"
	"github.com/okian/racepick/internal/adapters/http/api"
	"github.com/okian/racepick/internal/adapters/http/swagger"
	"github.com/okian/racepick/internal/adapters/repository"
	service "github.com/okian/racepick/internal/app"
	"github.com/okian/racepick/internal/config"
	"github.com/okian/racepick/internal/synth"
	"github.com/okian/racepick/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

const (
	configFlag      = "config"
	oursFlag        = "ours"
	theirsFlag      = "theirs"
	snapshotFlag    = "snapshot"
	usFlag          = "us"
	themFlag        = "them"
	outFlag         = "out"
	predictionsFlag = "predictions"
	trialsFlag      = "trials"
	seedFlag        = "seed"
	workersFlag     = "workers"
	colorFlag       = "color"
	addrFlag        = "addr"
	teamsFlag       = "teams"
	playersFlag     = "players"
	matchesFlag     = "matches"
	stdoutName      = "-"
)

var version = "v0.1.0-dev"

func main() {
	// Logs go to stderr so console output stays clean.
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout).RunContext(ctx, os.Args); err != nil {
		logger.Get().Error(ctx, "racepick failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "racepick",
		Usage:     "Predict handicapped pool races and pick the lineup",
		Version:   version,
		Reader:    in,
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlag,
				Aliases: []string{"c"},
				Usage:   "YAML config file (overrides RACEPICK_CONFIG)",
			},
		},
		Before: func(c *cli.Context) error {
			if path := c.String(configFlag); path != "" {
				return os.Setenv(config.EnvConfigPath, path)
			}
			return nil
		},
		Commands: []*cli.Command{
			raceCommand(),
			predictCommand(),
			lineupCommand(),
			serveCommand(),
			synthCommand(),
		},
	}
}

// loadConfig loads layered configuration and applies its log level.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// startService builds and starts the service. The caller stops it.
func startService(ctx context.Context, cfg *config.Config) (*service.Service, error) {
	svc := service.FromConfig(cfg, service.WithLogger(logger.Named("service")))
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func raceCommand() *cli.Command {
	return &cli.Command{
		Name:  "race",
		Usage: "Print the handicap race for two ratings",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: oursFlag, Usage: "our rating", Required: true},
			&cli.IntFlag{Name: theirsFlag, Usage: "their rating", Required: true},
		},
		Action: func(c *cli.Context) error {
			svc := service.New()
			race, err := svc.Race(c.Int(oursFlag), c.Int(theirsFlag))
			if err != nil {
				return err
			}
			console.Renderer{}.Race(c.App.Writer, race)
			return nil
		},
	}
}

func predictCommand() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "Build and persist the prediction table for two teams",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: snapshotFlag, Aliases: []string{"s"}, Usage: "roster snapshot (YAML or JSON)"},
			&cli.StringFlag{Name: usFlag, Usage: "our team"},
			&cli.StringFlag{Name: themFlag, Usage: "their team"},
			&cli.StringFlag{Name: outFlag, Aliases: []string{"o"}, Usage: "write the report to this file instead of the configured store"},
			&cli.IntFlag{Name: trialsFlag, Usage: "races per simulation"},
			&cli.Int64Flag{Name: seedFlag, Usage: "seed for reproducible runs"},
			&cli.IntFlag{Name: workersFlag, Usage: "evaluation workers"},
			&cli.BoolFlag{Name: colorFlag, Usage: "color the output"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.Context)
			if err != nil {
				return err
			}
			overrideString(c, snapshotFlag, &cfg.SnapshotPath)
			overrideString(c, usFlag, &cfg.OurTeam)
			overrideString(c, themFlag, &cfg.TheirTeam)
			if c.IsSet(outFlag) {
				cfg.PredictionsPath = c.String(outFlag)
				cfg.RedisAddr = ""
			}
			if c.IsSet(trialsFlag) {
				cfg.Trials = c.Int(trialsFlag)
			}
			if c.IsSet(seedFlag) {
				cfg.Seed = c.Int64(seedFlag)
			}
			if c.IsSet(workersFlag) {
				cfg.WorkerCount = c.Int(workersFlag)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.SnapshotPath == "" || cfg.OurTeam == "" || cfg.TheirTeam == "" {
				return fmt.Errorf("%w: --snapshot, --us and --them are required", config.ErrInvalidConfig)
			}

			svc, err := startService(c.Context, cfg)
			if err != nil {
				return err
			}
			defer svc.Stop()

			report, err := svc.Predict(c.Context, cfg.SnapshotPath, cfg.OurTeam, cfg.TheirTeam)
			if report != nil {
				console.Renderer{Color: c.Bool(colorFlag)}.Report(c.App.Writer, report)
			}
			return err
		},
	}
}

func lineupCommand() *cli.Command {
	return &cli.Command{
		Name:  "lineup",
		Usage: "Rank our picks game by game during a match",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: predictionsFlag, Aliases: []string{"p"}, Usage: "read the report from this file instead of the configured store"},
			&cli.BoolFlag{Name: colorFlag, Usage: "color the output"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.Context)
			if err != nil {
				return err
			}
			if c.IsSet(predictionsFlag) {
				cfg.PredictionsPath = c.String(predictionsFlag)
				cfg.RedisAddr = ""
			}

			svc, err := startService(c.Context, cfg)
			if err != nil {
				return err
			}
			defer svc.Stop()

			report, err := svc.Predictions(c.Context)
			if err != nil {
				return err
			}
			session := console.NewSession(c.App.Reader, c.App.Writer,
				report.OurPlayers, report.TheirPlayers, report.Table(), svc.Ranker(),
				console.WithColor(c.Bool(colorFlag)),
				console.WithLogger(logger.Named("console")),
			)
			if err := session.Run(c.Context); err != nil && !errors.Is(err, console.ErrInputClosed) {
				return err
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve predictions and lineup queries over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: addrFlag, Usage: "listen address"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			overrideString(c, addrFlag, &cfg.Addr)
			log := logger.Get()

			svc, err := startService(ctx, cfg)
			if err != nil {
				return err
			}
			defer svc.Stop()

			// A configured snapshot and pairing is built before serving.
			if cfg.SnapshotPath != "" && cfg.OurTeam != "" && cfg.TheirTeam != "" {
				if _, err := svc.Predict(ctx, cfg.SnapshotPath, cfg.OurTeam, cfg.TheirTeam); err != nil {
					return err
				}
			}

			mux := http.NewServeMux()
			swagger.Register(ctx, mux)
			api.NewServer(svc, svc).Register(ctx, mux)

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           mux,
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
				IdleTimeout:       idleTimeout,
				ReadHeaderTimeout: readHeaderTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
			case <-ctx.Done():
			}
			log.Info(ctx, "shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error(ctx, "server shutdown failed", logger.Error(err))
			}
			log.Info(ctx, "server stopped")
			return nil
		},
	}
}

func synthCommand() *cli.Command {
	return &cli.Command{
		Name:  "synth",
		Usage: "Write a synthetic roster snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: outFlag, Aliases: []string{"o"}, Usage: `snapshot path, or "-" for stdout`, Required: true},
			&cli.IntFlag{Name: teamsFlag, Usage: "number of teams", Value: 2},
			&cli.IntFlag{Name: playersFlag, Usage: "players per team", Value: 5},
			&cli.IntFlag{Name: matchesFlag, Usage: "races logged per player and discipline", Value: 12},
			&cli.Int64Flag{Name: seedFlag, Usage: "generator seed", Value: 1},
			&cli.IntFlag{Name: workersFlag, Usage: "generator workers", Value: 1},
			&cli.StringSliceFlag{Name: "name", Usage: "team names in order"},
		},
		Action: func(c *cli.Context) error {
			roster, err := synth.Generate(c.Context, synth.Config{
				Teams:          c.Int(teamsFlag),
				PlayersPerTeam: c.Int(playersFlag),
				Matches:        c.Int(matchesFlag),
				Seed:           c.Int64(seedFlag),
				Workers:        c.Int(workersFlag),
				TeamNames:      c.StringSlice("name"),
			})
			if err != nil {
				return err
			}

			path := c.String(outFlag)
			if path == stdoutName {
				return repository.EncodeSnapshot(c.App.Writer, roster)
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create snapshot: %w", err)
			}
			if err := repository.EncodeSnapshot(f, roster); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func overrideString(c *cli.Context, flag string, dst *string) {
	if c.IsSet(flag) {
		*dst = c.String(flag)
	}
}

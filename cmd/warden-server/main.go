// Package main is the entry point for the Warden authentication server.
// Warden is a session-based authentication command server speaking a
// newline-delimited JSON protocol over TCP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/audit"
	"github.com/prn-tf/warden/internal/config"
	"github.com/prn-tf/warden/internal/directory"
	"github.com/prn-tf/warden/internal/export"
	"github.com/prn-tf/warden/internal/metrics"
	"github.com/prn-tf/warden/internal/pkg/crypto"
	"github.com/prn-tf/warden/internal/server"
	"github.com/prn-tf/warden/internal/service"
	"github.com/prn-tf/warden/internal/session"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting warden server")

	m := metrics.New()
	dir := directory.NewMemory()

	sessions, err := newSessionStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize session store")
	}

	sweeper := session.NewSweeper(sessions, cfg.Session.SweepInterval, m, logger)
	sweeper.Start()
	defer sweeper.Stop()

	reconciler := service.NewReconciler(dir, sessions, cfg.Session.ReconcileInterval, logger)
	reconciler.Start()
	defer reconciler.Stop()

	var sink audit.Sink = audit.NopSink{}
	if cfg.Audit.Enabled {
		fileSink, err := audit.NewFileSink(cfg.Audit.Path)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Audit.Path).Msg("failed to open audit log")
		}
		sink = fileSink
	}
	auditor := audit.NewDispatcher(audit.Config{
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, sink, m, logger)
	defer auditor.Close()

	exporter, err := newExporter(cfg, dir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize exporter")
	}

	dispatcher := service.NewDispatcher(dir, sessions, exporter, auditor, m, logger)

	if cfg.Metrics.Enabled {
		ops := metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port), m, logger)
		ops.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			ops.Stop(ctx)
		}()
	}

	srv := server.New(cfg.Server, dispatcher, logger)
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Server.Addr()).Msg("failed to start server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out *os.File
	switch cfg.Output {
	case "stderr":
		out = os.Stderr
	default:
		out = os.Stdout
	}

	zerolog.TimeFieldFormat = cfg.TimeFormat
	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func newSessionStore(cfg *config.Config, logger zerolog.Logger) (session.Store, error) {
	switch cfg.Session.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("using redis session store")
		return session.NewRedisStore(client, cfg.Session.TTL), nil
	default:
		return session.NewMemoryStore(cfg.Session.TTL), nil
	}
}

func newExporter(cfg *config.Config, dir directory.Directory, logger zerolog.Logger) (export.Exporter, error) {
	if cfg.Export.EncryptionKey == "" {
		logger.Warn().Msg("no export encryption key configured, database download disabled")
		return nil, nil
	}
	enc, err := crypto.NewEncryptorFromHex(cfg.Export.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("export encryption key: %w", err)
	}

	switch cfg.Export.Backend {
	case "s3":
		return export.NewS3Exporter(context.Background(), dir, enc, export.S3Config{
			Endpoint:        cfg.Export.S3.Endpoint,
			Region:          cfg.Export.S3.Region,
			Bucket:          cfg.Export.S3.Bucket,
			KeyPrefix:       cfg.Export.S3.KeyPrefix,
			AccessKeyID:     cfg.Export.S3.AccessKeyID,
			SecretAccessKey: cfg.Export.S3.SecretAccessKey,
		}, logger)
	default:
		return export.NewFileExporter(dir, enc, cfg.Export.Path, logger), nil
	}
}

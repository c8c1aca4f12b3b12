package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vbonduro/housecheck/internal/activity"
	"github.com/vbonduro/housecheck/internal/backup"
	backuplocal "github.com/vbonduro/housecheck/internal/backup/local"
	backupredis "github.com/vbonduro/housecheck/internal/backup/redis"
	"github.com/vbonduro/housecheck/internal/checklist"
	"github.com/vbonduro/housecheck/internal/config"
	"github.com/vbonduro/housecheck/internal/db"
	"github.com/vbonduro/housecheck/internal/inspection"
	"github.com/vbonduro/housecheck/internal/logging"
	"github.com/vbonduro/housecheck/internal/metrics"
	photolocal "github.com/vbonduro/housecheck/internal/photostore/local"
	"github.com/vbonduro/housecheck/internal/store"
	"github.com/vbonduro/housecheck/internal/summary"
	"github.com/vbonduro/housecheck/internal/summary/claude"
	"github.com/vbonduro/housecheck/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the inspection HTTP API",
	Long: `Run the inspection HTTP API until interrupted. Active sessions are
saved before the process exits.`,
	Example: `  housecheck serve
  housecheck serve --addr :9090 --db ./housecheck.db`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: $LISTEN_ADDR)")
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	backups, closeBackups, err := newBackupStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackups()

	photos, err := photolocal.NewLocalPhotoStore(cfg.PhotoPath)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	activityLog := activity.NewLogger(store.NewActivityStore(database), cfg.ActivityTimeout, logger, m)
	loader := checklist.NewLoader(store.NewTemplateStore(database), logger)
	manager := inspection.NewManager(
		store.NewSessionStore(database),
		loader,
		backups,
		photos,
		activityLog,
		logger,
		inspection.Options{
			AutosaveInterval: cfg.AutosaveInterval,
			Summarizer:       newSummarizer(cfg, logger),
			Metrics:          m,
		},
	)

	server := web.NewServer(manager, loader, logger, web.Options{
		JWTSecret: []byte(cfg.JWTSecret),
		JWTIssuer: cfg.JWTIssuer,
		Metrics:   promhttp.Handler(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := server.ListenAndServe(ctx, cfg.ListenAddr)

	// Requests have drained; flush sessions before the database closes.
	manager.Close(context.Background())
	activityLog.Wait()
	logger.Info("shutdown complete")
	return serveErr
}

func newBackupStore(cfg *config.Config, logger *slog.Logger) (backup.Store, func(), error) {
	switch cfg.BackupBackend {
	case config.BackupRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		logger.Info("using redis backup store", "addr", cfg.RedisAddr, "ttl", cfg.BackupTTL)
		return backupredis.NewRedisBackupStore(client, cfg.BackupTTL), func() {
			if err := client.Close(); err != nil {
				logger.Error("failed to close redis client", "error", err)
			}
		}, nil
	default:
		s, err := backuplocal.NewLocalBackupStore(cfg.BackupPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using local backup store", "path", cfg.BackupPath)
		return s, func() {}, nil
	}
}

func newSummarizer(cfg *config.Config, logger *slog.Logger) summary.Summarizer {
	if cfg.SummaryBackend != config.SummaryClaude {
		return nil
	}
	logger.Info("using Claude summary backend", "model", cfg.ClaudeModel)
	return claude.NewClaudeSummarizer(cfg.ClaudeAPIKey, cfg.ClaudeModel)
}

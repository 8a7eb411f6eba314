// Command server runs the referral accrual engine's HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/withobsrvr/referral-accrual-engine/internal/config"
	"github.com/withobsrvr/referral-accrual-engine/internal/httpapi"
	"github.com/withobsrvr/referral-accrual-engine/internal/logging"
	"github.com/withobsrvr/referral-accrual-engine/internal/store"
)

const serviceVersion = "v1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	logger := logging.NewComponentLogger("referral-accrual-engine", serviceVersion)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := store.Open(store.PoolConfig{
		DSN:             cfg.Postgres.DSN(),
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelMigrate()
	if err := store.Migrate(migrateCtx, db); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}
	logger.Info().Msg("schema migrated")

	srv := httpapi.New(db, logger, httpapi.Defaults{
		MaxLevels:      cfg.Accrual.DefaultMaxLevels,
		LimitPerLevel:  cfg.Accrual.DefaultLimitPerLevel,
		BreakdownLimit: cfg.Accrual.DefaultBreakdownCap,
		TreasuryUserID: cfg.Accrual.TreasuryUserID,
	})

	httpServer := &http.Server{
		Addr:         cfg.Service.HTTPAddr,
		Handler:      srv.Router(),
		ReadTimeout:  time.Duration(cfg.Service.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Service.WriteTimeoutSeconds) * time.Second,
	}

	logger.LogStartup(logging.StartupConfig{
		HTTPAddr:    cfg.Service.HTTPAddr,
		DatabaseDSN: cfg.Postgres.RedactedDSN(),
		Environment: cfg.Service.Environment,
	})

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	fmt.Fprintln(os.Stdout, "server exited")
}

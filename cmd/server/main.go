// Package main is the entry point for the investment tracker server.
// The application tracks investment portfolios across multiple users,
// platforms and accounts, enriches holdings with market data, and serves
// an aggregated dashboard over a REST API.
//
// Startup sequence:
//  1. Load configuration from environment variables (.env supported)
//  2. Initialize structured logging
//  3. Open and migrate the two SQLite databases (tracker, client_data)
//  4. Wire repositories, the market data gateway and services
//  5. Register background jobs (market data refresh, S3 backup)
//  6. Start the HTTP server and wait for a shutdown signal
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/clientdata"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/clients/yahoo"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/config"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/database"
	accountsmod "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/accounts"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets"
	assetshandlers "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets/handlers"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/dashboard"
	dashboardhandlers "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/dashboard/handlers"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/history"
	platformsmod "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/platforms"
	settingsmod "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/settings"
	settingshandlers "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/settings/handlers"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/simulation"
	simulationhandlers "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/simulation/handlers"
	usersmod "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/users"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/reliability"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/scheduler"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/server"
	"github.com/EverydayRelics/Personal-Investment-Tracker/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting investment tracker")

	// Two-database architecture:
	// - tracker.db: source-of-truth entities (users, platforms, accounts,
	//   assets, settings, portfolio history)
	// - client_data.db: disposable cache for quotes and exchange rates;
	//   it can be deleted at any time and will be rebuilt on demand
	trackerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "tracker.db"),
		Profile: database.ProfileStandard,
		Name:    "tracker",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open tracker database")
	}
	defer trackerDB.Close()

	if err := trackerDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate tracker database")
	}

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open client data database")
	}
	defer cacheDB.Close()

	if err := cacheDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate client data database")
	}

	// Market data gateway with a persistent read-through cache
	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	marketClient := yahoo.NewClient(cfg.MarketDataBaseURL, cacheRepo, log)

	// Repositories
	usersRepo := usersmod.NewRepository(trackerDB.Conn(), log)
	platformsRepo := platformsmod.NewRepository(trackerDB.Conn(), log)
	accountsRepo := accountsmod.NewRepository(trackerDB.Conn(), log)
	assetsRepo := assets.NewRepository(trackerDB.Conn(), log)
	settingsRepo := settingsmod.NewRepository(trackerDB.Conn(), log)
	historyRepo := history.NewRepository(trackerDB.Conn(), log)

	// Services
	assetService := assets.NewService(assetsRepo, settingsRepo, marketClient, log)
	dashboardService := dashboard.NewService(assetsRepo, accountsRepo, historyRepo, settingsRepo, marketClient, log)
	simulationService := simulation.NewService(assetsRepo, log)

	// Optional S3 backups; disabled unless a bucket is configured
	var backupService *reliability.BackupService
	if cfg.Backup.Bucket != "" {
		s3Client, err := reliability.NewS3Client(context.Background(), cfg.Backup, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 backup client")
		}
		backupService = reliability.NewBackupService(
			[]*database.DB{trackerDB, cacheDB},
			cfg.DataDir,
			s3Client,
			log,
		)
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("S3 backups enabled")
	} else {
		log.Info().Msg("S3 backups disabled (no bucket configured)")
	}

	// Background jobs. Empty cron specs leave the job disabled, which keeps
	// single-user installs quiet unless they opt in.
	sched := scheduler.New(log)

	if err := sched.AddJob("market-data-refresh", cfg.RefreshSchedule, func() error {
		_, err := assetService.RefreshAll()
		return err
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to register market data refresh job")
	}

	if backupService != nil {
		if err := sched.AddJob("s3-backup", cfg.BackupSchedule, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			_, err := backupService.CreateAndUploadBackup(ctx)
			return err
		}); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	}

	sched.Start()

	srv := server.New(server.Config{
		Log:           log,
		Port:          cfg.Port,
		DevMode:       cfg.DevMode,
		TrackerDB:     trackerDB,
		CacheDB:       cacheDB,
		Users:         usersmod.NewHandler(usersRepo, log),
		Platforms:     platformsmod.NewHandler(platformsRepo, log),
		Accounts:      accountsmod.NewHandler(accountsRepo, log),
		Assets:        assetshandlers.NewHandler(assetService, assetsRepo, log),
		Dashboard:     dashboardhandlers.NewHandler(dashboardService, log),
		Simulation:    simulationhandlers.NewHandler(simulationService, log),
		Settings:      settingshandlers.NewHandler(settingsRepo, log),
		BackupService: backupService,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	// In-flight requests get up to 10 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

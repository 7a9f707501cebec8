package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"yeshivashop_server/api"
	"yeshivashop_server/config"
	"yeshivashop_server/database"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var logger *gecho.Logger
var cfg *structs.Config

const shutdownTimeout = 15 * time.Second

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "yeshivashop",
	Short: "YeshivaShop storefront and back-office API",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		boot()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Initialize(); err != nil {
			return err
		}
		defer database.CloseInstance()

		applied, err := database.Migrate(cmd.Context(), database.GetInstance().DB)
		if err != nil {
			return err
		}
		logger.Info("Migrations complete", gecho.Field("applied", len(applied)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// boot loads environment variables and initializes config and logger
func boot() {
	envErr := godotenv.Load()

	cfg = config.GetConfig()
	logger = config.InitializeLogger()

	if envErr != nil {
		logger.Warn("No .env file found or error loading .env file, proceeding with system environment variables")
	}
}

func serve(ctx context.Context) error {
	if err := database.Initialize(); err != nil {
		logger.Fatal("Failed to initialize database", gecho.Field("error", err))
	}
	defer database.CloseInstance()

	db := database.GetInstance()

	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(ctx, db.DB)
		if err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		logger.Info("Auto migration finished", gecho.Field("applied", len(applied)))
	}

	r, svc, err := api.App(db)
	if err != nil {
		return err
	}
	defer svc.CacheService.Close()

	srv := &http.Server{
		Addr:           cfg.Server.Port,
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// Setup graceful shutdown BEFORE starting the server
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Starting server (%s) on %s", cfg.Server.AppName, cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Failed to start server", gecho.Field("error", err))
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", gecho.Field("error", err))
		return err
	}

	logger.Info("Server stopped")
	return nil
}

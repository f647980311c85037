package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mediahubhq/addon-registry-server/internal/api"
	"github.com/mediahubhq/addon-registry-server/internal/config"
	"github.com/mediahubhq/addon-registry-server/internal/db"
	"github.com/mediahubhq/addon-registry-server/internal/filtering"
	"github.com/mediahubhq/addon-registry-server/internal/repos"
	"github.com/mediahubhq/addon-registry-server/internal/service"
	"github.com/mediahubhq/addon-registry-server/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the add-on registry API server",
	Long: `Start the add-on registry API server to resolve add-on updates.

The server requires a configuration file (--config) that specifies:
- The official repository table and update mode
- The catalog database connection
- Optional catalog filtering rules`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second // Kubernetes-friendly shutdown time
	serverRequestTimeout   = 10 * time.Second // Update resolution should respond quickly
	serverReadTimeout      = 10 * time.Second // Enough for headers and small requests
	serverWriteTimeout     = 15 * time.Second // Must be > serverRequestTimeout to let middleware handle timeout
	serverIdleTimeout      = 60 * time.Second // Keep connections alive for reuse
)

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address"))
	if err != nil {
		logger.Fatalf("Failed to bind address flag: %v", err)
	}
	err = viper.BindPFlag("config", serveCmd.Flags().Lookup("config"))
	if err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}

	// Mark config as required
	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	address := viper.GetString("address")

	logger.Infof("Starting add-on registry API server on %s", address)

	// Load and validate configuration
	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Infof("Loaded configuration from %s (registry: %s, update mode: %s)",
		configPath, cfg.GetRegistryName(), cfg.GetUpdateMode())

	// Build the official repository table once at startup. A malformed
	// string degrades to an empty table; only system add-ons stay trusted.
	officialRepos := repos.ParseOfficialRepos(cfg.OfficialRepos)
	if len(officialRepos) == 0 {
		logger.Warn("No official repositories configured; only system add-ons are trusted")
	}
	registry := repos.NewRegistry(officialRepos)

	// Connect to the catalog database
	if cfg.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	conn, err := db.NewConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Errorf("Error closing database connection: %v", closeErr)
		}
	}()

	var catalog repos.Database = db.NewStore(conn)
	if cfg.Filter != nil && cfg.Filter.Names != nil {
		catalog = filtering.NewFilteredDatabase(catalog,
			cfg.Filter.Names.Include, cfg.Filter.Names.Exclude)
		logger.Infof("Catalog filtering enabled (include: %v, exclude: %v)",
			cfg.Filter.Names.Include, cfg.Filter.Names.Exclude)
	}

	// Create the update service
	svc := service.NewService(catalog, registry, repos.UpdateMode(cfg.GetUpdateMode()))

	// Create the registry server with middleware
	router := api.NewServer(svc,
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(serverRequestTimeout),
			api.LoggingMiddleware,
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Server listening on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mediahubhq/addon-registry-server/database"
	"github.com/mediahubhq/addon-registry-server/internal/config"
	"github.com/mediahubhq/addon-registry-server/pkg/logger"
)

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back database migrations",
	Long: `Roll back database migrations. By default all migrations are rolled
back; use --num-steps to limit the rollback to a number of steps.`,
	RunE: runMigrateDown,
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	// Get flags
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}

	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Database == nil {
		return fmt.Errorf("database configuration is required")
	}

	connString, err := cfg.Database.GetMigrationConnectionString()
	if err != nil {
		return fmt.Errorf("failed to get migration connection string: %w", err)
	}

	migrationUser := cfg.Database.GetMigrationUser()

	// Prompt user if not using --yes flag
	if !yes {
		logger.Infof("About to roll back migrations on database: %s@%s:%d/%s (as user: %s)",
			migrationUser, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, migrationUser)
		fmt.Print("Continue? (yes/no): ")
		var response string
		if _, err := fmt.Scanln(&response); err != nil {
			return fmt.Errorf("failed to read user input: %w", err)
		}
		if response != "yes" && response != "y" {
			logger.Infof("Migration cancelled by user")
			return nil
		}
	}

	m, err := database.NewFromConnectionString(connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if numSteps > 0 {
		logger.Infof("Migrating down %d step(s)...", numSteps)
		if err := m.Steps(-int(numSteps)); err != nil {
			return fmt.Errorf("failed to roll back migrations: %w", err)
		}
	} else {
		logger.Infof("Rolling back all migrations...")
		if err := m.Down(); err != nil {
			return fmt.Errorf("failed to roll back migrations: %w", err)
		}
	}

	version, dirty, err := database.GetVersion(connString)
	if err != nil {
		logger.Warnf("Unable to get migration version: %v", err)
	} else if dirty {
		logger.Warnf("Database is in a dirty state at version %d", version)
	} else {
		logger.Infof("Current migration version: %d", version)
	}

	return nil
}

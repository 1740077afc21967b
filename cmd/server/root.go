// cmd/server/root.go
package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/javajoker/catalog-backend/internal/config"
	"github.com/javajoker/catalog-backend/internal/database"
	"github.com/javajoker/catalog-backend/internal/i18n"
	"github.com/javajoker/catalog-backend/internal/logger"
)

const envFileFlag = "env-file"

var commonFlags = map[string]cobraflags.Flag{
	envFileFlag: &cobraflags.StringFlag{
		Name:  envFileFlag,
		Value: ".env",
		Usage: "Path to a .env file loaded before reading the environment",
	},
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Product catalog API",
		Long: `Product catalog REST API.

Available subcommands:
  serve    - Start the HTTP server (default)
  migrate  - Create or update the database schema`,
		SilenceUsage: true,
		RunE:         serveCommand,
	}

	cobraflags.RegisterMap(rootCmd, commonFlags)

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	return rootCmd
}

// bootstrap loads configuration, configures logging and opens the database.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(commonFlags[envFileFlag].GetString())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Setup(cfg.Log); err != nil {
		return nil, nil, err
	}

	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize i18n: %w", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cfg, db, nil
}

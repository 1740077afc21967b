// cmd/server/migrate.go
package main

import (
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/javajoker/catalog-backend/internal/database"
)

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Create or update every catalog table and its indexes.

Foreign keys are declared with ON DELETE CASCADE.`,
		RunE: migrateCommand,
	}

	cobraflags.RegisterMap(migrateCmd, commonFlags)
	return migrateCmd
}

func migrateCommand(_ *cobra.Command, _ []string) error {
	_, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer database.Close(db)

	return database.RunMigrations(db)
}

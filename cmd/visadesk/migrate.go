package main

import (
	"database/sql"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/visadesk/visadesk/internal/config"
	"github.com/visadesk/visadesk/internal/logging"
	"github.com/visadesk/visadesk/internal/schema"
)

var migrateSteps int

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema (DATABASE_URL)",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openSchemaDB()
			if err != nil {
				return err
			}
			defer db.Close()
			return schema.Up(db)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long: `Roll back the last --steps migrations, or every migration when --steps is 0.

Examples:
  visadesk migrate down --steps 1
  visadesk migrate down`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openSchemaDB()
			if err != nil {
				return err
			}
			defer db.Close()
			return schema.Down(db, migrateSteps)
		},
	}
	down.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back (0 for all)")

	cmd.AddCommand(up, down)
	return cmd
}

// openSchemaDB reads only DATABASE_URL so migrations run without the web configuration.
func openSchemaDB() (*sql.DB, error) {
	_ = godotenv.Load(envFiles...)
	logging.Init("info", "text")
	return schema.Open(config.DatabaseURL())
}

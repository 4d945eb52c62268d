package cmd

import (
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/spf13/cobra"
)

func (a *App) migrateCommand() *cobra.Command {
	var (
		down    bool
		version uint
		force   int
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := database.Open(ctx, a.cfg.Database(), a.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			mc := a.cfg.Migration()
			mc.Down = down
			if cmd.Flags().Changed("version") {
				mc.Version = version
			}
			if cmd.Flags().Changed("force") {
				mc.Force = force
			}
			return database.NewMigrationService(a.logger, mc).Migrate(db, a.cfg.DatabaseName)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "revert every applied migration")
	cmd.Flags().UintVar(&version, "version", 0, "target version (default latest)")
	cmd.Flags().IntVar(&force, "force", 0, "force the schema version before migrating")
	return cmd
}

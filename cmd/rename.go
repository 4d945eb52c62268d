package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) renameSkillCommand() *cobra.Command {
	var oldName, newName string
	cmd := &cobra.Command{
		Use:   "rename-skill",
		Short: "Rename a skill across every profile, merging duplicates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, st, err := openStore(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			eng := buildEngine(a.cfg, infra{db: db, store: st}, a.logger)
			n, err := eng.skills.Rename(ctx, oldName, newName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %q to %q in %d profiles\n", oldName, newName, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&oldName, "old", "", "current skill name")
	cmd.Flags().StringVar(&newName, "new", "", "new skill name")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

package cmd

import (
	"github.com/spf13/cobra"
	"go.pilab.hu/authmodel/mongodb"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the collection indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		if err := mongodb.EnsureIndexes(ctx, a.oauthDB, a.usersDB); err != nil {
			return err
		}
		appLogger.Info(ctx, "Indexes are up to date.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

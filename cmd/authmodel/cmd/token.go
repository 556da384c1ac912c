package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:     "token",
	Short:   "Manage issued tokens",
	Aliases: []string{"tokens"},
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "Revoke an access or refresh token by value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		if kind != "access" && kind != "refresh" {
			return fmt.Errorf("invalid --kind %q: want access or refresh", kind)
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		model, err := a.model(nil)
		if err != nil {
			return err
		}

		var revoked bool
		switch kind {
		case "access":
			token, err := model.GetAccessToken(ctx, args[0])
			if err != nil {
				return err
			}
			if token != nil {
				if revoked, err = model.RevokeAccessToken(ctx, token); err != nil {
					return err
				}
			}
		case "refresh":
			token, err := model.GetRefreshToken(ctx, args[0])
			if err != nil {
				return err
			}
			if token != nil {
				if revoked, err = model.RevokeRefreshToken(ctx, token); err != nil {
					return err
				}
			}
		}

		if !revoked {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s token found.\n", kind)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s token revoked.\n", kind)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenRevokeCmd)

	tokenRevokeCmd.Flags().String("kind", "access", "Token kind: access or refresh")
}

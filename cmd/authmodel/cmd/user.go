package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.pilab.hu/authmodel/domain"
	"go.pilab.hu/authmodel/internal/auth"
)

var userCmd = &cobra.Command{
	Use:     "user",
	Short:   "Manage users",
	Aliases: []string{"users"},
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user with a password credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		scope, _ := cmd.Flags().GetString("scope")
		algorithm, _ := cmd.Flags().GetString("algorithm")

		if username == "" {
			return errors.New("username is required via --username flag")
		}
		if len(password) < 8 {
			return errors.New("password must be at least 8 characters")
		}

		var (
			hash domain.PasswordHash
			err  error
		)
		switch algorithm {
		case auth.AlgorithmBcrypt:
			hash, err = auth.NewBcryptPasswordHasher(cfg.BcryptCost).Hash(password)
		case auth.AlgorithmArgon2id:
			hash, err = auth.Argon2idPasswordHasher{}.Hash(password)
		default:
			return fmt.Errorf("unknown algorithm %q: want %s or %s", algorithm, auth.AlgorithmBcrypt, auth.AlgorithmArgon2id)
		}
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		user := &domain.User{Username: username, Scope: strings.Join(strings.Fields(scope), " ")}
		if err := a.repos.Users.CreateUser(ctx, user, hash); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User created: %s (ID: %s)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().String("username", "", "Username (required)")
	userCreateCmd.Flags().String("password", "", "Password, at least 8 characters (required)")
	userCreateCmd.Flags().String("scope", "", "Space-separated scopes granted to the user")
	userCreateCmd.Flags().String("algorithm", auth.AlgorithmBcrypt, "Credential algorithm: bcrypt or argon2id")
}

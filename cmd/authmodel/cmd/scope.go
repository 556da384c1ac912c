package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.pilab.hu/authmodel/domain"
	"go.pilab.hu/authmodel/scope"
)

var scopeCmd = &cobra.Command{
	Use:     "scope",
	Short:   "Manage the system scope catalog",
	Aliases: []string{"scopes"},
}

var scopeAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a scope to the catalog collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		if err := a.repos.Scopes.AddScope(ctx, domain.Scope{Name: args[0], Description: description}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Scope %q added.\n", args[0])
		if cfg.ScopeSource != "mongo" {
			fmt.Fprintln(cmd.OutOrStdout(), "Note: SCOPE_SOURCE is static, the collection is not consulted.")
		}
		return nil
	},
}

var scopeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the scopes of the catalog collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		scopes, err := a.repos.Scopes.ListScopes(ctx)
		if err != nil {
			return err
		}
		if len(scopes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No scopes found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION")
		for _, s := range scopes {
			fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Description)
		}
		return w.Flush()
	},
}

var scopeResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show the scope a client/user/request combination would be granted",
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID, _ := cmd.Flags().GetString("client-id")
		username, _ := cmd.Flags().GetString("username")
		requestedFlag, _ := cmd.Flags().GetString("requested")

		if clientID == "" {
			return errors.New("client id is required via --client-id flag")
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

		client, err := model.GetClient(ctx, clientID, "")
		if err != nil {
			return err
		}
		if client == nil {
			return fmt.Errorf("client %q not found", clientID)
		}

		var user *domain.User
		if username != "" {
			user, err = a.repos.Users.GetUserByUsername(ctx, username)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		} else {
			user, err = model.GetUserFromClient(ctx, client)
			if err != nil {
				return err
			}
		}
		if user == nil {
			return errors.New("no user: pass --username or register the client with an owner")
		}

		var requested *string
		if cmd.Flags().Changed("requested") {
			requested = scope.Requested(requestedFlag)
		}

		granted, err := model.ValidateScope(ctx, client, user, requested)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "CLIENT SCOPE\t%s\n", client.Scope)
		fmt.Fprintf(w, "USER SCOPE\t%s\n", user.Scope)
		if requested != nil {
			fmt.Fprintf(w, "REQUESTED\t%s\n", *requested)
		} else {
			fmt.Fprintf(w, "REQUESTED\t(none)\n")
		}
		if granted == "" {
			fmt.Fprintf(w, "GRANTED\t(invalid scope)\n")
		} else {
			fmt.Fprintf(w, "GRANTED\t%s\n", granted)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(scopeCmd)
	scopeCmd.AddCommand(scopeAddCmd, scopeListCmd, scopeResolveCmd)

	scopeAddCmd.Flags().String("description", "", "Human readable description")

	scopeResolveCmd.Flags().String("client-id", "", "Client id (required)")
	scopeResolveCmd.Flags().String("username", "", "Username (default: the client owner)")
	scopeResolveCmd.Flags().String("requested", "", "Requested scope; omit to simulate a request without one")
}

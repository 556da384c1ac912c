package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.pilab.hu/authmodel/domain"
)

var clientCmd = &cobra.Command{
	Use:     "client",
	Short:   "Manage OAuth2 clients",
	Aliases: []string{"clients"},
}

var clientCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new client",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		clientID, _ := cmd.Flags().GetString("client-id")
		secret, _ := cmd.Flags().GetString("secret")
		scope, _ := cmd.Flags().GetString("scope")
		grants, _ := cmd.Flags().GetStringSlice("grants")
		redirectURIs, _ := cmd.Flags().GetStringSlice("redirect-uri")
		owner, _ := cmd.Flags().GetString("owner")
		accessLifetime, _ := cmd.Flags().GetDuration("access-token-lifetime")
		refreshLifetime, _ := cmd.Flags().GetDuration("refresh-token-lifetime")

		if name == "" {
			return errors.New("name is required via --name flag")
		}
		if len(grants) == 0 {
			return errors.New("at least one grant is required via --grants flag")
		}
		if clientID == "" {
			clientID = uuid.NewString()
		}
		if secret == "" {
			secret = uuid.NewString()
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		client := &domain.Client{
			ClientID:             clientID,
			Name:                 name,
			Scope:                strings.Join(strings.Fields(scope), " "),
			Grants:               grants,
			RedirectURIs:         redirectURIs,
			AccessTokenLifetime:  accessLifetime.Truncate(time.Second),
			RefreshTokenLifetime: refreshLifetime.Truncate(time.Second),
		}
		if owner != "" {
			user, err := a.repos.Users.GetUserByUsername(ctx, owner)
			if err != nil {
				return fmt.Errorf("owner %q: %w", owner, err)
			}
			client.User = &domain.ClientOwner{ID: user.ID, Username: user.Username}
		}

		if err := a.repos.Clients.CreateClient(ctx, client, secret); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Client created.\n")
		fmt.Fprintf(out, "  ID:            %s\n", client.ID)
		fmt.Fprintf(out, "  Client ID:     %s\n", client.ClientID)
		fmt.Fprintf(out, "  Client Secret: %s\n", secret)
		fmt.Fprintf(out, "  Grants:        %s\n", strings.Join(client.Grants, ", "))
		fmt.Fprintf(out, "  Scope:         %s\n", client.Scope)
		fmt.Fprintln(out, "Store the secret now; it cannot be shown again.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.AddCommand(clientCreateCmd)

	clientCreateCmd.Flags().String("name", "", "Client display name (required)")
	clientCreateCmd.Flags().String("client-id", "", "Client id (default: random UUID)")
	clientCreateCmd.Flags().String("secret", "", "Client secret (default: random UUID)")
	clientCreateCmd.Flags().String("scope", "", "Space-separated scopes the client may request")
	clientCreateCmd.Flags().StringSlice("grants", nil, "Grant types, e.g. password,refresh_token (required)")
	clientCreateCmd.Flags().StringSlice("redirect-uri", nil, "Allowed redirect URIs")
	clientCreateCmd.Flags().String("owner", "", "Username the client acts for in client_credentials grants")
	clientCreateCmd.Flags().Duration("access-token-lifetime", 0, "Access token lifetime (default: ACCESS_TOKEN_LIFETIME)")
	clientCreateCmd.Flags().Duration("refresh-token-lifetime", 0, "Refresh token lifetime (default: REFRESH_TOKEN_LIFETIME)")
}

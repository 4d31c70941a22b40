package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-gree/internal/auth"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/config"
)

// newTokenCmd mints access tokens. There is no user store: whoever can
// read the configured secret decides who may call the API.
func newTokenCmd(configPath *string) *cobra.Command {
	var (
		subject string
		role    string
		ttl     int
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API access token",
		Example: `  graylogic-gree token --subject wall-panel --role viewer
  graylogic-gree token --subject home-assistant --role operator --ttl 525600`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			parsed, err := auth.ParseRole(role)
			if err != nil {
				return err
			}

			minutes := ttl
			if minutes <= 0 {
				minutes = cfg.Security.JWT.AccessTokenTTL
			}

			token, err := auth.GenerateAccessToken(subject, parsed, cfg.Security.JWT.Secret, minutes)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Client identity recorded on commands (required)")
	cmd.Flags().StringVarP(&role, "role", "r", string(auth.RoleViewer), "Role: viewer, operator or admin")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "Lifetime in minutes (default security.jwt.access_token_ttl)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

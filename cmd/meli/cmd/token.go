package cmd

import (
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	tokenRoot := &cobra.Command{
		Use:   "token",
		Short: "Inspect and refresh OAuth2 credentials",
	}

	tokenRoot.AddCommand(tokenShowCmd(), tokenRefreshCmd())

	return tokenRoot
}

func tokenShowCmd() *cobra.Command {
	var showSecrets bool

	c := &cobra.Command{
		Use:   "show",
		Short: "Show the current credentials",
		Long: "Show the credentials the client would start with: the config file\n" +
			"values merged with anything saved in the credential store.",
		Example: `  meli token show
  meli token show --output table --show-secrets`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(cmd.Context()) }()

			tokens := a.client.Tokens()
			v := newCredentialView(tokens.Get(), tokens.IsExpired(), showSecrets)
			return printCredentials(cmd.OutOrStdout(), v, outputFormat())
		},
	}

	c.Flags().BoolVar(&showSecrets, "show-secrets", false, "print tokens unmasked")

	return c
}

func tokenRefreshCmd() *cobra.Command {
	var showSecrets bool

	c := &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Example: `  meli token refresh
  meli token refresh --show-secrets`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(cmd.Context()) }()

			current := a.client.Tokens().Get()
			creds, err := a.client.Authenticator().Refresh(cmd.Context(), current.AccessToken)
			if err != nil {
				return err
			}

			v := newCredentialView(creds, false, showSecrets)
			return printCredentials(cmd.OutOrStdout(), v, outputFormat())
		},
	}

	c.Flags().BoolVar(&showSecrets, "show-secrets", false, "print tokens unmasked")

	return c
}

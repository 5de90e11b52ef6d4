package cmd

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func authCmd() *cobra.Command {
	authRoot := &cobra.Command{
		Use:   "auth",
		Short: "Run the authorization code flow",
		Long: "Obtain a first refresh token: open the URL printed by `auth url`,\n" +
			"grant access, then pass the code from the redirect to `auth exchange`.",
	}

	authRoot.AddCommand(authURLCmd(), authExchangeCmd())

	return authRoot
}

func authURLCmd() *cobra.Command {
	var state, redirectURI string

	c := &cobra.Command{
		Use:   "url",
		Short: "Print the authorization page URL",
		Example: `  meli auth url
  meli auth url --redirect-uri https://example.com/callback --state abc123`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(cmd.Context()) }()

			if redirectURI == "" {
				redirectURI = a.cfg.Meli.RedirectURI
			}
			if redirectURI == "" {
				return errors.New("a redirect URI is required: set meli.redirect_uri or pass --redirect-uri")
			}
			if state == "" {
				state = uuid.NewString()
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), a.client.Authenticator().AuthCodeURL(state, redirectURI))
			return err
		},
	}

	c.Flags().StringVar(&state, "state", "", "opaque state echoed back on the redirect (default: random)")
	c.Flags().StringVar(&redirectURI, "redirect-uri", "", "redirect URI registered for the application")

	return c
}

func authExchangeCmd() *cobra.Command {
	var (
		redirectURI string
		showSecrets bool
	)

	c := &cobra.Command{
		Use:     "exchange <code>",
		Short:   "Exchange an authorization code for credentials",
		Example: `  meli auth exchange TG-5f1e2d3c4b5a --redirect-uri https://example.com/callback`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(cmd.Context()) }()

			if redirectURI == "" {
				redirectURI = a.cfg.Meli.RedirectURI
			}

			creds, err := a.client.Authenticator().Exchange(cmd.Context(), args[0], redirectURI)
			if err != nil {
				return err
			}

			v := newCredentialView(creds, false, showSecrets)
			return printCredentials(cmd.OutOrStdout(), v, outputFormat())
		},
	}

	c.Flags().StringVar(&redirectURI, "redirect-uri", "", "redirect URI used on the authorization page")
	c.Flags().BoolVar(&showSecrets, "show-secrets", false, "print tokens unmasked")

	return c
}

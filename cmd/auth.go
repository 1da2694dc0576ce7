package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wesm/stack-digest/config"
	"github.com/wesm/stack-digest/internal/api"
)

var authScopes []string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Obtain a Stack Exchange access token",
	Long: `Obtain an access token through the Stack Exchange OAuth 2.0 explicit flow.
Register an application on stackapps.com, put its client id, client secret and
redirect URL in the configuration, then:

  stack-digest auth url              # open the printed URL and approve access
  stack-digest auth exchange CODE    # CODE is the "code" parameter of the redirect

The token is written to the configuration file.`,
}

var authURLCmd = &cobra.Command{
	Use:   "url",
	Short: "Print the authorization URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOAuthConfig(false)
		if err != nil {
			return err
		}

		state := uuid.New().String()
		conf := api.NewOAuthConfig(oauthSettings(cfg))
		fmt.Fprintln(cmd.OutOrStdout(), conf.AuthCodeURL(state))
		fmt.Fprintf(cmd.OutOrStdout(), "The redirect should carry state=%s\n", state)
		return nil
	},
}

var authExchangeCmd = &cobra.Command{
	Use:   "exchange CODE",
	Short: "Exchange an authorization code for an access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOAuthConfig(true)
		if err != nil {
			return err
		}

		conf := api.NewOAuthConfig(oauthSettings(cfg))
		tok, err := api.ExchangeCode(cmd.Context(), conf, args[0], cfg.RequestTimeout)
		if err != nil {
			return err
		}
		if err := config.StoreAccessToken(configPath, tok.AccessToken, tok.Expiry); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if tok.Expiry.IsZero() {
			fmt.Fprintf(out, "Access token stored in %s (no expiry)\n", configPath)
		} else {
			fmt.Fprintf(out, "Access token stored in %s, expires %s\n", configPath, tok.Expiry.Format("2006-01-02 15:04:05 MST"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authURLCmd, authExchangeCmd)
	authURLCmd.Flags().StringSliceVar(&authScopes, "scope", nil, "OAuth scopes to request, e.g. no_expiry")
}

// loadOAuthConfig loads the configuration and checks the application
// credentials the flow needs
func loadOAuthConfig(needSecret bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.OAuthClientID == "" || cfg.OAuthRedirectURL == "" {
		return nil, errors.New("oauth_client_id and oauth_redirect_url must be set in the configuration")
	}
	if needSecret && cfg.OAuthClientSecret == "" {
		return nil, errors.New("oauth_client_secret must be set in the configuration")
	}
	return cfg, nil
}

func oauthSettings(cfg *config.Config) api.OAuthSettings {
	return api.OAuthSettings{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
		Scopes:       authScopes,
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jrowe/fitdedup/internal/config"
	"github.com/jrowe/fitdedup/internal/source/strava"
	"github.com/jrowe/fitdedup/internal/tokens"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Authenticate with Strava",
	Long: `Run the Strava OAuth flow and cache the resulting tokens.

Requires strava.client_id and strava.client_secret in the config file
(create an API application at https://www.strava.com/settings/api and set
the authorization callback domain to localhost).

Stryd needs no setup command: put your account email and password under
the stryd section of the config file and scan will sign in on demand.`,
	Run: func(cmd *cobra.Command, args []string) {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if cfg.Strava.ClientID == "" || cfg.Strava.ClientSecret == "" {
			path := configPath
			if path == "" {
				path, _ = config.DefaultPath()
			}
			fmt.Fprintf(os.Stderr, "Error: strava client_id and client_secret are not set in %s\n", path)
			os.Exit(1)
		}

		dbPath, err := config.TokenDBPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		store, err := tokens.Open(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open credential cache: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		auth := strava.NewAuthenticator(cfg.Strava.ClientID, cfg.Strava.ClientSecret, cfg.Strava.RedirectURI, cfg.Strava.Scope, store)

		fmt.Println("Open this URL in your browser and authorize the application:")
		fmt.Printf("\n  %s\n\n", color.CyanString(auth.AuthorizeURL()))
		fmt.Printf("Waiting for the authorization callback on %s (timeout %s)...\n", cfg.Strava.RedirectURI, timeout)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		token, err := auth.Authenticate(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: authentication failed: %v\n", err)
			os.Exit(1)
		}

		expires := time.Unix(token.ExpiresAt, 0)
		fmt.Printf("%s Tokens cached; access token valid until %s.\n",
			color.GreenString("Authenticated with Strava."), expires.Format("2006-01-02 15:04"))
	},
}

func init() {
	setupCmd.Flags().Duration("timeout", 5*time.Minute, "how long to wait for the browser authorization")
	rootCmd.AddCommand(setupCmd)
}

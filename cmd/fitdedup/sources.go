package main

import (
	"context"
	"fmt"

	"github.com/jrowe/fitdedup/internal/config"
	"github.com/jrowe/fitdedup/internal/source"
	"github.com/jrowe/fitdedup/internal/source/strava"
	"github.com/jrowe/fitdedup/internal/source/stryd"
	"github.com/jrowe/fitdedup/internal/tokens"
)

// buildSources turns the --source selector into concrete provider clients.
func buildSources(ctx context.Context, cfg *config.File, selector string) ([]source.Source, error) {
	var sources []source.Source

	switch selector {
	case "strava":
		c, err := stravaClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, c)
	case "stryd":
		c, err := strydClient(cfg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, c)
	case "all", "":
		c, err := stravaClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, c)
		// Stryd is optional: skip it silently when no credentials are
		// configured rather than failing the whole scan.
		if cfg.Stryd.Email != "" {
			sc, err := strydClient(cfg)
			if err != nil {
				return nil, err
			}
			sources = append(sources, sc)
		}
	default:
		return nil, fmt.Errorf("unknown source %q (expected strava, stryd or all)", selector)
	}

	return sources, nil
}

// stravaClient returns an API client with a fresh access token from the
// credential cache.
func stravaClient(ctx context.Context, cfg *config.File) (*strava.Client, error) {
	if cfg.Strava.ClientID == "" || cfg.Strava.ClientSecret == "" {
		return nil, fmt.Errorf("strava client_id and client_secret are not configured; edit the config file")
	}

	dbPath, err := config.TokenDBPath()
	if err != nil {
		return nil, err
	}
	store, err := tokens.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening credential cache: %w", err)
	}
	defer store.Close()

	auth := strava.NewAuthenticator(cfg.Strava.ClientID, cfg.Strava.ClientSecret, cfg.Strava.RedirectURI, cfg.Strava.Scope, store)
	accessToken, err := auth.ValidAccessToken(ctx)
	if err == tokens.ErrNotFound {
		return nil, fmt.Errorf("not authenticated with Strava; run 'fitdedup setup' first")
	}
	if err != nil {
		return nil, err
	}

	c := strava.NewClient(accessToken)
	c.SetLogger(diagLogger())
	return c, nil
}

// strydClient returns a client that signs in lazily with the configured
// credentials.
func strydClient(cfg *config.File) (*stryd.Client, error) {
	if cfg.Stryd.Email == "" || cfg.Stryd.Password == "" {
		return nil, fmt.Errorf("stryd email and password are not configured; edit the config file")
	}
	c := stryd.NewClient(cfg.Stryd.Email, cfg.Stryd.Password)
	c.SetLogger(diagLogger())
	return c, nil
}

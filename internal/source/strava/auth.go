package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrowe/fitdedup/internal/tokens"
)

// tokenService is the key the Strava tokens are cached under.
const tokenService = "strava"

// Token is the Strava OAuth token set, shaped like the token endpoint
// response.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Expired reports whether the access token has passed its expiry.
func (t Token) Expired() bool {
	return t.ExpiresAt <= time.Now().Unix()
}

// Authenticator runs the Strava OAuth authorization-code flow and keeps
// the resulting tokens fresh.
type Authenticator struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string

	store      *tokens.Store
	httpClient *http.Client

	// authBaseURL and tokenURL are overridable for tests.
	authBaseURL string
	tokenURL    string
}

// NewAuthenticator creates an authenticator that caches tokens in store.
func NewAuthenticator(clientID, clientSecret, redirectURI, scope string, store *tokens.Store) *Authenticator {
	if scope == "" {
		scope = "read,activity:read_all"
	}
	return &Authenticator{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		Scope:        scope,
		store:        store,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		authBaseURL:  "https://www.strava.com/oauth/authorize",
		tokenURL:     "https://www.strava.com/oauth/token",
	}
}

// AuthorizeURL returns the browser URL that starts the authorization flow.
func (a *Authenticator) AuthorizeURL() string {
	q := url.Values{}
	q.Set("client_id", a.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", a.RedirectURI)
	q.Set("approval_prompt", "force")
	q.Set("scope", a.Scope)
	return a.authBaseURL + "?" + q.Encode()
}

// Authenticate runs the full interactive flow: it serves a one-shot
// callback endpoint on the redirect URI, waits for the user to authorize
// in the browser, exchanges the code and caches the tokens. The caller is
// responsible for showing AuthorizeURL() to the user first.
func (a *Authenticator) Authenticate(ctx context.Context) (*Token, error) {
	code, err := a.waitForCallback(ctx)
	if err != nil {
		return nil, err
	}
	return a.exchangeCode(ctx, code)
}

// waitForCallback serves the redirect URI until one authorization code
// arrives or the context expires.
func (a *Authenticator) waitForCallback(ctx context.Context) (string, error) {
	redirect, err := url.Parse(a.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URI: %w", err)
	}

	type callbackResult struct {
		code string
		err  error
	}
	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		switch {
		case query.Get("code") != "":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html><body><h1>Authorization successful</h1><p>You can close this window and return to the terminal.</p></body></html>")
			select {
			case results <- callbackResult{code: query.Get("code")}:
			default:
			}
		case query.Get("error") != "":
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "<html><body><h1>Authorization failed</h1></body></html>")
			select {
			case results <- callbackResult{err: fmt.Errorf("authorization denied: %s", query.Get("error"))}:
			default:
			}
		default:
			http.NotFound(w, r)
		}
	})

	server := &http.Server{Addr: redirect.Host, Handler: mux}
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case err := <-serverErr:
		return "", fmt.Errorf("callback server failed: %w", err)
	case <-ctx.Done():
		return "", fmt.Errorf("authorization timed out: %w", ctx.Err())
	}
}

// exchangeCode trades an authorization code for tokens and caches them.
func (a *Authenticator) exchangeCode(ctx context.Context, code string) (*Token, error) {
	return a.requestToken(ctx, url.Values{
		"client_id":     {a.ClientID},
		"client_secret": {a.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	})
}

// Refresh trades a refresh token for a fresh token set and caches it.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	return a.requestToken(ctx, url.Values{
		"client_id":     {a.ClientID},
		"client_secret": {a.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	})
}

func (a *Authenticator) requestToken(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if a.store != nil {
		if err := a.store.Save(ctx, tokenService, token); err != nil {
			return nil, fmt.Errorf("failed to cache tokens: %w", err)
		}
	}
	return &token, nil
}

// ValidAccessToken returns a usable access token from the cache,
// refreshing it when expired. Returns tokens.ErrNotFound when the user has
// never authenticated.
func (a *Authenticator) ValidAccessToken(ctx context.Context) (string, error) {
	var token Token
	if err := a.store.Load(ctx, tokenService, &token); err != nil {
		return "", err
	}

	if !token.Expired() {
		return token.AccessToken, nil
	}

	if token.RefreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token cached")
	}
	fresh, err := a.Refresh(ctx, token.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	return fresh.AccessToken, nil
}

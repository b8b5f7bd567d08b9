package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/bnema/coursecal/internal/nerdfonts"
	"github.com/bnema/coursecal/internal/security"
)

// TokenProvider hands out access tokens for the calendar API. interactive
// permits asking the user for consent when no cached token is usable.
type TokenProvider interface {
	AccessToken(ctx context.Context, interactive bool) (string, error)
}

// AuthOptions configures where OAuth client credentials come from.
type AuthOptions struct {
	// ClientSecretsPath points at a Google "installed app" client JSON.
	ClientSecretsPath string
	ClientID          string
	ClientSecret      string
	// Endpoint overrides Google's OAuth endpoints.
	Endpoint *oauth2.Endpoint
	// Prompt receives device flow instructions; defaults to stdout.
	Prompt io.Writer
}

// AuthManager handles OAuth authentication using device flow and keeps the
// token sealed on disk.
type AuthManager struct {
	tokenPath string
	config    *oauth2.Config
	sealer    *security.TokenSealer
	logger    *security.SecureLogger
	prompt    io.Writer
}

// NewAuthManager creates a new authentication manager
func NewAuthManager(cacheDir string, opts *AuthOptions, verbose bool) (*AuthManager, error) {
	if opts == nil {
		opts = &AuthOptions{}
	}
	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	config, err := oauthConfig(opts)
	if err != nil {
		return nil, err
	}

	sealer, err := security.NewTokenSealer(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token encryption: %w", err)
	}

	prompt := opts.Prompt
	if prompt == nil {
		prompt = os.Stdout
	}

	return &AuthManager{
		tokenPath: filepath.Join(cacheDir, tokenFile),
		config:    config,
		sealer:    sealer,
		logger:    security.NewSecureLogger(verbose),
		prompt:    prompt,
	}, nil
}

// oauthConfig resolves client credentials: the secrets file wins, then
// explicit options, then environment, then build-time defaults.
func oauthConfig(opts *AuthOptions) (*oauth2.Config, error) {
	var config *oauth2.Config

	if opts.ClientSecretsPath != "" {
		data, err := os.ReadFile(opts.ClientSecretsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read client secrets: %w", err)
		}
		config, err = configFromSecrets(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse client secrets: %w", err)
		}
	} else {
		config = &oauth2.Config{
			ClientID:     firstNonEmpty(opts.ClientID, os.Getenv("COURSECAL_CLIENT_ID"), GoogleOAuthClientID),
			ClientSecret: firstNonEmpty(opts.ClientSecret, os.Getenv("COURSECAL_CLIENT_SECRET"), GoogleOAuthClientSecret),
			Endpoint:     google.Endpoint,
			Scopes:       CalendarScopes,
		}
	}

	if config.ClientID == "" {
		return nil, fmt.Errorf("no OAuth client ID: pass --client-secrets or set COURSECAL_CLIENT_ID")
	}
	if config.Endpoint.DeviceAuthURL == "" {
		config.Endpoint.DeviceAuthURL = google.Endpoint.DeviceAuthURL
	}
	if opts.Endpoint != nil {
		config.Endpoint = *opts.Endpoint
	}
	return config, nil
}

// clientSecrets is the JSON downloaded from the Google Cloud console. Device
// clients carry no redirect_uris, so only the fields the flow needs are read.
type clientSecrets struct {
	Installed *clientSecretsBlock `json:"installed"`
	Web       *clientSecretsBlock `json:"web"`
}

type clientSecretsBlock struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AuthURI      string `json:"auth_uri"`
	TokenURI     string `json:"token_uri"`
}

func configFromSecrets(data []byte) (*oauth2.Config, error) {
	var secrets clientSecrets
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, err
	}

	block := secrets.Installed
	if block == nil {
		block = secrets.Web
	}
	if block == nil {
		return nil, fmt.Errorf("no \"installed\" or \"web\" client in secrets file")
	}
	if block.ClientID == "" {
		return nil, fmt.Errorf("secrets file has no client_id")
	}

	endpoint := google.Endpoint
	if block.AuthURI != "" {
		endpoint.AuthURL = block.AuthURI
	}
	if block.TokenURI != "" {
		endpoint.TokenURL = block.TokenURI
	}

	return &oauth2.Config{
		ClientID:     block.ClientID,
		ClientSecret: block.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       CalendarScopes,
	}, nil
}

// AccessToken returns a valid access token, refreshing the cached one when
// it has expired. Without a usable cached token it runs the device flow if
// interactive, and fails otherwise.
func (a *AuthManager) AccessToken(ctx context.Context, interactive bool) (string, error) {
	token, err := a.loadToken()
	if err == nil {
		fresh, refreshErr := a.config.TokenSource(ctx, token).Token()
		if refreshErr == nil {
			if fresh.AccessToken != token.AccessToken {
				a.logger.LogAuthEvent("token_refresh", true, map[string]any{
					"new_expiry": fresh.Expiry.Format(time.RFC3339),
				})
				if err := a.saveToken(fresh); err != nil {
					a.logger.Error("Failed to save token after refresh", "error", err)
				}
			}
			return fresh.AccessToken, nil
		}
		a.logger.LogAuthEvent("token_refresh", false, map[string]any{"error": refreshErr.Error()})
	} else {
		a.logger.LogAuthEvent("token_load", false, map[string]any{"error": err.Error()})
	}

	if !interactive {
		return "", security.NewTokenError("load", "no usable token, run 'coursecal auth'")
	}

	token, err = a.authenticateViaDevice(ctx)
	if err != nil {
		return "", err
	}
	if err := a.saveToken(token); err != nil {
		a.logger.Error("Failed to save token after authentication", "error", err)
	}
	return token.AccessToken, nil
}

func (a *AuthManager) authenticateViaDevice(ctx context.Context) (*oauth2.Token, error) {
	a.logger.LogAuthEvent("device_auth_start", true, map[string]any{
		"client_id": security.RedactString(a.config.ClientID),
	})

	resp, err := a.config.DeviceAuth(ctx)
	if err != nil {
		a.logger.LogAuthEvent("device_code_request", false, map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("failed to request device code: %w", err)
	}

	fmt.Fprintf(a.prompt, "%s Open %s and enter the code: %s\n", nerdfonts.Key, resp.VerificationURI, resp.UserCode)
	fmt.Fprintf(a.prompt, "%s Waiting for authorization (expires %s)...\n", nerdfonts.Hourglass, resp.Expiry.Format("15:04:05"))

	token, err := a.config.DeviceAccessToken(ctx, resp)
	if err != nil {
		a.logger.LogAuthEvent("device_auth_failed", false, map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}

	a.logger.LogAuthEvent("device_auth_success", true, map[string]any{
		"has_refresh_token": token.RefreshToken != "",
	})
	return token, nil
}

// Authenticate forces a fresh device flow and stores the result.
func (a *AuthManager) Authenticate(ctx context.Context) error {
	token, err := a.authenticateViaDevice(ctx)
	if err != nil {
		return err
	}
	return a.saveToken(token)
}

func (a *AuthManager) loadToken() (*oauth2.Token, error) {
	sealed, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return nil, err
	}

	data, err := a.sealer.Open(string(sealed))
	if err != nil {
		return nil, security.NewTokenError("load", "cannot decrypt cached token").WithCause(err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, security.NewTokenError("load", "invalid token data").WithCause(err)
	}
	return &token, nil
}

func (a *AuthManager) saveToken(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	sealed, err := a.sealer.Seal(data)
	if err != nil {
		return security.NewTokenError("save", "cannot encrypt token").WithCause(err)
	}

	if err := os.WriteFile(a.tokenPath, []byte(sealed), 0600); err != nil {
		return security.NewTokenError("save", "failed to write token file").WithCause(err)
	}

	a.logger.LogAuthEvent("token_saved", true, map[string]any{"token_path": a.tokenPath})
	return nil
}

// ClearLocalToken removes the stored authentication token
func (a *AuthManager) ClearLocalToken() error {
	if err := os.Remove(a.tokenPath); err != nil && !os.IsNotExist(err) {
		return security.NewTokenError("clear", "failed to remove token file").WithCause(err)
	}
	a.logger.LogAuthEvent("token_cleared", true, map[string]any{"token_path": a.tokenPath})
	return nil
}

// HasValidToken reports whether a cached token is valid or can be refreshed.
func (a *AuthManager) HasValidToken() bool {
	token, err := a.loadToken()
	if err != nil {
		return false
	}
	return token.Valid() || token.RefreshToken != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

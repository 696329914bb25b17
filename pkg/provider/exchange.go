package provider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foodpal/foodpal/pkg/errors"
)

// TokenSet is a provider's response to an authorization-code exchange
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

// Exchanger trades one-time authorization codes for provider token sets over
// a server-to-server call.
type Exchanger struct {
	httpClient *http.Client
}

// ExchangerOption configures an Exchanger
type ExchangerOption func(*Exchanger)

// WithExchangeHTTPClient sets the HTTP client used for token requests
func WithExchangeHTTPClient(client *http.Client) ExchangerOption {
	return func(e *Exchanger) {
		e.httpClient = client
	}
}

// NewExchanger creates a new Exchanger
func NewExchanger(opts ...ExchangerOption) *Exchanger {
	e := &Exchanger{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Exchange posts the standard authorization-code-grant parameters to the
// provider's token endpoint. Failures are never retried here: authorization
// codes are single use, and a retry after a transient failure would spend a
// code the provider may already have invalidated. A token set without an
// identity token is a failure, because the identity token is the only part
// the login flow can use.
func (e *Exchanger) Exchange(ctx context.Context, cfg Config, code string) (*TokenSet, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", cfg.ClientID)
	data.Set("client_secret", cfg.ClientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCodeExchangeFailed, "failed to create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeCodeExchangeFailed,
			"token request to provider %s failed", cfg.Name)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCodeExchangeFailed, "failed to read token response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeCodeExchangeFailed,
			"token request to provider %s returned %d: %s", cfg.Name, resp.StatusCode, string(body))
	}

	var tokenSet TokenSet
	if err := json.Unmarshal(body, &tokenSet); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCodeExchangeFailed, "failed to parse token response")
	}

	if tokenSet.IDToken == "" {
		return nil, errors.Newf(errors.ErrCodeCodeExchangeFailed,
			"token response from provider %s contains no identity token", cfg.Name)
	}

	slog.Info("Authorization code exchanged", "provider", cfg.Name, "token_type", tokenSet.TokenType)
	return &tokenSet, nil
}

package whoop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/pkg/config"
	"github.com/jose/sera/backend/pkg/httputil"
	"github.com/jose/sera/backend/pkg/logger"
)

// Scopes requested during the OAuth authorization flow.
const oauthScope = "offline read:profile read:recovery read:cycles read:sleep read:body_measurement"

// refreshSafetyMargin is subtracted from expires_in so tokens are treated
// as expired slightly before they actually are.
const refreshSafetyMargin = 60 * time.Second

// OAuth handles the WHOOP authorization-code flow and token refresh.
type OAuth struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.WhoopConfig
}

// NewOAuth creates an OAuth helper from config.
func NewOAuth(cfg *config.Config, log *logger.Logger) *OAuth {
	return &OAuth{
		httpClient: httputil.New(cfg, log),
		logger:     log,
		cfg:        cfg.Whoop,
	}
}

// AuthURL builds the authorization URL the user must visit.
func (o *OAuth) AuthURL(state string) string {
	params := url.Values{}
	params.Set("client_id", o.cfg.ClientID)
	params.Set("redirect_uri", o.cfg.RedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", oauthScope)
	params.Set("state", state)
	return fmt.Sprintf("%s?%s", o.cfg.AuthURL, params.Encode())
}

// ExchangeCode trades an authorization code for an access token.
func (o *OAuth) ExchangeCode(ctx context.Context, code string) (*contracts.OAuthToken, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", o.cfg.ClientID)
	form.Set("client_secret", o.cfg.ClientSecret)
	form.Set("redirect_uri", o.cfg.RedirectURI)

	return o.requestToken(ctx, form)
}

// Refresh trades a refresh token for a new access token.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*contracts.OAuthToken, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", o.cfg.ClientID)
	form.Set("client_secret", o.cfg.ClientSecret)
	form.Set("scope", "offline")

	return o.requestToken(ctx, form)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
}

func (o *OAuth) requestToken(ctx context.Context, form url.Values) (*contracts.OAuthToken, error) {
	resp, err := o.httpClient.PostForm(ctx, o.cfg.TokenURL, form)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}

	token := &contracts.OAuthToken{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		Scope:        tr.Scope,
	}
	if tr.ExpiresIn > 0 {
		expiresAt := time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - refreshSafetyMargin)
		token.ExpiresAt = &expiresAt
	}

	o.logger.WithField("scope", tr.Scope).Info("WHOOP token obtained")
	return token, nil
}

// ErrNoStoredToken is returned when the token table is empty, i.e. the
// OAuth flow has never completed.
var ErrNoStoredToken = errors.New("no WHOOP token stored")

// RepoTokenSource serves tokens from the database, refreshing through the
// OAuth helper when the stored token is expired.
type RepoTokenSource struct {
	repo  contracts.TokenRepository
	oauth *OAuth
}

// NewRepoTokenSource creates a token source backed by the token repository.
func NewRepoTokenSource(repo contracts.TokenRepository, oauth *OAuth) *RepoTokenSource {
	return &RepoTokenSource{repo: repo, oauth: oauth}
}

// AccessToken implements TokenSource.
func (s *RepoTokenSource) AccessToken(ctx context.Context) (string, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("load stored token: %w", err)
	}
	if stored == nil {
		return "", ErrNoStoredToken
	}

	if stored.ExpiresAt == nil || time.Now().Before(*stored.ExpiresAt) {
		return stored.AccessToken, nil
	}

	if stored.RefreshToken == "" {
		return "", fmt.Errorf("stored WHOOP token expired and has no refresh token")
	}

	refreshed, err := s.oauth.Refresh(ctx, stored.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh WHOOP token: %w", err)
	}
	if err := s.repo.Save(ctx, refreshed); err != nil {
		return "", fmt.Errorf("save refreshed token: %w", err)
	}
	return refreshed.AccessToken, nil
}

// FallbackTokenSource tries the stored OAuth token first and falls back to
// the secondary source only when none is stored. Refresh failures on a
// stored token are surfaced, not papered over by the fallback.
type FallbackTokenSource struct {
	primary  TokenSource
	fallback TokenSource
}

// AccessToken implements TokenSource.
func (s *FallbackTokenSource) AccessToken(ctx context.Context) (string, error) {
	token, err := s.primary.AccessToken(ctx)
	if errors.Is(err, ErrNoStoredToken) {
		return s.fallback.AccessToken(ctx)
	}
	return token, err
}

// NewDefaultTokenSource builds the standard token chain: the token persisted
// by the OAuth callback when present (refreshed through the OAuth helper as
// it expires), otherwise the externally maintained credentials file.
func NewDefaultTokenSource(repo contracts.TokenRepository, oauth *OAuth, credentialsPath string) TokenSource {
	return &FallbackTokenSource{
		primary:  NewRepoTokenSource(repo, oauth),
		fallback: NewFileTokenSource(credentialsPath),
	}
}

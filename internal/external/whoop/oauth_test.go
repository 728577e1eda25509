package whoop

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/pkg/config"
	"github.com/jose/sera/backend/pkg/logger"
)

// fakeTokenRepo is an in-memory contracts.TokenRepository.
type fakeTokenRepo struct {
	token *contracts.OAuthToken
	saves int
}

func (r *fakeTokenRepo) Get(_ context.Context) (*contracts.OAuthToken, error) {
	return r.token, nil
}

func (r *fakeTokenRepo) Save(_ context.Context, token *contracts.OAuthToken) error {
	r.token = token
	r.saves++
	return nil
}

func testOAuth(tokenURL string) *OAuth {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "console",
		Whoop: config.WhoopConfig{
			TokenURL:     tokenURL,
			ClientID:     "client-1",
			ClientSecret: "secret-1",
			RateLimit:    100,
		},
	}
	return NewOAuth(cfg, logger.New(cfg))
}

func futureTime(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}

func TestRepoTokenSource_StoredToken(t *testing.T) {
	repo := &fakeTokenRepo{token: &contracts.OAuthToken{
		AccessToken: "access-1",
		ExpiresAt:   futureTime(time.Hour),
	}}
	source := NewRepoTokenSource(repo, testOAuth("http://unused.invalid/token"))

	token, err := source.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.Equal(t, 0, repo.saves)
}

func TestRepoTokenSource_RefreshesExpiredToken(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "ref-1", r.Form.Get("refresh_token"))
		assert.Equal(t, "client-1", r.Form.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-2",
			"refresh_token": "ref-2",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	repo := &fakeTokenRepo{token: &contracts.OAuthToken{
		AccessToken:  "access-1",
		RefreshToken: "ref-1",
		ExpiresAt:    futureTime(-time.Minute),
	}}
	source := NewRepoTokenSource(repo, testOAuth(server.URL))

	token, err := source.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)
	assert.Equal(t, 1, repo.saves)
	assert.Equal(t, "ref-2", repo.token.RefreshToken)

	// Refreshed token is now current, so the next call skips the endpoint.
	token, err = source.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)
	assert.Equal(t, 1, calls)
}

func TestRepoTokenSource_Empty(t *testing.T) {
	source := NewRepoTokenSource(&fakeTokenRepo{}, testOAuth("http://unused.invalid/token"))

	_, err := source.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNoStoredToken)
}

func TestRepoTokenSource_ExpiredWithoutRefreshToken(t *testing.T) {
	repo := &fakeTokenRepo{token: &contracts.OAuthToken{
		AccessToken: "access-1",
		ExpiresAt:   futureTime(-time.Minute),
	}}
	source := NewRepoTokenSource(repo, testOAuth("http://unused.invalid/token"))

	_, err := source.AccessToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no refresh token")
}

func TestDefaultTokenSource_FallsBackToFile(t *testing.T) {
	path := writeCredentials(t, `{"access_token":"file-token","token_type":"bearer"}`)
	source := NewDefaultTokenSource(&fakeTokenRepo{}, testOAuth("http://unused.invalid/token"), path)

	token, err := source.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "file-token", token)
}

func TestDefaultTokenSource_PrefersStoredToken(t *testing.T) {
	path := writeCredentials(t, `{"access_token":"file-token","token_type":"bearer"}`)
	repo := &fakeTokenRepo{token: &contracts.OAuthToken{
		AccessToken: "stored-token",
		ExpiresAt:   futureTime(time.Hour),
	}}
	source := NewDefaultTokenSource(repo, testOAuth("http://unused.invalid/token"), path)

	token, err := source.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stored-token", token)
}

func TestDefaultTokenSource_SurfacesRefreshFailure(t *testing.T) {
	// A broken stored token must not be silently replaced by the file.
	path := writeCredentials(t, `{"access_token":"file-token","token_type":"bearer"}`)
	repo := &fakeTokenRepo{token: &contracts.OAuthToken{
		AccessToken: "access-1",
		ExpiresAt:   futureTime(-time.Minute),
	}}
	source := NewDefaultTokenSource(repo, testOAuth("http://unused.invalid/token"), path)

	_, err := source.AccessToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no refresh token")
}

func TestClientRefreshesStoredTokenOnFetch(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-2",
			"refresh_token": "ref-2",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/v2/recovery", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-2", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"records": []map[string]interface{}{},
		})
	})

	cfg := testConfig(server.URL)
	cfg.Whoop.TokenURL = server.URL + "/oauth/token"
	cfg.Whoop.ClientID = "client-1"
	cfg.Whoop.ClientSecret = "secret-1"
	log := logger.New(cfg)

	repo := &fakeTokenRepo{token: &contracts.OAuthToken{
		AccessToken:  "access-1",
		RefreshToken: "ref-1",
		ExpiresAt:    futureTime(-time.Minute),
	}}
	source := NewDefaultTokenSource(repo, NewOAuth(cfg, log), "credentials-not-used.json")
	client := NewClient(cfg, source, log)

	start, end := DayWindow(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC))
	_, err := client.GetRecoveries(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, "access-2", repo.token.AccessToken)
}

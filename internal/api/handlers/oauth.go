package handlers

import (
	"net/http"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/internal/external/whoop"
	"github.com/jose/sera/backend/pkg/logger"
)

// OAuthHandler handles the WHOOP OAuth authorization flow
type OAuthHandler struct {
	oauth  *whoop.OAuth
	tokens contracts.TokenRepository
	logger *logger.Logger
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(oauth *whoop.OAuth, tokens contracts.TokenRepository, log *logger.Logger) *OAuthHandler {
	return &OAuthHandler{
		oauth:  oauth,
		tokens: tokens,
		logger: log,
	}
}

// GetAuthURL returns the authorization URL the user must visit
// GET /api/whoop/auth-url
func (h *OAuthHandler) GetAuthURL(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		state = "sera"
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"auth_url": h.oauth.AuthURL(state),
	})
}

// Callback exchanges the authorization code and stores the token
// GET /api/whoop/callback?code=...
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		respondError(w, http.StatusBadRequest, "Authorization denied: "+errParam)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "Missing 'code' parameter")
		return
	}

	token, err := h.oauth.ExchangeCode(ctx, code)
	if err != nil {
		h.logger.WithError(err).Error("Failed to exchange authorization code")
		respondError(w, http.StatusInternalServerError, "Token exchange failed")
		return
	}

	if err := h.tokens.Save(ctx, token); err != nil {
		h.logger.WithError(err).Error("Failed to save token")
		respondError(w, http.StatusInternalServerError, "Failed to store token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "connected",
		"scope":  token.Scope,
	})
}

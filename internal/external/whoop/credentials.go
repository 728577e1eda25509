package whoop

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// credentialsFile matches the token file maintained by an external OAuth
// refresher (an oauth2.Token serialization).
type credentialsFile struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	Expiry       string `json:"expiry"`
}

// FileTokenSource reads the access token from a credentials file on every
// call. The file is refreshed out of band, so rereading picks up rotation
// without a restart.
type FileTokenSource struct {
	path string
}

// NewFileTokenSource creates a token source backed by a credentials file.
func NewFileTokenSource(path string) *FileTokenSource {
	return &FileTokenSource{path: path}
}

// AccessToken implements TokenSource.
func (s *FileTokenSource) AccessToken(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read credentials file %s: %w", s.path, err)
	}

	var creds credentialsFile
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("parse credentials file %s: %w", s.path, err)
	}

	token := strings.TrimSpace(creds.AccessToken)
	if token == "" {
		return "", fmt.Errorf("credentials file %s has no access_token", s.path)
	}
	return token, nil
}

// StaticTokenSource returns a fixed token. Used in tests and for one-off
// imports with a token passed on the command line.
type StaticTokenSource struct {
	token string
}

// NewStaticTokenSource creates a token source from a literal token.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

// AccessToken implements TokenSource.
func (s *StaticTokenSource) AccessToken(_ context.Context) (string, error) {
	if s.token == "" {
		return "", fmt.Errorf("no access token configured")
	}
	return s.token, nil
}

// Package auth translates access tokens into request headers.
package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
)

// Token types understood by the API.
const (
	TokenTypePersonal = "personal"
	TokenTypeOAuth    = "oauth"
)

// TokenManager supplies the authentication header for each request.
type TokenManager interface {
	AuthHeader(ctx context.Context) (name string, value string, err error)
}

// AccessToken is a token value together with the way it is sent.
type AccessToken struct {
	Value string
	Type  string
}

// Header returns the header name and value for the token type.
func (t AccessToken) Header() (string, string, error) {
	switch strings.ToLower(t.Type) {
	case TokenTypePersonal:
		return constants.HeaderAPIKey, t.Value, nil
	case TokenTypeOAuth:
		return constants.HeaderAuthorization, "Bearer " + t.Value, nil
	default:
		return "", "", fmt.Errorf("%w: %q", constants.ErrInvalidTokenType, t.Type)
	}
}

// StaticTokenManager serves a single access token. The token can be replaced
// while requests are in flight.
type StaticTokenManager struct {
	mutex sync.RWMutex
	token AccessToken
}

// NewTokenManager validates token and returns a manager for it.
func NewTokenManager(token AccessToken) (*StaticTokenManager, error) {
	if token.Value == "" {
		return nil, constants.ErrNoAccessToken
	}

	_, _, err := token.Header()
	if err != nil {
		return nil, err
	}

	return &StaticTokenManager{token: token}, nil
}

// NewBearerTokenManager sends value as a Bearer authorization.
func NewBearerTokenManager(value string) (*StaticTokenManager, error) {
	return NewTokenManager(AccessToken{Value: value, Type: TokenTypeOAuth})
}

// AuthHeader implements TokenManager.
func (m *StaticTokenManager) AuthHeader(ctx context.Context) (string, string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.token.Header()
}

// SetToken replaces the token value, keeping its type.
func (m *StaticTokenManager) SetToken(value string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.token.Value = value
}

// Token returns the current token.
func (m *StaticTokenManager) Token() AccessToken {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.token
}

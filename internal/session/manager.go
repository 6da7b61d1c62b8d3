// Package session owns the client-side authentication lifecycle: it is the
// sole writer of the persisted token pair, attaches the access token to
// outbound calls, and recovers from expiry by refreshing.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/stayhub/backend/internal/api"
	"github.com/stayhub/backend/internal/logging"
	"github.com/stayhub/backend/internal/models"
)

// ErrSessionExpired indicates the refresh token was rejected and the session
// has been cleared.
var ErrSessionExpired = errors.New("session expired")

// Credentials carry a login attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput carries a signup attempt.
type RegisterInput struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the payload of a successful credential operation.
type AuthResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         models.User `json:"user"`
}

// Manager owns the session state machine: anonymous until register/login
// succeeds, back to anonymous on logout (always) or on a rejected refresh.
// All persisted-token writes go through it.
type Manager struct {
	client *api.Client
	creds  CredentialStore
	now    func() time.Time

	refreshGroup singleflight.Group

	mu     sync.RWMutex
	tokens models.SessionTokens
}

// NewManager constructs a Manager, restoring any persisted session. The
// returned Manager implements api.TokenSource; inject it into the api.Client
// used for authenticated calls.
func NewManager(client *api.Client, creds CredentialStore) *Manager {
	if creds == nil {
		panic("session: credential store must not be nil")
	}
	m := &Manager{client: client, creds: creds, now: time.Now}
	if tokens, err := m.creds.Load(); err == nil {
		m.tokens = tokens
	}
	return m
}

// AccessToken returns the current access token, or "" when anonymous.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens.AccessToken
}

// Authenticated reports whether a token pair is held.
func (m *Manager) Authenticated() bool {
	return m.AccessToken() != ""
}

// Register creates an account and, when the response carries an access token,
// persists the pair before returning.
func (m *Manager) Register(ctx context.Context, input RegisterInput) (AuthResponse, error) {
	var resp AuthResponse
	if err := m.client.Post(ctx, "/auth/register", input, &resp); err != nil {
		return AuthResponse{}, err
	}
	if err := m.adopt(ctx, resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// Login authenticates and persists the pair exactly as Register does.
func (m *Manager) Login(ctx context.Context, creds Credentials) (AuthResponse, error) {
	var resp AuthResponse
	if err := m.client.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return AuthResponse{}, err
	}
	if err := m.adopt(ctx, resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// Logout notifies the upstream and clears the session. Local
// de-authentication is unconditional: the upstream call failing does not keep
// the session alive.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.client.Post(ctx, "/auth/logout", nil, nil); err != nil {
		logging.FromContext(ctx).Warn("logout upstream call failed, clearing session anyway", "error", err)
	}
	return m.clear()
}

// CurrentUser fetches the profile for the held access token.
func (m *Manager) CurrentUser(ctx context.Context) (models.User, error) {
	var user models.User
	if err := m.client.Get(ctx, "/auth/me", nil, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Refresh exchanges the held refresh token for a new access token and
// persists the rotated pair before returning it. Concurrent callers share a
// single upstream call. A 4xx rejection clears the session and returns
// ErrSessionExpired; transport failures leave the session intact.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	token, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	refreshToken := m.tokens.RefreshToken
	m.mu.RUnlock()
	if refreshToken == "" {
		return "", ErrNoSession
	}

	body := map[string]string{"refreshToken": refreshToken}
	var resp AuthResponse
	if err := m.client.Post(ctx, "/auth/refresh", body, &resp); err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Kind == api.KindUpstream &&
			apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError {
			logging.FromContext(ctx).Info("refresh token rejected, clearing session", "status", apiErr.Status)
			_ = m.clear()
			return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("refresh response carried no access token")
	}

	m.mu.Lock()
	m.tokens.AccessToken = resp.AccessToken
	m.tokens.AccessExpiresAt = m.now().Add(AccessRetention)
	if resp.RefreshToken != "" {
		m.tokens.RefreshToken = resp.RefreshToken
		m.tokens.RefreshExpiresAt = m.now().Add(RefreshRetention)
	}
	tokens := m.tokens
	m.mu.Unlock()

	if err := m.creds.Save(tokens); err != nil {
		return "", fmt.Errorf("persist refreshed session: %w", err)
	}
	return resp.AccessToken, nil
}

// adopt persists the pair from a credential-granting response. Responses
// without an access token (for example an email-verification flow) leave the
// session untouched.
func (m *Manager) adopt(ctx context.Context, resp AuthResponse) error {
	if resp.AccessToken == "" {
		return nil
	}
	if resp.RefreshToken == "" {
		return fmt.Errorf("auth response carried an access token without a refresh token")
	}

	now := m.now()
	tokens := models.SessionTokens{
		AccessToken:      resp.AccessToken,
		AccessExpiresAt:  now.Add(AccessRetention),
		RefreshToken:     resp.RefreshToken,
		RefreshExpiresAt: now.Add(RefreshRetention),
	}

	if err := m.creds.Save(tokens); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	m.mu.Lock()
	m.tokens = tokens
	m.mu.Unlock()

	logging.FromContext(ctx).Info("session established", "userId", resp.User.ID)
	return nil
}

func (m *Manager) clear() error {
	m.mu.Lock()
	m.tokens = models.SessionTokens{}
	m.mu.Unlock()
	return m.creds.Clear()
}

// Package identity implements the identity service the BFF proxy forwards
// to: credential validation, token issuance, refresh rotation, and revocation.
// It is meant for local development and tests; a hosted deployment would sit
// behind the same contract.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/stayhub/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided refresh token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrAccessTokenInvalid indicates the access token is unknown or expired.
	ErrAccessTokenInvalid = errors.New("access token invalid")
)

// SessionStore persists issued refresh tokens so they can survive process restarts.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, refreshToken string) (Session, error)
	Delete(ctx context.Context, refreshToken string) error
}

// Session represents a refresh token issued to a user.
type Session struct {
	RefreshToken string
	UserID       string
	ExpiresAt    time.Time
}

type accessEntry struct {
	userID    string
	expiresAt time.Time
}

// TokenManager issues and rotates session tokens. Refresh tokens live in the
// SessionStore; access tokens are opaque and tracked in memory with their TTL
// so the me endpoint can resolve callers without decoding anything.
type TokenManager struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      SessionStore

	mu     sync.Mutex
	access map[string]accessEntry
}

// NewTokenManager constructs a TokenManager with the provided TTLs.
func NewTokenManager(accessTTL, refreshTTL time.Duration, store SessionStore) *TokenManager {
	if store == nil {
		panic("identity: session store must not be nil")
	}
	return &TokenManager{
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		access:     make(map[string]accessEntry),
	}
}

// Issue creates a new token pair for the provided user identifier.
func (m *TokenManager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	now := time.Now().UTC()
	accessToken, err := randomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}
	refreshToken, err := randomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}

	tokens := models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(m.accessTTL),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(m.refreshTTL),
	}

	if err := m.store.Save(ctx, Session{
		RefreshToken: refreshToken,
		UserID:       userID,
		ExpiresAt:    tokens.RefreshExpiresAt,
	}); err != nil {
		return models.SessionTokens{}, err
	}

	m.mu.Lock()
	m.access[accessToken] = accessEntry{userID: userID, expiresAt: tokens.AccessExpiresAt}
	m.gcLocked(now)
	m.mu.Unlock()

	return tokens, nil
}

// Refresh exchanges a refresh token for a new pair, deleting the old token.
func (m *TokenManager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, refreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, refreshToken)
		return models.SessionTokens{}, ErrRefreshTokenExpired
	}

	if err := m.store.Delete(ctx, refreshToken); err != nil {
		return models.SessionTokens{}, err
	}

	return m.Issue(ctx, session.UserID)
}

// Revoke removes the refresh token and forgets any access token for it.
func (m *TokenManager) Revoke(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	_ = m.store.Delete(ctx, refreshToken)
}

// RevokeAccess forgets a single access token.
func (m *TokenManager) RevokeAccess(accessToken string) {
	m.mu.Lock()
	delete(m.access, accessToken)
	m.mu.Unlock()
}

// ResolveAccess maps a live access token to its user id.
func (m *TokenManager) ResolveAccess(accessToken string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.access[accessToken]
	if !ok {
		return "", ErrAccessTokenInvalid
	}
	if time.Now().UTC().After(entry.expiresAt) {
		delete(m.access, accessToken)
		return "", ErrAccessTokenInvalid
	}
	return entry.userID, nil
}

func (m *TokenManager) gcLocked(now time.Time) {
	for token, entry := range m.access {
		if now.After(entry.expiresAt) {
			delete(m.access, token)
		}
	}
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestHandler() (Handler, *MemoryUserStore, *MemorySessionStore) {
	users := NewMemoryUserStore()
	sessions := NewMemorySessionStore()
	handler := Handler{
		Users:  users,
		Tokens: NewTokenManager(15*time.Minute, 24*time.Hour, sessions),
	}
	return handler, users, sessions
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeAuthPayload(t *testing.T, rec *httptest.ResponseRecorder) authPayload {
	t.Helper()
	var envelope struct {
		Data authPayload `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode auth payload: %v", err)
	}
	return envelope.Data
}

func TestRegisterCreatesUserAndSession(t *testing.T) {
	handler, users, sessions := newTestHandler()

	rec := postJSON(t, handler.Register, "/api/auth/register", map[string]string{
		"name":     "Test User",
		"email":    "New@Example.com",
		"password": "longenough",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}

	payload := decodeAuthPayload(t, rec)
	if payload.AccessToken == "" || payload.RefreshToken == "" {
		t.Fatal("register must issue a token pair")
	}
	if payload.User.Email != "new@example.com" {
		t.Fatalf("email must be normalized, got %q", payload.User.Email)
	}
	if !sessions.Has(payload.RefreshToken) {
		t.Fatal("refresh token must be stored")
	}

	stored, err := users.FindByEmail(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.Password == "longenough" {
		t.Fatal("password must be hashed at rest")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("longenough")); err != nil {
		t.Fatalf("stored hash must verify: %v", err)
	}
	if strings.Contains(rec.Body.String(), stored.Password) {
		t.Fatal("password hash must never appear in the response")
	}
}

func TestRegisterValidation(t *testing.T) {
	handler, _, _ := newTestHandler()

	tests := []struct {
		name    string
		payload map[string]string
		status  int
	}{
		{"missing email", map[string]string{"password": "longenough"}, http.StatusBadRequest},
		{"missing password", map[string]string{"email": "a@example.com"}, http.StatusBadRequest},
		{"invalid email", map[string]string{"email": "not-an-email", "password": "longenough"}, http.StatusBadRequest},
		{"short password", map[string]string{"email": "a@example.com", "password": "short"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, handler.Register, "/api/auth/register", tt.payload)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("error responses must be JSON: %v", err)
			}
			if body["error"] == "" {
				t.Fatal("error responses must carry an error field")
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	handler, _, _ := newTestHandler()
	payload := map[string]string{"email": "dup@example.com", "password": "longenough"}

	if rec := postJSON(t, handler.Register, "/api/auth/register", payload); rec.Code != http.StatusCreated {
		t.Fatalf("first register: %d", rec.Code)
	}
	if rec := postJSON(t, handler.Register, "/api/auth/register", payload); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register = %d, want 409", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	handler, _, _ := newTestHandler()
	register := postJSON(t, handler.Register, "/api/auth/register", map[string]string{
		"email": "login@example.com", "password": "longenough",
	})
	if register.Code != http.StatusCreated {
		t.Fatalf("register: %d", register.Code)
	}

	rec := postJSON(t, handler.Login, "/api/auth/login", map[string]string{
		"email": "login@example.com", "password": "longenough",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d, want 200: %s", rec.Code, rec.Body)
	}
	payload := decodeAuthPayload(t, rec)
	if payload.AccessToken == "" || payload.RefreshToken == "" {
		t.Fatal("login must issue a token pair")
	}

	wrongPassword := postJSON(t, handler.Login, "/api/auth/login", map[string]string{
		"email": "login@example.com", "password": "wrong-password",
	})
	if wrongPassword.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password = %d, want 401", wrongPassword.Code)
	}

	unknownUser := postJSON(t, handler.Login, "/api/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "longenough",
	})
	if unknownUser.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user = %d, want 401", unknownUser.Code)
	}
}

func TestRefreshEndpointRotates(t *testing.T) {
	handler, _, sessions := newTestHandler()
	register := postJSON(t, handler.Register, "/api/auth/register", map[string]string{
		"email": "rotate@example.com", "password": "longenough",
	})
	issued := decodeAuthPayload(t, register)

	rec := postJSON(t, handler.Refresh, "/api/auth/refresh-token", map[string]string{
		"refreshToken": issued.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh = %d, want 200: %s", rec.Code, rec.Body)
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	rotated := envelope.Data["refreshToken"]
	if rotated == "" || rotated == issued.RefreshToken {
		t.Fatal("refresh must return a rotated token")
	}
	if sessions.Has(issued.RefreshToken) {
		t.Fatal("consumed refresh token must be gone")
	}

	replay := postJSON(t, handler.Refresh, "/api/auth/refresh-token", map[string]string{
		"refreshToken": issued.RefreshToken,
	})
	if replay.Code != http.StatusUnauthorized {
		t.Fatalf("replayed refresh = %d, want 401", replay.Code)
	}
}

func TestRefreshEndpointValidation(t *testing.T) {
	handler, _, _ := newTestHandler()

	missing := postJSON(t, handler.Refresh, "/api/auth/refresh-token", map[string]string{})
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("missing token = %d, want 400", missing.Code)
	}

	unknown := postJSON(t, handler.Refresh, "/api/auth/refresh-token", map[string]string{
		"refreshToken": "never-issued",
	})
	if unknown.Code != http.StatusUnauthorized {
		t.Fatalf("unknown token = %d, want 401", unknown.Code)
	}
}

func TestMe(t *testing.T) {
	handler, _, _ := newTestHandler()
	register := postJSON(t, handler.Register, "/api/auth/register", map[string]string{
		"name": "Profile Owner", "email": "me@example.com", "password": "longenough",
	})
	issued := decodeAuthPayload(t, register)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+issued.AccessToken)
	rec := httptest.NewRecorder()
	handler.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("me = %d, want 200: %s", rec.Code, rec.Body)
	}
	var envelope struct {
		Data struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Email != "me@example.com" || envelope.Data.Name != "Profile Owner" {
		t.Fatalf("unexpected profile %+v", envelope.Data)
	}
}

func TestMeRequiresValidToken(t *testing.T) {
	handler, _, _ := newTestHandler()

	anonymous := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	handler.Me(rec, anonymous)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me = %d, want 401", rec.Code)
	}

	bogus := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	bogus.Header.Set("Authorization", "Bearer bogus")
	rec = httptest.NewRecorder()
	handler.Me(rec, bogus)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bogus token me = %d, want 401", rec.Code)
	}
}

func TestLogoutRevokesTokens(t *testing.T) {
	handler, _, sessions := newTestHandler()
	register := postJSON(t, handler.Register, "/api/auth/register", map[string]string{
		"email": "bye@example.com", "password": "longenough",
	})
	issued := decodeAuthPayload(t, register)

	body, _ := json.Marshal(map[string]string{"refreshToken": issued.RefreshToken})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+issued.AccessToken)
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("logout = %d, want 200", rec.Code)
	}
	if sessions.Has(issued.RefreshToken) {
		t.Fatal("refresh token must be revoked")
	}
	if _, err := handler.Tokens.ResolveAccess(issued.AccessToken); err == nil {
		t.Fatal("access token must be forgotten")
	}
}

func TestLogoutWithoutBodyStillSucceeds(t *testing.T) {
	handler, _, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout = %d, want 200", rec.Code)
	}
}

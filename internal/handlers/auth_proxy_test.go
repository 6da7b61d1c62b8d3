package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stayhub/backend/internal/upstream"
)

func newProxy(t *testing.T, upstreamHandler http.HandlerFunc) (AuthProxyHandler, func()) {
	t.Helper()
	server := httptest.NewServer(upstreamHandler)
	handler := AuthProxyHandler{Upstream: upstream.New(server.URL, time.Second)}
	return handler, server.Close
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestRegisterRelaysUpstreamJSON(t *testing.T) {
	var gotBody string
	handler, closeUpstream := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" {
			t.Errorf("unexpected upstream path %s", r.URL.Path)
		}
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"accessToken":"a","refreshToken":"r"}}`))
	})
	defer closeUpstream()

	body := `{"email":"new@example.com","password":"supersafe"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected upstream status relayed, got %d", rec.Code)
	}
	if gotBody != body {
		t.Fatalf("request body not passed through raw: %q", gotBody)
	}
	if rec.Body.String() != `{"data":{"accessToken":"a","refreshToken":"r"}}` {
		t.Fatalf("response body not relayed verbatim: %s", rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("expected no-store cache control, got %q", cc)
	}
}

func TestRegisterRelaysUpstreamErrorStatus(t *testing.T) {
	handler, closeUpstream := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"account already exists"}`))
	})
	defer closeUpstream()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 relayed, got %d", rec.Code)
	}
	if rec.Body.String() != `{"error":"account already exists"}` {
		t.Fatalf("error body not relayed verbatim: %s", rec.Body.String())
	}
}

func TestProxyNormalizesNonJSONUpstream(t *testing.T) {
	long := strings.Repeat("b", 400)
	handler, closeUpstream := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(long))
	})
	defer closeUpstream()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refreshToken":"x"}`))
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected upstream status preserved, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusServiceUnavailable {
		t.Fatalf("envelope status mismatch: %d", env.Status)
	}
	if len(env.Raw) != 200 || !strings.HasPrefix(long, env.Raw) {
		t.Fatalf("raw must be a 200-char prefix of the body, got %d chars", len(env.Raw))
	}
	if env.Error == "" {
		t.Fatal("envelope must describe the failure")
	}
}

func TestRegisterTransportFailureReturns502(t *testing.T) {
	handler, closeUpstream := newProxy(t, func(w http.ResponseWriter, r *http.Request) {})
	closeUpstream()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 fallback for register, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusBadGateway || env.Message == "" {
		t.Fatalf("expected envelope with cause at 502, got %+v", env)
	}
}

func TestLoginTransportFailureReturns502(t *testing.T) {
	handler, closeUpstream := newProxy(t, func(w http.ResponseWriter, r *http.Request) {})
	closeUpstream()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 fallback for login, got %d", rec.Code)
	}
}

func TestTransportFailureFallbacksAre500(t *testing.T) {
	handler, closeUpstream := newProxy(t, func(w http.ResponseWriter, r *http.Request) {})
	closeUpstream()

	calls := []struct {
		name string
		do   func(w http.ResponseWriter, r *http.Request)
		req  *http.Request
	}{
		{"refresh", handler.Refresh, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{}`))},
		{"logout", handler.Logout, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)},
		{"me", handler.Me, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)},
	}

	for _, call := range calls {
		rec := httptest.NewRecorder()
		call.do(rec, call.req)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500 fallback, got %d", call.name, rec.Code)
		}
	}
}

func TestMeForwardsAuthorizationHeader(t *testing.T) {
	var gotAuth string
	var sawHeader bool
	handler, closeUpstream := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, sawHeader = r.Header["Authorization"]
		w.Write([]byte(`{"data":{"id":"u1"}}`))
	})
	defer closeUpstream()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotAuth != "Bearer abc123" {
		t.Fatalf("authorization not forwarded, got %q", gotAuth)
	}

	// Absent header stays absent rather than being invented.
	rec = httptest.NewRecorder()
	handler.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if sawHeader && gotAuth != "" {
		t.Fatalf("expected empty authorization for anonymous call, got %q", gotAuth)
	}
}

type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }

func TestCredentialEndpointsAreRateLimited(t *testing.T) {
	handler, closeUpstream := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called when rate limited")
	})
	defer closeUpstream()
	handler.Limiter = denyLimiter{}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestProxyRejectsWrongMethods(t *testing.T) {
	handler := AuthProxyHandler{}

	rec := httptest.NewRecorder()
	handler.Register(rec, httptest.NewRequest(http.MethodGet, "/api/auth/register", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET register, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Me(rec, httptest.NewRequest(http.MethodPost, "/api/auth/me", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST me, got %d", rec.Code)
	}
}

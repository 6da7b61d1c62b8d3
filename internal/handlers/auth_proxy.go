package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/stayhub/backend/internal/logging"
	"github.com/stayhub/backend/internal/upstream"
)

// ErrorEnvelope is the single failure shape the proxy emits when the upstream
// reply cannot be relayed verbatim: either the upstream body was not valid
// JSON, or the upstream call itself failed.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Raw     string `json:"raw,omitempty"`
	Status  int    `json:"status"`
}

// Forwarder is the outbound dependency of the auth proxy.
type Forwarder interface {
	Forward(ctx context.Context, req upstream.Request) (upstream.Reply, error)
}

// AuthProxyHandler forwards credential operations to the identity service,
// relaying JSON replies verbatim and normalizing everything else into an
// ErrorEnvelope. It holds no session state of its own.
type AuthProxyHandler struct {
	Upstream Forwarder
	Limiter  RateLimiter
}

// Register handles POST /api/auth/register.
func (h AuthProxyHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.forwardCredential(w, r, "/auth/register", "register")
}

// Login handles POST /api/auth/login.
func (h AuthProxyHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.forwardCredential(w, r, "/auth/login", "login")
}

// forwardCredential covers the two credential-granting endpoints. Both sit
// behind the rate limiter and both map transport failures to 502 so the UI can
// tell "could not reach upstream" apart from "upstream responded badly".
func (h AuthProxyHandler) forwardCredential(w http.ResponseWriter, r *http.Request, suffix, scope string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if !allowRequest(h.Limiter, r, scope) {
		logging.FromContext(ctx).Warn("rate limit exceeded", "scope", scope)
		writeEnvelope(ctx, w, ErrorEnvelope{
			Error:  "too many attempts, try again later",
			Status: http.StatusTooManyRequests,
		})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeEnvelope(ctx, w, ErrorEnvelope{
			Error:   "failed to read request body",
			Message: err.Error(),
			Status:  http.StatusBadRequest,
		})
		return
	}

	h.relay(ctx, w, upstream.Request{
		Method: http.MethodPost,
		Suffix: suffix,
		Body:   body,
	}, http.StatusBadGateway)
}

// Refresh handles POST /api/auth/refresh, forwarding the refresh token body to
// the upstream refresh-token endpoint.
func (h AuthProxyHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeEnvelope(ctx, w, ErrorEnvelope{
			Error:   "failed to read request body",
			Message: err.Error(),
			Status:  http.StatusBadRequest,
		})
		return
	}

	h.relay(ctx, w, upstream.Request{
		Method: http.MethodPost,
		Suffix: "/auth/refresh-token",
		Body:   body,
	}, http.StatusInternalServerError)
}

// Logout handles POST /api/auth/logout.
func (h AuthProxyHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	h.relay(r.Context(), w, upstream.Request{
		Method: http.MethodPost,
		Suffix: "/auth/logout",
	}, http.StatusInternalServerError)
}

// Me handles GET /api/auth/me, passing the caller's Authorization header
// through unchanged (empty when absent).
func (h AuthProxyHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	h.relay(r.Context(), w, upstream.Request{
		Method:        http.MethodGet,
		Suffix:        "/auth/me",
		Authorization: r.Header.Get("Authorization"),
	}, http.StatusInternalServerError)
}

// relay performs the upstream call and writes exactly one of the three
// outcomes: the verbatim JSON reply, a malformed-body envelope at the upstream
// status, or a transport-failure envelope at the fallback status.
func (h AuthProxyHandler) relay(ctx context.Context, w http.ResponseWriter, req upstream.Request, fallback int) {
	logger := logging.FromContext(ctx)

	if h.Upstream == nil {
		logger.Error("upstream forwarder unavailable")
		writeEnvelope(ctx, w, ErrorEnvelope{
			Error:  "auth proxy unavailable",
			Status: http.StatusInternalServerError,
		})
		return
	}

	reply, err := h.Upstream.Forward(ctx, req)
	if err != nil {
		env := ErrorEnvelope{
			Error:   "could not reach authentication service",
			Message: err.Error(),
			Status:  fallback,
		}
		if cause := errors.Unwrap(err); cause != nil {
			env.Message = cause.Error()
		}
		logger.Error("upstream transport failure", "suffix", req.Suffix, "status", fallback, "error", err)
		writeEnvelope(ctx, w, env)
		return
	}

	if reply.Malformed() {
		logger.Warn("normalizing non-JSON upstream response", "suffix", req.Suffix, "status", reply.Status)
		writeEnvelope(ctx, w, ErrorEnvelope{
			Error:  "authentication service returned an unexpected response",
			Raw:    reply.Raw,
			Status: reply.Status,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(reply.Status)
	if _, err := w.Write(reply.JSON); err != nil {
		logger.Error("write relayed response", "error", err)
	}
}

// writeEnvelope emits an ErrorEnvelope at its embedded status.
func writeEnvelope(ctx context.Context, w http.ResponseWriter, env ErrorEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(env.Status)

	if err := json.NewEncoder(w).Encode(env); err != nil {
		logging.FromContext(ctx).Error("encode error envelope", "status", env.Status, "error", err)
	}
}

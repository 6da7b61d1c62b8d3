package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Service: "stayhub-bff"}
	auth := AuthProxyHandler{Upstream: deps.Upstream, Limiter: deps.AuthLimiter}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/auth/register", auth.Register)
	mux.HandleFunc("/api/auth/login", auth.Login)
	mux.HandleFunc("/api/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/auth/logout", auth.Logout)
	mux.HandleFunc("/api/auth/me", auth.Me)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Upstream    Forwarder
	AuthLimiter RateLimiter
}

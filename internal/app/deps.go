package app

import (
	"time"

	"github.com/stayhub/backend/internal/config"
	"github.com/stayhub/backend/internal/handlers"
	"github.com/stayhub/backend/internal/middleware"
	"github.com/stayhub/backend/internal/upstream"
)

// buildDependencies wires together concrete implementations used by the BFF
// HTTP handlers.
func buildDependencies(cfg config.Config) handlers.Dependencies {
	return handlers.Dependencies{
		Upstream: upstream.New(cfg.UpstreamBaseURL, cfg.UpstreamTimeout),
		AuthLimiter: middleware.NewIPRateLimiter(
			cfg.AuthRateRequests,
			cfg.AuthRateWindow,
			cfg.AuthRateBurst,
			10*time.Minute,
		),
	}
}

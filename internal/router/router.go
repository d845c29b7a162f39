package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticket-resale-market/internal/config"
	"github.com/iliyamo/ticket-resale-market/internal/handler"
	"github.com/iliyamo/ticket-resale-market/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication: the
// health check, public market data and the processor webhooks.  The
// webhooks authenticate by signature, not by bearer token, so they
// must stay outside the JWT group.
func RegisterRoutes(e *echo.Echo, m *handler.MarketHandler, w *handler.WebhookHandler) {
	e.GET("/healthz", handler.Health)

	e.GET("/v1/events/:id/price", m.EventPrice)

	e.POST("/webhooks/payment", w.Payment)
	e.POST("/webhooks/account", w.Account)
}

// RegisterSeller registers seller onboarding endpoints under /v1.
// All routes require a platform-issued access token.
func RegisterSeller(e *echo.Echo, h *handler.OnboardingHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	g.POST("/signup", h.Signup)
	g.POST("/onboarding-link", h.CreateLink)
	g.POST("/onboarding-link/refresh", h.RefreshLink)
}

// RegisterBuyer registers the purchase endpoint under /v1.  On top of
// JWT auth it is rate limited per caller: each allowed request opens a
// payment intent at the processor.
func RegisterBuyer(e *echo.Echo, h *handler.PurchaseHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RateLimit(rl, rdb),
	)
	g.POST("/purchase-intent", h.CreateIntent)
}

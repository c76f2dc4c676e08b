// Package http provides the HTTP server implementation for the concierge API.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/yfuks/avahost-tech-test/internal/auth"
	"github.com/yfuks/avahost-tech-test/internal/config"
	"github.com/yfuks/avahost-tech-test/internal/observability"
	"github.com/yfuks/avahost-tech-test/internal/service"
	v1 "github.com/yfuks/avahost-tech-test/internal/transport/http/v1"
)

// Version is reported by GET /health.
const Version = "0.3.0"

// NewServer creates and configures the public HTTP server.
func NewServer(svc *service.Service, cfg *config.Config, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(observability.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))

	// Handlers
	handler := v1.NewHandler(svc, v1.Options{
		Verifier:       auth.NewAdminVerifier(cfg.Auth.AdminJWTSecret),
		SSEKeepAlive:   cfg.SSEKeepAlive(),
		AllowedOrigins: cfg.Server.CORSOrigins,
		Version:        Version,
		Logger:         logger,
	})

	// Register Routes
	handler.RegisterRoutes(e, ChatRateLimiter(cfg.Chat.RateLimit, cfg.RateWindow()))

	return e
}

// ChatRateLimiter throttles each client IP to limit requests per window.
func ChatRateLimiter(limit int, window time.Duration) echo.MiddlewareFunc {
	if limit <= 0 || window <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(limit) / window.Seconds()),
		Burst:     limit,
		ExpiresIn: window,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "unable to identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many chat requests, retry later"})
		},
	})
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.Error("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	})
}

// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pfolio/portfolio-api/internal/handler"
	"github.com/pfolio/portfolio-api/internal/logging"
	"github.com/pfolio/portfolio-api/internal/metrics"
	"github.com/pfolio/portfolio-api/internal/middleware"
	"github.com/pfolio/portfolio-api/internal/model"
)

// New returns an echo instance with the middleware every route shares:
// request ids, panic recovery, CORS and request logging.
func New(log logging.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.BodyLimit("12M"))
	return e
}

// errorHandler renders errors that escape handlers as {"error": ...}. The
// internal cause is logged, never returned.
func errorHandler(log logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if s, ok := he.Message.(string); ok && code < 500 {
				msg = s
			} else if code < 500 {
				msg = http.StatusText(code)
			}
			if he.Internal != nil {
				err = he.Internal
			}
		}
		if code >= 500 {
			log.Error(c.Request().Context(), "unhandled error", "path", c.Path(), "err", err)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, echo.Map{"error": msg})
	}
}

// RegisterRoutes registers the probes and the metrics endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, g prometheus.Gatherer) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
	if g != nil {
		e.GET("/metrics", metrics.Handler(g))
	}
}

// RegisterAuth registers the auth endpoints. limiter throttles the routes
// that check a password.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, v middleware.TokenVerifier, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, limiter)
	g.POST("/verify", a.Verify)
	g.POST("/change-password", a.ChangePassword, middleware.OptionalJWT(v), limiter)
	g.POST("/seed", a.Seed)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(v))
}

// RegisterPublic registers the unauthenticated content reads behind cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/profile", p.GetProfile)
	g.GET("/contact", p.GetContact)
	g.GET("/projects", p.ListProjects)
	g.GET("/projects/:id", p.GetProject)
}

// RegisterAdmin registers content editing. Every route requires an admin
// session.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, u *handler.UploadHandler, v middleware.TokenVerifier) {
	g := e.Group("/v1/admin", middleware.JWTAuth(v), middleware.RequireRole(model.RoleAdmin))

	g.PUT("/profile", a.PutProfile)
	g.PUT("/contact", a.PutContact)

	g.POST("/projects", a.CreateProject)
	g.PUT("/projects/:id", a.UpdateProject)
	g.PATCH("/projects/:id", a.UpdateProject)
	g.DELETE("/projects/:id", a.DeleteProject)

	g.POST("/uploads", u.Upload)
}

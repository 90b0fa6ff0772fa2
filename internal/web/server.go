// Package web exposes the study services as a JSON HTTP API.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/conorfennell/knolstudy/internal/analytics"
	"github.com/conorfennell/knolstudy/internal/importer"
	"github.com/conorfennell/knolstudy/internal/study"
)

// UserHeader carries the caller's identity. Authentication happens upstream.
const UserHeader = "X-User-ID"

const userKey = "user_id"

// Server holds the dependencies for the HTTP server.
type Server struct {
	echo      *echo.Echo
	study     *study.Service
	analytics *analytics.Service
	importer  *importer.Importer
	now       func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(svc *study.Service, stats *analytics.Service, im *importer.Importer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		study:     svc,
		analytics: stats,
		importer:  im,
		now:       time.Now,
	}
	e.HTTPErrorHandler = s.handleError
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	slog.Info("starting HTTP server", "addr", addr)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("stopping HTTP server")
	return s.echo.Shutdown(ctx)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				slog.Debug("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Debug("request", attrs...)
			return nil
		},
	}))

	api := s.echo.Group("/api/v1", requireUser)

	api.GET("/decks", s.handleListDecks())
	api.POST("/decks", s.handleCreateDeck())
	api.POST("/decks/:id/cards", s.handleAddCard())
	api.POST("/decks/:id/sessions", s.handleStartSession())
	api.GET("/decks/:id/due", s.handleGetDue())
	api.POST("/sessions/:id/end", s.handleEndSession())

	api.GET("/cards/:id", s.handleGetCard())
	api.POST("/cards/:id/reviews", s.handlePostReview())
	api.POST("/cards/:id/reset", s.handleResetCard())

	api.GET("/stats", s.handleGetStats())

	// Source management routes
	api.GET("/sources", s.handleListSources())
	api.POST("/decks/:id/sources", s.handlePostSource())
	api.POST("/sync", s.handlePostSync())
}

// requireUser rejects requests without an identity header.
func requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Request().Header.Get(UserHeader)
		if userID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing "+UserHeader+" header")
		}
		c.Set(userKey, userID)
		return next(c)
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(userKey).(string)
	return id
}

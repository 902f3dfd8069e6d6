// Package server exposes the chat API over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Querier answers user queries.
type Querier interface {
	Query(ctx context.Context, query, sessionID string) (string, []string, error)
}

// SessionCreator starts new chat sessions.
type SessionCreator interface {
	Create() string
}

// CatalogReader reports what courses are indexed.
type CatalogReader interface {
	CourseCount(ctx context.Context) (int, error)
	CourseTitles(ctx context.Context) ([]string, error)
}

// Server handles the /api routes and optionally serves a static frontend.
type Server struct {
	querier  Querier
	sessions SessionCreator
	catalog  CatalogReader
	log      *zap.Logger
}

func New(querier Querier, sessions SessionCreator, catalog CatalogReader, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{querier: querier, sessions: sessions, catalog: catalog, log: log}
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type queryResponse struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	SessionID string   `json:"session_id"`
}

type coursesResponse struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// Echo builds the configured echo instance. staticDir may be empty.
func (s *Server) Echo(staticDir string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.log.Warn("request failed",
			zap.Int("status", code),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	api := e.Group("/api")
	api.POST("/query", s.handleQuery)
	api.GET("/courses", s.handleCourses)

	if staticDir != "" {
		e.Static("/", staticDir)
	}
	return e
}

// Run serves until the listener fails.
func (s *Server) Run(addr, staticDir string) error {
	return s.Echo(staticDir).Start(addr)
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.sessions.Create()
	}
	answer, sources, err := s.querier.Query(c.Request().Context(), req.Query, sessionID)
	if err != nil {
		return err
	}
	if sources == nil {
		sources = []string{}
	}
	return c.JSON(http.StatusOK, queryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}

func (s *Server) handleCourses(c echo.Context) error {
	ctx := c.Request().Context()
	count, err := s.catalog.CourseCount(ctx)
	if err != nil {
		return err
	}
	titles, err := s.catalog.CourseTitles(ctx)
	if err != nil {
		return err
	}
	if titles == nil {
		titles = []string{}
	}
	return c.JSON(http.StatusOK, coursesResponse{
		TotalCourses: count,
		CourseTitles: titles,
	})
}

package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server is the HTTP API over the planner and the reconciliation engine.
type Server struct {
	echo   *echo.Echo
	books  *PhraseBookCache
	logger *zap.Logger
}

func NewServer(books *PhraseBookCache, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, books: books, logger: logger}

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Routes
	e.GET("/health", s.handleHealth)
	e.POST("/plan", s.handlePlan)
	e.GET("/plan", s.handlePlan)
	e.POST("/reconcile", s.handleReconcile)

	// Admin endpoints for manual reload
	e.POST("/admin/reload", s.handleReload)
	e.GET("/admin/cache-info", s.handleCacheInfo)

	return s
}

func (s *Server) Start(addr string) error {
	s.logger.Info("hot-work planner listening", zap.String("addr", addr))
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// phraseBook returns the cached book. A reload failure is logged and the
// fallback book returned by the cache serves the request.
func (s *Server) phraseBook() *PhraseBook {
	book, err := s.books.Get()
	if err != nil {
		s.logger.Warn("phrase book unavailable, using fallback", zap.Error(err))
	}
	return book
}

func (s *Server) handleHealth(c echo.Context) error {
	reload := "disabled"
	if s.books.Info().Watching {
		reload = "enabled"
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"timestamp":   time.Now(),
		"auto_reload": reload,
	})
}

func (s *Server) handleCacheInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"phrase_book": s.books.Info(),
		"timestamp":   time.Now(),
	})
}

func (s *Server) handleReload(c echo.Context) error {
	s.books.Reset()
	src := s.books.Info().Source
	return c.JSON(http.StatusOK, ReloadResponse{
		Message: "Phrase book cache cleared and will reload on next request",
		Source:  src,
	})
}

func (s *Server) handlePlan(c echo.Context) error {
	var req PlanRequest

	// Bind request (works for both POST JSON and GET query params)
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if strings.TrimSpace(req.Description) == "" && strings.TrimSpace(req.Characteristics) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "description or characteristics is required",
		})
	}

	plan := NewPlanner(s.phraseBook()).BuildPlan(req.Description, req.Characteristics)
	job := Job{Number: req.Number, Date: req.Date, WorkType: req.WorkType}

	return c.JSON(http.StatusOK, PlanResponse{
		HotWork: IsHotWork(req.WorkType),
		Plan:    plan,
		Report:  plan.Report(job, req.Description, req.Characteristics),
	})
}

func (s *Server) handleReconcile(c echo.Context) error {
	var req ReconcileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	form := NewMemoryForm(req.Snapshot)
	ex := NewExecutor(NewPlanner(s.phraseBook()), s.logger, !req.Apply)

	outcome, err := ex.Run(c.Request().Context(), form, req.Snapshot.Job)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	resp := ReconcileResponse{
		Outcome: outcome,
		Actions: outcome.Actions(),
		Summary: outcome.Summary(),
	}
	if req.Apply {
		snap := form.Snapshot()
		resp.Snapshot = &snap
	}
	return c.JSON(http.StatusOK, resp)
}

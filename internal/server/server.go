package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/xaenox/member-qa/internal/engine"
)

const maxQuestionLength = 500

// Server exposes the question-answering engine over HTTP.
type Server struct {
	echo   *echo.Echo
	engine *engine.Engine
	logger *zap.Logger
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(eng *engine.Engine, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{echo: e, engine: eng, logger: logger}
	s.routes()

	return s
}

func (s *Server) routes() {
	s.echo.GET("/", s.home)
	s.echo.GET("/health", s.health)
	s.echo.GET("/stats", s.stats)
	s.echo.POST("/ask", s.ask)
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler returns the underlying handler, used by tests.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) home(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "running",
		"service": "Question-Answering API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"/ask":    "POST - Submit a question",
			"/health": "GET - Health check",
			"/stats":  "GET - System statistics",
		},
	})
}

func (s *Server) health(c echo.Context) error {
	if !s.engine.Ready() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"reason": "corpus not loaded",
		})
	}

	stats := s.engine.Stats()
	return c.JSON(http.StatusOK, map[string]any{
		"status":          "healthy",
		"messages_loaded": stats.MessageCount,
		"users_loaded":    stats.UserCount,
	})
}

func (s *Server) stats(c echo.Context) error {
	if !s.engine.Ready() {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "corpus not loaded"})
	}
	return c.JSON(http.StatusOK, s.engine.Stats())
}

func (s *Server) ask(c echo.Context) error {
	if !s.engine.Ready() {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "corpus not loaded"})
	}

	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Content-Type must be application/json"})
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Question is required and cannot be empty"})
	}
	if len(question) > maxQuestionLength {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("Question is too long (max %d characters)", maxQuestionLength),
		})
	}

	requestID := uuid.New().String()
	s.logger.Info("processing question",
		zap.String("request_id", requestID),
		zap.String("question", question))

	answer, err := s.engine.AnswerQuestion(c.Request().Context(), question)
	if err != nil {
		s.logger.Error("failed to answer question",
			zap.String("request_id", requestID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error: "An error occurred while processing your question",
		})
	}

	s.logger.Info("generated answer",
		zap.String("request_id", requestID),
		zap.Int("answer_length", len(answer)))

	return c.JSON(http.StatusOK, askResponse{Answer: answer})
}

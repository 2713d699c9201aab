package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mroshb/trivia_bot/internal/repositories"
	"github.com/mroshb/trivia_bot/internal/services"
	"github.com/mroshb/trivia_bot/pkg/logger"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// Server exposes read-only game state over HTTP.
type Server struct {
	sessions  *services.SessionService
	scores    *repositories.ScoreRepository
	questions *repositories.QuestionRepository
	state     *repositories.State

	engine *gin.Engine
	http   *http.Server
}

type leaderboardEntry struct {
	Rank   int    `json:"rank"`
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Points int64  `json:"points"`
}

type categoryEntry struct {
	Name      string `json:"name"`
	Questions int    `json:"questions"`
}

func NewServer(addr string, sessions *services.SessionService, scores *repositories.ScoreRepository,
	questions *repositories.QuestionRepository, state *repositories.State) *Server {
	s := &Server{
		sessions:  sessions,
		scores:    scores,
		questions: questions,
		state:     state,
		engine:    gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.RegisterRoutes(s.engine)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", s.Health)
	api := router.Group("/api")
	api.GET("/leaderboard", s.Leaderboard)
	api.GET("/categories", s.Categories)
	api.GET("/rooms", s.ActiveRooms)
	api.GET("/rooms/:id", s.Room)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("HTTP server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"active_rooms": len(s.sessions.ActiveRooms()),
		"questions":    s.questions.Count(),
		"unsaved":      s.state.Dirty(),
	})
}

func (s *Server) Leaderboard(c *gin.Context) {
	limit := defaultLeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	top := s.scores.TopN(limit)
	entries := make([]leaderboardEntry, len(top))
	for i, p := range top {
		entries[i] = leaderboardEntry{Rank: i + 1, ID: p.ID, Name: p.Name, Points: p.Points}
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) Categories(c *gin.Context) {
	names := s.questions.Categories()
	entries := make([]categoryEntry, len(names))
	for i, name := range names {
		entries[i] = categoryEntry{Name: name, Questions: s.questions.CountIn(name)}
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) ActiveRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": s.sessions.ActiveRooms()})
}

// Room returns the room's current round. The answer is never included.
func (s *Server) Room(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}
	round, ok := s.sessions.Round(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active round"})
		return
	}
	c.JSON(http.StatusOK, round)
}

// Package server exposes the focusd HTTP API.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sandeepkv93/focusd/internal/config"
	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/storage"
	"github.com/sandeepkv93/focusd/internal/timer"
	"github.com/sandeepkv93/focusd/internal/tree"
)

// OwnerHeader names the request header carrying the caller's owner id.
// Authentication is external; the server treats the value as opaque.
const OwnerHeader = "X-Focusd-User"

const ownerKey = "owner"

// Server wires the task tree and timer engine behind a gin router.
type Server struct {
	store  storage.Store
	tasks  *tree.Manager
	timer  *timer.Engine
	timers config.TimerConfig
	logger *slog.Logger
	router *gin.Engine

	newID func() string
	now   func() time.Time
}

// New builds the router with every API route registered.
func New(store storage.Store, timers config.TimerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		store:  store,
		tasks:  tree.NewManager(store),
		timer:  timer.NewEngine(store),
		timers: timers,
		logger: logger,
		router: router,
		newID:  func() string { return uuid.New().String() },
		now:    time.Now,
	}

	api := router.Group("/api/v1")
	api.Use(s.requireOwner)
	{
		api.POST("/lists", s.handleCreateList)
		api.GET("/lists", s.handleListLists)
		api.POST("/lists/:id/select", s.handleSelectList)
		api.DELETE("/lists/:id", s.handleDeleteList)

		api.GET("/lists/:id/tasks", s.handleHierarchy)
		api.POST("/lists/:id/tasks", s.handleCreateTask)
		api.POST("/lists/:id/tasks/reorder", s.handleReorderTasks)

		api.PATCH("/tasks/:id", s.handlePatchTask)
		api.POST("/tasks/:id/move", s.handleMoveTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)

		api.GET("/timer", s.timerAction(s.timer.Status))
		api.POST("/timer/start", s.timerAction(s.timer.Start))
		api.POST("/timer/pause", s.timerAction(s.timer.Pause))
		api.POST("/timer/reset", s.timerAction(s.timer.Reset))
		api.POST("/timer/skip", s.timerAction(s.timer.Skip))
		api.POST("/timer/reset-sets", s.timerAction(s.timer.ResetSets))
	}

	return s
}

// Run starts the HTTP listener.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) requireOwner(c *gin.Context) {
	owner := strings.TrimSpace(c.GetHeader(OwnerHeader))
	if owner == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "missing " + OwnerHeader + " header",
		})
		return
	}
	c.Set(ownerKey, owner)
	c.Next()
}

func ownerOf(c *gin.Context) string {
	return c.GetString(ownerKey)
}

func (s *Server) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, tree.ErrCycle),
		errors.Is(err, storage.ErrConflict),
		errors.Is(err, timer.ErrNoActiveList),
		errors.Is(err, timer.ErrTimerIdle):
		status = http.StatusConflict
	case errors.Is(err, tree.ErrCrossList),
		errors.Is(err, model.ErrEmptyContent),
		errors.Is(err, model.ErrLabelComma):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

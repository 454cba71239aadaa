package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/tree"
)

const maxContentSize = 4 << 10 // 4KB

// List handlers

type createListRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateList(c *gin.Context) {
	var req createListRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "list name is required",
		})
		return
	}

	list := model.NewList(s.newID(), ownerOf(c), name, strings.TrimSpace(req.Description), s.now().UTC())
	list.SessionSeconds = s.timers.SessionSeconds
	list.ShortBreakSeconds = s.timers.ShortBreakSeconds
	list.LongBreakSeconds = s.timers.LongBreakSeconds
	if err := list.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if err := s.store.CreateList(c.Request.Context(), list); err != nil {
		s.renderError(c, err)
		return
	}

	// re-read so the response carries the activation decided at insert
	created, err := s.store.GetList(c.Request.Context(), list.OwnerID, list.ID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    created,
	})
}

func (s *Server) handleListLists(c *gin.Context) {
	lists, err := s.store.ListLists(c.Request.Context(), ownerOf(c))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    lists,
		"count":   len(lists),
	})
}

func (s *Server) handleSelectList(c *gin.Context) {
	if err := s.store.ActivateList(c.Request.Context(), ownerOf(c), c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "List selected",
	})
}

func (s *Server) handleDeleteList(c *gin.Context) {
	if err := s.store.DeleteList(c.Request.Context(), ownerOf(c), c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "List deleted",
	})
}

// Task handlers

type createTaskRequest struct {
	Content  string   `json:"content"`
	ParentID *string  `json:"parent_id"`
	AfterID  *string  `json:"after_id"`
	Labels   []string `json:"labels"`
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if len(req.Content) > maxContentSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "content exceeds maximum size of 4KB",
		})
		return
	}

	task, err := s.tasks.Create(c.Request.Context(), tree.CreateRequest{
		OwnerID:  ownerOf(c),
		ListID:   c.Param("id"),
		ParentID: req.ParentID,
		AfterID:  req.AfterID,
		Content:  req.Content,
		Labels:   req.Labels,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    task,
	})
}

func (s *Server) handleHierarchy(c *gin.Context) {
	tasks, err := s.tasks.Hierarchy(c.Request.Context(), ownerOf(c), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tasks,
		"count":   len(tasks),
	})
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleReorderTasks(c *gin.Context) {
	var req reorderRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "ids are required",
		})
		return
	}

	if err := s.tasks.Reorder(c.Request.Context(), ownerOf(c), c.Param("id"), req.IDs); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tasks reordered",
	})
}

type patchTaskRequest struct {
	Content *string   `json:"content"`
	Done    *bool     `json:"done"`
	Labels  *[]string `json:"labels"`
}

func (s *Server) handlePatchTask(c *gin.Context) {
	var req patchTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if req.Content == nil && req.Done == nil && req.Labels == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "no fields to update",
		})
		return
	}
	if req.Content != nil && len(*req.Content) > maxContentSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "content exceeds maximum size of 4KB",
		})
		return
	}

	ctx := c.Request.Context()
	owner := ownerOf(c)
	taskID := c.Param("id")

	var task model.Task
	var err error
	if req.Content != nil {
		if task, err = s.tasks.Rename(ctx, owner, taskID, *req.Content); err != nil {
			s.renderError(c, err)
			return
		}
	}
	if req.Done != nil {
		if task, err = s.tasks.SetDone(ctx, owner, taskID, *req.Done); err != nil {
			s.renderError(c, err)
			return
		}
	}
	if req.Labels != nil {
		if task, err = s.tasks.SetLabels(ctx, owner, taskID, *req.Labels); err != nil {
			s.renderError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    task,
	})
}

type moveTaskRequest struct {
	ParentID *string `json:"parent_id"`
}

func (s *Server) handleMoveTask(c *gin.Context) {
	var req moveTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	task, err := s.tasks.Move(c.Request.Context(), ownerOf(c), c.Param("id"), req.ParentID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    task,
	})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.tasks.Delete(c.Request.Context(), ownerOf(c), c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task deleted",
	})
}

// Timer handlers

// timerAction adapts a phase engine operation into a handler running
// against the caller's active list.
func (s *Server) timerAction(op func(ctx context.Context, ownerID, listID string) (model.TimerSnapshot, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := ownerOf(c)
		listID, err := s.timer.ResolveActive(c.Request.Context(), owner)
		if err != nil {
			s.renderError(c, err)
			return
		}

		snap, err := op(c.Request.Context(), owner, listID)
		if err != nil {
			s.renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    snap,
		})
	}
}

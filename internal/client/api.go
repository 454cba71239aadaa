// Package client implements the terminal UI and the HTTP client it
// drives the focusd server with. The UI never advances timers locally;
// everything on screen is the server's answer to the latest poll.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandeepkv93/focusd/internal/model"
)

const ownerHeader = "X-Focusd-User"

// Client is a thin wrapper over the focusd HTTP API. All methods send
// the configured user in the owner header and decode the standard
// response envelope.
type Client struct {
	baseURL string
	user    string
	http    *http.Client
}

func NewClient(baseURL, user string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		user:    user,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) User() string {
	return c.user
}

// APIError carries a non-2xx response back to the caller.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ownerHeader, c.user)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil && env.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: env.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Data == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func (c *Client) Lists(ctx context.Context) ([]model.List, error) {
	var lists []model.List
	if err := c.do(ctx, http.MethodGet, "/api/v1/lists", nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (c *Client) CreateList(ctx context.Context, name, description string) (model.List, error) {
	body := map[string]string{"name": name, "description": description}
	var list model.List
	if err := c.do(ctx, http.MethodPost, "/api/v1/lists", body, &list); err != nil {
		return model.List{}, err
	}
	return list, nil
}

func (c *Client) SelectList(ctx context.Context, listID string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/lists/"+url.PathEscape(listID)+"/select", nil, nil)
}

func (c *Client) DeleteList(ctx context.Context, listID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/lists/"+url.PathEscape(listID), nil, nil)
}

// CreateTaskInput mirrors the task creation body. A nil AfterID appends
// to the sibling group, an empty one claims the first slot.
type CreateTaskInput struct {
	Content  string   `json:"content"`
	ParentID *string  `json:"parent_id,omitempty"`
	AfterID  *string  `json:"after_id,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}

func (c *Client) CreateTask(ctx context.Context, listID string, in CreateTaskInput) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/api/v1/lists/"+url.PathEscape(listID)+"/tasks", in, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (c *Client) Hierarchy(ctx context.Context, listID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/api/v1/lists/"+url.PathEscape(listID)+"/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) Reorder(ctx context.Context, listID string, ids []string) error {
	body := map[string][]string{"ids": ids}
	return c.do(ctx, http.MethodPost, "/api/v1/lists/"+url.PathEscape(listID)+"/tasks/reorder", body, nil)
}

type patchPayload struct {
	Content *string   `json:"content,omitempty"`
	Done    *bool     `json:"done,omitempty"`
	Labels  *[]string `json:"labels,omitempty"`
}

func (c *Client) patchTask(ctx context.Context, taskID string, body patchPayload) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPatch, "/api/v1/tasks/"+url.PathEscape(taskID), body, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (c *Client) SetDone(ctx context.Context, taskID string, done bool) (model.Task, error) {
	return c.patchTask(ctx, taskID, patchPayload{Done: &done})
}

func (c *Client) Rename(ctx context.Context, taskID, content string) (model.Task, error) {
	return c.patchTask(ctx, taskID, patchPayload{Content: &content})
}

func (c *Client) SetLabels(ctx context.Context, taskID string, labels []string) (model.Task, error) {
	if labels == nil {
		labels = []string{}
	}
	return c.patchTask(ctx, taskID, patchPayload{Labels: &labels})
}

// MoveTask reparents a task; a nil parentID makes it a root.
func (c *Client) MoveTask(ctx context.Context, taskID string, parentID *string) (model.Task, error) {
	body := struct {
		ParentID *string `json:"parent_id"`
	}{ParentID: parentID}
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks/"+url.PathEscape(taskID)+"/move", body, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tasks/"+url.PathEscape(taskID), nil, nil)
}

func (c *Client) TimerStatus(ctx context.Context) (model.TimerSnapshot, error) {
	var snap model.TimerSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/v1/timer", nil, &snap); err != nil {
		return model.TimerSnapshot{}, err
	}
	return snap, nil
}

func (c *Client) timerPost(ctx context.Context, action string) (model.TimerSnapshot, error) {
	var snap model.TimerSnapshot
	if err := c.do(ctx, http.MethodPost, "/api/v1/timer/"+action, nil, &snap); err != nil {
		return model.TimerSnapshot{}, err
	}
	return snap, nil
}

func (c *Client) TimerStart(ctx context.Context) (model.TimerSnapshot, error) {
	return c.timerPost(ctx, "start")
}

func (c *Client) TimerPause(ctx context.Context) (model.TimerSnapshot, error) {
	return c.timerPost(ctx, "pause")
}

func (c *Client) TimerReset(ctx context.Context) (model.TimerSnapshot, error) {
	return c.timerPost(ctx, "reset")
}

func (c *Client) TimerSkip(ctx context.Context) (model.TimerSnapshot, error) {
	return c.timerPost(ctx, "skip")
}

func (c *Client) TimerResetSets(ctx context.Context) (model.TimerSnapshot, error) {
	return c.timerPost(ctx, "reset-sets")
}

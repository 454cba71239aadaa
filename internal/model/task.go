package model

import (
	"errors"
	"strings"
	"time"
)

// PathSeparator joins the ancestor id chain in a task's materialized path.
const PathSeparator = "/"

var (
	ErrEmptyContent = errors.New("model: task content is required")
	ErrLabelComma   = errors.New("model: label must not contain a comma")
)

type Task struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Content   string    `json:"content"`
	Done      bool      `json:"done"`
	Labels    []string  `json:"labels,omitempty"`
	Level     int       `json:"level"`
	Path      string    `json:"path"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.ListID) == "" {
		return errors.New("model: task list_id is required")
	}
	if strings.TrimSpace(t.Content) == "" {
		return ErrEmptyContent
	}
	if t.Level < 0 {
		return errors.New("model: task level must not be negative")
	}
	if t.Position < 0 {
		return errors.New("model: task position must not be negative")
	}
	if strings.TrimSpace(t.Path) == "" {
		return errors.New("model: task path is required")
	}
	if t.ParentID == nil && t.Path != t.ID {
		return errors.New("model: root task path must equal its id")
	}
	if !strings.HasSuffix(t.Path, t.ID) {
		return errors.New("model: task path must end with its id")
	}
	for _, label := range t.Labels {
		if strings.Contains(label, ",") {
			return ErrLabelComma
		}
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	return nil
}

func (t Task) IsRoot() bool {
	return t.ParentID == nil
}

// PathTokens splits the materialized path into its id chain, self included.
func (t Task) PathTokens() []string {
	if t.Path == "" {
		return nil
	}
	return strings.Split(t.Path, PathSeparator)
}

// NormalizeLabels trims entries, drops empties, and deduplicates while
// preserving first-occurrence order.
func NormalizeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPhase    = errors.New("model: invalid timer phase")
	ErrInvalidDuration = errors.New("model: invalid timer duration")
)

type TimerPhase string

const (
	PhaseIdle       TimerPhase = "idle"
	PhaseSession    TimerPhase = "session"
	PhaseShortBreak TimerPhase = "short_break"
	PhaseLongBreak  TimerPhase = "long_break"
	PhasePaused     TimerPhase = "paused"
)

func (p TimerPhase) IsValid() bool {
	switch p {
	case PhaseIdle, PhaseSession, PhaseShortBreak, PhaseLongBreak, PhasePaused:
		return true
	default:
		return false
	}
}

// IsRunnable reports whether the phase is one the timer counts down in.
// Idle and paused are holding states, not runnable phases.
func (p TimerPhase) IsRunnable() bool {
	switch p {
	case PhaseSession, PhaseShortBreak, PhaseLongBreak:
		return true
	default:
		return false
	}
}

const (
	DefaultSessionSeconds    = 25 * 60
	DefaultShortBreakSeconds = 5 * 60
	DefaultLongBreakSeconds  = 15 * 60

	// LongBreakEvery is the completed-session cadence at which a long break
	// replaces the short one.
	LongBreakEvery = 4
)

type List struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`

	TimerPhase        TimerPhase `json:"timer_phase"`
	CurrentPhase      TimerPhase `json:"current_phase"`
	RemainingSeconds  int        `json:"remaining_seconds"`
	TimerStartedAt    *time.Time `json:"timer_started_at,omitempty"`
	TimerUpdatedAt    *time.Time `json:"timer_updated_at,omitempty"`
	CompletedSessions int        `json:"completed_sessions"`
	SessionSeconds    int        `json:"session_seconds"`
	ShortBreakSeconds int        `json:"short_break_seconds"`
	LongBreakSeconds  int        `json:"long_break_seconds"`

	CreatedAt time.Time `json:"created_at"`
}

// NewList returns a list with the timer idle and the default durations.
func NewList(id, ownerID, name, description string, now time.Time) List {
	return List{
		ID:                id,
		OwnerID:           ownerID,
		Name:              name,
		Description:       description,
		TimerPhase:        PhaseIdle,
		CurrentPhase:      PhaseSession,
		SessionSeconds:    DefaultSessionSeconds,
		ShortBreakSeconds: DefaultShortBreakSeconds,
		LongBreakSeconds:  DefaultLongBreakSeconds,
		CreatedAt:         now,
	}
}

func (l List) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("model: list id is required")
	}
	if strings.TrimSpace(l.OwnerID) == "" {
		return errors.New("model: list owner_id is required")
	}
	if strings.TrimSpace(l.Name) == "" {
		return errors.New("model: list name is required")
	}
	if !l.TimerPhase.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPhase, l.TimerPhase)
	}
	if !l.CurrentPhase.IsRunnable() {
		return fmt.Errorf("%w: current phase %q", ErrInvalidPhase, l.CurrentPhase)
	}
	if l.RemainingSeconds < 0 {
		return errors.New("model: remaining seconds must not be negative")
	}
	if l.SessionSeconds <= 0 || l.ShortBreakSeconds <= 0 || l.LongBreakSeconds <= 0 {
		return fmt.Errorf("%w: durations must be positive", ErrInvalidDuration)
	}
	if l.CompletedSessions < 0 {
		return errors.New("model: completed sessions must not be negative")
	}
	if l.CreatedAt.IsZero() {
		return errors.New("model: list created_at is required")
	}
	return nil
}

// PhaseDuration returns the configured full duration, in seconds, of a
// runnable phase. Zero for idle and paused.
func (l List) PhaseDuration(p TimerPhase) int {
	switch p {
	case PhaseSession:
		return l.SessionSeconds
	case PhaseShortBreak:
		return l.ShortBreakSeconds
	case PhaseLongBreak:
		return l.LongBreakSeconds
	default:
		return 0
	}
}

// TimerSnapshot is the read model of a list's timer returned to clients.
type TimerSnapshot struct {
	ListID            string     `json:"list_id"`
	Phase             TimerPhase `json:"phase"`
	CurrentPhase      TimerPhase `json:"current_phase"`
	RemainingSeconds  int        `json:"remaining_seconds"`
	CompletedSessions int        `json:"completed_sessions"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

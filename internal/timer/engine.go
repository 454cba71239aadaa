package timer

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/storage"
)

var (
	ErrTimerIdle    = errors.New("timer: timer is idle")
	ErrNoActiveList = errors.New("timer: no active list")
)

// Engine is the per-list timer state machine. Nothing ticks in the
// background: a running phase stores its start timestamp and every read
// derives the remaining seconds from it, so missed polls and reconnects
// cannot drift the clock. current_phase records which runnable phase a
// pause left, so resuming restores it instead of defaulting to a session.
type Engine struct {
	store storage.Store
	now   func() time.Time
}

func NewEngine(store storage.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// ResolveActive returns the id of the owner's active list, or
// ErrNoActiveList when the owner has none.
func (e *Engine) ResolveActive(ctx context.Context, ownerID string) (string, error) {
	list, err := e.store.GetActiveList(ctx, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrNoActiveList
	}
	if err != nil {
		return "", err
	}
	return list.ID, nil
}

// Start begins a session from idle, resumes the paused phase, or reports
// the running phase unchanged.
func (e *Engine) Start(ctx context.Context, ownerID, listID string) (model.TimerSnapshot, error) {
	list, err := e.store.GetList(ctx, ownerID, listID)
	if err != nil {
		return model.TimerSnapshot{}, err
	}
	now := e.now().UTC()

	switch list.TimerPhase {
	case model.PhaseIdle:
		list.TimerPhase = model.PhaseSession
		list.CurrentPhase = model.PhaseSession
		list.RemainingSeconds = list.SessionSeconds
		list.TimerStartedAt = &now
		list.TimerUpdatedAt = &now
	case model.PhasePaused:
		list.TimerPhase = list.CurrentPhase
		list.TimerStartedAt = &now
		list.TimerUpdatedAt = &now
	default:
		// already running, report without rewinding
		return snapshotOf(list, now), nil
	}

	if err := e.store.UpdateList(ctx, list); err != nil {
		return model.TimerSnapshot{}, err
	}
	return snapshotOf(list, now), nil
}

// Pause freezes a running phase, snapshotting the live remaining seconds
// and remembering the phase for the next Start. Pausing while already
// paused changes nothing.
func (e *Engine) Pause(ctx context.Context, ownerID, listID string) (model.TimerSnapshot, error) {
	list, err := e.store.GetList(ctx, ownerID, listID)
	if err != nil {
		return model.TimerSnapshot{}, err
	}
	now := e.now().UTC()

	switch {
	case list.TimerPhase.IsRunnable():
		list.RemainingSeconds = liveRemaining(list, now)
		list.CurrentPhase = list.TimerPhase
		list.TimerPhase = model.PhasePaused
		list.TimerStartedAt = nil
		list.TimerUpdatedAt = &now
	case list.TimerPhase == model.PhasePaused:
		return snapshotOf(list, now), nil
	default:
		return model.TimerSnapshot{}, ErrTimerIdle
	}

	if err := e.store.UpdateList(ctx, list); err != nil {
		return model.TimerSnapshot{}, err
	}
	return snapshotOf(list, now), nil
}

// Reset pauses the timer with the full duration of the current phase
// restored. The session counter is untouched.
func (e *Engine) Reset(ctx context.Context, ownerID, listID string) (model.TimerSnapshot, error) {
	list, err := e.store.GetList(ctx, ownerID, listID)
	if err != nil {
		return model.TimerSnapshot{}, err
	}
	now := e.now().UTC()

	if !list.TimerPhase.IsRunnable() && list.TimerPhase != model.PhasePaused {
		return model.TimerSnapshot{}, ErrTimerIdle
	}
	list.TimerPhase = model.PhasePaused
	list.RemainingSeconds = list.PhaseDuration(list.CurrentPhase)
	list.TimerStartedAt = nil
	list.TimerUpdatedAt = &now

	if err := e.store.UpdateList(ctx, list); err != nil {
		return model.TimerSnapshot{}, err
	}
	return snapshotOf(list, now), nil
}

// Skip advances the cycle: a session hands over to a break (the long one
// every fourth completed session), a break hands back to a session. A
// paused timer skips out of the phase it was paused in. The next phase
// starts running immediately.
func (e *Engine) Skip(ctx context.Context, ownerID, listID string) (model.TimerSnapshot, error) {
	list, err := e.store.GetList(ctx, ownerID, listID)
	if err != nil {
		return model.TimerSnapshot{}, err
	}
	now := e.now().UTC()

	if list.TimerPhase == model.PhaseIdle {
		return model.TimerSnapshot{}, ErrTimerIdle
	}
	from := list.TimerPhase
	if from == model.PhasePaused {
		from = list.CurrentPhase
	}

	var next model.TimerPhase
	if from == model.PhaseSession {
		list.CompletedSessions++
		if list.CompletedSessions%model.LongBreakEvery == 0 {
			next = model.PhaseLongBreak
		} else {
			next = model.PhaseShortBreak
		}
	} else {
		next = model.PhaseSession
	}

	list.TimerPhase = next
	list.CurrentPhase = next
	list.RemainingSeconds = list.PhaseDuration(next)
	list.TimerStartedAt = &now
	list.TimerUpdatedAt = &now

	if err := e.store.UpdateList(ctx, list); err != nil {
		return model.TimerSnapshot{}, err
	}
	return snapshotOf(list, now), nil
}

// ResetSets restarts the whole cycle from any state: paused at a full
// session with the counter cleared.
func (e *Engine) ResetSets(ctx context.Context, ownerID, listID string) (model.TimerSnapshot, error) {
	list, err := e.store.GetList(ctx, ownerID, listID)
	if err != nil {
		return model.TimerSnapshot{}, err
	}
	now := e.now().UTC()

	list.TimerPhase = model.PhasePaused
	list.CurrentPhase = model.PhaseSession
	list.RemainingSeconds = list.SessionSeconds
	list.CompletedSessions = 0
	list.TimerStartedAt = nil
	list.TimerUpdatedAt = &now

	if err := e.store.UpdateList(ctx, list); err != nil {
		return model.TimerSnapshot{}, err
	}
	return snapshotOf(list, now), nil
}

// Status reports the timer without mutating it.
func (e *Engine) Status(ctx context.Context, ownerID, listID string) (model.TimerSnapshot, error) {
	list, err := e.store.GetList(ctx, ownerID, listID)
	if err != nil {
		return model.TimerSnapshot{}, err
	}
	return snapshotOf(list, e.now().UTC()), nil
}

// liveRemaining derives the remaining seconds of a running phase from
// its start timestamp, floored at zero. A running phase missing its
// start timestamp falls back to the stored snapshot.
func liveRemaining(list model.List, now time.Time) int {
	if !list.TimerPhase.IsRunnable() || list.TimerStartedAt == nil {
		return list.RemainingSeconds
	}
	elapsed := int(now.Sub(*list.TimerStartedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := list.RemainingSeconds - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func snapshotOf(list model.List, now time.Time) model.TimerSnapshot {
	return model.TimerSnapshot{
		ListID:            list.ID,
		Phase:             list.TimerPhase,
		CurrentPhase:      list.CurrentPhase,
		RemainingSeconds:  liveRemaining(list, now),
		CompletedSessions: list.CompletedSessions,
		StartedAt:         list.TimerStartedAt,
		UpdatedAt:         list.TimerUpdatedAt,
	}
}

package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewListDefaults(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	list := NewList("list-1", "owner-1", "Focus", "daily work", now)

	if err := list.Validate(); err != nil {
		t.Fatalf("expected valid list, got error: %v", err)
	}
	if list.TimerPhase != PhaseIdle {
		t.Fatalf("expected idle phase, got %q", list.TimerPhase)
	}
	if list.CurrentPhase != PhaseSession {
		t.Fatalf("expected session current phase, got %q", list.CurrentPhase)
	}
	if list.SessionSeconds != 1500 || list.ShortBreakSeconds != 300 || list.LongBreakSeconds != 900 {
		t.Fatalf("unexpected default durations: %d/%d/%d", list.SessionSeconds, list.ShortBreakSeconds, list.LongBreakSeconds)
	}
	if list.RemainingSeconds != 0 || list.CompletedSessions != 0 {
		t.Fatalf("expected zeroed timer counters, got remaining=%d sessions=%d", list.RemainingSeconds, list.CompletedSessions)
	}
}

func TestListValidateRejectsBadPhases(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	list := NewList("list-1", "owner-1", "Focus", "", now)

	list.TimerPhase = TimerPhase("sprinting")
	if err := list.Validate(); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase, got: %v", err)
	}

	list.TimerPhase = PhaseSession
	list.CurrentPhase = PhasePaused
	if err := list.Validate(); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase for non-runnable current phase, got: %v", err)
	}
}

func TestListValidateRejectsBadDurations(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	list := NewList("list-1", "owner-1", "Focus", "", now)
	list.ShortBreakSeconds = 0
	if err := list.Validate(); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got: %v", err)
	}
}

func TestPhaseDuration(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	list := NewList("list-1", "owner-1", "Focus", "", now)
	list.SessionSeconds = 100
	list.ShortBreakSeconds = 20
	list.LongBreakSeconds = 60

	if d := list.PhaseDuration(PhaseSession); d != 100 {
		t.Fatalf("session duration: got %d", d)
	}
	if d := list.PhaseDuration(PhaseShortBreak); d != 20 {
		t.Fatalf("short break duration: got %d", d)
	}
	if d := list.PhaseDuration(PhaseLongBreak); d != 60 {
		t.Fatalf("long break duration: got %d", d)
	}
	if d := list.PhaseDuration(PhasePaused); d != 0 {
		t.Fatalf("paused duration: got %d", d)
	}
}

func TestTimerPhaseIsRunnable(t *testing.T) {
	runnable := []TimerPhase{PhaseSession, PhaseShortBreak, PhaseLongBreak}
	for _, p := range runnable {
		if !p.IsRunnable() {
			t.Fatalf("expected %q to be runnable", p)
		}
	}
	for _, p := range []TimerPhase{PhaseIdle, PhasePaused, TimerPhase("other")} {
		if p.IsRunnable() {
			t.Fatalf("expected %q not to be runnable", p)
		}
	}
}

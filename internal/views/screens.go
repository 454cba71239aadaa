package views

import (
	"fmt"
	"strings"
)

type TaskRowData struct {
	ID      string
	Content string
	Done    bool
	Level   int
	Labels  []string
}

type TasksPanelData struct {
	ListName   string
	Rows       []TaskRowData
	SelectedID string
	InputLabel string
	InputView  string
}

type ListRowData struct {
	ID          string
	Name        string
	Description string
	Active      bool
}

type ListsPanelData struct {
	Rows       []ListRowData
	SelectedID string
	InputView  string
}

type TimerPanelData struct {
	ListName          string
	Phase             string
	CurrentPhase      string
	Timer             string
	ProgressView      string
	ProgressPct       int
	CompletedSessions int
	SyncView          string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
	IntroView   string
}

func RenderTasksPanel(data TasksPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("tasks: %s\n", data.ListName))
	b.WriteString("actions: [j/k]move [space]done [a]add [A]child [i]after [e]edit [d]delete\n")
	b.WriteString("         [>]indent [<]outdent [J/K]reorder\n")
	if data.InputView != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", data.InputLabel, data.InputView))
	}
	if len(data.Rows) == 0 {
		b.WriteString("(no tasks yet, press [a] to add one)")
		return strings.TrimSpace(b.String())
	}
	for i, row := range data.Rows {
		cursor := " "
		if row.ID == data.SelectedID {
			cursor = ">"
		}
		box := "[ ]"
		if row.Done {
			box = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s %2d %s%s %s", cursor, i+1, strings.Repeat("  ", row.Level), box, row.Content))
		if len(row.Labels) > 0 {
			b.WriteString(" #" + strings.Join(row.Labels, " #"))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderListsPanel(data ListsPanelData) string {
	var b strings.Builder
	b.WriteString("lists:\n")
	b.WriteString("actions: [j/k]move [enter]select [n]new [d]delete\n")
	if data.InputView != "" {
		b.WriteString(fmt.Sprintf("new list: %s\n", data.InputView))
	}
	if len(data.Rows) == 0 {
		b.WriteString("(no lists yet, press [n] to create one)")
		return strings.TrimSpace(b.String())
	}
	for _, row := range data.Rows {
		cursor := " "
		if row.ID == data.SelectedID {
			cursor = ">"
		}
		marker := " "
		if row.Active {
			marker = "*"
		}
		b.WriteString(fmt.Sprintf("%s %s %s", cursor, marker, row.Name))
		if row.Description != "" {
			b.WriteString(fmt.Sprintf(" (%s)", row.Description))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderTimerPanel(data TimerPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("timer: %s\n", data.ListName))
	phase := strings.ToUpper(data.Phase)
	if data.Phase == "paused" && data.CurrentPhase != "" {
		phase = fmt.Sprintf("PAUSED (next: %s)", strings.ToUpper(data.CurrentPhase))
	}
	b.WriteString(fmt.Sprintf("phase: %s\n", phase))
	b.WriteString(fmt.Sprintf("remaining: %s\n", data.Timer))
	b.WriteString(fmt.Sprintf("progress: %s %d%%\n", data.ProgressView, data.ProgressPct))
	b.WriteString(fmt.Sprintf("sessions completed: %d\n", data.CompletedSessions))
	b.WriteString("actions: [space]start/pause [r]reset [n]skip [R]reset-sets\n")
	if data.SyncView != "" {
		b.WriteString(fmt.Sprintf("sync: %s", data.SyncView))
	}
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s\nverbs: add done rename move label timer list", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	var b strings.Builder
	b.WriteString("help:\n")
	if data.IntroView != "" {
		b.WriteString(data.IntroView + "\n\n")
	}
	b.WriteString(fmt.Sprintf("%s view:\n", strings.ToLower(data.CurrentView)))
	b.WriteString(strings.Join(data.Bindings, "\n"))
	if data.HelpView != "" {
		b.WriteString("\n\nglobal:\n" + data.HelpView)
	}
	return strings.TrimSpace(b.String())
}

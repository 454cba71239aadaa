package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/views"
)

const helpIntro = `# focusd

A hierarchical task list with a server-side pomodoro timer.
The timer belongs to the active list and keeps counting on the
server, so several terminals can watch the same countdown.`

func (m Model) View() string {
	if m.Quitting {
		return "bye\n"
	}

	status := ""
	if m.Status.Text != "" {
		status = "status: " + m.Status.Text
	}

	leftPane := ""
	switch m.CurrentView {
	case ViewTasks:
		leftPane = m.renderTasksView()
	case ViewLists:
		leftPane = m.renderListsView()
	case ViewTimer:
		leftPane = m.renderTimerView()
	}

	rightPane := ""
	if m.Palette.Active {
		rightPane = views.RenderCommandPalette(true, m.Palette.Input)
	}
	if m.HelpVisible {
		rightPane = strings.TrimSpace(rightPane + "\n" + m.renderHelpView())
	}

	notification := ""
	if m.Notice != "" {
		notification = views.RenderNotification("ok", m.Notice)
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("focusd | view: %s | user: %s", m.CurrentView, m.api.User()),
		TimerLine:    m.timerLine(),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		Notification: notification,
		Footer:       fmt.Sprintf("keys: %s tasks | %s lists | %s timer | / cmd | %s help | %s quit", m.Keys.Tasks, m.Keys.Lists, m.Keys.Timer, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) timerLine() string {
	if !m.HasTimer {
		return "timer: (no active list)"
	}
	phase := strings.ToUpper(string(m.Timer.Phase))
	if m.Timer.Phase == model.PhasePaused {
		phase = "PAUSED " + strings.ToUpper(string(m.Timer.CurrentPhase))
	}
	return fmt.Sprintf("timer: %s %s | sessions: %d", phase, formatClock(m.Timer.RemainingSeconds), m.Timer.CompletedSessions)
}

func (m Model) renderTasksView() string {
	active, ok := m.activeList()
	name := "(no active list)"
	if ok {
		name = active.Name
	}

	rows := make([]views.TaskRowData, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		rows = append(rows, views.TaskRowData{
			ID:      t.ID,
			Content: t.Content,
			Done:    t.Done,
			Level:   t.Level,
			Labels:  t.Labels,
		})
	}

	selectedID := ""
	if task, ok := m.selectedTask(); ok {
		selectedID = task.ID
	}

	data := views.TasksPanelData{
		ListName:   name,
		Rows:       rows,
		SelectedID: selectedID,
	}
	if m.Capture.Kind != CaptureNone && m.Capture.Kind != CaptureList {
		data.InputLabel = m.Capture.Label
		data.InputView = m.captureInput.View()
	}
	return views.RenderTasksPanel(data)
}

func (m Model) renderListsView() string {
	rows := make([]views.ListRowData, 0, len(m.Lists))
	for _, l := range m.Lists {
		rows = append(rows, views.ListRowData{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			Active:      l.Active,
		})
	}

	selectedID := ""
	if list, ok := m.selectedList(); ok {
		selectedID = list.ID
	}

	data := views.ListsPanelData{
		Rows:       rows,
		SelectedID: selectedID,
	}
	if m.Capture.Kind == CaptureList {
		data.InputView = m.captureInput.View()
	}
	return views.RenderListsPanel(data)
}

func (m Model) renderTimerView() string {
	active, ok := m.activeList()
	if !ok || !m.HasTimer {
		return "timer:\n(no active list, create one in the lists view)"
	}

	total := m.timerTotalSeconds()
	fraction := 0.0
	if total > 0 {
		fraction = float64(total-m.Timer.RemainingSeconds) / float64(total)
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	sync := ""
	if m.syncActive {
		sync = m.syncSpinner.View()
	}

	return views.RenderTimerPanel(views.TimerPanelData{
		ListName:          active.Name,
		Phase:             string(m.Timer.Phase),
		CurrentPhase:      string(m.Timer.CurrentPhase),
		Timer:             formatClock(m.Timer.RemainingSeconds),
		ProgressView:      m.timerProgress.ViewAs(fraction),
		ProgressPct:       int(fraction * 100),
		CompletedSessions: m.Timer.CompletedSessions,
		SyncView:          sync,
	})
}

// timerTotalSeconds is the full duration of the phase on screen, used
// to scale the progress bar.
func (m Model) timerTotalSeconds() int {
	active, ok := m.activeList()
	if !ok {
		return 0
	}
	return active.PhaseDuration(m.Timer.CurrentPhase)
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

type KeyBinding struct {
	Key    string
	Action string
}

func (m Model) renderHelpView() string {
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	bindings := m.helpBindings()
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
		IntroView: views.RenderMarkdown(helpIntro),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Tasks, Action: "switch to Tasks"},
		{Key: m.Keys.Lists, Action: "switch to Lists"},
		{Key: m.Keys.Timer, Action: "switch to Timer"},
		{Key: "/", Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewTasks:
		return []KeyBinding{
			{Key: "j/k", Action: "move cursor"},
			{Key: "space", Action: "toggle done"},
			{Key: "a/A/i", Action: "add root / child / after"},
			{Key: "e", Action: "edit content"},
			{Key: "d", Action: "delete subtree"},
			{Key: ">/<", Action: "indent / outdent"},
			{Key: "J/K", Action: "swap with next / previous sibling"},
		}
	case ViewLists:
		return []KeyBinding{
			{Key: "j/k", Action: "move cursor"},
			{Key: "enter", Action: "select list"},
			{Key: "n", Action: "new list"},
			{Key: "d", Action: "delete list"},
		}
	case ViewTimer:
		return []KeyBinding{
			{Key: "space", Action: "start/pause timer"},
			{Key: "r", Action: "reset current phase"},
			{Key: "n", Action: "skip to next phase"},
			{Key: "R", Action: "restart the whole cycle"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.viewBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.viewBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}

func formatClock(totalSec int) string {
	if totalSec < 0 {
		totalSec = 0
	}
	min := totalSec / 60
	sec := totalSec % 60
	return fmt.Sprintf("%02d:%02d", min, sec)
}

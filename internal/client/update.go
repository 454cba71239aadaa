package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/focusd/internal/commands"
	"github.com/sandeepkv93/focusd/internal/model"
)

const requestTimeout = 5 * time.Second

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.pollTickCmd(), m.syncSpinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		m.Notice = ""
		return m.handleKey(typed)
	case PollTickMsg:
		m.syncActive = true
		return m, tea.Batch(m.refreshCmd(), m.pollTickCmd(), m.syncSpinner.Tick)
	case RefreshMsg:
		m.applyRefresh(typed)
		return m, nil
	case ActionMsg:
		m.Status = StatusBar{Text: typed.Status}
		m.Notice = typed.Status
		m.syncActive = true
		return m, m.refreshCmd()
	case APIErrorMsg:
		m.syncActive = false
		m.LastError = typed.Err
		m.Status = StatusBar{Text: "error: " + typed.Err.Error(), IsError: true}
		return m, nil
	case spinner.TickMsg:
		if !m.syncActive {
			return m, nil
		}
		var cmd tea.Cmd
		m.syncSpinner, cmd = m.syncSpinner.Update(typed)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applyRefresh(msg RefreshMsg) {
	m.syncActive = false
	m.Lists = msg.Lists
	m.Tasks = msg.Tasks
	if msg.Timer != nil {
		m.Timer = *msg.Timer
		m.HasTimer = true
	} else {
		m.Timer = model.TimerSnapshot{}
		m.HasTimer = false
	}
	if m.TasksCursor >= len(m.Tasks) {
		m.TasksCursor = len(m.Tasks) - 1
	}
	if m.TasksCursor < 0 {
		m.TasksCursor = 0
	}
	if m.ListsCursor >= len(m.Lists) {
		m.ListsCursor = len(m.Lists) - 1
	}
	if m.ListsCursor < 0 {
		m.ListsCursor = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}

	if m.Palette.Active {
		return m.handlePaletteKey(msg)
	}
	if m.Capture.Kind != CaptureNone {
		return m.handleCaptureKey(msg)
	}

	switch msg.String() {
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
		return m, nil
	case m.Keys.Tasks:
		m.CurrentView = ViewTasks
		return m, nil
	case m.Keys.Lists:
		m.CurrentView = ViewLists
		return m, nil
	case m.Keys.Timer:
		m.CurrentView = ViewTimer
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}

	switch m.CurrentView {
	case ViewTasks:
		return m.handleTasksKey(msg)
	case ViewLists:
		return m.handleListsKey(msg)
	case ViewTimer:
		return m.handleTimerKey(msg)
	}
	return m, nil
}

func (m Model) handleTasksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j":
		if m.TasksCursor < len(m.Tasks)-1 {
			m.TasksCursor++
		}
		return m, nil
	case "k":
		if m.TasksCursor > 0 {
			m.TasksCursor--
		}
		return m, nil
	case " ":
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		done := !task.Done
		verb := "done"
		if !done {
			verb = "reopened"
		}
		return m, m.actionCmd(fmt.Sprintf("task %q %s", task.Content, verb), func(ctx context.Context, api *Client) error {
			_, err := api.SetDone(ctx, task.ID, done)
			return err
		})
	case "a":
		return m.startCapture(CaptureRoot, "", "new task:"), nil
	case "A":
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m.startCapture(CaptureChild, task.ID, fmt.Sprintf("child of %q:", task.Content)), nil
	case "i":
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m.startCapture(CaptureSibling, task.ID, fmt.Sprintf("after %q:", task.Content)), nil
	case "e":
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		next := m.startCapture(CaptureEdit, task.ID, fmt.Sprintf("edit %q:", task.Content))
		next.captureInput.SetValue(task.Content)
		return next, nil
	case "d":
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.actionCmd(fmt.Sprintf("task %q deleted", task.Content), func(ctx context.Context, api *Client) error {
			return api.DeleteTask(ctx, task.ID)
		})
	case ">":
		return m.indentSelected()
	case "<":
		return m.outdentSelected()
	case "J":
		return m.swapSelected(1)
	case "K":
		return m.swapSelected(-1)
	}
	return m, nil
}

func (m Model) handleListsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j":
		if m.ListsCursor < len(m.Lists)-1 {
			m.ListsCursor++
		}
		return m, nil
	case "k":
		if m.ListsCursor > 0 {
			m.ListsCursor--
		}
		return m, nil
	case "enter":
		list, ok := m.selectedList()
		if !ok {
			return m, nil
		}
		return m, m.actionCmd(fmt.Sprintf("list %q selected", list.Name), func(ctx context.Context, api *Client) error {
			return api.SelectList(ctx, list.ID)
		})
	case "n":
		return m.startCapture(CaptureList, "", "new list:"), nil
	case "d":
		list, ok := m.selectedList()
		if !ok {
			return m, nil
		}
		return m, m.actionCmd(fmt.Sprintf("list %q deleted", list.Name), func(ctx context.Context, api *Client) error {
			return api.DeleteList(ctx, list.ID)
		})
	}
	return m, nil
}

func (m Model) handleTimerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		if m.HasTimer && m.Timer.Phase.IsRunnable() {
			return m, m.actionCmd("timer paused", func(ctx context.Context, api *Client) error {
				_, err := api.TimerPause(ctx)
				return err
			})
		}
		return m, m.actionCmd("timer started", func(ctx context.Context, api *Client) error {
			_, err := api.TimerStart(ctx)
			return err
		})
	case "r":
		return m, m.actionCmd("timer reset", func(ctx context.Context, api *Client) error {
			_, err := api.TimerReset(ctx)
			return err
		})
	case "n":
		return m, m.actionCmd("phase skipped", func(ctx context.Context, api *Client) error {
			_, err := api.TimerSkip(ctx)
			return err
		})
	case "R":
		return m, m.actionCmd("timer cycle restarted", func(ctx context.Context, api *Client) error {
			_, err := api.TimerResetSets(ctx)
			return err
		})
	}
	return m, nil
}

func (m Model) startCapture(kind CaptureKind, targetID, label string) Model {
	m.Capture = CaptureState{Kind: kind, TargetID: targetID, Label: label}
	m.captureInput.SetValue("")
	m.captureInput.Focus()
	m.Status = StatusBar{Text: "typing, enter to submit, esc to cancel"}
	return m
}

func (m Model) handleCaptureKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Capture = CaptureState{}
		m.captureInput.SetValue("")
		m.captureInput.Blur()
		m.Status = StatusBar{Text: "capture cancelled"}
		return m, nil
	case "enter":
		return m.submitCapture()
	default:
		if msg.Type == tea.KeyRunes {
			m.captureInput.SetValue(m.captureInput.Value() + string(msg.Runes))
			return m, nil
		}
		var cmd tea.Cmd
		m.captureInput, cmd = m.captureInput.Update(msg)
		return m, cmd
	}
}

func (m Model) submitCapture() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.captureInput.Value())
	capture := m.Capture
	m.Capture = CaptureState{}
	m.captureInput.SetValue("")
	m.captureInput.Blur()

	if text == "" {
		m.Status = StatusBar{Text: "nothing captured"}
		return m, nil
	}

	switch capture.Kind {
	case CaptureList:
		return m, m.actionCmd(fmt.Sprintf("list %q created", text), func(ctx context.Context, api *Client) error {
			_, err := api.CreateList(ctx, text, "")
			return err
		})
	case CaptureEdit:
		targetID := capture.TargetID
		return m, m.actionCmd(fmt.Sprintf("task renamed to %q", text), func(ctx context.Context, api *Client) error {
			_, err := api.Rename(ctx, targetID, text)
			return err
		})
	default:
		active, ok := m.activeList()
		if !ok {
			m.Status = StatusBar{Text: "error: no active list, create one first", IsError: true}
			return m, nil
		}
		in := CreateTaskInput{Content: text}
		switch capture.Kind {
		case CaptureChild:
			parentID := capture.TargetID
			in.ParentID = &parentID
		case CaptureSibling:
			if target, ok := m.taskByID(capture.TargetID); ok {
				in.ParentID = target.ParentID
				afterID := target.ID
				in.AfterID = &afterID
			}
		}
		listID := active.ID
		return m, m.actionCmd(fmt.Sprintf("task %q added", text), func(ctx context.Context, api *Client) error {
			_, err := api.CreateTask(ctx, listID, in)
			return err
		})
	}
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m Model) executePaletteCommand() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: "error: " + err.Error(), IsError: true}
		return m, nil
	}

	var teaCmd tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			active, ok := m.activeList()
			if !ok {
				return commands.Result{}, errors.New("no active list, create one first")
			}
			listID := active.ID
			content := a.Content
			teaCmd = m.actionCmd(fmt.Sprintf("task %q added", content), func(ctx context.Context, api *Client) error {
				_, err := api.CreateTask(ctx, listID, CreateTaskInput{Content: content})
				return err
			})
			return commands.Result{Message: fmt.Sprintf("adding task %q", content)}, nil
		},
		Done: func(a commands.DoneArgs) (commands.Result, error) {
			task, ok := m.taskAtRow(a.Row)
			if !ok {
				return commands.Result{}, fmt.Errorf("no task at row %d", a.Row)
			}
			done := !task.Done
			teaCmd = m.actionCmd(fmt.Sprintf("task %q toggled", task.Content), func(ctx context.Context, api *Client) error {
				_, err := api.SetDone(ctx, task.ID, done)
				return err
			})
			return commands.Result{Message: fmt.Sprintf("toggling task %d", a.Row)}, nil
		},
		Rename: func(a commands.RenameArgs) (commands.Result, error) {
			task, ok := m.taskAtRow(a.Row)
			if !ok {
				return commands.Result{}, fmt.Errorf("no task at row %d", a.Row)
			}
			content := a.Content
			teaCmd = m.actionCmd(fmt.Sprintf("task renamed to %q", content), func(ctx context.Context, api *Client) error {
				_, err := api.Rename(ctx, task.ID, content)
				return err
			})
			return commands.Result{Message: fmt.Sprintf("renaming task %d", a.Row)}, nil
		},
		Move: func(a commands.MoveArgs) (commands.Result, error) {
			task, ok := m.taskAtRow(a.Row)
			if !ok {
				return commands.Result{}, fmt.Errorf("no task at row %d", a.Row)
			}
			var parentID *string
			if !a.ToRoot {
				parent, ok := m.taskAtRow(a.ParentRow)
				if !ok {
					return commands.Result{}, fmt.Errorf("no task at row %d", a.ParentRow)
				}
				id := parent.ID
				parentID = &id
			}
			teaCmd = m.actionCmd(fmt.Sprintf("task %q moved", task.Content), func(ctx context.Context, api *Client) error {
				_, err := api.MoveTask(ctx, task.ID, parentID)
				return err
			})
			return commands.Result{Message: fmt.Sprintf("moving task %d", a.Row)}, nil
		},
		Label: func(a commands.LabelArgs) (commands.Result, error) {
			task, ok := m.taskAtRow(a.Row)
			if !ok {
				return commands.Result{}, fmt.Errorf("no task at row %d", a.Row)
			}
			labels := a.Labels
			teaCmd = m.actionCmd(fmt.Sprintf("labels updated on %q", task.Content), func(ctx context.Context, api *Client) error {
				_, err := api.SetLabels(ctx, task.ID, labels)
				return err
			})
			return commands.Result{Message: fmt.Sprintf("labeling task %d", a.Row)}, nil
		},
		Timer: func(a commands.TimerArgs) (commands.Result, error) {
			action := a.Action
			teaCmd = m.actionCmd("timer "+action, func(ctx context.Context, api *Client) error {
				var err error
				switch action {
				case "start":
					_, err = api.TimerStart(ctx)
				case "pause":
					_, err = api.TimerPause(ctx)
				case "reset":
					_, err = api.TimerReset(ctx)
				case "skip":
					_, err = api.TimerSkip(ctx)
				case "reset-sets":
					_, err = api.TimerResetSets(ctx)
				}
				return err
			})
			return commands.Result{Message: "timer " + action}, nil
		},
		List: func(a commands.ListArgs) (commands.Result, error) {
			name := a.Name
			teaCmd = m.actionCmd(fmt.Sprintf("list %q created", name), func(ctx context.Context, api *Client) error {
				_, err := api.CreateList(ctx, name, "")
				return err
			})
			return commands.Result{Message: fmt.Sprintf("creating list %q", name)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: "error: " + err.Error(), IsError: true}
		return m, nil
	}

	m.Status = StatusBar{Text: res.Message}
	return m, teaCmd
}

func (m Model) indentSelected() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	prev, ok := m.previousSibling(task)
	if !ok {
		m.Status = StatusBar{Text: "already the first sibling"}
		return m, nil
	}
	parentID := prev.ID
	return m, m.actionCmd(fmt.Sprintf("task %q indented", task.Content), func(ctx context.Context, api *Client) error {
		_, err := api.MoveTask(ctx, task.ID, &parentID)
		return err
	})
}

func (m Model) outdentSelected() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	if task.ParentID == nil {
		m.Status = StatusBar{Text: "already a root task"}
		return m, nil
	}
	parent, ok := m.taskByID(*task.ParentID)
	if !ok {
		return m, nil
	}
	dest := parent.ParentID
	return m, m.actionCmd(fmt.Sprintf("task %q outdented", task.Content), func(ctx context.Context, api *Client) error {
		_, err := api.MoveTask(ctx, task.ID, dest)
		return err
	})
}

func (m Model) swapSelected(delta int) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	ids := m.siblingIDs(task)
	idx := -1
	for i, id := range ids {
		if id == task.ID {
			idx = i
			break
		}
	}
	j := idx + delta
	if idx < 0 || j < 0 || j >= len(ids) {
		m.Status = StatusBar{Text: "cannot reorder further"}
		return m, nil
	}
	ids[idx], ids[j] = ids[j], ids[idx]
	listID := task.ListID
	return m, m.actionCmd(fmt.Sprintf("task %q reordered", task.Content), func(ctx context.Context, api *Client) error {
		return api.Reorder(ctx, listID, ids)
	})
}

func (m Model) previousSibling(task model.Task) (model.Task, bool) {
	for _, t := range m.Tasks {
		if sameParent(t.ParentID, task.ParentID) && t.Position == task.Position-1 {
			return t, true
		}
	}
	return model.Task{}, false
}

// siblingIDs returns the complete sibling group of a task ordered by
// position, which is what the reorder endpoint expects.
func (m Model) siblingIDs(task model.Task) []string {
	group := make([]model.Task, 0)
	for _, t := range m.Tasks {
		if sameParent(t.ParentID, task.ParentID) {
			group = append(group, t)
		}
	}
	sort.SliceStable(group, func(i, j int) bool { return group[i].Position < group[j].Position })
	ids := make([]string, 0, len(group))
	for _, t := range group {
		ids = append(ids, t.ID)
	}
	return ids
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m Model) actionCmd(status string, fn func(context.Context, *Client) error) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := fn(ctx, api); err != nil {
			return APIErrorMsg{Err: err}
		}
		return ActionMsg{Status: status}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		lists, err := api.Lists(ctx)
		if err != nil {
			return APIErrorMsg{Err: err}
		}
		msg := RefreshMsg{Lists: lists}
		for _, l := range lists {
			if !l.Active {
				continue
			}
			tasks, err := api.Hierarchy(ctx, l.ID)
			if err != nil {
				return APIErrorMsg{Err: err}
			}
			snap, err := api.TimerStatus(ctx)
			if err != nil {
				return APIErrorMsg{Err: err}
			}
			msg.Tasks = tasks
			msg.Timer = &snap
			break
		}
		return msg
	}
}

func (m Model) pollTickCmd() tea.Cmd {
	return tea.Tick(m.pollEvery, func(time.Time) tea.Msg { return PollTickMsg{} })
}

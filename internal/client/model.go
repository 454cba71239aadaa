package client

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/focusd/internal/model"
)

type View string

const (
	ViewTasks View = "Tasks"
	ViewLists View = "Lists"
	ViewTimer View = "Timer"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Tasks string
	Lists string
	Timer string
	Help  string
	Quit  string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// CaptureKind says what the text input currently being typed will
// become on enter.
type CaptureKind string

const (
	CaptureNone    CaptureKind = ""
	CaptureRoot    CaptureKind = "root"
	CaptureChild   CaptureKind = "child"
	CaptureSibling CaptureKind = "sibling"
	CaptureEdit    CaptureKind = "edit"
	CaptureList    CaptureKind = "list"
)

type CaptureState struct {
	Kind     CaptureKind
	TargetID string
	Label    string
}

type Model struct {
	api *Client

	CurrentView View
	Lists       []model.List
	Tasks       []model.Task
	Timer       model.TimerSnapshot
	HasTimer    bool

	TasksCursor int
	ListsCursor int

	Palette     CommandPaletteState
	Capture     CaptureState
	HelpVisible bool
	Status      StatusBar
	Notice      string
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error

	// Bubble components used for rich TUI controls
	captureInput  textinput.Model
	commandInput  textinput.Model
	timerProgress progress.Model
	syncSpinner   spinner.Model
	helpModel     help.Model
	syncActive    bool

	pollEvery time.Duration
}

// RefreshMsg carries one poll's worth of server state. Timer is nil
// when the owner has no lists yet.
type RefreshMsg struct {
	Lists []model.List
	Tasks []model.Task
	Timer *model.TimerSnapshot
}

type PollTickMsg struct{}

type ActionMsg struct {
	Status string
}

type APIErrorMsg struct {
	Err error
}

func NewModel(api *Client) Model {
	m := Model{
		api:         api,
		CurrentView: ViewTasks,
		Keys: GlobalKeyMap{
			Tasks: "1",
			Lists: "2",
			Timer: "3",
			Help:  "?",
			Quit:  "q",
		},
		pollEvery: 2 * time.Second,
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.captureInput = textinput.New()
	m.captureInput.Prompt = "> "
	m.captureInput.CharLimit = 256
	m.captureInput.Width = 48

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.timerProgress = progress.New(progress.WithDefaultGradient())

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
}

func (m Model) activeList() (model.List, bool) {
	for _, l := range m.Lists {
		if l.Active {
			return l, true
		}
	}
	return model.List{}, false
}

func (m Model) selectedTask() (model.Task, bool) {
	if m.TasksCursor < 0 || m.TasksCursor >= len(m.Tasks) {
		return model.Task{}, false
	}
	return m.Tasks[m.TasksCursor], true
}

func (m Model) selectedList() (model.List, bool) {
	if m.ListsCursor < 0 || m.ListsCursor >= len(m.Lists) {
		return model.List{}, false
	}
	return m.Lists[m.ListsCursor], true
}

func (m Model) taskByID(id string) (model.Task, bool) {
	for _, t := range m.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// taskAtRow resolves the 1-based row numbers shown in the tasks panel.
func (m Model) taskAtRow(row int) (model.Task, bool) {
	if row < 1 || row > len(m.Tasks) {
		return model.Task{}, false
	}
	return m.Tasks[row-1], true
}

// Run starts the TUI against the given server.
func Run(baseURL, user string) error {
	p := tea.NewProgram(NewModel(NewClient(baseURL, user)), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

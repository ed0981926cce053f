// Package tui is the terminal browser: technologies, their devices and the
// selected device's definition, loaded through background tasks.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thenoetrevino/clexbrowser/internal/commands"
	"github.com/thenoetrevino/clexbrowser/internal/config"
	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/events"
	"github.com/thenoetrevino/clexbrowser/internal/history"
	"github.com/thenoetrevino/clexbrowser/internal/models"
	"github.com/thenoetrevino/clexbrowser/internal/tasks"
	"github.com/thenoetrevino/clexbrowser/internal/worker"
)

// Coordinator is the part of the task coordinator the browser drives
type Coordinator interface {
	Submit(task worker.Task) (worker.Handle, error)
	Cancel(h worker.Handle)
	Events() <-chan events.Event
}

// Store is what the browser's tasks and commands read and write
type Store interface {
	database.TechnologyReader
	database.DatasetLoader
	commands.Store
}

// Ingester rebuilds the dataset from the log on reload
type Ingester = tasks.Ingester

type pane int

const (
	paneTechnologies pane = iota
	paneDevices
	paneDefinition
	paneCount
)

// commandOp says what to do with the history when a run_command task completes
type commandOp int

const (
	opExecute commandOp = iota
	opUndo
	opRedo
)

type pendingCommand struct {
	cmd *history.Command
	op  commandOp
}

// Model represents the browser state. The history is owned by the model;
// every store access runs as a background task.
type Model struct {
	ctx         context.Context
	coordinator Coordinator
	store       Store
	history     *history.History
	ingester    Ingester
	logFile     string
	keys        config.KeyMappings
	styles      styles

	technologies   []*models.Technology
	devices        []*models.Device
	stats          *models.TechnologyStats
	definition     *tasks.DefinitionView
	definitionOnly bool

	focus     pane
	techIdx   int
	deviceIdx int
	scroll    int

	// latest handle per task kind; older results are ignored
	latest   map[string]worker.Handle
	commands map[worker.Handle]pendingCommand
	// set while an edit command is being built off the UI goroutine
	building bool

	active   worker.Handle
	percent  int
	status   string
	err      string
	spinner  spinner.Model
	progress progress.Model

	width, height int
	quitting      bool
}

// Deps groups what New needs
type Deps struct {
	Coordinator Coordinator
	Store       Store
	History     *history.History
	Ingester    Ingester
	LogFile     string
	Keys        config.KeyMappings
	Theme       config.Theme
}

// New creates the browser model
func New(ctx context.Context, deps Deps) *Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(30))

	keys := deps.Keys
	if keys == (config.KeyMappings{}) {
		keys = config.DefaultKeyMappings()
	}
	theme := deps.Theme
	theme.ApplyDefaults()

	return &Model{
		ctx:         ctx,
		coordinator: deps.Coordinator,
		store:       deps.Store,
		history:     deps.History,
		ingester:    deps.Ingester,
		logFile:     deps.LogFile,
		keys:        keys,
		styles:      newStyles(theme),
		latest:      make(map[string]worker.Handle),
		commands:    make(map[worker.Handle]pendingCommand),
		spinner:     s,
		progress:    bar,
		width:       100,
		height:      30,
	}
}

// Init starts listening for task events and loads the technologies
func (m *Model) Init() tea.Cmd {
	m.submitLoad(tasks.LoadTechnologies(m.store), tasks.KindLoadTechnologies)
	return tea.Batch(m.listen(), m.spinner.Tick)
}

func (m *Model) selectedTechnology() *models.Technology {
	if m.techIdx < 0 || m.techIdx >= len(m.technologies) {
		return nil
	}
	return m.technologies[m.techIdx]
}

func (m *Model) selectedDevice() *models.Device {
	if m.deviceIdx < 0 || m.deviceIdx >= len(m.devices) {
		return nil
	}
	return m.devices[m.deviceIdx]
}

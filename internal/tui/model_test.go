package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/clexbrowser/internal/config"
	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/events"
	"github.com/thenoetrevino/clexbrowser/internal/history"
	"github.com/thenoetrevino/clexbrowser/internal/models"
	"github.com/thenoetrevino/clexbrowser/internal/tasks"
	"github.com/thenoetrevino/clexbrowser/internal/testutil"
	"github.com/thenoetrevino/clexbrowser/internal/worker"
)

// ============================================================================
// Test Helpers
// ============================================================================

// fakeCoordinator records submissions without running anything
type fakeCoordinator struct {
	next      int
	submitted []string
	cancelled []worker.Handle
	stream    chan events.Event
}

func newFakeCoordinator() *fakeCoordinator {
	return &fakeCoordinator{stream: make(chan events.Event, 16)}
}

func (f *fakeCoordinator) Submit(task worker.Task) (worker.Handle, error) {
	f.next++
	f.submitted = append(f.submitted, task.Kind())
	return worker.Handle(fmt.Sprintf("h%d", f.next)), nil
}

func (f *fakeCoordinator) Cancel(h worker.Handle) {
	f.cancelled = append(f.cancelled, h)
}

func (f *fakeCoordinator) Events() <-chan events.Event {
	return f.stream
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, c Coordinator, store Store) *Model {
	t.Helper()
	return New(context.Background(), Deps{
		Coordinator: c,
		Store:       store,
		History:     history.New(),
		LogFile:     "output.log",
		Keys:        config.DefaultKeyMappings(),
		Theme:       config.DefaultTheme(),
	})
}

// newSeededModel runs the model against a real coordinator and a seeded store
func newSeededModel(t *testing.T) (*Model, *worker.Coordinator, *database.Store) {
	t.Helper()
	store := testutil.SetupTestStore(t)
	testutil.SeedDataset(t, store)

	c := worker.NewCoordinator(worker.WithLogger(slog.New(slog.DiscardHandler)))
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	m := newTestModel(t, c, store)
	m.Init()
	settle(t, m, c)
	return m, c, store
}

// settle feeds coordinator events to the model until nothing it cares
// about is in flight
func settle(t *testing.T, m *Model, c *worker.Coordinator) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for len(m.latest) > 0 || len(m.commands) > 0 {
		select {
		case e := <-c.Events():
			m.Update(eventMsg{Event: e})
		case <-deadline:
			t.Fatalf("model did not settle: latest=%v commands=%d", m.latest, len(m.commands))
		}
	}
}

func press(t *testing.T, m *Model, c *worker.Coordinator, s string) {
	t.Helper()
	_, cmd := m.Update(key(s))
	if cmd != nil {
		m.Update(cmd())
	}
	settle(t, m, c)
}

func selectTechnology(t *testing.T, m *Model, c *worker.Coordinator, name string) {
	t.Helper()
	m.focus = paneTechnologies
	for i, tech := range m.technologies {
		if tech.Name == name {
			for m.techIdx < i {
				press(t, m, c, m.keys.Down)
			}
			for m.techIdx > i {
				press(t, m, c, m.keys.Up)
			}
			return
		}
	}
	t.Fatalf("technology %s not loaded", name)
}

func selectDevice(t *testing.T, m *Model, c *worker.Coordinator, name string) {
	t.Helper()
	m.focus = paneDevices
	for i, dev := range m.devices {
		if dev.Name == name {
			for m.deviceIdx < i {
				press(t, m, c, m.keys.Down)
			}
			for m.deviceIdx > i {
				press(t, m, c, m.keys.Up)
			}
			return
		}
	}
	t.Fatalf("device %s not loaded", name)
}

// ============================================================================
// Loading
// ============================================================================

func TestInit_LoadsTechnologiesDevicesAndDefinition(t *testing.T) {
	m, _, _ := newSeededModel(t)

	require.Len(t, m.technologies, 2)
	assert.Equal(t, "gf22", m.technologies[0].Name)
	assert.Equal(t, "tsmc28", m.technologies[1].Name)

	require.Len(t, m.devices, 1)
	assert.Equal(t, "nfet", m.devices[0].Name)
	require.NotNil(t, m.definition)
	assert.False(t, m.definition.Found)
	assert.Empty(t, m.active)
}

func TestNavigation_LoadsSelectedDefinition(t *testing.T) {
	m, c, _ := newSeededModel(t)

	selectTechnology(t, m, c, "tsmc28")
	names := make([]string, 0, len(m.devices))
	for _, d := range m.devices {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"nch_lvt", "pch_lvt", "rppoly"}, names)
	require.NotNil(t, m.stats)
	assert.Equal(t, 2, m.stats.DevicesWithDefinition)

	selectDevice(t, m, c, "pch_lvt")
	require.NotNil(t, m.definition)
	assert.True(t, m.definition.Found)
	assert.Equal(t, "pch_lvt", m.definition.Device.Name)
	assert.Contains(t, m.definition.Body, "clexcw assert expr=id_sat < 1e-3")
	assert.NotContains(t, m.definition.Body, "Folder Path:")
}

func TestDefinitionOnlyToggle(t *testing.T) {
	m, c, _ := newSeededModel(t)
	selectTechnology(t, m, c, "tsmc28")

	press(t, m, c, m.keys.DefinitionOnly)
	assert.True(t, m.definitionOnly)
	assert.Len(t, m.devices, 2)

	press(t, m, c, m.keys.DefinitionOnly)
	assert.Len(t, m.devices, 3)
}

// ============================================================================
// Delete, undo and redo
// ============================================================================

func TestDeleteUndoRedo(t *testing.T) {
	m, c, store := newSeededModel(t)
	ctx := context.Background()
	selectTechnology(t, m, c, "tsmc28")
	selectDevice(t, m, c, "nch_lvt")
	dev := m.selectedDevice()
	original, err := store.GetDefinition(ctx, dev.ID)
	require.NoError(t, err)
	require.NotNil(t, original)

	press(t, m, c, m.keys.DeleteDefinition)
	def, err := store.GetDefinition(ctx, dev.ID)
	require.NoError(t, err)
	assert.Nil(t, def)
	assert.True(t, m.history.CanUndo())
	assert.Equal(t, "Undo: Delete definition: nch_lvt", m.history.UndoText())
	assert.False(t, m.selectedDevice().HasDefinition)
	assert.False(t, m.definition.Found)

	press(t, m, c, m.keys.Undo)
	def, err = store.GetDefinition(ctx, dev.ID)
	require.NoError(t, err)
	assert.Equal(t, original, def)
	assert.False(t, m.history.CanUndo())
	assert.True(t, m.history.CanRedo())
	assert.True(t, m.definition.Found)

	press(t, m, c, m.keys.Redo)
	def, err = store.GetDefinition(ctx, dev.ID)
	require.NoError(t, err)
	assert.Nil(t, def)
	assert.True(t, m.history.CanUndo())
	assert.False(t, m.history.CanRedo())
}

func TestDelete_NoDefinition(t *testing.T) {
	m, c, _ := newSeededModel(t)
	selectTechnology(t, m, c, "tsmc28")
	selectDevice(t, m, c, "rppoly")

	_, cmd := m.Update(key(m.keys.DeleteDefinition))
	assert.Nil(t, cmd)
	assert.Equal(t, "No definition to delete", m.status)
	assert.False(t, m.history.CanUndo())
}

func TestUndo_EmptyHistory(t *testing.T) {
	m := newTestModel(t, newFakeCoordinator(), testutil.SetupTestStore(t))

	m.Update(key(m.keys.Undo))
	assert.Equal(t, "Nothing to undo", m.status)
	m.Update(key(m.keys.Redo))
	assert.Equal(t, "Nothing to redo", m.status)
}

func TestUndo_WaitsForRunningCommand(t *testing.T) {
	fc := newFakeCoordinator()
	m := newTestModel(t, fc, testutil.SetupTestStore(t))
	cmd := history.NewCommand("Edit", func(context.Context) error { return nil }, func(context.Context) error { return nil })
	require.NoError(t, m.history.Record(cmd))

	m.Update(key(m.keys.Undo))
	require.Equal(t, []string{tasks.KindRunCommand}, fc.submitted)

	m.Update(key(m.keys.Undo))
	assert.Equal(t, "Waiting for the previous edit", m.status)
	assert.Len(t, fc.submitted, 1)
}

func TestUndo_WaitsForCommandBeingBuilt(t *testing.T) {
	fc := newFakeCoordinator()
	m := newTestModel(t, fc, testutil.SetupTestStore(t))
	m.technologies = []*models.Technology{{ID: 1, Name: "tsmc28"}}
	m.devices = []*models.Device{{ID: 7, Name: "nch_lvt", TechnologyID: 1, HasDefinition: true}}
	m.focus = paneDevices
	edit := history.NewCommand("Edit", func(context.Context) error { return nil }, func(context.Context) error { return nil })
	require.NoError(t, m.history.Record(edit))

	_, build := m.Update(key(m.keys.DeleteDefinition))
	require.NotNil(t, build)

	m.Update(key(m.keys.Undo))
	m.Update(key(m.keys.Redo))
	assert.Equal(t, "Waiting for the previous edit", m.status)
	assert.Empty(t, fc.submitted)

	deleted := history.NewCommand("Delete definition: nch_lvt", func(context.Context) error { return nil }, func(context.Context) error { return nil })
	m.Update(commandBuiltMsg{Command: deleted})
	assert.Equal(t, []string{tasks.KindRunCommand}, fc.submitted)
	assert.True(t, m.commandRunning())

	_, build = m.Update(key(m.keys.DeleteDefinition))
	assert.Nil(t, build)
}

func TestCommandBuildError_ReleasesEdits(t *testing.T) {
	fc := newFakeCoordinator()
	m := newTestModel(t, fc, testutil.SetupTestStore(t))
	m.devices = []*models.Device{{ID: 7, Name: "nch_lvt", HasDefinition: true}}

	_, build := m.Update(key(m.keys.DeleteDefinition))
	require.NotNil(t, build)
	m.Update(commandBuiltMsg{Err: assert.AnError})

	assert.Equal(t, assert.AnError.Error(), m.err)
	assert.False(t, m.commandRunning())
	assert.Empty(t, fc.submitted)
}

func TestFailedCommand_LeavesHistory(t *testing.T) {
	fc := newFakeCoordinator()
	m := newTestModel(t, fc, testutil.SetupTestStore(t))
	cmd := history.NewCommand("Edit", func(context.Context) error { return nil }, func(context.Context) error { return nil })
	require.NoError(t, m.history.Record(cmd))

	m.Update(key(m.keys.Undo))
	h := m.active
	m.Update(eventMsg{Event: events.Event{Type: events.EventError, Handle: h, Kind: tasks.KindRunCommand, Err: assert.AnError}})

	assert.True(t, m.history.CanUndo())
	assert.Equal(t, assert.AnError.Error(), m.err)
	assert.Empty(t, m.commands)
}

// ============================================================================
// Events
// ============================================================================

func TestStaleResultsIgnored(t *testing.T) {
	fc := newFakeCoordinator()
	m := newTestModel(t, fc, testutil.SetupTestStore(t))
	m.technologies = []*models.Technology{{ID: 1, Name: "tsmc28"}, {ID: 2, Name: "gf22"}}

	m.loadDevices()
	first := m.latest[tasks.KindLoadDevices]
	m.loadDevices()
	second := m.latest[tasks.KindLoadDevices]
	assert.Equal(t, []worker.Handle{first}, fc.cancelled)

	m.Update(eventMsg{Event: events.Event{
		Type: events.EventResult, Handle: first, Kind: tasks.KindLoadDevices,
		Payload: tasks.DevicesPayload{TechnologyID: 1, Devices: []*models.Device{{ID: 9, Name: "old"}}},
	}})
	assert.Empty(t, m.devices)

	// a result for a technology that is no longer selected
	m.Update(eventMsg{Event: events.Event{
		Type: events.EventResult, Handle: second, Kind: tasks.KindLoadDevices,
		Payload: tasks.DevicesPayload{TechnologyID: 2, Devices: []*models.Device{{ID: 3, Name: "nfet"}}},
	}})
	assert.Empty(t, m.devices)
}

func TestProgressAndStatusFollowActiveTask(t *testing.T) {
	fc := newFakeCoordinator()
	m := newTestModel(t, fc, testutil.SetupTestStore(t))
	m.Init()
	h := m.active
	require.NotEmpty(t, h)

	m.Update(eventMsg{Event: events.Event{Type: events.EventProgress, Handle: h, Progress: 40}})
	m.Update(eventMsg{Event: events.Event{Type: events.EventStatus, Handle: h, Message: "Loading technologies..."}})
	m.Update(eventMsg{Event: events.Event{Type: events.EventProgress, Handle: "other", Progress: 90}})
	assert.Equal(t, 40, m.percent)
	assert.Equal(t, "Loading technologies...", m.status)

	m.Update(eventMsg{Event: events.Event{Type: events.EventCancelled, Handle: h, Kind: tasks.KindLoadTechnologies}})
	assert.Empty(t, m.active)
	assert.Equal(t, "Cancelled", m.status)
}

func TestCancelKey(t *testing.T) {
	fc := newFakeCoordinator()
	m := newTestModel(t, fc, testutil.SetupTestStore(t))

	m.Update(key(m.keys.CancelTask))
	assert.Empty(t, fc.cancelled)

	m.Init()
	h := m.active
	m.Update(key(m.keys.CancelTask))
	assert.Equal(t, []worker.Handle{h}, fc.cancelled)
}

func TestRefreshResult_ClearsHistory(t *testing.T) {
	fc := newFakeCoordinator()
	m := newTestModel(t, fc, testutil.SetupTestStore(t))
	m.ingester = stubIngester{}
	cmd := history.NewCommand("Edit", func(context.Context) error { return nil }, func(context.Context) error { return nil })
	require.NoError(t, m.history.Record(cmd))

	m.Update(key(m.keys.Reload))
	h := m.latest[tasks.KindRefreshDatabase]
	require.NotEmpty(t, h)

	m.Update(eventMsg{Event: events.Event{
		Type: events.EventResult, Handle: h, Kind: tasks.KindRefreshDatabase,
		Payload: database.LoadSummary{Technologies: 2, Devices: 5, Definitions: 2},
	}})
	assert.Equal(t, 0, m.history.Len())
	assert.Equal(t, "Loaded 2 technologies, 5 devices, 2 definitions", m.status)
	assert.Equal(t, tasks.KindLoadTechnologies, fc.submitted[len(fc.submitted)-1])
}

func TestReload_WithoutIngester(t *testing.T) {
	fc := newFakeCoordinator()
	m := newTestModel(t, fc, testutil.SetupTestStore(t))

	m.Update(key(m.keys.Reload))
	assert.Empty(t, fc.submitted)
	assert.Equal(t, "Reload unavailable", m.status)
}

type stubIngester struct{}

func (stubIngester) ParseFile(context.Context, string) (*models.Dataset, error) {
	return testutil.FixtureDataset(), nil
}

// ============================================================================
// Keys and view
// ============================================================================

func TestQuit(t *testing.T) {
	m := newTestModel(t, newFakeCoordinator(), testutil.SetupTestStore(t))

	_, cmd := m.Update(key(m.keys.Quit))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestPaneSwitching(t *testing.T) {
	m := newTestModel(t, newFakeCoordinator(), testutil.SetupTestStore(t))

	m.Update(key(m.keys.NextPane))
	assert.Equal(t, paneDevices, m.focus)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, paneDefinition, m.focus)
	m.Update(key(m.keys.NextPane))
	assert.Equal(t, paneTechnologies, m.focus)
	m.Update(key(m.keys.PrevPane))
	assert.Equal(t, paneDefinition, m.focus)
}

func TestView(t *testing.T) {
	m, c, _ := newSeededModel(t)
	selectTechnology(t, m, c, "tsmc28")
	selectDevice(t, m, c, "nch_lvt")
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})

	out := m.View()
	for _, want := range []string{"Technologies", "tsmc28 v1.2", "gf22", "nch_lvt", "Device: nch_lvt", "Undo"} {
		assert.True(t, strings.Contains(out, want), "view missing %q", want)
	}
}

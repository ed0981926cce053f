package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/clexbrowser/internal/commands"
	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/history"
	"github.com/thenoetrevino/clexbrowser/internal/models"
	"github.com/thenoetrevino/clexbrowser/internal/testutil"
)

// ============================================================================
// Test Helpers
// ============================================================================

type recorder struct {
	mu       sync.Mutex
	progress []int
	status   []string
}

func (r *recorder) Progress(p int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recorder) Status(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = append(r.status, s)
}

func (r *recorder) last() int {
	if len(r.progress) == 0 {
		return -1
	}
	return r.progress[len(r.progress)-1]
}

func seeded(t *testing.T) *database.Store {
	t.Helper()
	store := testutil.SetupTestStore(t)
	testutil.SeedDataset(t, store)
	return store
}

func cancelled() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// ============================================================================
// Load Tasks
// ============================================================================

func TestLoadTechnologies(t *testing.T) {
	store := seeded(t)
	r := &recorder{}

	payload, err := LoadTechnologies(store).Run(context.Background(), r)
	require.NoError(t, err)

	techs := payload.([]*models.Technology)
	require.Len(t, techs, 2)
	assert.Equal(t, "gf22", techs[0].Name)
	assert.Equal(t, "tsmc28", techs[1].Name)
	assert.Equal(t, 100, r.last())
	assert.Equal(t, "Loaded 2 technologies", r.status[len(r.status)-1])
}

func TestLoadDevices(t *testing.T) {
	store := seeded(t)
	tech := testutil.MustTechnology(t, store, "tsmc28")

	payload, err := LoadDevices(store, tech.ID, false).Run(context.Background(), &recorder{})
	require.NoError(t, err)
	devices := payload.(DevicesPayload)
	assert.Equal(t, tech.ID, devices.TechnologyID)
	assert.Len(t, devices.Devices, 3)
	assert.Equal(t, 3, devices.Stats.TotalDevices)
	assert.Equal(t, 2, devices.Stats.DevicesWithDefinition)

	payload, err = LoadDevices(store, tech.ID, true).Run(context.Background(), &recorder{})
	require.NoError(t, err)
	assert.Len(t, payload.(DevicesPayload).Devices, 2)
}

func TestLoadDefinition(t *testing.T) {
	store := seeded(t)
	nch := testutil.MustDevice(t, store, "tsmc28", "nch_lvt")

	payload, err := LoadDefinition(store, nch.ID).Run(context.Background(), &recorder{})
	require.NoError(t, err)

	view := payload.(DefinitionView)
	assert.True(t, view.Found)
	assert.Equal(t, "Device: nch_lvt\nFolder: /pdk/tsmc28/v1.2/models/spectre\nFile: nch_lvt.scs", view.Header)
	assert.Equal(t, "inline subckt nch_lvt\nclexvw assert expr=vth > 0.25", view.Body)

	rp := testutil.MustDevice(t, store, "tsmc28", "rppoly")
	payload, err = LoadDefinition(store, rp.ID).Run(context.Background(), &recorder{})
	require.NoError(t, err)
	view = payload.(DefinitionView)
	assert.False(t, view.Found)
	assert.Empty(t, view.Body)
	assert.Equal(t, "rppoly", view.Device.Name)

	_, err = LoadDefinition(store, 9999).Run(context.Background(), &recorder{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLoadStatistics(t *testing.T) {
	store := seeded(t)
	r := &recorder{}

	payload, err := LoadStatistics(store).Run(context.Background(), r)
	require.NoError(t, err)

	summaries := payload.([]TechnologySummary)
	require.Len(t, summaries, 2)
	assert.Equal(t, "gf22", summaries[0].Technology.Name)
	assert.Equal(t, 1, summaries[0].Stats.TotalDevices)
	assert.Equal(t, 0, summaries[0].Stats.DevicesWithDefinition)
	assert.Equal(t, []int{50, 100, 100}, r.progress)
}

func TestLoadTasks_HonourCancellation(t *testing.T) {
	store := seeded(t)
	tech := testutil.MustTechnology(t, store, "tsmc28")
	nch := testutil.MustDevice(t, store, "tsmc28", "nch_lvt")

	runs := map[string]func(ctx context.Context) error{
		"technologies": func(ctx context.Context) error {
			_, err := LoadTechnologies(store).Run(ctx, &recorder{})
			return err
		},
		"devices": func(ctx context.Context) error {
			_, err := LoadDevices(store, tech.ID, false).Run(ctx, &recorder{})
			return err
		},
		"definition": func(ctx context.Context) error {
			_, err := LoadDefinition(store, nch.ID).Run(ctx, &recorder{})
			return err
		},
		"statistics": func(ctx context.Context) error {
			_, err := LoadStatistics(store).Run(ctx, &recorder{})
			return err
		},
		"search": func(ctx context.Context) error {
			_, err := Search(store, models.SearchQuery{Text: "lvt", Devices: true}).Run(ctx, &recorder{})
			return err
		},
	}

	for name, run := range runs {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.Is(run(cancelled()), context.Canceled))
		})
	}
}

// ============================================================================
// Search
// ============================================================================

func TestSearch_DeviceHitsFirst(t *testing.T) {
	store := seeded(t)

	payload, err := Search(store, models.SearchQuery{Text: "lvt", Devices: true, Definitions: true}).
		Run(context.Background(), &recorder{})
	require.NoError(t, err)

	hits := payload.(SearchPayload).Hits
	require.Len(t, hits, 4)
	assert.Equal(t, models.MatchDeviceName, hits[0].Kind)
	assert.Equal(t, "nch_lvt", hits[0].DeviceName)
	assert.Equal(t, models.MatchDeviceName, hits[1].Kind)
	assert.Equal(t, models.MatchDefinition, hits[2].Kind)
	assert.Equal(t, "inline subckt nch_lvt", hits[2].Context)
	assert.Equal(t, models.MatchDefinition, hits[3].Kind)
}

func TestSearch_EmptyAndScoped(t *testing.T) {
	store := seeded(t)

	payload, err := Search(store, models.SearchQuery{Devices: true}).Run(context.Background(), &recorder{})
	require.NoError(t, err)
	assert.Empty(t, payload.(SearchPayload).Hits)

	payload, err = Search(store, models.SearchQuery{Text: "assert", Definitions: true}).
		Run(context.Background(), &recorder{})
	require.NoError(t, err)
	hits := payload.(SearchPayload).Hits
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, models.MatchDefinition, h.Kind)
	}
}

// ============================================================================
// Create / Refresh
// ============================================================================

type fakeIngester struct {
	ds    *models.Dataset
	err   error
	calls int
}

func (f *fakeIngester) ParseFile(ctx context.Context, path string) (*models.Dataset, error) {
	f.calls++
	return f.ds, f.err
}

func TestCreateOrRefreshDatabase(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ing := &fakeIngester{ds: testutil.FixtureDataset()}
	r := &recorder{}

	payload, err := CreateOrRefreshDatabase(ing, store, "output.log", false).Run(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, database.LoadSummary{Technologies: 2, Devices: 4, Definitions: 2}, payload)
	assert.Equal(t, []int{10, 30, 60, 80, 89, 99, 100}, r.progress)
	assert.Equal(t, "Database created successfully!", r.status[len(r.status)-1])

	// already loaded: nothing parsed
	payload, err = CreateOrRefreshDatabase(ing, store, "output.log", false).Run(context.Background(), &recorder{})
	require.NoError(t, err)
	assert.Equal(t, database.LoadSummary{}, payload)
	assert.Equal(t, 1, ing.calls)

	// refresh always reloads
	_, err = CreateOrRefreshDatabase(ing, store, "output.log", true).Run(context.Background(), &recorder{})
	require.NoError(t, err)
	assert.Equal(t, 2, ing.calls)
}

func TestCreateOrRefreshDatabase_Errors(t *testing.T) {
	store := seeded(t)
	boom := errors.New("unreadable")

	_, err := CreateOrRefreshDatabase(&fakeIngester{err: boom}, store, "output.log", true).
		Run(context.Background(), &recorder{})
	assert.ErrorIs(t, err, boom)

	_, err = CreateOrRefreshDatabase(&fakeIngester{ds: testutil.FixtureDataset()}, store, "output.log", true).
		Run(cancelled(), &recorder{})
	assert.True(t, errors.Is(err, context.Canceled))

	// the previous dataset survives both failures
	assert.Len(t, testutil.DumpDefinitions(t, store), 2)
}

// ============================================================================
// Bulk Delete
// ============================================================================

func largeDataset(n int) *models.Dataset {
	rec := models.TechnologyRecord{Name: "big", Version: "1", Path: "/pdk/big/v1"}
	ds := &models.Dataset{}
	for i := range n {
		name := fmt.Sprintf("dev%03d", i)
		rec.Devices = append(rec.Devices, name)
		ds.Definitions = append(ds.Definitions, models.DefinitionRecord{
			TechnologyName: "big",
			DeviceName:     name,
			FolderPath:     "/pdk/big/v1/models",
			FileName:       name + ".scs",
			Text:           "inline subckt " + name + "\nclex assert expr=1",
		})
	}
	ds.Technologies = []models.TechnologyRecord{rec}
	return ds
}

func allDeviceIDs(t *testing.T, store *database.Store) []int {
	t.Helper()
	var ids []int
	for id := range testutil.DumpDevices(t, store) {
		ids = append(ids, id)
	}
	return ids
}

func TestBulkDeleteDefinitions_Batches(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestStore(t)
	_, err := store.ReplaceAll(ctx, largeDataset(120), nil)
	require.NoError(t, err)
	r := &recorder{}

	payload, err := BulkDeleteDefinitions(store, allDeviceIDs(t, store)).Run(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, BulkDeleteResult{Requested: 120, Deleted: 120}, payload)
	assert.Equal(t, []int{41, 83, 100}, r.progress)
	assert.Empty(t, testutil.DumpDefinitions(t, store))
}

// cancellingDeleter cancels the task's context after the first batch
type cancellingDeleter struct {
	inner  BulkDeleter
	cancel context.CancelFunc
	calls  int
}

func (d *cancellingDeleter) DeleteDefinitions(ctx context.Context, ids []int) ([]*models.Definition, error) {
	d.calls++
	deleted, err := d.inner.DeleteDefinitions(ctx, ids)
	d.cancel()
	return deleted, err
}

func TestBulkDeleteDefinitions_CancelKeepsCommittedBatches(t *testing.T) {
	store := testutil.SetupTestStore(t)
	_, err := store.ReplaceAll(context.Background(), largeDataset(120), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	deleter := &cancellingDeleter{inner: store, cancel: cancel}

	_, err = BulkDeleteDefinitions(deleter, allDeviceIDs(t, store)).Run(ctx, &recorder{})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, deleter.calls)
	assert.Len(t, testutil.DumpDefinitions(t, store), 70)
}

func TestBulkDeleteDefinitions_Empty(t *testing.T) {
	store := seeded(t)

	payload, err := BulkDeleteDefinitions(store, nil).Run(context.Background(), &recorder{})
	require.NoError(t, err)
	assert.Equal(t, BulkDeleteResult{}, payload)
}

// ============================================================================
// Run Command
// ============================================================================

func TestRunCommand_ForwardThenInverse(t *testing.T) {
	ctx := context.Background()
	store := seeded(t)
	rp := testutil.MustDevice(t, store, "tsmc28", "rppoly")

	cmd, err := commands.AddDefinition(ctx, store, rp.ID, &models.Definition{Text: "clex assert expr=r"})
	require.NoError(t, err)

	payload, err := RunCommand(cmd, Forward).Run(ctx, &recorder{})
	require.NoError(t, err)
	assert.Equal(t, CommandResult{Command: cmd, Direction: Forward}, payload)

	def, err := store.GetDefinition(ctx, rp.ID)
	require.NoError(t, err)
	require.NotNil(t, def)

	h := history.New()
	require.NoError(t, h.Record(cmd))

	_, err = RunCommand(cmd, Inverse).Run(ctx, &recorder{})
	require.NoError(t, err)
	require.NoError(t, h.MarkUndone(cmd))

	def, err = store.GetDefinition(ctx, rp.ID)
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestRunCommand_Failures(t *testing.T) {
	_, err := RunCommand(nil, Forward).Run(context.Background(), &recorder{})
	assert.ErrorIs(t, err, history.ErrNilCommand)

	boom := errors.New("boom")
	cmd := history.NewCommand("explode",
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error { return boom },
	)
	_, err = RunCommand(cmd, Inverse).Run(context.Background(), &recorder{})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "explode (inverse)")
}

package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

var testNow = time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC)

// setupTestStore opens a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), DialectSQLite,
		filepath.Join(t.TempDir(), "outages.db"),
		WithClock(clockwork.NewFakeClockAt(testNow)))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func testOutage(hash string) domain.Outage {
	return domain.Outage{
		District:     "Central District",
		Resource:     "Electricity",
		Organization: "GridCo",
		Phone:        "8 (3532) 44-55-66",
		Addresses: []domain.AddressBlock{
			{Street: "Lenina", Houses: []string{"10", "12"}},
			{Street: "Pushkina", Houses: []string{}},
		},
		Reason:      "planned",
		StartTime:   "09:00",
		EndTime:     "13:00",
		ContentHash: hash,
	}
}

func TestOpen_UnsupportedDialect(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	require.Error(t, err)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outages.db")

	first, err := Open(context.Background(), DialectSQLite, path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), DialectSQLite, path)
	require.NoError(t, err)
	defer second.Close()

	var version int
	require.NoError(t, second.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestSaveOutages_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	res, err := store.SaveOutages(ctx, []domain.Outage{testOutage("h1")})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].Created)
	assert.NotZero(t, res[0].Outage.ID)

	pending, err := store.UnnotifiedOutages(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	want := testOutage("h1")
	want.ID = res[0].Outage.ID
	want.CreatedAt = testNow
	assert.Equal(t, want, pending[0])
}

func TestSaveOutages_ExistingHashReturnsStoredRow(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.SaveOutages(ctx, []domain.Outage{testOutage("h1")})
	require.NoError(t, err)

	changed := testOutage("h1")
	changed.Reason = "ignored because the hash is known"
	second, err := store.SaveOutages(ctx, []domain.Outage{changed, testOutage("h2")})
	require.NoError(t, err)
	require.Len(t, second, 2)

	assert.False(t, second[0].Created)
	assert.Equal(t, first[0].Outage.ID, second[0].Outage.ID)
	assert.Equal(t, "planned", second[0].Outage.Reason)
	assert.True(t, second[1].Created)

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Outages)
	assert.Equal(t, 3, st.Ingested)
	assert.Equal(t, 1, st.DuplicatesPrevented)
	assert.InDelta(t, 33.33, st.DuplicatePercentage, 0.001)
}

func TestSaveOutages_RejectsMissingHash(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.SaveOutages(context.Background(), []domain.Outage{testOutage("")})
	require.ErrorIs(t, err, domain.ErrPersistence)
}

func TestMarkNotified(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	res, err := store.SaveOutages(ctx, []domain.Outage{testOutage("a"), testOutage("b"), testOutage("c")})
	require.NoError(t, err)

	require.NoError(t, store.MarkNotified(ctx, []int64{res[0].Outage.ID, res[2].Outage.ID}))
	require.NoError(t, store.MarkNotified(ctx, nil))

	pending, err := store.UnnotifiedOutages(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ContentHash)
}

func TestGroups(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertGroup(ctx, domain.Group{GroupID: "-100", Name: "Lenina residents", Addresses: []string{"Lenina 10"}, IsActive: true}))
	require.NoError(t, store.UpsertGroup(ctx, domain.Group{GroupID: "-200", Name: "All", IsActive: true}))
	require.NoError(t, store.UpsertGroup(ctx, domain.Group{GroupID: "-300", Name: "Paused", IsActive: false}))
	require.Error(t, store.UpsertGroup(ctx, domain.Group{Name: "no id"}))

	active, err := store.ActiveGroups(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "-100", active[0].GroupID)
	assert.Equal(t, []string{"Lenina 10"}, active[0].Addresses)
	assert.True(t, active[1].Unfiltered())

	byID, err := store.GroupsByIDs(ctx, []string{"-300", "-200", "-100", "-999"})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, "-200", byID[0].GroupID)
	assert.Equal(t, "-100", byID[1].GroupID)

	require.NoError(t, store.UpsertGroup(ctx, domain.Group{GroupID: "-100", Name: "renamed", IsActive: false}))
	active, err = store.ActiveGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestTasks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.TaskByID(ctx, 7)
	require.ErrorIs(t, err, domain.ErrNotFound)

	task := domain.Task{
		ID:           7,
		Name:         "outages every 15 minutes",
		Kinds:        []string{"outages_check"},
		Interval:     domain.Interval{Type: domain.IntervalMinutely, Value: 15},
		TargetGroups: []string{"-100"},
		IsActive:     true,
	}
	require.NoError(t, store.UpsertTask(ctx, task))
	require.NoError(t, store.UpdateTaskLastRun(ctx, 7, testNow))

	task.Name = "renamed"
	require.NoError(t, store.UpsertTask(ctx, task))

	got, err := store.TaskByID(ctx, 7)
	require.NoError(t, err)
	task.LastRun = testNow
	assert.Equal(t, task, got)

	tasks, err := store.ActiveTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	require.ErrorIs(t, store.UpdateTaskLastRun(ctx, 8, testNow), domain.ErrNotFound)
	require.Error(t, store.UpsertTask(ctx, domain.Task{}))
}

func TestNotifications(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, g := range []string{"-100", "-200", "-100"} {
		n, err := store.RecordNotification(ctx, domain.Notification{
			EventType: domain.EventTypeOutage,
			EventID:   "run-1",
			GroupID:   g,
			Message:   "outage digest",
		})
		require.NoError(t, err)
		assert.NotZero(t, n.ID)
		assert.Equal(t, testNow, n.SentAt)
	}

	all, err := store.RecentNotifications(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Greater(t, all[0].ID, all[1].ID)

	forGroup, err := store.RecentNotifications(ctx, 1, "-100")
	require.NoError(t, err)
	require.Len(t, forGroup, 1)
	assert.Equal(t, all[0].ID, forGroup[0].ID)

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Notifications)
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: DialectPostgres}
	lite := &Store{dialect: DialectSQLite}
	query := "SELECT * FROM t WHERE a = ? AND b IN (?, ?)"

	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)", pg.rebind(query))
	assert.Equal(t, query, lite.rebind(query))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

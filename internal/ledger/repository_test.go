package ledger

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/store"
)

func newTestRepo(t *testing.T) (*Repository, store.Store) {
	t.Helper()
	s := store.NewMemory()
	n := 0
	repo := New(s, zap.NewNop(),
		WithClock(func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return repo, s
}

func TestAddRoomIgnoresBlankNames(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepo(t)

	rooms, err := repo.AddRoom(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, rooms)

	_, err = s.Get(ctx, KeyRooms)
	assert.ErrorIs(t, err, store.ErrNotFound, "blank add must not write")
}

func TestAddRoomKeepsNameAndDuplicates(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, err := repo.AddRoom(ctx, " Room 1 ")
	require.NoError(t, err)
	rooms, err := repo.AddRoom(ctx, " Room 1 ")
	require.NoError(t, err)
	assert.Equal(t, []string{" Room 1 ", " Room 1 "}, rooms)
}

func TestAddRemoveReplay(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	ops := []struct {
		add  bool
		name string
	}{
		{true, "A"}, {true, "B"}, {true, "A"}, {false, "A"}, {true, "C"}, {false, "Z"}, {false, "B"},
	}

	var want []string
	for _, op := range ops {
		if op.add {
			_, err := repo.AddRoom(ctx, op.name)
			require.NoError(t, err)
			want = append(want, op.name)
			continue
		}
		_, err := repo.RemoveRoomAndBudget(ctx, op.name)
		require.NoError(t, err)
		for i, r := range want {
			if r == op.name {
				want = append(want[:i], want[i+1:]...)
				break
			}
		}
	}

	got, err := repo.ListRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"A", "C"}, got)
}

func TestRemoveRoomCascadesToBudget(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepo(t)

	_, err := repo.AddRoom(ctx, "A")
	require.NoError(t, err)
	_, err = repo.AddRoom(ctx, "B")
	require.NoError(t, err)

	session, err := repo.LoadBudgets(ctx)
	require.NoError(t, err)
	session.SetAmount("A", "5")
	session.SetAmount("B", "7")
	require.NoError(t, session.Persist(ctx))

	rooms, err := repo.RemoveRoomAndBudget(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, rooms)

	raw, err := s.Get(ctx, KeyBudgets)
	require.NoError(t, err)
	assert.JSONEq(t, `{"B":"7"}`, raw)
}

func TestRemoveRoomWithoutBudgetsLeavesKeyAbsent(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepo(t)

	_, err := repo.AddRoom(ctx, "A")
	require.NoError(t, err)
	_, err = repo.RemoveRoomAndBudget(ctx, "A")
	require.NoError(t, err)

	_, err = s.Get(ctx, KeyBudgets)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBudgetSessionSetAmountIsInMemory(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepo(t)

	session, err := repo.LoadBudgets(ctx)
	require.NoError(t, err)
	session.SetAmount("A", "10")
	assert.Equal(t, "10", session.Amount("A"))

	_, err = s.Get(ctx, KeyBudgets)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, session.Persist(ctx))
	reloaded, err := repo.LoadBudgets(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", reloaded.Amount("A"))
}

func TestStoredJSONKeepsMarkupCharacters(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepo(t)

	_, err := repo.AddRoom(ctx, "<x>")
	require.NoError(t, err)
	session, err := repo.LoadBudgets(ctx)
	require.NoError(t, err)
	session.SetAmount("<x>", "1&2")
	require.NoError(t, session.Persist(ctx))

	raw, err := s.Get(ctx, KeyRooms)
	require.NoError(t, err)
	assert.Equal(t, `["<x>"]`, raw)
	raw, err = s.Get(ctx, KeyBudgets)
	require.NoError(t, err)
	assert.Equal(t, `{"<x>":"1&2"}`, raw)
}

func TestSetBudgetRejectsUnknownRoom(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepo(t)

	_, err := repo.SetBudget(ctx, "Ghost", "10")
	assert.ErrorIs(t, err, ErrUnknownRoom)
	_, err = s.Get(ctx, KeyBudgets)
	assert.ErrorIs(t, err, store.ErrNotFound, "rejected set must not write")

	_, err = repo.AddRoom(ctx, "A")
	require.NoError(t, err)
	_, err = repo.AddRoom(ctx, "B")
	require.NoError(t, err)
	_, err = repo.SetBudget(ctx, "B", "4")
	require.NoError(t, err)
	session, err := repo.SetBudget(ctx, "A", "10")
	require.NoError(t, err)
	assert.InDelta(t, 14, session.Total(), 1e-9)

	reloaded, err := repo.LoadBudgets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.BudgetEntry{{Room: "B", Amount: "4"}, {Room: "A", Amount: "10"}}, reloaded.Entries())
}

func TestClearAllRemovesBudgetsAndLegacyTotal(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepo(t)
	require.NoError(t, s.Set(ctx, KeyDailyTotal, "99"))

	session, err := repo.LoadBudgets(ctx)
	require.NoError(t, err)
	session.SetAmount("A", "10")
	require.NoError(t, session.Persist(ctx))

	require.NoError(t, session.ClearAll(ctx))
	assert.Empty(t, session.Entries())
	assert.Zero(t, session.Total())

	_, err = s.Get(ctx, KeyBudgets)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Get(ctx, KeyDailyTotal)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCalculateAndRecord(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepo(t)

	session, err := repo.LoadBudgets(ctx)
	require.NoError(t, err)
	session.SetAmount("A", "10")
	session.SetAmount("B", "")
	session.SetAmount("C", "abc")
	session.SetAmount("D", "5.5")

	rec, err := repo.CalculateAndRecord(ctx, session, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, model.CalculationRecord{Total: 15.5, Date: "2025-01-05", ID: "id-1"}, rec)

	// Budgets were persisted alongside the record.
	raw, err := s.Get(ctx, KeyBudgets)
	require.NoError(t, err)
	assert.Equal(t, `{"A":"10","B":"","C":"abc","D":"5.5"}`, raw)

	// Zero day falls back to the clock.
	rec, err = repo.CalculateAndRecord(ctx, session, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", rec.Date)

	records, err := repo.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, err := repo.Append(ctx, 10, "2025-01-05")
	require.NoError(t, err)
	_, err = repo.Append(ctx, 7, "2025-02-01")
	require.NoError(t, err)

	// A second repository over the same store sees the same data.
	other := New(repo.store, nil)
	records, err := other.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.CalculationRecord{
		{Total: 10, Date: "2025-01-05", ID: "id-1"},
		{Total: 7, Date: "2025-02-01", ID: "id-2"},
	}, records)
}

func TestListSortsStablyByDate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	for _, r := range []struct {
		total float64
		date  string
	}{
		{5, "2025-02-01"}, {1, "2025-01-05"}, {2, "2025-01-05"}, {3, "2024-12-31"},
	} {
		_, err := repo.Append(ctx, r.total, r.date)
		require.NoError(t, err)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	var totals []float64
	for _, rec := range list {
		totals = append(totals, rec.Total)
	}
	assert.Equal(t, []float64{3, 1, 2, 5}, totals)
}

func TestRemoveFirstMatchOnly(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, err := repo.Append(ctx, 10, "2025-01-05")
	require.NoError(t, err)
	_, err = repo.Append(ctx, 10, "2025-01-05")
	require.NoError(t, err)
	_, err = repo.Append(ctx, 7, "2025-01-05")
	require.NoError(t, err)

	removed, err := repo.Remove(ctx, "2025-01-05", 10)
	require.NoError(t, err)
	assert.True(t, removed)

	records, err := repo.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "id-2", records[0].ID)
	assert.Equal(t, "id-3", records[1].ID)

	removed, err = repo.Remove(ctx, "2025-01-06", 10)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestUpdateAtUsesSortedIndex(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, err := repo.Append(ctx, 7, "2025-02-01")
	require.NoError(t, err)
	_, err = repo.Append(ctx, 10, "2025-01-05")
	require.NoError(t, err)

	// Index 0 of the sorted list is the January record (stored second).
	updated, err := repo.UpdateAt(ctx, 0, 12, "2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, "id-2", updated.ID)

	records, err := repo.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.CalculationRecord{
		{Total: 7, Date: "2025-02-01", ID: "id-1"},
		{Total: 12, Date: "2025-01-06", ID: "id-2"},
	}, records)

	_, err = repo.UpdateAt(ctx, 2, 1, "2025-01-01")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestUpdateValidation(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	rec, err := repo.Append(ctx, 10, "2025-01-05")
	require.NoError(t, err)

	_, err = repo.UpdateByID(ctx, rec.ID, 0, "2025-01-05")
	assert.ErrorIs(t, err, ErrInvalidTotal)
	_, err = repo.UpdateByID(ctx, rec.ID, -4, "2025-01-05")
	assert.ErrorIs(t, err, ErrInvalidTotal)
	_, err = repo.UpdateByID(ctx, rec.ID, math.Inf(1), "2025-01-05")
	assert.ErrorIs(t, err, ErrInvalidTotal)
	_, err = repo.UpdateAt(ctx, 0, math.Inf(1), "2025-01-05")
	assert.ErrorIs(t, err, ErrInvalidTotal)
	_, err = repo.UpdateByID(ctx, rec.ID, 5, "  ")
	assert.ErrorIs(t, err, ErrEmptyDate)
	_, err = repo.UpdateByID(ctx, "missing", 5, "2025-01-05")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	updated, err := repo.UpdateByID(ctx, rec.ID, 11, "2025-01-07")
	require.NoError(t, err)
	assert.Equal(t, model.CalculationRecord{Total: 11, Date: "2025-01-07", ID: rec.ID}, updated)
}

func TestRemoveByID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	rec, err := repo.Append(ctx, 10, "2025-01-05")
	require.NoError(t, err)

	require.NoError(t, repo.RemoveByID(ctx, rec.ID))
	assert.ErrorIs(t, repo.RemoveByID(ctx, rec.ID), ErrRecordNotFound)
}

func TestLegacyRecordsGetIDs(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepo(t)
	require.NoError(t, s.Set(ctx, KeyCalculations, `[{"total":10,"date":"2025-01-05"},{"total":7,"date":"2025-02-01"}]`))

	records, err := repo.Records(ctx)
	require.NoError(t, err)
	assert.Empty(t, records[0].ID)

	n, err := repo.BackfillIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err = repo.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, "id-1", records[0].ID)
	assert.Equal(t, "id-2", records[1].ID)

	n, err = repo.BackfillIDs(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMalformedKeyIsAnError(t *testing.T) {
	ctx := context.Background()
	repo, s := newTestRepo(t)
	require.NoError(t, s.Set(ctx, KeyRooms, `{not json`))

	_, err := repo.ListRooms(ctx)
	require.Error(t, err)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, err := repo.AddRoom(ctx, "A")
	require.NoError(t, err)
	session, err := repo.LoadBudgets(ctx)
	require.NoError(t, err)
	session.SetAmount("A", "10")
	_, err = repo.CalculateAndRecord(ctx, session, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	snap, err := repo.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snap.Version)

	target, _ := newTestRepo(t)
	require.NoError(t, target.Import(ctx, snap))

	rooms, err := target.ListRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, rooms)
	records, err := target.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Calculations, records)
	budgets, err := target.LoadBudgets(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", budgets.Amount("A"))

	snap.Version = SnapshotVersion + 1
	require.Error(t, target.Import(ctx, snap))
}

func TestRepositoryOnRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	repo := New(store.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "roomtally:"), zap.NewNop())
	t.Cleanup(func() { _ = repo.Close() })

	_, err := repo.AddRoom(ctx, "A")
	require.NoError(t, err)
	session, err := repo.LoadBudgets(ctx)
	require.NoError(t, err)
	session.SetAmount("A", "4.5")
	rec, err := repo.CalculateAndRecord(ctx, session, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)

	_, err = repo.RemoveRoomAndBudget(ctx, "A")
	require.NoError(t, err)

	raw, err := mr.Get("roomtally:budgets")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, raw)

	records, err := repo.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 4.5, records[0].Total)
}

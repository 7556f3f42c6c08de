package daemon

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/theirongolddev/roomtally/internal/ledger"
	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/store"
)

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *ledger.Repository) {
	t.Helper()
	repo := ledger.New(store.NewMemory(), zap.NewNop(),
		ledger.WithClock(func() time.Time { return fixedNow }))
	s := New(Config{Interval: 10 * time.Second, Currency: "MVR"}, repo, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s, repo
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Rooms: 2, Records: 10, AllTimeTotal: 100.5, DraftTotal: 20}
	curr := Snapshot{Rooms: 3, Records: 12, AllTimeTotal: 130.75, DraftTotal: 20}

	delta := diffSnapshots(prev, curr)
	if delta.Rooms != 1 {
		t.Fatalf("Rooms delta = %d, want 1", delta.Rooms)
	}
	if delta.Records != 2 {
		t.Fatalf("Records delta = %d, want 2", delta.Records)
	}
	if math.Abs(delta.AllTimeTotal-30.25) > 1e-9 {
		t.Fatalf("Total delta = %.2f, want 30.25", delta.AllTimeTotal)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{Interval: 10 * time.Second, EventsBuffer: 2}, nil, nil)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnceEmitsSnapshotThenDelta(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestService(t)

	_, err := repo.AddRoom(ctx, "Room 101")
	require.NoError(t, err)
	_, err = repo.Append(ctx, 40, "2025-03-02")
	require.NoError(t, err)

	s.pollOnce(ctx)
	s.pollOnce(ctx) // unchanged, no event

	_, err = repo.Append(ctx, 10, "2025-02-27")
	require.NoError(t, err)
	s.pollOnce(ctx)

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	require.Len(t, events, 2)
	assert.Equal(t, "snapshot", events[0].Type)
	assert.Equal(t, 1, events[0].Snapshot.Rooms)
	assert.Equal(t, "March 2025", events[0].Snapshot.CurrentMonth)
	assert.InDelta(t, 40, events[0].Snapshot.CurrentMonthTotal, 1e-9)

	assert.Equal(t, "ledger_delta", events[1].Type)
	assert.Equal(t, 1, events[1].Delta.Records)
	assert.InDelta(t, 50, events[1].Snapshot.AllTimeTotal, 1e-9)
	assert.InDelta(t, 40, events[1].Snapshot.CurrentMonthTotal, 1e-9)
}

func TestPollOnceEmitsDeltaWhenRecordChangesMonth(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestService(t)

	rec, err := repo.Append(ctx, 100, "2025-03-10")
	require.NoError(t, err)
	s.pollOnce(ctx)

	_, err = repo.UpdateByID(ctx, rec.ID, 100, "2025-02-10")
	require.NoError(t, err)
	s.pollOnce(ctx)

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	require.Len(t, events, 2, "moving a record between months must publish")
	delta := events[1].Delta
	assert.Zero(t, delta.Records)
	assert.Zero(t, delta.AllTimeTotal)
	assert.InDelta(t, -100, delta.CurrentMonthTotal, 1e-9)
	assert.True(t, delta.SeriesChanged)
	assert.Equal(t, []model.MonthTotal{{Month: "Feb 2025", Total: 100}}, events[1].Snapshot.Months)
}

func TestDiffSnapshotsSeriesAndMonthRollover(t *testing.T) {
	prev := Snapshot{
		CurrentMonth: "March 2025",
		Months:       []model.MonthTotal{{Month: "Feb 2025", Total: 5}, {Month: "Mar 2025", Total: 5}},
	}

	same := prev
	same.Months = append([]model.MonthTotal(nil), prev.Months...)
	if d := diffSnapshots(prev, same); !d.isZero() {
		t.Fatalf("identical snapshots gave delta %+v", d)
	}

	moved := prev
	moved.Months = []model.MonthTotal{{Month: "Feb 2025", Total: 10}}
	if d := diffSnapshots(prev, moved); !d.SeriesChanged || d.isZero() {
		t.Fatalf("moved total not reported: %+v", d)
	}

	rolled := same
	rolled.CurrentMonth = "April 2025"
	if d := diffSnapshots(prev, rolled); !d.MonthRolled || d.isZero() {
		t.Fatalf("month rollover not reported: %+v", d)
	}
}

func TestHandlerEndpoints(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestService(t)

	for _, rec := range []model.CalculationRecord{
		{Total: 15, Date: "2025-01-20"},
		{Total: 7, Date: "2025-02-03"},
		{Total: 5, Date: "2025-01-02"},
	} {
		_, err := repo.Append(ctx, rec.Total, rec.Date)
		require.NoError(t, err)
	}
	s.pollOnce(ctx)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	get := func(path string) *http.Response {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusOK, get("/healthz").StatusCode)

	var status Status
	require.NoError(t, json.NewDecoder(get("/v1/status").Body).Decode(&status))
	assert.Equal(t, int64(1), status.PollCount)
	assert.Equal(t, 3, status.Summary.Records)
	assert.Equal(t, "MVR", status.Currency)

	var months MonthsResponse
	require.NoError(t, json.NewDecoder(get("/v1/months").Body).Decode(&months))
	assert.Equal(t, []model.MonthTotal{
		{Month: "Jan 2025", Total: 20},
		{Month: "Feb 2025", Total: 7},
	}, months.Months)
	assert.InDelta(t, 27, months.Grand, 1e-9)

	var jan model.MonthSummary
	require.NoError(t, json.NewDecoder(get("/v1/history?month=January%202025").Body).Decode(&jan))
	assert.Equal(t, "January 2025", jan.Month)
	require.Len(t, jan.Records, 2)
	assert.Equal(t, "2025-01-02", jan.Records[0].Date)
	assert.InDelta(t, 20, jan.Total, 1e-9)

	assert.Equal(t, http.StatusBadRequest, get("/v1/history?month=13-2025").StatusCode)

	resp, err := http.Post(srv.URL+"/v1/status", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

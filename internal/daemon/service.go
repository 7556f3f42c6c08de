// Package daemon provides the long-running background ledger monitor and its
// read-only HTTP API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/theirongolddev/roomtally/internal/ledger"
	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/pipeline"
)

// Ledger is the read side of ledger.Repository the daemon polls.
type Ledger interface {
	ListRooms(ctx context.Context) ([]string, error)
	Records(ctx context.Context) ([]model.CalculationRecord, error)
	LoadBudgets(ctx context.Context) (*ledger.BudgetSession, error)
}

// Config controls the daemon runtime behavior.
type Config struct {
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Currency     string
}

// Snapshot is a compact ledger state for status/event payloads.
type Snapshot struct {
	At                time.Time          `json:"at"`
	Rooms             int                `json:"rooms"`
	Records           int                `json:"records"`
	AllTimeTotal      float64            `json:"all_time_total"`
	CurrentMonth      string             `json:"current_month"`
	CurrentMonthTotal float64            `json:"current_month_total"`
	DraftTotal        float64            `json:"draft_total"`
	Months            []model.MonthTotal `json:"months"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Rooms             int     `json:"rooms"`
	Records           int     `json:"records"`
	AllTimeTotal      float64 `json:"all_time_total"`
	CurrentMonthTotal float64 `json:"current_month_total"`
	DraftTotal        float64 `json:"draft_total"`
	MonthRolled       bool    `json:"month_rolled,omitempty"`
	SeriesChanged     bool    `json:"series_changed,omitempty"`
}

func (d Delta) isZero() bool {
	return d.Rooms == 0 &&
		d.Records == 0 &&
		d.AllTimeTotal == 0 &&
		d.CurrentMonthTotal == 0 &&
		d.DraftTotal == 0 &&
		!d.MonthRolled &&
		!d.SeriesChanged
}

// Event is emitted whenever the ledger snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Currency        string    `json:"currency"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// MonthsResponse is served at /v1/months.
type MonthsResponse struct {
	Currency string             `json:"currency"`
	Months   []model.MonthTotal `json:"months"`
	Grand    float64            `json:"grand_total"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	ledger Ledger
	log    *zap.Logger
	now    func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service over l with the provided config.
func New(cfg Config, l Ledger, log *zap.Logger) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		cfg:       cfg,
		ledger:    l,
		log:       log.Named("daemon"),
		now:       time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API with access logging and panic recovery.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/months", s.handleMonths).Methods(http.MethodGet)
	r.HandleFunc("/v1/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/v1/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/v1/stream", s.handleStream).Methods(http.MethodGet)

	stdLog := zap.NewStdLog(s.log)
	recovered := handlers.RecoveryHandler(handlers.RecoveryLogger(stdLog))(r)
	return handlers.CombinedLoggingHandler(stdLog.Writer(), recovered)
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("listening", zap.String("addr", s.cfg.Addr), zap.Duration("interval", s.cfg.Interval))

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	now := s.now()
	snap, err := s.collect(ctx, now)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Warn("poll failed", zap.Error(err))
		return
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "snapshot", Timestamp: now, Snapshot: snap}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "ledger_delta", Timestamp: now, Snapshot: snap, Delta: delta}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.log.Debug("publishing event", zap.String("type", ev.Type), zap.Int64("id", ev.ID))
		s.publishEvent(ev)
	}
}

func (s *Service) collect(ctx context.Context, now time.Time) (Snapshot, error) {
	rooms, err := s.ledger.ListRooms(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	records, err := s.ledger.Records(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	session, err := s.ledger.LoadBudgets(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	month := pipeline.MonthLabel(now)
	months := pipeline.GroupByMonth(records)
	if months == nil {
		months = []model.MonthTotal{}
	}
	return Snapshot{
		At:                now,
		Rooms:             len(rooms),
		Records:           len(records),
		AllTimeTotal:      pipeline.SumTotals(records),
		CurrentMonth:      month,
		CurrentMonthTotal: pipeline.SumTotals(pipeline.FilterByMonth(records, month)),
		DraftTotal:        session.Total(),
		Months:            months,
	}, nil
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Rooms:             curr.Rooms - prev.Rooms,
		Records:           curr.Records - prev.Records,
		AllTimeTotal:      curr.AllTimeTotal - prev.AllTimeTotal,
		CurrentMonthTotal: curr.CurrentMonthTotal - prev.CurrentMonthTotal,
		DraftTotal:        curr.DraftTotal - prev.DraftTotal,
		MonthRolled:       curr.CurrentMonth != prev.CurrentMonth,
		SeriesChanged:     !slices.Equal(prev.Months, curr.Months),
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Currency:        s.cfg.Currency,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleMonths(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.Records(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	series := pipeline.GroupByMonth(records)
	writeJSON(w, http.StatusOK, MonthsResponse{
		Currency: s.cfg.Currency,
		Months:   series,
		Grand:    pipeline.Grand(series),
	})
}

// handleHistory serves one month's records, sorted by date. ?month= takes
// "January 2006" and defaults to the current month.
func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = pipeline.MonthLabel(s.now())
	}
	if _, err := time.Parse(pipeline.MonthLayout, month); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid month %q", month)})
		return
	}

	records, err := s.ledger.Records(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	ledger.SortByDate(records)
	writeJSON(w, http.StatusOK, pipeline.SummarizeMonth(records, month))
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(w, Event{
		Type:      "snapshot",
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

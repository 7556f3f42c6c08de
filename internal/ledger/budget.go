package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/store"
)

// ErrUnknownRoom is returned by SetBudget for a name not in the room list.
var ErrUnknownRoom = errors.New("room is not registered")

// BudgetSession is the in-progress set of per-room amounts. Edits stay in
// memory until Persist, CalculateAndRecord or ClearAll.
type BudgetSession struct {
	repo    *Repository
	budgets model.Budgets
}

// LoadBudgets starts a session from the persisted mapping, or an empty one.
func (r *Repository) LoadBudgets(ctx context.Context) (*BudgetSession, error) {
	var b model.Budgets
	if _, err := readJSON(ctx, r.store, KeyBudgets, &b); err != nil {
		return nil, fmt.Errorf("loading budgets: %w", err)
	}
	return &BudgetSession{repo: r, budgets: b}, nil
}

// SetBudget persists text as the amount for one registered room and
// returns a session over the updated mapping.
func (r *Repository) SetBudget(ctx context.Context, room, text string) (*BudgetSession, error) {
	var b model.Budgets
	err := r.store.Update(ctx, func(tx store.KV) error {
		rooms, err := loadRooms(ctx, tx)
		if err != nil {
			return err
		}
		if !slices.Contains(rooms, room) {
			return fmt.Errorf("%q: %w", room, ErrUnknownRoom)
		}
		if _, err := readJSON(ctx, tx, KeyBudgets, &b); err != nil {
			return err
		}
		b.Set(room, text)
		return writeJSON(ctx, tx, KeyBudgets, b)
	})
	if err != nil {
		return nil, fmt.Errorf("setting budget: %w", err)
	}
	r.log.Debug("budget set", zap.String("room", room))
	return &BudgetSession{repo: r, budgets: b}, nil
}

// SetAmount records the raw text typed for room. Nothing is written.
func (s *BudgetSession) SetAmount(room, text string) {
	s.budgets.Set(room, text)
}

// Amount returns the text entered for room, or "".
func (s *BudgetSession) Amount(room string) string {
	v, _ := s.budgets.Get(room)
	return v
}

// Entries returns the session's amounts in insertion order.
func (s *BudgetSession) Entries() []model.BudgetEntry {
	return s.budgets.Entries()
}

// Total sums the session's amounts, counting unparseable text as zero.
func (s *BudgetSession) Total() float64 {
	return ComputeTotal(s.budgets)
}

// Persist writes the whole mapping.
func (s *BudgetSession) Persist(ctx context.Context) error {
	if err := writeJSON(ctx, s.repo.store, KeyBudgets, s.budgets); err != nil {
		return fmt.Errorf("saving budgets: %w", err)
	}
	return nil
}

// ClearAll removes the persisted budgets and the legacy daily total, then
// empties the session.
func (s *BudgetSession) ClearAll(ctx context.Context) error {
	err := s.repo.store.Update(ctx, func(tx store.KV) error {
		if err := tx.Remove(ctx, KeyBudgets); err != nil {
			return err
		}
		return tx.Remove(ctx, KeyDailyTotal)
	})
	if err != nil {
		return fmt.Errorf("clearing budgets: %w", err)
	}
	s.budgets = model.Budgets{}
	s.repo.log.Debug("budgets cleared")
	return nil
}

// CalculateAndRecord totals the session, appends {total, day} to the
// history and persists the session's amounts, all in one transaction.
func (r *Repository) CalculateAndRecord(ctx context.Context, s *BudgetSession, day time.Time) (model.CalculationRecord, error) {
	if day.IsZero() {
		day = r.now()
	}
	rec := model.CalculationRecord{
		Total: s.Total(),
		Date:  day.Format(model.DateLayout),
		ID:    r.newID(),
	}

	err := r.store.Update(ctx, func(tx store.KV) error {
		records, err := loadRecords(ctx, tx)
		if err != nil {
			return err
		}
		records = append(records, rec)
		if err := r.saveRecords(ctx, tx, records); err != nil {
			return err
		}
		return writeJSON(ctx, tx, KeyBudgets, s.budgets)
	})
	if err != nil {
		return model.CalculationRecord{}, fmt.Errorf("recording calculation: %w", err)
	}
	r.log.Debug("calculation recorded",
		zap.String("id", rec.ID),
		zap.String("date", rec.Date),
		zap.Float64("total", rec.Total),
	)
	return rec, nil
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/store"
)

var (
	// ErrInvalidTotal rejects an edit whose total is not a finite positive number.
	ErrInvalidTotal = errors.New("please enter a valid total greater than zero")
	// ErrEmptyDate rejects an edit without a date.
	ErrEmptyDate = errors.New("please enter a date")
	// ErrIndexOutOfRange is returned by UpdateAt for a position outside the list.
	ErrIndexOutOfRange = errors.New("calculation index out of range")
	// ErrRecordNotFound is returned when no record has the requested id.
	ErrRecordNotFound = errors.New("calculation not found")
)

// ValidateEdit checks a replacement total and date before an edit is saved.
func ValidateEdit(total float64, date string) error {
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return ErrInvalidTotal
	}
	if strings.TrimSpace(date) == "" {
		return ErrEmptyDate
	}
	return nil
}

// Append adds a record for total on date. Same-day records are kept apart.
func (r *Repository) Append(ctx context.Context, total float64, date string) (model.CalculationRecord, error) {
	rec := model.CalculationRecord{Total: total, Date: date, ID: r.newID()}
	err := r.store.Update(ctx, func(tx store.KV) error {
		records, err := loadRecords(ctx, tx)
		if err != nil {
			return err
		}
		return r.saveRecords(ctx, tx, append(records, rec))
	})
	if err != nil {
		return model.CalculationRecord{}, fmt.Errorf("appending calculation: %w", err)
	}
	return rec, nil
}

// Records returns the history in stored (insertion) order.
func (r *Repository) Records(ctx context.Context) ([]model.CalculationRecord, error) {
	records, err := loadRecords(ctx, r.store)
	if err != nil {
		return nil, fmt.Errorf("loading calculations: %w", err)
	}
	return records, nil
}

// List returns the history sorted ascending by date; records sharing a
// date keep their stored order.
func (r *Repository) List(ctx context.Context) ([]model.CalculationRecord, error) {
	records, err := r.Records(ctx)
	if err != nil {
		return nil, err
	}
	SortByDate(records)
	return records, nil
}

// SortByDate orders records by their date string, stably.
func SortByDate(records []model.CalculationRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date < records[j].Date
	})
}

// Remove deletes the first stored record whose date and total both match.
// It reports whether a record was removed.
func (r *Repository) Remove(ctx context.Context, date string, total float64) (bool, error) {
	return r.removeWhere(ctx, func(rec model.CalculationRecord) bool {
		return rec.Date == date && rec.Total == total
	})
}

// RemoveByID deletes the record with the given id.
func (r *Repository) RemoveByID(ctx context.Context, id string) error {
	removed, err := r.removeWhere(ctx, func(rec model.CalculationRecord) bool {
		return rec.ID == id
	})
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("removing %s: %w", id, ErrRecordNotFound)
	}
	return nil
}

func (r *Repository) removeWhere(ctx context.Context, match func(model.CalculationRecord) bool) (bool, error) {
	removed := false
	err := r.store.Update(ctx, func(tx store.KV) error {
		records, err := loadRecords(ctx, tx)
		if err != nil {
			return err
		}
		for i, rec := range records {
			if match(rec) {
				records = append(records[:i:i], records[i+1:]...)
				removed = true
				break
			}
		}
		if !removed {
			return nil
		}
		return r.saveRecords(ctx, tx, records)
	})
	if err != nil {
		return false, fmt.Errorf("removing calculation: %w", err)
	}
	if removed {
		r.log.Debug("calculation removed")
	}
	return removed, nil
}

// UpdateAt replaces total and date of the record at index in the
// date-sorted history. The record keeps its id and its stored position.
func (r *Repository) UpdateAt(ctx context.Context, index int, total float64, date string) (model.CalculationRecord, error) {
	if err := ValidateEdit(total, date); err != nil {
		return model.CalculationRecord{}, err
	}

	var updated model.CalculationRecord
	err := r.store.Update(ctx, func(tx store.KV) error {
		records, err := loadRecords(ctx, tx)
		if err != nil {
			return err
		}
		r.assignIDs(records)

		sorted := make([]model.CalculationRecord, len(records))
		copy(sorted, records)
		SortByDate(sorted)
		if index < 0 || index >= len(sorted) {
			return fmt.Errorf("index %d of %d: %w", index, len(sorted), ErrIndexOutOfRange)
		}

		updated, err = replaceByID(records, sorted[index].ID, total, date)
		if err != nil {
			return err
		}
		return r.saveRecords(ctx, tx, records)
	})
	if err != nil {
		return model.CalculationRecord{}, fmt.Errorf("updating calculation: %w", err)
	}
	r.log.Debug("calculation updated", zap.Int("index", index), zap.String("id", updated.ID))
	return updated, nil
}

// UpdateByID replaces total and date of the record with the given id.
func (r *Repository) UpdateByID(ctx context.Context, id string, total float64, date string) (model.CalculationRecord, error) {
	if err := ValidateEdit(total, date); err != nil {
		return model.CalculationRecord{}, err
	}

	var updated model.CalculationRecord
	err := r.store.Update(ctx, func(tx store.KV) error {
		records, err := loadRecords(ctx, tx)
		if err != nil {
			return err
		}
		updated, err = replaceByID(records, id, total, date)
		if err != nil {
			return err
		}
		return r.saveRecords(ctx, tx, records)
	})
	if err != nil {
		return model.CalculationRecord{}, fmt.Errorf("updating calculation: %w", err)
	}
	r.log.Debug("calculation updated", zap.String("id", id))
	return updated, nil
}

// Find returns the record with the given id.
func (r *Repository) Find(ctx context.Context, id string) (model.CalculationRecord, error) {
	records, err := r.Records(ctx)
	if err != nil {
		return model.CalculationRecord{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return model.CalculationRecord{}, fmt.Errorf("%s: %w", id, ErrRecordNotFound)
}

// BackfillIDs gives every stored record without an id a fresh one and
// reports how many were assigned.
func (r *Repository) BackfillIDs(ctx context.Context) (int, error) {
	n := 0
	err := r.store.Update(ctx, func(tx store.KV) error {
		records, err := loadRecords(ctx, tx)
		if err != nil {
			return err
		}
		n = r.assignIDs(records)
		if n == 0 {
			return nil
		}
		return writeJSON(ctx, tx, KeyCalculations, records)
	})
	if err != nil {
		return 0, fmt.Errorf("assigning calculation ids: %w", err)
	}
	if n > 0 {
		r.log.Info("assigned ids to legacy calculations", zap.Int("count", n))
	}
	return n, nil
}

func replaceByID(records []model.CalculationRecord, id string, total float64, date string) (model.CalculationRecord, error) {
	for i := range records {
		if records[i].ID == id {
			records[i].Total = total
			records[i].Date = date
			return records[i], nil
		}
	}
	return model.CalculationRecord{}, fmt.Errorf("%s: %w", id, ErrRecordNotFound)
}

func (r *Repository) assignIDs(records []model.CalculationRecord) int {
	n := 0
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = r.newID()
			n++
		}
	}
	return n
}

// saveRecords writes the history, giving legacy records ids on the way.
func (r *Repository) saveRecords(ctx context.Context, kv store.KV, records []model.CalculationRecord) error {
	r.assignIDs(records)
	return writeJSON(ctx, kv, KeyCalculations, records)
}

func loadRecords(ctx context.Context, kv store.KV) ([]model.CalculationRecord, error) {
	var records []model.CalculationRecord
	if _, err := readJSON(ctx, kv, KeyCalculations, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.CalculationRecord{}
	}
	return records, nil
}

package ledger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/store"
)

// SnapshotVersion is written into every export.
const SnapshotVersion = 1

// Snapshot is a full copy of the persisted data, used for backup files.
type Snapshot struct {
	Version      int                       `json:"version"`
	ExportedAt   time.Time                 `json:"exported_at"`
	Rooms        []string                  `json:"rooms"`
	Budgets      model.Budgets             `json:"budgets"`
	Calculations []model.CalculationRecord `json:"calculations"`
}

// Export reads all three keys in one consistent view.
func (r *Repository) Export(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Version: SnapshotVersion, ExportedAt: r.now().UTC()}
	err := r.store.Update(ctx, func(tx store.KV) error {
		var err error
		if snap.Rooms, err = loadRooms(ctx, tx); err != nil {
			return err
		}
		if _, err = readJSON(ctx, tx, KeyBudgets, &snap.Budgets); err != nil {
			return err
		}
		snap.Calculations, err = loadRecords(ctx, tx)
		return err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("exporting: %w", err)
	}
	return snap, nil
}

// Import replaces rooms, budgets and history with snap's contents.
func (r *Repository) Import(ctx context.Context, snap Snapshot) error {
	if snap.Version > SnapshotVersion {
		return fmt.Errorf("importing: snapshot version %d is newer than supported %d", snap.Version, SnapshotVersion)
	}
	rooms := snap.Rooms
	if rooms == nil {
		rooms = []string{}
	}
	records := snap.Calculations
	if records == nil {
		records = []model.CalculationRecord{}
	}

	err := r.store.Update(ctx, func(tx store.KV) error {
		if err := writeJSON(ctx, tx, KeyRooms, rooms); err != nil {
			return err
		}
		if snap.Budgets.Len() == 0 {
			if err := tx.Remove(ctx, KeyBudgets); err != nil {
				return err
			}
		} else if err := writeJSON(ctx, tx, KeyBudgets, snap.Budgets); err != nil {
			return err
		}
		return r.saveRecords(ctx, tx, records)
	})
	if err != nil {
		return fmt.Errorf("importing: %w", err)
	}
	r.log.Info("snapshot imported",
		zap.Int("rooms", len(rooms)),
		zap.Int("calculations", len(records)),
	)
	return nil
}

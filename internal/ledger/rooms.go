package ledger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/store"
)

// ListRooms returns room names in insertion order; empty when none exist.
func (r *Repository) ListRooms(ctx context.Context) ([]string, error) {
	return loadRooms(ctx, r.store)
}

// AddRoom appends name to the room list. Blank names are ignored. Names are
// stored exactly as given and duplicates are allowed.
func (r *Repository) AddRoom(ctx context.Context, name string) ([]string, error) {
	if strings.TrimSpace(name) == "" {
		return r.ListRooms(ctx)
	}

	var rooms []string
	err := r.store.Update(ctx, func(tx store.KV) error {
		var err error
		rooms, err = loadRooms(ctx, tx)
		if err != nil {
			return err
		}
		rooms = append(rooms, name)
		return writeJSON(ctx, tx, KeyRooms, rooms)
	})
	if err != nil {
		return nil, fmt.Errorf("adding room: %w", err)
	}
	r.log.Debug("room added", zap.String("room", name), zap.Int("rooms", len(rooms)))
	return rooms, nil
}

// RemoveRoomAndBudget drops the first room equal to name and, if a budget
// mapping exists, its entry for name. Both keys change together.
func (r *Repository) RemoveRoomAndBudget(ctx context.Context, name string) ([]string, error) {
	var rooms []string
	err := r.store.Update(ctx, func(tx store.KV) error {
		var err error
		rooms, err = loadRooms(ctx, tx)
		if err != nil {
			return err
		}
		for i, room := range rooms {
			if room == name {
				rooms = append(rooms[:i:i], rooms[i+1:]...)
				break
			}
		}
		if err := writeJSON(ctx, tx, KeyRooms, rooms); err != nil {
			return err
		}

		var budgets model.Budgets
		found, err := readJSON(ctx, tx, KeyBudgets, &budgets)
		if err != nil || !found {
			return err
		}
		budgets.Delete(name)
		return writeJSON(ctx, tx, KeyBudgets, budgets)
	})
	if err != nil {
		return nil, fmt.Errorf("removing room: %w", err)
	}
	r.log.Debug("room removed", zap.String("room", name), zap.Int("rooms", len(rooms)))
	return rooms, nil
}

func loadRooms(ctx context.Context, kv store.KV) ([]string, error) {
	var rooms []string
	if _, err := readJSON(ctx, kv, KeyRooms, &rooms); err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []string{}
	}
	return rooms, nil
}

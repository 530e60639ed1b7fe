// Package ordering maintains dense gap-free display positions for a single
// ordered collection. Positions run 1..N over the active population; every
// mutation is expressed as at most one bulk shift plus one placement, so the
// collection never holds transient duplicates.
package ordering

import (
	"context"
	"fmt"
)

// Store is the persistence surface the manager drives. Implementations scope
// MaxPosition and the shifts to one collection's orderable population
// (active, not deleted); Place addresses its entity by id regardless of
// status, so an entity entering the population can be positioned before its
// activation is written. All methods are expected to run within the caller's
// transaction.
type Store interface {
	// MaxPosition returns the highest occupied position, 0 when empty.
	MaxPosition(ctx context.Context) (int, error)
	// ShiftFrom adds delta to every member at position >= from.
	ShiftFrom(ctx context.Context, from, delta int) error
	// ShiftBetween adds delta to every member with from <= position <= to,
	// skipping excludeID so the moved entity is never shifted twice.
	ShiftBetween(ctx context.Context, from, to, delta int, excludeID string) error
	// Place sets the entity's position directly.
	Place(ctx context.Context, id string, position int) error
}

// Manager plans and applies reindex operations against a Store.
type Manager struct {
	store Store
}

// NewManager wraps a collection-scoped store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// NextPosition returns the append position: one past the current maximum.
func (m *Manager) NextPosition(ctx context.Context) (int, error) {
	max, err := m.store.MaxPosition(ctx)
	if err != nil {
		return 0, fmt.Errorf("ordering: max position: %w", err)
	}
	return max + 1, nil
}

// InsertAt makes room at the requested position and places the entity there.
// The position is clamped to [1, N+1]; out-of-range requests append or
// prepend instead of failing. Returns the position actually used.
func (m *Manager) InsertAt(ctx context.Context, id string, requested int) (int, error) {
	max, err := m.store.MaxPosition(ctx)
	if err != nil {
		return 0, fmt.Errorf("ordering: max position: %w", err)
	}
	pos := clamp(requested, 1, max+1)
	if pos <= max {
		if err := m.store.ShiftFrom(ctx, pos, +1); err != nil {
			return 0, fmt.Errorf("ordering: shift for insert: %w", err)
		}
	}
	if err := m.store.Place(ctx, id, pos); err != nil {
		return 0, fmt.Errorf("ordering: place: %w", err)
	}
	return pos, nil
}

// Move relocates the entity from oldPos to the requested position, shifting
// only the members strictly between the two. Requests are clamped to [1, N];
// a move onto the current position is a no-op. Returns the position used.
func (m *Manager) Move(ctx context.Context, id string, oldPos, requested int) (int, error) {
	max, err := m.store.MaxPosition(ctx)
	if err != nil {
		return 0, fmt.Errorf("ordering: max position: %w", err)
	}
	pos := clamp(requested, 1, max)
	if pos == oldPos {
		return pos, nil
	}
	if pos < oldPos {
		err = m.store.ShiftBetween(ctx, pos, oldPos-1, +1, id)
	} else {
		err = m.store.ShiftBetween(ctx, oldPos+1, pos, -1, id)
	}
	if err != nil {
		return 0, fmt.Errorf("ordering: shift for move: %w", err)
	}
	if err := m.store.Place(ctx, id, pos); err != nil {
		return 0, fmt.Errorf("ordering: place: %w", err)
	}
	return pos, nil
}

// RemoveAt closes the gap left by a member departing position oldPos. The
// caller removes the member itself (delete, soft delete or deactivation);
// RemoveAt only compacts the survivors.
func (m *Manager) RemoveAt(ctx context.Context, oldPos int) error {
	if err := m.store.ShiftFrom(ctx, oldPos+1, -1); err != nil {
		return fmt.Errorf("ordering: shift for removal: %w", err)
	}
	return nil
}

// Transition captures an entity's ordering-relevant state on either side of
// an update. Requested <= 0 means no explicit position was asked for: an
// active entity keeps its position, a reactivated one appends.
type Transition struct {
	ID        string
	OldPos    int
	OldActive bool
	NewActive bool
	Requested int
}

// ApplyTransition runs the reindex step an update implies. The four status
// combinations map onto the primitive operations:
//
//	active  -> active    move (or keep)
//	active  -> inactive  remove at the old position
//	inactive-> active    insert at the requested or append position
//	inactive-> inactive  nothing
//
// Returns the entity's resulting position. A deactivated entity keeps its
// stale position value; it re-enters the ordered population only on
// reactivation.
func (m *Manager) ApplyTransition(ctx context.Context, tr Transition) (int, error) {
	switch {
	case tr.OldActive && tr.NewActive:
		if tr.Requested <= 0 || tr.Requested == tr.OldPos {
			return tr.OldPos, nil
		}
		return m.Move(ctx, tr.ID, tr.OldPos, tr.Requested)
	case tr.OldActive && !tr.NewActive:
		if err := m.RemoveAt(ctx, tr.OldPos); err != nil {
			return 0, err
		}
		return tr.OldPos, nil
	case !tr.OldActive && tr.NewActive:
		requested := tr.Requested
		if requested <= 0 {
			next, err := m.NextPosition(ctx)
			if err != nil {
				return 0, err
			}
			requested = next
		}
		return m.InsertAt(ctx, tr.ID, requested)
	default:
		return tr.OldPos, nil
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

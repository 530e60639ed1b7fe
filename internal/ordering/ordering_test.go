package ordering

import (
	"context"
	"errors"
	"sort"
	"testing"
)

// memStore keeps positions for one collection's active population in a map.
type memStore struct {
	positions map[string]int
	failShift bool
}

func newMemStore(ids ...string) *memStore {
	s := &memStore{positions: make(map[string]int)}
	for i, id := range ids {
		s.positions[id] = i + 1
	}
	return s
}

var errStoreDown = errors.New("store down")

func (s *memStore) MaxPosition(ctx context.Context) (int, error) {
	max := 0
	for _, p := range s.positions {
		if p > max {
			max = p
		}
	}
	return max, nil
}

func (s *memStore) ShiftFrom(ctx context.Context, from, delta int) error {
	if s.failShift {
		return errStoreDown
	}
	for id, p := range s.positions {
		if p >= from {
			s.positions[id] = p + delta
		}
	}
	return nil
}

func (s *memStore) ShiftBetween(ctx context.Context, from, to, delta int, excludeID string) error {
	if s.failShift {
		return errStoreDown
	}
	for id, p := range s.positions {
		if id == excludeID {
			continue
		}
		if p >= from && p <= to {
			s.positions[id] = p + delta
		}
	}
	return nil
}

func (s *memStore) Place(ctx context.Context, id string, position int) error {
	s.positions[id] = position
	return nil
}

// ranked returns the ids sorted by position.
func (s *memStore) ranked(t *testing.T) []string {
	t.Helper()
	ids := make([]string, 0, len(s.positions))
	for id := range s.positions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.positions[ids[i]] < s.positions[ids[j]] })
	return ids
}

// assertDense verifies positions form exactly 1..N with no gaps or duplicates.
func assertDense(t *testing.T, s *memStore) {
	t.Helper()
	seen := make(map[int]string, len(s.positions))
	for id, p := range s.positions {
		if other, dup := seen[p]; dup {
			t.Fatalf("position %d held by both %s and %s", p, id, other)
		}
		seen[p] = id
	}
	for want := 1; want <= len(s.positions); want++ {
		if _, ok := seen[want]; !ok {
			t.Fatalf("gap at position %d: %v", want, s.positions)
		}
	}
}

func assertOrder(t *testing.T, s *memStore, want ...string) {
	t.Helper()
	assertDense(t, s)
	got := s.ranked(t)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got order %v, want %v", got, want)
		}
	}
}

func TestNextPosition(t *testing.T) {
	ctx := context.Background()

	m := NewManager(newMemStore())
	if next, _ := m.NextPosition(ctx); next != 1 {
		t.Fatalf("empty collection: next = %d, want 1", next)
	}
	m = NewManager(newMemStore("a", "b", "c"))
	if next, _ := m.NextPosition(ctx); next != 4 {
		t.Fatalf("next = %d, want 4", next)
	}
}

func TestInsertAt(t *testing.T) {
	ctx := context.Background()

	t.Run("middle", func(t *testing.T) {
		s := newMemStore("a", "b", "c")
		pos, err := NewManager(s).InsertAt(ctx, "x", 2)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if pos != 2 {
			t.Fatalf("pos = %d, want 2", pos)
		}
		assertOrder(t, s, "a", "x", "b", "c")
	})

	t.Run("clamps high to append", func(t *testing.T) {
		s := newMemStore("a", "b")
		pos, err := NewManager(s).InsertAt(ctx, "x", 99)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if pos != 3 {
			t.Fatalf("pos = %d, want 3", pos)
		}
		assertOrder(t, s, "a", "b", "x")
	})

	t.Run("clamps low to head", func(t *testing.T) {
		s := newMemStore("a", "b")
		pos, err := NewManager(s).InsertAt(ctx, "x", -5)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if pos != 1 {
			t.Fatalf("pos = %d, want 1", pos)
		}
		assertOrder(t, s, "x", "a", "b")
	})

	t.Run("empty collection", func(t *testing.T) {
		s := newMemStore()
		pos, err := NewManager(s).InsertAt(ctx, "x", 7)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if pos != 1 {
			t.Fatalf("pos = %d, want 1", pos)
		}
		assertOrder(t, s, "x")
	})
}

func TestMove(t *testing.T) {
	ctx := context.Background()

	t.Run("toward head shifts range up", func(t *testing.T) {
		s := newMemStore("a", "b", "c", "d", "e")
		pos, err := NewManager(s).Move(ctx, "d", 4, 2)
		if err != nil {
			t.Fatalf("move: %v", err)
		}
		if pos != 2 {
			t.Fatalf("pos = %d, want 2", pos)
		}
		assertOrder(t, s, "a", "d", "b", "c", "e")
	})

	t.Run("toward tail shifts range down", func(t *testing.T) {
		s := newMemStore("a", "b", "c", "d", "e")
		pos, err := NewManager(s).Move(ctx, "b", 2, 4)
		if err != nil {
			t.Fatalf("move: %v", err)
		}
		if pos != 4 {
			t.Fatalf("pos = %d, want 4", pos)
		}
		assertOrder(t, s, "a", "c", "d", "b", "e")
	})

	t.Run("same position is a no-op", func(t *testing.T) {
		s := newMemStore("a", "b", "c")
		s.failShift = true // any shift would error
		pos, err := NewManager(s).Move(ctx, "b", 2, 2)
		if err != nil {
			t.Fatalf("move: %v", err)
		}
		if pos != 2 {
			t.Fatalf("pos = %d, want 2", pos)
		}
		assertOrder(t, s, "a", "b", "c")
	})

	t.Run("clamps beyond tail", func(t *testing.T) {
		s := newMemStore("a", "b", "c")
		pos, err := NewManager(s).Move(ctx, "a", 1, 50)
		if err != nil {
			t.Fatalf("move: %v", err)
		}
		if pos != 3 {
			t.Fatalf("pos = %d, want 3", pos)
		}
		assertOrder(t, s, "b", "c", "a")
	})

	t.Run("members outside the range keep positions", func(t *testing.T) {
		s := newMemStore("a", "b", "c", "d", "e")
		if _, err := NewManager(s).Move(ctx, "c", 3, 4); err != nil {
			t.Fatalf("move: %v", err)
		}
		if s.positions["a"] != 1 || s.positions["b"] != 2 || s.positions["e"] != 5 {
			t.Fatalf("positions outside [3,4] moved: %v", s.positions)
		}
	})
}

func TestRemoveAt(t *testing.T) {
	ctx := context.Background()
	s := newMemStore("a", "b", "c", "d")
	delete(s.positions, "b")
	if err := NewManager(s).RemoveAt(ctx, 2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	assertOrder(t, s, "a", "c", "d")
}

func TestApplyTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("active to active moves", func(t *testing.T) {
		s := newMemStore("a", "b", "c")
		pos, err := NewManager(s).ApplyTransition(ctx, Transition{
			ID: "c", OldPos: 3, OldActive: true, NewActive: true, Requested: 1,
		})
		if err != nil {
			t.Fatalf("transition: %v", err)
		}
		if pos != 1 {
			t.Fatalf("pos = %d, want 1", pos)
		}
		assertOrder(t, s, "c", "a", "b")
	})

	t.Run("active to active without request keeps position", func(t *testing.T) {
		s := newMemStore("a", "b", "c")
		s.failShift = true
		pos, err := NewManager(s).ApplyTransition(ctx, Transition{
			ID: "b", OldPos: 2, OldActive: true, NewActive: true,
		})
		if err != nil {
			t.Fatalf("transition: %v", err)
		}
		if pos != 2 {
			t.Fatalf("pos = %d, want 2", pos)
		}
	})

	t.Run("deactivation compacts survivors", func(t *testing.T) {
		s := newMemStore("a", "b", "c", "d")
		delete(s.positions, "b") // caller drops the member from the population
		pos, err := NewManager(s).ApplyTransition(ctx, Transition{
			ID: "b", OldPos: 2, OldActive: true, NewActive: false,
		})
		if err != nil {
			t.Fatalf("transition: %v", err)
		}
		if pos != 2 {
			t.Fatalf("stale pos = %d, want 2", pos)
		}
		assertOrder(t, s, "a", "c", "d")
	})

	t.Run("reactivation inserts at requested position", func(t *testing.T) {
		s := newMemStore("a", "b", "c")
		pos, err := NewManager(s).ApplyTransition(ctx, Transition{
			ID: "x", OldPos: 9, OldActive: false, NewActive: true, Requested: 2,
		})
		if err != nil {
			t.Fatalf("transition: %v", err)
		}
		if pos != 2 {
			t.Fatalf("pos = %d, want 2", pos)
		}
		assertOrder(t, s, "a", "x", "b", "c")
	})

	t.Run("reactivation without request appends", func(t *testing.T) {
		s := newMemStore("a", "b")
		pos, err := NewManager(s).ApplyTransition(ctx, Transition{
			ID: "x", OldActive: false, NewActive: true,
		})
		if err != nil {
			t.Fatalf("transition: %v", err)
		}
		if pos != 3 {
			t.Fatalf("pos = %d, want 3", pos)
		}
		assertOrder(t, s, "a", "b", "x")
	})

	t.Run("inactive to inactive does nothing", func(t *testing.T) {
		s := newMemStore("a", "b")
		s.failShift = true
		pos, err := NewManager(s).ApplyTransition(ctx, Transition{
			ID: "x", OldPos: 7, OldActive: false, NewActive: false, Requested: 1,
		})
		if err != nil {
			t.Fatalf("transition: %v", err)
		}
		if pos != 7 {
			t.Fatalf("stale pos = %d, want 7", pos)
		}
		assertOrder(t, s, "a", "b")
	})
}

func TestShiftFailureAborts(t *testing.T) {
	ctx := context.Background()
	s := newMemStore("a", "b", "c")
	s.failShift = true
	if _, err := NewManager(s).InsertAt(ctx, "x", 1); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := NewManager(s).Move(ctx, "a", 1, 3); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if err := NewManager(s).RemoveAt(ctx, 1); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}

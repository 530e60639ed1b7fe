package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"storekeeper.org/internal/ordering"
)

// InMemoryStore implements Store with in-process concurrency safety. It backs
// tests and DSN-less development runs; production uses the Postgres store.
// InTx is a plain callback: the single mutex already serializes writers, and
// tests never rely on rollback.
type InMemoryStore struct {
	mu     sync.RWMutex
	brands map[string]*Brand
	cats   map[string]*Category
	faqs   map[string]*FAQ
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		brands: make(map[string]*Brand),
		cats:   make(map[string]*Category),
		faqs:   make(map[string]*FAQ),
	}
}

func (s *InMemoryStore) Brands(ctx context.Context) BrandStore        { return (*memBrands)(s) }
func (s *InMemoryStore) Categories(ctx context.Context) CategoryStore { return (*memCats)(s) }
func (s *InMemoryStore) Faqs(ctx context.Context) FAQStore            { return (*memFaqs)(s) }

func (s *InMemoryStore) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

// matchesSearch reports whether any of the fields contains the lowercase
// needle.
func matchesSearch(needle string, fields ...string) bool {
	if needle == "" {
		return true
	}
	needle = strings.ToLower(needle)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func pageBounds(total, offset, limit int) (int, int) {
	if offset >= total {
		return total, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return offset, end
}

type memBrands InMemoryStore

func (s *memBrands) Create(ctx context.Context, b *Brand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.brands[b.ID] = &cp
	return nil
}

func (s *memBrands) Find(ctx context.Context, id string) (*Brand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.brands[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *memBrands) FindBySlug(ctx context.Context, slug string) (*Brand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.brands {
		if b.Slug == slug && !b.IsDeleted {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memBrands) List(ctx context.Context, f ListFilter) ([]Brand, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Brand
	for _, b := range s.brands {
		if b.IsDeleted && !f.IncludeDeleted {
			continue
		}
		if f.ActiveOnly && !b.IsActive {
			continue
		}
		if !matchesSearch(f.Search, b.Name, b.Slug) {
			continue
		}
		out = append(out, *b)
	}
	sortListing(out, func(b Brand) (bool, int, string) { return b.IsActive && !b.IsDeleted, b.SortOrder, b.ID })
	total := len(out)
	lo, hi := pageBounds(total, f.Offset, f.Limit)
	return out[lo:hi], total, nil
}

func (s *memBrands) Update(ctx context.Context, b *Brand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.brands[b.ID]; !ok {
		return ErrNotFound
	}
	cp := *b
	s.brands[b.ID] = &cp
	return nil
}

func (s *memBrands) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.brands[id]; !ok {
		return ErrNotFound
	}
	delete(s.brands, id)
	return nil
}

func (s *memBrands) Ordering() ordering.Store {
	return &memOrdering{
		max: func() int {
			max := 0
			for _, b := range s.brands {
				if b.IsActive && !b.IsDeleted && b.SortOrder > max {
					max = b.SortOrder
				}
			}
			return max
		},
		shift: func(from, to, delta int, exclude string) {
			for _, b := range s.brands {
				if !b.IsActive || b.IsDeleted || b.ID == exclude {
					continue
				}
				if b.SortOrder >= from && b.SortOrder <= to {
					b.SortOrder += delta
				}
			}
		},
		place: func(id string, pos int) bool {
			b, ok := s.brands[id]
			if ok {
				b.SortOrder = pos
			}
			return ok
		},
		mu: &s.mu,
	}
}

type memCats InMemoryStore

func (s *memCats) Create(ctx context.Context, c *Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.cats[c.ID] = &cp
	return nil
}

func (s *memCats) Find(ctx context.Context, id string) (*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cats[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memCats) FindBySlug(ctx context.Context, slug string) (*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cats {
		if c.Slug == slug && !c.IsDeleted {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memCats) List(ctx context.Context, f ListFilter) ([]Category, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Category
	for _, c := range s.cats {
		if c.IsDeleted && !f.IncludeDeleted {
			continue
		}
		if f.ActiveOnly && !c.IsActive {
			continue
		}
		if !matchesSearch(f.Search, c.Name, c.Slug) {
			continue
		}
		out = append(out, *c)
	}
	sortListing(out, func(c Category) (bool, int, string) { return c.IsActive && !c.IsDeleted, c.SortOrder, c.ID })
	total := len(out)
	lo, hi := pageBounds(total, f.Offset, f.Limit)
	return out[lo:hi], total, nil
}

func (s *memCats) Update(ctx context.Context, c *Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	s.cats[c.ID] = &cp
	return nil
}

func (s *memCats) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[id]; !ok {
		return ErrNotFound
	}
	delete(s.cats, id)
	return nil
}

func (s *memCats) Ordering() ordering.Store {
	return &memOrdering{
		max: func() int {
			max := 0
			for _, c := range s.cats {
				if c.IsActive && !c.IsDeleted && c.SortOrder > max {
					max = c.SortOrder
				}
			}
			return max
		},
		shift: func(from, to, delta int, exclude string) {
			for _, c := range s.cats {
				if !c.IsActive || c.IsDeleted || c.ID == exclude {
					continue
				}
				if c.SortOrder >= from && c.SortOrder <= to {
					c.SortOrder += delta
				}
			}
		},
		place: func(id string, pos int) bool {
			c, ok := s.cats[id]
			if ok {
				c.SortOrder = pos
			}
			return ok
		},
		mu: &s.mu,
	}
}

type memFaqs InMemoryStore

func (s *memFaqs) Create(ctx context.Context, f *FAQ) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.faqs[f.ID] = &cp
	return nil
}

func (s *memFaqs) Find(ctx context.Context, id string) (*FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.faqs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *memFaqs) List(ctx context.Context, f ListFilter) ([]FAQ, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FAQ
	for _, q := range s.faqs {
		if q.IsDeleted && !f.IncludeDeleted {
			continue
		}
		if f.ActiveOnly && !q.IsActive {
			continue
		}
		if !matchesSearch(f.Search, q.Question) {
			continue
		}
		out = append(out, *q)
	}
	sortListing(out, func(q FAQ) (bool, int, string) { return q.IsActive && !q.IsDeleted, q.SortOrder, q.ID })
	total := len(out)
	lo, hi := pageBounds(total, f.Offset, f.Limit)
	return out[lo:hi], total, nil
}

func (s *memFaqs) Update(ctx context.Context, f *FAQ) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.faqs[f.ID]; !ok {
		return ErrNotFound
	}
	cp := *f
	s.faqs[f.ID] = &cp
	return nil
}

func (s *memFaqs) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.faqs[id]; !ok {
		return ErrNotFound
	}
	delete(s.faqs, id)
	return nil
}

func (s *memFaqs) Ordering() ordering.Store {
	return &memOrdering{
		max: func() int {
			max := 0
			for _, f := range s.faqs {
				if f.IsActive && !f.IsDeleted && f.SortOrder > max {
					max = f.SortOrder
				}
			}
			return max
		},
		shift: func(from, to, delta int, exclude string) {
			for _, f := range s.faqs {
				if !f.IsActive || f.IsDeleted || f.ID == exclude {
					continue
				}
				if f.SortOrder >= from && f.SortOrder <= to {
					f.SortOrder += delta
				}
			}
		},
		place: func(id string, pos int) bool {
			f, ok := s.faqs[id]
			if ok {
				f.SortOrder = pos
			}
			return ok
		},
		mu: &s.mu,
	}
}

// memOrdering adapts the closures of one collection to ordering.Store.
type memOrdering struct {
	max   func() int
	shift func(from, to, delta int, exclude string)
	place func(id string, pos int) bool
	mu    *sync.RWMutex
}

const noUpperBound = int(^uint(0) >> 1)

func (o *memOrdering) MaxPosition(ctx context.Context) (int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.max(), nil
}

func (o *memOrdering) ShiftFrom(ctx context.Context, from, delta int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.shift(from, noUpperBound, delta, "")
	return nil
}

func (o *memOrdering) ShiftBetween(ctx context.Context, from, to, delta int, excludeID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.shift(from, to, delta, excludeID)
	return nil
}

func (o *memOrdering) Place(ctx context.Context, id string, position int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.place(id, position) {
		return ErrNotFound
	}
	return nil
}

// sortListing orders active entities by sort position ahead of inactive and
// deleted ones, with id as a stable tiebreaker.
func sortListing[T any](items []T, key func(T) (bool, int, string)) {
	sort.Slice(items, func(i, j int) bool {
		ai, pi, idi := key(items[i])
		aj, pj, idj := key(items[j])
		if ai != aj {
			return ai
		}
		if pi != pj {
			return pi < pj
		}
		return idi < idj
	})
}

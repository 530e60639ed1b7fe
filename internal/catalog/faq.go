package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storekeeper.org/internal/ids"
	"storekeeper.org/internal/ordering"
)

// CreateFAQInput carries the fields accepted on FAQ creation.
type CreateFAQInput struct {
	Question string
	Answer   string
	Position int
	IsActive bool
}

// UpdateFAQInput carries partial updates; nil fields are left unchanged.
type UpdateFAQInput struct {
	Question *string
	Answer   *string
	Position *int
	IsActive *bool
}

// CreateFAQ inserts a FAQ entry, appending or shifting into the requested
// position when active.
func (s *Service) CreateFAQ(ctx context.Context, input CreateFAQInput) (*FAQ, error) {
	if input.Question == "" || input.Answer == "" {
		return nil, fmt.Errorf("%w: question and answer are required", ErrInvalidInput)
	}
	now := s.now()
	f := &FAQ{
		ID:        ids.New(),
		Question:  input.Question,
		Answer:    input.Answer,
		IsActive:  input.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.store.InTx(ctx, func(tx Store) error {
		faqs := tx.Faqs(ctx)
		if err := faqs.Create(ctx, f); err != nil {
			return err
		}
		if !f.IsActive {
			return nil
		}
		m := ordering.NewManager(faqs.Ordering())
		requested := input.Position
		if requested <= 0 {
			next, err := m.NextPosition(ctx)
			if err != nil {
				return err
			}
			requested = next
		}
		pos, err := m.InsertAt(ctx, f.ID, requested)
		if err != nil {
			return err
		}
		f.SortOrder = pos
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetFAQ returns a FAQ by id; soft-deleted rows read as missing.
func (s *Service) GetFAQ(ctx context.Context, id string) (*FAQ, error) {
	f, err := s.store.Faqs(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.IsDeleted {
		return nil, ErrNotFound
	}
	return f, nil
}

// ListFAQs returns a filtered page plus the total match count.
func (s *Service) ListFAQs(ctx context.Context, f ListFilter) ([]FAQ, int, error) {
	return s.store.Faqs(ctx).List(ctx, normalizeFilter(f))
}

// UpdateFAQ applies a partial update with the coupled reindex step.
func (s *Service) UpdateFAQ(ctx context.Context, id string, input UpdateFAQInput) (*FAQ, error) {
	var updated *FAQ
	err := s.store.InTx(ctx, func(tx Store) error {
		faqs := tx.Faqs(ctx)
		f, err := faqs.Find(ctx, id)
		if err != nil {
			return err
		}
		if f.IsDeleted {
			return ErrNotFound
		}
		if input.Question != nil {
			if *input.Question == "" {
				return fmt.Errorf("%w: question is required", ErrInvalidInput)
			}
			f.Question = *input.Question
		}
		if input.Answer != nil {
			if *input.Answer == "" {
				return fmt.Errorf("%w: answer is required", ErrInvalidInput)
			}
			f.Answer = *input.Answer
		}

		newActive := f.IsActive
		if input.IsActive != nil {
			newActive = *input.IsActive
		}
		requested := 0
		if input.Position != nil {
			requested = *input.Position
		}
		m := ordering.NewManager(faqs.Ordering())
		pos, err := m.ApplyTransition(ctx, ordering.Transition{
			ID:        f.ID,
			OldPos:    f.SortOrder,
			OldActive: f.IsActive,
			NewActive: newActive,
			Requested: requested,
		})
		if err != nil {
			return err
		}
		f.SortOrder = pos
		f.IsActive = newActive
		f.UpdatedAt = s.now()
		if err := faqs.Update(ctx, f); err != nil {
			return err
		}
		updated = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReorderFAQ moves an active FAQ to the requested position.
func (s *Service) ReorderFAQ(ctx context.Context, id string, position int) (*FAQ, error) {
	pos := position
	return s.UpdateFAQ(ctx, id, UpdateFAQInput{Position: &pos})
}

// SetFAQStatus toggles the active flag with the coupled reindex.
func (s *Service) SetFAQStatus(ctx context.Context, id string, active bool) (*FAQ, error) {
	return s.UpdateFAQ(ctx, id, UpdateFAQInput{IsActive: &active})
}

// DeleteFAQ soft-deletes a FAQ and closes the sequence gap.
func (s *Service) DeleteFAQ(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx Store) error {
		return softDeleteFAQ(ctx, s.now, tx.Faqs(ctx), id)
	})
}

// PurgeFAQ removes the row entirely.
func (s *Service) PurgeFAQ(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx Store) error {
		faqs := tx.Faqs(ctx)
		f, err := faqs.Find(ctx, id)
		if err != nil {
			return err
		}
		if err := faqs.Delete(ctx, f.ID); err != nil {
			return err
		}
		if f.IsActive && !f.IsDeleted {
			return ordering.NewManager(faqs.Ordering()).RemoveAt(ctx, f.SortOrder)
		}
		return nil
	})
}

// BulkSetFAQStatus toggles many FAQs in one transaction, skipping unknown
// or soft-deleted ids.
func (s *Service) BulkSetFAQStatus(ctx context.Context, faqIDs []string, active bool) error {
	return s.store.InTx(ctx, func(tx Store) error {
		faqs := tx.Faqs(ctx)
		m := ordering.NewManager(faqs.Ordering())
		for _, id := range faqIDs {
			f, err := faqs.Find(ctx, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
			if f.IsDeleted || f.IsActive == active {
				continue
			}
			pos, err := m.ApplyTransition(ctx, ordering.Transition{
				ID:        f.ID,
				OldPos:    f.SortOrder,
				OldActive: f.IsActive,
				NewActive: active,
			})
			if err != nil {
				return err
			}
			f.SortOrder = pos
			f.IsActive = active
			f.UpdatedAt = s.now()
			if err := faqs.Update(ctx, f); err != nil {
				return err
			}
		}
		return nil
	})
}

// BulkDeleteFAQs soft-deletes many FAQs in one transaction.
func (s *Service) BulkDeleteFAQs(ctx context.Context, faqIDs []string) error {
	return s.store.InTx(ctx, func(tx Store) error {
		faqs := tx.Faqs(ctx)
		for _, id := range faqIDs {
			if err := softDeleteFAQ(ctx, s.now, faqs, id); err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
		}
		return nil
	})
}

func softDeleteFAQ(ctx context.Context, now func() time.Time, faqs FAQStore, id string) error {
	f, err := faqs.Find(ctx, id)
	if err != nil {
		return err
	}
	if f.IsDeleted {
		return ErrNotFound
	}
	if f.IsActive {
		if err := ordering.NewManager(faqs.Ordering()).RemoveAt(ctx, f.SortOrder); err != nil {
			return err
		}
	}
	f.IsActive = false
	f.IsDeleted = true
	f.UpdatedAt = now()
	return faqs.Update(ctx, f)
}

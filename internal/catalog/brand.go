package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storekeeper.org/internal/ids"
	"storekeeper.org/internal/ordering"
)

// CreateBrandInput carries the fields accepted on brand creation. Position 0
// appends to the end of the active sequence; an explicit position inserts
// with a shift, clamped to the valid range.
type CreateBrandInput struct {
	Name        string
	Slug        string
	Description string
	Website     string
	IsFeatured  bool
	MetaTitle   string
	MetaDesc    string
	Position    int
	IsActive    bool
}

// UpdateBrandInput carries partial updates; nil fields are left unchanged.
type UpdateBrandInput struct {
	Name        *string
	Slug        *string
	Description *string
	Website     *string
	IsFeatured  *bool
	MetaTitle   *string
	MetaDesc    *string
	Position    *int
	IsActive    *bool
}

// CreateBrand inserts a brand, appending or shifting into the requested
// position when active. Inactive brands are created outside the ordered
// population with a zero sort position.
func (s *Service) CreateBrand(ctx context.Context, input CreateBrandInput) (*Brand, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: brand name is required", ErrInvalidInput)
	}
	slug, err := resolveSlug(input.Slug, input.Name)
	if err != nil {
		return nil, err
	}
	now := s.now()
	b := &Brand{
		ID:          ids.New(),
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
		Website:     input.Website,
		IsFeatured:  input.IsFeatured,
		MetaTitle:   input.MetaTitle,
		MetaDesc:    input.MetaDesc,
		IsActive:    input.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.store.InTx(ctx, func(tx Store) error {
		brands := tx.Brands(ctx)
		if err := ensureBrandSlugFree(ctx, brands, slug, ""); err != nil {
			return err
		}
		if err := brands.Create(ctx, b); err != nil {
			return err
		}
		if !b.IsActive {
			return nil
		}
		m := ordering.NewManager(brands.Ordering())
		requested := input.Position
		if requested <= 0 {
			next, err := m.NextPosition(ctx)
			if err != nil {
				return err
			}
			requested = next
		}
		pos, err := m.InsertAt(ctx, b.ID, requested)
		if err != nil {
			return err
		}
		b.SortOrder = pos
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBrand returns a brand by id; soft-deleted brands read as missing.
func (s *Service) GetBrand(ctx context.Context, id string) (*Brand, error) {
	b, err := s.store.Brands(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.IsDeleted {
		return nil, ErrNotFound
	}
	return b, nil
}

// ListBrands returns a filtered page plus the total match count.
func (s *Service) ListBrands(ctx context.Context, f ListFilter) ([]Brand, int, error) {
	return s.store.Brands(ctx).List(ctx, normalizeFilter(f))
}

// UpdateBrand applies a partial update. Position and status changes run the
// reindex step the transition implies within the same transaction.
func (s *Service) UpdateBrand(ctx context.Context, id string, input UpdateBrandInput) (*Brand, error) {
	var updated *Brand
	err := s.store.InTx(ctx, func(tx Store) error {
		brands := tx.Brands(ctx)
		b, err := brands.Find(ctx, id)
		if err != nil {
			return err
		}
		if b.IsDeleted {
			return ErrNotFound
		}
		if input.Name != nil {
			if *input.Name == "" {
				return fmt.Errorf("%w: brand name is required", ErrInvalidInput)
			}
			b.Name = *input.Name
		}
		if input.Slug != nil {
			slug, err := resolveSlug(*input.Slug, b.Name)
			if err != nil {
				return err
			}
			if slug != b.Slug {
				if err := ensureBrandSlugFree(ctx, brands, slug, b.ID); err != nil {
					return err
				}
				b.Slug = slug
			}
		}
		if input.Description != nil {
			b.Description = *input.Description
		}
		if input.Website != nil {
			b.Website = *input.Website
		}
		if input.IsFeatured != nil {
			b.IsFeatured = *input.IsFeatured
		}
		if input.MetaTitle != nil {
			b.MetaTitle = *input.MetaTitle
		}
		if input.MetaDesc != nil {
			b.MetaDesc = *input.MetaDesc
		}

		newActive := b.IsActive
		if input.IsActive != nil {
			newActive = *input.IsActive
		}
		requested := 0
		if input.Position != nil {
			requested = *input.Position
		}
		m := ordering.NewManager(brands.Ordering())
		pos, err := m.ApplyTransition(ctx, ordering.Transition{
			ID:        b.ID,
			OldPos:    b.SortOrder,
			OldActive: b.IsActive,
			NewActive: newActive,
			Requested: requested,
		})
		if err != nil {
			return err
		}
		b.SortOrder = pos
		b.IsActive = newActive
		b.UpdatedAt = s.now()
		if err := brands.Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReorderBrand moves an active brand to the requested position, clamped to
// the sequence bounds.
func (s *Service) ReorderBrand(ctx context.Context, id string, position int) (*Brand, error) {
	pos := position
	return s.UpdateBrand(ctx, id, UpdateBrandInput{Position: &pos})
}

// SetBrandStatus toggles the active flag, entering or leaving the ordered
// sequence as the transition requires.
func (s *Service) SetBrandStatus(ctx context.Context, id string, active bool) (*Brand, error) {
	return s.UpdateBrand(ctx, id, UpdateBrandInput{IsActive: &active})
}

// DeleteBrand soft-deletes a brand and closes the gap it leaves in the
// active sequence.
func (s *Service) DeleteBrand(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx Store) error {
		brands := tx.Brands(ctx)
		return softDeleteBrand(ctx, s.now, brands, id)
	})
}

// PurgeBrand removes the row entirely. A still-active brand leaves the
// sequence first.
func (s *Service) PurgeBrand(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx Store) error {
		brands := tx.Brands(ctx)
		b, err := brands.Find(ctx, id)
		if err != nil {
			return err
		}
		if b.IsActive && !b.IsDeleted {
			if err := brands.Delete(ctx, b.ID); err != nil {
				return err
			}
			return ordering.NewManager(brands.Ordering()).RemoveAt(ctx, b.SortOrder)
		}
		return brands.Delete(ctx, b.ID)
	})
}

// BulkSetBrandStatus toggles many brands in one transaction. Unknown or
// soft-deleted ids are skipped, matching the tolerant bulk semantics of the
// admin UI.
func (s *Service) BulkSetBrandStatus(ctx context.Context, brandIDs []string, active bool) error {
	return s.store.InTx(ctx, func(tx Store) error {
		brands := tx.Brands(ctx)
		m := ordering.NewManager(brands.Ordering())
		for _, id := range brandIDs {
			b, err := brands.Find(ctx, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
			if b.IsDeleted || b.IsActive == active {
				continue
			}
			pos, err := m.ApplyTransition(ctx, ordering.Transition{
				ID:        b.ID,
				OldPos:    b.SortOrder,
				OldActive: b.IsActive,
				NewActive: active,
			})
			if err != nil {
				return err
			}
			b.SortOrder = pos
			b.IsActive = active
			b.UpdatedAt = s.now()
			if err := brands.Update(ctx, b); err != nil {
				return err
			}
		}
		return nil
	})
}

// BulkDeleteBrands soft-deletes many brands in one transaction, skipping
// unknown ids.
func (s *Service) BulkDeleteBrands(ctx context.Context, brandIDs []string) error {
	return s.store.InTx(ctx, func(tx Store) error {
		brands := tx.Brands(ctx)
		for _, id := range brandIDs {
			if err := softDeleteBrand(ctx, s.now, brands, id); err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
		}
		return nil
	})
}

func softDeleteBrand(ctx context.Context, now func() time.Time, brands BrandStore, id string) error {
	b, err := brands.Find(ctx, id)
	if err != nil {
		return err
	}
	if b.IsDeleted {
		return ErrNotFound
	}
	if b.IsActive {
		if err := ordering.NewManager(brands.Ordering()).RemoveAt(ctx, b.SortOrder); err != nil {
			return err
		}
	}
	b.IsActive = false
	b.IsDeleted = true
	b.UpdatedAt = now()
	return brands.Update(ctx, b)
}

func ensureBrandSlugFree(ctx context.Context, brands BrandStore, slug, selfID string) error {
	existing, err := brands.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return fmt.Errorf("%w: brand slug %q", ErrAlreadyExists, slug)
}

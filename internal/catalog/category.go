package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storekeeper.org/internal/ids"
	"storekeeper.org/internal/ordering"
)

// CreateCategoryInput carries the fields accepted on category creation.
type CreateCategoryInput struct {
	Name        string
	Slug        string
	Description string
	ParentID    string
	MetaTitle   string
	MetaDesc    string
	Position    int
	IsActive    bool
}

// UpdateCategoryInput carries partial updates; nil fields are left
// unchanged. An explicit empty ParentID detaches the category from its
// parent.
type UpdateCategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
	ParentID    *string
	MetaTitle   *string
	MetaDesc    *string
	Position    *int
	IsActive    *bool
}

// CreateCategory inserts a category, appending or shifting into the
// requested position when active.
func (s *Service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*Category, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	slug, err := resolveSlug(input.Slug, input.Name)
	if err != nil {
		return nil, err
	}
	now := s.now()
	c := &Category{
		ID:          ids.New(),
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
		ParentID:    input.ParentID,
		MetaTitle:   input.MetaTitle,
		MetaDesc:    input.MetaDesc,
		IsActive:    input.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.store.InTx(ctx, func(tx Store) error {
		cats := tx.Categories(ctx)
		if err := ensureCategorySlugFree(ctx, cats, slug, ""); err != nil {
			return err
		}
		if c.ParentID != "" {
			if err := ensureParentCategory(ctx, cats, c.ParentID, c.ID); err != nil {
				return err
			}
		}
		if err := cats.Create(ctx, c); err != nil {
			return err
		}
		if !c.IsActive {
			return nil
		}
		m := ordering.NewManager(cats.Ordering())
		requested := input.Position
		if requested <= 0 {
			next, err := m.NextPosition(ctx)
			if err != nil {
				return err
			}
			requested = next
		}
		pos, err := m.InsertAt(ctx, c.ID, requested)
		if err != nil {
			return err
		}
		c.SortOrder = pos
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategory returns a category by id; soft-deleted rows read as missing.
func (s *Service) GetCategory(ctx context.Context, id string) (*Category, error) {
	c, err := s.store.Categories(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted {
		return nil, ErrNotFound
	}
	return c, nil
}

// ListCategories returns a filtered page plus the total match count.
func (s *Service) ListCategories(ctx context.Context, f ListFilter) ([]Category, int, error) {
	return s.store.Categories(ctx).List(ctx, normalizeFilter(f))
}

// UpdateCategory applies a partial update, running the reindex step any
// position or status transition implies.
func (s *Service) UpdateCategory(ctx context.Context, id string, input UpdateCategoryInput) (*Category, error) {
	var updated *Category
	err := s.store.InTx(ctx, func(tx Store) error {
		cats := tx.Categories(ctx)
		c, err := cats.Find(ctx, id)
		if err != nil {
			return err
		}
		if c.IsDeleted {
			return ErrNotFound
		}
		if input.Name != nil {
			if *input.Name == "" {
				return fmt.Errorf("%w: category name is required", ErrInvalidInput)
			}
			c.Name = *input.Name
		}
		if input.Slug != nil {
			slug, err := resolveSlug(*input.Slug, c.Name)
			if err != nil {
				return err
			}
			if slug != c.Slug {
				if err := ensureCategorySlugFree(ctx, cats, slug, c.ID); err != nil {
					return err
				}
				c.Slug = slug
			}
		}
		if input.Description != nil {
			c.Description = *input.Description
		}
		if input.ParentID != nil {
			if *input.ParentID != "" {
				if err := ensureParentCategory(ctx, cats, *input.ParentID, c.ID); err != nil {
					return err
				}
			}
			c.ParentID = *input.ParentID
		}
		if input.MetaTitle != nil {
			c.MetaTitle = *input.MetaTitle
		}
		if input.MetaDesc != nil {
			c.MetaDesc = *input.MetaDesc
		}

		newActive := c.IsActive
		if input.IsActive != nil {
			newActive = *input.IsActive
		}
		requested := 0
		if input.Position != nil {
			requested = *input.Position
		}
		m := ordering.NewManager(cats.Ordering())
		pos, err := m.ApplyTransition(ctx, ordering.Transition{
			ID:        c.ID,
			OldPos:    c.SortOrder,
			OldActive: c.IsActive,
			NewActive: newActive,
			Requested: requested,
		})
		if err != nil {
			return err
		}
		c.SortOrder = pos
		c.IsActive = newActive
		c.UpdatedAt = s.now()
		if err := cats.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReorderCategory moves an active category to the requested position.
func (s *Service) ReorderCategory(ctx context.Context, id string, position int) (*Category, error) {
	pos := position
	return s.UpdateCategory(ctx, id, UpdateCategoryInput{Position: &pos})
}

// SetCategoryStatus toggles the active flag with the coupled reindex.
func (s *Service) SetCategoryStatus(ctx context.Context, id string, active bool) (*Category, error) {
	return s.UpdateCategory(ctx, id, UpdateCategoryInput{IsActive: &active})
}

// DeleteCategory soft-deletes a category and closes the sequence gap.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx Store) error {
		return softDeleteCategory(ctx, s.now, tx.Categories(ctx), id)
	})
}

// PurgeCategory removes the row entirely.
func (s *Service) PurgeCategory(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx Store) error {
		cats := tx.Categories(ctx)
		c, err := cats.Find(ctx, id)
		if err != nil {
			return err
		}
		if err := cats.Delete(ctx, c.ID); err != nil {
			return err
		}
		if c.IsActive && !c.IsDeleted {
			return ordering.NewManager(cats.Ordering()).RemoveAt(ctx, c.SortOrder)
		}
		return nil
	})
}

// BulkSetCategoryStatus toggles many categories in one transaction,
// skipping unknown or soft-deleted ids.
func (s *Service) BulkSetCategoryStatus(ctx context.Context, categoryIDs []string, active bool) error {
	return s.store.InTx(ctx, func(tx Store) error {
		cats := tx.Categories(ctx)
		m := ordering.NewManager(cats.Ordering())
		for _, id := range categoryIDs {
			c, err := cats.Find(ctx, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
			if c.IsDeleted || c.IsActive == active {
				continue
			}
			pos, err := m.ApplyTransition(ctx, ordering.Transition{
				ID:        c.ID,
				OldPos:    c.SortOrder,
				OldActive: c.IsActive,
				NewActive: active,
			})
			if err != nil {
				return err
			}
			c.SortOrder = pos
			c.IsActive = active
			c.UpdatedAt = s.now()
			if err := cats.Update(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// BulkDeleteCategories soft-deletes many categories in one transaction.
func (s *Service) BulkDeleteCategories(ctx context.Context, categoryIDs []string) error {
	return s.store.InTx(ctx, func(tx Store) error {
		cats := tx.Categories(ctx)
		for _, id := range categoryIDs {
			if err := softDeleteCategory(ctx, s.now, cats, id); err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
		}
		return nil
	})
}

func softDeleteCategory(ctx context.Context, now func() time.Time, cats CategoryStore, id string) error {
	c, err := cats.Find(ctx, id)
	if err != nil {
		return err
	}
	if c.IsDeleted {
		return ErrNotFound
	}
	if c.IsActive {
		if err := ordering.NewManager(cats.Ordering()).RemoveAt(ctx, c.SortOrder); err != nil {
			return err
		}
	}
	c.IsActive = false
	c.IsDeleted = true
	c.UpdatedAt = now()
	return cats.Update(ctx, c)
}

func ensureCategorySlugFree(ctx context.Context, cats CategoryStore, slug, selfID string) error {
	existing, err := cats.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return fmt.Errorf("%w: category slug %q", ErrAlreadyExists, slug)
}

// ensureParentCategory rejects unknown, deleted or self parents. Deeper
// cycles are prevented by only allowing one nesting level in the admin UI;
// the service only guards the direct self-reference.
func ensureParentCategory(ctx context.Context, cats CategoryStore, parentID, selfID string) error {
	if parentID == selfID {
		return fmt.Errorf("%w: category cannot be its own parent", ErrInvalidInput)
	}
	parent, err := cats.Find(ctx, parentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: parent category %s", ErrInvalidInput, parentID)
		}
		return err
	}
	if parent.IsDeleted {
		return fmt.Errorf("%w: parent category %s", ErrInvalidInput, parentID)
	}
	return nil
}

package catalog

import (
	"context"

	"storekeeper.org/internal/ordering"
)

// Store is the persistence surface for the catalog collections. InTx runs fn
// within one transaction; every store obtained from the Store passed to fn
// routes through that transaction, so a reorder's shifts and the entity write
// commit or abort together.
type Store interface {
	Brands(ctx context.Context) BrandStore
	Categories(ctx context.Context) CategoryStore
	Faqs(ctx context.Context) FAQStore
	InTx(ctx context.Context, fn func(Store) error) error
}

// BrandStore persists brands. Find returns soft-deleted rows too; listings
// apply the filter. Ordering exposes the collection's active population to
// the reindex manager.
type BrandStore interface {
	Create(ctx context.Context, b *Brand) error
	Find(ctx context.Context, id string) (*Brand, error)
	FindBySlug(ctx context.Context, slug string) (*Brand, error)
	List(ctx context.Context, f ListFilter) ([]Brand, int, error)
	Update(ctx context.Context, b *Brand) error
	Delete(ctx context.Context, id string) error
	Ordering() ordering.Store
}

// CategoryStore persists categories.
type CategoryStore interface {
	Create(ctx context.Context, c *Category) error
	Find(ctx context.Context, id string) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	List(ctx context.Context, f ListFilter) ([]Category, int, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
	Ordering() ordering.Store
}

// FAQStore persists FAQ entries.
type FAQStore interface {
	Create(ctx context.Context, f *FAQ) error
	Find(ctx context.Context, id string) (*FAQ, error)
	List(ctx context.Context, f ListFilter) ([]FAQ, int, error)
	Update(ctx context.Context, f *FAQ) error
	Delete(ctx context.Context, id string) error
	Ordering() ordering.Store
}

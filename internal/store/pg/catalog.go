package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storekeeper.org/internal/catalog"
	"storekeeper.org/internal/ordering"
)

// catalogStore routes catalog reads and writes through either the pool or,
// inside InTx, a single transaction.
type catalogStore struct {
	db *sql.DB
	q  querier
}

var _ catalog.Store = (*catalogStore)(nil)

func (c *catalogStore) Brands(ctx context.Context) catalog.BrandStore {
	return &brandStore{q: c.q}
}

func (c *catalogStore) Categories(ctx context.Context) catalog.CategoryStore {
	return &categoryStore{q: c.q}
}

func (c *catalogStore) Faqs(ctx context.Context) catalog.FAQStore {
	return &faqStore{q: c.q}
}

// InTx begins a transaction and hands fn a store bound to it. Nested calls
// reuse the outer transaction.
func (c *catalogStore) InTx(ctx context.Context, fn func(catalog.Store) error) error {
	if _, ok := c.q.(*sql.Tx); ok {
		return fn(c)
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(&catalogStore{db: c.db, q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// orderingSQL implements ordering.Store for one table. The shifts run as
// single bulk UPDATEs over the active population, so the sequence never
// holds transient duplicates mid-operation.
type orderingSQL struct {
	q     querier
	table string
}

func (o *orderingSQL) MaxPosition(ctx context.Context) (int, error) {
	var max int
	err := o.q.QueryRowContext(ctx, fmt.Sprintf(`
		select coalesce(max(sort_order), 0) from %s
		where is_active and not is_deleted
	`, o.table)).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (o *orderingSQL) ShiftFrom(ctx context.Context, from, delta int) error {
	_, err := o.q.ExecContext(ctx, fmt.Sprintf(`
		update %s set sort_order = sort_order + $1
		where is_active and not is_deleted and sort_order >= $2
	`, o.table), delta, from)
	return err
}

func (o *orderingSQL) ShiftBetween(ctx context.Context, from, to, delta int, excludeID string) error {
	_, err := o.q.ExecContext(ctx, fmt.Sprintf(`
		update %s set sort_order = sort_order + $1
		where is_active and not is_deleted
		  and sort_order between $2 and $3
		  and id <> $4
	`, o.table), delta, from, to, excludeID)
	return err
}

func (o *orderingSQL) Place(ctx context.Context, id string, position int) error {
	res, err := o.q.ExecContext(ctx, fmt.Sprintf(`
		update %s set sort_order = $2 where id = $1
	`, o.table), id, position)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// listArgs builds the shared where clause for collection listings. The
// search predicate is supplied per table to cover its text fields.
func listClauses(f catalog.ListFilter, searchSQL string) (string, []any) {
	where := `where true`
	var args []any
	if !f.IncludeDeleted {
		where += ` and not is_deleted`
	}
	if f.ActiveOnly {
		where += ` and is_active`
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(searchSQL, len(args))
	}
	return where, args
}

const listOrder = ` order by (is_active and not is_deleted) desc, sort_order, id`

type brandStore struct {
	q querier
}

const brandColumns = `id, name, slug, description, website, is_featured,
	meta_title, meta_description, sort_order, is_active, is_deleted, created_at, updated_at`

func scanBrand(row interface{ Scan(dest ...any) error }) (*catalog.Brand, error) {
	var (
		b                      catalog.Brand
		desc, site, mTit, mDes sql.NullString
	)
	err := row.Scan(&b.ID, &b.Name, &b.Slug, &desc, &site, &b.IsFeatured,
		&mTit, &mDes, &b.SortOrder, &b.IsActive, &b.IsDeleted, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Description = desc.String
	b.Website = site.String
	b.MetaTitle = mTit.String
	b.MetaDesc = mDes.String
	return &b, nil
}

func (s *brandStore) Create(ctx context.Context, b *catalog.Brand) error {
	if _, err := s.q.ExecContext(ctx, `
		insert into brands (id, name, slug, description, website, is_featured,
			meta_title, meta_description, sort_order, is_active, is_deleted, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, b.ID, b.Name, b.Slug, nullIfEmpty(b.Description), nullIfEmpty(b.Website), b.IsFeatured,
		nullIfEmpty(b.MetaTitle), nullIfEmpty(b.MetaDesc), b.SortOrder, b.IsActive, b.IsDeleted,
		b.CreatedAt, b.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return catalog.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *brandStore) Find(ctx context.Context, id string) (*catalog.Brand, error) {
	return scanBrand(s.q.QueryRowContext(ctx,
		`select `+brandColumns+` from brands where id = $1`, id))
}

func (s *brandStore) FindBySlug(ctx context.Context, slug string) (*catalog.Brand, error) {
	return scanBrand(s.q.QueryRowContext(ctx,
		`select `+brandColumns+` from brands where slug = $1 and not is_deleted`, slug))
}

func (s *brandStore) List(ctx context.Context, f catalog.ListFilter) ([]catalog.Brand, int, error) {
	where, args := listClauses(f, ` and (name ilike $%d or slug ilike $%[1]d)`)

	var total int
	if err := s.q.QueryRowContext(ctx,
		`select count(*) from brands `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := s.q.QueryContext(ctx, fmt.Sprintf(
		`select `+brandColumns+` from brands %s%s limit $%d offset $%d`,
		where, listOrder, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []catalog.Brand
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

func (s *brandStore) Update(ctx context.Context, b *catalog.Brand) error {
	res, err := s.q.ExecContext(ctx, `
		update brands set name = $2, slug = $3, description = $4, website = $5,
			is_featured = $6, meta_title = $7, meta_description = $8,
			sort_order = $9, is_active = $10, is_deleted = $11, updated_at = $12
		where id = $1
	`, b.ID, b.Name, b.Slug, nullIfEmpty(b.Description), nullIfEmpty(b.Website),
		b.IsFeatured, nullIfEmpty(b.MetaTitle), nullIfEmpty(b.MetaDesc),
		b.SortOrder, b.IsActive, b.IsDeleted, b.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return catalog.ErrAlreadyExists
		}
		return err
	}
	return requireCatalogAffected(res)
}

func (s *brandStore) Delete(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `delete from brands where id = $1`, id)
	if err != nil {
		return err
	}
	return requireCatalogAffected(res)
}

func (s *brandStore) Ordering() ordering.Store {
	return &orderingSQL{q: s.q, table: "brands"}
}

type categoryStore struct {
	q querier
}

const categoryColumns = `id, name, slug, description, parent_id,
	meta_title, meta_description, sort_order, is_active, is_deleted, created_at, updated_at`

func scanCategory(row interface{ Scan(dest ...any) error }) (*catalog.Category, error) {
	var (
		c                        catalog.Category
		desc, parent, mTit, mDes sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &desc, &parent,
		&mTit, &mDes, &c.SortOrder, &c.IsActive, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Description = desc.String
	c.ParentID = parent.String
	c.MetaTitle = mTit.String
	c.MetaDesc = mDes.String
	return &c, nil
}

func (s *categoryStore) Create(ctx context.Context, c *catalog.Category) error {
	if _, err := s.q.ExecContext(ctx, `
		insert into categories (id, name, slug, description, parent_id,
			meta_title, meta_description, sort_order, is_active, is_deleted, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, c.ID, c.Name, c.Slug, nullIfEmpty(c.Description), nullIfEmpty(c.ParentID),
		nullIfEmpty(c.MetaTitle), nullIfEmpty(c.MetaDesc), c.SortOrder, c.IsActive, c.IsDeleted,
		c.CreatedAt, c.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return catalog.ErrAlreadyExists
			case pgErrForeignKeyViolation:
				return fmt.Errorf("%w: parent category", catalog.ErrInvalidInput)
			}
		}
		return err
	}
	return nil
}

func (s *categoryStore) Find(ctx context.Context, id string) (*catalog.Category, error) {
	return scanCategory(s.q.QueryRowContext(ctx,
		`select `+categoryColumns+` from categories where id = $1`, id))
}

func (s *categoryStore) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	return scanCategory(s.q.QueryRowContext(ctx,
		`select `+categoryColumns+` from categories where slug = $1 and not is_deleted`, slug))
}

func (s *categoryStore) List(ctx context.Context, f catalog.ListFilter) ([]catalog.Category, int, error) {
	where, args := listClauses(f, ` and (name ilike $%d or slug ilike $%[1]d)`)

	var total int
	if err := s.q.QueryRowContext(ctx,
		`select count(*) from categories `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := s.q.QueryContext(ctx, fmt.Sprintf(
		`select `+categoryColumns+` from categories %s%s limit $%d offset $%d`,
		where, listOrder, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []catalog.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (s *categoryStore) Update(ctx context.Context, c *catalog.Category) error {
	res, err := s.q.ExecContext(ctx, `
		update categories set name = $2, slug = $3, description = $4, parent_id = $5,
			meta_title = $6, meta_description = $7,
			sort_order = $8, is_active = $9, is_deleted = $10, updated_at = $11
		where id = $1
	`, c.ID, c.Name, c.Slug, nullIfEmpty(c.Description), nullIfEmpty(c.ParentID),
		nullIfEmpty(c.MetaTitle), nullIfEmpty(c.MetaDesc),
		c.SortOrder, c.IsActive, c.IsDeleted, c.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return catalog.ErrAlreadyExists
		}
		return err
	}
	return requireCatalogAffected(res)
}

func (s *categoryStore) Delete(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `delete from categories where id = $1`, id)
	if err != nil {
		return err
	}
	return requireCatalogAffected(res)
}

func (s *categoryStore) Ordering() ordering.Store {
	return &orderingSQL{q: s.q, table: "categories"}
}

type faqStore struct {
	q querier
}

const faqColumns = `id, question, answer, sort_order, is_active, is_deleted, created_at, updated_at`

func scanFAQ(row interface{ Scan(dest ...any) error }) (*catalog.FAQ, error) {
	var f catalog.FAQ
	err := row.Scan(&f.ID, &f.Question, &f.Answer, &f.SortOrder, &f.IsActive, &f.IsDeleted,
		&f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *faqStore) Create(ctx context.Context, f *catalog.FAQ) error {
	_, err := s.q.ExecContext(ctx, `
		insert into faqs (id, question, answer, sort_order, is_active, is_deleted, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, f.ID, f.Question, f.Answer, f.SortOrder, f.IsActive, f.IsDeleted, f.CreatedAt, f.UpdatedAt)
	return err
}

func (s *faqStore) Find(ctx context.Context, id string) (*catalog.FAQ, error) {
	return scanFAQ(s.q.QueryRowContext(ctx,
		`select `+faqColumns+` from faqs where id = $1`, id))
}

func (s *faqStore) List(ctx context.Context, f catalog.ListFilter) ([]catalog.FAQ, int, error) {
	where, args := listClauses(f, ` and question ilike $%d`)

	var total int
	if err := s.q.QueryRowContext(ctx,
		`select count(*) from faqs `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := s.q.QueryContext(ctx, fmt.Sprintf(
		`select `+faqColumns+` from faqs %s%s limit $%d offset $%d`,
		where, listOrder, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []catalog.FAQ
	for rows.Next() {
		q, err := scanFAQ(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *q)
	}
	return out, total, rows.Err()
}

func (s *faqStore) Update(ctx context.Context, f *catalog.FAQ) error {
	res, err := s.q.ExecContext(ctx, `
		update faqs set question = $2, answer = $3, sort_order = $4,
			is_active = $5, is_deleted = $6, updated_at = $7
		where id = $1
	`, f.ID, f.Question, f.Answer, f.SortOrder, f.IsActive, f.IsDeleted, f.UpdatedAt)
	if err != nil {
		return err
	}
	return requireCatalogAffected(res)
}

func (s *faqStore) Delete(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `delete from faqs where id = $1`, id)
	if err != nil {
		return err
	}
	return requireCatalogAffected(res)
}

func (s *faqStore) Ordering() ordering.Store {
	return &orderingSQL{q: s.q, table: "faqs"}
}

func requireCatalogAffected(res sql.Result) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(NewInMemoryStore())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

// seedBrands creates n active brands named b1..bn, appended in order.
func seedBrands(t *testing.T, svc *Service, n int) []string {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		b, err := svc.CreateBrand(ctx, CreateBrandInput{
			Name:     fmt.Sprintf("b%d", i),
			IsActive: true,
		})
		if err != nil {
			t.Fatalf("seed brand %d: %v", i, err)
		}
		ids = append(ids, b.ID)
	}
	return ids
}

// activeBrandNames lists active brands in sequence order, asserting the
// dense invariant along the way.
func activeBrandNames(t *testing.T, svc *Service) []string {
	t.Helper()
	items, _, err := svc.ListBrands(context.Background(), ListFilter{ActiveOnly: true, Limit: 100})
	if err != nil {
		t.Fatalf("list brands: %v", err)
	}
	names := make([]string, 0, len(items))
	for i, b := range items {
		if b.SortOrder != i+1 {
			t.Fatalf("sequence not dense: %s at sort %d, want %d", b.Name, b.SortOrder, i+1)
		}
		names = append(names, b.Name)
	}
	return names
}

func assertNames(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCreateBrandAppends(t *testing.T) {
	svc := newTestService(t)
	seedBrands(t, svc, 3)
	assertNames(t, activeBrandNames(t, svc), []string{"b1", "b2", "b3"})
}

func TestCreateBrandInsertShifts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedBrands(t, svc, 3)

	b, err := svc.CreateBrand(ctx, CreateBrandInput{Name: "mid", Position: 2, IsActive: true})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if b.SortOrder != 2 {
		t.Fatalf("sort = %d, want 2", b.SortOrder)
	}
	assertNames(t, activeBrandNames(t, svc), []string{"b1", "mid", "b2", "b3"})
}

func TestCreateBrandInactiveStaysOutsideSequence(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedBrands(t, svc, 2)

	b, err := svc.CreateBrand(ctx, CreateBrandInput{Name: "dormant"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.SortOrder != 0 {
		t.Fatalf("inactive brand got sort %d, want 0", b.SortOrder)
	}
	assertNames(t, activeBrandNames(t, svc), []string{"b1", "b2"})
}

func TestCreateBrandSlugConflict(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, err := svc.CreateBrand(ctx, CreateBrandInput{Name: "Acme Corp", IsActive: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.CreateBrand(ctx, CreateBrandInput{Name: "ACME corp", IsActive: true})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestReorderBrand(t *testing.T) {
	svc := newTestService(t)
	ids := seedBrands(t, svc, 4)

	if _, err := svc.ReorderBrand(context.Background(), ids[3], 1); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	assertNames(t, activeBrandNames(t, svc), []string{"b4", "b1", "b2", "b3"})
}

func TestReorderBrandOntoOwnPosition(t *testing.T) {
	svc := newTestService(t)
	ids := seedBrands(t, svc, 3)

	if _, err := svc.ReorderBrand(context.Background(), ids[1], 2); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	assertNames(t, activeBrandNames(t, svc), []string{"b1", "b2", "b3"})
}

func TestReorderBrandClampsBeyondTail(t *testing.T) {
	svc := newTestService(t)
	ids := seedBrands(t, svc, 3)

	b, err := svc.ReorderBrand(context.Background(), ids[0], 99)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if b.SortOrder != 3 {
		t.Fatalf("sort = %d, want 3", b.SortOrder)
	}
	assertNames(t, activeBrandNames(t, svc), []string{"b2", "b3", "b1"})
}

func TestDeleteBrandClosesGap(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	ids := seedBrands(t, svc, 4)

	if err := svc.DeleteBrand(ctx, ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	assertNames(t, activeBrandNames(t, svc), []string{"b1", "b3", "b4"})

	if _, err := svc.GetBrand(ctx, ids[1]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("soft-deleted brand still readable: %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	ids := seedBrands(t, svc, 4)

	// Active -> inactive removes from the sequence.
	if _, err := svc.SetBrandStatus(ctx, ids[1], false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	assertNames(t, activeBrandNames(t, svc), []string{"b1", "b3", "b4"})

	// Inactive -> active appends to the end.
	b, err := svc.SetBrandStatus(ctx, ids[1], true)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if b.SortOrder != 4 {
		t.Fatalf("reactivated sort = %d, want 4", b.SortOrder)
	}
	assertNames(t, activeBrandNames(t, svc), []string{"b1", "b3", "b4", "b2"})
}

func TestReactivateAtRequestedPosition(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	ids := seedBrands(t, svc, 3)

	if _, err := svc.SetBrandStatus(ctx, ids[2], false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	pos, active := 1, true
	b, err := svc.UpdateBrand(ctx, ids[2], UpdateBrandInput{Position: &pos, IsActive: &active})
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if b.SortOrder != 1 {
		t.Fatalf("sort = %d, want 1", b.SortOrder)
	}
	assertNames(t, activeBrandNames(t, svc), []string{"b3", "b1", "b2"})
}

func TestInsertThenPurgeRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedBrands(t, svc, 3)

	b, err := svc.CreateBrand(ctx, CreateBrandInput{Name: "transient", Position: 2, IsActive: true})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := svc.PurgeBrand(ctx, b.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}
	assertNames(t, activeBrandNames(t, svc), []string{"b1", "b2", "b3"})
}

func TestBulkSetBrandStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	ids := seedBrands(t, svc, 4)

	err := svc.BulkSetBrandStatus(ctx, []string{ids[0], ids[2], "missing"}, false)
	if err != nil {
		t.Fatalf("bulk deactivate: %v", err)
	}
	assertNames(t, activeBrandNames(t, svc), []string{"b2", "b4"})
}

func TestBulkDeleteBrands(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	ids := seedBrands(t, svc, 3)

	if err := svc.BulkDeleteBrands(ctx, []string{ids[0], "missing", ids[2]}); err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	assertNames(t, activeBrandNames(t, svc), []string{"b2"})
}

func TestListBrandsPagination(t *testing.T) {
	svc := newTestService(t)
	seedBrands(t, svc, 5)

	items, total, err := svc.ListBrands(context.Background(), ListFilter{ActiveOnly: true, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(items) != 2 || items[0].Name != "b3" || items[1].Name != "b4" {
		t.Fatalf("unexpected page: %+v", items)
	}
}

func TestCategoryParentValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	parent, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Apparel", IsActive: true})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Shoes", ParentID: parent.ID, IsActive: true})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	if _, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Hats", ParentID: "missing", IsActive: true}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown parent accepted: %v", err)
	}
	self := child.ID
	if _, err := svc.UpdateCategory(ctx, child.ID, UpdateCategoryInput{ParentID: &self}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("self parent accepted: %v", err)
	}
}

func TestCategorySequenceIndependentOfBrands(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedBrands(t, svc, 3)

	c, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "First", IsActive: true})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if c.SortOrder != 1 {
		t.Fatalf("category sort = %d, want 1 (brands must not count)", c.SortOrder)
	}
}

func TestFAQValidationAndOrdering(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.CreateFAQ(ctx, CreateFAQInput{Question: "q"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing answer accepted: %v", err)
	}

	var faqIDs []string
	for i := 1; i <= 3; i++ {
		f, err := svc.CreateFAQ(ctx, CreateFAQInput{
			Question: fmt.Sprintf("q%d", i),
			Answer:   "a",
			IsActive: true,
		})
		if err != nil {
			t.Fatalf("create faq: %v", err)
		}
		faqIDs = append(faqIDs, f.ID)
	}
	f, err := svc.ReorderFAQ(ctx, faqIDs[2], 1)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if f.SortOrder != 1 {
		t.Fatalf("sort = %d, want 1", f.SortOrder)
	}
	if err := svc.DeleteFAQ(ctx, faqIDs[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, _, err := svc.ListFAQs(ctx, ListFilter{ActiveOnly: true, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].Question != "q3" || items[1].Question != "q2" {
		t.Fatalf("unexpected order: %+v", items)
	}
	for i, q := range items {
		if q.SortOrder != i+1 {
			t.Fatalf("faq sequence not dense: %+v", items)
		}
	}
}

func TestUpdateBrandFields(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	ids := seedBrands(t, svc, 1)

	name, site, featured := "Rebranded", "https://example.com", true
	b, err := svc.UpdateBrand(ctx, ids[0], UpdateBrandInput{
		Name:       &name,
		Website:    &site,
		IsFeatured: &featured,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if b.Name != "Rebranded" || b.Website != site || !b.IsFeatured {
		t.Fatalf("fields not applied: %+v", b)
	}
	if b.Slug != "rebranded" && b.Slug != "b1" {
		t.Fatalf("unexpected slug %q", b.Slug)
	}
}

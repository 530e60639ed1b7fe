package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storekeeper.org/internal/catalog"
	"storekeeper.org/internal/obs"
	"storekeeper.org/internal/rbac"
)

type createBrandRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Website     string `json:"website"`
	IsFeatured  bool   `json:"is_featured"`
	MetaTitle   string `json:"meta_title"`
	MetaDesc    string `json:"meta_description"`
	Position    int    `json:"position"`
	IsActive    *bool  `json:"is_active"`
}

type updateBrandRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Website     *string `json:"website"`
	IsFeatured  *bool   `json:"is_featured"`
	MetaTitle   *string `json:"meta_title"`
	MetaDesc    *string `json:"meta_description"`
	Position    *int    `json:"position"`
	IsActive    *bool   `json:"is_active"`
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
	MetaTitle   string `json:"meta_title"`
	MetaDesc    string `json:"meta_description"`
	Position    int    `json:"position"`
	IsActive    *bool  `json:"is_active"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	ParentID    *string `json:"parent_id"`
	MetaTitle   *string `json:"meta_title"`
	MetaDesc    *string `json:"meta_description"`
	Position    *int    `json:"position"`
	IsActive    *bool   `json:"is_active"`
}

type createFAQRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
	IsActive *bool  `json:"is_active"`
}

type updateFAQRequest struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
	Position *int    `json:"position"`
	IsActive *bool   `json:"is_active"`
}

type reorderRequest struct {
	Position int `json:"position"`
}

type setStatusRequest struct {
	IsActive bool `json:"is_active"`
}

type bulkStatusRequest struct {
	IDs      []string `json:"ids"`
	IsActive bool     `json:"is_active"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type listResponse struct {
	Items any       `json:"items"`
	Total int       `json:"total"`
	AsOf  time.Time `json:"as_of"`
}

// --- brands ---

func (a *API) handleBrands(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, rbac.ModuleBrands, rbac.OpView) {
			return
		}
		filter, err := parseListFilter(r)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		items, total, err := a.catalog.ListBrands(r.Context(), filter)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total, AsOf: time.Now().UTC()})
	case http.MethodPost:
		if !a.ensurePermission(w, r, rbac.ModuleBrands, rbac.OpAdd) {
			return
		}
		var req createBrandRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		brand, err := a.catalog.CreateBrand(r.Context(), catalog.CreateBrandInput{
			Name:        req.Name,
			Slug:        req.Slug,
			Description: req.Description,
			Website:     req.Website,
			IsFeatured:  req.IsFeatured,
			MetaTitle:   req.MetaTitle,
			MetaDesc:    req.MetaDesc,
			Position:    req.Position,
			IsActive:    activeOrDefault(req.IsActive),
		})
		if err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("brands", "insert")
		a.audit(r.Context(), "catalog.brand.create", map[string]any{
			"brand_id": brand.ID,
			"slug":     brand.Slug,
		})
		w.Header().Set("Location", "/v1/brands/"+brand.ID)
		writeJSON(w, http.StatusCreated, brand)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleBrandResource(w http.ResponseWriter, r *http.Request) {
	id, sub, ok := splitResourcePath(r.URL.Path, "/v1/brands/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if id == "bulk" {
		a.handleBrandBulk(w, r, sub)
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			if !a.ensurePermission(w, r, rbac.ModuleBrands, rbac.OpView) {
				return
			}
			brand, err := a.catalog.GetBrand(r.Context(), id)
			if err != nil {
				handleCatalogError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, brand)
		case http.MethodPut:
			if !a.ensurePermission(w, r, rbac.ModuleBrands, rbac.OpEdit) {
				return
			}
			var req updateBrandRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			brand, err := a.catalog.UpdateBrand(r.Context(), id, catalog.UpdateBrandInput{
				Name:        req.Name,
				Slug:        req.Slug,
				Description: req.Description,
				Website:     req.Website,
				IsFeatured:  req.IsFeatured,
				MetaTitle:   req.MetaTitle,
				MetaDesc:    req.MetaDesc,
				Position:    req.Position,
				IsActive:    req.IsActive,
			})
			if err != nil {
				handleCatalogMutationError(w, r, err)
				return
			}
			a.audit(r.Context(), "catalog.brand.update", map[string]any{"brand_id": id})
			writeJSON(w, http.StatusOK, brand)
		case http.MethodDelete:
			if !a.ensurePermission(w, r, rbac.ModuleBrands, rbac.OpDelete) {
				return
			}
			if err := a.catalog.DeleteBrand(r.Context(), id); err != nil {
				handleCatalogMutationError(w, r, err)
				return
			}
			obs.CountReorder("brands", "remove")
			a.audit(r.Context(), "catalog.brand.delete", map[string]any{"brand_id": id})
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	case "reorder":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		if !a.ensurePermission(w, r, rbac.ModuleBrands, rbac.OpEdit) {
			return
		}
		var req reorderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		brand, err := a.catalog.ReorderBrand(r.Context(), id, req.Position)
		if err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("brands", "move")
		a.audit(r.Context(), "catalog.brand.reorder", map[string]any{
			"brand_id": id,
			"position": brand.SortOrder,
		})
		writeJSON(w, http.StatusOK, brand)
	case "status":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		if !a.ensurePermission(w, r, rbac.ModuleBrands, rbac.OpEdit) {
			return
		}
		var req setStatusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		brand, err := a.catalog.SetBrandStatus(r.Context(), id, req.IsActive)
		if err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("brands", "status")
		a.audit(r.Context(), "catalog.brand.status.set", map[string]any{
			"brand_id":  id,
			"is_active": req.IsActive,
		})
		writeJSON(w, http.StatusOK, brand)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleBrandBulk(w http.ResponseWriter, r *http.Request, action string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	switch action {
	case "status":
		if !a.ensurePermission(w, r, rbac.ModuleBrands, rbac.OpEdit) {
			return
		}
		var req bulkStatusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.catalog.BulkSetBrandStatus(r.Context(), req.IDs, req.IsActive); err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("brands", "bulk_status")
		a.audit(r.Context(), "catalog.brand.bulk_status", map[string]any{
			"count":     len(req.IDs),
			"is_active": req.IsActive,
		})
		w.WriteHeader(http.StatusNoContent)
	case "delete":
		if !a.ensurePermission(w, r, rbac.ModuleBrands, rbac.OpDelete) {
			return
		}
		var req bulkDeleteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.catalog.BulkDeleteBrands(r.Context(), req.IDs); err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("brands", "bulk_delete")
		a.audit(r.Context(), "catalog.brand.bulk_delete", map[string]any{"count": len(req.IDs)})
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// --- categories ---

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, rbac.ModuleCategories, rbac.OpView) {
			return
		}
		filter, err := parseListFilter(r)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		items, total, err := a.catalog.ListCategories(r.Context(), filter)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total, AsOf: time.Now().UTC()})
	case http.MethodPost:
		if !a.ensurePermission(w, r, rbac.ModuleCategories, rbac.OpAdd) {
			return
		}
		var req createCategoryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		category, err := a.catalog.CreateCategory(r.Context(), catalog.CreateCategoryInput{
			Name:        req.Name,
			Slug:        req.Slug,
			Description: req.Description,
			ParentID:    req.ParentID,
			MetaTitle:   req.MetaTitle,
			MetaDesc:    req.MetaDesc,
			Position:    req.Position,
			IsActive:    activeOrDefault(req.IsActive),
		})
		if err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("categories", "insert")
		a.audit(r.Context(), "catalog.category.create", map[string]any{
			"category_id": category.ID,
			"slug":        category.Slug,
		})
		w.Header().Set("Location", "/v1/categories/"+category.ID)
		writeJSON(w, http.StatusCreated, category)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCategoryResource(w http.ResponseWriter, r *http.Request) {
	id, sub, ok := splitResourcePath(r.URL.Path, "/v1/categories/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if id == "bulk" {
		a.handleCategoryBulk(w, r, sub)
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			if !a.ensurePermission(w, r, rbac.ModuleCategories, rbac.OpView) {
				return
			}
			category, err := a.catalog.GetCategory(r.Context(), id)
			if err != nil {
				handleCatalogError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, category)
		case http.MethodPut:
			if !a.ensurePermission(w, r, rbac.ModuleCategories, rbac.OpEdit) {
				return
			}
			var req updateCategoryRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			category, err := a.catalog.UpdateCategory(r.Context(), id, catalog.UpdateCategoryInput{
				Name:        req.Name,
				Slug:        req.Slug,
				Description: req.Description,
				ParentID:    req.ParentID,
				MetaTitle:   req.MetaTitle,
				MetaDesc:    req.MetaDesc,
				Position:    req.Position,
				IsActive:    req.IsActive,
			})
			if err != nil {
				handleCatalogMutationError(w, r, err)
				return
			}
			a.audit(r.Context(), "catalog.category.update", map[string]any{"category_id": id})
			writeJSON(w, http.StatusOK, category)
		case http.MethodDelete:
			if !a.ensurePermission(w, r, rbac.ModuleCategories, rbac.OpDelete) {
				return
			}
			if err := a.catalog.DeleteCategory(r.Context(), id); err != nil {
				handleCatalogMutationError(w, r, err)
				return
			}
			obs.CountReorder("categories", "remove")
			a.audit(r.Context(), "catalog.category.delete", map[string]any{"category_id": id})
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	case "reorder":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		if !a.ensurePermission(w, r, rbac.ModuleCategories, rbac.OpEdit) {
			return
		}
		var req reorderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		category, err := a.catalog.ReorderCategory(r.Context(), id, req.Position)
		if err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("categories", "move")
		a.audit(r.Context(), "catalog.category.reorder", map[string]any{
			"category_id": id,
			"position":    category.SortOrder,
		})
		writeJSON(w, http.StatusOK, category)
	case "status":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		if !a.ensurePermission(w, r, rbac.ModuleCategories, rbac.OpEdit) {
			return
		}
		var req setStatusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		category, err := a.catalog.SetCategoryStatus(r.Context(), id, req.IsActive)
		if err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("categories", "status")
		a.audit(r.Context(), "catalog.category.status.set", map[string]any{
			"category_id": id,
			"is_active":   req.IsActive,
		})
		writeJSON(w, http.StatusOK, category)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleCategoryBulk(w http.ResponseWriter, r *http.Request, action string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	switch action {
	case "status":
		if !a.ensurePermission(w, r, rbac.ModuleCategories, rbac.OpEdit) {
			return
		}
		var req bulkStatusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.catalog.BulkSetCategoryStatus(r.Context(), req.IDs, req.IsActive); err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("categories", "bulk_status")
		a.audit(r.Context(), "catalog.category.bulk_status", map[string]any{
			"count":     len(req.IDs),
			"is_active": req.IsActive,
		})
		w.WriteHeader(http.StatusNoContent)
	case "delete":
		if !a.ensurePermission(w, r, rbac.ModuleCategories, rbac.OpDelete) {
			return
		}
		var req bulkDeleteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.catalog.BulkDeleteCategories(r.Context(), req.IDs); err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("categories", "bulk_delete")
		a.audit(r.Context(), "catalog.category.bulk_delete", map[string]any{"count": len(req.IDs)})
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// --- faqs ---

func (a *API) handleFAQs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, rbac.ModuleFaqs, rbac.OpView) {
			return
		}
		filter, err := parseListFilter(r)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		items, total, err := a.catalog.ListFAQs(r.Context(), filter)
		if err != nil {
			handleCatalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total, AsOf: time.Now().UTC()})
	case http.MethodPost:
		if !a.ensurePermission(w, r, rbac.ModuleFaqs, rbac.OpAdd) {
			return
		}
		var req createFAQRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		faq, err := a.catalog.CreateFAQ(r.Context(), catalog.CreateFAQInput{
			Question: req.Question,
			Answer:   req.Answer,
			Position: req.Position,
			IsActive: activeOrDefault(req.IsActive),
		})
		if err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("faqs", "insert")
		a.audit(r.Context(), "catalog.faq.create", map[string]any{"faq_id": faq.ID})
		w.Header().Set("Location", "/v1/faqs/"+faq.ID)
		writeJSON(w, http.StatusCreated, faq)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleFAQResource(w http.ResponseWriter, r *http.Request) {
	id, sub, ok := splitResourcePath(r.URL.Path, "/v1/faqs/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if id == "bulk" {
		a.handleFAQBulk(w, r, sub)
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			if !a.ensurePermission(w, r, rbac.ModuleFaqs, rbac.OpView) {
				return
			}
			faq, err := a.catalog.GetFAQ(r.Context(), id)
			if err != nil {
				handleCatalogError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, faq)
		case http.MethodPut:
			if !a.ensurePermission(w, r, rbac.ModuleFaqs, rbac.OpEdit) {
				return
			}
			var req updateFAQRequest
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			faq, err := a.catalog.UpdateFAQ(r.Context(), id, catalog.UpdateFAQInput{
				Question: req.Question,
				Answer:   req.Answer,
				Position: req.Position,
				IsActive: req.IsActive,
			})
			if err != nil {
				handleCatalogMutationError(w, r, err)
				return
			}
			a.audit(r.Context(), "catalog.faq.update", map[string]any{"faq_id": id})
			writeJSON(w, http.StatusOK, faq)
		case http.MethodDelete:
			if !a.ensurePermission(w, r, rbac.ModuleFaqs, rbac.OpDelete) {
				return
			}
			if err := a.catalog.DeleteFAQ(r.Context(), id); err != nil {
				handleCatalogMutationError(w, r, err)
				return
			}
			obs.CountReorder("faqs", "remove")
			a.audit(r.Context(), "catalog.faq.delete", map[string]any{"faq_id": id})
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	case "reorder":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		if !a.ensurePermission(w, r, rbac.ModuleFaqs, rbac.OpEdit) {
			return
		}
		var req reorderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		faq, err := a.catalog.ReorderFAQ(r.Context(), id, req.Position)
		if err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("faqs", "move")
		a.audit(r.Context(), "catalog.faq.reorder", map[string]any{
			"faq_id":   id,
			"position": faq.SortOrder,
		})
		writeJSON(w, http.StatusOK, faq)
	case "status":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		if !a.ensurePermission(w, r, rbac.ModuleFaqs, rbac.OpEdit) {
			return
		}
		var req setStatusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		faq, err := a.catalog.SetFAQStatus(r.Context(), id, req.IsActive)
		if err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("faqs", "status")
		a.audit(r.Context(), "catalog.faq.status.set", map[string]any{
			"faq_id":    id,
			"is_active": req.IsActive,
		})
		writeJSON(w, http.StatusOK, faq)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleFAQBulk(w http.ResponseWriter, r *http.Request, action string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	switch action {
	case "status":
		if !a.ensurePermission(w, r, rbac.ModuleFaqs, rbac.OpEdit) {
			return
		}
		var req bulkStatusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.catalog.BulkSetFAQStatus(r.Context(), req.IDs, req.IsActive); err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("faqs", "bulk_status")
		a.audit(r.Context(), "catalog.faq.bulk_status", map[string]any{
			"count":     len(req.IDs),
			"is_active": req.IsActive,
		})
		w.WriteHeader(http.StatusNoContent)
	case "delete":
		if !a.ensurePermission(w, r, rbac.ModuleFaqs, rbac.OpDelete) {
			return
		}
		var req bulkDeleteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.catalog.BulkDeleteFAQs(r.Context(), req.IDs); err != nil {
			handleCatalogMutationError(w, r, err)
			return
		}
		obs.CountReorder("faqs", "bulk_delete")
		a.audit(r.Context(), "catalog.faq.bulk_delete", map[string]any{"count": len(req.IDs)})
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// --- helpers ---

func parseListFilter(r *http.Request) (catalog.ListFilter, error) {
	q := r.URL.Query()
	f := catalog.ListFilter{
		Search:         strings.TrimSpace(q.Get("q")),
		ActiveOnly:     q.Get("active") == "true",
		IncludeDeleted: q.Get("include_deleted") == "true",
	}
	var err error
	if f.Limit, err = parseQueryInt(q.Get("limit"), 0); err != nil {
		return catalog.ListFilter{}, errors.New("limit must be a non-negative integer")
	}
	if f.Offset, err = parseQueryInt(q.Get("offset"), 0); err != nil {
		return catalog.ListFilter{}, errors.New("offset must be a non-negative integer")
	}
	return f, nil
}

func parseQueryInt(raw string, def int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return 0, errors.New("invalid integer")
	}
	return val, nil
}

// activeOrDefault treats an omitted is_active as true on creation.
func activeOrDefault(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

func handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "catalog operation failed")
	}
}

// handleCatalogMutationError keeps persistence failures opaque: a mutation
// that did not commit reports only that nothing changed.
func handleCatalogMutationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, catalog.ErrAlreadyExists),
		errors.Is(err, catalog.ErrNotFound):
		handleCatalogError(w, r, err)
	default:
		writeError(w, r, http.StatusInternalServerError, "operation failed, no changes made")
	}
}

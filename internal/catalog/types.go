// Package catalog manages the manually ordered content collections of the
// back office: brands, categories and FAQs. All three share the same
// ordering concern (dense sort positions over the active population) and
// differ only in their descriptive fields.
package catalog

import (
	"regexp"
	"strings"
	"time"
)

// Brand is a product brand with curated display order.
type Brand struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Website     string    `json:"website,omitempty"`
	IsFeatured  bool      `json:"is_featured"`
	MetaTitle   string    `json:"meta_title,omitempty"`
	MetaDesc    string    `json:"meta_description,omitempty"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Category is a product category, optionally nested under a parent.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	MetaTitle   string    `json:"meta_title,omitempty"`
	MetaDesc    string    `json:"meta_description,omitempty"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FAQ is a question/answer pair shown in curated order.
type FAQ struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	SortOrder int       `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilter narrows and pages a collection listing.
type ListFilter struct {
	Search         string
	ActiveOnly     bool
	IncludeDeleted bool
	Limit          int
	Offset         int
}

var slugClean = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a display name.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugClean.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

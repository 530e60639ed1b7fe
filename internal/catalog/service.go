package catalog

import (
	"errors"
	"fmt"
	"time"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Service implements the catalog operations. Every mutation that touches
// ordering runs inside one store transaction, so the bulk shifts and the
// entity write never commit separately.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithServiceClock overrides the time source.
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the catalog service.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("catalog: store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// normalizeFilter applies paging defaults and caps.
func normalizeFilter(f ListFilter) ListFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// resolveSlug derives the slug from an explicit value or the display name and
// validates the result.
func resolveSlug(explicit, name string) (string, error) {
	slug := Slugify(explicit)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return "", fmt.Errorf("%w: empty slug", ErrInvalidInput)
	}
	return slug, nil
}

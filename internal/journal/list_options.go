package journal

import (
	"strings"
	"time"
)

// SortOrder defines how entries are ordered when listing.
type SortOrder int

const (
	// SortByCreatedDesc orders entries newest first.
	SortByCreatedDesc SortOrder = iota
	// SortByCreatedAsc orders entries oldest first.
	SortByCreatedAsc
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ListOptions controls which entries are selected when querying the store.
type ListOptions struct {
	Limit      int
	Offset     int
	Components []string
	Actions    []string
	CreatedGTE int64
	CreatedLTE int64
	Order      SortOrder
}

func (opts *ListOptions) applyDefaults() {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	if opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	opts.Components = normalizeValues(opts.Components)
	opts.Actions = normalizeValues(opts.Actions)
	if opts.Order != SortByCreatedAsc {
		opts.Order = SortByCreatedDesc
	}
}

// ListOption mutates ListOptions.
type ListOption func(*ListOptions)

// WithLimit limits the number of entries returned.
func WithLimit(limit int) ListOption {
	return func(opts *ListOptions) {
		opts.Limit = limit
	}
}

// WithOffset skips the first n matching entries.
func WithOffset(offset int) ListOption {
	return func(opts *ListOptions) {
		opts.Offset = offset
	}
}

// WithComponents filters entries by component name.
func WithComponents(components ...string) ListOption {
	return func(opts *ListOptions) {
		opts.Components = append(opts.Components[:0], components...)
	}
}

// WithActions filters entries by action name.
func WithActions(actions ...string) ListOption {
	return func(opts *ListOptions) {
		opts.Actions = append(opts.Actions[:0], actions...)
	}
}

// WithCreatedSince keeps entries created at or after ts.
func WithCreatedSince(ts time.Time) ListOption {
	return func(opts *ListOptions) {
		if ts.IsZero() {
			opts.CreatedGTE = 0
			return
		}
		opts.CreatedGTE = ts.Unix()
	}
}

// WithCreatedUntil keeps entries created at or before ts.
func WithCreatedUntil(ts time.Time) ListOption {
	return func(opts *ListOptions) {
		if ts.IsZero() {
			opts.CreatedLTE = 0
			return
		}
		opts.CreatedLTE = ts.Unix()
	}
}

// WithSortOrder changes the returned order.
func WithSortOrder(order SortOrder) ListOption {
	return func(opts *ListOptions) {
		opts.Order = order
	}
}

// BuildListOptions applies option functions on top of defaults.
func BuildListOptions(opts ...ListOption) ListOptions {
	options := ListOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	options.applyDefaults()
	return options
}

func normalizeValues(input []string) []string {
	if len(input) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, value := range input {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func (opts ListOptions) matches(entry *Entry) bool {
	if len(opts.Components) > 0 && !contains(opts.Components, entry.Component) {
		return false
	}
	if len(opts.Actions) > 0 && !contains(opts.Actions, entry.Action) {
		return false
	}
	if opts.CreatedGTE > 0 && entry.CreatedAt < opts.CreatedGTE {
		return false
	}
	if opts.CreatedLTE > 0 && entry.CreatedAt > opts.CreatedLTE {
		return false
	}
	return true
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

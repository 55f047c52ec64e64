package filestore

import (
	"sort"
	"strings"
)

// SortKey selects at most one ordering for a listing.
type SortKey int

const (
	// SortNone keeps store-native order: insertion order by creation.
	SortNone SortKey = iota
	// SortByName orders by name ascending.
	SortByName
	// SortByUpdatedAt orders by updated_at descending (most recent first).
	SortByUpdatedAt
	// SortBySize orders by size_bytes ascending.
	SortBySize
)

// Filter narrows a listing. Zero values mean "no constraint"; soft-
// deleted records are excluded unless IncludeDeleted is set.
type Filter struct {
	Destination    string
	Tag            string
	IncludeDeleted bool
}

// Matches reports whether a record passes the filter.
func (f Filter) Matches(rec FileRecord) bool {
	if !f.IncludeDeleted && !rec.Active() {
		return false
	}
	if f.Destination != "" && rec.Destination != f.Destination {
		return false
	}
	if f.Tag != "" {
		tag := strings.ToLower(strings.TrimSpace(f.Tag))
		found := false
		for _, t := range rec.Tags {
			if t == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SortRecords orders records in place according to the sort key. Ties
// within a key break by name ascending for determinism.
func SortRecords(records []FileRecord, key SortKey) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch key {
		case SortByName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.Destination < b.Destination
		case SortByUpdatedAt:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
			return a.Name < b.Name
		case SortBySize:
			if a.SizeBytes != b.SizeBytes {
				return a.SizeBytes < b.SizeBytes
			}
			return a.Name < b.Name
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.Name < b.Name
		}
	})
}

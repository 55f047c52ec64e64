package filestore

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileRecord is the authoritative metadata entry for one stored file.
// (Destination, Name) identifies the record; StorageKey is derived from
// the identity once and never regenerated.
type FileRecord struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Destination string     `json:"destination"`
	StorageKey  string     `json:"storage_key"`
	SizeBytes   int64      `json:"size_bytes"`
	Tags        []string   `json:"tags"`
	Description string     `json:"description"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Active reports whether the record is not soft-deleted.
func (r FileRecord) Active() bool { return r.DeletedAt == nil }

// StorageKey derives the backend-addressable key for an identity.
// Destination "" places the file at the root.
func StorageKey(destination, name string) string {
	if destination == "" {
		return name
	}
	return path.Join(destination, name)
}

// NormalizeTags lowercases, trims and deduplicates tags. The result is
// sorted so that equal sets compare equal regardless of input order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	sort.Strings(normalized)
	return normalized
}

// ParseTags splits a comma-separated tag list and normalizes it.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(raw, ","))
}

// ValidateName rejects names that cannot address a single file.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: name must not contain path separators", ErrValidation)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: name %q is reserved", ErrValidation, name)
	}
	return nil
}

// ValidateDestination rejects destinations that escape the storage
// root. The empty destination addresses the root itself.
func ValidateDestination(destination string) error {
	if destination == "" {
		return nil
	}
	for _, part := range strings.Split(destination, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: destination %q is not a clean relative path", ErrValidation, destination)
		}
	}
	return nil
}

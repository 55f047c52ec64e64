package filestore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abylay/filestore/internal/blob"
)

// MetadataStore is durable CRUD over FileRecord plus filtered,
// sorted enumeration. Implementations must serialize mutations per
// (destination, name) identity.
type MetadataStore interface {
	FindActive(ctx context.Context, destination, name string) (FileRecord, error)
	FindAny(ctx context.Context, destination, name string) (FileRecord, error)
	Upsert(ctx context.Context, rec FileRecord) (FileRecord, error)
	SoftDelete(ctx context.Context, destination, name string) error
	HardDelete(ctx context.Context, destination, name string) error
	List(ctx context.Context, filter Filter, key SortKey) ([]FileRecord, error)
}

// Service orchestrates blob writes and metadata writes. It is the only
// component aware of both sides, and the ordering rules here are the
// sole consistency mechanism between them: blob before metadata on
// upload, blob before metadata on permanent delete.
type Service struct {
	store MetadataStore
	blobs blob.Store
	log   *zap.Logger
}

// NewService builds the file lifecycle service.
func NewService(store MetadataStore, blobs blob.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, blobs: blobs, log: log}
}

// UploadInput carries one upload request. SizeBytes is always taken
// from len(Payload), never from caller-supplied metadata.
type UploadInput struct {
	Name        string
	Destination string
	Payload     []byte
	Tags        []string
	Description string
}

// Upload writes the payload to the backend and then records it in the
// metadata store. A backend failure aborts before any metadata
// mutation. A metadata failure after a successful blob write surfaces
// ErrMetadataInconsistency: the blob exists but is not indexed, which
// is the recoverable direction of divergence.
func (s *Service) Upload(ctx context.Context, in UploadInput) (FileRecord, error) {
	if err := ValidateName(in.Name); err != nil {
		return FileRecord{}, err
	}
	if err := ValidateDestination(in.Destination); err != nil {
		return FileRecord{}, err
	}

	key := StorageKey(in.Destination, in.Name)

	if err := s.blobs.Put(ctx, key, in.Payload); err != nil {
		return FileRecord{}, fmt.Errorf("store blob: %w", err)
	}

	rec, err := s.store.Upsert(ctx, FileRecord{
		Name:        in.Name,
		Destination: in.Destination,
		StorageKey:  key,
		SizeBytes:   int64(len(in.Payload)),
		Tags:        NormalizeTags(in.Tags),
		Description: in.Description,
	})
	if err != nil {
		s.log.Error("blob stored but metadata write failed",
			zap.String("storage_key", key), zap.Error(err))
		return FileRecord{}, fmt.Errorf("blob %s written but not indexed: %w: %w", key, ErrMetadataInconsistency, err)
	}

	s.log.Info("file uploaded",
		zap.String("name", rec.Name),
		zap.String("destination", rec.Destination),
		zap.Int64("size_bytes", rec.SizeBytes),
		zap.Int("version", rec.Version))
	return rec, nil
}

// Download returns the record and its payload.
func (s *Service) Download(ctx context.Context, name, destination string) (FileRecord, []byte, error) {
	if err := ValidateName(name); err != nil {
		return FileRecord{}, nil, err
	}
	if err := ValidateDestination(destination); err != nil {
		return FileRecord{}, nil, err
	}

	rec, err := s.store.FindActive(ctx, destination, name)
	if err != nil {
		return FileRecord{}, nil, err
	}

	payload, err := s.blobs.Get(ctx, rec.StorageKey)
	if err != nil {
		return FileRecord{}, nil, fmt.Errorf("fetch blob: %w", err)
	}
	return rec, payload, nil
}

// Delete soft-deletes by default, leaving the blob untouched. With
// permanent set it removes blob then record; a blob already absent is
// tolerated, and a metadata failure after blob removal surfaces
// ErrMetadataInconsistency (blob gone, stale record remains).
func (s *Service) Delete(ctx context.Context, name, destination string, permanent bool) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateDestination(destination); err != nil {
		return err
	}

	if !permanent {
		if err := s.store.SoftDelete(ctx, destination, name); err != nil {
			return err
		}
		s.log.Info("file soft-deleted",
			zap.String("name", name), zap.String("destination", destination))
		return nil
	}

	// soft-deleted records stay addressable for permanent deletion
	rec, err := s.store.FindAny(ctx, destination, name)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, rec.StorageKey); err != nil && !blob.IsKind(err, blob.NotFound) {
		return fmt.Errorf("delete blob: %w", err)
	}

	if err := s.store.HardDelete(ctx, destination, name); err != nil {
		s.log.Error("blob removed but metadata record remains",
			zap.String("storage_key", rec.StorageKey), zap.Error(err))
		return fmt.Errorf("blob %s removed but record remains: %w: %w", rec.StorageKey, ErrMetadataInconsistency, err)
	}

	s.log.Info("file permanently deleted",
		zap.String("name", name), zap.String("destination", destination))
	return nil
}

// List enumerates records matching the filter in the requested order.
func (s *Service) List(ctx context.Context, filter Filter, key SortKey) ([]FileRecord, error) {
	if err := ValidateDestination(filter.Destination); err != nil {
		return nil, err
	}
	return s.store.List(ctx, filter, key)
}

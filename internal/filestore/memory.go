package filestore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps file records in process memory. It backs the
// METADATA_STORE=memory deployment mode and the package tests.
//
// Mutations on the same (destination, name) identity serialize on a
// per-identity mutex; distinct identities proceed in parallel. The map
// itself is guarded separately and only held for short copies, so
// listings see completed writes, never torn ones.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]FileRecord

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewMemoryStore builds an empty in-memory metadata store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]FileRecord),
		locks:   make(map[string]*sync.Mutex),
	}
}

func identityKey(destination, name string) string {
	return destination + "\x00" + name
}

func (s *MemoryStore) identityLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

func (s *MemoryStore) FindActive(ctx context.Context, destination, name string) (FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[identityKey(destination, name)]
	if !ok || !rec.Active() {
		return FileRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) FindAny(ctx context.Context, destination, name string) (FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[identityKey(destination, name)]
	if !ok {
		return FileRecord{}, ErrNotFound
	}
	return rec, nil
}

// Upsert inserts the record on first upload, bumps Version on
// re-upload, and reactivates a soft-deleted identity with a fresh
// Version and CreatedAt.
func (s *MemoryStore) Upsert(ctx context.Context, rec FileRecord) (FileRecord, error) {
	key := identityKey(rec.Destination, rec.Name)
	lock := s.identityLock(key)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[key]
	if !ok {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		rec.Version = 1
		rec.CreatedAt = now
		rec.UpdatedAt = now
		rec.DeletedAt = nil
		s.records[key] = rec
		return rec, nil
	}

	existing.SizeBytes = rec.SizeBytes
	existing.Tags = rec.Tags
	existing.Description = rec.Description
	existing.UpdatedAt = now
	if existing.Active() {
		existing.Version++
	} else {
		// reactivation: same identity, new life
		existing.Version = 1
		existing.CreatedAt = now
		existing.DeletedAt = nil
	}
	s.records[key] = existing
	return existing, nil
}

func (s *MemoryStore) SoftDelete(ctx context.Context, destination, name string) error {
	key := identityKey(destination, name)
	lock := s.identityLock(key)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || !rec.Active() {
		return ErrNotFound
	}
	now := time.Now().UTC()
	rec.DeletedAt = &now
	rec.UpdatedAt = now
	s.records[key] = rec
	return nil
}

func (s *MemoryStore) HardDelete(ctx context.Context, destination, name string) error {
	key := identityKey(destination, name)
	lock := s.identityLock(key)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; !ok {
		return ErrNotFound
	}
	delete(s.records, key)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, filter Filter, key SortKey) ([]FileRecord, error) {
	s.mu.RLock()
	records := make([]FileRecord, 0, len(s.records))
	for _, rec := range s.records {
		if filter.Matches(rec) {
			records = append(records, rec)
		}
	}
	s.mu.RUnlock()

	SortRecords(records, key)
	return records, nil
}

// Ping satisfies the readiness probe; memory is always reachable.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

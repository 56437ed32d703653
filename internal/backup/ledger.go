package backup

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"studiovault/internal/store"
)

// Ledger is the durable, ordered record of completed backups. Entries
// are kept most-recent-first and persisted as a JSON array under a
// fixed key-value store key. The ledger never exceeds its hard cap:
// appending beyond it drops the oldest entries regardless of retention
// settings.
type Ledger struct {
	kv  store.KVStore
	cap int

	mu      sync.Mutex
	records []*BackupRecord
	loaded  bool
}

// NewLedger creates a ledger backed by kv. A non-positive cap falls
// back to HistoryHardCap.
func NewLedger(kv store.KVStore, cap int) *Ledger {
	if cap <= 0 {
		cap = HistoryHardCap
	}
	return &Ledger{kv: kv, cap: cap}
}

// Cap returns the hard maximum number of entries.
func (l *Ledger) Cap() int {
	return l.cap
}

// Append prepends record and persists the ledger. If the cap is
// exceeded, the oldest entries are truncated and returned so the
// caller can release their artifacts; retention never sees them again.
// The in-memory view only changes when the persist succeeds.
func (l *Ledger) Append(ctx context.Context, record *BackupRecord) ([]*BackupRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	updated := make([]*BackupRecord, 0, len(l.records)+1)
	updated = append(updated, record)
	updated = append(updated, l.records...)

	var evicted []*BackupRecord
	if len(updated) > l.cap {
		evicted = updated[l.cap:]
		updated = updated[:l.cap]
	}

	if err := l.persist(ctx, updated); err != nil {
		return nil, err
	}

	l.records = updated
	return evicted, nil
}

// List returns all entries, most-recent-first.
func (l *Ledger) List(ctx context.Context) ([]*BackupRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	out := make([]*BackupRecord, len(l.records))
	for i, record := range l.records {
		cp := *record
		out[i] = &cp
	}
	return out, nil
}

// Find returns the entry with the given id, or a not-found error.
func (l *Ledger) Find(ctx context.Context, backupID string) (*BackupRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	for _, record := range l.records {
		if record.ID == backupID {
			cp := *record
			return &cp, nil
		}
	}

	return nil, NewNotFoundError("backup not found: "+backupID, nil)
}

// Remove deletes the entry with the given id and persists the ledger.
// Removing a missing id reports found=false without error.
func (l *Ledger) Remove(ctx context.Context, backupID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return false, err
	}

	index := -1
	for i, record := range l.records {
		if record.ID == backupID {
			index = i
			break
		}
	}
	if index < 0 {
		return false, nil
	}

	updated := make([]*BackupRecord, 0, len(l.records)-1)
	updated = append(updated, l.records[:index]...)
	updated = append(updated, l.records[index+1:]...)

	if err := l.persist(ctx, updated); err != nil {
		return false, err
	}

	l.records = updated
	return true, nil
}

// Latest returns the most recent entry, or nil for an empty ledger.
func (l *Ledger) Latest(ctx context.Context) (*BackupRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	if len(l.records) == 0 {
		return nil, nil
	}

	cp := *l.records[0]
	return &cp, nil
}

// Len returns the number of entries.
func (l *Ledger) Len(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	return len(l.records), nil
}

func (l *Ledger) ensureLoaded(ctx context.Context) error {
	if l.loaded {
		return nil
	}

	data, err := l.kv.Get(ctx, ledgerStoreKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		l.records = nil
		l.loaded = true
		return nil
	}
	if err != nil {
		return NewStorageError("failed to load backup history", err)
	}

	var records []*BackupRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return NewCorruptionError("backup history is not valid JSON", err)
	}

	// Enforce the cap on load too, in case it was lowered.
	if len(records) > l.cap {
		records = records[:l.cap]
	}

	l.records = records
	l.loaded = true
	return nil
}

func (l *Ledger) persist(ctx context.Context, records []*BackupRecord) error {
	if records == nil {
		records = []*BackupRecord{}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return NewStorageError("failed to serialize backup history", err)
	}

	if err := l.kv.Set(ctx, ledgerStoreKey, data); err != nil {
		return NewStorageError("failed to persist backup history", err)
	}

	return nil
}

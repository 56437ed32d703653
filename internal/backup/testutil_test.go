package backup

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studiovault/internal/blob"
	"studiovault/internal/logging"
	"studiovault/internal/store"
	"studiovault/internal/studio"
)

// testEnv bundles the fakes a service test needs.
type testEnv struct {
	kv        *store.MemoryStore
	blobs     blob.BlobStore
	transport *memTransport
	svc       *service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	kv := store.NewMemoryStore()

	blobs, err := blob.NewLocalBlobStore(t.TempDir(), 0o755)
	require.NoError(t, err)

	transport := newMemTransport()

	cfg := SystemConfig{
		DataDir:    t.TempDir(),
		BackupDir:  t.TempDir(),
		AppVersion: "test",
	}

	logger, err := logging.NewLogger(logging.Config{Level: logging.LogLevelQuiet})
	require.NoError(t, err)

	svc, err := NewService(cfg, kv, blobs, transport, logger)
	require.NoError(t, err)

	return &testEnv{
		kv:        kv,
		blobs:     blobs,
		transport: transport,
		svc:       svc.(*service),
	}
}

// mustAppend appends a ledger entry, failing the test on error.
func mustAppend(t *testing.T, ledger *Ledger, record *BackupRecord) {
	t.Helper()
	_, err := ledger.Append(context.Background(), record)
	require.NoError(t, err)
}

// seedStudioData loads a small but complete data set into the store.
func (e *testEnv) seedStudioData(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	members := `[{"id":"m1","firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","joinedAt":"2026-01-05T00:00:00Z","active":true},{"id":"m2","firstName":"Alan","lastName":"Turing","email":"alan@example.com","joinedAt":"2026-02-10T00:00:00Z","active":true}]`
	trainers := `[{"id":"t1","firstName":"Grace","lastName":"Hopper","specialties":["strength"],"rateCents":9000}]`
	sessions := `[{"id":"s1","title":"Morning strength","trainerId":"t1","memberIds":["m1"],"startsAt":"2026-08-01T10:00:00Z","endsAt":"2026-08-01T11:00:00Z","capacity":8,"status":"scheduled"}]`
	payments := `[{"id":"p1","memberId":"m1","amountCents":4500,"currency":"USD","paidAt":"2026-08-01T11:00:00Z"}]`
	packages := `[{"id":"k1","name":"10-class pass","sessionCount":10,"priceCents":40000,"active":true}]`

	require.NoError(t, e.kv.Set(ctx, studio.CategoryMembers.StoreKey(), []byte(members)))
	require.NoError(t, e.kv.Set(ctx, studio.CategoryTrainers.StoreKey(), []byte(trainers)))
	require.NoError(t, e.kv.Set(ctx, studio.CategorySessions.StoreKey(), []byte(sessions)))
	require.NoError(t, e.kv.Set(ctx, studio.CategoryPayments.StoreKey(), []byte(payments)))
	require.NoError(t, e.kv.Set(ctx, studio.CategoryPackages.StoreKey(), []byte(packages)))

	require.NoError(t, e.kv.Set(ctx, studio.SettingsKeyPrefix+"theme", []byte(`"dark"`)))
	require.NoError(t, e.kv.Set(ctx, studio.SettingsKeyPrefix+"locale", []byte(`"en-US"`)))
}

// seededItemCount is the item total of seedStudioData: 2 members, 1
// trainer, 1 session, 1 payment, 1 package, 2 settings keys.
const seededItemCount = 8

// memTransport is an in-memory CloudTransport for tests.
type memTransport struct {
	mu      sync.Mutex
	objects map[string][]byte

	failUpload   bool
	failDownload bool
}

func newMemTransport() *memTransport {
	return &memTransport{objects: make(map[string][]byte)}
}

func (m *memTransport) Name() string { return "memory" }

func (m *memTransport) Upload(ctx context.Context, artifactPath string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUpload {
		return NewStorageError("upload failed", nil)
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[artifactPath] = cp
	return nil
}

func (m *memTransport) Download(ctx context.Context, artifactPath string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failDownload {
		return nil, NewStorageError("download failed", nil)
	}

	data, ok := m.objects[artifactPath]
	if !ok {
		return nil, NewNotFoundError("no cloud copy of "+artifactPath, nil)
	}
	return data, nil
}

func (m *memTransport) Delete(ctx context.Context, artifactPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, artifactPath)
	return nil
}

func (m *memTransport) has(artifactPath string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[artifactPath]
	return ok
}

// makeRecord builds a completed ledger entry for direct ledger tests.
func makeRecord(id string, createdAt time.Time) *BackupRecord {
	return &BackupRecord{
		ID:           id,
		Name:         id,
		Type:         BackupTypeFull,
		Size:         128,
		ArtifactPath: ArtifactPathFor(id),
		CreatedAt:    createdAt,
		Status:       StatusCompleted,

		StorageLocation: StorageLocationLocal,
		SchemaVersion:   studio.SchemaVersion,
	}
}

func writeFile(t *testing.T, path string, data []byte) error {
	t.Helper()
	return os.WriteFile(path, data, 0o600)
}

// collectionFromStore decodes a stored collection for assertions.
func collectionFromStore(t *testing.T, kv store.KVStore, category studio.Category) []map[string]any {
	t.Helper()

	data, err := kv.Get(context.Background(), category.StoreKey())
	require.NoError(t, err)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(data, &items))
	return items
}

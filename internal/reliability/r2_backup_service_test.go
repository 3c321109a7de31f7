package reliability

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory ObjectStore.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Upload(ctx context.Context, key string, body io.Reader) error {
	if m.failOn == "upload" {
		return fmt.Errorf("upload refused")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ObjectInfo{Key: k, SizeBytes: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) Download(ctx context.Context, key string, w io.WriterAt) (int64, error) {
	m.mu.Lock()
	data, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("no such key %s", key)
	}
	n, err := w.WriteAt(data, 0)
	return int64(n), err
}

func (m *memoryStore) keys() []string {
	infos, _ := m.List(context.Background(), "")
	keys := make([]string, len(infos))
	for i, info := range infos {
		keys[i] = info.Key
	}
	return keys
}

func newTestService(t *testing.T, store ObjectStore, at time.Time) (*CacheBackupService, string) {
	t.Helper()
	dir := t.TempDir()
	svc := NewCacheBackupService(store, dir, zerolog.New(nil).Level(zerolog.Disabled))
	svc.now = func() time.Time { return at }
	return svc, dir
}

func writeCacheFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestBackupCache_RoundTrip(t *testing.T) {
	store := newMemoryStore()
	at := time.Date(2026, 2, 17, 14, 30, 22, 0, time.UTC)
	svc, dir := newTestService(t, store, at)

	writeCacheFile(t, dir, "motherduck_data.json", `{"cache_date":"2026-02-17"}`)
	writeCacheFile(t, dir, "benchmarks-abc123abc123_data.json", `{"data":1}`)
	writeCacheFile(t, dir, "client_data.db", "not a cache file")

	name, err := svc.BackupCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jcn-cache-2026-02-17-143022.tar.gz", name)

	files, metadata, err := readArchive(bytes.NewReader(store.objects[name]))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	require.Len(t, metadata.Files, 2)
	assert.Equal(t, "benchmarks-abc123abc123_data.json", metadata.Files[0].Filename)
	assert.True(t, strings.HasPrefix(metadata.Files[0].Checksum, "sha256:"))

	// Restore into an empty directory
	restoreSvc, restoreDir := newTestService(t, store, at)
	n, err := restoreSvc.RestoreLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(restoreDir, "motherduck_data.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"cache_date":"2026-02-17"}`, string(data))
	_, err = os.Stat(filepath.Join(restoreDir, "client_data.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestBackupCache_Empty(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(t, store, time.Now())

	name, err := svc.BackupCache(context.Background())
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Empty(t, store.keys())
}

func TestBackupCache_UploadError(t *testing.T) {
	store := newMemoryStore()
	store.failOn = "upload"
	svc, dir := newTestService(t, store, time.Now())
	writeCacheFile(t, dir, "x_data.json", "{}")

	_, err := svc.BackupCache(context.Background())
	assert.Error(t, err)
}

func TestRestoreLatest_SkipsPopulatedDir(t *testing.T) {
	store := newMemoryStore()
	svc, dir := newTestService(t, store, time.Now())
	writeCacheFile(t, dir, "x_data.json", "{}")

	n, err := svc.RestoreLatest(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRestoreLatest_NoBackups(t *testing.T) {
	svc, _ := newTestService(t, newMemoryStore(), time.Now())
	_, err := svc.RestoreLatest(context.Background())
	assert.ErrorIs(t, err, ErrNoBackups)
}

func TestRestoreLatest_ChecksumMismatch(t *testing.T) {
	store := newMemoryStore()
	at := time.Date(2026, 2, 17, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, store, at)

	// Hand-built archive whose metadata disagrees with one file
	var buf bytes.Buffer
	gz := gzipWriter(&buf)
	tw := tarWriter(gz)
	require.NoError(t, addToArchive(tw, "good_data.json", []byte("good"), at))
	require.NoError(t, addToArchive(tw, "bad_data.json", []byte("tampered"), at))
	meta := fmt.Sprintf(`{"version":"1","files":[{"filename":"good_data.json","checksum":%q},{"filename":"bad_data.json","checksum":%q}]}`,
		checksum([]byte("good")), checksum([]byte("original")))
	require.NoError(t, addToArchive(tw, metadataName, []byte(meta), at))
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	store.objects["jcn-cache-2026-02-17-100000.tar.gz"] = buf.Bytes()

	n, err := svc.RestoreLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListAndRotateBackups(t *testing.T) {
	store := newMemoryStore()
	now := time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, store, now)

	for _, days := range []int{0, 1, 2, 10, 20} {
		name := archivePrefix + now.AddDate(0, 0, -days).Format(archiveLayout) + archiveSuffix
		store.objects[name] = []byte("x")
	}
	store.objects["jcn-cache-garbage.tar.gz"] = []byte("x")
	store.objects["other.txt"] = []byte("x")

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 5)
	assert.Equal(t, int64(0), backups[0].AgeHours)
	assert.Equal(t, int64(480), backups[4].AgeHours)

	deleted, err := svc.RotateOldBackups(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = svc.RotateOldBackups(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	backups, err = svc.ListBackups(context.Background())
	require.NoError(t, err)
	assert.Len(t, backups, 3)

	// Never below the minimum, however old
	deleted, err = svc.RotateOldBackups(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

// Package reliability backs the snapshot cache up to object storage and keeps the local stores healthy.
package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	archivePrefix    = "jcn-cache-"
	archiveSuffix    = ".tar.gz"
	archiveLayout    = "2006-01-02-150405"
	metadataName     = "backup-metadata.json"
	cacheFilePattern = "*_data.json"
	minBackupsToKeep = 3
	metadataVersion  = "1"
)

// ErrNoBackups is returned by RestoreLatest when the bucket holds no archive.
var ErrNoBackups = errors.New("no cache backups found")

// BackupMetadata is stored alongside the cache files inside each archive.
type BackupMetadata struct {
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Files     []FileMetadata `json:"files"`
}

// FileMetadata describes one archived cache file.
type FileMetadata struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo represents one archive stored in the bucket.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// CacheBackupService archives the snapshot cache directory to an object store.
type CacheBackupService struct {
	store    ObjectStore
	cacheDir string
	now      func() time.Time
	log      zerolog.Logger
}

// NewCacheBackupService creates a backup service for cacheDir.
func NewCacheBackupService(store ObjectStore, cacheDir string, log zerolog.Logger) *CacheBackupService {
	return &CacheBackupService{
		store:    store,
		cacheDir: cacheDir,
		now:      time.Now,
		log:      log.With().Str("service", "cache_backup").Logger(),
	}
}

func (s *CacheBackupService) cacheFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.cacheDir, cacheFilePattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// BackupCache uploads every cache file plus checksums as jcn-cache-<timestamp>.tar.gz.
// It returns the archive name, or "" when there was nothing to back up.
func (s *CacheBackupService) BackupCache(ctx context.Context) (string, error) {
	start := s.now()

	files, err := s.cacheFiles()
	if err != nil {
		return "", fmt.Errorf("failed to list cache files: %w", err)
	}
	if len(files) == 0 {
		s.log.Info().Msg("No cache files to back up")
		return "", nil
	}

	metadata := BackupMetadata{
		Timestamp: start.UTC(),
		Version:   metadataVersion,
		Files:     make([]FileMetadata, 0, len(files)),
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
		}
		name := filepath.Base(path)
		if err := addToArchive(tw, name, data, start); err != nil {
			return "", fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		metadata.Files = append(metadata.Files, FileMetadata{
			Filename:  name,
			SizeBytes: int64(len(data)),
			Checksum:  checksum(data),
		})
	}

	meta, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := addToArchive(tw, metadataName, meta, start); err != nil {
		return "", fmt.Errorf("failed to add metadata to archive: %w", err)
	}
	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("failed to close gzip writer: %w", err)
	}

	archiveName := archivePrefix + start.UTC().Format(archiveLayout) + archiveSuffix
	size := buf.Len()
	if err := s.store.Upload(ctx, archiveName, &buf); err != nil {
		return "", fmt.Errorf("failed to upload backup: %w", err)
	}

	s.log.Info().
		Str("archive", archiveName).
		Int("files", len(files)).
		Int("size_bytes", size).
		Dur("duration_ms", time.Since(start)).
		Msg("Cache backup completed")

	return archiveName, nil
}

// ListBackups lists archives newest first. Objects with unexpected names are skipped.
func (s *CacheBackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, archivePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, archivePrefix) || !strings.HasSuffix(obj.Key, archiveSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(obj.Key, archivePrefix), archiveSuffix)
		ts, err := time.Parse(archiveLayout, stamp)
		if err != nil {
			s.log.Warn().Str("filename", obj.Key).Msg("Failed to parse timestamp from filename")
			continue
		}
		backups = append(backups, BackupInfo{
			Filename:  obj.Key,
			Timestamp: ts,
			SizeBytes: obj.SizeBytes,
			AgeHours:  int64(now.Sub(ts).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// RotateOldBackups deletes archives older than retentionDays, always keeping the newest three.
// A retention of 0 keeps everything.
func (s *CacheBackupService) RotateOldBackups(ctx context.Context, retentionDays int) (int, error) {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if retentionDays <= 0 || len(backups) <= minBackupsToKeep {
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, b := range backups[minBackupsToKeep:] {
		if !b.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, b.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", b.Filename).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")
	return deleted, nil
}

// RestoreLatest extracts the newest archive into the cache directory when it holds no cache files.
// Files whose checksum does not match the metadata are skipped. It returns the number of files restored.
func (s *CacheBackupService) RestoreLatest(ctx context.Context) (int, error) {
	existing, err := s.cacheFiles()
	if err != nil {
		return 0, fmt.Errorf("failed to list cache files: %w", err)
	}
	if len(existing) > 0 {
		s.log.Debug().Int("files", len(existing)).Msg("Cache directory populated, skipping restore")
		return 0, nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) == 0 {
		return 0, ErrNoBackups
	}
	latest := backups[0]

	tmp, err := os.CreateTemp("", "jcn-restore-*.tar.gz")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := s.store.Download(ctx, latest.Filename, tmp); err != nil {
		return 0, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to rewind archive: %w", err)
	}

	files, metadata, err := readArchive(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", latest.Filename, err)
	}

	restored := 0
	for _, fm := range metadata.Files {
		name := filepath.Base(fm.Filename)
		if ok, _ := filepath.Match(cacheFilePattern, name); !ok {
			continue
		}
		data, found := files[name]
		if !found || checksum(data) != fm.Checksum {
			s.log.Warn().Str("file", name).Msg("Checksum mismatch, skipping restore of file")
			continue
		}
		if err := writeAtomic(filepath.Join(s.cacheDir, name), data); err != nil {
			return restored, err
		}
		restored++
	}

	s.log.Info().Str("archive", latest.Filename).Int("files", restored).Msg("Cache restored from backup")
	return restored, nil
}

func readArchive(r io.Reader) (map[string][]byte, *BackupMetadata, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer gz.Close()

	files := make(map[string][]byte)
	var metadata *BackupMetadata
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, nil, err
		}
		name := filepath.Base(hdr.Name)
		if name == metadataName {
			var m BackupMetadata
			if err := json.Unmarshal(data, &m); err != nil {
				return nil, nil, fmt.Errorf("invalid metadata: %w", err)
			}
			metadata = &m
			continue
		}
		files[name] = data
	}

	if metadata == nil {
		return nil, nil, fmt.Errorf("archive has no %s", metadataName)
	}
	return files, metadata, nil
}

func addToArchive(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	hdr := &tar.Header{
		Name:     name,
		Size:     int64(len(data)),
		Mode:     0644,
		ModTime:  modTime,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}

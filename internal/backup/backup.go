// file: internal/backup/backup.go
// version: 2.0.0
// guid: 8f9e0a1b-2c3d-4e5f-6a7b-8c9d0e1f2a3b

package backup

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jdfalk/bookshelf/internal/fileops"
	"github.com/jdfalk/bookshelf/internal/library"
)

// ErrInvalidBackup is returned when an archive does not hold a loadable library.
var ErrInvalidBackup = errors.New("invalid backup")

const (
	filePrefix = "library_"
	fileSuffix = ".tar.gz"
	// archiveEntry is the single file stored in every backup.
	archiveEntry = "library.json"
	// maxEntryBytes bounds what restore will read out of an archive.
	maxEntryBytes = 64 << 20
)

// BackupInfo contains information about a backup
type BackupInfo struct {
	Filename  string    `json:"filename" yaml:"filename"`
	Path      string    `json:"path" yaml:"path"`
	Size      int64     `json:"size" yaml:"size"`
	Checksum  string    `json:"checksum" yaml:"checksum"`
	BookCount int       `json:"book_count,omitempty" yaml:"book_count,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// BackupConfig holds backup configuration
type BackupConfig struct {
	BackupDir        string
	MaxBackups       int
	CompressionLevel int
}

// DefaultBackupConfig returns default backup configuration
func DefaultBackupConfig() BackupConfig {
	return BackupConfig{
		BackupDir:        "backups",
		MaxBackups:       10,
		CompressionLevel: gzip.BestCompression,
	}
}

// CreateBackup archives the library file at libraryPath into config.BackupDir.
// The file must decode as a library. Beyond config.MaxBackups, the oldest
// backups are removed; zero or less keeps everything.
func CreateBackup(libraryPath string, config BackupConfig) (*BackupInfo, error) {
	data, err := os.ReadFile(libraryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read library: %w", err)
	}
	books, err := library.DecodeBooks(data)
	if err != nil {
		return nil, fmt.Errorf("refusing to back up %s: %w", libraryPath, err)
	}

	now := time.Now()
	archive, err := buildArchive(data, now, config.CompressionLevel)
	if err != nil {
		return nil, err
	}

	// The ULID keeps names unique and ordered within the same second.
	backupFilename := fmt.Sprintf("%s%s_%s%s", filePrefix, now.Format("20060102_150405"), ulid.Make(), fileSuffix)
	backupPath := filepath.Join(config.BackupDir, backupFilename)
	if err := fileops.WriteFileAtomic(backupPath, archive, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	info := &BackupInfo{
		Filename:  backupFilename,
		Path:      backupPath,
		Size:      int64(len(archive)),
		Checksum:  fileops.HashBytes(archive),
		BookCount: len(books),
		CreatedAt: now,
	}
	log.Printf("[INFO] Backup: wrote %s (%d books, %d bytes)", backupPath, len(books), info.Size)

	if err := cleanupOldBackups(config.BackupDir, config.MaxBackups); err != nil {
		log.Printf("[WARN] Backup: failed to clean up old backups: %v", err)
	}

	return info, nil
}

func buildArchive(data []byte, modTime time.Time, level int) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	tarWriter := tar.NewWriter(gzipWriter)

	hdr := &tar.Header{
		Name:    archiveEntry,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := tarWriter.WriteHeader(hdr); err != nil {
		return nil, fmt.Errorf("failed to write tar header: %w", err)
	}
	if _, err := tarWriter.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write tar entry: %w", err)
	}
	if err := tarWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreBackup replaces the library at targetPath with the one stored in
// backupPath and returns how many books it holds. The target is untouched
// unless the archive decodes as a library.
func RestoreBackup(backupPath, targetPath string) (int, error) {
	data, err := readArchive(backupPath)
	if err != nil {
		return 0, err
	}
	books, err := library.DecodeBooks(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidBackup, backupPath, err)
	}
	if err := fileops.WriteFileAtomic(targetPath, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to restore library: %w", err)
	}
	log.Printf("[INFO] Backup: restored %d books from %s to %s", len(books), backupPath, targetPath)
	return len(books), nil
}

func readArchive(backupPath string) ([]byte, error) {
	backupFile, err := os.Open(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	defer backupFile.Close()

	gzipReader, err := gzip.NewReader(backupFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidBackup, backupPath, err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s has no %s entry", ErrInvalidBackup, backupPath, archiveEntry)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidBackup, backupPath, err)
		}
		if header.Typeflag != tar.TypeReg || header.Name != archiveEntry {
			continue
		}
		if header.Size > maxEntryBytes {
			return nil, fmt.Errorf("%w: %s entry is %d bytes", ErrInvalidBackup, archiveEntry, header.Size)
		}
		return io.ReadAll(io.LimitReader(tarReader, maxEntryBytes))
	}
}

// ListBackups returns the backups in backupDir, newest first. A missing
// directory has no backups.
func ListBackups(backupDir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		path := filepath.Join(backupDir, name)
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		checksum, err := fileops.ComputeFileHash(path)
		if err != nil {
			return nil, fmt.Errorf("failed to checksum %s: %w", name, err)
		}
		backups = append(backups, BackupInfo{
			Filename:  name,
			Path:      path,
			Size:      fi.Size(),
			Checksum:  checksum,
			CreatedAt: fi.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].Filename > backups[j].Filename })
	return backups, nil
}

// cleanupOldBackups removes the oldest backups beyond maxBackups.
func cleanupOldBackups(backupDir string, maxBackups int) error {
	if maxBackups <= 0 {
		return nil
	}
	backups, err := ListBackups(backupDir)
	if err != nil {
		return err
	}

	for _, old := range backups[min(maxBackups, len(backups)):] {
		if err := os.Remove(old.Path); err != nil {
			log.Printf("[WARN] Backup: failed to delete old backup %s: %v", old.Filename, err)
			continue
		}
		log.Printf("[DEBUG] Backup: removed old backup %s", old.Filename)
	}
	return nil
}

package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/database"
)

const backupPrefix = "tracker-backup-"

// Uploader is the storage interface the backup service needs.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	List(ctx context.Context, keyPrefix string) ([]ObjectInfo, error)
}

// BackupService snapshots the SQLite databases and ships them offsite.
// VACUUM INTO produces a consistent copy without blocking writers, so
// backups can run while the server is serving requests.
type BackupService struct {
	databases []*database.DB
	dataDir   string
	storage   Uploader
	log       zerolog.Logger
}

// NewBackupService creates a new backup service.
func NewBackupService(databases []*database.DB, dataDir string, storage Uploader, log zerolog.Logger) *BackupService {
	return &BackupService{
		databases: databases,
		dataDir:   dataDir,
		storage:   storage,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// BackupInfo describes one stored backup archive.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// CreateAndUploadBackup snapshots every database into a staging directory,
// archives them as tar.gz, and uploads the archive.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) (string, error) {
	s.log.Info().Msg("Starting backup")
	start := time.Now()

	stagingDir := filepath.Join(s.dataDir, "backup-staging")
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	var files []string
	for _, db := range s.databases {
		destPath := filepath.Join(stagingDir, db.Name()+".db")
		s.log.Debug().Str("database", db.Name()).Msg("Snapshotting database")

		if err := db.VacuumInto(destPath); err != nil {
			return "", fmt.Errorf("failed to snapshot %s: %w", db.Name(), err)
		}
		files = append(files, destPath)
	}

	archiveName := fmt.Sprintf("%s%s.tar.gz", backupPrefix, time.Now().Format("2006-01-02-150405"))
	archivePath := filepath.Join(stagingDir, archiveName)
	if err := createArchive(archivePath, files); err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	if err := s.storage.Upload(ctx, archiveName, archive); err != nil {
		return "", err
	}

	info, err := os.Stat(archivePath)
	if err == nil {
		s.log.Info().
			Dur("duration", time.Since(start)).
			Str("archive", archiveName).
			Int64("size_bytes", info.Size()).
			Msg("Backup completed")
	}

	return archiveName, nil
}

// ListBackups returns the stored backup archives, newest data included.
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.storage.List(ctx, backupPrefix)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		base := filepath.Base(obj.Key)
		if !strings.HasPrefix(base, backupPrefix) || !strings.HasSuffix(base, ".tar.gz") {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(base, backupPrefix), ".tar.gz")
		ts, err := time.Parse("2006-01-02-150405", stamp)
		if err != nil {
			s.log.Warn().Str("filename", base).Msg("Unparseable backup timestamp, skipping")
			continue
		}

		backups = append(backups, BackupInfo{
			Filename:  base,
			Timestamp: ts,
			SizeBytes: obj.SizeBytes,
			AgeHours:  int64(now.Sub(ts).Hours()),
		})
	}

	return backups, nil
}

// createArchive writes the files into a gzipped tarball at archivePath.
func createArchive(archivePath string, files []string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	defer gz.Close()

	tw := tar.NewWriter(gz)
	defer tw.Close()

	for _, file := range files {
		if err := addFileToArchive(tw, file); err != nil {
			return fmt.Errorf("failed to archive %s: %w", file, err)
		}
	}

	return nil
}

func addFileToArchive(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tw, f)
	return err
}

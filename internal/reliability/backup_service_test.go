package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/database"
)

// fakeUploader captures uploads in memory.
type fakeUploader struct {
	uploads map[string][]byte
	objects []ObjectInfo
}

func (f *fakeUploader) Upload(_ context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeUploader) List(_ context.Context, _ string) ([]ObjectInfo, error) {
	return f.objects, nil
}

func newTestDatabase(t *testing.T, dir, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(dir, name+".db"),
		Profile: database.ProfileStandard,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestCreateAndUploadBackup(t *testing.T) {
	dir := t.TempDir()
	tracker := newTestDatabase(t, dir, "tracker")

	uploader := &fakeUploader{}
	svc := NewBackupService([]*database.DB{tracker}, dir, uploader, zerolog.Nop())

	archiveName, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Contains(t, archiveName, "tracker-backup-")

	data, ok := uploader.uploads[archiveName]
	require.True(t, ok, "archive should have been uploaded")

	// The archive must be a valid tar.gz holding the database snapshot
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	header, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "tracker.db", header.Name)
	assert.Greater(t, header.Size, int64(0))
}

func TestListBackupsParsesTimestamps(t *testing.T) {
	uploader := &fakeUploader{objects: []ObjectInfo{
		{Key: "tracker-backup-2026-08-25-010203.tar.gz", SizeBytes: 1024},
		{Key: "unrelated-object.txt"},
		{Key: "tracker-backup-garbage.tar.gz"},
	}}
	svc := NewBackupService(nil, t.TempDir(), uploader, zerolog.Nop())

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)

	require.Len(t, backups, 1)
	assert.Equal(t, "tracker-backup-2026-08-25-010203.tar.gz", backups[0].Filename)
	assert.Equal(t, time.Date(2026, 8, 25, 1, 2, 3, 0, time.UTC), backups[0].Timestamp)
	assert.Equal(t, int64(1024), backups[0].SizeBytes)
}

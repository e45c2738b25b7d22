package history

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE portfolio_history (
		snapshot_date TEXT PRIMARY KEY,
		total_portfolio_value REAL NOT NULL
	)`)
	require.NoError(t, err)

	return NewRepository(db, zerolog.Nop())
}

func TestInsertIfAbsentOncePerDate(t *testing.T) {
	repo := newTestRepo(t)

	inserted, err := repo.InsertIfAbsent("2026-08-26", 12345.67)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Second write on the same date is a no-op, first value wins
	inserted, err = repo.InsertIfAbsent("2026-08-26", 99999.99)
	require.NoError(t, err)
	assert.False(t, inserted)

	snapshots, err := repo.List()
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 12345.67, snapshots[0].TotalPortfolioValue)
}

func TestListChronological(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.InsertIfAbsent("2026-08-25", 200)
	require.NoError(t, err)
	_, err = repo.InsertIfAbsent("2026-08-23", 100)
	require.NoError(t, err)
	_, err = repo.InsertIfAbsent("2026-08-24", 150)
	require.NoError(t, err)

	snapshots, err := repo.List()
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	assert.Equal(t, "2026-08-23", snapshots[0].SnapshotDate)
	assert.Equal(t, "2026-08-24", snapshots[1].SnapshotDate)
	assert.Equal(t, "2026-08-25", snapshots[2].SnapshotDate)
}

func TestRecordToday(t *testing.T) {
	repo := newTestRepo(t)

	inserted, err := repo.RecordToday(5000)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.RecordToday(6000)
	require.NoError(t, err)
	assert.False(t, inserted)
}

package clientdata

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupCacheDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE quotes (symbol TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
		CREATE TABLE exchange_rates (pair TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
	`)
	require.NoError(t, err)

	return db
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo := NewRepository(setupCacheDB(t))

	type payload struct {
		Price float64 `json:"price"`
	}

	require.NoError(t, repo.Store("quotes", "AAPL", payload{Price: 123.45}, TTLQuote))

	data, err := repo.GetIfFresh("quotes", "AAPL")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.JSONEq(t, `{"price":123.45}`, string(data))
}

func TestGetIfFresh_Miss(t *testing.T) {
	repo := NewRepository(setupCacheDB(t))

	data, err := repo.GetIfFresh("quotes", "MISSING")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestGet_ReturnsStaleData(t *testing.T) {
	repo := NewRepository(setupCacheDB(t))

	// Store with an already-expired TTL
	require.NoError(t, repo.Store("exchange_rates", "CAD=X", map[string]float64{"rate": 1.37}, -time.Minute))

	fresh, err := repo.GetIfFresh("exchange_rates", "CAD=X")
	require.NoError(t, err)
	assert.Nil(t, fresh, "expired entry must not be returned as fresh")

	stale, err := repo.Get("exchange_rates", "CAD=X")
	require.NoError(t, err)
	require.NotNil(t, stale)
	assert.JSONEq(t, `{"rate":1.37}`, string(stale))
}

func TestStore_Upsert(t *testing.T) {
	repo := NewRepository(setupCacheDB(t))

	require.NoError(t, repo.Store("quotes", "AAPL", map[string]float64{"price": 1}, TTLQuote))
	require.NoError(t, repo.Store("quotes", "AAPL", map[string]float64{"price": 2}, TTLQuote))

	data, err := repo.GetIfFresh("quotes", "AAPL")
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":2}`, string(data))
}

func TestValidateTable(t *testing.T) {
	repo := NewRepository(setupCacheDB(t))

	err := repo.Store("users; DROP TABLE quotes", "x", "y", TTLQuote)
	assert.Error(t, err)
}

func TestDeleteExpired(t *testing.T) {
	repo := NewRepository(setupCacheDB(t))

	require.NoError(t, repo.Store("quotes", "OLD", "x", -time.Minute))
	require.NoError(t, repo.Store("quotes", "NEW", "y", time.Minute))

	removed, err := repo.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	data, err := repo.Get("quotes", "NEW")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

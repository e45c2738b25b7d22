package users

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
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

	_, err = db.Exec(`CREATE TABLE users (
		user_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL
	)`)
	require.NoError(t, err)

	return NewRepository(db, zerolog.Nop())
}

func TestCreateAndList(t *testing.T) {
	repo := newTestRepo(t)

	alice, err := repo.Create("Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.Name)
	assert.NotZero(t, alice.UserID)

	_, err = repo.Create("Bob")
	require.NoError(t, err)

	users, err := repo.List()
	require.NoError(t, err)
	require.Len(t, users, 2)
	// Ordered by name
	assert.Equal(t, "Alice", users[0].Name)
	assert.Equal(t, "Bob", users[1].Name)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Create("Alice")
	require.NoError(t, err)

	_, err = repo.Create("Alice")
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Create("   ")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestUpdate(t *testing.T) {
	repo := newTestRepo(t)

	alice, err := repo.Create("Alice")
	require.NoError(t, err)

	updated, err := repo.Update(alice.UserID, "Alicia")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.Name)

	_, err = repo.Update(9999, "Ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)

	alice, err := repo.Create("Alice")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(alice.UserID))
	assert.ErrorIs(t, repo.Delete(alice.UserID), ErrNotFound)

	_, err = repo.GetByID(alice.UserID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandlerCRUD(t *testing.T) {
	repo := newTestRepo(t)
	handler := NewHandler(repo, zerolog.Nop())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	// Create
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name": "Alice"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Alice", created.Name)

	// Duplicate -> 400
	req = httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name": "Alice"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Delete missing -> 404
	req = httptest.NewRequest(http.MethodDelete, "/users/9999", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

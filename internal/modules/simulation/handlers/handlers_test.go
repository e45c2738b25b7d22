package handlers

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

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/simulation"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE assets (
			asset_id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id INTEGER NOT NULL,
			ticker_symbol TEXT NOT NULL,
			name TEXT,
			quantity REAL NOT NULL,
			average_cost REAL NOT NULL,
			total_invested REAL NOT NULL,
			current_price REAL,
			price_yesterday REAL,
			fifty_two_week_high REAL,
			fifty_two_week_low REAL,
			notes TEXT
		);
		INSERT INTO assets (account_id, ticker_symbol, quantity, average_cost, total_invested, current_price)
		VALUES (1, 'AAPL', 10, 100, 1000, 150),
		       (1, 'DARK', 10, 100, 1000, NULL);
	`)
	require.NoError(t, err)

	nop := zerolog.Nop()
	service := simulation.NewService(assets.NewRepository(db, nop), nop)
	handler := NewHandler(service, nop)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestHandleSimulateSell(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/assets/1/simulate/sell",
		strings.NewReader(`{"hypothetical_sale_price": 150}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result simulation.SellResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1500.0, result.TotalProceeds)
	assert.Equal(t, 50.0, result.ProfitPercent)
}

func TestHandleSimulateSellNegativePrice(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/assets/1/simulate/sell",
		strings.NewReader(`{"hypothetical_sale_price": -5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSimulateBuy(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/assets/1/simulate/buy",
		strings.NewReader(`{"investment_amount": 600}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result simulation.BuyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 4.0, result.SharesPurchased)
	assert.Equal(t, 14.0, result.NewTotalQuantity)
}

func TestHandleSimulateBuyPriceUnavailableIsConflict(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/assets/2/simulate/buy",
		strings.NewReader(`{"investment_amount": 600}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleSimulateUnknownAsset(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/assets/999/simulate/sell",
		strings.NewReader(`{"hypothetical_sale_price": 10}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

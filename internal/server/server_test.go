package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/clients/yahoo"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/database"
	accountsmod "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/accounts"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets"
	assetshandlers "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets/handlers"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/dashboard"
	dashboardhandlers "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/dashboard/handlers"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/history"
	platformsmod "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/platforms"
	settingsmod "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/settings"
	settingshandlers "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/settings/handlers"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/simulation"
	simulationhandlers "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/simulation/handlers"
	usersmod "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/users"
)

// newTestServer wires the full stack against temp databases and a stubbed
// market endpoint.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	nop := zerolog.Nop()

	trackerDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "tracker.db"),
		Profile: database.ProfileStandard,
		Name:    "tracker",
	})
	require.NoError(t, err)
	t.Cleanup(func() { trackerDB.Close() })
	require.NoError(t, trackerDB.Migrate())

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	require.NoError(t, err)
	t.Cleanup(func() { cacheDB.Close() })
	require.NoError(t, cacheDB.Migrate())

	market := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": [{
			"meta": {"shortName": "Stub Corp"},
			"timestamp": [1755000000],
			"indicators": {"quote": [{"close": [150.0]}]}
		}], "error": null}}`)
	}))
	t.Cleanup(market.Close)

	gateway := yahoo.NewClient(market.URL, nil, nop)

	usersRepo := usersmod.NewRepository(trackerDB.Conn(), nop)
	platformsRepo := platformsmod.NewRepository(trackerDB.Conn(), nop)
	accountsRepo := accountsmod.NewRepository(trackerDB.Conn(), nop)
	assetsRepo := assets.NewRepository(trackerDB.Conn(), nop)
	settingsRepo := settingsmod.NewRepository(trackerDB.Conn(), nop)
	historyRepo := history.NewRepository(trackerDB.Conn(), nop)

	assetsService := assets.NewService(assetsRepo, settingsRepo, gateway, nop)
	dashboardService := dashboard.NewService(assetsRepo, accountsRepo, historyRepo, settingsRepo, gateway, nop)
	simulationService := simulation.NewService(assetsRepo, nop)

	return New(Config{
		Log:        nop,
		Port:       0,
		DevMode:    true,
		TrackerDB:  trackerDB,
		CacheDB:    cacheDB,
		Users:      usersmod.NewHandler(usersRepo, nop),
		Platforms:  platformsmod.NewHandler(platformsRepo, nop),
		Accounts:   accountsmod.NewHandler(accountsRepo, nop),
		Assets:     assetshandlers.NewHandler(assetsService, assetsRepo, nop),
		Dashboard:  dashboardhandlers.NewHandler(dashboardService, nop),
		Simulation: simulationhandlers.NewHandler(simulationService, nop),
		Settings:   settingshandlers.NewHandler(settingsRepo, nop),
	})
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestEndToEndFlow(t *testing.T) {
	srv := newTestServer(t)

	// Create user, platform, account
	rec := do(t, srv, http.MethodPost, "/api/users", `{"name": "Alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/platforms", `{"name": "Questrade"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/accounts",
		`{"user_id": 1, "platform_id": 1, "account_type": "TFSA", "account_name": "Alice TFSA", "cash_balance": 500}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Add an asset: prices come from the stubbed market
	rec = do(t, srv, http.MethodPost, "/api/accounts/1/assets",
		`{"ticker_symbol": "aapl", "quantity": 10, "average_cost": 100, "total_invested": 1000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Asset struct {
			TickerSymbol string   `json:"ticker_symbol"`
			CurrentPrice *float64 `json:"current_price"`
			Name         string   `json:"name"`
		} `json:"asset"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "AAPL", created.Asset.TickerSymbol)
	require.NotNil(t, created.Asset.CurrentPrice)
	assert.Equal(t, 150.0, *created.Asset.CurrentPrice)
	assert.Equal(t, "Stub Corp", created.Asset.Name)

	// Dashboard reflects the position
	rec = do(t, srv, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view dashboard.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 2000.0, view.Global.OverallPortfolioValue) // 1500 assets + 500 cash
	assert.True(t, view.SnapshotRecorded)

	// Simulate a sell
	rec = do(t, srv, http.MethodPost, "/api/assets/1/simulate/sell",
		`{"hypothetical_sale_price": 150}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var sell simulation.SellResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sell))
	assert.Equal(t, 500.0, sell.ProfitDollars)

	// Settings round trip
	rec = do(t, srv, http.MethodPut, "/api/settings/goal", `{"target_goal_value": 250000}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 250000.0, got[settingsmod.KeyTargetGoalValue])
}

func TestRefreshAllEndpoint(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/users", `{"name": "Alice"}`)
	do(t, srv, http.MethodPost, "/api/platforms", `{"name": "Questrade"}`)
	do(t, srv, http.MethodPost, "/api/accounts",
		`{"user_id": 1, "platform_id": 1, "account_type": "TFSA", "account_name": "A", "cash_balance": 0}`)
	do(t, srv, http.MethodPost, "/api/accounts/1/assets",
		`{"ticker_symbol": "AAPL", "quantity": 1, "average_cost": 1, "total_invested": 1}`)

	rec := do(t, srv, http.MethodPost, "/api/assets/refresh-all", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report assets.RefreshReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Updated)
	assert.Empty(t, report.FailedTickers)
	assert.NotEmpty(t, report.ReportID)
	assert.True(t, report.ExchangeRateUpdated)
}

func TestSystemHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/system/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
}

func TestBackupNotConfigured(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/system/backup", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

package assets

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/clients/yahoo"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/settings"
)

// fakeMarket stubs the market gateway.
type fakeMarket struct {
	quotes  map[string]*yahoo.Quote
	rate    float64
	rateErr error
}

func (f *fakeMarket) GetQuote(symbol string) (*yahoo.Quote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, errors.New("quote unavailable")
	}
	return q, nil
}

func (f *fakeMarket) GetExchangeRate(pair string) (float64, error) {
	if f.rateErr != nil {
		return 0, f.rateErr
	}
	return f.rate, nil
}

func newService(t *testing.T, market MarketData) (*Service, *Repository, *settings.Repository) {
	t.Helper()

	db := newTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	settingsRepo := settings.NewRepository(db, zerolog.Nop())
	return NewService(repo, settingsRepo, market, zerolog.Nop()), repo, settingsRepo
}

func TestAddAssetFetchesMarketData(t *testing.T) {
	market := &fakeMarket{quotes: map[string]*yahoo.Quote{
		"AAPL": {CurrentPrice: fptr(150), PriceYesterday: fptr(148), Name: "Apple Inc."},
	}}
	svc, _, _ := newService(t, market)

	created, warnings, err := svc.AddAsset(validAsset())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.NotNil(t, created.CurrentPrice)
	assert.Equal(t, 150.0, *created.CurrentPrice)
	assert.Equal(t, "Apple Inc.", created.Name)
}

func TestAddAssetGatewayFailureIsWarning(t *testing.T) {
	svc, _, _ := newService(t, &fakeMarket{quotes: map[string]*yahoo.Quote{}})

	created, warnings, err := svc.AddAsset(validAsset())
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "AAPL")
	assert.Nil(t, created.CurrentPrice)
}

func TestRefreshAssetUpdatesPrices(t *testing.T) {
	market := &fakeMarket{quotes: map[string]*yahoo.Quote{
		"AAPL": {CurrentPrice: fptr(160), PriceYesterday: fptr(155)},
	}}
	svc, repo, _ := newService(t, market)

	created, err := repo.Create(validAsset())
	require.NoError(t, err)

	refreshed, updated, warnings, err := svc.RefreshAsset(created.AssetID)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Empty(t, warnings)
	require.NotNil(t, refreshed.CurrentPrice)
	assert.Equal(t, 160.0, *refreshed.CurrentPrice)
}

func TestRefreshAssetGatewayFailureLeavesStoredPrices(t *testing.T) {
	market := &fakeMarket{quotes: map[string]*yahoo.Quote{
		"AAPL": {CurrentPrice: fptr(160)},
	}}
	svc, repo, _ := newService(t, market)

	created, err := repo.Create(validAsset())
	require.NoError(t, err)
	require.NoError(t, repo.UpdatePricesByTicker("AAPL", PriceUpdate{CurrentPrice: fptr(150)}))

	// Gateway goes dark
	market.quotes = map[string]*yahoo.Quote{}

	asset, updated, warnings, err := svc.RefreshAsset(created.AssetID)
	require.NoError(t, err)
	assert.False(t, updated)
	require.Len(t, warnings, 1)

	require.NotNil(t, asset.CurrentPrice)
	assert.Equal(t, 150.0, *asset.CurrentPrice)
}

func TestRefreshAssetNotFound(t *testing.T) {
	svc, _, _ := newService(t, &fakeMarket{})

	_, _, _, err := svc.RefreshAsset(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshAllIsolatesFailures(t *testing.T) {
	market := &fakeMarket{
		quotes: map[string]*yahoo.Quote{
			"AAPL": {CurrentPrice: fptr(150)},
			// MSFT missing -> fails
		},
		rate: 1.372,
	}
	svc, repo, settingsRepo := newService(t, market)

	_, err := repo.Create(validAsset())
	require.NoError(t, err)
	msft := validAsset()
	msft.TickerSymbol = "MSFT"
	msft.AccountID = 1
	// Same account cannot hold two AAPL rows, different ticker is fine
	_, err = repo.Create(msft)
	require.NoError(t, err)

	report, err := svc.RefreshAll()
	require.NoError(t, err)

	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, []string{"MSFT"}, report.FailedTickers)
	assert.True(t, report.ExchangeRateUpdated)

	rate, err := settingsRepo.USDToCADRate()
	require.NoError(t, err)
	assert.Equal(t, 1.372, rate)
}

func TestRefreshAllRateFailureIsNotFatal(t *testing.T) {
	market := &fakeMarket{
		quotes:  map[string]*yahoo.Quote{"AAPL": {CurrentPrice: fptr(150)}},
		rateErr: errors.New("rate unavailable"),
	}
	svc, repo, _ := newService(t, market)

	_, err := repo.Create(validAsset())
	require.NoError(t, err)

	report, err := svc.RefreshAll()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.False(t, report.ExchangeRateUpdated)
}

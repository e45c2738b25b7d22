package assets

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/clients/yahoo"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/settings"
)

// MarketData is the slice of the market gateway the asset service needs.
type MarketData interface {
	GetQuote(symbol string) (*yahoo.Quote, error)
	GetExchangeRate(pair string) (float64, error)
}

// Service coordinates asset persistence with market-data refreshes.
type Service struct {
	repo     *Repository
	settings *settings.Repository
	market   MarketData
	log      zerolog.Logger
}

// NewService creates a new asset service.
func NewService(repo *Repository, settingsRepo *settings.Repository, market MarketData, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		settings: settingsRepo,
		market:   market,
		log:      log.With().Str("service", "assets").Logger(),
	}
}

// AddAsset creates the asset and immediately tries to fetch market data for
// it. A gateway failure is a warning, not an error: the asset is stored with
// null prices and can be refreshed later.
func (s *Service) AddAsset(a Asset) (*Asset, []string, error) {
	created, err := s.repo.Create(a)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	quote, err := s.market.GetQuote(created.TickerSymbol)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", created.TickerSymbol).
			Msg("Market data unavailable for new asset")
		warnings = append(warnings,
			fmt.Sprintf("market data unavailable for %s, prices left empty", created.TickerSymbol))
		return created, warnings, nil
	}

	if err := s.applyQuote(created.TickerSymbol, quote); err != nil {
		s.log.Error().Err(err).Str("ticker", created.TickerSymbol).Msg("Failed to store fetched prices")
		warnings = append(warnings,
			fmt.Sprintf("failed to store market data for %s", created.TickerSymbol))
		return created, warnings, nil
	}

	return s.refetch(created.AssetID, warnings)
}

// RefreshAsset refreshes market data for a single asset.
// Returns updated=false with a warning when the gateway is unavailable;
// stored prices are left untouched in that case.
func (s *Service) RefreshAsset(assetID int64) (*Asset, bool, []string, error) {
	asset, err := s.repo.GetByID(assetID)
	if err != nil {
		return nil, false, nil, err
	}

	quote, err := s.market.GetQuote(asset.TickerSymbol)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", asset.TickerSymbol).Msg("Quote refresh failed")
		warning := fmt.Sprintf("market data unavailable for %s, stored prices unchanged", asset.TickerSymbol)
		return asset, false, []string{warning}, nil
	}

	if err := s.applyQuote(asset.TickerSymbol, quote); err != nil {
		return nil, false, nil, err
	}

	refreshed, err := s.repo.GetByID(assetID)
	if err != nil {
		return nil, false, nil, err
	}
	return refreshed, true, nil, nil
}

// RefreshReport summarizes a refresh-all sweep.
type RefreshReport struct {
	ReportID            string   `json:"report_id"`
	Attempted           int      `json:"attempted"`
	Updated             int      `json:"updated"`
	FailedTickers       []string `json:"failed_tickers"`
	ExchangeRateUpdated bool     `json:"exchange_rate_updated"`
}

// RefreshAll refreshes every unique ticker sequentially. Per-ticker failures
// are collected into the report, never fatal. The stored USD to CAD rate is
// refreshed in the same sweep.
func (s *Service) RefreshAll() (*RefreshReport, error) {
	tickers, err := s.repo.UniqueTickers()
	if err != nil {
		return nil, err
	}

	report := &RefreshReport{
		ReportID:      uuid.NewString(),
		Attempted:     len(tickers),
		FailedTickers: []string{},
	}

	for _, ticker := range tickers {
		quote, err := s.market.GetQuote(ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Refresh failed for ticker")
			report.FailedTickers = append(report.FailedTickers, ticker)
			continue
		}
		if err := s.applyQuote(ticker, quote); err != nil {
			s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to store refreshed prices")
			report.FailedTickers = append(report.FailedTickers, ticker)
			continue
		}
		report.Updated++
	}

	rate, err := s.market.GetExchangeRate(yahoo.DefaultExchangeRatePair)
	if err != nil {
		s.log.Warn().Err(err).Msg("Exchange rate refresh failed")
	} else if err := s.settings.SetFloat(settings.KeyUSDToCADRate, rate); err != nil {
		s.log.Error().Err(err).Msg("Failed to store refreshed exchange rate")
	} else {
		report.ExchangeRateUpdated = true
	}

	s.log.Info().
		Str("report_id", report.ReportID).
		Int("attempted", report.Attempted).
		Int("updated", report.Updated).
		Int("failed", len(report.FailedTickers)).
		Bool("exchange_rate_updated", report.ExchangeRateUpdated).
		Msg("Refresh-all sweep complete")

	return report, nil
}

// applyQuote writes a fetched quote to every asset holding the ticker.
func (s *Service) applyQuote(ticker string, quote *yahoo.Quote) error {
	return s.repo.UpdatePricesByTicker(ticker, PriceUpdate{
		CurrentPrice:     quote.CurrentPrice,
		PriceYesterday:   quote.PriceYesterday,
		FiftyTwoWeekHigh: quote.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  quote.FiftyTwoWeekLow,
		Name:             quote.Name,
	})
}

// refetch reloads an asset after a price write so callers see fresh fields.
func (s *Service) refetch(assetID int64, warnings []string) (*Asset, []string, error) {
	asset, err := s.repo.GetByID(assetID)
	if err != nil {
		return nil, warnings, err
	}
	return asset, warnings, nil
}

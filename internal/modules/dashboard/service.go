package dashboard

import (
	"github.com/rs/zerolog"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/clients/yahoo"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/accounts"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/history"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/settings"
)

// HistoryProvider is the slice of the market gateway the dashboard needs.
type HistoryProvider interface {
	GetYearlyHistory(symbol string) ([]yahoo.HistoryPoint, error)
}

// Service computes the dashboard view-model.
type Service struct {
	assetsRepo   *assets.Repository
	accountsRepo *accounts.Repository
	historyRepo  *history.Repository
	settingsRepo *settings.Repository
	market       HistoryProvider
	log          zerolog.Logger
}

// NewService creates a new dashboard service.
func NewService(
	assetsRepo *assets.Repository,
	accountsRepo *accounts.Repository,
	historyRepo *history.Repository,
	settingsRepo *settings.Repository,
	market HistoryProvider,
	log zerolog.Logger,
) *Service {
	return &Service{
		assetsRepo:   assetsRepo,
		accountsRepo: accountsRepo,
		historyRepo:  historyRepo,
		settingsRepo: settingsRepo,
		market:       market,
		log:          log.With().Str("service", "dashboard").Logger(),
	}
}

// ComputeView builds the full dashboard view-model and, as a side effect,
// records today's portfolio snapshot if none exists yet.
func (s *Service) ComputeView() (*View, error) {
	accountList, err := s.accountsRepo.List()
	if err != nil {
		return nil, err
	}

	rows, err := s.assetsRepo.ListJoined()
	if err != nil {
		return nil, err
	}

	users, global := BuildRollup(accountList, rows)
	rankedAssets := RankAssets(users)
	rankedAccounts := RankAccounts(users)

	view := &View{
		Global:                  global,
		Users:                   users,
		RankedAssets:            rankedAssets,
		RankedAccounts:          rankedAccounts,
		AllocationByAccountType: AllocationByAccountType(users),
		AllocationByUser:        AllocationByUser(users),
		AllocationByAccount:     AllocationByAccount(users),
	}

	if len(rankedAssets) > 0 {
		view.BestPerformer = s.performer(rankedAssets[0])
		view.WorstPerformer = s.performer(rankedAssets[len(rankedAssets)-1])
	}

	recorded, err := s.historyRepo.RecordToday(global.OverallPortfolioValue)
	if err != nil {
		// Snapshot failures must not break the dashboard
		s.log.Warn().Err(err).Msg("Failed to record daily snapshot")
	}
	view.SnapshotRecorded = recorded

	snapshots, err := s.historyRepo.List()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load portfolio history")
		snapshots = []history.Snapshot{}
	}
	view.PortfolioHistory = snapshots

	values := make([]float64, 0, len(snapshots))
	for _, snap := range snapshots {
		values = append(values, snap.TotalPortfolioValue)
	}
	view.PortfolioHistoryStats = computeReturnStats(values)

	view.TargetGoalValue, err = s.settingsRepo.TargetGoalValue()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read target goal, using default")
		view.TargetGoalValue = settings.DefaultTargetGoalValue
	}
	view.USDToCADRate, err = s.settingsRepo.USDToCADRate()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read exchange rate, using default")
		view.USDToCADRate = settings.DefaultUSDToCADRate
	}

	return view, nil
}

// performer wraps a ranked asset with its yearly history and return stats.
// Gateway failures yield an empty history, never an error.
func (s *Service) performer(asset AssetSummary) *Performer {
	points, err := s.market.GetYearlyHistory(asset.TickerSymbol)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", asset.TickerSymbol).
			Msg("Yearly history unavailable for performer")
		points = []yahoo.HistoryPoint{}
	}

	closes := make([]float64, 0, len(points))
	for _, p := range points {
		closes = append(closes, p.Close)
	}

	return &Performer{
		AssetSummary: asset,
		History:      points,
		Stats:        computeReturnStats(closes),
	}
}

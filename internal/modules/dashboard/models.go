// Package dashboard computes the portfolio dashboard view-model: per-asset
// metrics rolled up through account, platform, user, and global levels, plus
// rankings, allocation breakdowns, and performer histories.
package dashboard

import (
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/clients/yahoo"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/history"
)

// AssetSummary is a single asset with its derived metrics and ownership
// context, as shown on the dashboard.
type AssetSummary struct {
	AssetID       int64   `json:"asset_id"`
	TickerSymbol  string  `json:"ticker_symbol"`
	Name          string  `json:"name"`
	Quantity      float64 `json:"quantity"`
	AverageCost   float64 `json:"average_cost"`
	TotalInvested float64 `json:"total_invested"`
	assets.Metrics
	AccountName  string `json:"account_name"`
	PlatformName string `json:"platform_name"`
	UserName     string `json:"user_name"`
}

// AccountSummary rolls an account's assets up with its cash balance.
type AccountSummary struct {
	AccountID            int64          `json:"account_id"`
	AccountName          string         `json:"account_name"`
	AccountType          string         `json:"account_type"`
	PlatformName         string         `json:"platform_name"`
	UserName             string         `json:"user_name"`
	CashBalance          float64        `json:"cash_balance"`
	TotalInvested        float64        `json:"total_invested"`
	CurrentValueOfAssets float64        `json:"current_value_of_assets"`
	ProfitLossAmount     float64        `json:"profit_loss_amount"`
	ProfitLossPercent    float64        `json:"profit_loss_percent"`
	TotalValue           float64        `json:"total_value"`
	Assets               []AssetSummary `json:"assets"`
}

// PlatformSummary rolls up a user's accounts on one platform.
type PlatformSummary struct {
	PlatformID           int64            `json:"platform_id"`
	PlatformName         string           `json:"platform_name"`
	TotalInvested        float64          `json:"total_invested"`
	CurrentValueOfAssets float64          `json:"current_value_of_assets"`
	TotalCash            float64          `json:"total_cash"`
	ProfitLossAmount     float64          `json:"profit_loss_amount"`
	ProfitLossPercent    float64          `json:"profit_loss_percent"`
	TotalValue           float64          `json:"total_value"`
	Accounts             []AccountSummary `json:"accounts"`
}

// UserSummary rolls up everything one user holds.
type UserSummary struct {
	UserID               int64             `json:"user_id"`
	UserName             string            `json:"user_name"`
	TotalInvested        float64           `json:"total_invested"`
	CurrentValueOfAssets float64           `json:"current_value_of_assets"`
	TotalCash            float64           `json:"total_cash"`
	ProfitLossAmount     float64           `json:"profit_loss_amount"`
	ProfitLossPercent    float64           `json:"profit_loss_percent"`
	TotalValue           float64           `json:"total_value"`
	Platforms            []PlatformSummary `json:"platforms"`
}

// GlobalSummary is the portfolio-wide rollup.
//
// total_invested_assets_plus_cash is deliberately distinct from
// overall_portfolio_value: the former uses invested cost for the asset
// component, the latter uses current value.
type GlobalSummary struct {
	GlobalTotalInvested         float64 `json:"global_total_invested"`
	GlobalCurrentValue          float64 `json:"global_current_value"`
	GlobalTotalCash             float64 `json:"global_total_cash"`
	OverallPortfolioValue       float64 `json:"overall_portfolio_value"`
	TotalInvestedAssetsPlusCash float64 `json:"total_invested_assets_plus_cash"`
	GlobalProfitLossAmount      float64 `json:"global_profit_loss_amount"`
	GlobalProfitLossPercent     float64 `json:"global_profit_loss_percent"`
}

// AllocationSlice is one group in an allocation chart.
type AllocationSlice struct {
	Label      string  `json:"label"`
	TotalValue float64 `json:"total_value"`
}

// ReturnStats summarizes a daily price or value series.
type ReturnStats struct {
	MeanDailyReturn  float64 `json:"mean_daily_return"`
	ReturnVolatility float64 `json:"return_volatility"`
}

// Performer is a best or worst performing asset with its yearly history.
type Performer struct {
	AssetSummary
	History []yahoo.HistoryPoint `json:"history"`
	Stats   ReturnStats          `json:"stats"`
}

// View is the full dashboard view-model returned by GET /api/dashboard.
type View struct {
	Global                  GlobalSummary      `json:"global"`
	Users                   []UserSummary      `json:"users"`
	RankedAssets            []AssetSummary     `json:"ranked_assets"`
	RankedAccounts          []AccountSummary   `json:"ranked_accounts"`
	BestPerformer           *Performer         `json:"best_performer"`
	WorstPerformer          *Performer         `json:"worst_performer"`
	AllocationByAccountType []AllocationSlice  `json:"allocation_by_account_type"`
	AllocationByUser        []AllocationSlice  `json:"allocation_by_user"`
	AllocationByAccount     []AllocationSlice  `json:"allocation_by_account"`
	PortfolioHistory        []history.Snapshot `json:"portfolio_history"`
	PortfolioHistoryStats   ReturnStats        `json:"portfolio_history_stats"`
	TargetGoalValue         float64            `json:"target_goal_value"`
	USDToCADRate            float64            `json:"usd_to_cad_exchange_rate"`
	SnapshotRecorded        bool               `json:"snapshot_recorded"`
}

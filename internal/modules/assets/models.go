// Package assets manages asset holdings: the stored records, their derived
// metrics, and the market-data refresh pipeline.
package assets

// Asset is a single holding within an account. Price fields are nil until
// market data has been fetched for the ticker.
type Asset struct {
	AssetID          int64    `json:"asset_id"`
	AccountID        int64    `json:"account_id"`
	TickerSymbol     string   `json:"ticker_symbol"`
	Name             string   `json:"name"`
	Quantity         float64  `json:"quantity"`
	AverageCost      float64  `json:"average_cost"`
	TotalInvested    float64  `json:"total_invested"`
	CurrentPrice     *float64 `json:"current_price"`
	PriceYesterday   *float64 `json:"price_yesterday"`
	FiftyTwoWeekHigh *float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  *float64 `json:"fifty_two_week_low"`
	Notes            string   `json:"notes"`
}

// Metrics are the values derived from an asset's stored fields.
// They are computed on demand and never persisted.
type Metrics struct {
	CurrentValue        float64  `json:"current_value"`
	ProfitLossAmount    float64  `json:"profit_loss_amount"`
	ProfitLossPercent   float64  `json:"profit_loss_percent"`
	DayChangePercent    *float64 `json:"day_change_percent"`
	PercentTo52WeekHigh *float64 `json:"percent_to_52_week_high"`
}

// ComputeMetrics derives the per-asset metrics.
//
// current_value is 0 when the price is unknown. profit_loss_percent is 0
// when total_invested <= 0 (policy, avoids division by zero). The two
// percentage fields stay nil unless every input they need is known.
func (a *Asset) ComputeMetrics() Metrics {
	m := Metrics{}

	if a.CurrentPrice != nil {
		m.CurrentValue = a.Quantity * *a.CurrentPrice
	}

	m.ProfitLossAmount = m.CurrentValue - a.TotalInvested
	if a.TotalInvested > 0 {
		m.ProfitLossPercent = m.ProfitLossAmount / a.TotalInvested * 100
	}

	if a.CurrentPrice != nil && a.PriceYesterday != nil && *a.PriceYesterday > 0 {
		change := (*a.CurrentPrice - *a.PriceYesterday) / *a.PriceYesterday * 100
		m.DayChangePercent = &change
	}

	if a.CurrentPrice != nil && a.FiftyTwoWeekHigh != nil && *a.FiftyTwoWeekHigh > 0 {
		dist := (*a.CurrentPrice - *a.FiftyTwoWeekHigh) / *a.FiftyTwoWeekHigh * 100
		m.PercentTo52WeekHigh = &dist
	}

	return m
}

// CostBasis returns total_invested, falling back to quantity * average_cost
// when no total has been recorded, and finally to 0.
func (a *Asset) CostBasis() float64 {
	if a.TotalInvested > 0 {
		return a.TotalInvested
	}
	if a.Quantity > 0 && a.AverageCost > 0 {
		return a.Quantity * a.AverageCost
	}
	return 0
}

// JoinedRow is an asset with its full ownership context, as produced by the
// flat join the aggregation engine consumes.
type JoinedRow struct {
	Asset
	AccountName  string  `json:"account_name"`
	AccountType  string  `json:"account_type"`
	CashBalance  float64 `json:"cash_balance"`
	PlatformID   int64   `json:"platform_id"`
	PlatformName string  `json:"platform_name"`
	UserID       int64   `json:"user_id"`
	UserName     string  `json:"user_name"`
}

// Package simulation projects hypothetical buy and sell outcomes for an
// asset. Simulations are side-effect-free: nothing is written to the store.
package simulation

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets"
)

// Sentinel errors returned by the simulation engine.
var (
	ErrValidation       = errors.New("invalid simulation input")
	ErrPriceUnavailable = errors.New("current price unavailable, refresh market data first")
)

// SellResult projects selling an entire position at a hypothetical price.
type SellResult struct {
	AssetID               int64   `json:"asset_id"`
	TickerSymbol          string  `json:"ticker_symbol"`
	Quantity              float64 `json:"quantity"`
	HypotheticalSalePrice float64 `json:"hypothetical_sale_price"`
	OriginalCost          float64 `json:"original_cost"`
	TotalProceeds         float64 `json:"total_proceeds"`
	ProfitDollars         float64 `json:"profit_dollars"`
	ProfitPercent         float64 `json:"profit_percent"`
}

// BuyResult projects adding to a position at the current market price.
type BuyResult struct {
	AssetID                  int64   `json:"asset_id"`
	TickerSymbol             string  `json:"ticker_symbol"`
	CurrentPrice             float64 `json:"current_price"`
	SharesPurchased          float64 `json:"shares_purchased"`
	CostOfPurchase           float64 `json:"cost_of_purchase"`
	NewTotalQuantity         float64 `json:"new_total_quantity"`
	NewTotalInvested         float64 `json:"new_total_invested"`
	NewAverageCost           float64 `json:"new_average_cost"`
	NewCurrentTotalValue     float64 `json:"new_current_total_value"`
	NewProfitLossAmount      float64 `json:"new_profit_loss_amount"`
	NewProfitLossPercent     float64 `json:"new_profit_loss_percent"`
	CurrentProfitLossAmount  float64 `json:"current_profit_loss_amount"`
	CurrentProfitLossPercent float64 `json:"current_profit_loss_percent"`
}

// Service runs buy and sell simulations.
type Service struct {
	repo *assets.Repository
	log  zerolog.Logger
}

// NewService creates a new simulation service.
func NewService(repo *assets.Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "simulation").Logger(),
	}
}

// SimulateSell projects selling the full position at salePrice.
// The cost basis falls back from total_invested to quantity * average_cost
// to zero.
func (s *Service) SimulateSell(assetID int64, salePrice float64) (*SellResult, error) {
	if salePrice < 0 {
		return nil, fmt.Errorf("%w: sale price cannot be negative", ErrValidation)
	}

	asset, err := s.repo.GetByID(assetID)
	if err != nil {
		return nil, err
	}

	originalCost := asset.CostBasis()
	proceeds := asset.Quantity * salePrice
	profit := proceeds - originalCost

	result := &SellResult{
		AssetID:               asset.AssetID,
		TickerSymbol:          asset.TickerSymbol,
		Quantity:              asset.Quantity,
		HypotheticalSalePrice: salePrice,
		OriginalCost:          originalCost,
		TotalProceeds:         proceeds,
		ProfitDollars:         profit,
	}
	if originalCost > 0 {
		result.ProfitPercent = profit / originalCost * 100
	}

	return result, nil
}

// SimulateBuy projects a purchase of either investmentAmount dollars or
// sharesToBuy shares, exactly one of which must be positive. Requires a
// known current price.
func (s *Service) SimulateBuy(assetID int64, investmentAmount, sharesToBuy float64) (*BuyResult, error) {
	if investmentAmount < 0 || sharesToBuy < 0 {
		return nil, fmt.Errorf("%w: amounts must be positive", ErrValidation)
	}
	if investmentAmount > 0 && sharesToBuy > 0 {
		return nil, fmt.Errorf("%w: provide an investment amount or a share count, not both", ErrValidation)
	}
	if investmentAmount == 0 && sharesToBuy == 0 {
		return nil, fmt.Errorf("%w: an investment amount or a share count is required", ErrValidation)
	}

	asset, err := s.repo.GetByID(assetID)
	if err != nil {
		return nil, err
	}
	if asset.CurrentPrice == nil {
		return nil, ErrPriceUnavailable
	}
	price := *asset.CurrentPrice

	var sharesPurchased float64
	if investmentAmount > 0 {
		sharesPurchased = investmentAmount / price
	} else {
		sharesPurchased = sharesToBuy
	}
	costOfPurchase := sharesPurchased * price

	newQuantity := asset.Quantity + sharesPurchased
	newInvested := asset.TotalInvested + costOfPurchase
	newValue := newQuantity * price
	newProfit := newValue - newInvested

	result := &BuyResult{
		AssetID:              asset.AssetID,
		TickerSymbol:         asset.TickerSymbol,
		CurrentPrice:         price,
		SharesPurchased:      sharesPurchased,
		CostOfPurchase:       costOfPurchase,
		NewTotalQuantity:     newQuantity,
		NewTotalInvested:     newInvested,
		NewCurrentTotalValue: newValue,
		NewProfitLossAmount:  newProfit,
	}
	if newQuantity > 0 {
		result.NewAverageCost = newInvested / newQuantity
	}
	if newInvested > 0 {
		result.NewProfitLossPercent = newProfit / newInvested * 100
	}

	current := asset.ComputeMetrics()
	result.CurrentProfitLossAmount = current.ProfitLossAmount
	result.CurrentProfitLossPercent = current.ProfitLossPercent

	return result, nil
}

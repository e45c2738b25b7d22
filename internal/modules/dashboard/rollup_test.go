package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/accounts"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets"
)

func fptr(f float64) *float64 { return &f }

func account(id, userID, platformID int64, user, platform, name, accType string, cash float64) accounts.Detail {
	return accounts.Detail{
		Account: accounts.Account{
			AccountID:   id,
			UserID:      userID,
			PlatformID:  platformID,
			AccountType: accType,
			AccountName: name,
			CashBalance: cash,
		},
		UserName:     user,
		PlatformName: platform,
	}
}

func row(assetID, accountID int64, acct accounts.Detail, ticker string, qty, invested float64, price *float64) assets.JoinedRow {
	return assets.JoinedRow{
		Asset: assets.Asset{
			AssetID:       assetID,
			AccountID:     accountID,
			TickerSymbol:  ticker,
			Quantity:      qty,
			TotalInvested: invested,
			CurrentPrice:  price,
		},
		AccountName:  acct.AccountName,
		AccountType:  acct.AccountType,
		CashBalance:  acct.CashBalance,
		PlatformID:   acct.PlatformID,
		PlatformName: acct.PlatformName,
		UserID:       acct.UserID,
		UserName:     acct.UserName,
	}
}

// Two users, two platforms, three accounts, four assets.
func fixture() ([]accounts.Detail, []assets.JoinedRow) {
	tfsa := account(1, 1, 1, "Alice", "Questrade", "Alice TFSA", "TFSA", 500)
	rrsp := account(2, 1, 2, "Alice", "Wealthsimple", "Alice RRSP", "RRSP", 0)
	bobTFSA := account(3, 2, 1, "Bob", "Questrade", "Bob TFSA", "TFSA", 250)

	accountList := []accounts.Detail{tfsa, rrsp, bobTFSA}
	rows := []assets.JoinedRow{
		row(1, 1, tfsa, "AAPL", 10, 1000, fptr(150)), // value 1500, +50%
		row(2, 1, tfsa, "MSFT", 5, 2000, fptr(300)),  // value 1500, -25%
		row(3, 2, rrsp, "VTI", 20, 4000, fptr(250)),  // value 5000, +25%
		row(4, 3, bobTFSA, "GME", 10, 500, fptr(20)), // value 200, -60%
	}
	return accountList, rows
}

func TestRollupAccountLevel(t *testing.T) {
	accountList, rows := fixture()
	users, _ := BuildRollup(accountList, rows)

	require.Len(t, users, 2)
	alice := users[0]
	assert.Equal(t, "Alice", alice.UserName)
	require.Len(t, alice.Platforms, 2)

	tfsa := alice.Platforms[0].Accounts[0]
	assert.Equal(t, 3000.0, tfsa.TotalInvested)
	assert.Equal(t, 3000.0, tfsa.CurrentValueOfAssets)
	assert.Equal(t, 0.0, tfsa.ProfitLossAmount)
	assert.Equal(t, 0.0, tfsa.ProfitLossPercent)
	assert.Equal(t, 3500.0, tfsa.TotalValue) // assets + cash
}

func TestRollupGlobalTotals(t *testing.T) {
	accountList, rows := fixture()
	_, global := BuildRollup(accountList, rows)

	assert.Equal(t, 7500.0, global.GlobalTotalInvested)
	assert.Equal(t, 8200.0, global.GlobalCurrentValue)
	assert.Equal(t, 750.0, global.GlobalTotalCash)
	assert.Equal(t, 8950.0, global.OverallPortfolioValue)
	assert.Equal(t, 8250.0, global.TotalInvestedAssetsPlusCash)
	assert.Equal(t, 700.0, global.GlobalProfitLossAmount)
	assert.InDelta(t, 9.333333, global.GlobalProfitLossPercent, 1e-6)
}

// The rollup is a sum, so shuffling input rows must not change any total.
func TestRollupOrderIndependent(t *testing.T) {
	accountList, rows := fixture()
	_, global1 := BuildRollup(accountList, rows)

	reversed := make([]assets.JoinedRow, len(rows))
	for i, r := range rows {
		reversed[len(rows)-1-i] = r
	}
	_, global2 := BuildRollup(accountList, reversed)

	assert.InDelta(t, global1.GlobalCurrentValue, global2.GlobalCurrentValue, 1e-9)
	assert.InDelta(t, global1.OverallPortfolioValue, global2.OverallPortfolioValue, 1e-9)
	assert.InDelta(t, global1.GlobalProfitLossPercent, global2.GlobalProfitLossPercent, 1e-9)
}

// Parent current_value_of_assets must equal the sum over children at every level.
func TestRollupChildSumsMatchParents(t *testing.T) {
	accountList, rows := fixture()
	users, global := BuildRollup(accountList, rows)

	var globalFromUsers float64
	for _, u := range users {
		var userFromPlatforms float64
		for _, p := range u.Platforms {
			var platformFromAccounts float64
			for _, a := range p.Accounts {
				var accountFromAssets float64
				for _, asset := range a.Assets {
					accountFromAssets += asset.CurrentValue
				}
				assert.InDelta(t, a.CurrentValueOfAssets, accountFromAssets, 1e-9)
				platformFromAccounts += a.CurrentValueOfAssets
			}
			assert.InDelta(t, p.CurrentValueOfAssets, platformFromAccounts, 1e-9)
			userFromPlatforms += p.CurrentValueOfAssets
		}
		assert.InDelta(t, u.CurrentValueOfAssets, userFromPlatforms, 1e-9)
		globalFromUsers += u.CurrentValueOfAssets
	}
	assert.InDelta(t, global.GlobalCurrentValue, globalFromUsers, 1e-9)
}

func TestRollupCashOnlyAccountContributes(t *testing.T) {
	cashAccount := account(1, 1, 1, "Alice", "Questrade", "Cash Stash", "Savings", 1000)

	users, global := BuildRollup([]accounts.Detail{cashAccount}, nil)

	require.Len(t, users, 1)
	assert.Equal(t, 1000.0, global.GlobalTotalCash)
	assert.Equal(t, 1000.0, global.OverallPortfolioValue)
	assert.Equal(t, 0.0, global.GlobalTotalInvested)
	// Zero-guard: no invested capital means percent is pinned to 0
	assert.Equal(t, 0.0, global.GlobalProfitLossPercent)
}

func TestRankAssetsDescendingAndFiltered(t *testing.T) {
	accountList, rows := fixture()
	// Asset with zero invested capital must never be ranked
	free := row(5, 1, accountList[0], "FREE", 10, 0, fptr(100))
	rows = append(rows, free)

	users, _ := BuildRollup(accountList, rows)
	ranked := RankAssets(users)

	require.Len(t, ranked, 4)
	assert.Equal(t, "AAPL", ranked[0].TickerSymbol) // +50%
	assert.Equal(t, "VTI", ranked[1].TickerSymbol)  // +25%
	assert.Equal(t, "MSFT", ranked[2].TickerSymbol) // -25%
	assert.Equal(t, "GME", ranked[3].TickerSymbol)  // -60%
}

func TestRankAssetsStableForTies(t *testing.T) {
	acct := account(1, 1, 1, "Alice", "Questrade", "Alice TFSA", "TFSA", 0)
	rows := []assets.JoinedRow{
		row(1, 1, acct, "AAA", 1, 100, fptr(110)), // +10%
		row(2, 1, acct, "BBB", 1, 200, fptr(220)), // +10%
		row(3, 1, acct, "CCC", 1, 300, fptr(330)), // +10%
	}

	users, _ := BuildRollup([]accounts.Detail{acct}, rows)
	ranked := RankAssets(users)

	require.Len(t, ranked, 3)
	assert.Equal(t, "AAA", ranked[0].TickerSymbol)
	assert.Equal(t, "BBB", ranked[1].TickerSymbol)
	assert.Equal(t, "CCC", ranked[2].TickerSymbol)
}

func TestRankAccounts(t *testing.T) {
	accountList, rows := fixture()
	users, _ := BuildRollup(accountList, rows)

	ranked := RankAccounts(users)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Alice RRSP", ranked[0].AccountName) // +25%
	assert.Equal(t, "Alice TFSA", ranked[1].AccountName) // 0%
	assert.Equal(t, "Bob TFSA", ranked[2].AccountName)   // -60%
}

func TestAllocationBreakdowns(t *testing.T) {
	accountList, rows := fixture()
	users, _ := BuildRollup(accountList, rows)

	byType := AllocationByAccountType(users)
	require.Len(t, byType, 2)
	assert.Equal(t, AllocationSlice{Label: "TFSA", TotalValue: 3950}, byType[0])
	assert.Equal(t, AllocationSlice{Label: "RRSP", TotalValue: 5000}, byType[1])

	byUser := AllocationByUser(users)
	require.Len(t, byUser, 2)
	assert.Equal(t, "Alice", byUser[0].Label)
	assert.Equal(t, 8500.0, byUser[0].TotalValue)

	byAccount := AllocationByAccount(users)
	require.Len(t, byAccount, 3)
	assert.Equal(t, "Alice - Alice TFSA (Questrade)", byAccount[0].Label)
}

func TestAllocationOmitsNonPositiveGroups(t *testing.T) {
	empty := account(1, 1, 1, "Alice", "Questrade", "Empty", "TFSA", 0)

	users, _ := BuildRollup([]accounts.Detail{empty}, nil)

	assert.Nil(t, AllocationByAccountType(users))
	assert.Nil(t, AllocationByUser(users))
	assert.Nil(t, AllocationByAccount(users))
}

package dashboard

import (
	"fmt"
	"sort"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/accounts"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets"
)

// BuildRollup reduces the flat join rows into the user→platform→account tree
// and the global summary. It is a pure function: the same inputs always
// produce the same tree, and summation order follows the input order.
//
// Accounts with no assets still appear in the tree so their cash balances
// contribute to every level.
func BuildRollup(accountList []accounts.Detail, rows []assets.JoinedRow) ([]UserSummary, GlobalSummary) {
	assetsByAccount := make(map[int64][]assets.JoinedRow, len(accountList))
	for _, row := range rows {
		assetsByAccount[row.AccountID] = append(assetsByAccount[row.AccountID], row)
	}

	accountSummaries := make([]AccountSummary, 0, len(accountList))
	for _, acct := range accountList {
		accountSummaries = append(accountSummaries, buildAccountSummary(acct, assetsByAccount[acct.AccountID]))
	}

	users := groupUsers(accountList, accountSummaries)

	var global GlobalSummary
	for _, u := range users {
		global.GlobalTotalInvested += u.TotalInvested
		global.GlobalCurrentValue += u.CurrentValueOfAssets
		global.GlobalTotalCash += u.TotalCash
	}
	global.OverallPortfolioValue = global.GlobalCurrentValue + global.GlobalTotalCash
	global.TotalInvestedAssetsPlusCash = global.GlobalTotalInvested + global.GlobalTotalCash
	global.GlobalProfitLossAmount = global.GlobalCurrentValue - global.GlobalTotalInvested
	if global.GlobalTotalInvested > 0 {
		global.GlobalProfitLossPercent = global.GlobalProfitLossAmount / global.GlobalTotalInvested * 100
	}

	return users, global
}

func buildAccountSummary(acct accounts.Detail, rows []assets.JoinedRow) AccountSummary {
	summary := AccountSummary{
		AccountID:    acct.AccountID,
		AccountName:  acct.AccountName,
		AccountType:  acct.AccountType,
		PlatformName: acct.PlatformName,
		UserName:     acct.UserName,
		CashBalance:  acct.CashBalance,
		Assets:       make([]AssetSummary, 0, len(rows)),
	}

	for _, row := range rows {
		metrics := row.ComputeMetrics()
		summary.Assets = append(summary.Assets, AssetSummary{
			AssetID:       row.AssetID,
			TickerSymbol:  row.TickerSymbol,
			Name:          row.Asset.Name,
			Quantity:      row.Quantity,
			AverageCost:   row.AverageCost,
			TotalInvested: row.TotalInvested,
			Metrics:       metrics,
			AccountName:   row.AccountName,
			PlatformName:  row.PlatformName,
			UserName:      row.UserName,
		})

		summary.TotalInvested += row.TotalInvested
		summary.CurrentValueOfAssets += metrics.CurrentValue
	}

	summary.ProfitLossAmount = summary.CurrentValueOfAssets - summary.TotalInvested
	if summary.TotalInvested > 0 {
		summary.ProfitLossPercent = summary.ProfitLossAmount / summary.TotalInvested * 100
	}
	summary.TotalValue = summary.CurrentValueOfAssets + summary.CashBalance

	return summary
}

// groupUsers builds the user→platform grouping in first-seen input order.
func groupUsers(accountList []accounts.Detail, summaries []AccountSummary) []UserSummary {
	var users []UserSummary
	userIndex := make(map[int64]int)
	platformIndex := make(map[int64]map[int64]int)

	for i, acct := range accountList {
		ui, seen := userIndex[acct.UserID]
		if !seen {
			ui = len(users)
			userIndex[acct.UserID] = ui
			platformIndex[acct.UserID] = make(map[int64]int)
			users = append(users, UserSummary{UserID: acct.UserID, UserName: acct.UserName})
		}

		pi, seen := platformIndex[acct.UserID][acct.PlatformID]
		if !seen {
			pi = len(users[ui].Platforms)
			platformIndex[acct.UserID][acct.PlatformID] = pi
			users[ui].Platforms = append(users[ui].Platforms, PlatformSummary{
				PlatformID:   acct.PlatformID,
				PlatformName: acct.PlatformName,
			})
		}

		platform := &users[ui].Platforms[pi]
		platform.Accounts = append(platform.Accounts, summaries[i])
		platform.TotalInvested += summaries[i].TotalInvested
		platform.CurrentValueOfAssets += summaries[i].CurrentValueOfAssets
		platform.TotalCash += summaries[i].CashBalance
	}

	for ui := range users {
		user := &users[ui]
		for pi := range user.Platforms {
			platform := &user.Platforms[pi]
			platform.ProfitLossAmount = platform.CurrentValueOfAssets - platform.TotalInvested
			if platform.TotalInvested > 0 {
				platform.ProfitLossPercent = platform.ProfitLossAmount / platform.TotalInvested * 100
			}
			platform.TotalValue = platform.CurrentValueOfAssets + platform.TotalCash

			user.TotalInvested += platform.TotalInvested
			user.CurrentValueOfAssets += platform.CurrentValueOfAssets
			user.TotalCash += platform.TotalCash
		}

		user.ProfitLossAmount = user.CurrentValueOfAssets - user.TotalInvested
		if user.TotalInvested > 0 {
			user.ProfitLossPercent = user.ProfitLossAmount / user.TotalInvested * 100
		}
		user.TotalValue = user.CurrentValueOfAssets + user.TotalCash
	}

	return users
}

// RankAssets returns all assets with total_invested > 0 sorted descending by
// profit_loss_percent. The sort is stable, so ties keep their input order.
func RankAssets(users []UserSummary) []AssetSummary {
	var ranked []AssetSummary
	for _, u := range users {
		for _, p := range u.Platforms {
			for _, a := range p.Accounts {
				for _, asset := range a.Assets {
					if asset.TotalInvested > 0 {
						ranked = append(ranked, asset)
					}
				}
			}
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ProfitLossPercent > ranked[j].ProfitLossPercent
	})

	return ranked
}

// RankAccounts returns all accounts with invested capital sorted descending
// by profit_loss_percent, same ordering policy as asset ranking.
func RankAccounts(users []UserSummary) []AccountSummary {
	var ranked []AccountSummary
	for _, u := range users {
		for _, p := range u.Platforms {
			for _, a := range p.Accounts {
				if a.TotalInvested > 0 {
					ranked = append(ranked, a)
				}
			}
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ProfitLossPercent > ranked[j].ProfitLossPercent
	})

	return ranked
}

// AllocationByAccountType sums account total values per account_type label.
// Groups with total <= 0 are omitted; all-omitted yields nil ("no chart").
func AllocationByAccountType(users []UserSummary) []AllocationSlice {
	totals := make(map[string]float64)
	var order []string

	forEachAccount(users, func(a AccountSummary) {
		if _, seen := totals[a.AccountType]; !seen {
			order = append(order, a.AccountType)
		}
		totals[a.AccountType] += a.TotalValue
	})

	return buildSlices(order, totals)
}

// AllocationByUser sums each user's total value.
func AllocationByUser(users []UserSummary) []AllocationSlice {
	var slices []AllocationSlice
	for _, u := range users {
		if u.TotalValue > 0 {
			slices = append(slices, AllocationSlice{Label: u.UserName, TotalValue: u.TotalValue})
		}
	}
	return slices
}

// AllocationByAccount lists each account's own total value with a composite
// "User - Account (Platform)" label.
func AllocationByAccount(users []UserSummary) []AllocationSlice {
	var slices []AllocationSlice
	forEachAccount(users, func(a AccountSummary) {
		if a.TotalValue > 0 {
			label := fmt.Sprintf("%s - %s (%s)", a.UserName, a.AccountName, a.PlatformName)
			slices = append(slices, AllocationSlice{Label: label, TotalValue: a.TotalValue})
		}
	})
	return slices
}

func forEachAccount(users []UserSummary, fn func(AccountSummary)) {
	for _, u := range users {
		for _, p := range u.Platforms {
			for _, a := range p.Accounts {
				fn(a)
			}
		}
	}
}

func buildSlices(order []string, totals map[string]float64) []AllocationSlice {
	var slices []AllocationSlice
	for _, label := range order {
		if totals[label] > 0 {
			slices = append(slices, AllocationSlice{Label: label, TotalValue: totals[label]})
		}
	}
	return slices
}

package budget

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"finflow/internal/core"
)

// fileBudget is the on-disk TOML layout:
//
//	cycle = "monthly"
//	start_date = "2025-01-01"
//	currency = "VND"
//	monthly_income = 10000000
//
//	[[wallet]]
//	name = "Needs"
//	share = 55
//	categories = ["Food", "Housing"]
type fileBudget struct {
	Cycle         string       `toml:"cycle"`
	StartDate     string       `toml:"start_date"`
	Rollover      bool         `toml:"rollover"`
	Currency      string       `toml:"currency"`
	MonthlyIncome *int64       `toml:"monthly_income"`
	Wallets       []fileWallet `toml:"wallet"`
}

type fileWallet struct {
	Name       string   `toml:"name"`
	Share      int      `toml:"share"`
	Color      string   `toml:"color"`
	Categories []string `toml:"categories"`
}

// LoadFile reads a budget definition. The result is shape-checked but the
// allocation rule is left to Engine.SaveBudget.
func LoadFile(path string) (core.Budget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Budget{}, fmt.Errorf("read budget file: %w", err)
	}
	return Decode(data)
}

// Decode parses a TOML budget definition.
func Decode(data []byte) (core.Budget, error) {
	var fb fileBudget
	md, err := toml.Decode(string(data), &fb)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse budget: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return core.Budget{}, fmt.Errorf("parse budget: unknown key %q", undecoded[0].String())
	}

	start, err := core.ParseDate(fb.StartDate)
	if err != nil {
		return core.Budget{}, err
	}

	b := core.Budget{
		Cycle:                 core.BudgetCycle(strings.ToLower(fb.Cycle)),
		StartDate:             start,
		Rollover:              fb.Rollover,
		MonthlyIncomeOverride: fb.MonthlyIncome,
		Currency:              strings.ToUpper(fb.Currency),
		CategoryWallets:       make(map[string]string),
	}
	for _, w := range fb.Wallets {
		b.Wallets = append(b.Wallets, core.Wallet{Name: w.Name, PercentShare: w.Share, ColorTag: w.Color})
		for _, cat := range w.Categories {
			if prev, ok := b.CategoryWallets[cat]; ok && prev != w.Name {
				return core.Budget{}, fmt.Errorf("category %q mapped to both %q and %q", cat, prev, w.Name)
			}
			b.CategoryWallets[cat] = w.Name
		}
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

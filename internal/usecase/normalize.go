package usecase

import (
	"github.com/shopspring/decimal"

	"fliptrack-intel/internal/domain/entity"
)

// savingsTolerance is one cent: the claimed total survives only when it
// matches the itemized sum to the cent.
var savingsTolerance = decimal.New(1, -2)

// NormalizeTotals reconciles the model's claimed total savings against the
// sum of its itemized opportunities. Models are unreliable arithmetic
// sources, so the itemized sum is the source of truth. Every opportunity
// figure is rounded to cents in place. Pure apart from mutating the argument,
// and idempotent.
func NormalizeTotals(a *entity.VendorAnalysis) {
	if a == nil {
		return
	}
	sum := decimal.Zero
	for i := range a.Opportunities {
		d := decimal.NewFromFloat(a.Opportunities[i].EstimatedSavings).Round(2)
		a.Opportunities[i].EstimatedSavings = toMoney(d)
		sum = sum.Add(d)
	}

	claimed := decimal.NewFromFloat(a.TotalEstimatedSavings).Round(2)
	if claimed.Sub(sum).Abs().GreaterThan(savingsTolerance) {
		a.TotalEstimatedSavings = toMoney(sum)
		return
	}
	a.TotalEstimatedSavings = toMoney(claimed)
}

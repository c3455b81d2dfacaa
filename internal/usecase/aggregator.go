package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fliptrack-intel/internal/domain/entity"
	"fliptrack-intel/internal/domain/repository"
)

// High-frequency vendors are negotiation targets: repeat business is
// leverage. Below three transactions there is nothing to negotiate with.
const (
	highFreqMinTransactions = 3
	highFreqLimit           = 10
)

// Aggregate fetches every priced expense row and reduces it to a SpendProfile.
func Aggregate(ctx context.Context, src repository.ExpenseSource) (entity.SpendProfile, error) {
	records, err := src.FetchAll(ctx)
	if err != nil {
		return entity.SpendProfile{}, fmt.Errorf("%w: %v", entity.ErrDataUnavailable, err)
	}
	return BuildProfile(records), nil
}

type groupAccum struct {
	name  string
	total decimal.Decimal
	count int
}

// BuildProfile reduces raw expense rows to vendor/category summaries plus
// dataset-level metadata. All money moves through decimals so the result does
// not depend on accumulation order, and every sort carries a full tie-break
// chain, so identical inputs always produce an identical profile.
func BuildProfile(records []entity.ExpenseRecord) entity.SpendProfile {
	vendors := map[string]*groupAccum{}
	categories := map[string]*groupAccum{}
	projects := map[string]struct{}{}
	grand := decimal.Zero

	var earliest, latest time.Time
	for _, rec := range records {
		amount := decimal.NewFromFloat(rec.Amount)
		grand = grand.Add(amount)
		accumulate(vendors, rec.Vendor, amount)
		accumulate(categories, rec.Category, amount)
		if rec.ProjectID != "" {
			projects[rec.ProjectID] = struct{}{}
		}
		if !rec.Date.IsZero() {
			if earliest.IsZero() || rec.Date.Before(earliest) {
				earliest = rec.Date
			}
			if latest.IsZero() || rec.Date.After(latest) {
				latest = rec.Date
			}
		}
	}

	vendorGroups := sortedGroups(vendors)
	categoryGroups := sortedGroups(categories)

	profile := entity.SpendProfile{
		Meta: entity.AggregateMeta{
			GrandTotal:   toMoney(grand),
			ProjectCount: len(projects),
			EarliestDate: dateString(earliest),
			LatestDate:   dateString(latest),
		},
	}
	for _, g := range vendorGroups {
		profile.Vendors = append(profile.Vendors, entity.VendorSummary{
			Vendor:         g.name,
			TotalSpend:     toMoney(g.total),
			Transactions:   g.count,
			AvgTransaction: toMoney(g.total.Div(decimal.NewFromInt(int64(g.count)))),
		})
	}
	for _, g := range categoryGroups {
		profile.Categories = append(profile.Categories, entity.CategorySummary{
			Category:     g.name,
			TotalSpend:   toMoney(g.total),
			Transactions: g.count,
		})
	}
	profile.HighFreq = highFrequency(vendorGroups)
	return profile
}

func accumulate(groups map[string]*groupAccum, name string, amount decimal.Decimal) {
	g, ok := groups[name]
	if !ok {
		g = &groupAccum{name: name}
		groups[name] = g
	}
	g.total = g.total.Add(amount)
	g.count++
}

// sortedGroups orders by total spend descending; equal spend falls back to
// name ascending so the order never depends on map iteration.
func sortedGroups(groups map[string]*groupAccum) []*groupAccum {
	out := make([]*groupAccum, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].total.Cmp(out[j].total); c != 0 {
			return c > 0
		}
		return out[i].name < out[j].name
	})
	return out
}

// highFrequency picks repeat vendors ordered by transaction count, then
// spend, then name.
func highFrequency(vendorGroups []*groupAccum) []entity.HighFrequencyVendor {
	repeat := make([]*groupAccum, 0, len(vendorGroups))
	for _, g := range vendorGroups {
		if g.count >= highFreqMinTransactions {
			repeat = append(repeat, g)
		}
	}
	sort.Slice(repeat, func(i, j int) bool {
		if repeat[i].count != repeat[j].count {
			return repeat[i].count > repeat[j].count
		}
		if c := repeat[i].total.Cmp(repeat[j].total); c != 0 {
			return c > 0
		}
		return repeat[i].name < repeat[j].name
	})
	if len(repeat) > highFreqLimit {
		repeat = repeat[:highFreqLimit]
	}
	out := make([]entity.HighFrequencyVendor, 0, len(repeat))
	for _, g := range repeat {
		out = append(out, entity.HighFrequencyVendor{
			Vendor:       g.name,
			Transactions: g.count,
			TotalSpend:   toMoney(g.total),
		})
	}
	return out
}

func toMoney(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func dateString(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

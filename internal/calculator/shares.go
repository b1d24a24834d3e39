// Package calculator computes the authoritative income-proportional split
// of a group's total expenses. Only the authority calls this; clients always
// consume the resulting Shares snapshot over the wire.
package calculator

import (
	"math"
	"sort"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// ComputeShares splits the sum of expenses across members proportionally to
// declared income: share_pct = income / total_income * 100.
//
// When no member declares a positive income, the split is equal. Amounts are
// rounded to cents with largest-remainder distribution so that the amounts
// sum exactly to the expense total.
func ComputeShares(members []models.Member, expenses []models.Expense) models.Shares {
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	total = roundCents(total)

	shares := models.Shares{TotalExpenses: total}
	if len(members) == 0 {
		return shares
	}

	var totalIncome float64
	for _, m := range members {
		if m.Income > 0 {
			totalIncome += m.Income
		}
	}

	weights := make([]float64, len(members))
	for i, m := range members {
		if totalIncome <= 0 {
			weights[i] = 1.0 / float64(len(members))
		} else if m.Income > 0 {
			weights[i] = m.Income / totalIncome
		}
	}

	amounts := centsByLargestRemainder(total, weights)

	shares.Entries = make([]models.ShareEntry, len(members))
	for i, m := range members {
		shares.Entries[i] = models.ShareEntry{
			MemberID:        m.ID,
			UserID:          m.UserID,
			Pseudo:          m.Pseudo,
			SharePercentage: roundCents(weights[i] * 100),
			ShareAmount:     amounts[i],
		}
	}
	return shares
}

// Capacity returns a member's monthly capacity: declared income minus the
// member's share amount from the given snapshot.
func Capacity(member models.Member, shares models.Shares) float64 {
	for _, e := range shares.Entries {
		if e.MemberID == member.ID {
			return roundCents(member.Income - e.ShareAmount)
		}
	}
	return member.Income
}

// centsByLargestRemainder apportions total across weights in whole cents.
// Each slot gets the floor of its exact share; leftover cents go to the
// largest fractional remainders first, so the slices always sum to total.
func centsByLargestRemainder(total float64, weights []float64) []float64 {
	totalCents := int64(math.Round(total * 100))
	floors := make([]int64, len(weights))
	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, len(weights))

	var assigned int64
	for i, w := range weights {
		exact := float64(totalCents) * w
		floors[i] = int64(math.Floor(exact))
		assigned += floors[i]
		rems[i] = rem{idx: i, frac: exact - float64(floors[i])}
	}

	sort.Slice(rems, func(a, b int) bool {
		if rems[a].frac != rems[b].frac {
			return rems[a].frac > rems[b].frac
		}
		return rems[a].idx < rems[b].idx
	})

	for i := int64(0); i < totalCents-assigned && i < int64(len(rems)); i++ {
		floors[rems[i].idx]++
	}

	out := make([]float64, len(weights))
	for i, c := range floors {
		out[i] = float64(c) / 100
	}
	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

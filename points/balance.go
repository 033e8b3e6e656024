/*
balance.go - Balance computation from point and payment histories

PURPOSE:
  Turns the raw event lists fetched from the backend into the single
  summary the rest of the engine works with: total earned, total committed
  to withdrawals, and what remains.

KEY RULE:
  A withdrawal counts against the balance from the moment it is REQUESTED,
  not once it is approved. That is what stops a user from double-spending
  points while a request sits in the admin queue. The one exception is a
  failed (rejected) payment: its hold is released and the points return to
  the balance.

PRECISION:
  Points accumulate as int64. Currency appears only when CashValue is
  called at the display or submission edge, via decimal with 2-place
  rounding. Running totals are never kept in currency units.

SEE ALSO:
  - eligibility.go: consumes BalanceSummary
  - withdraw/coordinator.go: fetches the inputs and calls ComputeBalance
*/
package points

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// BALANCE SUMMARY - Computed state for one user
// =============================================================================

// BalanceSummary is the aggregate of one user's point and payment history.
// It is a pure computation result; recomputing from the same inputs yields
// the same summary.
type BalanceSummary struct {
	// TotalEarned is the sum of all point grants.
	TotalEarned int64

	// TotalWithdrawn is the sum of points committed to withdrawal requests
	// that still hold (every status except failed).
	TotalWithdrawn int64

	// Remaining is TotalEarned - TotalWithdrawn, clamped at zero.
	Remaining int64

	// EarnedByAction breaks TotalEarned down by the action that earned it.
	EarnedByAction map[Action]int64

	// IntegrityWarning is set when the raw difference went negative and was
	// clamped. It means a concurrent over-withdrawal slipped past the
	// backend's serialization; the data needs server-side attention.
	IntegrityWarning bool

	rate decimal.Decimal
}

// ComputeBalance aggregates a single user's point events and payment
// requests into a BalanceSummary. Both slices must already be scoped to
// one user; rate must be positive.
//
// No side effects, no I/O. Suitable for property testing.
func ComputeBalance(events []PointEvent, payments []PaymentRequest, rate decimal.Decimal) (BalanceSummary, error) {
	if !rate.IsPositive() {
		return BalanceSummary{}, ErrInvalidRate
	}

	summary := BalanceSummary{
		EarnedByAction: make(map[Action]int64, 3),
		rate:           rate,
	}

	for _, e := range events {
		summary.TotalEarned += e.Points
		summary.EarnedByAction[e.Action] += e.Points
	}

	for _, p := range payments {
		if p.CountsAgainstBalance() {
			summary.TotalWithdrawn += p.PointsWithdrawn
		}
	}

	remaining := summary.TotalEarned - summary.TotalWithdrawn
	if remaining < 0 {
		summary.IntegrityWarning = true
		remaining = 0
	}
	summary.Remaining = remaining

	return summary, nil
}

// CashValue converts a point count to currency at the summary's rate,
// rounded to 2 places for display.
func (b BalanceSummary) CashValue(points int64) decimal.Decimal {
	return decimal.NewFromInt(points).Mul(b.rate).Round(2)
}

// EarnedCash is the display value of everything earned.
func (b BalanceSummary) EarnedCash() decimal.Decimal { return b.CashValue(b.TotalEarned) }

// WithdrawnCash is the display value of everything committed to withdrawals.
func (b BalanceSummary) WithdrawnCash() decimal.Decimal { return b.CashValue(b.TotalWithdrawn) }

// RemainingCash is the display value of the remaining balance.
func (b BalanceSummary) RemainingCash() decimal.Decimal { return b.CashValue(b.Remaining) }

/*
eligibility.go - The withdrawal eligibility gate

PURPOSE:
  Decides whether a withdrawal request may proceed. The checks run in a
  fixed order and the FIRST failing check wins, so the user always sees a
  deterministic message:

    1. Account old enough?        -> RejectionError(account_too_new)
    2. At least the minimum?      -> RejectionError(below_minimum_points)
    3. Covered by the balance?    -> RejectionError(insufficient_balance)
    4. Otherwise                  -> Approval with the cash value

  Boundary semantics: requesting exactly the minimum passes check 2, and
  requesting exactly the remaining balance passes check 3 (withdrawing the
  whole balance is allowed).

  A non-positive requested amount is a caller contract violation
  (ErrInvalidAmount), rejected before the ordered checks - it is not a
  business rejection.

ADVISORY ONLY:
  This gate is the client-side check. It is UX, not authority: the backend
  must re-validate the balance at write time, since two concurrent
  submissions from the same user cannot be serialized here.

SEE ALSO:
  - balance.go: produces the BalanceSummary input
  - errors.go: RejectionError and the validation sentinels
*/
package points

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// GATE INPUT / OUTPUT
// =============================================================================

// WithdrawalCheck is the input to the eligibility gate.
type WithdrawalCheck struct {
	PointsRequested  int64
	AccountCreatedAt time.Time
	Now              time.Time
}

// Approval is the positive outcome of the gate: the request may be
// submitted, and this is the cash value it will carry.
type Approval struct {
	PointsRequested int64
	CashValue       decimal.Decimal
}

// =============================================================================
// THE GATE
// =============================================================================

// CheckWithdrawal runs the ordered eligibility checks for a withdrawal
// request against the current balance and configuration. It returns an
// Approval, a *RejectionError for a business rejection, or a validation
// error when the input itself is malformed.
//
// Pure function: no I/O, no clock access (Now is part of the input).
func CheckWithdrawal(req WithdrawalCheck, bal BalanceSummary, cfg ConversionConfig) (*Approval, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if req.PointsRequested <= 0 {
		return nil, ErrInvalidAmount
	}

	if ageDays := req.Now.Sub(req.AccountCreatedAt).Hours() / 24; ageDays < float64(cfg.MinDaysOnPlatform) {
		return nil, &RejectionError{
			Reason:    ReasonAccountTooNew,
			Threshold: int64(cfg.MinDaysOnPlatform),
		}
	}

	if req.PointsRequested < cfg.MinPointsForWithdrawal {
		return nil, &RejectionError{
			Reason:    ReasonBelowMinimumPoints,
			Threshold: cfg.MinPointsForWithdrawal,
		}
	}

	if req.PointsRequested > bal.Remaining {
		return nil, &RejectionError{
			Reason:    ReasonInsufficientBalance,
			Remaining: bal.Remaining,
		}
	}

	return &Approval{
		PointsRequested: req.PointsRequested,
		CashValue:       cfg.CashValue(req.PointsRequested),
	}, nil
}

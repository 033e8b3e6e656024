/*
Package points provides the core points accrual and withdrawal eligibility engine.

PURPOSE:
  This package contains the pure, I/O-free business rules of the reward
  system: what a point event is, how a balance is computed from earned
  points and prior withdrawals, and whether a requested withdrawal may
  proceed. Everything here is deterministic and side-effect free; the
  network lives in the backend and withdraw packages.

KEY CONCEPTS IN THIS FILE (types.go):
  - Action: the closed set of point-earning actions (like, share, read)
  - PointEvent: one earned point grant, tied to a post
  - PaymentRequest: one withdrawal attempt with its frozen cash amount
  - UserAccount: the slice of the user relevant to eligibility
  - ConversionConfig: thresholds and the points-to-cash rate

DESIGN PRINCIPLES:
  1. Closed enums: actions and payment statuses are tagged types, not
     free-form strings, so "point type not found" cannot happen at runtime
  2. Precision: cash values use decimal.Decimal; points accumulate as
     integers and are converted to currency only at the display edge
  3. Frozen amounts: PaymentRequest.Amount is set at creation and never
     recomputed when the conversion rate changes

SEE ALSO:
  - balance.go: BalanceSummary computation from event lists
  - eligibility.go: the ordered withdrawal checks
  - errors.go: validation errors and business rejections
*/
package points

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the ISO 4217 code all cash values are denominated in.
// Disbursement happens via mobile money in Ghana cedis.
const Currency = "GHS"

// =============================================================================
// ACTION - What earned the point
// =============================================================================

// Action identifies the kind of engagement that earned a point grant.
// The set is closed: anything else coming off the wire is a data error.
type Action string

const (
	ActionLike  Action = "Like Post"
	ActionShare Action = "Share Post"
	ActionRead  Action = "Read Post"
)

// Actions lists all valid actions, in display order.
func Actions() []Action {
	return []Action{ActionLike, ActionShare, ActionRead}
}

// ParseAction validates a wire-format action string against the closed set.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionLike, ActionShare, ActionRead:
		return Action(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Valid reports whether the action is a member of the closed set.
func (a Action) Valid() bool {
	_, err := ParseAction(string(a))
	return err == nil
}

// =============================================================================
// POINT EVENT - One earned point grant
// =============================================================================

// PointEvent records a single point grant earned on a post. Events are
// created by the backend when the user likes, shares, or reads a post and
// are immutable once created; a revoked like disappears from the list
// rather than appearing as a negative event.
type PointEvent struct {
	ID        string
	PostID    string
	PostTitle string
	Action    Action
	Points    int64
	CreatedAt time.Time
}

// =============================================================================
// PAYMENT REQUEST - One withdrawal attempt
// =============================================================================

// PaymentStatus is the lifecycle state of a withdrawal request. The engine
// only ever creates requests in StatusPending; the remaining transitions
// belong to administrators and the disbursement pipeline.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusApproved  PaymentStatus = "approved"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
)

// ParsePaymentStatus validates a wire-format status string.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case StatusPending, StatusApproved, StatusCompleted, StatusFailed:
		return PaymentStatus(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// PaymentRequest is one withdrawal of point value as cash. Amount is the
// cash value frozen at creation time; it is never recomputed from the
// current conversion rate.
type PaymentRequest struct {
	ID              string
	UserID          string
	UserName        string
	PointsWithdrawn int64
	Amount          decimal.Decimal
	Status          PaymentStatus
	CreatedAt       time.Time
}

// CountsAgainstBalance reports whether this payment holds points against
// the remaining balance. A withdrawal counts from the moment it is
// requested, so a pending request cannot be double-spent; a failed
// (rejected) payment releases its hold.
func (p PaymentRequest) CountsAgainstBalance() bool {
	return p.Status != StatusFailed
}

// =============================================================================
// USER ACCOUNT - Eligibility-relevant subset
// =============================================================================

// UserAccount carries the fields of a user the engine needs: identity,
// the creation time used for the account-age check, and the admin flag.
// Admins curate content and never earn or withdraw points through this
// engine.
type UserAccount struct {
	ID          string
	Name        string
	PhoneNumber string
	CreatedAt   time.Time
	IsAdmin     bool
}

// AgeDays returns the account age in (fractional) days as of now.
func (u UserAccount) AgeDays(now time.Time) float64 {
	return now.Sub(u.CreatedAt).Hours() / 24
}

// =============================================================================
// CONVERSION CONFIG - Externally provided thresholds
// =============================================================================

// ConversionConfig holds the points-to-currency rate and the withdrawal
// thresholds. Values come from the environment; the engine never computes
// them.
type ConversionConfig struct {
	// MinPointsForWithdrawal is the floor on a single withdrawal request.
	MinPointsForWithdrawal int64

	// ConversionRate converts points to currency units (GHS per point).
	ConversionRate decimal.Decimal

	// MinDaysOnPlatform is the account age required before the first
	// withdrawal is permitted.
	MinDaysOnPlatform int
}

// DefaultConversionConfig returns the stock configuration: 20 points
// minimum, 0.1 GHS per point, 30 days on platform.
func DefaultConversionConfig() ConversionConfig {
	return ConversionConfig{
		MinPointsForWithdrawal: 20,
		ConversionRate:         decimal.NewFromFloat(0.1),
		MinDaysOnPlatform:      30,
	}
}

// Validate checks that the configuration is usable.
func (c ConversionConfig) Validate() error {
	if !c.ConversionRate.IsPositive() {
		return ErrInvalidRate
	}
	if c.MinPointsForWithdrawal < 0 {
		return fmt.Errorf("minimum points for withdrawal cannot be negative")
	}
	if c.MinDaysOnPlatform < 0 {
		return fmt.Errorf("minimum days on platform cannot be negative")
	}
	return nil
}

// CashValue converts a point count to its currency value at this rate,
// rounded to 2 decimal places. Conversion happens only here, at the
// display/submission edge; points are never accumulated as currency.
func (c ConversionConfig) CashValue(points int64) decimal.Decimal {
	return decimal.NewFromInt(points).Mul(c.ConversionRate).Round(2)
}

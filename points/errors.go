/*
errors.go - Error taxonomy for the points engine

PURPOSE:
  One place for the engine's error types, split along the boundary the
  caller cares about:

  1. Validation errors - the caller broke the contract (non-positive
     amount, missing phone number, admin account). No network call has
     happened and none will.
  2. Business rejections - the gate said no. Expected and user-recoverable;
     each carries the violated threshold for the user-facing message.
  3. Transport errors - the backend could not be reached or answered
     malformed. Surfaced generically as ErrRequestFailed.

USAGE:
  var rej *points.RejectionError
  if errors.As(err, &rej) {
      // show rej.Error() to the user; nothing was submitted
  }

SEE ALSO:
  - eligibility.go: produces RejectionError
  - withdraw/coordinator.go: wraps transport failures with ErrRequestFailed
*/
package points

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when the requested withdrawal is not a
	// positive number of points. This is a caller contract violation, not
	// a business rejection.
	ErrInvalidAmount = errors.New("withdrawal amount must be a positive number of points")

	// ErrMissingPhoneNumber is returned when a withdrawal is submitted
	// without a disbursement phone number.
	ErrMissingPhoneNumber = errors.New("phone number is required for withdrawal")

	// ErrAdminAccount is returned when an admin account attempts a
	// points-earning or withdrawal operation. Admins curate content; they
	// have no point records.
	ErrAdminAccount = errors.New("admin accounts cannot earn or withdraw points")

	// ErrInvalidRate is returned when the conversion rate is zero or negative.
	ErrInvalidRate = errors.New("conversion rate must be positive")

	// ErrUnknownAction is returned when a wire action string is outside the
	// closed Like/Share/Read set.
	ErrUnknownAction = errors.New("unknown point action")

	// ErrUnknownStatus is returned when a wire payment status is outside
	// the pending/approved/completed/failed set.
	ErrUnknownStatus = errors.New("unknown payment status")

	// ErrRequestFailed is the generic transport failure surfaced when the
	// backend cannot be reached or returns an unreadable response. The
	// caller may manually resubmit; the engine never retries.
	ErrRequestFailed = errors.New("withdrawal request failed")

	// ErrNoSession is returned when an operation requires an authenticated
	// session and none is loaded.
	ErrNoSession = errors.New("no active session")
)

// =============================================================================
// BUSINESS REJECTIONS - The gate said no
// =============================================================================

// RejectionReason identifies which ordered check failed.
type RejectionReason string

const (
	ReasonAccountTooNew      RejectionReason = "account_too_new"
	ReasonBelowMinimumPoints RejectionReason = "below_minimum_points"
	ReasonInsufficientBalance RejectionReason = "insufficient_balance"
)

// RejectionError is a business rejection from the eligibility gate. It is
// expected and user-recoverable: the message names the threshold that was
// violated so the user knows what to change (wait, accrue, or ask for less).
type RejectionError struct {
	Reason RejectionReason

	// Threshold is the violated configuration floor: MinDaysOnPlatform for
	// ReasonAccountTooNew, MinPointsForWithdrawal for ReasonBelowMinimumPoints.
	Threshold int64

	// Remaining is the available balance, set for ReasonInsufficientBalance.
	Remaining int64
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonAccountTooNew:
		return fmt.Sprintf("you must be on the platform for at least %d days to make a withdrawal", e.Threshold)
	case ReasonBelowMinimumPoints:
		return fmt.Sprintf("minimum points for withdrawal is %d", e.Threshold)
	case ReasonInsufficientBalance:
		return fmt.Sprintf("insufficient points for withdrawal: %d remaining", e.Remaining)
	}
	return string(e.Reason)
}

// IsRejection reports whether err is a business rejection (as opposed to a
// validation or transport error).
func IsRejection(err error) bool {
	var rej *RejectionError
	return errors.As(err, &rej)
}

// IsValidationError reports whether err is a caller contract violation that
// should never reach the backend.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrMissingPhoneNumber) ||
		errors.Is(err, ErrAdminAccount) ||
		errors.Is(err, ErrNoSession)
}

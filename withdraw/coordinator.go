/*
Package withdraw coordinates the end-to-end withdrawal flow.

PURPOSE:
  A withdrawal touches three things: the current balance (computed from
  two backend reads), the eligibility gate, and at most one backend
  write. The Coordinator sequences them:

    1. Validate the input (session, amount, phone, non-admin).
    2. Fetch point events and payment history concurrently.
    3. Compute the balance and run the ordered eligibility checks.
    4. On rejection: return the typed error. The backend is not called.
    5. On approval: exactly one POST to the payments service. Never
       retried - on failure the error surfaces and the user resubmits.

  Every attempt, whatever its outcome, is journaled locally through the
  AttemptStore. The journal is an audit trail only; it never feeds back
  into balance math.

SEE ALSO:
  - points/eligibility.go: the gate invoked in step 3
  - backend/payments.go: the single write in step 5
  - store/sqlite: the durable AttemptStore
*/
package withdraw

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relayhq/points-engine/backend"
	"github.com/relayhq/points-engine/points"
	"github.com/relayhq/points-engine/session"
)

// ErrNotAdmin is returned when a payment-review operation is attempted
// by a non-administrator session.
var ErrNotAdmin = errors.New("administrator access required")

// ErrNotReviewable is returned when an administrator tries to approve or
// reject a payment that is not pending.
var ErrNotReviewable = errors.New("only pending payments can be reviewed")

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// BackendClient is the slice of the backend API the coordinator uses.
// *backend.Client satisfies it; tests substitute a fake.
type BackendClient interface {
	UserPoints(ctx context.Context, userID, token string) (*backend.UserPoints, error)
	UserPayments(ctx context.Context, token string) (*backend.UserPayments, error)
	CreatePayment(ctx context.Context, token string, in backend.CreatePaymentInput) (*points.PaymentRequest, error)
	AdminPayments(ctx context.Context, token string) ([]points.PaymentRequest, error)
	UpdatePaymentStatus(ctx context.Context, token, paymentID string, status points.PaymentStatus, pointsWithdrawn int64) (*points.PaymentRequest, error)
}

// AttemptOutcome classifies a journaled withdrawal attempt.
type AttemptOutcome string

const (
	// OutcomeRejected: the gate said no, nothing was submitted.
	OutcomeRejected AttemptOutcome = "rejected"
	// OutcomeSubmitted: the backend accepted the payment request.
	OutcomeSubmitted AttemptOutcome = "submitted"
	// OutcomeFailed: the gate approved but the backend call failed.
	OutcomeFailed AttemptOutcome = "failed"
)

// Attempt is one journaled withdrawal attempt.
type Attempt struct {
	ID              string
	UserID          string
	PointsRequested int64
	PhoneNumber     string
	Outcome         AttemptOutcome
	// Reason holds the rejection reason or the error text, empty on success.
	Reason string
	// PaymentID is the backend's id for the created payment, set on
	// OutcomeSubmitted only.
	PaymentID string
	CreatedAt time.Time
}

// AttemptStore journals withdrawal attempts. Journal failures must not
// fail the withdrawal itself, so implementations should be cheap and
// local.
type AttemptStore interface {
	Record(ctx context.Context, a Attempt) error
	ListByUser(ctx context.Context, userID string) ([]Attempt, error)
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator runs withdrawal submissions and admin payment reviews.
type Coordinator struct {
	backend  BackendClient
	config   points.ConversionConfig
	attempts AttemptStore
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithClock overrides the time source (tests pin it).
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator wires a coordinator. attempts may be nil, in which case
// journaling is skipped.
func NewCoordinator(client BackendClient, cfg points.ConversionConfig, attempts AttemptStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend:  client,
		config:   cfg,
		attempts: attempts,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Balance fetches the user's point events and payment history in parallel
// and computes the current balance.
func (c *Coordinator) Balance(ctx context.Context, sess *session.Session) (points.BalanceSummary, []points.PointEvent, []points.PaymentRequest, error) {
	if !sess.Valid() {
		return points.BalanceSummary{}, nil, nil, points.ErrNoSession
	}

	var (
		userPoints   *backend.UserPoints
		userPayments *backend.UserPayments
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		userPoints, err = c.backend.UserPoints(gctx, sess.User.ID, sess.Token)
		return err
	})
	g.Go(func() error {
		var err error
		userPayments, err = c.backend.UserPayments(gctx, sess.Token)
		return err
	})
	if err := g.Wait(); err != nil {
		return points.BalanceSummary{}, nil, nil, err
	}

	bal, err := points.ComputeBalance(userPoints.Events, userPayments.Payments, c.config.ConversionRate)
	if err != nil {
		return points.BalanceSummary{}, nil, nil, err
	}
	if bal.IntegrityWarning {
		c.logger.Warn("withdrawn exceeds earned, balance clamped to zero",
			zap.String("user_id", sess.User.ID),
			zap.Int64("total_earned", bal.TotalEarned),
			zap.Int64("total_withdrawn", bal.TotalWithdrawn))
	}
	return bal, userPoints.Events, userPayments.Payments, nil
}

// Submit runs one withdrawal attempt: validation, the concurrent balance
// fetch, the eligibility gate, and - only on approval - a single payment
// creation. The returned error is a validation sentinel, a
// *points.RejectionError, a *backend.APIError, or a transport error
// wrapping points.ErrRequestFailed.
func (c *Coordinator) Submit(ctx context.Context, sess *session.Session, pointsRequested int64, phoneNumber string) (*points.PaymentRequest, error) {
	if !sess.Valid() {
		return nil, points.ErrNoSession
	}
	if pointsRequested <= 0 {
		return nil, points.ErrInvalidAmount
	}
	if phoneNumber == "" {
		return nil, points.ErrMissingPhoneNumber
	}
	if sess.User.IsAdmin {
		return nil, points.ErrAdminAccount
	}

	bal, _, _, err := c.Balance(ctx, sess)
	if err != nil {
		return nil, err
	}

	approval, err := points.CheckWithdrawal(points.WithdrawalCheck{
		PointsRequested:  pointsRequested,
		AccountCreatedAt: sess.User.CreatedAt,
		Now:              c.now(),
	}, bal, c.config)
	if err != nil {
		var rej *points.RejectionError
		if errors.As(err, &rej) {
			c.logger.Info("withdrawal rejected",
				zap.String("user_id", sess.User.ID),
				zap.Int64("points_requested", pointsRequested),
				zap.String("reason", string(rej.Reason)))
			c.journal(ctx, sess, pointsRequested, phoneNumber, OutcomeRejected, string(rej.Reason), "")
		}
		return nil, err
	}

	payment, err := c.backend.CreatePayment(ctx, sess.Token, backend.CreatePaymentInput{
		PointsToWithdraw: approval.PointsRequested,
		PhoneNumber:      phoneNumber,
	})
	if err != nil {
		c.logger.Error("withdrawal submission failed",
			zap.String("user_id", sess.User.ID),
			zap.Int64("points_requested", pointsRequested),
			zap.Error(err))
		c.journal(ctx, sess, pointsRequested, phoneNumber, OutcomeFailed, err.Error(), "")
		return nil, err
	}

	c.logger.Info("withdrawal submitted",
		zap.String("user_id", sess.User.ID),
		zap.String("payment_id", payment.ID),
		zap.Int64("points_requested", pointsRequested),
		zap.String("amount", approval.CashValue.String()))
	c.journal(ctx, sess, pointsRequested, phoneNumber, OutcomeSubmitted, "", payment.ID)
	return payment, nil
}

// Attempts lists the journaled attempts for the session's user, newest
// first.
func (c *Coordinator) Attempts(ctx context.Context, sess *session.Session) ([]Attempt, error) {
	if !sess.Valid() {
		return nil, points.ErrNoSession
	}
	if c.attempts == nil {
		return nil, nil
	}
	return c.attempts.ListByUser(ctx, sess.User.ID)
}

func (c *Coordinator) journal(ctx context.Context, sess *session.Session, pointsRequested int64, phone string, outcome AttemptOutcome, reason, paymentID string) {
	if c.attempts == nil {
		return
	}
	attempt := Attempt{
		ID:              uuid.NewString(),
		UserID:          sess.User.ID,
		PointsRequested: pointsRequested,
		PhoneNumber:     phone,
		Outcome:         outcome,
		Reason:          reason,
		PaymentID:       paymentID,
		CreatedAt:       c.now(),
	}
	if err := c.attempts.Record(ctx, attempt); err != nil {
		// Journal is advisory; the withdrawal outcome stands.
		c.logger.Warn("failed to journal withdrawal attempt", zap.Error(err))
	}
}

// =============================================================================
// ADMIN REVIEW
// =============================================================================

// PendingPayments lists all users' payment requests for an administrator.
func (c *Coordinator) PendingPayments(ctx context.Context, sess *session.Session) ([]points.PaymentRequest, error) {
	if !sess.Valid() {
		return nil, points.ErrNoSession
	}
	if !sess.User.IsAdmin {
		return nil, ErrNotAdmin
	}
	return c.backend.AdminPayments(ctx, sess.Token)
}

// Review resolves one pending payment. Approval moves it to "approved";
// rejection moves it to "failed", which releases the point hold and
// returns the points to the user's balance.
func (c *Coordinator) Review(ctx context.Context, sess *session.Session, paymentID string, approve bool) (*points.PaymentRequest, error) {
	if !sess.Valid() {
		return nil, points.ErrNoSession
	}
	if !sess.User.IsAdmin {
		return nil, ErrNotAdmin
	}

	all, err := c.backend.AdminPayments(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	var target *points.PaymentRequest
	for i := range all {
		if all[i].ID == paymentID {
			target = &all[i]
			break
		}
	}
	if target == nil || target.Status != points.StatusPending {
		return nil, ErrNotReviewable
	}

	status := points.StatusApproved
	if !approve {
		status = points.StatusFailed
	}

	updated, err := c.backend.UpdatePaymentStatus(ctx, sess.Token, paymentID, status, target.PointsWithdrawn)
	if err != nil {
		return nil, err
	}
	c.logger.Info("payment reviewed",
		zap.String("admin_id", sess.User.ID),
		zap.String("payment_id", paymentID),
		zap.String("status", string(status)))
	return updated, nil
}

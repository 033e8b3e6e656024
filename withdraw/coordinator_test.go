package withdraw_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayhq/points-engine/backend"
	"github.com/relayhq/points-engine/points"
	"github.com/relayhq/points-engine/session"
	"github.com/relayhq/points-engine/withdraw"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

type fakeBackend struct {
	points   *backend.UserPoints
	payments *backend.UserPayments
	admin    []points.PaymentRequest

	pointsErr   error
	paymentsErr error
	createErr   error
	updateErr   error

	createCalls []backend.CreatePaymentInput
	updateCalls int
}

func (f *fakeBackend) UserPoints(ctx context.Context, userID, token string) (*backend.UserPoints, error) {
	if f.pointsErr != nil {
		return nil, f.pointsErr
	}
	return f.points, nil
}

func (f *fakeBackend) UserPayments(ctx context.Context, token string) (*backend.UserPayments, error) {
	if f.paymentsErr != nil {
		return nil, f.paymentsErr
	}
	return f.payments, nil
}

func (f *fakeBackend) CreatePayment(ctx context.Context, token string, in backend.CreatePaymentInput) (*points.PaymentRequest, error) {
	f.createCalls = append(f.createCalls, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &points.PaymentRequest{
		ID:              "pay-new",
		PointsWithdrawn: in.PointsToWithdraw,
		Status:          points.StatusPending,
	}, nil
}

func (f *fakeBackend) AdminPayments(ctx context.Context, token string) ([]points.PaymentRequest, error) {
	return f.admin, nil
}

func (f *fakeBackend) UpdatePaymentStatus(ctx context.Context, token, paymentID string, status points.PaymentStatus, pointsWithdrawn int64) (*points.PaymentRequest, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &points.PaymentRequest{ID: paymentID, Status: status, PointsWithdrawn: pointsWithdrawn}, nil
}

// =============================================================================
// ATTEMPT JOURNAL (in-memory)
// =============================================================================

type memAttempts struct {
	recorded []withdraw.Attempt
}

func (m *memAttempts) Record(ctx context.Context, a withdraw.Attempt) error {
	m.recorded = append(m.recorded, a)
	return nil
}

func (m *memAttempts) ListByUser(ctx context.Context, userID string) ([]withdraw.Attempt, error) {
	var out []withdraw.Attempt
	for _, a := range m.recorded {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// =============================================================================
// FIXTURES
// =============================================================================

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func agedSession(days int) *session.Session {
	return &session.Session{
		Token: "tok",
		User: points.UserAccount{
			ID:          "user-1",
			Name:        "Ama",
			PhoneNumber: "+233201234567",
			CreatedAt:   now.AddDate(0, 0, -days),
		},
	}
}

// backendWith builds a fake holding `earned` points of Like events and
// `withdrawn` points of pending payments.
func backendWith(earned, withdrawn int64) *fakeBackend {
	var events []points.PointEvent
	for i := int64(0); i < earned/5; i++ {
		events = append(events, points.PointEvent{
			ID:     fmt.Sprintf("pt-%d", i),
			Action: points.ActionLike,
			Points: 5,
		})
	}
	var payments []points.PaymentRequest
	if withdrawn > 0 {
		payments = append(payments, points.PaymentRequest{
			ID:              "pay-old",
			PointsWithdrawn: withdrawn,
			Status:          points.StatusPending,
		})
	}
	return &fakeBackend{
		points:   &backend.UserPoints{Events: events, TotalPoints: earned},
		payments: &backend.UserPayments{Payments: payments, TotalWithdrawnPoints: withdrawn},
	}
}

func newCoordinator(fb *fakeBackend, journal withdraw.AttemptStore) *withdraw.Coordinator {
	return withdraw.NewCoordinator(fb, points.DefaultConversionConfig(), journal,
		withdraw.WithClock(func() time.Time { return now }))
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_ApprovalCreatesExactlyOnePayment(t *testing.T) {
	// GIVEN an aged account with 100 earned and 10 already held
	fb := backendWith(100, 10)
	journal := &memAttempts{}
	coord := newCoordinator(fb, journal)

	// WHEN withdrawing 25 points
	payment, err := coord.Submit(context.Background(), agedSession(60), 25, "+233201234567")

	// THEN exactly one payment is created for 25 points
	require.NoError(t, err)
	require.Len(t, fb.createCalls, 1)
	assert.Equal(t, int64(25), fb.createCalls[0].PointsToWithdraw)
	assert.Equal(t, "+233201234567", fb.createCalls[0].PhoneNumber)
	assert.Equal(t, "pay-new", payment.ID)

	// AND the attempt is journaled as submitted with the payment id
	require.Len(t, journal.recorded, 1)
	assert.Equal(t, withdraw.OutcomeSubmitted, journal.recorded[0].Outcome)
	assert.Equal(t, "pay-new", journal.recorded[0].PaymentID)
}

func TestSubmit_RejectionNeverCallsBackendWrite(t *testing.T) {
	tests := []struct {
		name    string
		session *session.Session
		request int64
		reason  points.RejectionReason
	}{
		{"account too new", agedSession(10), 25, points.ReasonAccountTooNew},
		{"below minimum", agedSession(60), 15, points.ReasonBelowMinimumPoints},
		{"insufficient balance", agedSession(60), 95, points.ReasonInsufficientBalance},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := backendWith(100, 10) // 90 remaining
			journal := &memAttempts{}
			coord := newCoordinator(fb, journal)

			_, err := coord.Submit(context.Background(), tc.session, tc.request, "+233201234567")

			var rej *points.RejectionError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tc.reason, rej.Reason)

			// The write never happened.
			assert.Empty(t, fb.createCalls)

			// The rejection is journaled.
			require.Len(t, journal.recorded, 1)
			assert.Equal(t, withdraw.OutcomeRejected, journal.recorded[0].Outcome)
			assert.Equal(t, string(tc.reason), journal.recorded[0].Reason)
		})
	}
}

func TestSubmit_ValidationBeforeAnyFetch(t *testing.T) {
	// A validation failure must not touch the backend at all, so the fake
	// is armed to fail any call.
	fb := &fakeBackend{
		pointsErr:   errors.New("should not be called"),
		paymentsErr: errors.New("should not be called"),
	}
	coord := newCoordinator(fb, nil)
	ctx := context.Background()

	_, err := coord.Submit(ctx, nil, 25, "x")
	assert.ErrorIs(t, err, points.ErrNoSession)

	_, err = coord.Submit(ctx, agedSession(60), 0, "x")
	assert.ErrorIs(t, err, points.ErrInvalidAmount)

	_, err = coord.Submit(ctx, agedSession(60), -5, "x")
	assert.ErrorIs(t, err, points.ErrInvalidAmount)

	_, err = coord.Submit(ctx, agedSession(60), 25, "")
	assert.ErrorIs(t, err, points.ErrMissingPhoneNumber)

	admin := agedSession(60)
	admin.User.IsAdmin = true
	_, err = coord.Submit(ctx, admin, 25, "x")
	assert.ErrorIs(t, err, points.ErrAdminAccount)

	assert.Empty(t, fb.createCalls)
}

func TestSubmit_BackendRejectionSurfacesVerbatim(t *testing.T) {
	// GIVEN a backend that re-validates and says no at write time
	fb := backendWith(100, 0)
	fb.createErr = &backend.APIError{StatusCode: 400, Message: "Insufficient points balance"}
	journal := &memAttempts{}
	coord := newCoordinator(fb, journal)

	_, err := coord.Submit(context.Background(), agedSession(60), 25, "+233201234567")

	// THEN the backend's message reaches the caller untouched
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Insufficient points balance", apiErr.Message)

	// AND the attempt is journaled as failed
	require.Len(t, journal.recorded, 1)
	assert.Equal(t, withdraw.OutcomeFailed, journal.recorded[0].Outcome)
}

func TestSubmit_TransportFailurePropagatesWithoutRetry(t *testing.T) {
	fb := backendWith(100, 0)
	fb.createErr = fmt.Errorf("%w: connection refused", points.ErrRequestFailed)
	coord := newCoordinator(fb, nil)

	_, err := coord.Submit(context.Background(), agedSession(60), 25, "+233201234567")

	assert.ErrorIs(t, err, points.ErrRequestFailed)
	assert.Len(t, fb.createCalls, 1, "a failed submission is never retried")
}

func TestSubmit_FetchFailureShortCircuits(t *testing.T) {
	fb := backendWith(100, 0)
	fb.paymentsErr = fmt.Errorf("%w: timeout", points.ErrRequestFailed)
	coord := newCoordinator(fb, nil)

	_, err := coord.Submit(context.Background(), agedSession(60), 25, "+233201234567")

	assert.ErrorIs(t, err, points.ErrRequestFailed)
	assert.Empty(t, fb.createCalls)
}

// =============================================================================
// BALANCE
// =============================================================================

func TestBalance_ExcludesFailedPayments(t *testing.T) {
	fb := backendWith(100, 0)
	fb.payments = &backend.UserPayments{
		Payments: []points.PaymentRequest{
			{ID: "pay-1", PointsWithdrawn: 30, Status: points.StatusPending},
			{ID: "pay-2", PointsWithdrawn: 20, Status: points.StatusFailed},
		},
	}
	coord := newCoordinator(fb, nil)

	bal, events, payments, err := coord.Balance(context.Background(), agedSession(60))
	require.NoError(t, err)

	assert.Equal(t, int64(100), bal.TotalEarned)
	assert.Equal(t, int64(30), bal.TotalWithdrawn, "failed payment releases its hold")
	assert.Equal(t, int64(70), bal.Remaining)
	assert.Len(t, events, 20)
	assert.Len(t, payments, 2)
}

func TestBalance_NoSession(t *testing.T) {
	coord := newCoordinator(backendWith(0, 0), nil)
	_, _, _, err := coord.Balance(context.Background(), &session.Session{})
	assert.ErrorIs(t, err, points.ErrNoSession)
}

// =============================================================================
// ATTEMPT JOURNAL
// =============================================================================

func TestAttempts_ScopedToUser(t *testing.T) {
	journal := &memAttempts{
		recorded: []withdraw.Attempt{
			{ID: "a1", UserID: "user-1", Outcome: withdraw.OutcomeSubmitted},
			{ID: "a2", UserID: "user-2", Outcome: withdraw.OutcomeRejected},
		},
	}
	coord := newCoordinator(backendWith(0, 0), journal)

	attempts, err := coord.Attempts(context.Background(), agedSession(60))
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "a1", attempts[0].ID)
}

// =============================================================================
// ADMIN REVIEW
// =============================================================================

func adminSession() *session.Session {
	s := agedSession(365)
	s.User.ID = "admin-1"
	s.User.IsAdmin = true
	return s
}

func TestReview_ApproveAndReject(t *testing.T) {
	pending := points.PaymentRequest{ID: "pay-1", PointsWithdrawn: 30, Status: points.StatusPending}

	t.Run("approve moves to approved", func(t *testing.T) {
		fb := &fakeBackend{admin: []points.PaymentRequest{pending}}
		coord := newCoordinator(fb, nil)

		updated, err := coord.Review(context.Background(), adminSession(), "pay-1", true)
		require.NoError(t, err)
		assert.Equal(t, points.StatusApproved, updated.Status)
		assert.Equal(t, 1, fb.updateCalls)
	})

	t.Run("reject moves to failed", func(t *testing.T) {
		fb := &fakeBackend{admin: []points.PaymentRequest{pending}}
		coord := newCoordinator(fb, nil)

		updated, err := coord.Review(context.Background(), adminSession(), "pay-1", false)
		require.NoError(t, err)
		assert.Equal(t, points.StatusFailed, updated.Status)
	})
}

func TestReview_OnlyPendingIsReviewable(t *testing.T) {
	fb := &fakeBackend{admin: []points.PaymentRequest{
		{ID: "pay-1", Status: points.StatusCompleted},
	}}
	coord := newCoordinator(fb, nil)

	_, err := coord.Review(context.Background(), adminSession(), "pay-1", true)
	assert.ErrorIs(t, err, withdraw.ErrNotReviewable)

	_, err = coord.Review(context.Background(), adminSession(), "no-such-payment", true)
	assert.ErrorIs(t, err, withdraw.ErrNotReviewable)

	assert.Zero(t, fb.updateCalls)
}

func TestReview_RequiresAdmin(t *testing.T) {
	coord := newCoordinator(&fakeBackend{}, nil)

	_, err := coord.Review(context.Background(), agedSession(60), "pay-1", true)
	assert.ErrorIs(t, err, withdraw.ErrNotAdmin)

	_, err = coord.PendingPayments(context.Background(), agedSession(60))
	assert.ErrorIs(t, err, withdraw.ErrNotAdmin)
}

package backend

import (
	"context"
	"net/http"

	"github.com/relayhq/points-engine/points"
)

// UserPayments is the payments service's per-user view: withdrawal
// history plus the backend's total of points committed to withdrawals.
type UserPayments struct {
	Payments             []points.PaymentRequest
	TotalWithdrawnPoints int64
}

// CreatePaymentInput is the body of a withdrawal submission. The backend
// derives the cash amount from its own conversion rate at creation time
// and freezes it on the stored payment.
type CreatePaymentInput struct {
	PointsToWithdraw int64  `json:"pointsToWithdraw"`
	PhoneNumber      string `json:"phoneNumber"`
}

// UserPayments fetches the calling user's withdrawal history.
// GET /payments/user (bearer)
func (c *Client) UserPayments(ctx context.Context, token string) (*UserPayments, error) {
	var data struct {
		Payments             []paymentDTO `json:"payments"`
		TotalWithdrawnPoints int64        `json:"totalWithdrawnPoints"`
	}
	if err := c.get(ctx, "/payments/user", token, &data); err != nil {
		return nil, err
	}

	payments, err := toPayments(data.Payments)
	if err != nil {
		return nil, err
	}
	return &UserPayments{Payments: payments, TotalWithdrawnPoints: data.TotalWithdrawnPoints}, nil
}

// AdminPayments fetches all users' payment requests for review.
// GET /payments/admin (bearer)
func (c *Client) AdminPayments(ctx context.Context, token string) ([]points.PaymentRequest, error) {
	var data struct {
		Payments []paymentDTO `json:"payments"`
	}
	if err := c.get(ctx, "/payments/admin", token, &data); err != nil {
		return nil, err
	}
	return toPayments(data.Payments)
}

// CreatePayment submits one withdrawal request. This is the engine's only
// balance-affecting write, issued at most once per approved submission
// and never retried here.
// POST /payments (bearer)
func (c *Client) CreatePayment(ctx context.Context, token string, in CreatePaymentInput) (*points.PaymentRequest, error) {
	var dto paymentDTO
	if err := c.do(ctx, http.MethodPost, "/payments", token, in, &dto); err != nil {
		return nil, err
	}
	payment, err := dto.toDomain()
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePaymentStatus moves a payment to a new status (administrator
// action: "approved" to accept, "failed" to reject). The backend releases
// or keeps the point hold accordingly.
// PATCH /payments/{id}/status (bearer)
func (c *Client) UpdatePaymentStatus(ctx context.Context, token, paymentID string, status points.PaymentStatus, pointsWithdrawn int64) (*points.PaymentRequest, error) {
	body := struct {
		Status          points.PaymentStatus `json:"status"`
		PointsWithdrawn int64                `json:"pointsWithdrawn"`
	}{status, pointsWithdrawn}

	var dto paymentDTO
	if err := c.do(ctx, http.MethodPatch, "/payments/"+paymentID+"/status", token, body, &dto); err != nil {
		return nil, err
	}
	payment, err := dto.toDomain()
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// VerifyPayment asks the backend to confirm a disbursement reference.
// POST /payments/verify (bearer)
func (c *Client) VerifyPayment(ctx context.Context, token, reference string) (*points.PaymentRequest, error) {
	body := struct {
		Reference string `json:"reference"`
	}{reference}

	var dto paymentDTO
	if err := c.do(ctx, http.MethodPost, "/payments/verify", token, body, &dto); err != nil {
		return nil, err
	}
	payment, err := dto.toDomain()
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY FORMATTING:
  Cash values are serialized as decimal strings ("2.5", "9") with the
  currency code alongside. Clients format for display.

VALIDATION:
  Validation is done in handlers and the coordinator, not in DTOs. DTOs
  are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - points/types.go: The domain types these mirror
*/
package api

import (
	"time"

	"github.com/relayhq/points-engine/points"
	"github.com/relayhq/points-engine/session"
	"github.com/relayhq/points-engine/withdraw"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	// Reason is the machine-readable rejection code, set only for
	// eligibility rejections.
	Reason string `json:"reason,omitempty"`
}

// BalanceDTO is the computed balance returned to clients.
type BalanceDTO struct {
	TotalEarned      int64            `json:"total_earned"`
	TotalWithdrawn   int64            `json:"total_withdrawn"`
	Remaining        int64            `json:"remaining"`
	EarnedByAction   map[string]int64 `json:"earned_by_action"`
	RemainingCash    string           `json:"remaining_cash"`
	Currency         string           `json:"currency"`
	IntegrityWarning bool             `json:"integrity_warning,omitempty"`
}

// PointEventDTO represents one point grant in API responses.
type PointEventDTO struct {
	ID        string `json:"id"`
	PostID    string `json:"post_id,omitempty"`
	PostTitle string `json:"post_title,omitempty"`
	Action    string `json:"action"`
	Points    int64  `json:"points"`
	CreatedAt string `json:"created_at"`
}

// PaymentDTO represents a withdrawal request in API responses.
type PaymentDTO struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id,omitempty"`
	UserName        string `json:"user_name,omitempty"`
	PointsWithdrawn int64  `json:"points_withdrawn"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
}

// WithdrawRequest is the body of a withdrawal submission.
type WithdrawRequest struct {
	Points      int64  `json:"points"`
	PhoneNumber string `json:"phone_number"`
}

// AttemptDTO represents one journaled withdrawal attempt.
type AttemptDTO struct {
	ID              string `json:"id"`
	PointsRequested int64  `json:"points_requested"`
	Outcome         string `json:"outcome"`
	Reason          string `json:"reason,omitempty"`
	PaymentID       string `json:"payment_id,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// SessionRequest is the body that establishes a session. The token and
// user come from the platform's login flow; this service only stores them.
type SessionRequest struct {
	Token string         `json:"token"`
	User  UserAccountDTO `json:"user"`
}

// UserAccountDTO represents the logged-in account.
type UserAccountDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
	CreatedAt   string `json:"created_at"`
}

// =============================================================================
// DOMAIN -> DTO CONVERSION
// =============================================================================

func toBalanceDTO(bal points.BalanceSummary) BalanceDTO {
	byAction := make(map[string]int64, len(bal.EarnedByAction))
	for action, pts := range bal.EarnedByAction {
		byAction[string(action)] = pts
	}
	return BalanceDTO{
		TotalEarned:      bal.TotalEarned,
		TotalWithdrawn:   bal.TotalWithdrawn,
		Remaining:        bal.Remaining,
		EarnedByAction:   byAction,
		RemainingCash:    bal.RemainingCash().String(),
		Currency:         points.Currency,
		IntegrityWarning: bal.IntegrityWarning,
	}
}

func toPointEventDTOs(events []points.PointEvent) []PointEventDTO {
	dtos := make([]PointEventDTO, len(events))
	for i, e := range events {
		dtos[i] = PointEventDTO{
			ID:        e.ID,
			PostID:    e.PostID,
			PostTitle: e.PostTitle,
			Action:    string(e.Action),
			Points:    e.Points,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

func toPaymentDTO(p points.PaymentRequest) PaymentDTO {
	return PaymentDTO{
		ID:              p.ID,
		UserID:          p.UserID,
		UserName:        p.UserName,
		PointsWithdrawn: p.PointsWithdrawn,
		Amount:          p.Amount.String(),
		Currency:        points.Currency,
		Status:          string(p.Status),
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}

func toPaymentDTOs(payments []points.PaymentRequest) []PaymentDTO {
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos
}

func toAttemptDTOs(attempts []withdraw.Attempt) []AttemptDTO {
	dtos := make([]AttemptDTO, len(attempts))
	for i, a := range attempts {
		dtos[i] = AttemptDTO{
			ID:              a.ID,
			PointsRequested: a.PointsRequested,
			Outcome:         string(a.Outcome),
			Reason:          a.Reason,
			PaymentID:       a.PaymentID,
			CreatedAt:       a.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

func toUserAccountDTO(u points.UserAccount) UserAccountDTO {
	return UserAccountDTO{
		ID:          u.ID,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

func (r SessionRequest) toSession() (*session.Session, error) {
	createdAt, err := time.Parse(time.RFC3339, r.User.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &session.Session{
		Token: r.Token,
		User: points.UserAccount{
			ID:          r.User.ID,
			Name:        r.User.Name,
			PhoneNumber: r.User.PhoneNumber,
			IsAdmin:     r.User.IsAdmin,
			CreatedAt:   createdAt,
		},
	}, nil
}

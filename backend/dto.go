/*
dto.go - Wire shapes for backend responses

PURPOSE:
  The backend serves Mongo-flavored JSON: "_id" identifiers, and reference
  fields that are sometimes a bare id string and sometimes a populated
  object ({_id, title} for posts, {_id, name} for users, {_id, action} for
  point types). objectRef absorbs both shapes so the rest of the engine
  never sees the difference.

  Conversion to domain types validates enums on the way in: an action
  string outside the closed Like/Share/Read set or an unknown payment
  status is a decode error, not a value to carry around.
*/
package backend

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/relayhq/points-engine/points"
)

// =============================================================================
// OBJECT REFERENCE - id string or populated document
// =============================================================================

type objectRef struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Title  string `json:"title"`
	Action string `json:"action"`
}

func (r *objectRef) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	type plain objectRef
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = objectRef(p)
	return nil
}

// =============================================================================
// POINT EVENTS
// =============================================================================

type pointEventDTO struct {
	ID        string    `json:"_id"`
	PostID    objectRef `json:"postId"`
	UserID    objectRef `json:"userId"`
	PointType objectRef `json:"pointTypeId"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

func (d pointEventDTO) toDomain() (points.PointEvent, error) {
	action, err := points.ParseAction(d.PointType.Action)
	if err != nil {
		return points.PointEvent{}, err
	}
	return points.PointEvent{
		ID:        d.ID,
		PostID:    d.PostID.ID,
		PostTitle: d.PostID.Title,
		Action:    action,
		Points:    d.Points,
		CreatedAt: d.CreatedAt,
	}, nil
}

func toPointEvents(dtos []pointEventDTO) ([]points.PointEvent, error) {
	events := make([]points.PointEvent, 0, len(dtos))
	for _, d := range dtos {
		e, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

type paymentDTO struct {
	ID              string          `json:"_id"`
	UserID          objectRef       `json:"userId"`
	PointsWithdrawn int64           `json:"pointsWithdrawn"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (d paymentDTO) toDomain() (points.PaymentRequest, error) {
	status, err := points.ParsePaymentStatus(d.Status)
	if err != nil {
		return points.PaymentRequest{}, err
	}
	return points.PaymentRequest{
		ID:              d.ID,
		UserID:          d.UserID.ID,
		UserName:        d.UserID.Name,
		PointsWithdrawn: d.PointsWithdrawn,
		Amount:          d.Amount,
		Status:          status,
		CreatedAt:       d.CreatedAt,
	}, nil
}

func toPayments(dtos []paymentDTO) ([]points.PaymentRequest, error) {
	payments := make([]points.PaymentRequest, 0, len(dtos))
	for _, d := range dtos {
		p, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}

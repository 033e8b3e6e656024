/*
handlers.go - HTTP API handlers for the points withdrawal engine

PURPOSE:
  Exposes the balance and withdrawal flows via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the coordinator.

ENDPOINTS:
  Session:
    GET    /api/session                Current session
    POST   /api/session                Store a session (post-login)
    DELETE /api/session                Log out

  Balance & history:
    GET    /api/balance                Computed balance
    GET    /api/points                 Point event history
    GET    /api/payments               Withdrawal history

  Withdrawals:
    POST   /api/withdrawals            Submit a withdrawal
    GET    /api/withdrawals/attempts   Local attempt journal

  Admin:
    GET    /api/admin/payments         All users' payment requests
    POST   /api/admin/payments/{id}/approve
    POST   /api/admin/payments/{id}/reject

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: No session
  - 403: Admin-only endpoint hit by a regular session
  - 409: Payment not reviewable
  - 422: Eligibility rejection (body carries the reason code)
  - 502: Backend unreachable or backend said no
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - withdraw/coordinator.go: The domain logic behind every endpoint
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/relayhq/points-engine/backend"
	"github.com/relayhq/points-engine/points"
	"github.com/relayhq/points-engine/session"
	"github.com/relayhq/points-engine/withdraw"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Coordinator *withdraw.Coordinator
	Sessions    session.Store
	Logger      *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(coord *withdraw.Coordinator, sessions session.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Coordinator: coord, Sessions: sessions, Logger: logger}
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// GetSession returns the stored session's account.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Load(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserAccountDTO(sess.User))
}

// SaveSession stores the session produced by the platform's login flow.
func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Token == "" || req.User.ID == "" {
		writeError(w, http.StatusBadRequest, "token and user.id are required", nil)
		return
	}

	sess, err := req.toSession()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user.created_at (use RFC 3339)", err)
		return
	}
	if err := h.Sessions.Save(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save session", err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserAccountDTO(sess.User))
}

// ClearSession logs out.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BALANCE & HISTORY HANDLERS
// =============================================================================

// GetBalance returns the computed balance for the session's user.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Load(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	bal, _, _, err := h.Coordinator.Balance(r.Context(), sess)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(bal))
}

// GetPoints returns the user's point event history.
func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Load(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	_, events, _, err := h.Coordinator.Balance(r.Context(), sess)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPointEventDTOs(events))
}

// GetPayments returns the user's withdrawal history.
func (h *Handler) GetPayments(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Load(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	_, _, payments, err := h.Coordinator.Balance(r.Context(), sess)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

// =============================================================================
// WITHDRAWAL HANDLERS
// =============================================================================

// SubmitWithdrawal runs one withdrawal attempt through the coordinator.
func (h *Handler) SubmitWithdrawal(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Load(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payment, err := h.Coordinator.Submit(r.Context(), sess, req.Points, req.PhoneNumber)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(*payment))
}

// ListAttempts returns the session user's journaled withdrawal attempts.
func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Load(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	attempts, err := h.Coordinator.Attempts(r.Context(), sess)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptDTOs(attempts))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ListAdminPayments returns all users' payment requests for review.
func (h *Handler) ListAdminPayments(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Load(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	payments, err := h.Coordinator.PendingPayments(r.Context(), sess)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

// ApprovePayment moves a pending payment to "approved".
func (h *Handler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	h.reviewPayment(w, r, true)
}

// RejectPayment moves a pending payment to "failed", returning its points
// to the user's balance.
func (h *Handler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	h.reviewPayment(w, r, false)
}

func (h *Handler) reviewPayment(w http.ResponseWriter, r *http.Request, approve bool) {
	sess, err := h.Sessions.Load(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	paymentID := chi.URLParam(r, "id")
	updated, err := h.Coordinator.Review(r.Context(), sess, paymentID, approve)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(*updated))
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// writeDomainError maps engine errors to HTTP statuses. The taxonomy:
// validation -> 400, no session -> 401, admin gate -> 403, review
// conflicts -> 409, eligibility rejections -> 422, backend trouble -> 502.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var rej *points.RejectionError
	if errors.As(err, &rej) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  rej.Error(),
			Reason: string(rej.Reason),
		})
		return
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: apiErr.Message})
		return
	}

	switch {
	case errors.Is(err, points.ErrNoSession):
		writeError(w, http.StatusUnauthorized, "Not logged in", nil)
	case errors.Is(err, withdraw.ErrNotAdmin):
		writeError(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, withdraw.ErrNotReviewable):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case points.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, points.ErrRequestFailed):
		writeError(w, http.StatusBadGateway, points.ErrRequestFailed.Error(), err)
	default:
		h.Logger.Error("unhandled API error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

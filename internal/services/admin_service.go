package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/pazaryeri/backend/internal/models"
)

// AdminService handles back-office payout operations.
type AdminService struct {
	db        *sql.DB
	authz     *AuthzService
	notifier  *NotificationService
	validator *ValidationHelper
}

// ApprovePayoutRequest represents the approval payload
// @Description Admin payout approval request structure
type ApprovePayoutRequest struct {
	ID string `json:"id" validate:"required,uuid4"` // Payout transaction id
}

func NewAdminService(db *sql.DB, redisClient *redis.Client) *AdminService {
	return &AdminService{
		db:        db,
		authz:     NewAuthzService(db, redisClient),
		notifier:  NewNotificationService(db),
		validator: NewValidationHelper(),
	}
}

// Admin endpoints report failures as {success:false, error} rather
// than the seller-facing message shape.
func sendAdminError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// ApprovePayout marks a payout request completed
// @Summary Approve a payout request
// @Description Sets the payout request status to COMPLETED. Approving an already completed request is a harmless overwrite.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ApprovePayoutRequest true "Approval request"
// @Success 200 {object} object{success=bool}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 401 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 500 {object} object{success=bool,error=string}
// @Router /admin/payouts/approve [post]
func (s *AdminService) ApprovePayout(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		sendAdminError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := s.authz.RequireAdmin(r.Context(), userID); err != nil {
		if err == ErrForbidden {
			log.Printf("[ADMIN] Non-admin user %s attempted payout approval", userID)
			sendAdminError(w, "Admin role required", http.StatusForbidden)
			return
		}
		log.Printf("[ADMIN] Role lookup failed for user %s: %v", userID, err)
		sendAdminError(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req ApprovePayoutRequest
	if err := dec.Decode(&req); err != nil {
		sendAdminError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		sendAdminError(w, "Request body must only contain a single JSON object", http.StatusBadRequest)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		sendAdminError(w, "A valid payout request id is required", http.StatusBadRequest)
		return
	}

	var sellerID string
	err := s.db.QueryRowContext(r.Context(), `
		UPDATE payout_requests
		SET status = $1
		WHERE id = $2
		RETURNING seller_id`,
		models.PayoutStatusCompleted, req.ID).Scan(&sellerID)
	if err == sql.ErrNoRows {
		log.Printf("[ADMIN] Payout request %s not found", req.ID)
		sendAdminError(w, "Payout request not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[ADMIN] Failed to approve payout %s: %v", req.ID, err)
		sendAdminError(w, "Failed to approve payout request", http.StatusInternalServerError)
		return
	}

	log.Printf("[ADMIN] Payout %s approved by user %s", req.ID, userID)

	go s.notifier.Notify(sellerID, "payout_completed", "Payout completed",
		"Your payout request has been approved and completed")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

// ListPendingPayouts returns payout requests awaiting approval
// @Summary List pending payout requests
// @Description All payout requests in PENDING_APPROVAL, oldest first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,payouts=[]models.PayoutRequest}
// @Failure 401 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 500 {object} object{success=bool,error=string}
// @Router /admin/payouts [get]
func (s *AdminService) ListPendingPayouts(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		sendAdminError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := s.authz.RequireAdmin(r.Context(), userID); err != nil {
		if err == ErrForbidden {
			sendAdminError(w, "Admin role required", http.StatusForbidden)
			return
		}
		log.Printf("[ADMIN] Role lookup failed for user %s: %v", userID, err)
		sendAdminError(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}

	rows, err := s.db.QueryContext(r.Context(), `
		SELECT id, seller_id, bank_account_id, amount, currency, status, requested_at
		FROM payout_requests
		WHERE status = $1
		ORDER BY requested_at ASC`,
		models.PayoutStatusPendingApproval)
	if err != nil {
		log.Printf("[ADMIN] Pending payout lookup failed: %v", err)
		sendAdminError(w, "Failed to list payout requests", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	payouts := []models.PayoutRequest{}
	for rows.Next() {
		var req models.PayoutRequest
		if err := rows.Scan(&req.ID, &req.SellerID, &req.BankAccountID, &req.Amount,
			&req.Currency, &req.Status, &req.RequestedAt); err != nil {
			log.Printf("[ADMIN] Pending payout scan failed: %v", err)
			sendAdminError(w, "Failed to list payout requests", http.StatusInternalServerError)
			return
		}
		payouts = append(payouts, req)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[ADMIN] Pending payout iteration failed: %v", err)
		sendAdminError(w, "Failed to list payout requests", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"payouts": payouts,
	})
}

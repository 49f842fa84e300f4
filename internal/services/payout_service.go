package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pazaryeri/backend/internal/config"
	"github.com/pazaryeri/backend/internal/models"
	"github.com/shopspring/decimal"
)

// PayoutService handles seller-facing payout operations: the balance
// and history view, payout submission, and the ledger listing.
type PayoutService struct {
	db        *sql.DB
	ledger    *LedgerService
	authz     *AuthzService
	notifier  *NotificationService
	validator *ValidationHelper
	config    *config.PayoutConfig
}

// PayoutSubmission represents the payout submission payload
// @Description Payout submission request structure
type PayoutSubmission struct {
	Amount              float64 `json:"amount" validate:"required,gt=0" example:"400"`                                   // Requested amount
	Currency            string  `json:"currency" validate:"omitempty,min=3" example:"TRY"`                              // Currency code, defaults to TRY
	SellerBankAccountID string  `json:"seller_bank_account_id" validate:"required,uuid4" example:"1f0cdd4a-9419-4a9b-b2e2-6e2e7a1f2c3d"` // Target bank account
}

// PayoutSummary is the balance view returned with the payout history.
type PayoutSummary struct {
	CurrentBalance float64 `json:"currentBalance"`
	Currency       string  `json:"currency"`
	PendingAmount  float64 `json:"pendingAmount"`
	TotalWithdrawn float64 `json:"totalWithdrawn"`
}

func NewPayoutService(db *sql.DB, redisClient *redis.Client, cfg *config.PayoutConfig) *PayoutService {
	return &PayoutService{
		db:        db,
		ledger:    NewLedgerService(db),
		authz:     NewAuthzService(db, redisClient),
		notifier:  NewNotificationService(db),
		validator: NewValidationHelper(),
		config:    cfg,
	}
}

// GetPayouts returns the seller's balance summary and payout history
// @Summary Get payout summary and history
// @Description Current balance view plus the seller's payout requests, newest first
// @Tags payouts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,summary=PayoutSummary,history=[]models.PayoutRequest}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /payouts [get]
func (s *PayoutService) GetPayouts(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	sellerID, err := s.authz.ResolveSeller(r.Context(), userID)
	if err == ErrSellerNotFound {
		log.Printf("[PAYOUT] No seller profile for user %s", userID)
		SendErrorResponse(w, "Seller account not found", http.StatusUnauthorized, nil)
		return
	}
	if err != nil {
		log.Printf("[PAYOUT] Seller lookup failed for user %s: %v", userID, err)
		SendErrorResponse(w, "An internal error occurred", http.StatusInternalServerError, nil)
		return
	}

	balance, err := s.ledger.CurrentBalance(r.Context(), sellerID)
	if err != nil {
		log.Printf("[PAYOUT] Balance lookup failed for seller %s: %v", sellerID, err)
		SendErrorResponse(w, "An internal error occurred", http.StatusInternalServerError, nil)
		return
	}

	history, err := s.listPayoutRequests(r, sellerID)
	if err != nil {
		log.Printf("[PAYOUT] History lookup failed for seller %s: %v", sellerID, err)
		SendErrorResponse(w, "An internal error occurred", http.StatusInternalServerError, nil)
		return
	}

	pending := decimal.Zero
	withdrawn := decimal.Zero
	for _, req := range history {
		switch req.Status {
		case models.PayoutStatusPendingApproval:
			pending = pending.Add(req.Amount)
		case models.PayoutStatusCompleted:
			withdrawn = withdrawn.Add(req.Amount)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"summary": PayoutSummary{
			CurrentBalance: balance.InexactFloat64(),
			Currency:       s.config.DefaultCurrency,
			PendingAmount:  pending.InexactFloat64(),
			TotalWithdrawn: withdrawn.InexactFloat64(),
		},
		"history": history,
	})
}

// RequestPayout submits a new payout request
// @Summary Submit a payout request
// @Description Validates the requested amount against the seller's balance and creates a pending payout request plus the matching ledger debit
// @Tags payouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PayoutSubmission true "Payout submission"
// @Success 200 {object} object{success=bool,message=string,payoutRequestId=string,newBalance=number}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /payouts [post]
func (s *PayoutService) RequestPayout(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	sellerID, err := s.authz.ResolveSeller(r.Context(), userID)
	if err == ErrSellerNotFound {
		log.Printf("[PAYOUT] No seller profile for user %s", userID)
		SendErrorResponse(w, "Seller account not found", http.StatusUnauthorized, nil)
		return
	}
	if err != nil {
		log.Printf("[PAYOUT] Seller lookup failed for user %s: %v", userID, err)
		SendErrorResponse(w, "An internal error occurred", http.StatusInternalServerError, nil)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req PayoutSubmission
	if err := dec.Decode(&req); err != nil {
		log.Printf("[PAYOUT] Invalid request body: %v", err)
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if req.Currency == "" {
		req.Currency = s.config.DefaultCurrency
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		log.Printf("[PAYOUT] Validation failed: %v", err)
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	amount := decimal.NewFromFloat(req.Amount)
	if amount.LessThan(s.config.MinAmount) {
		SendErrorResponse(w, fmt.Sprintf("Minimum payout amount is %s %s", s.config.MinAmount.String(), req.Currency), http.StatusBadRequest, nil)
		return
	}

	log.Printf("[PAYOUT] Payout request from seller %s: %s %s to account %s", sellerID, amount.String(), req.Currency, req.SellerBankAccountID)

	// The payout request insert and the ledger debit must land or fail
	// together; the advisory lock also serializes concurrent
	// submissions for the same seller so the balance check cannot race
	// a second debit.
	tx, err := s.db.BeginTx(r.Context(), nil)
	if err != nil {
		log.Printf("[PAYOUT] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to process payout request", http.StatusInternalServerError, nil)
		return
	}
	defer tx.Rollback()

	if err := s.ledger.LockSellerTx(tx, sellerID); err != nil {
		log.Printf("[PAYOUT] Failed to lock seller %s: %v", sellerID, err)
		SendErrorResponse(w, "Failed to process payout request", http.StatusInternalServerError, nil)
		return
	}

	balance, err := s.ledger.CurrentBalanceTx(tx, sellerID)
	if err != nil {
		log.Printf("[PAYOUT] Balance lookup failed for seller %s: %v", sellerID, err)
		SendErrorResponse(w, "Failed to process payout request", http.StatusInternalServerError, nil)
		return
	}

	if amount.GreaterThan(balance) {
		log.Printf("[PAYOUT] Insufficient balance for seller %s: requested %s, available %s", sellerID, amount.String(), balance.String())
		SendErrorResponse(w, fmt.Sprintf("Insufficient balance: requested %s, available %s", amount.String(), balance.String()), http.StatusBadRequest, nil)
		return
	}

	var bankAccountID string
	err = tx.QueryRow(`
		SELECT id FROM seller_bank_accounts
		WHERE id = $1 AND seller_id = $2`,
		req.SellerBankAccountID, sellerID).Scan(&bankAccountID)
	if err == sql.ErrNoRows {
		log.Printf("[PAYOUT] Bank account %s not found for seller %s", req.SellerBankAccountID, sellerID)
		SendErrorResponse(w, "Bank account not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[PAYOUT] Bank account lookup failed: %v", err)
		SendErrorResponse(w, "Failed to process payout request", http.StatusInternalServerError, nil)
		return
	}

	requestID := uuid.New().String()
	_, err = tx.Exec(`
		INSERT INTO payout_requests (id, seller_id, bank_account_id, amount, currency, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		requestID, sellerID, bankAccountID, amount, req.Currency,
		models.PayoutStatusPendingApproval, time.Now())
	if err != nil {
		log.Printf("[PAYOUT] Failed to create payout request for seller %s: %v", sellerID, err)
		SendErrorResponse(w, "Failed to create payout request", http.StatusInternalServerError, nil)
		return
	}

	newBalance := balance.Sub(amount)
	if _, err := s.ledger.AppendPayoutDebitTx(tx, sellerID, requestID, bankAccountID, amount, req.Currency, newBalance); err != nil {
		log.Printf("[PAYOUT] Ledger debit failed for payout %s: %v", requestID, err)
		SendErrorResponse(w, "Failed to record ledger entry", http.StatusInternalServerError, nil)
		return
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[PAYOUT] Failed to commit payout %s: %v", requestID, err)
		SendErrorResponse(w, "Failed to process payout request", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[PAYOUT] Payout %s created for seller %s, new balance %s", requestID, sellerID, newBalance.String())

	go s.notifier.Notify(sellerID, "payout_requested", "Payout request received",
		fmt.Sprintf("Your payout request of %s %s is pending approval", amount.String(), req.Currency))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":         true,
		"message":         "Payout request submitted",
		"payoutRequestId": requestID,
		"newBalance":      newBalance.InexactFloat64(),
	})
}

// ListLedger returns the seller's ledger entries
// @Summary List ledger entries
// @Description Seller's ledger entries, newest first
// @Tags payouts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries to return"
// @Success 200 {object} object{success=bool,entries=[]models.LedgerEntry}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /ledger [get]
func (s *PayoutService) ListLedger(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	sellerID, err := s.authz.ResolveSeller(r.Context(), userID)
	if err == ErrSellerNotFound {
		SendErrorResponse(w, "Seller account not found", http.StatusUnauthorized, nil)
		return
	}
	if err != nil {
		log.Printf("[LEDGER] Seller lookup failed for user %s: %v", userID, err)
		SendErrorResponse(w, "An internal error occurred", http.StatusInternalServerError, nil)
		return
	}

	limit := s.config.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > s.config.MaxHistoryLimit {
		limit = s.config.MaxHistoryLimit
	}

	entries, err := s.ledger.ListEntries(r.Context(), sellerID, limit)
	if err != nil {
		log.Printf("[LEDGER] Entry lookup failed for seller %s: %v", sellerID, err)
		SendErrorResponse(w, "An internal error occurred", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"entries": entries,
	})
}

func (s *PayoutService) listPayoutRequests(r *http.Request, sellerID string) ([]models.PayoutRequest, error) {
	rows, err := s.db.QueryContext(r.Context(), `
		SELECT id, seller_id, bank_account_id, amount, currency, status, requested_at
		FROM payout_requests
		WHERE seller_id = $1
		ORDER BY requested_at DESC
		LIMIT $2`, sellerID, s.config.MaxHistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.PayoutRequest{}
	for rows.Next() {
		var req models.PayoutRequest
		if err := rows.Scan(&req.ID, &req.SellerID, &req.BankAccountID, &req.Amount,
			&req.Currency, &req.Status, &req.RequestedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

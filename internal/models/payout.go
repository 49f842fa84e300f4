package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PayoutStatusPendingApproval = "PENDING_APPROVAL"
	PayoutStatusCompleted       = "COMPLETED"
)

// PayoutRequest is a seller-initiated withdrawal instruction awaiting
// admin action. Created PENDING_APPROVAL; the only in-scope transition
// is to COMPLETED via admin approval.
type PayoutRequest struct {
	ID            string          `json:"id" db:"id"`
	SellerID      string          `json:"seller_id" db:"seller_id"`
	BankAccountID string          `json:"seller_bank_account_id" db:"bank_account_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	Status        string          `json:"status" db:"status"`
	RequestedAt   time.Time       `json:"requested_at" db:"requested_at"`
}

// SellerBankAccount is read-only in the payout core; only ownership
// and currency are consumed.
type SellerBankAccount struct {
	ID       string `json:"id" db:"id"`
	SellerID string `json:"seller_id" db:"seller_id"`
	Currency string `json:"currency" db:"currency"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EntryTypePayoutDebit     = "PAYOUT_REQUEST_DEBIT"
	EntryTypeOrderSettlement = "ORDER_SETTLEMENT"
)

// LedgerEntry is one immutable signed monetary record for a seller.
// BalanceAfter is the running balance snapshot taken when the entry
// was written; the current balance of a seller is the BalanceAfter of
// its most recent entry. Entries are append-only and never updated.
type LedgerEntry struct {
	ID              string          `json:"id" db:"id"`
	SellerID        string          `json:"seller_id" db:"seller_id"`
	PayoutRequestID *string         `json:"payout_request_id,omitempty" db:"payout_request_id"`
	EntryType       string          `json:"entry_type" db:"entry_type"`
	Amount          decimal.Decimal `json:"amount" db:"amount"` // negative for debits
	Currency        string          `json:"currency" db:"currency"`
	Description     string          `json:"description" db:"description"`
	BalanceAfter    decimal.Decimal `json:"balance_after" db:"balance_after"`
	BankAccountID   *string         `json:"bank_account_id,omitempty" db:"bank_account_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

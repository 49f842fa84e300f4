package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pazaryeri/backend/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerService owns the append-only seller ledger. Entries are never
// updated or deleted; the running balance is carried forward in the
// balance_after column of each entry.
type LedgerService struct {
	db *sql.DB
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{db: db}
}

// CurrentBalance returns the seller's available balance: the
// balance_after snapshot of the most recent ledger entry. A seller
// with no entries has a zero balance.
func (s *LedgerService) CurrentBalance(ctx context.Context, sellerID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT balance_after FROM ledger_entries
		WHERE seller_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, sellerID).Scan(&balance)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// LockSellerTx takes a transaction-scoped advisory lock on the seller,
// serializing concurrent payout submissions so the balance check and
// the debit write are mutually exclusive per seller. The lock is
// released automatically at commit or rollback.
func (s *LedgerService) LockSellerTx(tx *sql.Tx, sellerID string) error {
	_, err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, sellerID)
	return err
}

// CurrentBalanceTx reads the current balance inside an open transaction.
func (s *LedgerService) CurrentBalanceTx(tx *sql.Tx, sellerID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(`
		SELECT balance_after FROM ledger_entries
		WHERE seller_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, sellerID).Scan(&balance)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// AppendPayoutDebitTx writes the debit entry for a payout request
// inside the submission transaction. Amount is the positive requested
// figure; the stored entry amount is its negation.
func (s *LedgerService) AppendPayoutDebitTx(tx *sql.Tx, sellerID, payoutRequestID, bankAccountID string, amount decimal.Decimal, currency string, balanceAfter decimal.Decimal) (string, error) {
	entryID := uuid.New().String()
	description := fmt.Sprintf("Payout request %s", payoutRequestID)

	_, err := tx.Exec(`
		INSERT INTO ledger_entries (id, seller_id, payout_request_id, entry_type, amount, currency, description, balance_after, bank_account_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entryID, sellerID, payoutRequestID, models.EntryTypePayoutDebit,
		amount.Neg(), currency, description, balanceAfter, bankAccountID, time.Now())
	if err != nil {
		return "", err
	}
	return entryID, nil
}

// AppendCredit appends an order-settlement credit entry and returns
// the new balance.
func (s *LedgerService) AppendCredit(ctx context.Context, sellerID string, amount decimal.Decimal, currency, description string) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	if err := s.LockSellerTx(tx, sellerID); err != nil {
		return decimal.Zero, err
	}

	balance, err := s.CurrentBalanceTx(tx, sellerID)
	if err != nil {
		return decimal.Zero, err
	}
	newBalance := balance.Add(amount)

	_, err = tx.Exec(`
		INSERT INTO ledger_entries (id, seller_id, entry_type, amount, currency, description, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New().String(), sellerID, models.EntryTypeOrderSettlement,
		amount, currency, description, newBalance, time.Now())
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// ListEntries returns the seller's ledger entries, newest first.
func (s *LedgerService) ListEntries(ctx context.Context, sellerID string, limit int) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seller_id, payout_request_id, entry_type, amount, currency, description, balance_after, bank_account_id, created_at
		FROM ledger_entries
		WHERE seller_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, sellerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var entry models.LedgerEntry
		if err := rows.Scan(&entry.ID, &entry.SellerID, &entry.PayoutRequestID, &entry.EntryType,
			&entry.Amount, &entry.Currency, &entry.Description, &entry.BalanceAfter,
			&entry.BankAccountID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

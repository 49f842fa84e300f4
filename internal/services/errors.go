package services

import "errors"

var (
	ErrSellerNotFound      = errors.New("seller not found")
	ErrForbidden           = errors.New("forbidden")
	ErrBankAccountNotFound = errors.New("bank account not found")
	ErrPayoutNotFound      = errors.New("payout request not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

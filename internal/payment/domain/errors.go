package domain

import "errors"

var (
	ErrInvalidMethod      = errors.New("invalid_payment_method")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInsufficientTender = errors.New("insufficient_tender")
	ErrNotPayable         = errors.New("bill_not_payable")
	ErrBundleContainer    = errors.New("bill_is_bundle")
	ErrBillInActiveBundle = errors.New("bill_in_active_bundle")
	ErrDuplicateReference = errors.New("duplicate_payment_reference")
	ErrNotFound           = errors.New("payment_not_found")
)

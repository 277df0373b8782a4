package domain

import "errors"

var (
	ErrNotFound          = errors.New("bill_not_found")
	ErrUsageNotFound     = errors.New("usage_not_found")
	ErrCustomerInactive  = errors.New("customer_inactive")
	ErrPeriodNotFound    = errors.New("period_not_found")
	ErrVillageNotFound   = errors.New("village_not_found")
	ErrInvalidFee        = errors.New("invalid_fee")
	ErrDuplicateBill     = errors.New("duplicate_bill")
	ErrUsageChanged      = errors.New("usage_changed_during_billing")
	ErrNotPayable        = errors.New("bill_not_payable")
	ErrAlreadyPaid       = errors.New("bill_already_paid")
	ErrInvalidTransition = errors.New("invalid_bill_transition")
)

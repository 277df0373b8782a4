package domain

import "errors"

var (
	ErrNoUnpaidBills      = errors.New("no_unpaid_bills")
	ErrNotEnoughBills     = errors.New("bundle_requires_two_bills")
	ErrMixedCustomer      = errors.New("mixed_customer_bundle")
	ErrBillNotUnpaid      = errors.New("bill_not_unpaid")
	ErrBundleContainer    = errors.New("bill_is_bundle")
	ErrBillInActiveBundle = errors.New("bill_in_active_bundle")
	ErrNotFound           = errors.New("bundle_not_found")
	ErrAlreadyExpired     = errors.New("bundle_expired")
	ErrBundleNotPending   = errors.New("bundle_not_pending")
	ErrDuplicateReference = errors.New("duplicate_bundle_reference")
)

package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Village, error)
	Get(ctx context.Context, id uuid.UUID) (*Village, error)
	List(ctx context.Context) ([]*Village, error)
	ListAutoGenerate(ctx context.Context) ([]*Village, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, req UpdateSettingsRequest) (*Village, error)
}

type CreateRequest struct {
	Name                  string          `json:"name"`
	CodePrefix            string          `json:"code_prefix"`
	DefaultAdminFee       decimal.Decimal `json:"default_admin_fee"`
	DefaultMaintenanceFee decimal.Decimal `json:"default_maintenance_fee"`
	AutoGenerateBills     bool            `json:"auto_generate_bills"`
	OverdueThresholdDays  int             `json:"overdue_threshold_days"`
}

type UpdateSettingsRequest struct {
	DefaultAdminFee       *decimal.Decimal `json:"default_admin_fee"`
	DefaultMaintenanceFee *decimal.Decimal `json:"default_maintenance_fee"`
	AutoGenerateBills     *bool            `json:"auto_generate_bills"`
	OverdueThresholdDays  *int             `json:"overdue_threshold_days"`
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidCodePrefix = errors.New("invalid_code_prefix")
	ErrInvalidFee        = errors.New("invalid_fee")
	ErrInvalidThreshold  = errors.New("invalid_overdue_threshold")
	ErrDuplicateSlug     = errors.New("duplicate_slug")
	ErrNotFound          = errors.New("village_not_found")
)

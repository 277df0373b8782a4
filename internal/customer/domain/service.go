package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/pamdes/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Customer, error)
	Get(ctx context.Context, id snowflake.ID) (*Customer, error)
	GetByCode(ctx context.Context, villageID uuid.UUID, code string) (*Customer, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	SetStatus(ctx context.Context, id snowflake.ID, status Status) (*Customer, error)
}

type CreateRequest struct {
	VillageID uuid.UUID `json:"village_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
}

type ListFilter struct {
	Status Status
	Name   string
}

type ListRequest struct {
	VillageID uuid.UUID
	Status    Status
	Name      string
	PageToken string
	PageSize  int
}

type ListResponse struct {
	pagination.PageInfo
	Customers []*Customer `json:"customers"`
}

var (
	ErrInvalidVillage = errors.New("invalid_village")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrNotFound       = errors.New("customer_not_found")
)

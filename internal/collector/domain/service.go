package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Collector, error)
	Get(ctx context.Context, id snowflake.ID) (*Collector, error)
	FindByName(ctx context.Context, villageID uuid.UUID, name string) (*Collector, error)
	List(ctx context.Context, villageID uuid.UUID, activeOnly bool) ([]*Collector, error)
	Deactivate(ctx context.Context, id snowflake.ID) error
}

type CreateRequest struct {
	VillageID uuid.UUID `json:"village_id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
}

var (
	ErrInvalidVillage = errors.New("invalid_village")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidRole    = errors.New("invalid_role")
	ErrDuplicateName  = errors.New("duplicate_collector_name")
	ErrNotFound       = errors.New("collector_not_found")
)

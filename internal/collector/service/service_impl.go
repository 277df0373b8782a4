package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/pamdes/internal/clock"
	"github.com/smallbiznis/pamdes/internal/collector/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("collector.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Collector, error) {
	if req.VillageID == uuid.Nil {
		return nil, domain.ErrInvalidVillage
	}
	name := strings.Join(strings.Fields(req.Name), " ")
	normalized := domain.NormalizeName(name)
	if normalized == "" {
		return nil, domain.ErrInvalidName
	}
	role := req.Role
	if role == "" {
		role = domain.RoleCollector
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	existing, err := s.repo.FindByNormalizedName(ctx, s.db, req.VillageID, normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateName
	}

	now := s.clock.Now()
	collector := &domain.Collector{
		ID:             s.genID.Generate(),
		VillageID:      req.VillageID,
		Name:           name,
		NormalizedName: normalized,
		Role:           role,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, s.db, collector); err != nil {
		return nil, err
	}
	return collector, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Collector, error) {
	collector, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if collector == nil {
		return nil, domain.ErrNotFound
	}
	return collector, nil
}

// FindByName matches on the normalized form, so "Budi  Santoso" finds "budi santoso".
func (s *Service) FindByName(ctx context.Context, villageID uuid.UUID, name string) (*domain.Collector, error) {
	normalized := domain.NormalizeName(name)
	if normalized == "" {
		return nil, domain.ErrInvalidName
	}
	collector, err := s.repo.FindByNormalizedName(ctx, s.db, villageID, normalized)
	if err != nil {
		return nil, err
	}
	if collector == nil {
		return nil, domain.ErrNotFound
	}
	return collector, nil
}

func (s *Service) List(ctx context.Context, villageID uuid.UUID, activeOnly bool) ([]*domain.Collector, error) {
	return s.repo.List(ctx, s.db, villageID, activeOnly)
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, s.db, id, false)
}

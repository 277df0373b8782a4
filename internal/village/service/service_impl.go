package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/pamdes/internal/clock"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
	"github.com/smallbiznis/pamdes/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  villagedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  villagedomain.Repository
}

func New(p Params) villagedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("village.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req villagedomain.CreateRequest) (*villagedomain.Village, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, villagedomain.ErrInvalidName
	}
	prefix := strings.ToUpper(strings.TrimSpace(req.CodePrefix))
	if prefix == "" || strings.ContainsAny(prefix, " \t") {
		return nil, villagedomain.ErrInvalidCodePrefix
	}
	if req.DefaultAdminFee.IsNegative() || req.DefaultMaintenanceFee.IsNegative() {
		return nil, villagedomain.ErrInvalidFee
	}
	if req.OverdueThresholdDays < 0 {
		return nil, villagedomain.ErrInvalidThreshold
	}

	villageSlug := slug.Make(name)
	if villageSlug == "" {
		return nil, villagedomain.ErrInvalidName
	}

	existing, err := s.repo.FindBySlug(ctx, s.db, villageSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, villagedomain.ErrDuplicateSlug
	}

	now := s.clock.Now()
	village := &villagedomain.Village{
		ID:                    uuid.New(),
		Name:                  name,
		Slug:                  villageSlug,
		CodePrefix:            prefix,
		DefaultAdminFee:       req.DefaultAdminFee.Round(2),
		DefaultMaintenanceFee: req.DefaultMaintenanceFee.Round(2),
		AutoGenerateBills:     req.AutoGenerateBills,
		OverdueThresholdDays:  req.OverdueThresholdDays,
		IsActive:              true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.repo.Insert(ctx, s.db, village); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, villagedomain.ErrDuplicateSlug
		}
		return nil, err
	}

	s.log.Info("village created", zap.String("village_id", village.ID.String()), zap.String("slug", village.Slug))
	return village, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*villagedomain.Village, error) {
	village, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if village == nil {
		return nil, villagedomain.ErrNotFound
	}
	return village, nil
}

func (s *Service) List(ctx context.Context) ([]*villagedomain.Village, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) ListAutoGenerate(ctx context.Context) ([]*villagedomain.Village, error) {
	return s.repo.ListAutoGenerate(ctx, s.db)
}

func (s *Service) UpdateSettings(ctx context.Context, id uuid.UUID, req villagedomain.UpdateSettingsRequest) (*villagedomain.Village, error) {
	var updated *villagedomain.Village
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		village, err := s.repo.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if village == nil {
			return villagedomain.ErrNotFound
		}

		if req.DefaultAdminFee != nil {
			if req.DefaultAdminFee.IsNegative() {
				return villagedomain.ErrInvalidFee
			}
			village.DefaultAdminFee = req.DefaultAdminFee.Round(2)
		}
		if req.DefaultMaintenanceFee != nil {
			if req.DefaultMaintenanceFee.IsNegative() {
				return villagedomain.ErrInvalidFee
			}
			village.DefaultMaintenanceFee = req.DefaultMaintenanceFee.Round(2)
		}
		if req.AutoGenerateBills != nil {
			village.AutoGenerateBills = *req.AutoGenerateBills
		}
		if req.OverdueThresholdDays != nil {
			if *req.OverdueThresholdDays < 0 {
				return villagedomain.ErrInvalidThreshold
			}
			village.OverdueThresholdDays = *req.OverdueThresholdDays
		}
		village.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, village); err != nil {
			return err
		}
		updated = village
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

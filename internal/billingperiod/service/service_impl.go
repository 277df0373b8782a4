package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	"github.com/smallbiznis/pamdes/internal/clock"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
	"github.com/smallbiznis/pamdes/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	VillageRepo villagedomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	villageRepo villagedomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("billingperiod.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		villageRepo: p.VillageRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.BillingPeriod, error) {
	if req.VillageID == uuid.Nil {
		return nil, domain.ErrInvalidVillage
	}
	if req.Month < 1 || req.Month > 12 || req.Year < 2000 {
		return nil, domain.ErrInvalidMonth
	}
	if req.ReadingStart.IsZero() || req.ReadingEnd.IsZero() || req.ReadingEnd.Before(req.ReadingStart) {
		return nil, domain.ErrInvalidReadingWindow
	}
	if req.DueDate != nil && req.DueDate.Before(req.ReadingEnd) {
		return nil, domain.ErrInvalidDueDate
	}

	village, err := s.villageRepo.FindByID(ctx, s.db, req.VillageID)
	if err != nil {
		return nil, err
	}
	if village == nil {
		return nil, domain.ErrInvalidVillage
	}

	existing, err := s.repo.FindByMonth(ctx, s.db, req.VillageID, req.Year, req.Month)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicatePeriod
	}

	status := domain.StatusInactive
	if req.Activate {
		status = domain.StatusActive
	}

	now := s.clock.Now()
	period := &domain.BillingPeriod{
		ID:           s.genID.Generate(),
		VillageID:    req.VillageID,
		Year:         req.Year,
		Month:        req.Month,
		Status:       status,
		ReadingStart: clock.StartOfDay(req.ReadingStart.UTC()),
		ReadingEnd:   clock.StartOfDay(req.ReadingEnd.UTC()),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.DueDate != nil {
		due := clock.StartOfDay(req.DueDate.UTC())
		period.DueDate = &due
	}

	if err := s.repo.Insert(ctx, s.db, period); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicatePeriod
		}
		return nil, err
	}
	if status == domain.StatusActive {
		s.warnIfMultipleActive(ctx, period.VillageID)
	}
	return period, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.BillingPeriod, error) {
	period, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, domain.ErrNotFound
	}
	return period, nil
}

func (s *Service) List(ctx context.Context, villageID uuid.UUID) ([]*domain.BillingPeriod, error) {
	return s.repo.List(ctx, s.db, villageID)
}

// ActivePeriods returns every active period; more than one is tolerated.
func (s *Service) ActivePeriods(ctx context.Context, villageID uuid.UUID) ([]*domain.BillingPeriod, error) {
	return s.repo.ListByStatus(ctx, s.db, villageID, domain.StatusActive)
}

// Previous returns the calendar month before period, or nil when it was never opened.
func (s *Service) Previous(ctx context.Context, period *domain.BillingPeriod) (*domain.BillingPeriod, error) {
	if period == nil {
		return nil, domain.ErrNotFound
	}
	year, month := period.PreviousMonth()
	return s.repo.FindByMonth(ctx, s.db, period.VillageID, year, month)
}

func (s *Service) Activate(ctx context.Context, id snowflake.ID) (*domain.BillingPeriod, error) {
	period, err := s.transition(ctx, id, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	s.warnIfMultipleActive(ctx, period.VillageID)
	return period, nil
}

func (s *Service) Complete(ctx context.Context, id snowflake.ID) (*domain.BillingPeriod, error) {
	return s.transition(ctx, id, domain.StatusCompleted)
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) (*domain.BillingPeriod, error) {
	return s.transition(ctx, id, domain.StatusInactive)
}

func (s *Service) transition(ctx context.Context, id snowflake.ID, to domain.Status) (*domain.BillingPeriod, error) {
	period, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := period.Transition(to); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, s.db, id, to, now); err != nil {
		return nil, err
	}
	s.log.Info("period status changed",
		zap.String("period_id", id.String()),
		zap.String("from", string(period.Status)),
		zap.String("to", string(to)),
	)
	period.Status = to
	period.UpdatedAt = now
	return period, nil
}

func (s *Service) warnIfMultipleActive(ctx context.Context, villageID uuid.UUID) {
	active, err := s.repo.ListByStatus(ctx, s.db, villageID, domain.StatusActive)
	if err != nil {
		s.log.Warn("failed to count active periods", zap.Error(err))
		return
	}
	if len(active) > 1 {
		s.log.Warn("multiple active billing periods",
			zap.String("village_id", villageID.String()),
			zap.Int("count", len(active)),
		)
	}
}

package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/pamdes/internal/clock"
	"github.com/smallbiznis/pamdes/internal/lock"
	"github.com/smallbiznis/pamdes/internal/observability/metrics"
	"github.com/smallbiznis/pamdes/internal/tariff/domain"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
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
	Locker      lock.Locker
	Repo        domain.Repository
	VillageRepo villagedomain.Repository
	Metrics     *metrics.BillingMetrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	locker      lock.Locker
	repo        domain.Repository
	villageRepo villagedomain.Repository
	metrics     *metrics.BillingMetrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("tariff.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		locker:      p.Locker,
		repo:        p.Repo,
		villageRepo: p.VillageRepo,
		metrics:     p.Metrics,
	}
}

func scopeKey(villageID *uuid.UUID) string {
	if villageID == nil {
		return lock.TariffKey("global")
	}
	return lock.TariffKey(villageID.String())
}

func scopeField(villageID *uuid.UUID) zap.Field {
	if villageID == nil {
		return zap.String("scope", "global")
	}
	return zap.String("village_id", villageID.String())
}

// withScope runs fn with the schedule of one scope locked for writing.
func (s *Service) withScope(ctx context.Context, villageID *uuid.UUID, fn func(tx *gorm.DB, brackets []domain.WaterTariff) error) error {
	release, err := s.locker.Lock(ctx, scopeKey(villageID), lock.DefaultTTL)
	if err != nil {
		return err
	}
	defer release()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if villageID != nil {
			village, err := s.villageRepo.LockByID(ctx, tx, *villageID)
			if err != nil {
				return err
			}
			if village == nil {
				return domain.ErrInvalidVillage
			}
		}
		brackets, err := s.repo.ListActive(ctx, tx, villageID)
		if err != nil {
			return err
		}
		return fn(tx, brackets)
	})
}

func (s *Service) apply(ctx context.Context, tx *gorm.DB, villageID *uuid.UUID, plan domain.Plan) error {
	now := s.clock.Now()
	if err := s.repo.Deactivate(ctx, tx, plan.Removes, now); err != nil {
		return err
	}
	for i := range plan.Updates {
		plan.Updates[i].UpdatedAt = now
		if err := s.repo.UpdateBounds(ctx, tx, &plan.Updates[i]); err != nil {
			return err
		}
	}
	if plan.Insert != nil {
		plan.Insert.ID = s.genID.Generate()
		plan.Insert.VillageID = villageID
		plan.Insert.IsActive = true
		plan.Insert.CreatedAt = now
		plan.Insert.UpdatedAt = now
		if err := s.repo.Insert(ctx, tx, plan.Insert); err != nil {
			return err
		}
	}
	return nil
}

// CreateRange inserts a bracket starting at req.UsageMin, splitting whichever bracket held it.
func (s *Service) CreateRange(ctx context.Context, req domain.CreateRangeRequest) (*domain.WaterTariff, error) {
	var created *domain.WaterTariff
	err := s.withScope(ctx, req.VillageID, func(tx *gorm.DB, brackets []domain.WaterTariff) error {
		plan, err := domain.PlanInsert(brackets, req.UsageMin, req.PricePerUnit)
		if err != nil {
			return err
		}
		if err := s.apply(ctx, tx, req.VillageID, plan); err != nil {
			return err
		}
		created = plan.Insert
		for _, u := range plan.Updates {
			s.log.Info("tariff bracket resized",
				scopeField(req.VillageID),
				zap.String("tariff_id", u.ID.String()),
				zap.String("range", u.RangeLabel()),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTariffChange("create")
	s.log.Info("tariff bracket created",
		scopeField(req.VillageID),
		zap.String("tariff_id", created.ID.String()),
		zap.String("range", created.RangeLabel()),
		zap.String("price_per_unit", created.PricePerUnit.String()),
	)
	return created, nil
}

func (s *Service) UpdateRange(ctx context.Context, id snowflake.ID, req domain.EditRequest) (*domain.WaterTariff, error) {
	current, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if current == nil || !current.IsActive {
		return nil, domain.ErrNotFound
	}

	var updated *domain.WaterTariff
	err = s.withScope(ctx, current.VillageID, func(tx *gorm.DB, brackets []domain.WaterTariff) error {
		plan, err := domain.PlanEdit(brackets, id, req)
		if err != nil {
			return err
		}
		if err := s.apply(ctx, tx, current.VillageID, plan); err != nil {
			return err
		}
		for i := range plan.Updates {
			if plan.Updates[i].ID == id {
				updated = &plan.Updates[i]
			}
		}
		if len(plan.Removes) > 0 {
			s.log.Info("tariff bracket absorbed",
				scopeField(current.VillageID),
				zap.Int("removed", len(plan.Removes)),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTariffChange("update")
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.WaterTariff, error) {
	tariff, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if tariff == nil {
		return nil, domain.ErrNotFound
	}
	return tariff, nil
}

func (s *Service) EditableFields(ctx context.Context, id snowflake.ID) (domain.EditableFields, error) {
	tariff, err := s.Get(ctx, id)
	if err != nil {
		return domain.EditableFields{}, err
	}
	return domain.EditableFieldsFor(*tariff), nil
}

// ListBrackets resolves the brackets in force for a village, inheriting the global schedule
// when the village has none of its own.
func (s *Service) ListBrackets(ctx context.Context, villageID *uuid.UUID) (*domain.Schedule, error) {
	brackets, err := s.repo.ListActive(ctx, s.db, villageID)
	if err != nil {
		return nil, err
	}
	if len(brackets) > 0 || villageID == nil {
		return &domain.Schedule{VillageID: villageID, Brackets: brackets}, nil
	}

	global, err := s.repo.ListActive(ctx, s.db, nil)
	if err != nil {
		return nil, err
	}
	return &domain.Schedule{VillageID: villageID, Inherited: true, Brackets: global}, nil
}

func (s *Service) Validate(ctx context.Context, villageID *uuid.UUID) error {
	schedule, err := s.ListBrackets(ctx, villageID)
	if err != nil {
		return err
	}
	return domain.ValidatePartition(schedule.Brackets)
}

func (s *Service) Calculate(ctx context.Context, villageID *uuid.UUID, usage int64) (*domain.Calculation, error) {
	schedule, err := s.ListBrackets(ctx, villageID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidatePartition(schedule.Brackets); err != nil {
		s.log.Error("tariff schedule is not a partition", scopeField(villageID), zap.Error(err))
		return nil, err
	}
	calc, err := domain.Calculate(schedule.Brackets, usage)
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

func (s *Service) DeactivateSchedule(ctx context.Context, villageID uuid.UUID) error {
	err := s.withScope(ctx, &villageID, func(tx *gorm.DB, brackets []domain.WaterTariff) error {
		ids := make([]snowflake.ID, 0, len(brackets))
		for _, b := range brackets {
			ids = append(ids, b.ID)
		}
		return s.repo.Deactivate(ctx, tx, ids, s.clock.Now())
	})
	if err != nil {
		return err
	}
	s.metrics.IncTariffChange("reset")
	s.log.Info("tariff schedule reset to global", zap.String("village_id", villageID.String()))
	return nil
}

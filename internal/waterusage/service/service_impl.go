package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	"github.com/smallbiznis/pamdes/internal/clock"
	customerdomain "github.com/smallbiznis/pamdes/internal/customer/domain"
	"github.com/smallbiznis/pamdes/internal/lock"
	"github.com/smallbiznis/pamdes/internal/waterusage/domain"
	"github.com/smallbiznis/pamdes/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Locker       lock.Locker
	Repo         domain.Repository
	CustomerRepo customerdomain.Repository
	PeriodRepo   perioddomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	locker       lock.Locker
	repo         domain.Repository
	customerRepo customerdomain.Repository
	periodRepo   perioddomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("waterusage.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		locker:       p.Locker,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		periodRepo:   p.PeriodRepo,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.WaterUsage, error) {
	if req.FinalMeter < 0 || (req.InitialMeter != nil && *req.InitialMeter < 0) {
		return nil, domain.ErrInvalidMeter
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrInvalidCustomer
	}
	period, err := s.periodRepo.FindByID(ctx, s.db, req.PeriodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, domain.ErrInvalidPeriod
	}
	if period.VillageID != customer.VillageID {
		return nil, domain.ErrVillageMismatch
	}
	if period.Status == perioddomain.StatusCompleted {
		return nil, domain.ErrPeriodClosed
	}

	var initial int64
	if req.InitialMeter != nil {
		initial = *req.InitialMeter
	} else {
		previous, err := s.repo.FindLatestForCustomer(ctx, s.db, customer.ID)
		if err != nil {
			return nil, err
		}
		if previous != nil {
			initial = previous.FinalMeter
		}
	}

	now := s.clock.Now()
	usageDate := req.UsageDate
	if usageDate.IsZero() {
		usageDate = now
	}

	usage := &domain.WaterUsage{
		ID:           s.genID.Generate(),
		VillageID:    customer.VillageID,
		CustomerID:   customer.ID,
		PeriodID:     period.ID,
		InitialMeter: initial,
		FinalMeter:   req.FinalMeter,
		TotalUsage:   domain.ComputeUsage(initial, req.FinalMeter),
		UsageDate:    usageDate.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if usage.FinalMeter < usage.InitialMeter {
		s.log.Warn("final meter below initial meter, usage floored to zero",
			zap.String("customer_id", customer.ID.String()),
			zap.Int64("initial_meter", initial),
			zap.Int64("final_meter", req.FinalMeter),
		)
	}

	if err := s.repo.Insert(ctx, s.db, usage); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateReading
		}
		return nil, err
	}
	return usage, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.WaterUsage, error) {
	usage, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if usage == nil {
		return nil, domain.ErrNotFound
	}
	return usage, nil
}

func (s *Service) ListByPeriod(ctx context.Context, periodID snowflake.ID) ([]*domain.WaterUsage, error) {
	return s.repo.ListByPeriod(ctx, s.db, periodID)
}

// UpdateFinalMeter recomputes total usage; a billed reading is immutable.
// It holds the same per-reading lock as bill generation, so an edit lands
// either before the bill is priced or after it exists.
func (s *Service) UpdateFinalMeter(ctx context.Context, id snowflake.ID, finalMeter int64) (*domain.WaterUsage, error) {
	if finalMeter < 0 {
		return nil, domain.ErrInvalidMeter
	}

	release, err := s.locker.Lock(ctx, lock.UsageKey(id.String()), lock.DefaultTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	var updated *domain.WaterUsage
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		usage, err := s.repo.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if usage == nil {
			return domain.ErrNotFound
		}
		billed, err := s.repo.HasBill(ctx, tx, id)
		if err != nil {
			return err
		}
		if billed {
			return domain.ErrReadingBilled
		}

		usage.FinalMeter = finalMeter
		usage.TotalUsage = domain.ComputeUsage(usage.InitialMeter, finalMeter)
		usage.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateMeter(ctx, tx, id, usage.FinalMeter, usage.TotalUsage, usage.UpdatedAt); err != nil {
			return err
		}
		updated = usage
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

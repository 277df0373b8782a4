package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pamdes/internal/bill/domain"
	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	"github.com/smallbiznis/pamdes/internal/clock"
	"github.com/smallbiznis/pamdes/internal/config"
	customerdomain "github.com/smallbiznis/pamdes/internal/customer/domain"
	ledgerdomain "github.com/smallbiznis/pamdes/internal/ledger/domain"
	"github.com/smallbiznis/pamdes/internal/lock"
	"github.com/smallbiznis/pamdes/internal/observability/metrics"
	tariffdomain "github.com/smallbiznis/pamdes/internal/tariff/domain"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
	usagedomain "github.com/smallbiznis/pamdes/internal/waterusage/domain"
	"github.com/smallbiznis/pamdes/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Locker       lock.Locker
	Config       *config.BillingConfigHolder
	Repo         domain.Repository
	UsageRepo    usagedomain.Repository
	CustomerRepo customerdomain.Repository
	PeriodRepo   perioddomain.Repository
	VillageRepo  villagedomain.Repository
	TariffSvc    tariffdomain.Service
	LedgerSvc    ledgerdomain.Service
	Metrics      *metrics.BillingMetrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	locker       lock.Locker
	config       *config.BillingConfigHolder
	repo         domain.Repository
	usageRepo    usagedomain.Repository
	customerRepo customerdomain.Repository
	periodRepo   perioddomain.Repository
	villageRepo  villagedomain.Repository
	tariffSvc    tariffdomain.Service
	ledgerSvc    ledgerdomain.Service
	metrics      *metrics.BillingMetrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("bill.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		locker:       p.Locker,
		config:       p.Config,
		repo:         p.Repo,
		usageRepo:    p.UsageRepo,
		customerRepo: p.CustomerRepo,
		periodRepo:   p.PeriodRepo,
		villageRepo:  p.VillageRepo,
		tariffSvc:    p.TariffSvc,
		ledgerSvc:    p.LedgerSvc,
		metrics:      p.Metrics,
	}
}

func (s *Service) GenerateBill(ctx context.Context, req domain.GenerateRequest) (*domain.Bill, error) {
	bill, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}
	s.metrics.IncBillGenerated("single")
	return bill, nil
}

// draft prices a reading. Callers hold the reading's lock, which keeps
// UpdateFinalMeter out until the bill is written.
func (s *Service) draft(ctx context.Context, req domain.GenerateRequest) (*domain.Bill, int64, error) {
	usage, err := s.usageRepo.FindByID(ctx, s.db, req.UsageID)
	if err != nil {
		return nil, 0, err
	}
	if usage == nil {
		return nil, 0, domain.ErrUsageNotFound
	}
	customer, err := s.customerRepo.FindByID(ctx, s.db, usage.CustomerID)
	if err != nil {
		return nil, 0, err
	}
	if customer == nil || !customer.IsActive() {
		return nil, 0, domain.ErrCustomerInactive
	}
	period, err := s.periodRepo.FindByID(ctx, s.db, usage.PeriodID)
	if err != nil {
		return nil, 0, err
	}
	if period == nil {
		return nil, 0, domain.ErrPeriodNotFound
	}
	village, err := s.villageRepo.FindByID(ctx, s.db, customer.VillageID)
	if err != nil {
		return nil, 0, err
	}
	if village == nil {
		return nil, 0, domain.ErrVillageNotFound
	}

	calc, err := s.tariffSvc.Calculate(ctx, &village.ID, usage.TotalUsage)
	if err != nil {
		return nil, 0, err
	}
	breakdown, err := json.Marshal(calc.Breakdown)
	if err != nil {
		return nil, 0, err
	}

	adminFee, maintenanceFee := village.Fees(req.AdminFee, req.MaintenanceFee)
	water := calc.TotalCharge.Round(2)
	adminFee = adminFee.Round(2)
	maintenanceFee = maintenanceFee.Round(2)

	dueDate := village.DueDate(period.ReadingEnd)
	if period.DueDate != nil {
		dueDate = clock.StartOfDay(*period.DueDate)
	}

	now := s.clock.Now()
	return &domain.Bill{
		ID:             s.genID.Generate(),
		VillageID:      village.ID,
		CustomerID:     customer.ID,
		UsageID:        usage.ID,
		PeriodID:       period.ID,
		TariffID:       calc.TopTariffID(),
		WaterCharge:    water,
		AdminFee:       adminFee,
		MaintenanceFee: maintenanceFee,
		TotalAmount:    water.Add(adminFee).Add(maintenanceFee),
		BillCount:      1,
		Status:         domain.StatusUnpaid,
		DueDate:        dueDate,
		Notes:          req.Notes,
		Breakdown:      breakdown,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, usage.TotalUsage, nil
}

func (s *Service) generate(ctx context.Context, req domain.GenerateRequest) (*domain.Bill, error) {
	if (req.AdminFee != nil && req.AdminFee.IsNegative()) || (req.MaintenanceFee != nil && req.MaintenanceFee.IsNegative()) {
		return nil, domain.ErrInvalidFee
	}

	release, err := s.locker.Lock(ctx, lock.UsageKey(req.UsageID.String()), lock.DefaultTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	bill, pricedUsage, err := s.draft(ctx, req)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The row lock covers writers that bypass the locker.
		current, err := s.usageRepo.LockByID(ctx, tx, bill.UsageID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrUsageNotFound
		}
		if current.TotalUsage != pricedUsage {
			return domain.ErrUsageChanged
		}
		existing, err := s.repo.FindSingleByUsage(ctx, tx, bill.UsageID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateBill
		}
		if err := s.repo.Insert(ctx, tx, bill); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateBill
			}
			return err
		}
		return s.ledgerSvc.Post(ctx, tx, ledgerdomain.PostRequest{
			VillageID:  bill.VillageID,
			SourceType: ledgerdomain.SourceTypeBill,
			SourceID:   bill.ID,
			OccurredAt: bill.CreatedAt,
			Lines:      ledgerdomain.BillLines(bill.WaterCharge, bill.AdminFee.Add(bill.MaintenanceFee)),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("bill generated",
		zap.String("bill_id", bill.ID.String()),
		zap.String("usage_id", bill.UsageID.String()),
		zap.String("village_id", bill.VillageID.String()),
		zap.String("total_amount", bill.TotalAmount.String()),
	)
	return bill, nil
}

func (s *Service) GenerateBillsForPeriod(ctx context.Context, periodID snowflake.ID, adminFee, maintenanceFee *decimal.Decimal) (*domain.BatchResult, error) {
	period, err := s.periodRepo.FindByID(ctx, s.db, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, domain.ErrPeriodNotFound
	}
	usageIDs, err := s.repo.ListUnbilledUsageIDs(ctx, s.db, periodID)
	if err != nil {
		return nil, err
	}

	result := &domain.BatchResult{Created: []*domain.Bill{}, Failed: []domain.BatchFailure{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Get().GenerateWorkers)
	for _, usageID := range usageIDs {
		usageID := usageID
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			bill, err := s.generate(gctx, domain.GenerateRequest{
				UsageID:        usageID,
				AdminFee:       adminFee,
				MaintenanceFee: maintenanceFee,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Created = append(result.Created, bill)
			case errors.Is(err, domain.ErrDuplicateBill), errors.Is(err, domain.ErrCustomerInactive):
				result.Skipped++
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				result.Failed = append(result.Failed, domain.BatchFailure{UsageID: usageID, Reason: err.Error()})
				s.metrics.IncBillFailure(failureReason(err))
				s.log.Warn("bill generation failed",
					zap.String("period_id", periodID.String()),
					zap.String("usage_id", usageID.String()),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	for range result.Created {
		s.metrics.IncBillGenerated("batch")
	}
	s.log.Info("period bills generated",
		zap.String("period_id", periodID.String()),
		zap.String("village_id", period.VillageID.String()),
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// UpdateOverdueBills flips unpaid bills whose due date is before today to overdue.
func (s *Service) UpdateOverdueBills(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	today := clock.StartOfDay(now)
	batchSize := s.config.Get().OverdueBatchSize

	var total int64
	for {
		ids, err := s.repo.ListOverdueCandidates(ctx, s.db, today, batchSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			break
		}
		n, err := s.repo.MarkOverdue(ctx, s.db, ids, today, now)
		if err != nil {
			return total, err
		}
		total += n
		if len(ids) < batchSize {
			break
		}
	}

	if total > 0 {
		s.metrics.AddOverdueMarked(total)
		s.log.Info("bills marked overdue", zap.Int64("count", total))
	}
	return total, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Bill, error) {
	bill, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, domain.ErrNotFound
	}
	return bill, nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Bill, error) {
	return s.repo.List(ctx, s.db, filter)
}

func failureReason(err error) string {
	for _, known := range []error{
		tariffdomain.ErrEmptySchedule,
		tariffdomain.ErrGap,
		tariffdomain.ErrOverlap,
		tariffdomain.ErrMissingUnbounded,
		tariffdomain.ErrMultipleUnbounded,
		tariffdomain.ErrInvalidRange,
		domain.ErrUsageNotFound,
		domain.ErrPeriodNotFound,
		domain.ErrVillageNotFound,
		domain.ErrInvalidFee,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal"
}

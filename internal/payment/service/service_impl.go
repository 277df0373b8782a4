package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pamdes/internal/actorcontext"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	"github.com/smallbiznis/pamdes/internal/clock"
	"github.com/smallbiznis/pamdes/internal/config"
	ledgerdomain "github.com/smallbiznis/pamdes/internal/ledger/domain"
	"github.com/smallbiznis/pamdes/internal/lock"
	"github.com/smallbiznis/pamdes/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/pamdes/internal/payment/domain"
	"github.com/smallbiznis/pamdes/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Locker    lock.Locker
	Config    *config.BillingConfigHolder
	Repo      paymentdomain.Repository
	BillRepo  billdomain.Repository
	LedgerSvc ledgerdomain.Service
	Metrics   *metrics.BillingMetrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	locker    lock.Locker
	config    *config.BillingConfigHolder
	repo      paymentdomain.Repository
	billRepo  billdomain.Repository
	ledgerSvc ledgerdomain.Service
	metrics   *metrics.BillingMetrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("payment.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		locker:    p.Locker,
		config:    p.Config,
		repo:      p.Repo,
		billRepo:  p.BillRepo,
		ledgerSvc: p.LedgerSvc,
		metrics:   p.Metrics,
	}
}

// PayBill settles one single bill with exactly one payment row.
// Bundle containers and bills held by a pending bundle are settled through the bundle.
func (s *Service) PayBill(ctx context.Context, billID snowflake.ID, req paymentdomain.PayRequest) (*paymentdomain.Payment, error) {
	method := req.PaymentMethod
	if method == "" {
		method = paymentdomain.MethodCash
	}
	if err := method.Validate(); err != nil {
		return nil, err
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		return nil, paymentdomain.ErrInvalidAmount
	}

	collectorID := req.CollectorID
	if collectorID == nil {
		if actorID, ok := actorcontext.ActorIDFromContext(ctx); ok {
			collectorID = &actorID
		}
	}
	reference := strings.TrimSpace(req.PaymentReference)
	if reference == "" {
		reference = paymentdomain.NewReference(s.config.Get().PaymentReferencePrefix)
	}

	release, err := s.locker.Lock(ctx, lock.BillKey(billID.String()), lock.DefaultTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	var payment *paymentdomain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bills, err := s.billRepo.LockByIDs(ctx, tx, []snowflake.ID{billID})
		if err != nil {
			return err
		}
		if len(bills) == 0 {
			return billdomain.ErrNotFound
		}
		bill := bills[0]
		if bill.IsBundle() {
			return paymentdomain.ErrBundleContainer
		}
		inBundle, err := s.repo.InActiveBundle(ctx, tx, bill.ID, s.clock.Now())
		if err != nil {
			return err
		}
		if inBundle {
			return paymentdomain.ErrBillInActiveBundle
		}

		now := s.clock.Now()
		if !bill.CanBePaid(now) {
			return paymentdomain.ErrNotPayable
		}

		amount := bill.TotalAmount
		if req.Amount != nil {
			amount = req.Amount.Round(2)
		}
		change := decimal.Zero
		if req.Tendered != nil {
			if req.Tendered.LessThan(amount) {
				return paymentdomain.ErrInsufficientTender
			}
			change = req.Tendered.Sub(amount)
		}
		paidAt := now
		if req.PaymentDate != nil {
			paidAt = req.PaymentDate.UTC()
		}

		if err := bill.MarkAsPaid(now, billdomain.Settlement{
			PaidAt:        paidAt,
			PaymentMethod: string(method),
			CollectorID:   collectorID,
		}); err != nil {
			return paymentdomain.ErrNotPayable
		}
		if err := s.billRepo.UpdateSettlement(ctx, tx, bill); err != nil {
			return err
		}

		payment = &paymentdomain.Payment{
			ID:               s.genID.Generate(),
			VillageID:        bill.VillageID,
			BillID:           bill.ID,
			PaymentDate:      paidAt,
			AmountPaid:       amount,
			ChangeGiven:      change.Round(2),
			PaymentMethod:    method,
			PaymentReference: reference,
			CollectorID:      collectorID,
			Notes:            req.Notes,
			CreatedAt:        now,
		}
		if err := s.repo.Insert(ctx, tx, payment); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return paymentdomain.ErrDuplicateReference
			}
			return err
		}

		return s.ledgerSvc.Post(ctx, tx, ledgerdomain.PostRequest{
			VillageID:  payment.VillageID,
			SourceType: ledgerdomain.SourceTypePayment,
			SourceID:   payment.ID,
			OccurredAt: payment.PaymentDate,
			Lines:      ledgerdomain.PaymentLines(payment.AmountPaid),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPayment(string(payment.PaymentMethod), payment.AmountPaid.InexactFloat64())
	s.log.Info("bill paid",
		zap.String("bill_id", billID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount_paid", payment.AmountPaid.String()),
		zap.String("payment_method", string(payment.PaymentMethod)),
	)
	return payment, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*paymentdomain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, paymentdomain.ErrNotFound
	}
	return payment, nil
}

func (s *Service) ListByBill(ctx context.Context, billID snowflake.ID) ([]*paymentdomain.Payment, error) {
	return s.repo.ListByBill(ctx, s.db, billID)
}

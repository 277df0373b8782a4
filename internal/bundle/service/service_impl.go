package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pamdes/internal/actorcontext"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	"github.com/smallbiznis/pamdes/internal/bundle/domain"
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

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Locker      lock.Locker
	Config      *config.BillingConfigHolder
	Repo        domain.Repository
	BillRepo    billdomain.Repository
	PaymentRepo paymentdomain.Repository
	LedgerSvc   ledgerdomain.Service
	Metrics     *metrics.BillingMetrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	locker      lock.Locker
	config      *config.BillingConfigHolder
	repo        domain.Repository
	billRepo    billdomain.Repository
	paymentRepo paymentdomain.Repository
	ledgerSvc   ledgerdomain.Service
	metrics     *metrics.BillingMetrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("bundle.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		locker:      p.Locker,
		config:      p.Config,
		repo:        p.Repo,
		billRepo:    p.BillRepo,
		paymentRepo: p.PaymentRepo,
		ledgerSvc:   p.LedgerSvc,
		metrics:     p.Metrics,
	}
}

func dedupe(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// checkMembers validates that bills can be bundled together. Customer homogeneity
// is checked first so a mixed request never reports a status problem instead.
func checkMembers(bills []*billdomain.Bill) error {
	for _, b := range bills[1:] {
		if b.CustomerID != bills[0].CustomerID {
			return domain.ErrMixedCustomer
		}
	}
	unpaid := 0
	for _, b := range bills {
		if b.IsBundle() {
			return domain.ErrBundleContainer
		}
		if b.Status == billdomain.StatusUnpaid {
			unpaid++
		}
	}
	switch {
	case unpaid == 0:
		return domain.ErrNoUnpaidBills
	case unpaid != len(bills):
		return domain.ErrBillNotUnpaid
	}
	return nil
}

func (s *Service) CreateBundle(ctx context.Context, req domain.CreateRequest) (*billdomain.Bill, error) {
	ids := dedupe(req.BillIDs)
	if len(ids) == 0 {
		return nil, domain.ErrNoUnpaidBills
	}

	// Resolve the customer first so creation can be serialized per customer.
	preview, err := s.billRepo.FindByID(ctx, s.db, ids[0])
	if err != nil {
		return nil, err
	}
	if preview == nil {
		return nil, billdomain.ErrNotFound
	}
	release, err := s.locker.Lock(ctx, lock.CustomerKey(preview.CustomerID.String()), lock.DefaultTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	cfg := s.config.Get()
	var container *billdomain.Bill
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bills, err := s.billRepo.LockByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(bills) != len(ids) {
			return billdomain.ErrNotFound
		}
		if err := checkMembers(bills); err != nil {
			return err
		}
		if len(bills) < 2 {
			return domain.ErrNotEnoughBills
		}
		held, err := s.repo.ActiveMembers(ctx, tx, ids, s.clock.Now())
		if err != nil {
			return err
		}
		if len(held) > 0 {
			return domain.ErrBillInActiveBundle
		}

		now := s.clock.Now()
		reference, err := domain.NewReference(cfg.BundleReferencePrefix, now)
		if err != nil {
			return err
		}
		expiresAt := now.Add(cfg.BundleExpiry)

		first := bills[0]
		container = &billdomain.Bill{
			ID:              s.genID.Generate(),
			VillageID:       first.VillageID,
			CustomerID:      first.CustomerID,
			UsageID:         first.UsageID,
			PeriodID:        first.PeriodID,
			WaterCharge:     decimal.Zero,
			AdminFee:        decimal.Zero,
			MaintenanceFee:  decimal.Zero,
			TotalAmount:     decimal.Zero,
			BillCount:       len(bills),
			Status:          billdomain.StatusPending,
			BundleReference: &reference,
			DueDate:         first.DueDate,
			ExpiresAt:       &expiresAt,
			Notes:           req.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		items := make([]domain.Item, 0, len(bills))
		for _, b := range bills {
			container.WaterCharge = container.WaterCharge.Add(b.WaterCharge)
			container.AdminFee = container.AdminFee.Add(b.AdminFee)
			container.MaintenanceFee = container.MaintenanceFee.Add(b.MaintenanceFee)
			container.TotalAmount = container.TotalAmount.Add(b.TotalAmount)
			if b.DueDate.Before(container.DueDate) {
				container.DueDate = b.DueDate
			}
			items = append(items, domain.Item{
				BundleID:       container.ID,
				BillID:         b.ID,
				OriginalAmount: b.TotalAmount,
				CreatedAt:      now,
			})
		}

		if err := s.billRepo.Insert(ctx, tx, container); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateReference
			}
			return err
		}
		return s.repo.InsertItems(ctx, tx, items)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncBundleCreated()
	s.log.Info("bundle created",
		zap.String("bundle_id", container.ID.String()),
		zap.String("bundle_reference", *container.BundleReference),
		zap.String("customer_id", container.CustomerID.String()),
		zap.Int("bill_count", container.BillCount),
		zap.String("total_amount", container.TotalAmount.String()),
	)
	return container, nil
}

// lockBundle locks the container row and returns it with its items.
func (s *Service) lockBundle(ctx context.Context, tx *gorm.DB, bundleID snowflake.ID) (*billdomain.Bill, []domain.Item, error) {
	rows, err := s.billRepo.LockByIDs(ctx, tx, []snowflake.ID{bundleID})
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 || !rows[0].IsBundle() {
		return nil, nil, domain.ErrNotFound
	}
	items, err := s.repo.ListItems(ctx, tx, bundleID)
	if err != nil {
		return nil, nil, err
	}
	return rows[0], items, nil
}

func itemIDs(items []domain.Item) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.BillID)
	}
	return ids
}

func (s *Service) Settle(ctx context.Context, bundleID snowflake.ID, req domain.SettleRequest) (*domain.SettleResult, error) {
	if req.PaymentMethod != "" {
		if err := req.PaymentMethod.Validate(); err != nil {
			return nil, err
		}
	}
	collectorID := req.CollectorID
	if collectorID == nil {
		if actorID, ok := actorcontext.ActorIDFromContext(ctx); ok {
			collectorID = &actorID
		}
	}

	release, err := s.locker.Lock(ctx, lock.BundleKey(bundleID.String()), lock.DefaultTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	result := &domain.SettleResult{Payments: []*paymentdomain.Payment{}}
	settledNow := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		container, items, err := s.lockBundle(ctx, tx, bundleID)
		if err != nil {
			return err
		}
		result.Bundle = container

		now := s.clock.Now()
		switch container.Status {
		case billdomain.StatusPaid:
		case billdomain.StatusPending:
			if container.IsExpired(now) {
				return domain.ErrAlreadyExpired
			}
		case billdomain.StatusExpired:
			return domain.ErrAlreadyExpired
		default:
			return domain.ErrBundleNotPending
		}

		children, err := s.billRepo.LockByIDs(ctx, tx, itemIDs(items))
		if err != nil {
			return err
		}

		if container.Status == billdomain.StatusPending {
			method := req.PaymentMethod
			if method == "" {
				method = paymentdomain.MethodCash
			}
			paidAt := now
			if req.PaymentDate != nil {
				paidAt = req.PaymentDate.UTC()
			}
			if err := container.MarkAsPaid(now, billdomain.Settlement{
				PaidAt:        paidAt,
				PaymentMethod: string(method),
				CollectorID:   collectorID,
			}); err != nil {
				return err
			}
			if err := s.billRepo.UpdateSettlement(ctx, tx, container); err != nil {
				return err
			}
			settledNow = true
		}

		outstanding := make([]*billdomain.Bill, 0, len(children))
		due := decimal.Zero
		for _, child := range children {
			if child.Status == billdomain.StatusPaid {
				continue
			}
			outstanding = append(outstanding, child)
			due = due.Add(child.TotalAmount)
		}
		if len(outstanding) == 0 {
			return nil
		}

		change := decimal.Zero
		if req.Tendered != nil {
			if req.Tendered.LessThan(due) {
				return paymentdomain.ErrInsufficientTender
			}
			change = req.Tendered.Sub(due)
		}

		method := paymentdomain.MethodCash
		if container.PaymentMethod != nil {
			method = paymentdomain.Method(*container.PaymentMethod)
		}
		settlement := billdomain.Settlement{
			PaidAt:        *container.PaidAt,
			PaymentMethod: string(method),
			CollectorID:   container.CollectorID,
		}
		reference := *container.BundleReference

		for i, child := range outstanding {
			if err := child.MarkAsPaid(now, settlement); err != nil {
				return err
			}
			if err := s.billRepo.UpdateSettlement(ctx, tx, child); err != nil {
				return err
			}

			payment := &paymentdomain.Payment{
				ID:               s.genID.Generate(),
				VillageID:        child.VillageID,
				BillID:           child.ID,
				PaymentDate:      settlement.PaidAt,
				AmountPaid:       child.TotalAmount,
				ChangeGiven:      decimal.Zero,
				PaymentMethod:    method,
				PaymentReference: reference,
				CollectorID:      settlement.CollectorID,
				Notes:            "Bundle payment: " + reference,
				CreatedAt:        now,
			}
			if i == 0 {
				payment.ChangeGiven = change.Round(2)
			}
			if err := s.paymentRepo.Insert(ctx, tx, payment); err != nil {
				return err
			}
			if err := s.ledgerSvc.Post(ctx, tx, ledgerdomain.PostRequest{
				VillageID:  payment.VillageID,
				SourceType: ledgerdomain.SourceTypePayment,
				SourceID:   payment.ID,
				OccurredAt: payment.PaymentDate,
				Lines:      ledgerdomain.PaymentLines(payment.AmountPaid),
			}); err != nil {
				return err
			}
			result.Payments = append(result.Payments, payment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settledNow {
		s.metrics.IncBundleOutcome(string(billdomain.StatusPaid))
	}
	for _, p := range result.Payments {
		s.metrics.RecordPayment(string(p.PaymentMethod), p.AmountPaid.InexactFloat64())
	}
	s.log.Info("bundle settled",
		zap.String("bundle_id", bundleID.String()),
		zap.Int("payments", len(result.Payments)),
		zap.Bool("first_settlement", settledNow),
	)
	return result, nil
}

// Fail records a gateway failure. Failing an already failed bundle is a no-op.
func (s *Service) Fail(ctx context.Context, bundleID snowflake.ID, reason string) (*billdomain.Bill, error) {
	release, err := s.locker.Lock(ctx, lock.BundleKey(bundleID.String()), lock.DefaultTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	changed := false
	var container *billdomain.Bill
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		container, _, err = s.lockBundle(ctx, tx, bundleID)
		if err != nil {
			return err
		}
		if container.Status == billdomain.StatusFailed {
			return nil
		}
		if err := container.MarkAsFailed(s.clock.Now()); err != nil {
			return domain.ErrBundleNotPending
		}
		if reason = strings.TrimSpace(reason); reason != "" {
			container.Notes = strings.TrimSpace(container.Notes + "\n" + reason)
		}
		changed = true
		return s.billRepo.UpdateSettlement(ctx, tx, container)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.IncBundleOutcome(string(billdomain.StatusFailed))
		s.log.Warn("bundle failed",
			zap.String("bundle_id", bundleID.String()),
			zap.String("reason", reason),
		)
	}
	return container, nil
}

// ExpireStale moves pending bundles past their deadline to expired, releasing their children.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireStale(ctx, s.db, s.clock.Now())
	if err != nil {
		return 0, err
	}
	for i := int64(0); i < n; i++ {
		s.metrics.IncBundleOutcome(string(billdomain.StatusExpired))
	}
	if n > 0 {
		s.log.Info("bundles expired", zap.Int64("count", n))
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, bundleID snowflake.ID) (*domain.Detail, error) {
	container, err := s.billRepo.FindByID(ctx, s.db, bundleID)
	if err != nil {
		return nil, err
	}
	if container == nil || !container.IsBundle() {
		return nil, domain.ErrNotFound
	}
	items, err := s.repo.ListItems(ctx, s.db, bundleID)
	if err != nil {
		return nil, err
	}
	var children []*billdomain.Bill
	if len(items) > 0 {
		children, err = s.billRepo.List(ctx, s.db, billdomain.ListFilter{IDs: itemIDs(items)})
		if err != nil {
			return nil, err
		}
	}
	return &domain.Detail{Bundle: container, Items: items, Children: children}, nil
}

func (s *Service) Presentation(ctx context.Context, bundleID snowflake.ID) (*domain.Presentation, error) {
	detail, err := s.Get(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	p := domain.Present(detail.Bundle, detail.Children)
	return &p, nil
}

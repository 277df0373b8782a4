package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	reportdomain "github.com/smallbiznis/pamdes/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	PeriodRepo perioddomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	periodRepo perioddomain.Repository
}

func NewService(p Params) reportdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("report.service"),
		periodRepo: p.PeriodRepo,
	}
}

// singleBills restricts a bills alias to single bills.
const singleBills = `b.bill_count = 1 AND b.bundle_reference IS NULL`

func (s *Service) loadPeriod(ctx context.Context, villageID uuid.UUID, periodID snowflake.ID) (*perioddomain.BillingPeriod, error) {
	if villageID == uuid.Nil {
		return nil, reportdomain.ErrInvalidVillage
	}
	period, err := s.periodRepo.FindByID(ctx, s.db, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil || period.VillageID != villageID {
		return nil, reportdomain.ErrPeriodNotFound
	}
	return period, nil
}

func (s *Service) CollectionSummary(ctx context.Context, villageID uuid.UUID, periodID snowflake.ID) (*reportdomain.CollectionSummary, error) {
	period, err := s.loadPeriod(ctx, villageID, periodID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, period)
}

func (s *Service) summarize(ctx context.Context, period *perioddomain.BillingPeriod) (*reportdomain.CollectionSummary, error) {
	summary := &reportdomain.CollectionSummary{
		VillageID:    period.VillageID,
		PeriodID:     period.ID,
		PeriodLabel:  period.Label(),
		StatusCounts: map[string]int64{},
	}

	var totals struct {
		Billed      decimal.Decimal
		Outstanding decimal.Decimal
		BillCount   int64
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT
			COALESCE(SUM(b.total_amount), 0) AS billed,
			COALESCE(SUM(CASE WHEN b.status IN ? THEN b.total_amount ELSE 0 END), 0) AS outstanding,
			COUNT(1) AS bill_count
		 FROM bills b
		 WHERE b.village_id = ? AND b.period_id = ? AND `+singleBills,
		[]billdomain.BillStatus{billdomain.StatusUnpaid, billdomain.StatusOverdue},
		period.VillageID, period.ID,
	).Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	var collected struct {
		Collected decimal.Decimal
	}
	err = s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(p.amount_paid), 0) AS collected
		 FROM payments p
		 JOIN bills b ON b.id = p.bill_id
		 WHERE b.village_id = ? AND b.period_id = ? AND `+singleBills,
		period.VillageID, period.ID,
	).Scan(&collected).Error
	if err != nil {
		return nil, err
	}

	var counts []struct {
		Status string
		Count  int64
	}
	err = s.db.WithContext(ctx).Raw(
		`SELECT b.status AS status, COUNT(1) AS count
		 FROM bills b
		 WHERE b.village_id = ? AND b.period_id = ? AND `+singleBills+`
		 GROUP BY b.status`,
		period.VillageID, period.ID,
	).Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	var usage struct {
		TotalUsage int64
	}
	err = s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total_usage), 0) AS total_usage
		 FROM water_usages
		 WHERE village_id = ? AND period_id = ?`,
		period.VillageID, period.ID,
	).Scan(&usage).Error
	if err != nil {
		return nil, err
	}

	summary.Billed = totals.Billed
	summary.Outstanding = totals.Outstanding
	summary.BillCount = totals.BillCount
	summary.Collected = collected.Collected
	summary.TotalUsage = usage.TotalUsage
	for _, c := range counts {
		summary.StatusCounts[c.Status] = c.Count
	}
	summary.CollectionRate = collectionRate(summary.Collected, summary.Billed)
	summary.HasData = totals.BillCount > 0
	return summary, nil
}

func (s *Service) Outstanding(ctx context.Context, villageID uuid.UUID) ([]reportdomain.OutstandingCustomer, error) {
	if villageID == uuid.Nil {
		return nil, reportdomain.ErrInvalidVillage
	}

	var rows []struct {
		CustomerID   snowflake.ID
		CustomerCode string
		CustomerName string
		Status       billdomain.BillStatus
		TotalAmount  decimal.Decimal
		DueDate      time.Time
	}
	err := s.db.WithContext(ctx).
		Table("bills AS b").
		Select(`b.customer_id AS customer_id,
			c.code AS customer_code,
			c.name AS customer_name,
			b.status AS status,
			b.total_amount AS total_amount,
			b.due_date AS due_date`).
		Joins("JOIN customers c ON c.id = b.customer_id").
		Where("b.village_id = ? AND b.status IN ?", villageID,
			[]billdomain.BillStatus{billdomain.StatusUnpaid, billdomain.StatusOverdue}).
		Where(singleBills).
		Order("b.customer_id ASC, b.due_date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	index := map[snowflake.ID]int{}
	out := []reportdomain.OutstandingCustomer{}
	for _, row := range rows {
		i, ok := index[row.CustomerID]
		if !ok {
			i = len(out)
			index[row.CustomerID] = i
			out = append(out, reportdomain.OutstandingCustomer{
				CustomerID:   row.CustomerID,
				CustomerCode: row.CustomerCode,
				CustomerName: row.CustomerName,
				Unpaid:       decimal.Zero,
				Overdue:      decimal.Zero,
				Total:        decimal.Zero,
				OldestDue:    row.DueDate,
			})
		}
		c := &out[i]
		if row.Status == billdomain.StatusOverdue {
			c.Overdue = c.Overdue.Add(row.TotalAmount)
		} else {
			c.Unpaid = c.Unpaid.Add(row.TotalAmount)
		}
		c.Total = c.Total.Add(row.TotalAmount)
		c.BillCount++
		if row.DueDate.Before(c.OldestDue) {
			c.OldestDue = row.DueDate
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].CustomerCode < out[j].CustomerCode
	})
	return out, nil
}

func (s *Service) Trend(ctx context.Context, villageID uuid.UUID, periodID snowflake.ID) (*reportdomain.Trend, error) {
	period, err := s.loadPeriod(ctx, villageID, periodID)
	if err != nil {
		return nil, err
	}
	current, err := s.summarize(ctx, period)
	if err != nil {
		return nil, err
	}

	trend := &reportdomain.Trend{
		PeriodID:       period.ID,
		Usage:          reportdomain.Delta{Current: decimal.NewFromInt(current.TotalUsage)},
		Billed:         reportdomain.Delta{Current: current.Billed},
		Collected:      reportdomain.Delta{Current: current.Collected},
		CollectionRate: reportdomain.Delta{Current: rateDecimal(current.CollectionRate)},
	}

	year, month := period.PreviousMonth()
	previousPeriod, err := s.periodRepo.FindByMonth(ctx, s.db, villageID, year, month)
	if err != nil {
		return nil, err
	}
	if previousPeriod == nil {
		return trend, nil
	}
	previous, err := s.summarize(ctx, previousPeriod)
	if err != nil {
		return nil, err
	}

	trend.PreviousPeriodID = &previousPeriod.ID
	trend.Usage = computeDelta(trend.Usage.Current, decimal.NewFromInt(previous.TotalUsage))
	trend.Billed = computeDelta(trend.Billed.Current, previous.Billed)
	trend.Collected = computeDelta(trend.Collected.Current, previous.Collected)
	trend.CollectionRate = computeDelta(trend.CollectionRate.Current, rateDecimal(previous.CollectionRate))
	return trend, nil
}

func (s *Service) CollectorTotals(ctx context.Context, villageID uuid.UUID, from, to time.Time) ([]reportdomain.CollectorTotal, error) {
	if villageID == uuid.Nil {
		return nil, reportdomain.ErrInvalidVillage
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, reportdomain.ErrInvalidRange
	}

	query := s.db.WithContext(ctx).
		Table("payments AS p").
		Select(`p.collector_id AS collector_id,
			p.payment_method AS payment_method,
			COUNT(1) AS payment_count,
			COALESCE(SUM(p.amount_paid), 0) AS amount`).
		Where("p.village_id = ?", villageID)
	if !from.IsZero() {
		query = query.Where("p.payment_date >= ?", from.UTC())
	}
	if !to.IsZero() {
		query = query.Where("p.payment_date < ?", to.UTC())
	}

	var rows []reportdomain.CollectorTotal
	err := query.
		Group("p.collector_id, p.payment_method").
		Order("amount DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// collectionRate is collected over billed as a percentage, nil when nothing was billed.
func collectionRate(collected, billed decimal.Decimal) *float64 {
	if !billed.IsPositive() {
		return nil
	}
	rate := collected.Div(billed).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	return &rate
}

func rateDecimal(rate *float64) decimal.Decimal {
	if rate == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*rate)
}

func computeDelta(current, previous decimal.Decimal) reportdomain.Delta {
	change := current.Sub(previous)
	delta := reportdomain.Delta{Current: current, Previous: &previous, Change: &change}
	if !previous.IsZero() {
		growth := change.Div(previous).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		delta.GrowthRate = &growth
	}
	return delta
}

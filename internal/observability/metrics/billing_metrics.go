package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics counts billing and settlement outcomes. A nil receiver is a no-op.
type BillingMetrics struct {
	billsGenerated   *prometheus.CounterVec
	billFailures     *prometheus.CounterVec
	bundlesCreated   prometheus.Counter
	bundleOutcomes   *prometheus.CounterVec
	paymentsRecorded *prometheus.CounterVec
	paymentAmount    *prometheus.CounterVec
	overdueMarked    prometheus.Counter
	tariffChanges    *prometheus.CounterVec
}

func NewBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	labels := constLabels(cfg)

	m := &BillingMetrics{
		billsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "pamdes_bills_generated_total",
			Help:        "Bills created by the bill factory.",
			ConstLabels: labels,
		}, []string{"mode"}),
		billFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "pamdes_bill_generation_failures_total",
			Help:        "Readings that could not be billed, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		bundlesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pamdes_bundles_created_total",
			Help:        "Bundle containers created.",
			ConstLabels: labels,
		}),
		bundleOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "pamdes_bundle_outcomes_total",
			Help:        "Bundle terminal transitions.",
			ConstLabels: labels,
		}, []string{"status"}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "pamdes_payments_recorded_total",
			Help:        "Payment rows written, by method.",
			ConstLabels: labels,
		}, []string{"method"}),
		paymentAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "pamdes_payment_amount_total",
			Help:        "Sum of amounts paid, by method.",
			ConstLabels: labels,
		}, []string{"method"}),
		overdueMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pamdes_bills_overdue_marked_total",
			Help:        "Bills reclassified as overdue.",
			ConstLabels: labels,
		}),
		tariffChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "pamdes_tariff_changes_total",
			Help:        "Tariff schedule mutations.",
			ConstLabels: labels,
		}, []string{"operation"}),
	}

	registerer.MustRegister(
		m.billsGenerated,
		m.billFailures,
		m.bundlesCreated,
		m.bundleOutcomes,
		m.paymentsRecorded,
		m.paymentAmount,
		m.overdueMarked,
		m.tariffChanges,
	)
	return m
}

func (m *BillingMetrics) IncBillGenerated(mode string) {
	if m == nil {
		return
	}
	m.billsGenerated.WithLabelValues(mode).Inc()
}

func (m *BillingMetrics) IncBillFailure(reason string) {
	if m == nil {
		return
	}
	m.billFailures.WithLabelValues(reason).Inc()
}

func (m *BillingMetrics) IncBundleCreated() {
	if m == nil {
		return
	}
	m.bundlesCreated.Inc()
}

func (m *BillingMetrics) IncBundleOutcome(status string) {
	if m == nil {
		return
	}
	m.bundleOutcomes.WithLabelValues(status).Inc()
}

func (m *BillingMetrics) RecordPayment(method string, amount float64) {
	if m == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(method).Inc()
	if amount > 0 {
		m.paymentAmount.WithLabelValues(method).Add(amount)
	}
}

func (m *BillingMetrics) AddOverdueMarked(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.overdueMarked.Add(float64(n))
}

func (m *BillingMetrics) IncTariffChange(operation string) {
	if m == nil {
		return
	}
	m.tariffChanges.WithLabelValues(operation).Inc()
}

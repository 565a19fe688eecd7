package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped on every billing metric.
type Config struct {
	ServiceName string
	Environment string
}

// Charge outcome label values.
const (
	ChargeOutcomePaid      = "paid"
	ChargeOutcomeDeclined  = "declined"
	ChargeOutcomeTerminal  = "terminal"
	ChargeOutcomeExhausted = "exhausted"
)

// BillingMetrics captures billing cycle and charge health signals.
type BillingMetrics struct {
	chargeOutcomes  *prometheus.CounterVec
	chargeRetries   prometheus.Counter
	cycleRuns       prometheus.Counter
	cycleFailures   prometheus.Counter
	cycleDuration   prometheus.Observer
	scheduleChecks  prometheus.Counter
	cyclesScheduled prometheus.Counter
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

// Billing returns the singleton billing metrics registry.
func Billing() *BillingMetrics {
	return BillingWithConfig(Config{})
}

// BillingWithConfig returns the singleton billing metrics registry using config labels.
func BillingWithConfig(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

// ResetBillingMetricsForTest resets the billing metrics singleton for tests.
func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "billrun"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	chargeOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "billrun_charge_outcomes_total",
		Help:        "Invoice charge attempts by final outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	chargeRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "billrun_charge_retries_total",
		Help:        "Retries of transient payment failures.",
		ConstLabels: constLabels,
	})
	cycleRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "billrun_cycle_runs_total",
		Help:        "Billing cycle runs started.",
		ConstLabels: constLabels,
	})
	cycleFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "billrun_cycle_invoice_failures_total",
		Help:        "Invoices left unpaid after a cycle run.",
		ConstLabels: constLabels,
	})
	cycleDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "billrun_cycle_duration_seconds",
		Help:        "Wall time of a full cycle run including retries.",
		Buckets:     []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		ConstLabels: constLabels,
	})
	scheduleChecks := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "billrun_schedule_checks_total",
		Help:        "Entries into the schedule check, from timer or API.",
		ConstLabels: constLabels,
	})
	cyclesScheduled := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "billrun_cycles_scheduled_total",
		Help:        "New billing cycles persisted.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		chargeOutcomes,
		chargeRetries,
		cycleRuns,
		cycleFailures,
		cycleDuration,
		scheduleChecks,
		cyclesScheduled,
	)

	return &BillingMetrics{
		chargeOutcomes:  chargeOutcomes,
		chargeRetries:   chargeRetries,
		cycleRuns:       cycleRuns,
		cycleFailures:   cycleFailures,
		cycleDuration:   cycleDuration,
		scheduleChecks:  scheduleChecks,
		cyclesScheduled: cyclesScheduled,
	}
}

func (m *BillingMetrics) IncChargeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.chargeOutcomes.WithLabelValues(outcome).Inc()
}

func (m *BillingMetrics) IncChargeRetry() {
	if m == nil {
		return
	}
	m.chargeRetries.Inc()
}

func (m *BillingMetrics) IncCycleRun() {
	if m == nil {
		return
	}
	m.cycleRuns.Inc()
}

func (m *BillingMetrics) AddCycleFailures(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cycleFailures.Add(float64(n))
}

func (m *BillingMetrics) ObserveCycleDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.cycleDuration.Observe(d.Seconds())
}

func (m *BillingMetrics) IncScheduleCheck() {
	if m == nil {
		return
	}
	m.scheduleChecks.Inc()
}

func (m *BillingMetrics) IncCycleScheduled() {
	if m == nil {
		return
	}
	m.cyclesScheduled.Inc()
}

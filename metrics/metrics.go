// Package metrics exposes Prometheus instrumentation for the ledger
// engine and the sync outbox.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type LedgerMetrics struct {
	PaymentsRecorded   prometheus.Counter
	AutoClearPayments  prometheus.Counter
	StoreCreditsIssued prometheus.Counter
	OutboxDepth        prometheus.Gauge
	OutboxSaves        prometheus.Counter
	OutboxFailures     prometheus.Counter
	OutboxDropped      prometheus.Counter
}

var (
	ledgerOnce    sync.Once
	ledgerMetrics *LedgerMetrics
)

// Ledger returns the process-wide ledger metrics, registering them on
// the default registerer on first use.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerMetrics = newLedgerMetrics(prometheus.DefaultRegisterer)
	})
	return ledgerMetrics
}

// ResetForTest clears the singleton so tests can re-register.
func ResetForTest() {
	ledgerOnce = sync.Once{}
	ledgerMetrics = nil
}

func newLedgerMetrics(registerer prometheus.Registerer) *LedgerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &LedgerMetrics{
		PaymentsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_payments_recorded_total",
			Help: "Direct payments applied through the allocator.",
		}),
		AutoClearPayments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_autoclear_payments_total",
			Help: "Auto-clear payments synthesized by the overpayment cascade.",
		}),
		StoreCreditsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_store_credits_issued_total",
			Help: "Store-credit entries created from unabsorbed surplus.",
		}),
		OutboxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_outbox_depth",
			Help: "Sync tasks currently queued in the outbox.",
		}),
		OutboxSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_outbox_saves_total",
			Help: "Sync tasks successfully flushed to the sink.",
		}),
		OutboxFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_outbox_failures_total",
			Help: "Sink write attempts that failed.",
		}),
		OutboxDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_outbox_dropped_total",
			Help: "Sync tasks dropped because the outbox buffer was full.",
		}),
	}

	collectors := []prometheus.Collector{
		m.PaymentsRecorded,
		m.AutoClearPayments,
		m.StoreCreditsIssued,
		m.OutboxDepth,
		m.OutboxSaves,
		m.OutboxFailures,
		m.OutboxDropped,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
	return m
}

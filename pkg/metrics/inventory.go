package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados de traslado usados como etiqueta.
const (
	OutcomeCreated        = "created"
	OutcomeCreateRejected = "create_rejected"
	OutcomeCompleted      = "completed"
	OutcomeRevalidation   = "rejected_on_approval"
	OutcomeRejected       = "rejected"
)

// InventoryMetrics métricas del núcleo de inventario. Un valor nil es válido y no registra nada.
type InventoryMetrics struct {
	transfers        *prometheus.CounterVec
	ledgerEntries    *prometheus.CounterVec
	consistency      prometheus.Counter
	approvalDuration prometheus.Histogram
}

// NewInventoryMetrics registra las métricas en el Registerer indicado.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	transfers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_transfers_total",
		Help: "Transfer requests by outcome.",
	}, []string{"outcome"})
	ledgerEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_ledger_entries_total",
		Help: "Ledger entries appended by entry type.",
	}, []string{"entry_type"})
	consistency := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_consistency_errors_total",
		Help: "Negative cell or batch sums detected while aggregating the ledger.",
	})
	approvalDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_transfer_approval_duration_seconds",
		Help:    "Duration of transfer approval including settlement.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(transfers, ledgerEntries, consistency, approvalDuration)
	return &InventoryMetrics{
		transfers:        transfers,
		ledgerEntries:    ledgerEntries,
		consistency:      consistency,
		approvalDuration: approvalDuration,
	}
}

// TransferOutcome incrementa el contador de traslados para el resultado dado.
func (m *InventoryMetrics) TransferOutcome(outcome string) {
	if m == nil || m.transfers == nil {
		return
	}
	m.transfers.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// LedgerEntriesAppended cuenta asientos por tipo.
func (m *InventoryMetrics) LedgerEntriesAppended(entryType string, n int) {
	if m == nil || m.ledgerEntries == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(normalizeLabel(entryType)).Add(float64(n))
}

// ConsistencyViolation es la vía de alerta para ConsistencyError.
func (m *InventoryMetrics) ConsistencyViolation() {
	if m == nil || m.consistency == nil {
		return
	}
	m.consistency.Inc()
}

// ObserveApproval registra la duración de una aprobación.
func (m *InventoryMetrics) ObserveApproval(d time.Duration) {
	if m == nil || m.approvalDuration == nil {
		return
	}
	m.approvalDuration.Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/fishstock-api/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Locations repository.StorageLocationRepository
	Batches   repository.BatchRepository
	Ledger    repository.LedgerRepository
	Transfers repository.TransferRepository
}

// TxRunner ejecuta fn dentro de una transacción con exclusión mutua sobre las ubicaciones
// indicadas (sección crítica por ubicación). Commit si fn devuelve nil; Rollback si no.
// Los lectores nunca ven una transacción a medio aplicar.
type TxRunner interface {
	Run(ctx context.Context, lockLocationIDs []string, fn func(repos Repos) error) error
}

// Metrics puerto de métricas del núcleo; *metrics.InventoryMetrics lo implementa.
type Metrics interface {
	TransferOutcome(outcome string)
	LedgerEntriesAppended(entryType string, n int)
	ConsistencyViolation()
	ObserveApproval(d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) TransferOutcome(string)            {}
func (noopMetrics) LedgerEntriesAppended(string, int) {}
func (noopMetrics) ConsistencyViolation()             {}
func (noopMetrics) ObserveApproval(time.Duration)     {}

// Clock permite fijar la hora en tests.
type Clock func() time.Time

func orNow(c Clock) Clock {
	if c == nil {
		return func() time.Time { return time.Now().UTC() }
	}
	return c
}

func orNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	dominv "github.com/jhoicas/fishstock-api/internal/domain/inventory"
	"github.com/jhoicas/fishstock-api/internal/domain/repository"
	"github.com/jhoicas/fishstock-api/pkg/logger"
	"github.com/jhoicas/fishstock-api/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fishstock/transfers"

// TransferCoordinator máquina de estados de traslados entre ubicaciones:
// pending → {approved, rejected}; approved → completed. rejected y completed son terminales.
type TransferCoordinator struct {
	txRunner  TxRunner
	transfers repository.TransferRepository
	log       *logger.Logger
	metrics   Metrics
	now       Clock
}

// NewTransferCoordinator construye el coordinador.
func NewTransferCoordinator(
	txRunner TxRunner,
	transfers repository.TransferRepository,
	log *logger.Logger,
	m Metrics,
	now Clock,
) *TransferCoordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &TransferCoordinator{
		txRunner:  txRunner,
		transfers: transfers,
		log:       log,
		metrics:   orNoop(m),
		now:       orNow(now),
	}
}

// CreateTransferInput entrada para crear una solicitud de traslado.
type CreateTransferInput struct {
	SourceLocationID      string
	DestinationLocationID string
	Items                 []entity.TransferItem
	RequestedBy           string
	Notes                 string
}

// CreateTransfer valida y persiste una solicitud en pending. Orden de validación: origen ≠ destino,
// forma de los ítems, ubicaciones, stock en origen, traslado pendiente que se solape en tallas,
// capacidad del destino.
func (c *TransferCoordinator) CreateTransfer(ctx context.Context, in CreateTransferInput) (*entity.TransferRequest, error) {
	ctx, span := c.startSpan(ctx, "transfer.create",
		attribute.String("transfer.source", in.SourceLocationID),
		attribute.String("transfer.destination", in.DestinationLocationID))
	defer span.End()

	if err := validateTransferInput(in); err != nil {
		c.recordFailure(span, err)
		return nil, err
	}

	now := c.now()
	transfer := &entity.TransferRequest{
		ID:                    uuid.New().String(),
		SourceLocationID:      in.SourceLocationID,
		DestinationLocationID: in.DestinationLocationID,
		Items:                 normalizeItems(in.Items),
		Status:                entity.TransferStatusPending,
		RequestedBy:           in.RequestedBy,
		Notes:                 in.Notes,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	locks := []string{in.SourceLocationID, in.DestinationLocationID}
	err := c.txRunner.Run(ctx, locks, func(repos Repos) error {
		_, dest, err := loadActivePair(ctx, repos, transfer)
		if err != nil {
			return err
		}
		for _, it := range transfer.Items {
			shares, err := sharesOf(ctx, repos, transfer.SourceLocationID, it.SizeClass)
			if err != nil {
				return err
			}
			if available := dominv.AvailableQuantity(shares); available < it.Quantity {
				return &domain.InsufficientStockError{
					LocationID: transfer.SourceLocationID,
					SizeClass:  it.SizeClass,
					Requested:  it.Quantity,
					Available:  available,
					Shortfall:  it.Quantity - available,
				}
			}
		}
		if err := checkNoOverlappingPending(ctx, repos.Transfers, transfer); err != nil {
			return err
		}
		usage, err := usageOf(ctx, repos.Ledger, dest.ID)
		if err != nil {
			return err
		}
		if err := dominv.CheckCapacity(dest, usage, transfer.TotalWeight()); err != nil {
			return err
		}
		return repos.Transfers.Create(ctx, transfer)
	})
	if err != nil {
		c.recordFailure(span, err)
		c.metrics.TransferOutcome(metrics.OutcomeCreateRejected)
		c.log.Info().Err(err).
			Str("source", in.SourceLocationID).
			Str("destination", in.DestinationLocationID).
			Msg("traslado rechazado al crear")
		return nil, err
	}

	c.metrics.TransferOutcome(metrics.OutcomeCreated)
	span.SetAttributes(attribute.String("transfer.id", transfer.ID))
	c.log.Info().
		Str("transfer_id", transfer.ID).
		Str("requested_by", transfer.RequestedBy).
		Int("items", len(transfer.Items)).
		Msg("traslado creado")
	return transfer, nil
}

// Approve revalida stock y capacidad con el estado actual. Si sigue siendo válido agrega en una
// sola transacción los pares transfer_out/transfer_in por lote (FIFO, mismos IDs de lote) y deja
// el traslado en completed. Si la revalidación falla lo deja en rejected con el motivo, sin tocar
// el libro, y devuelve el traslado junto con el error de negocio.
// Una vez iniciada la liquidación no se cancela desde fuera.
func (c *TransferCoordinator) Approve(ctx context.Context, transferID, approvedBy string) (*entity.TransferRequest, error) {
	ctx, span := c.startSpan(ctx, "transfer.approve", attribute.String("transfer.id", transferID))
	defer span.End()
	start := time.Now()
	defer func() { c.metrics.ObserveApproval(time.Since(start)) }()

	if approvedBy == "" {
		return nil, domain.NewValidationError("approved_by", "es requerido")
	}
	current, err := c.transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}

	var (
		result          *entity.TransferRequest
		revalidationErr error
		settled         int
	)
	ctx = context.WithoutCancel(ctx)
	locks := []string{current.SourceLocationID, current.DestinationLocationID}
	err = c.txRunner.Run(ctx, locks, func(repos Repos) error {
		t, err := repos.Transfers.GetByID(ctx, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(t.Status, entity.TransferStatusApproved) {
			return domain.ErrInvalidTransition
		}
		now := c.now()

		entries, revalErr := c.plan(ctx, repos, t, approvedBy, now)
		if revalErr != nil {
			if !isRevalidationFailure(revalErr) {
				return revalErr
			}
			revalidationErr = revalErr
			t.Status = entity.TransferStatusRejected
			t.DecisionReason = revalErr.Error()
			t.DecidedAt = &now
			t.UpdatedAt = now
			result = t
			return repos.Transfers.Update(ctx, t)
		}

		t.Status = entity.TransferStatusApproved
		t.ApprovedBy = approvedBy
		t.DecidedAt = &now
		if err := appendChecked(ctx, repos, entries); err != nil {
			return err
		}
		settled = len(entries) / 2
		if !entity.CanTransition(t.Status, entity.TransferStatusCompleted) {
			return domain.ErrInvalidTransition
		}
		t.Status = entity.TransferStatusCompleted
		t.CompletedAt = &now
		t.UpdatedAt = now
		if err := repos.Transfers.Update(ctx, t); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		c.recordFailure(span, err)
		return nil, err
	}

	if revalidationErr != nil {
		c.recordFailure(span, revalidationErr)
		c.metrics.TransferOutcome(metrics.OutcomeRevalidation)
		c.log.Warn().Err(revalidationErr).
			Str("transfer_id", transferID).
			Msg("traslado rechazado en la revalidación de aprobación")
		return result, revalidationErr
	}

	c.metrics.TransferOutcome(metrics.OutcomeCompleted)
	c.metrics.LedgerEntriesAppended(entity.EntryTypeTransferOut, settled)
	c.metrics.LedgerEntriesAppended(entity.EntryTypeTransferIn, settled)
	c.log.Info().
		Str("transfer_id", transferID).
		Str("approved_by", approvedBy).
		Msg("traslado aprobado y liquidado")
	return result, nil
}

// Reject pasa un traslado pending a rejected sin efecto en el libro.
func (c *TransferCoordinator) Reject(ctx context.Context, transferID, reason, decidedBy string) (*entity.TransferRequest, error) {
	ctx, span := c.startSpan(ctx, "transfer.reject", attribute.String("transfer.id", transferID))
	defer span.End()

	current, err := c.transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}

	var result *entity.TransferRequest
	err = c.txRunner.Run(ctx, []string{current.SourceLocationID}, func(repos Repos) error {
		t, err := repos.Transfers.GetByID(ctx, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(t.Status, entity.TransferStatusRejected) {
			return domain.ErrInvalidTransition
		}
		now := c.now()
		t.Status = entity.TransferStatusRejected
		t.DecisionReason = reason
		t.ApprovedBy = decidedBy
		t.DecidedAt = &now
		t.UpdatedAt = now
		result = t
		return repos.Transfers.Update(ctx, t)
	})
	if err != nil {
		c.recordFailure(span, err)
		return nil, err
	}
	c.metrics.TransferOutcome(metrics.OutcomeRejected)
	c.log.Info().Str("transfer_id", transferID).Str("decided_by", decidedBy).Msg("traslado rechazado")
	return result, nil
}

// Get devuelve un traslado por ID.
func (c *TransferCoordinator) Get(ctx context.Context, transferID string) (*entity.TransferRequest, error) {
	t, err := c.transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// List lista traslados; status vacío devuelve todos.
func (c *TransferCoordinator) List(ctx context.Context, status string) ([]*entity.TransferRequest, error) {
	if status != "" && !entity.ValidTransferStatus(status) {
		return nil, domain.NewValidationError("status", "estado desconocido: "+status)
	}
	return c.transfers.List(ctx, status)
}

// plan revalida el traslado y arma los asientos de liquidación. Devuelve un error de negocio
// (stock, capacidad, ubicación inactiva) si el traslado ya no es aplicable.
func (c *TransferCoordinator) plan(
	ctx context.Context,
	repos Repos,
	t *entity.TransferRequest,
	actor string,
	now time.Time,
) ([]*entity.LedgerEntry, error) {
	_, dest, err := loadActivePair(ctx, repos, t)
	if err != nil {
		return nil, err
	}
	entries := make([]*entity.LedgerEntry, 0, len(t.Items)*2)
	moved := decimal.Zero
	for _, it := range t.Items {
		shares, err := sharesOf(ctx, repos, t.SourceLocationID, it.SizeClass)
		if err != nil {
			return nil, err
		}
		allocs, ok := dominv.AllocateFIFO(shares, it.Quantity)
		if !ok {
			available := dominv.AvailableQuantity(shares)
			return nil, &domain.InsufficientStockError{
				LocationID: t.SourceLocationID,
				SizeClass:  it.SizeClass,
				Requested:  it.Quantity,
				Available:  available,
				Shortfall:  it.Quantity - available,
			}
		}
		for _, a := range allocs {
			entries = append(entries,
				&entity.LedgerEntry{
					ID: uuid.New().String(), BatchID: a.BatchID, LocationID: t.SourceLocationID,
					SizeClass: it.SizeClass, Quantity: -a.Quantity, WeightKg: a.WeightKg.Neg(),
					Timestamp: now, EntryType: entity.EntryTypeTransferOut, TransferID: t.ID, CreatedBy: actor,
				},
				&entity.LedgerEntry{
					ID: uuid.New().String(), BatchID: a.BatchID, LocationID: t.DestinationLocationID,
					SizeClass: it.SizeClass, Quantity: a.Quantity, WeightKg: a.WeightKg,
					Timestamp: now, EntryType: entity.EntryTypeTransferIn, TransferID: t.ID, CreatedBy: actor,
				},
			)
		}
		moved = moved.Add(dominv.AllocatedWeight(allocs))
	}
	usage, err := usageOf(ctx, repos.Ledger, dest.ID)
	if err != nil {
		return nil, err
	}
	if err := dominv.CheckCapacity(dest, usage, moved); err != nil {
		return nil, err
	}
	return entries, nil
}

func isRevalidationFailure(err error) bool {
	return errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrInsufficientCapacity) ||
		errors.Is(err, domain.ErrInvalidInput)
}

// loadActivePair carga origen y destino y exige que existan y estén activos.
func loadActivePair(ctx context.Context, repos Repos, t *entity.TransferRequest) (*entity.StorageLocation, *entity.StorageLocation, error) {
	src, err := repos.Locations.GetByID(ctx, t.SourceLocationID)
	if err != nil {
		return nil, nil, err
	}
	dest, err := repos.Locations.GetByID(ctx, t.DestinationLocationID)
	if err != nil {
		return nil, nil, err
	}
	if src == nil || dest == nil {
		return nil, nil, domain.ErrNotFound
	}
	if !src.IsActive() {
		return nil, nil, domain.NewValidationError("source", "la ubicación de origen no está activa")
	}
	if !dest.IsActive() {
		return nil, nil, domain.NewValidationError("destination", "la ubicación de destino no está activa")
	}
	return src, dest, nil
}

// checkNoOverlappingPending como máximo un traslado pending por origen y talla: uno nuevo que se
// solape se rechaza, no se encola.
func checkNoOverlappingPending(ctx context.Context, transfers repository.TransferRepository, t *entity.TransferRequest) error {
	pending, err := transfers.ListPendingBySource(ctx, t.SourceLocationID)
	if err != nil {
		return err
	}
	wanted := make(map[int]bool, len(t.Items))
	for _, it := range t.Items {
		wanted[it.SizeClass] = true
	}
	for _, p := range pending {
		var overlap []int
		for _, it := range p.Items {
			if wanted[it.SizeClass] {
				overlap = append(overlap, it.SizeClass)
			}
		}
		if len(overlap) > 0 {
			return &domain.DuplicatePendingTransferError{
				ExistingTransferID: p.ID,
				SourceLocationID:   t.SourceLocationID,
				SizeClasses:        overlap,
			}
		}
	}
	return nil
}

func validateTransferInput(in CreateTransferInput) error {
	if in.SourceLocationID == "" {
		return domain.NewValidationError("source", "es requerido")
	}
	if in.DestinationLocationID == "" {
		return domain.NewValidationError("destination", "es requerido")
	}
	if in.SourceLocationID == in.DestinationLocationID {
		return domain.NewValidationError("destination", "debe ser distinto del origen")
	}
	if in.RequestedBy == "" {
		return domain.NewValidationError("requested_by", "es requerido")
	}
	if len(in.Items) == 0 {
		return domain.NewValidationError("items", "debe tener al menos un ítem")
	}
	seen := make(map[int]bool, len(in.Items))
	for _, it := range in.Items {
		if it.SizeClass <= 0 {
			return domain.NewValidationError("items.size_class", "debe ser un entero positivo")
		}
		if seen[it.SizeClass] {
			return domain.NewValidationError("items.size_class", "talla duplicada en el traslado")
		}
		seen[it.SizeClass] = true
		if it.Quantity <= 0 {
			return domain.NewValidationError("items.quantity", "debe ser mayor que cero")
		}
		if !it.WeightKg.IsPositive() {
			return domain.NewValidationError("items.weight_kg", "debe ser mayor que cero")
		}
		if !it.WeightKg.Equal(dominv.RoundWeight(it.WeightKg)) {
			return domain.NewValidationError("items.weight_kg", "máximo un decimal")
		}
	}
	return nil
}

// normalizeItems copia los ítems en el orden pedido; el orden se conserva al persistir.
func normalizeItems(items []entity.TransferItem) []entity.TransferItem {
	out := make([]entity.TransferItem, len(items))
	copy(out, items)
	return out
}

func (c *TransferCoordinator) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, span
}

func (c *TransferCoordinator) recordFailure(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	"github.com/jhoicas/fishstock-api/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo solicitudes de traslado (transfer_requests + transfer_items).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador de traslados.
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, source_location_id, destination_location_id, status, requested_by, approved_by,
	notes, decision_reason, created_at, updated_at, decided_at, completed_at`

// Create inserta la cabecera y sus ítems; position conserva el orden de la solicitud.
func (r *TransferRepo) Create(ctx context.Context, t *entity.TransferRequest) error {
	b := &pgx.Batch{}
	b.Queue(`INSERT INTO transfer_requests (`+transferColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.SourceLocationID, t.DestinationLocationID, t.Status, t.RequestedBy, t.ApprovedBy,
		t.Notes, t.DecisionReason, t.CreatedAt, t.UpdatedAt, t.DecidedAt, t.CompletedAt)
	for i, it := range t.Items {
		b.Queue(`INSERT INTO transfer_items (transfer_id, position, size_class, quantity, weight_kg) VALUES ($1, $2, $3, $4, $5)`,
			t.ID, i, it.SizeClass, it.Quantity, it.WeightKg)
	}
	br := r.q.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return wrapErr("insert transfer", err)
		}
	}
	if err := br.Close(); err != nil {
		return wrapErr("insert transfer", err)
	}
	return nil
}

// GetByID devuelve el traslado con sus ítems; (nil, nil) si no existe o el id no es un UUID.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.TransferRequest, error) {
	list, err := r.query(ctx, `WHERE id = $1`, id)
	if err != nil {
		if isMalformedID(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// Update persiste estado y datos de la decisión.
func (r *TransferRepo) Update(ctx context.Context, t *entity.TransferRequest) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE transfer_requests
		SET status = $2, approved_by = $3, decision_reason = $4, decided_at = $5, completed_at = $6, updated_at = $7
		WHERE id = $1`,
		t.ID, t.Status, t.ApprovedBy, t.DecisionReason, t.DecidedAt, t.CompletedAt, t.UpdatedAt)
	if err != nil {
		return wrapErr("update transfer", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TransferRepo) List(ctx context.Context, status string) ([]*entity.TransferRequest, error) {
	if status == "" {
		return r.query(ctx, ``)
	}
	return r.query(ctx, `WHERE status = $1`, status)
}

func (r *TransferRepo) ListPendingBySource(ctx context.Context, sourceLocationID string) ([]*entity.TransferRequest, error) {
	return r.query(ctx, `WHERE status = 'pending' AND source_location_id = $1`, sourceLocationID)
}

func (r *TransferRepo) query(ctx context.Context, where string, args ...any) ([]*entity.TransferRequest, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+transferColumns+` FROM transfer_requests `+where+` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, wrapErr("list transfers", err)
	}
	var out []*entity.TransferRequest
	byID := map[string]*entity.TransferRequest{}
	for rows.Next() {
		var t entity.TransferRequest
		if err := rows.Scan(&t.ID, &t.SourceLocationID, &t.DestinationLocationID, &t.Status, &t.RequestedBy,
			&t.ApprovedBy, &t.Notes, &t.DecisionReason, &t.CreatedAt, &t.UpdatedAt, &t.DecidedAt, &t.CompletedAt); err != nil {
			rows.Close()
			return nil, wrapErr("scan transfer", err)
		}
		out = append(out, &t)
		byID[t.ID] = &t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list transfers", err)
	}
	if len(out) == 0 {
		return out, nil
	}
	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TransferRepo) loadItems(ctx context.Context, byID map[string]*entity.TransferRequest) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := r.q.Query(ctx, `
		SELECT transfer_id, size_class, quantity, weight_kg
		FROM transfer_items WHERE transfer_id = ANY($1::uuid[])
		ORDER BY transfer_id, position`, ids)
	if err != nil {
		return wrapErr("list transfer items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var transferID string
		var it entity.TransferItem
		if err := rows.Scan(&transferID, &it.SizeClass, &it.Quantity, &it.WeightKg); err != nil {
			return wrapErr("scan transfer item", err)
		}
		if t, ok := byID[transferID]; ok {
			t.Items = append(t.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return wrapErr("list transfer items", err)
	}
	return nil
}

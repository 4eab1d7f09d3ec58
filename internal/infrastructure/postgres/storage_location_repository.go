package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	"github.com/jhoicas/fishstock-api/internal/domain/repository"
)

var _ repository.StorageLocationRepository = (*StorageLocationRepo)(nil)

// StorageLocationRepo implementación del puerto StorageLocationRepository sobre PostgreSQL.
type StorageLocationRepo struct {
	q Querier
}

// NewStorageLocationRepository construye el adaptador de persistencia para ubicaciones.
func NewStorageLocationRepository(q Querier) *StorageLocationRepo {
	return &StorageLocationRepo{q: q}
}

const locationColumns = `id, name, type, capacity_kg, status, created_at, updated_at`

// Create persiste una nueva ubicación.
func (r *StorageLocationRepo) Create(ctx context.Context, l *entity.StorageLocation) error {
	query := `
		INSERT INTO storage_locations (` + locationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, l.ID, l.Name, l.Type, l.CapacityKg, l.Status, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return wrapErr("insert storage location", err)
	}
	return nil
}

// GetByID obtiene una ubicación; (nil, nil) si no existe o el id no es un UUID.
func (r *StorageLocationRepo) GetByID(ctx context.Context, id string) (*entity.StorageLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM storage_locations WHERE id = $1`
	l, err := scanLocation(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, nil
		}
		return nil, wrapErr("get storage location", err)
	}
	return l, nil
}

// List devuelve todas las ubicaciones ordenadas por nombre.
func (r *StorageLocationRepo) List(ctx context.Context) ([]*entity.StorageLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM storage_locations ORDER BY name, id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, wrapErr("list storage locations", err)
	}
	defer rows.Close()
	var list []*entity.StorageLocation
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, wrapErr("scan storage location", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// UpdateStatus cambia el estado operativo; ErrNotFound si la ubicación no existe.
func (r *StorageLocationRepo) UpdateStatus(ctx context.Context, id, status string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE storage_locations SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return wrapErr("update storage location status", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanLocation(row pgx.Row) (*entity.StorageLocation, error) {
	var l entity.StorageLocation
	if err := row.Scan(&l.ID, &l.Name, &l.Type, &l.CapacityKg, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

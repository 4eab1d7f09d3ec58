package postgres

import (
	"context"

	"github.com/jhoicas/fishstock-api/internal/domain/repository"
)

var _ repository.DemandRepository = (*DemandRepo)(nil)

// DemandRepo lectura agregada de demand_requests (la tabla la llena el módulo de pedidos).
type DemandRepo struct {
	q Querier
}

func NewDemandRepository(q Querier) *DemandRepo {
	return &DemandRepo{q: q}
}

func (r *DemandRepo) SizeDemandStatistics(ctx context.Context) ([]repository.SizeDemandResult, error) {
	rows, err := r.q.Query(ctx, `
		SELECT size_class,
		       COALESCE(SUM(requested_weight_kg), 0),
		       COUNT(DISTINCT requester_id),
		       COUNT(*),
		       MIN(requested_at),
		       MAX(requested_at)
		FROM demand_requests
		GROUP BY size_class
		ORDER BY size_class`)
	if err != nil {
		return nil, wrapErr("size demand statistics", err)
	}
	defer rows.Close()
	var out []repository.SizeDemandResult
	for rows.Next() {
		var res repository.SizeDemandResult
		if err := rows.Scan(&res.SizeClass, &res.TotalWeightKg, &res.RequesterCount, &res.OrderCount,
			&res.FirstRequestAt, &res.LastRequestAt); err != nil {
			return nil, wrapErr("scan size demand", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

package inventory

import (
	"context"

	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	dominv "github.com/jhoicas/fishstock-api/internal/domain/inventory"
	"github.com/jhoicas/fishstock-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// CapacityService modelo de capacidad: el uso siempre se recalcula desde el libro.
// No impone el invariante uso <= capacidad; eso lo hace el punto de escritura del libro.
type CapacityService struct {
	locations repository.StorageLocationRepository
	ledger    repository.LedgerRepository
}

// NewCapacityService construye el modelo de capacidad.
func NewCapacityService(locations repository.StorageLocationRepository, ledger repository.LedgerRepository) *CapacityService {
	return &CapacityService{locations: locations, ledger: ledger}
}

// LocationUsage ubicación con uso, disponible y porcentaje de utilización.
type LocationUsage struct {
	Location       *entity.StorageLocation
	UsageKg        decimal.Decimal
	AvailableKg    decimal.Decimal
	UtilizationPct decimal.Decimal
}

// CurrentUsage peso vivo de la ubicación.
func (s *CapacityService) CurrentUsage(ctx context.Context, locationID string) (decimal.Decimal, error) {
	return usageOf(ctx, s.ledger, locationID)
}

// AvailableCapacity capacidad menos uso; un valor <= 0 no es error.
func (s *CapacityService) AvailableCapacity(ctx context.Context, locationID string) (decimal.Decimal, error) {
	loc, err := s.locations.GetByID(ctx, locationID)
	if err != nil {
		return decimal.Zero, err
	}
	if loc == nil {
		return decimal.Zero, domain.ErrNotFound
	}
	usage, err := s.CurrentUsage(ctx, locationID)
	if err != nil {
		return decimal.Zero, err
	}
	return dominv.Available(loc.CapacityKg, usage), nil
}

// Describe devuelve la ubicación con su uso derivado.
func (s *CapacityService) Describe(ctx context.Context, locationID string) (*LocationUsage, error) {
	loc, err := s.locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.ErrNotFound
	}
	return s.describe(ctx, loc)
}

// DescribeAll devuelve todas las ubicaciones con su uso derivado.
func (s *CapacityService) DescribeAll(ctx context.Context) ([]*LocationUsage, error) {
	list, err := s.locations.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*LocationUsage, 0, len(list))
	for _, loc := range list {
		u, err := s.describe(ctx, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *CapacityService) describe(ctx context.Context, loc *entity.StorageLocation) (*LocationUsage, error) {
	usage, err := s.CurrentUsage(ctx, loc.ID)
	if err != nil {
		return nil, err
	}
	loc.CurrentUsageKg = usage
	return &LocationUsage{
		Location:       loc,
		UsageKg:        usage,
		AvailableKg:    dominv.Available(loc.CapacityKg, usage),
		UtilizationPct: dominv.UtilizationPct(loc.CapacityKg, usage),
	}, nil
}

package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jgpdata/emissions-backend/internal/models"
)

// ListParams is the already-parsed filter/sort/page window for a
// listing query. Date bounds are inclusive at day granularity; the
// repository widens DateTo to cover the whole day.
type ListParams struct {
	Type      string
	Issuer    string
	DateFrom  *time.Time
	DateTo    *time.Time
	AmountMin *float64
	AmountMax *float64
	SortBy    string
	SortDesc  bool
	Page      int
	PageSize  int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps the pagination window into its valid range.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

type PagedEmissions struct {
	Items      []models.Emission `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

type Emissions interface {
	List(ctx context.Context, p ListParams) (PagedEmissions, error)
	GetByID(ctx context.Context, id int64) (models.Emission, error)
	DistinctTypes(ctx context.Context) ([]string, error)

	// Tx-scoped pair used by the update-with-audit flow.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (models.Emission, error)
	ApplyUpdate(ctx context.Context, tx pgx.Tx, em models.Emission) (models.Emission, error)

	// Run fn inside a single DB transaction (pgx.Tx).
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error

	// Bulk-import surface.
	Truncate(ctx context.Context) error
	InsertBatch(ctx context.Context, items []models.Emission) error
}

type ChangeLogs interface {
	Insert(ctx context.Context, tx pgx.Tx, l models.ChangeLog) error
	ListByEmission(ctx context.Context, emissionID int64) ([]models.ChangeLog, error)
}

type Stats interface {
	MonthlyEvolution(ctx context.Context) ([]models.MonthlyPoint, error)
	Overview(ctx context.Context) (models.Statistics, error)
}

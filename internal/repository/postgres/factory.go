package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	repo "github.com/jgpdata/emissions-backend/internal/repository"
)

// DB is the slice of pgxpool.Pool the repositories need. pgxmock
// satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repositories struct {
	Emissions  repo.Emissions
	ChangeLogs repo.ChangeLogs
	Stats      repo.Stats
}

func NewRepositories(db DB) Repositories {
	return Repositories{
		Emissions:  &emissionsRepo{db},
		ChangeLogs: &changeLogsRepo{db},
		Stats:      &statsRepo{db},
	}
}

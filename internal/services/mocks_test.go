package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/jgpdata/emissions-backend/internal/models"
	repo "github.com/jgpdata/emissions-backend/internal/repository"
)

type MockEmissions struct{ mock.Mock }

func (m *MockEmissions) List(ctx context.Context, p repo.ListParams) (repo.PagedEmissions, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(repo.PagedEmissions), args.Error(1)
}

func (m *MockEmissions) GetByID(ctx context.Context, id int64) (models.Emission, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Emission), args.Error(1)
}

func (m *MockEmissions) DistinctTypes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockEmissions) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (models.Emission, error) {
	args := m.Called(ctx, tx, id)
	return args.Get(0).(models.Emission), args.Error(1)
}

func (m *MockEmissions) ApplyUpdate(ctx context.Context, tx pgx.Tx, em models.Emission) (models.Emission, error) {
	args := m.Called(ctx, tx, em)
	return args.Get(0).(models.Emission), args.Error(1)
}

// WithTx runs fn with a nil tx; the repository tests cover the real
// transaction wiring.
func (m *MockEmissions) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(nil)
}

func (m *MockEmissions) Truncate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEmissions) InsertBatch(ctx context.Context, items []models.Emission) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

type MockChangeLogs struct{ mock.Mock }

func (m *MockChangeLogs) Insert(ctx context.Context, tx pgx.Tx, l models.ChangeLog) error {
	args := m.Called(ctx, tx, l)
	return args.Error(0)
}

func (m *MockChangeLogs) ListByEmission(ctx context.Context, emissionID int64) ([]models.ChangeLog, error) {
	args := m.Called(ctx, emissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChangeLog), args.Error(1)
}

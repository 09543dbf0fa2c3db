package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgpdata/emissions-backend/internal/models"
	repo "github.com/jgpdata/emissions-backend/internal/repository"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, Repositories) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewRepositories(mock)
}

var emissionColumns = []string{"id", "issue_date", "type", "issuer", "amount", "link", "created_at", "updated_at"}

func emissionRow(id int64, date time.Time, typ, issuer string, amount float64) []any {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return []any{id, date, typ, issuer, amount, (*string)(nil), now, now}
}

func TestList_DefaultSortAndPagination(t *testing.T) {
	mock, repos := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM emissions`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(45))
	mock.ExpectQuery(`SELECT id, issue_date, type, issuer, amount, link, created_at, updated_at FROM emissions ORDER BY issue_date DESC, id ASC LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(emissionColumns).
			AddRow(emissionRow(2, time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC), "CRA", "Beta", 300)...).
			AddRow(emissionRow(1, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), "CRI", "Acme", 100)...))

	page, err := repos.Emissions.List(context.Background(), repo.ListParams{SortDesc: true})

	require.NoError(t, err)
	assert.Equal(t, 45, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_ConjunctiveFilters(t *testing.T) {
	mock, repos := newMock(t)
	min := 50.0

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM emissions WHERE type = \$1 AND issuer ILIKE \$2 AND amount >= \$3`).
		WithArgs("CRI", "%acme%", min).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM emissions WHERE type = \$1 AND issuer ILIKE \$2 AND amount >= \$3 ORDER BY amount ASC, id ASC LIMIT \$4 OFFSET \$5`).
		WithArgs("CRI", "%acme%", min, 20, 0).
		WillReturnRows(pgxmock.NewRows(emissionColumns).
			AddRow(emissionRow(1, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), "CRI", "Acme", 100)...))

	page, err := repos.Emissions.List(context.Background(), repo.ListParams{
		Type:      "CRI",
		Issuer:    "acme",
		AmountMin: &min,
		SortBy:    "amount",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_DateToCoversWholeDay(t *testing.T) {
	mock, repos := newMock(t)
	to := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM emissions WHERE issue_date < \$1`).
		WithArgs(time.Date(2025, 2, 11, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`WHERE issue_date < \$1 ORDER BY issue_date DESC, id ASC LIMIT \$2 OFFSET \$3`).
		WithArgs(time.Date(2025, 2, 11, 0, 0, 0, 0, time.UTC), 20, 0).
		WillReturnRows(pgxmock.NewRows(emissionColumns).
			AddRow(emissionRow(3, to, "DEB", "Gamma", 300)...))

	page, err := repos.Emissions.List(context.Background(), repo.ListParams{DateTo: &to, SortDesc: true})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, to, page.Items[0].IssueDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_UnknownSortFieldFallsBack(t *testing.T) {
	mock, repos := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM emissions`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY issue_date DESC, id ASC`).
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(emissionColumns))

	page, err := repos.Emissions.List(context.Background(), repo.ListParams{
		SortBy:   "nonexistent_field",
		SortDesc: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 0, page.TotalPages)
	assert.NotNil(t, page.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_PageSizeClamped(t *testing.T) {
	mock, repos := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM emissions`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(500))
	mock.ExpectQuery(`LIMIT \$1 OFFSET \$2`).
		WithArgs(100, 100).
		WillReturnRows(pgxmock.NewRows(emissionColumns))

	page, err := repos.Emissions.List(context.Background(), repo.ListParams{Page: 2, PageSize: 9999})

	require.NoError(t, err)
	assert.Equal(t, 100, page.PageSize)
	assert.Equal(t, 5, page.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NoRowsPassesThrough(t *testing.T) {
	mock, repos := newMock(t)

	mock.ExpectQuery(`SELECT id, .* FROM emissions WHERE id=\$1`).
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repos.Emissions.GetByID(context.Background(), 42)
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistinctTypes(t *testing.T) {
	mock, repos := newMock(t)

	mock.ExpectQuery(`SELECT DISTINCT type FROM emissions ORDER BY type`).
		WillReturnRows(pgxmock.NewRows([]string{"type"}).AddRow("CRA").AddRow("CRI"))

	types, err := repos.Emissions.DistinctTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CRA", "CRI"}, types)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	mock, repos := newMock(t)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite})
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := repos.Emissions.WithTx(context.Background(), func(pgx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTruncate(t *testing.T) {
	mock, repos := newMock(t)

	mock.ExpectExec(`TRUNCATE change_logs, emissions RESTART IDENTITY`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))

	require.NoError(t, repos.Emissions.Truncate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatch(t *testing.T) {
	mock, repos := newMock(t)

	items := []models.Emission{
		{IssueDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), Type: "CRI", Issuer: "Acme", Amount: 100},
		{IssueDate: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), Type: "CRA", Issuer: "Beta", Amount: 200},
	}

	eb := mock.ExpectBatch()
	for _, em := range items {
		eb.ExpectExec(`INSERT INTO emissions`).
			WithArgs(em.IssueDate, em.Type, em.Issuer, em.Amount, em.Link).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	require.NoError(t, repos.Emissions.InsertBatch(context.Background(), items))
	assert.NoError(t, mock.ExpectationsWereMet())
}

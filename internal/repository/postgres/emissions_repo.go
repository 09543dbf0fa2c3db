package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jgpdata/emissions-backend/internal/models"
	repo "github.com/jgpdata/emissions-backend/internal/repository"
)

type emissionsRepo struct{ db DB }

const emissionCols = `id, issue_date, type, issuer, amount, link, created_at, updated_at`

// sortColumns is the allow-list for dynamic ordering. Unknown names
// fall back to issue_date instead of erroring.
var sortColumns = map[string]string{
	"issue_date": "issue_date",
	"date":       "issue_date",
	"type":       "type",
	"issuer":     "issuer",
	"amount":     "amount",
	"id":         "id",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func buildFilters(p repo.ListParams) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if p.Type != "" {
		add("type = $%d", p.Type)
	}
	if p.Issuer != "" {
		add("issuer ILIKE $%d", "%"+p.Issuer+"%")
	}
	if p.DateFrom != nil {
		add("issue_date >= $%d", *p.DateFrom)
	}
	if p.DateTo != nil {
		// inclusive upper bound at day granularity
		add("issue_date < $%d", p.DateTo.AddDate(0, 0, 1))
	}
	if p.AmountMin != nil {
		add("amount >= $%d", *p.AmountMin)
	}
	if p.AmountMax != nil {
		add("amount <= $%d", *p.AmountMax)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanEmission(row pgx.Row) (models.Emission, error) {
	var em models.Emission
	err := row.Scan(&em.ID, &em.IssueDate, &em.Type, &em.Issuer, &em.Amount, &em.Link, &em.CreatedAt, &em.UpdatedAt)
	return em, err
}

func (r *emissionsRepo) List(ctx context.Context, p repo.ListParams) (repo.PagedEmissions, error) {
	p.Normalize()
	where, args := buildFilters(p)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM emissions`+where, args...).Scan(&total); err != nil {
		return repo.PagedEmissions{}, err
	}

	col, ok := sortColumns[p.SortBy]
	if !ok {
		col = "issue_date"
	}
	dir := "ASC"
	if p.SortDesc {
		dir = "DESC"
	}

	// id ASC tie-break keeps pagination deterministic across pages
	q := fmt.Sprintf(`SELECT %s FROM emissions%s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		emissionCols, where, col, dir, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, q, append(args, p.PageSize, (p.Page-1)*p.PageSize)...)
	if err != nil {
		return repo.PagedEmissions{}, err
	}
	defer rows.Close()

	items := make([]models.Emission, 0, p.PageSize)
	for rows.Next() {
		em, err := scanEmission(rows)
		if err != nil {
			return repo.PagedEmissions{}, err
		}
		items = append(items, em)
	}
	if err := rows.Err(); err != nil {
		return repo.PagedEmissions{}, err
	}

	return repo.PagedEmissions{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: (total + p.PageSize - 1) / p.PageSize,
	}, nil
}

func (r *emissionsRepo) GetByID(ctx context.Context, id int64) (models.Emission, error) {
	return scanEmission(r.db.QueryRow(ctx,
		`SELECT `+emissionCols+` FROM emissions WHERE id=$1`, id))
}

func (r *emissionsRepo) DistinctTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT type FROM emissions ORDER BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *emissionsRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (models.Emission, error) {
	return scanEmission(tx.QueryRow(ctx,
		`SELECT `+emissionCols+` FROM emissions WHERE id=$1 FOR UPDATE`, id))
}

func (r *emissionsRepo) ApplyUpdate(ctx context.Context, tx pgx.Tx, em models.Emission) (models.Emission, error) {
	return scanEmission(tx.QueryRow(ctx,
		`UPDATE emissions
		    SET issue_date=$2, type=$3, issuer=$4, amount=$5, link=$6, updated_at=now()
		  WHERE id=$1
		  RETURNING `+emissionCols,
		em.ID, em.IssueDate, em.Type, em.Issuer, em.Amount, em.Link))
}

func (r *emissionsRepo) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// Truncate clears the whole collection before a bulk reload. History
// rows reference emissions, so both tables go together.
func (r *emissionsRepo) Truncate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `TRUNCATE change_logs, emissions RESTART IDENTITY`)
	return err
}

func (r *emissionsRepo) InsertBatch(ctx context.Context, items []models.Emission) error {
	b := &pgx.Batch{}
	for _, em := range items {
		b.Queue(`INSERT INTO emissions (issue_date, type, issuer, amount, link) VALUES ($1,$2,$3,$4,$5)`,
			em.IssueDate, em.Type, em.Issuer, em.Amount, em.Link)
	}
	br := r.db.SendBatch(ctx, b)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

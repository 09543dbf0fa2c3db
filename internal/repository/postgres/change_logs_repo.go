package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jgpdata/emissions-backend/internal/models"
)

type changeLogsRepo struct{ db DB }

func (r *changeLogsRepo) Insert(ctx context.Context, tx pgx.Tx, l models.ChangeLog) error {
	fields, err := json.Marshal(l.ChangedFields)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO change_logs (emission_id, editor_name, changed_at, changed_fields) VALUES ($1,$2,$3,$4)`,
		l.EmissionID, l.EditorName, l.ChangedAt, fields)
	return err
}

func (r *changeLogsRepo) ListByEmission(ctx context.Context, emissionID int64) ([]models.ChangeLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, emission_id, editor_name, changed_at, changed_fields
		   FROM change_logs
		  WHERE emission_id=$1
		  ORDER BY changed_at DESC, id DESC`,
		emissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ChangeLog, 0)
	for rows.Next() {
		var l models.ChangeLog
		var fields []byte
		if err := rows.Scan(&l.ID, &l.EmissionID, &l.EditorName, &l.ChangedAt, &fields); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(fields, &l.ChangedFields); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

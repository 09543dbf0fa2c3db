package postgres

import (
	"context"

	"github.com/jgpdata/emissions-backend/internal/models"
)

type statsRepo struct{ db DB }

func (r *statsRepo) MonthlyEvolution(ctx context.Context) ([]models.MonthlyPoint, error) {
	rows, err := r.db.Query(ctx,
		`SELECT EXTRACT(YEAR FROM issue_date)::int,
		        EXTRACT(MONTH FROM issue_date)::int,
		        COUNT(*),
		        COALESCE(SUM(amount), 0)
		   FROM emissions
		  GROUP BY 1, 2
		  ORDER BY 1, 2`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]models.MonthlyPoint, 0)
	for rows.Next() {
		var p models.MonthlyPoint
		if err := rows.Scan(&p.Year, &p.Month, &p.Count, &p.TotalAmount); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *statsRepo) Overview(ctx context.Context) (models.Statistics, error) {
	var s models.Statistics
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM emissions`).
		Scan(&s.Total, &s.TotalAmount); err != nil {
		return models.Statistics{}, err
	}

	byType, err := r.db.Query(ctx,
		`SELECT type, COUNT(*), COALESCE(SUM(amount), 0)
		   FROM emissions GROUP BY type ORDER BY type`)
	if err != nil {
		return models.Statistics{}, err
	}
	defer byType.Close()
	s.ByType = make([]models.TypeBreakdown, 0)
	for byType.Next() {
		var t models.TypeBreakdown
		if err := byType.Scan(&t.Type, &t.Count, &t.TotalAmount); err != nil {
			return models.Statistics{}, err
		}
		s.ByType = append(s.ByType, t)
	}
	if err := byType.Err(); err != nil {
		return models.Statistics{}, err
	}

	top, err := r.db.Query(ctx,
		`SELECT issuer, COUNT(*), COALESCE(SUM(amount), 0)
		   FROM emissions GROUP BY issuer
		  ORDER BY SUM(amount) DESC LIMIT 10`)
	if err != nil {
		return models.Statistics{}, err
	}
	defer top.Close()
	s.TopIssuers = make([]models.IssuerBreakdown, 0)
	for top.Next() {
		var i models.IssuerBreakdown
		if err := top.Scan(&i.Issuer, &i.Count, &i.TotalAmount); err != nil {
			return models.Statistics{}, err
		}
		s.TopIssuers = append(s.TopIssuers, i)
	}
	return s, top.Err()
}

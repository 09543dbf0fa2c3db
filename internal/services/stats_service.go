package services

import (
	"context"

	"github.com/jgpdata/emissions-backend/internal/models"
	repo "github.com/jgpdata/emissions-backend/internal/repository"
)

type StatsService struct{ r repo.Stats }

func NewStatsService(r repo.Stats) *StatsService { return &StatsService{r: r} }

func (s *StatsService) MonthlyEvolution(ctx context.Context) ([]models.MonthlyPoint, error) {
	return s.r.MonthlyEvolution(ctx)
}

func (s *StatsService) Overview(ctx context.Context) (models.Statistics, error) {
	return s.r.Overview(ctx)
}

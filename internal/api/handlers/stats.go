package handlers

import (
	"context"
	"net/http"

	"github.com/jgpdata/emissions-backend/internal/api/httpx"
	"github.com/jgpdata/emissions-backend/internal/models"
)

type StatsProvider interface {
	MonthlyEvolution(ctx context.Context) ([]models.MonthlyPoint, error)
	Overview(ctx context.Context) (models.Statistics, error)
}

type StatsHandler struct{ svc StatsProvider }

func NewStatsHandler(svc StatsProvider) *StatsHandler { return &StatsHandler{svc: svc} }

func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Overview(r.Context())
	if err != nil {
		httpx.Internal(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

func (h *StatsHandler) MonthlyEvolution(w http.ResponseWriter, r *http.Request) {
	points, err := h.svc.MonthlyEvolution(r.Context())
	if err != nil {
		httpx.Internal(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, points)
}

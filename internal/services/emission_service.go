package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jgpdata/emissions-backend/internal/api/validate"
	"github.com/jgpdata/emissions-backend/internal/metrics"
	"github.com/jgpdata/emissions-backend/internal/models"
	repo "github.com/jgpdata/emissions-backend/internal/repository"
)

var ErrNotFound = errors.New("emission not found")

const (
	maxIssuerLen = 255
	maxEditorLen = 100
)

type EmissionService struct {
	emissions repo.Emissions
	logs      repo.ChangeLogs
}

func NewEmissionService(e repo.Emissions, l repo.ChangeLogs) *EmissionService {
	return &EmissionService{emissions: e, logs: l}
}

// ListFilters carries raw filter input. Dates stay strings here: a
// malformed date yields an empty page instead of an error.
type ListFilters struct {
	Type      string
	Issuer    string
	DateFrom  string
	DateTo    string
	AmountMin *float64
	AmountMax *float64
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

func emptyPage(pageSize int) repo.PagedEmissions {
	p := repo.ListParams{PageSize: pageSize}
	p.Normalize()
	return repo.PagedEmissions{
		Items:    []models.Emission{},
		Page:     1,
		PageSize: p.PageSize,
	}
}

func (s *EmissionService) List(ctx context.Context, f ListFilters) (repo.PagedEmissions, error) {
	p := repo.ListParams{
		Type:      strings.TrimSpace(f.Type),
		Issuer:    strings.TrimSpace(f.Issuer),
		AmountMin: f.AmountMin,
		AmountMax: f.AmountMax,
		SortBy:    f.SortBy,
		SortDesc:  f.SortOrder != "asc",
		Page:      f.Page,
		PageSize:  f.PageSize,
	}
	if f.DateFrom != "" {
		t, err := time.Parse("2006-01-02", f.DateFrom)
		if err != nil {
			slog.Warn("invalid date_from filter", "value", f.DateFrom)
			return emptyPage(f.PageSize), nil
		}
		p.DateFrom = &t
	}
	if f.DateTo != "" {
		t, err := time.Parse("2006-01-02", f.DateTo)
		if err != nil {
			slog.Warn("invalid date_to filter", "value", f.DateTo)
			return emptyPage(f.PageSize), nil
		}
		p.DateTo = &t
	}
	return s.emissions.List(ctx, p)
}

func (s *EmissionService) Get(ctx context.Context, id int64) (models.Emission, error) {
	em, err := s.emissions.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Emission{}, ErrNotFound
	}
	return em, err
}

func (s *EmissionService) DistinctTypes(ctx context.Context) ([]string, error) {
	return s.emissions.DistinctTypes(ctx)
}

func (s *EmissionService) History(ctx context.Context, id int64) ([]models.ChangeLog, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.logs.ListByEmission(ctx, id)
}

// UpdateInput is a partial field set: nil means the field was absent
// from the request. Link is the one nullable field, so it carries an
// explicit presence flag to distinguish "clear it" from "leave it".
type UpdateInput struct {
	IssueDate *time.Time
	Type      *string
	Issuer    *string
	Amount    *float64
	Link      *string
	LinkSet   bool
}

func validateUpdate(in *UpdateInput, editor string) validate.Errs {
	var errs validate.Errs
	if in.Type != nil {
		t := strings.ToUpper(strings.TrimSpace(*in.Type))
		if !models.EmissionType(t).Valid() {
			errs = append(errs, validate.ErrField{Field: "type", Msg: "must be one of CRI, CRA, DEB, NC"})
		} else {
			in.Type = &t
		}
	}
	if in.Issuer != nil {
		iss := strings.TrimSpace(*in.Issuer)
		if e := validate.Required("issuer", iss); e != nil {
			errs = append(errs, *e)
		} else if e := validate.MaxLen("issuer", iss, maxIssuerLen); e != nil {
			errs = append(errs, *e)
		} else {
			in.Issuer = &iss
		}
	}
	if in.Amount != nil && *in.Amount <= 0 {
		errs = append(errs, validate.ErrField{Field: "amount", Msg: "must be > 0"})
	}
	if e := validate.MaxLen("editor_name", editor, maxEditorLen); e != nil {
		errs = append(errs, *e)
	}
	return errs
}

func applyInput(em models.Emission, in UpdateInput) models.Emission {
	if in.IssueDate != nil {
		em.IssueDate = *in.IssueDate
	}
	if in.Type != nil {
		em.Type = *in.Type
	}
	if in.Issuer != nil {
		em.Issuer = *in.Issuer
	}
	if in.Amount != nil {
		em.Amount = *in.Amount
	}
	if in.LinkSet {
		em.Link = in.Link
	}
	return em
}

// Update applies a partial update and, when any field actually changed,
// writes exactly one change-log entry in the same transaction. A
// request that changes nothing touches neither the row nor the log.
func (s *EmissionService) Update(ctx context.Context, id int64, in UpdateInput, editor string) (models.Emission, error) {
	editor = strings.TrimSpace(editor)
	if editor == "" {
		editor = models.AnonymousEditor
	}
	if errs := validateUpdate(&in, editor); len(errs) > 0 {
		metrics.UpdatesTotal.WithLabelValues("rejected").Inc()
		return models.Emission{}, errs
	}

	var (
		updated models.Emission
		changed bool
	)
	err := s.emissions.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := s.emissions.GetForUpdate(ctx, tx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		candidate := applyInput(current, in)
		changes := diffEmissions(current, candidate)
		if len(changes) == 0 {
			updated = current
			return nil
		}
		changed = true

		updated, err = s.emissions.ApplyUpdate(ctx, tx, candidate)
		if err != nil {
			return err
		}
		return s.logs.Insert(ctx, tx, models.ChangeLog{
			EmissionID:    id,
			EditorName:    editor,
			ChangedAt:     time.Now().UTC(),
			ChangedFields: changes,
		})
	})
	if err != nil {
		return models.Emission{}, err
	}
	if changed {
		metrics.UpdatesTotal.WithLabelValues("applied").Inc()
	} else {
		metrics.UpdatesTotal.WithLabelValues("noop").Inc()
	}
	return updated, nil
}

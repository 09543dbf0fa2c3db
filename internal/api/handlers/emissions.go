package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jgpdata/emissions-backend/internal/api/httpx"
	"github.com/jgpdata/emissions-backend/internal/api/validate"
	"github.com/jgpdata/emissions-backend/internal/models"
	repo "github.com/jgpdata/emissions-backend/internal/repository"
	"github.com/jgpdata/emissions-backend/internal/services"
)

// EmissionProvider is what the handler needs from the service layer.
type EmissionProvider interface {
	List(ctx context.Context, f services.ListFilters) (repo.PagedEmissions, error)
	Get(ctx context.Context, id int64) (models.Emission, error)
	Update(ctx context.Context, id int64, in services.UpdateInput, editor string) (models.Emission, error)
	History(ctx context.Context, id int64) ([]models.ChangeLog, error)
	DistinctTypes(ctx context.Context) ([]string, error)
}

type EmissionHandler struct{ svc EmissionProvider }

func NewEmissionHandler(svc EmissionProvider) *EmissionHandler {
	return &EmissionHandler{svc: svc}
}

func (h *EmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := services.ListFilters{
		Type:      q.Get("type"),
		Issuer:    q.Get("issuer"),
		DateFrom:  q.Get("date_from"),
		DateTo:    q.Get("date_to"),
		AmountMin: queryFloat(q.Get("amount_min")),
		AmountMax: queryFloat(q.Get("amount_max")),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Page:      queryInt(q.Get("page"), 1),
		PageSize:  queryInt(q.Get("page_size"), repo.DefaultPageSize),
	}
	page, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpx.Internal(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *EmissionHandler) Types(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.DistinctTypes(r.Context())
	if err != nil {
		httpx.Internal(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, types)
}

func (h *EmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	em, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, em)
}

func (h *EmissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, editor, errs := parseUpdateRequest(r)
	if len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid update payload", errs)
		return
	}
	em, err := h.svc.Update(r.Context(), id, in, editor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, em)
}

func (h *EmissionHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	logs, err := h.svc.History(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, logs)
}

// ---- request parsing ----

// updateRequest keeps raw JSON per field so an absent field and an
// explicit null stay distinguishable.
type updateRequest struct {
	IssueDate  json.RawMessage `json:"issue_date"`
	Type       json.RawMessage `json:"type"`
	Issuer     json.RawMessage `json:"issuer"`
	Amount     json.RawMessage `json:"amount"`
	Link       json.RawMessage `json:"link"`
	EditorName json.RawMessage `json:"editor_name"`
}

func isNull(raw json.RawMessage) bool { return string(raw) == "null" }

func parseUpdateRequest(r *http.Request) (services.UpdateInput, string, validate.Errs) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.UpdateInput{}, "", validate.Errs{{Field: "body", Msg: "malformed JSON"}}
	}

	var in services.UpdateInput
	var errs validate.Errs

	if req.IssueDate != nil {
		if isNull(req.IssueDate) {
			errs = append(errs, validate.NotNull("issue_date"))
		} else {
			var s string
			if err := json.Unmarshal(req.IssueDate, &s); err != nil {
				errs = append(errs, validate.ErrField{Field: "issue_date", Msg: "must be a string"})
			} else if t, err := parseDate(s); err != nil {
				errs = append(errs, validate.ErrField{Field: "issue_date", Msg: "invalid date"})
			} else {
				in.IssueDate = &t
			}
		}
	}
	if req.Type != nil {
		if s, e := stringField("type", req.Type); e != nil {
			errs = append(errs, *e)
		} else {
			in.Type = s
		}
	}
	if req.Issuer != nil {
		if s, e := stringField("issuer", req.Issuer); e != nil {
			errs = append(errs, *e)
		} else {
			in.Issuer = s
		}
	}
	if req.Amount != nil {
		if isNull(req.Amount) {
			errs = append(errs, validate.NotNull("amount"))
		} else {
			var v float64
			if err := json.Unmarshal(req.Amount, &v); err != nil {
				errs = append(errs, validate.ErrField{Field: "amount", Msg: "must be a number"})
			} else {
				in.Amount = &v
			}
		}
	}
	if req.Link != nil {
		in.LinkSet = true
		if !isNull(req.Link) {
			var s string
			if err := json.Unmarshal(req.Link, &s); err != nil {
				errs = append(errs, validate.ErrField{Field: "link", Msg: "must be a string or null"})
			} else {
				in.Link = &s
			}
		}
	}

	var editor string
	if req.EditorName != nil && !isNull(req.EditorName) {
		if err := json.Unmarshal(req.EditorName, &editor); err != nil {
			errs = append(errs, validate.ErrField{Field: "editor_name", Msg: "must be a string"})
		}
	}
	return in, editor, errs
}

func stringField(field string, raw json.RawMessage) (*string, *validate.ErrField) {
	if isNull(raw) {
		e := validate.NotNull(field)
		return nil, &e
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &validate.ErrField{Field: field, Msg: "must be a string"}
	}
	return &s, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "invalid id", nil)
		return 0, false
	}
	return id, true
}

func queryFloat(v string) *float64 {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return &f
	}
	return nil
}

func queryInt(v string, def int) int {
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return def
}

func writeServiceError(w http.ResponseWriter, err error) {
	var verrs validate.Errs
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.NotFound(w, "emission not found")
	case errors.As(err, &verrs):
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid update payload", verrs)
	default:
		httpx.Internal(w)
	}
}

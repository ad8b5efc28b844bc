package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/index"
	"github.com/mtlprog/bienes/internal/inflation"
	"github.com/mtlprog/bienes/internal/store"
	"github.com/mtlprog/bienes/internal/valuation"
)

const maxBodyBytes = 1 << 20

// Store is the persistence the handlers read from and write to.
type Store interface {
	GetCompany(ctx context.Context, cuit string) (domain.Company, error)
	ListAssets(ctx context.Context, cuit string) ([]domain.Asset, error)
	ListIndices(ctx context.Context) ([]index.Observation, error)
	SaveIndices(ctx context.Context, obs []index.Observation) error
}

// Closer computes a company's fiscal close.
type Closer interface {
	Close(ctx context.Context, cuit, current, prior string) (valuation.Report, error)
}

// Handler provides HTTP endpoints for the valuation API.
type Handler struct {
	store  Store
	closer Closer
	cache  *registryCache
	now    func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s Store, closer Closer) *Handler {
	return &Handler{store: s, closer: closer, cache: newRegistryCache(), now: time.Now}
}

// GetCompany handles GET /api/v1/companies/{cuit}.
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	c, ok := h.company(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListAssets handles GET /api/v1/companies/{cuit}/assets?closing=DD/MM/YYYY.
// Without closing every asset is returned.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	closing := r.URL.Query().Get("closing")
	if closing != "" && !domain.ValidDate(closing) {
		writeError(w, http.StatusBadRequest, "invalid closing date, expected DD/MM/YYYY")
		return
	}

	c, ok := h.company(w, r)
	if !ok {
		return
	}

	assets, err := h.store.ListAssets(r.Context(), c.CUIT)
	if err != nil {
		slog.Error("failed to list assets", "cuit", c.CUIT, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, valuation.FilterByClosing(assets, closing))
}

// GetClose handles GET /api/v1/companies/{cuit}/close?closing=&prior=.
// Omitted dates default to the company's configured closings.
func (h *Handler) GetClose(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	current, prior := q.Get("closing"), q.Get("prior")
	for _, d := range []string{current, prior} {
		if d != "" && !domain.ValidDate(d) {
			writeError(w, http.StatusBadRequest, "invalid date "+d+", expected DD/MM/YYYY")
			return
		}
	}

	cuit := domain.NormalizeCUIT(chi.URLParam(r, "cuit"))
	report, err := h.closer.Close(r.Context(), cuit, current, prior)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "company not found")
		case errors.Is(err, domain.ErrInvalidDate), errors.Is(err, domain.ErrClosingOrder):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("failed to compute close", "cuit", cuit, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListIndices handles GET /api/v1/indices.
func (h *Handler) ListIndices(w http.ResponseWriter, r *http.Request) {
	obs, err := h.store.ListIndices(r.Context())
	if err != nil {
		slog.Error("failed to list indices", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, lo.Ternary(obs == nil, []index.Observation{}, obs))
}

type indexRequest struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
	Note  string          `json:"note"`
}

// PutIndex handles PUT /api/v1/indices. It stores one observation, replacing any
// value already recorded for the same month.
func (h *Handler) PutIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !domain.ValidDate(req.Date) {
		writeError(w, http.StatusBadRequest, "invalid date, expected DD/MM/YYYY")
		return
	}
	if req.Value.IsNegative() {
		writeError(w, http.StatusBadRequest, "index value must not be negative")
		return
	}

	obs := index.Observation{Date: req.Date, Value: req.Value, Note: req.Note, LoadedAt: h.now().UTC()}
	if err := h.store.SaveIndices(r.Context(), []index.Observation{obs}); err != nil {
		slog.Error("failed to save index", "date", req.Date, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.cache.invalidate()
	writeJSON(w, http.StatusOK, obs)
}

type coefficientResponse struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Coefficient decimal.Decimal `json:"coefficient"`
}

// GetCoefficient handles GET /api/v1/indices/coefficient?from=&to=.
func (h *Handler) GetCoefficient(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if !domain.ValidDate(from) || !domain.ValidDate(to) {
		writeError(w, http.StatusBadRequest, "from and to must be DD/MM/YYYY dates")
		return
	}

	reg, err := h.registry(r.Context())
	if err != nil {
		slog.Error("failed to load indices", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	coef, err := reg.Coefficient(from, to)
	if err != nil {
		var missing *index.MissingIndexError
		switch {
		case errors.As(err, &missing):
			writeJSON(w, http.StatusNotFound, inflation.Failure{
				Message:      err.Error(),
				MissingDates: []string{missing.Date},
				ReferenceURL: inflation.ReferenceURL,
			})
		case errors.Is(err, index.ErrZeroOriginIndex):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, coefficientResponse{From: from, To: to, Coefficient: domain.RoundCoefficient(coef)})
}

type missingRequest struct {
	Dates []string `json:"dates"`
}

type missingResponse struct {
	Missing      []string `json:"missing"`
	ReferenceURL string   `json:"referenceUrl"`
}

// MissingIndices handles POST /api/v1/indices/missing with body {"dates": [...]}.
func (h *Handler) MissingIndices(w http.ResponseWriter, r *http.Request) {
	var req missingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if bad, found := lo.Find(req.Dates, func(d string) bool { return !domain.ValidDate(d) }); found {
		writeError(w, http.StatusBadRequest, "invalid date "+bad+", expected DD/MM/YYYY")
		return
	}

	reg, err := h.registry(r.Context())
	if err != nil {
		slog.Error("failed to load indices", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	missing := reg.MissingDates(req.Dates)
	writeJSON(w, http.StatusOK, missingResponse{
		Missing:      lo.Ternary(missing == nil, []string{}, missing),
		ReferenceURL: inflation.ReferenceURL,
	})
}

// company loads the company named in the path, writing the error response itself.
func (h *Handler) company(w http.ResponseWriter, r *http.Request) (domain.Company, bool) {
	cuit := domain.NormalizeCUIT(chi.URLParam(r, "cuit"))
	c, err := h.store.GetCompany(r.Context(), cuit)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "company not found")
			return domain.Company{}, false
		}
		slog.Error("failed to get company", "cuit", cuit, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return domain.Company{}, false
	}
	return c, true
}

func (h *Handler) registry(ctx context.Context) (*index.Registry, error) {
	if reg, ok := h.cache.get(); ok {
		return reg, nil
	}
	obs, err := h.store.ListIndices(ctx)
	if err != nil {
		return nil, err
	}
	reg := index.NewRegistry()
	for _, o := range obs {
		reg.Restore(o)
	}
	h.cache.set(reg)
	return reg, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

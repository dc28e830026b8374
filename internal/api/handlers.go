package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/idea-validator/internal/domain"
	"github.com/ignite/idea-validator/internal/pkg/httputil"
	"github.com/ignite/idea-validator/internal/pkg/logger"
	"github.com/ignite/idea-validator/internal/service/validation"
)

// backgroundBudget caps one background processing run: scraping deadline
// plus enrichment plus persistence headroom.
const backgroundBudget = 10 * time.Minute

// PhaseReader exposes the stored progress phase for a job.
type PhaseReader interface {
	GetPhase(ctx context.Context, jobID string) (string, error)
}

// Handlers holds the HTTP handlers for the validation API.
type Handlers struct {
	svc    *validation.Service
	phases PhaseReader
}

// NewHandlers creates the handler set. phases may be nil when Redis is not
// configured.
func NewHandlers(svc *validation.Service, phases PhaseReader) *Handlers {
	return &Handlers{svc: svc, phases: phases}
}

// HealthCheck reports liveness and the registered sources.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":  "ok",
		"sources": h.svc.Sources(),
	})
}

// ListSources returns the registered scraper names.
func (h *Handlers) ListSources(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"sources": h.svc.Sources()})
}

type createRequest struct {
	IdeaText string `json:"idea_text"`
}

type validationResponse struct {
	*domain.Validation
	Phase string `json:"phase,omitempty"`
}

// CreateValidation accepts an idea, stores it and starts processing in the
// background. The response carries the ID to poll.
func (h *Handlers) CreateValidation(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	v, err := h.svc.Create(r.Context(), req.IdeaText)
	if err != nil {
		if errors.Is(err, validation.ErrIdeaTooShort) || errors.Is(err, validation.ErrIdeaTooLong) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}

	h.processInBackground(v.ID)
	httputil.Created(w, validationResponse{Validation: v, Phase: "queued"})
}

// ProcessValidation re-runs processing for an existing job, used to retry
// failed runs.
func (h *Handlers) ProcessValidation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	v, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, validation.ErrNotFound) {
			httputil.NotFound(w, "validation not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	if v.Status == domain.ValidationProcessing {
		httputil.Conflict(w, "validation is already being processed")
		return
	}

	h.processInBackground(id)
	httputil.Accepted(w, map[string]string{"id": id, "status": string(domain.ValidationProcessing)})
}

// GetValidation returns a job's lifecycle record plus, for non-terminal
// jobs, the stored progress phase.
func (h *Handlers) GetValidation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	v, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, validation.ErrNotFound) {
			httputil.NotFound(w, "validation not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	resp := validationResponse{Validation: v}
	if h.phases != nil && (v.Status == domain.ValidationPending || v.Status == domain.ValidationProcessing) {
		if phase, err := h.phases.GetPhase(r.Context(), id); err == nil {
			resp.Phase = phase
		}
	}
	httputil.OK(w, resp)
}

// GetResults returns the stored aggregate for a finished job. Jobs still in
// flight answer 202 with the current status.
func (h *Handlers) GetResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	v, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, validation.ErrNotFound) {
			httputil.NotFound(w, "validation not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	if v.Status == domain.ValidationPending || v.Status == domain.ValidationProcessing {
		httputil.Accepted(w, map[string]string{"id": id, "status": string(v.Status)})
		return
	}

	result, err := h.svc.Results(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if result == nil {
		httputil.NotFound(w, "no results stored for this validation")
		return
	}
	httputil.OK(w, map[string]any{
		"id":      id,
		"status":  v.Status,
		"results": result,
	})
}

func (h *Handlers) processInBackground(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundBudget)
		defer cancel()
		if err := h.svc.Process(ctx, id); err != nil && !errors.Is(err, validation.ErrAlreadyProcessing) {
			logger.Error("background processing failed", "job_id", id, "error", err.Error())
		}
	}()
}

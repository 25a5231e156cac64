package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/bisbm-service/pkg/parser"
	"github.com/gilchrisn/bisbm-service/pkg/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	jobService     *service.JobService
	maxUploadBytes int64
}

// NewHandlers creates a new handlers instance. Request bodies larger than
// maxUploadBytes are rejected; zero disables the limit.
func NewHandlers(jobService *service.JobService, maxUploadBytes int64) *Handlers {
	return &Handlers{
		jobService:     jobService,
		maxUploadBytes: maxUploadBytes,
	}
}

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Service is healthy", map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"active_jobs": h.jobService.ActiveJobs(),
	})
}

// ListFormats handles GET /api/v1/formats
func (h *Handlers) ListFormats(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Supported graph formats", parser.Formats())
}

// SubmitJob handles POST /api/v1/jobs
func (h *Handlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	var req service.JobRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large", err)
			return
		}
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid JSON in request body", err)
		return
	}

	job, err := h.jobService.Submit(req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			WriteErrorResponse(w, http.StatusBadRequest, "Invalid job request", err)
			return
		}
		log.Error().Err(err).Msg("Failed to submit job")
		WriteErrorResponse(w, http.StatusInternalServerError, "Failed to submit job", err)
		return
	}

	WriteResponse(w, http.StatusAccepted, "Job queued", job)
}

// ListJobs handles GET /api/v1/jobs
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Jobs retrieved", h.jobService.List())
}

// GetJob handles GET /api/v1/jobs/{jobId}
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.jobService.Get(jobID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccessResponse(w, "Job retrieved", job)
}

// GetJobResult handles GET /api/v1/jobs/{jobId}/result
func (h *Handlers) GetJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	result, err := h.jobService.GetResult(jobID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccessResponse(w, "Result retrieved", result)
}

// CancelJob handles DELETE /api/v1/jobs/{jobId}
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.jobService.Cancel(jobID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccessResponse(w, "Job cancelled", job)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		WriteErrorResponse(w, http.StatusNotFound, "Job not found", err)
	case errors.Is(err, service.ErrResultNotReady):
		WriteErrorResponse(w, http.StatusNotFound, "Result not available", err)
	default:
		WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error", err)
	}
}

package server

import (
	"net/http"
	"strings"

	"github.com/toonana/toonana/editor"
	"github.com/toonana/toonana/logger"
	"github.com/toonana/toonana/studio"
)

type createJobRequest struct {
	EntryID string `json:"entry_id"`
	Style   string `json:"style,omitempty"`
}

// jobResponse pairs the raw status with its reduced display state so
// thin clients don't reimplement the stage mapping.
type jobResponse struct {
	Status  studio.JobStatus    `json:"status"`
	Display editor.DisplayState `json:"display"`
}

func newJobResponse(status studio.JobStatus) jobResponse {
	return jobResponse{Status: status, Display: editor.ReduceStage(status.Stage)}
}

// HandleCreateJob serves POST /api/jobs.
func (s *Server) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req createJobRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if req.EntryID == "" {
		writeError(w, http.StatusBadRequest, "entry_id is required")
		return
	}

	status, err := s.studio.CreateJob(r.Context(), req.EntryID, req.Style)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	logger.Infow("job started via API",
		logger.FieldJobID, shortID(status.JobID),
		logger.FieldEntryID, shortID(status.EntryID))
	writeJSON(w, http.StatusCreated, newJobResponse(status))
}

// HandleJob serves GET /api/jobs/{id} (status) and DELETE /api/jobs/{id}
// (cancel).
func (s *Server) HandleJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		status, err := s.studio.Status(id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newJobResponse(status))
	case http.MethodDelete:
		if err := s.studio.Cancel(id); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"cancelled": id})
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

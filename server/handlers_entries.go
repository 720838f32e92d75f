package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/toonana/toonana/errors"
	"github.com/toonana/toonana/journal"
	"github.com/toonana/toonana/logger"
)

// HandleEntries serves GET /api/entries (list) and POST /api/entries
// (create or update).
func (s *Server) HandleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListEntries(w, r)
	case http.MethodPost:
		s.handleUpsertEntry(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	summaries, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": summaries})
}

func (s *Server) handleUpsertEntry(w http.ResponseWriter, r *http.Request) {
	var draft journal.Draft
	if err := readJSON(w, r, &draft); err != nil {
		return
	}

	entry, err := s.store.Upsert(r.Context(), draft)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	logger.Debugw("entry saved", logger.FieldEntryID, shortID(entry.ID))
	writeJSON(w, http.StatusOK, entry)
}

// HandleEntry serves /api/entries/{id} and /api/entries/{id}/panels.
func (s *Server) HandleEntry(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/entries/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "missing entry id")
		return
	}
	id := parts[0]

	if len(parts) == 2 && parts[1] == "panels" {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		s.handleEntryPanels(w, r, id)
		return
	}
	if len(parts) > 1 {
		writeError(w, http.StatusNotFound, "unknown entry resource")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetEntry(w, r, id)
	case http.MethodDelete:
		s.handleDeleteEntry(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request, id string) {
	entry, err := s.store.Get(r.Context(), id)
	if errors.Is(err, errors.ErrDecode) {
		// A corrupt body must not make the entry unreachable.
		logger.Warnw("entry body failed to decode, serving empty body",
			logger.FieldEntryID, shortID(id),
			logger.FieldError, err)
		writeJSON(w, http.StatusOK, &journal.Entry{ID: id})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	logger.Infow("entry deleted", logger.FieldEntryID, shortID(id))
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleEntryPanels(w http.ResponseWriter, r *http.Request, id string) {
	panels, err := s.store.Panels(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"panels": panels})
}

// HandleComicDays serves GET /api/comics/days.
func (s *Server) HandleComicDays(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	days, err := s.store.ComicsByDay(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

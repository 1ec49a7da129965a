package http

import (
	"fmt"
	"net/http"

	"tempo/internal/core"
	"tempo/internal/export"
)

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	recs, err := s.activities.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []core.ActivityRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.activities.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	in, err := parseActivityInput(r, s.insights.Today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.activities.Create(r.Context(), in.Date, in.Activity, in.DurationMinutes, in.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/activities/%d", rec.ID))
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := parseActivityInput(r, s.insights.Today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.activities.Update(r.Context(), id, in.Date, in.Activity, in.DurationMinutes, in.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.activities.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivityNames(w http.ResponseWriter, r *http.Request) {
	names, err := s.activities.Names(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	recs, err := s.activities.List(r.Context(), "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("activities_%s.csv", s.insights.Today().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := export.WriteCSV(w, recs); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

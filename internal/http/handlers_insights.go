package http

import (
	"net/http"
	"strings"

	"tempo/internal/core"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriodParam(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.insights.Summary(r.Context(), period)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleReport serves the report as JSON, or as plain text with format=text.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	period, err := ParsePeriodParam(query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.insights.Report(r.Context(), period)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if strings.EqualFold(query.Get("format"), "text") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := doc.WriteText(w); err != nil {
			s.logger.ErrorContext(r.Context(), "Report write failed", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDailySeries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	end, err := ParseDateParam(query, "end", core.Date{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	days, err := ParseIntParam(query, "days", s.insights.WindowDays())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	series, err := s.insights.Daily(r.Context(), end, days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// handleDistribution defaults to the trend window ending today.
func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	end, err := ParseDateParam(query, "end", s.insights.Today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	start, err := ParseDateParam(query, "start", end.AddDays(-(s.insights.WindowDays() - 1)))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	top, err := ParseIntParam(query, "top", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dist, err := s.insights.Distribution(r.Context(), start, end, top)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dist)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.insights.Overview(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	total, err := s.insights.TodayTotal(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, total)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriodParam(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dash, err := s.insights.Dashboard(r.Context(), period)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

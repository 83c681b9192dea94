package http

import (
	"net/http"
	"strconv"

	"finanzas/internal/core"
)

type analysisRequest struct {
	Type         string `json:"type"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

func (s *Server) handleRequestAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if !decodeBody(w, r, &req) {
		return
	}

	analysis, err := s.analyses.Request(r.Context(), ownerID(r),
		core.AnalysisType(sanitizeInput(req.Type)), sanitizeInput(req.CustomPrompt))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	// 202: the result arrives asynchronously, poll GET /api/analyses/{id}
	writeJSON(w, http.StatusAccepted, analysis)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	analyses, err := s.analyses.List(r.Context(), ownerID(r), limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"analyses": analyses,
		"count":    len(analyses),
	})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.analyses.Get(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

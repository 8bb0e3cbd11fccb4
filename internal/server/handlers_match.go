package server

import (
	"net/http"

	"github.com/jonathan/internx-match/internal/types"
)

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	var req types.RecomputeRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		s.serviceError(w, r, err)
		return
	}

	summary, err := s.matches.ComputeForAll(r.Context(), callerOf(r), req.CandidateID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

func (s *Server) handleListMatchScores(w http.ResponseWriter, r *http.Request) {
	candidateID, err := queryUUID(r, "candidateId")
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	scores, err := s.matches.List(r.Context(), callerOf(r), candidateID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, scores)
}

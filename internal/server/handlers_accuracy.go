package server

import (
	"net/http"

	"github.com/jonathan/internx-match/internal/types"
)

func (s *Server) handleRecordValidation(w http.ResponseWriter, r *http.Request) {
	var req types.RecordValidationRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		s.serviceError(w, r, err)
		return
	}

	record, err := s.accuracy.Record(r.Context(), callerOf(r), &req)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, record)
}

func (s *Server) handleListValidations(w http.ResponseWriter, r *http.Request) {
	candidateID, err := queryUUID(r, "candidateId")
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	records, err := s.accuracy.List(r.Context(), callerOf(r), types.ValidationFilter{
		CandidateID: candidateID,
		Category:    r.URL.Query().Get("category"),
		Limit:       limit,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, records)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	period, err := queryInt(r, "period")
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	report, err := s.accuracy.Metrics(r.Context(), callerOf(r), period, r.URL.Query().Get("category"))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req types.FeedbackRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		s.serviceError(w, r, err)
		return
	}

	entry, err := s.accuracy.SubmitFeedback(r.Context(), callerOf(r), &req)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, entry)
}

func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	period, err := queryInt(r, "period")
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	entries, err := s.accuracy.ListFeedback(r.Context(), callerOf(r), period)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, entries)
}

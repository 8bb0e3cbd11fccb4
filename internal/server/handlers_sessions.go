package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/types"
)

type startSessionResponse struct {
	SessionID uuid.UUID               `json:"sessionId"`
	Resumed   bool                    `json:"resumed"`
	Session   *types.InterviewSession `json:"session"`
}

type completeSessionResponse struct {
	SessionID    uuid.UUID          `json:"sessionId"`
	OverallScore *float64           `json:"overallScore"`
	SkillScores  map[string]float64 `json:"skillScores"`
	Strengths    []string           `json:"strengths"`
	Improvements []string           `json:"improvements"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req types.StartSessionRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		s.serviceError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.serviceError(w, r, err)
		return
	}
	caller := callerOf(r)
	if err := requireSelf(caller, req.CandidateID); err != nil {
		s.serviceError(w, r, err)
		return
	}

	session, resumed, err := s.sessions.StartOrResume(r.Context(), caller, req.Metadata())
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if resumed {
		status = http.StatusOK
	}
	s.jsonResponse(w, status, startSessionResponse{SessionID: session.ID, Resumed: resumed, Session: session})
}

func (s *Server) handleRestartSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	var req types.RestartSessionRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		s.serviceError(w, r, err)
		return
	}
	caller := callerOf(r)
	if err := requireSelf(caller, req.CandidateID); err != nil {
		s.serviceError(w, r, err)
		return
	}

	fresh, err := s.sessions.Restart(r.Context(), caller, id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]uuid.UUID{"sessionId": fresh.ID})
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	var req types.CompleteSessionRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		s.serviceError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.serviceError(w, r, err)
		return
	}

	session, err := s.sessions.Complete(r.Context(), callerOf(r), id, req.Responses)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, completeSessionResponse{
		SessionID:    session.ID,
		OverallScore: session.OverallScore,
		SkillScores:  session.SkillScores,
		Strengths:    session.Strengths,
		Improvements: session.Improvements,
	})
}

// handleRescoreSession re-rates the caller's latest completed session.
func (s *Server) handleRescoreSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Rescore(r.Context(), callerOf(r))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, completeSessionResponse{
		SessionID:    session.ID,
		OverallScore: session.OverallScore,
		SkillScores:  session.SkillScores,
		Strengths:    session.Strengths,
		Improvements: session.Improvements,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.ListByType(r.Context(), callerOf(r), r.URL.Query().Get("interviewType"))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sessions)
}

func (s *Server) handleLatestSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Latest(r.Context(), callerOf(r))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, session)
}

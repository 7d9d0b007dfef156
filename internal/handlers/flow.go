package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/flow"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/transport"
)

// StartFlowSession opens a step-by-step booking session for a business.
func (s *Server) StartFlowSession(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := s.Flow.Start(ctx, businessID)
	if err != nil {
		writeBookingError(w, log, "flow start", err)
		return
	}

	log.Info("flow start: ok", slog.String("session_id", session.ID))
	transport.WriteJSON(w, http.StatusCreated, session)
}

func (s *Server) GetFlowSession(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "sessionId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := s.Flow.Get(ctx, id)
	if err != nil {
		writeBookingError(w, log, "flow get", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, session)
}

// SubmitFlowSession applies one step's payload and returns the advanced
// session. A rejected payload leaves the session where it was.
func (s *Server) SubmitFlowSession(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "sessionId")

	var in flow.Input
	if err := decodeJSON(r, &in); err != nil {
		log.Warn("flow submit: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	session, err := s.Flow.Submit(ctx, id, in)
	if err != nil {
		writeBookingError(w, log, "flow submit", err)
		return
	}

	if session.Step == flow.StepCompleted && session.ProfessionalID != "" {
		s.invalidateAvailability(r.Context(), session.ProfessionalID)
	}

	log.Info("flow submit: ok",
		slog.String("session_id", session.ID),
		slog.String("step", string(session.Step)),
	)
	transport.WriteJSON(w, http.StatusOK, session)
}

func (s *Server) BackFlowSession(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "sessionId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := s.Flow.Back(ctx, id)
	if err != nil {
		writeBookingError(w, log, "flow back", err)
		return
	}

	log.Info("flow back: ok",
		slog.String("session_id", session.ID),
		slog.String("step", string(session.Step)),
	)
	transport.WriteJSON(w, http.StatusOK, session)
}

func (s *Server) AbandonFlowSession(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "sessionId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.Flow.Abandon(ctx, id); err != nil {
		writeBookingError(w, log, "flow abandon", err)
		return
	}

	log.Info("flow abandon: ok", slog.String("session_id", id))
	w.WriteHeader(http.StatusNoContent)
}

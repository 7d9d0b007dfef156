package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/booking"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/clients"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/transport"
)

type CreateAppointmentRequest struct {
	Name           string `json:"name" validate:"required"`
	Phone          string `json:"phone" validate:"required,phone"`
	ServiceID      string `json:"serviceId" validate:"required"`
	ProfessionalID string `json:"professionalId" validate:"required"`
	Date           string `json:"date" validate:"required,date"`
	Time           string `json:"time" validate:"required,clock"`
	BirthDate      string `json:"birthDate" validate:"omitempty,date"`
	HealthPlan     string `json:"healthPlan"`
}

// CreateAppointment is the direct booking endpoint for integrations that do
// not drive the step-by-step flow. The client record is upserted by phone
// before the reservation commits.
func (s *Server) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")

	var req CreateAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("appointments create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("appointments create: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	client, err := s.Clients.Upsert(ctx, businessID, clients.UpsertInput{
		Name:       req.Name,
		Phone:      req.Phone,
		BirthDate:  req.BirthDate,
		HealthPlan: req.HealthPlan,
	})
	if err != nil {
		writeBookingError(w, log, "appointments create", err)
		return
	}

	appt, err := s.Booking.Reserve(ctx, booking.ReserveInput{
		BusinessID:     businessID,
		ClientID:       client.ID,
		ServiceID:      req.ServiceID,
		ProfessionalID: req.ProfessionalID,
		Date:           req.Date,
		Time:           req.Time,
	})
	if err != nil {
		writeBookingError(w, log, "appointments create", err)
		return
	}

	s.invalidateAvailability(r.Context(), appt.ProfessionalID)

	log.Info("appointments create: booked",
		slog.String("appointment_id", appt.ID),
		slog.String("service_id", appt.ServiceID),
		slog.String("date", appt.Date),
		slog.String("time", appt.Time),
	)
	transport.WriteJSON(w, http.StatusCreated, appt)
}

type RescheduleAppointmentRequest struct {
	Date string `json:"date" validate:"required,date"`
	Time string `json:"time" validate:"required,clock"`
}

func (s *Server) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		log.Warn("appointments reschedule: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req RescheduleAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("appointments reschedule: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("appointments reschedule: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appt, err := s.Booking.Reschedule(ctx, id, req.Date, req.Time)
	if err != nil {
		writeBookingError(w, log, "appointments reschedule", err)
		return
	}

	s.invalidateAvailability(r.Context(), appt.ProfessionalID)

	log.Info("appointments reschedule: ok",
		slog.String("appointment_id", id),
		slog.String("new_appointment_id", appt.ID),
		slog.String("date", appt.Date),
		slog.String("time", appt.Time),
	)
	transport.WriteJSON(w, http.StatusOK, appt)
}

func (s *Server) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		log.Warn("appointments cancel: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appt, err := s.Booking.GetAppointment(ctx, id)
	if err != nil {
		writeBookingError(w, log, "appointments cancel", err)
		return
	}
	if err := s.Booking.Cancel(ctx, id); err != nil {
		writeBookingError(w, log, "appointments cancel", err)
		return
	}

	s.invalidateAvailability(r.Context(), appt.ProfessionalID)

	log.Info("appointments cancel: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
}

type LookupAppointmentRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
}

// LookupAppointment resolves a phone number to the client's current
// scheduled appointment, if any.
func (s *Server) LookupAppointment(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")

	var req LookupAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("appointments lookup: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("appointments lookup: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	client, err := s.Clients.FindByPhone(ctx, businessID, req.Phone)
	if err != nil {
		writeBookingError(w, log, "appointments lookup", err)
		return
	}

	appt, err := s.Booking.GetActiveAppointment(ctx, client.ID)
	if err != nil {
		writeBookingError(w, log, "appointments lookup", err)
		return
	}
	if appt == nil {
		log.Info("appointments lookup: no active appointment", slog.String("client_id", client.ID))
		transport.WriteError(w, http.StatusNotFound, "no active appointment", nil)
		return
	}

	log.Info("appointments lookup: ok", slog.String("appointment_id", appt.ID))
	transport.WriteJSON(w, http.StatusOK, appt)
}

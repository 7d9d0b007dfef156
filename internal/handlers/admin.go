package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/booking"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/httpx"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/transport"
)

type AdminServiceRequest struct {
	Name            string   `json:"name" validate:"required"`
	DurationMinutes int      `json:"durationMinutes" validate:"required,duration"`
	Price           int      `json:"price" validate:"gte=0"`
	Status          string   `json:"status" validate:"required,oneof=active inactive"`
	ProfessionalIDs []string `json:"professionalIds" validate:"omitempty,dive,required"`
	HealthPlans     []string `json:"healthPlans" validate:"omitempty,dive,required"`
}

func (s *Server) AdminCreateService(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")

	var req AdminServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin services create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin services create: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	service := models.Service{
		ID:              primitive.NewObjectID().Hex(),
		BusinessID:      businessID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Status:          req.Status,
		ProfessionalIDs: req.ProfessionalIDs,
		HealthPlans:     req.HealthPlans,
		CreatedAt:       time.Now().In(s.Cfg.Timezone),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.Cols.Services.InsertOne(ctx, service); err != nil {
		log.Error("admin services create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin services create: ok", slog.String("service_id", service.ID))
	transport.WriteJSON(w, http.StatusCreated, service)
}

func (s *Server) AdminUpdateService(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")
	id := chi.URLParam(r, "id")

	var req AdminServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin services update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin services update: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	update := bson.M{"$set": bson.M{
		"name":            req.Name,
		"durationMinutes": req.DurationMinutes,
		"price":           req.Price,
		"status":          req.Status,
		"professionalIds": req.ProfessionalIDs,
		"healthPlans":     req.HealthPlans,
	}}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := s.Cols.Services.UpdateOne(ctx, bson.M{"_id": id, "businessId": businessID}, update)
	if err != nil {
		log.Error("admin services update: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if res.MatchedCount == 0 {
		log.Warn("admin services update: not found", slog.String("service_id", id))
		transport.WriteError(w, http.StatusNotFound, "service not found", nil)
		return
	}

	// Duration or status changes reshape every professional's slot grid.
	if s.Cache != nil {
		_ = s.Cache.DeletePrefix(r.Context(), "availability:")
	}

	log.Info("admin services update: ok", slog.String("service_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type AdminProfessionalRequest struct {
	Name      string               `json:"name" validate:"required"`
	Status    string               `json:"status" validate:"required,oneof=active inactive"`
	WorkHours *models.WeekSchedule `json:"workHours"`
}

func (s *Server) AdminCreateProfessional(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")

	var req AdminProfessionalRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin professionals create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin professionals create: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}
	if req.WorkHours != nil {
		if field, ok := validateWeekSchedule(*req.WorkHours); !ok {
			log.Warn("admin professionals create: invalid work hours", slog.String("field", field))
			transport.WriteError(w, http.StatusBadRequest, "invalid work hours", map[string]string{field: "invalid"})
			return
		}
	}

	professional := models.Professional{
		ID:         primitive.NewObjectID().Hex(),
		BusinessID: businessID,
		Name:       req.Name,
		Status:     req.Status,
		WorkHours:  req.WorkHours,
		CreatedAt:  time.Now().In(s.Cfg.Timezone),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.Cols.Professionals.InsertOne(ctx, professional); err != nil {
		log.Error("admin professionals create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin professionals create: ok", slog.String("professional_id", professional.ID))
	transport.WriteJSON(w, http.StatusCreated, professional)
}

func (s *Server) AdminUpdateProfessional(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")
	id := chi.URLParam(r, "id")

	var req AdminProfessionalRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin professionals update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin professionals update: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}
	if req.WorkHours != nil {
		if field, ok := validateWeekSchedule(*req.WorkHours); !ok {
			log.Warn("admin professionals update: invalid work hours", slog.String("field", field))
			transport.WriteError(w, http.StatusBadRequest, "invalid work hours", map[string]string{field: "invalid"})
			return
		}
	}

	set := bson.M{
		"name":   req.Name,
		"status": req.Status,
	}
	update := bson.M{"$set": set}
	if req.WorkHours != nil {
		set["workHours"] = req.WorkHours
	} else {
		update["$unset"] = bson.M{"workHours": ""}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := s.Cols.Professionals.UpdateOne(ctx, bson.M{"_id": id, "businessId": businessID}, update)
	if err != nil {
		log.Error("admin professionals update: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if res.MatchedCount == 0 {
		log.Warn("admin professionals update: not found", slog.String("professional_id", id))
		transport.WriteError(w, http.StatusNotFound, "professional not found", nil)
		return
	}

	s.invalidateAvailability(r.Context(), id)

	log.Info("admin professionals update: ok", slog.String("professional_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type AdminScheduleRequest struct {
	Schedule models.WeekSchedule `json:"schedule"`
}

// AdminUpdateSchedule replaces the business's weekly opening hours.
func (s *Server) AdminUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")

	var req AdminScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin schedule update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if field, ok := validateWeekSchedule(req.Schedule); !ok {
		log.Warn("admin schedule update: invalid schedule", slog.String("field", field))
		transport.WriteError(w, http.StatusBadRequest, "invalid schedule", map[string]string{field: "invalid"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := s.Cols.Businesses.UpdateOne(ctx,
		bson.M{"_id": businessID},
		bson.M{"$set": bson.M{"schedule": req.Schedule}},
	)
	if err != nil {
		log.Error("admin schedule update: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if res.MatchedCount == 0 {
		log.Warn("admin schedule update: not found", slog.String("business_id", businessID))
		transport.WriteError(w, http.StatusNotFound, "business not found", nil)
		return
	}

	if s.Cache != nil {
		_ = s.Cache.DeletePrefix(r.Context(), "availability:")
	}

	log.Info("admin schedule update: ok", slog.String("business_id", businessID))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type AdminBlockRequest struct {
	ProfessionalID string    `json:"professionalId"`
	StartAt        time.Time `json:"startAt" validate:"required"`
	EndAt          time.Time `json:"endAt" validate:"required"`
	Reason         string    `json:"reason"`
}

func (s *Server) AdminCreateBlock(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")

	var req AdminBlockRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin blocks create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin blocks create: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}
	if !req.EndAt.After(req.StartAt) {
		log.Warn("admin blocks create: empty range")
		transport.WriteError(w, http.StatusBadRequest, "endAt must be after startAt", nil)
		return
	}

	block := models.BlockedRange{
		ID:             primitive.NewObjectID().Hex(),
		BusinessID:     businessID,
		ProfessionalID: req.ProfessionalID,
		StartAt:        req.StartAt,
		EndAt:          req.EndAt,
		Reason:         req.Reason,
		CreatedAt:      time.Now().In(s.Cfg.Timezone),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.Cols.BlockedRanges.InsertOne(ctx, block); err != nil {
		log.Error("admin blocks create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if block.ProfessionalID != "" {
		s.invalidateAvailability(r.Context(), block.ProfessionalID)
	} else if s.Cache != nil {
		_ = s.Cache.DeletePrefix(r.Context(), "availability:")
	}

	log.Info("admin blocks create: ok",
		slog.String("block_id", block.ID),
		slog.String("professional_id", block.ProfessionalID),
	)
	transport.WriteJSON(w, http.StatusCreated, block)
}

func (s *Server) AdminListBlocks(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := s.Cols.BlockedRanges.Find(ctx,
		bson.M{"businessId": businessID},
		options.Find().SetSort(bson.D{{Key: "startAt", Value: 1}}),
	)
	if err != nil {
		log.Error("admin blocks list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	blocks := []models.BlockedRange{}
	if err := cursor.All(ctx, &blocks); err != nil {
		log.Error("admin blocks list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"blocks": blocks})
}

func (s *Server) AdminDeleteBlock(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var block models.BlockedRange
	err := s.Cols.BlockedRanges.FindOneAndDelete(ctx, bson.M{"_id": id, "businessId": businessID}).Decode(&block)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("admin blocks delete: not found", slog.String("block_id", id))
			transport.WriteError(w, http.StatusNotFound, "block not found", nil)
			return
		}
		log.Error("admin blocks delete: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if block.ProfessionalID != "" {
		s.invalidateAvailability(r.Context(), block.ProfessionalID)
	} else if s.Cache != nil {
		_ = s.Cache.DeletePrefix(r.Context(), "availability:")
	}

	log.Info("admin blocks delete: ok", slog.String("block_id", id))
	w.WriteHeader(http.StatusNoContent)
}

type AdminAppointmentsQuery struct {
	Date           string `validate:"omitempty,date"`
	ProfessionalID string
	Status         string `validate:"omitempty,oneof=scheduled completed canceled"`
}

func (s *Server) AdminListAppointments(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")
	q := AdminAppointmentsQuery{
		Date:           r.URL.Query().Get("date"),
		ProfessionalID: r.URL.Query().Get("professionalId"),
		Status:         r.URL.Query().Get("status"),
	}
	if err := s.Val.Struct(q); err != nil {
		log.Warn("admin appointments list: invalid query")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
		return
	}

	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 50, 200)
	if err != nil {
		log.Warn("admin appointments list: invalid pagination")
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := bson.M{"businessId": businessID}
	if q.Date != "" {
		filter["date"] = q.Date
	}
	if q.ProfessionalID != "" {
		filter["professionalId"] = q.ProfessionalID
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := s.Cols.Appointments.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}}).
			SetLimit(limit).
			SetSkip(offset),
	)
	if err != nil {
		log.Error("admin appointments list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	appointments := []models.Appointment{}
	if err := cursor.All(ctx, &appointments); err != nil {
		log.Error("admin appointments list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"appointments": appointments})
}

type AdminAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=completed canceled"`
}

// AdminUpdateAppointmentStatus closes out an appointment. Only scheduled
// appointments can change state; the transition to completed is admin-only.
func (s *Server) AdminUpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")
	id := chi.URLParam(r, "id")

	var req AdminAppointmentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("admin appointments status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("admin appointments status: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if req.Status == models.AppointmentStatusCanceled {
		// Canceling goes through the booking core so the retraction
		// notification fires, same as a client-initiated cancel.
		appt, err := s.Booking.GetAppointment(ctx, id)
		if err != nil || appt.BusinessID != businessID {
			log.Warn("admin appointments status: not found", slog.String("appointment_id", id))
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
			return
		}
		if err := s.Booking.Cancel(ctx, id); err != nil {
			if errors.Is(err, booking.ErrInvalidInput) {
				log.Warn("admin appointments status: not scheduled", slog.String("appointment_id", id))
				transport.WriteError(w, http.StatusConflict, "appointment is not scheduled", nil)
				return
			}
			log.Error("admin appointments status: cancel failed", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
			return
		}
		s.invalidateAvailability(r.Context(), appt.ProfessionalID)
	} else {
		// Completing keeps the slot occupied in history and sends
		// nothing outward, so a direct status flip is enough.
		res, err := s.Cols.Appointments.UpdateOne(ctx,
			bson.M{"_id": id, "businessId": businessID, "status": models.AppointmentStatusScheduled},
			bson.M{"$set": bson.M{"status": req.Status}},
		)
		if err != nil {
			log.Error("admin appointments status: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
			return
		}
		if res.MatchedCount == 0 {
			log.Warn("admin appointments status: not scheduled or not found", slog.String("appointment_id", id))
			transport.WriteError(w, http.StatusConflict, "appointment is not scheduled", nil)
			return
		}
	}

	log.Info("admin appointments status: ok",
		slog.String("appointment_id", id),
		slog.String("status", req.Status),
	)
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// validateWeekSchedule checks interval bounds per day and rejects intervals
// that overlap within a day. Returns the offending field name on failure.
func validateWeekSchedule(week models.WeekSchedule) (string, bool) {
	days := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	for i, day := range week {
		for _, iv := range day.Intervals {
			if iv.Start < 0 || iv.End > 1440 || iv.Start >= iv.End {
				return days[i], false
			}
		}
		sorted := make([]models.WorkInterval, len(day.Intervals))
		copy(sorted, day.Intervals)
		sort.Slice(sorted, func(a, b int) bool { return sorted[a].Start < sorted[b].Start })
		for j := 1; j < len(sorted); j++ {
			if sorted[j].Start < sorted[j-1].End {
				return days[i], false
			}
		}
	}
	return "", true
}

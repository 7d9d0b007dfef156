package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/transport"
)

type availabilityQuery struct {
	ServiceID      string `validate:"required"`
	ProfessionalID string `validate:"required"`
	Date           string `validate:"required,date"`
}

// GetAvailability lists the free start times for one professional, service
// and date. The computed list is cached briefly; every write that could
// change it invalidates the professional's entries.
func (s *Server) GetAvailability(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")
	q := availabilityQuery{
		ServiceID:      r.URL.Query().Get("serviceId"),
		ProfessionalID: r.URL.Query().Get("professionalId"),
		Date:           r.URL.Query().Get("date"),
	}
	if err := s.Val.Struct(q); err != nil {
		log.Warn("availability: invalid query")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
		return
	}

	cacheKey := "availability:" + q.ProfessionalID + ":" + q.ServiceID + ":" + q.Date
	if s.Cache != nil {
		if cached, ok, err := s.Cache.Get(r.Context(), cacheKey); err == nil && ok {
			log.Info("availability: cache hit", slog.String("date", q.Date))
			writeCachedJSON(w, http.StatusOK, cached)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	slots, err := s.Booking.GetAvailableTimes(ctx, businessID, q.ProfessionalID, q.ServiceID, q.Date, time.Now())
	if err != nil {
		writeBookingError(w, log, "availability", err)
		return
	}

	response := map[string]interface{}{
		"date":           q.Date,
		"professionalId": q.ProfessionalID,
		"serviceId":      q.ServiceID,
		"timezone":       s.Cfg.Timezone.String(),
		"slots":          slots,
	}

	if payload, err := encodeJSON(response); err == nil && s.Cache != nil {
		_ = s.Cache.Set(r.Context(), cacheKey, payload, time.Duration(s.Cfg.CacheTTLSeconds)*time.Second)
	}

	log.Info("availability: ok",
		slog.String("date", q.Date),
		slog.String("professional_id", q.ProfessionalID),
		slog.Int("slots", len(slots)),
	)
	transport.WriteJSON(w, http.StatusOK, response)
}

// GetNextAvailability returns the first date with an open slot at or after
// the given date, defaulting to today.
func (s *Server) GetNextAvailability(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")
	from := r.URL.Query().Get("from")
	if from == "" {
		from = time.Now().In(s.Cfg.Timezone).Format("2006-01-02")
	}
	q := availabilityQuery{
		ServiceID:      r.URL.Query().Get("serviceId"),
		ProfessionalID: r.URL.Query().Get("professionalId"),
		Date:           from,
	}
	if err := s.Val.Struct(q); err != nil {
		log.Warn("availability next: invalid query")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	date, timeStr, err := s.Booking.NextAvailableDate(ctx, businessID, q.ProfessionalID, q.ServiceID, from, time.Now())
	if err != nil {
		writeBookingError(w, log, "availability next", err)
		return
	}

	log.Info("availability next: ok", slog.String("date", date), slog.String("time", timeStr))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"date":           date,
		"time":           timeStr,
		"professionalId": q.ProfessionalID,
		"serviceId":      q.ServiceID,
		"timezone":       s.Cfg.Timezone.String(),
	})
}

func (s *Server) invalidateAvailability(ctx context.Context, professionalID string) {
	if s.Cache == nil || professionalID == "" {
		return
	}
	_ = s.Cache.DeletePrefix(ctx, "availability:"+professionalID+":")
}

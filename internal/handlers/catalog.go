package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/transport"
)

func (s *Server) GetBusiness(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "businessId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var business models.Business
	if err := s.Cols.Businesses.FindOne(ctx, bson.M{"_id": id}).Decode(&business); err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("business get: not found", slog.String("business_id", id))
			transport.WriteError(w, http.StatusNotFound, "business not found", nil)
			return
		}
		log.Error("business get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, business)
}

// GetServices lists a business's active services. The flow client renders
// these as the service_select choices.
func (s *Server) GetServices(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := bson.M{"businessId": businessID, "status": models.EntityStatusActive}
	cursor, err := s.Cols.Services.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		log.Error("services list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	services := []models.Service{}
	if err := cursor.All(ctx, &services); err != nil {
		log.Error("services list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"services": services})
}

// GetProfessionals lists a business's active professionals. With serviceId
// set, only professionals eligible for that service are returned.
func (s *Server) GetProfessionals(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	businessID := chi.URLParam(r, "businessId")
	serviceID := r.URL.Query().Get("serviceId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var svc *models.Service
	if serviceID != "" {
		var found models.Service
		if err := s.Cols.Services.FindOne(ctx, bson.M{"_id": serviceID, "businessId": businessID}).Decode(&found); err != nil {
			if err == mongo.ErrNoDocuments {
				log.Warn("professionals list: service not found", slog.String("service_id", serviceID))
				transport.WriteError(w, http.StatusNotFound, "service not found", nil)
				return
			}
			log.Error("professionals list: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
			return
		}
		svc = &found
	}

	filter := bson.M{"businessId": businessID, "status": models.EntityStatusActive}
	cursor, err := s.Cols.Professionals.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		log.Error("professionals list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	all := []models.Professional{}
	if err := cursor.All(ctx, &all); err != nil {
		log.Error("professionals list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	professionals := all
	if svc != nil {
		professionals = professionals[:0]
		for _, p := range all {
			if svc.EligibleFor(p.ID) {
				professionals = append(professionals, p)
			}
		}
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"professionals": professionals})
}

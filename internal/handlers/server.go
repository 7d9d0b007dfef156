package handlers

import (
	"log/slog"
	"net/http"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/booking"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/cache"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/clients"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/config"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/db"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/flow"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/middleware"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/validation"
)

type Server struct {
	Cfg     *config.Config
	Cols    *db.Collections
	Val     *validation.Validator
	Log     *slog.Logger
	Cache   cache.Cache
	Booking *booking.Service
	Clients *clients.Service
	Flow    *flow.Controller
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return s.Log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return s.Log.With(slog.String("request_id", id))
	}
	return s.Log
}

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/booking"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/clients"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/flow"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/httpx"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/transport"
)

func decodeJSON(r *http.Request, v interface{}) error {
	return httpx.DecodeJSON(r.Body, v)
}

func validationDetails(errs validator.ValidationErrors) map[string]string {
	return httpx.ValidationDetails(errs)
}

func encodeJSON(payload interface{}) ([]byte, error) {
	return json.Marshal(payload)
}

func writeCachedJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// writeBookingError maps booking core errors onto HTTP statuses. Anything
// unrecognized is a 500 and gets logged; known errors are the client's
// problem and are only warned about by the caller.
func writeBookingError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		log.Warn(op+": invalid input", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, "invalid input", nil)
	case errors.Is(err, booking.ErrNotFound):
		log.Warn(op + ": not found")
		transport.WriteError(w, http.StatusNotFound, "not found", nil)
	case errors.Is(err, booking.ErrSlotUnavailable):
		log.Warn(op + ": slot not available")
		transport.WriteError(w, http.StatusConflict, "slot not available", nil)
	case errors.Is(err, booking.ErrClientLimitExceeded):
		log.Warn(op + ": booking limit reached")
		transport.WriteError(w, http.StatusConflict, "booking limit reached", nil)
	case errors.Is(err, booking.ErrEntityInactive):
		log.Warn(op + ": selection no longer offered")
		transport.WriteError(w, http.StatusConflict, "selection no longer offered", nil)
	case errors.Is(err, clients.ErrClientNotFound):
		log.Warn(op + ": client not found")
		transport.WriteError(w, http.StatusNotFound, "client not found", nil)
	case errors.Is(err, clients.ErrInvalidPhone), errors.Is(err, clients.ErrMissingName):
		log.Warn(op+": invalid input", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, flow.ErrSessionNotFound):
		log.Warn(op + ": session not found")
		transport.WriteError(w, http.StatusNotFound, "session not found or expired", nil)
	case errors.Is(err, flow.ErrUnexpectedInput):
		log.Warn(op+": unexpected input", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, flow.ErrNoBackStep):
		log.Warn(op + ": no previous step")
		transport.WriteError(w, http.StatusConflict, "no previous step", nil)
	default:
		log.Error(op+": internal error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

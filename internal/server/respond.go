package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MeKo-Tech/sitescout/internal/interaction"
	json "github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
)

const maxBodyBytes = 1 << 16

// errorResponse is the body of every error reply.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeGeoJSON(w http.ResponseWriter, fc *geojson.FeatureCollection) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(fc)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeMachineError maps interaction errors to status codes.
func (s *Server) writeMachineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interaction.ErrUnknownPoint):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, interaction.ErrInvalidToolMode),
		errors.Is(err, interaction.ErrInvalidCategory),
		errors.Is(err, interaction.ErrInvalidCoordinate):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, interaction.ErrPrecondition):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, interaction.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.log().Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

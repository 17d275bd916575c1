package server

import (
	"net/http"
	"strconv"

	"github.com/MeKo-Tech/sitescout/internal/geo"
	"github.com/MeKo-Tech/sitescout/internal/geojson"
	"github.com/MeKo-Tech/sitescout/internal/session"
	"github.com/MeKo-Tech/sitescout/internal/types"
	"github.com/MeKo-Tech/sitescout/internal/worker"
	"github.com/go-chi/chi/v5"
)

type modeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

type layersRequest struct {
	Heatmap        *bool `json:"heatmap"`
	InfluenceZones *bool `json:"influenceZones"`
}

type clickRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

type categoryRequest struct {
	Category string `json:"category" validate:"required"`
}

type stateResponse struct {
	Session       session.Snapshot `json:"session"`
	CombinedScore *int             `json:"combinedScore"`
	Points        int              `json:"points"`
	Assessments   worker.Stats     `json:"assessments"`
}

func (s *Server) state() stateResponse {
	snap := s.machine.Session().Snapshot()
	return stateResponse{
		Session:       snap,
		CombinedScore: snap.CombinedScore(),
		Points:        len(s.machine.Points()),
		Assessments:   s.machine.Stats(),
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.machine.SetToolMode(types.ToolMode(req.Mode)); err != nil {
		s.writeMachineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	var req layersRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.machine.SetLayers(req.Heatmap, req.InfluenceZones)
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.machine.SurfaceClicked(types.NewCoordinate(*req.Lat, *req.Lng))
	if err != nil {
		s.writeMachineError(w, err)
		return
	}

	status := http.StatusOK
	if res.Point != nil {
		status = http.StatusAccepted
	}
	writeJSON(w, status, res)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if err := s.machine.PointClicked(pointID(r)); err != nil {
		s.writeMachineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handlePoint(w http.ResponseWriter, r *http.Request) {
	p, err := s.machine.Point(pointID(r))
	if err != nil {
		s.writeMachineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id := pointID(r)
	if err := s.machine.SetCategory(id, types.Category(req.Category)); err != nil {
		s.writeMachineError(w, err)
		return
	}

	p, err := s.machine.Point(id)
	if err != nil {
		s.writeMachineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.machine.RemovePoint(pointID(r)); err != nil {
		s.writeMachineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePoints serves the points, optionally limited to ?tile=z/x/y.
func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	bounds, err := tileBounds(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	points := s.machine.Points()
	if bounds != nil {
		kept := points[:0]
		for _, p := range points {
			if bounds.Contains(p.Position) {
				kept = append(kept, p)
			}
		}
		points = kept
	}
	writeGeoJSON(w, geojson.PointsCollection(points, s.machine.Session().SelectedPointID()))
}

// handleZones serves influence zones. ?selected=true limits them to the
// selected point.
func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	selectedOnly := false
	if v := r.URL.Query().Get("selected"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		selectedOnly = b
	}

	writeGeoJSON(w, geojson.ZonesCollection(s.machine.InfluenceZones(selectedOnly)))
}

// handleHeatmap serves the heatmap batch, optionally limited to ?tile=z/x/y.
func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	bounds, err := tileBounds(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	samples := s.machine.Heatmap()
	if bounds != nil {
		kept := samples[:0]
		for _, hs := range samples {
			if bounds.Contains(hs.Position) {
				kept = append(kept, hs)
			}
		}
		samples = kept
	}
	writeGeoJSON(w, geojson.HeatmapCollection(samples))
}

func (s *Server) handleMeasurement(w http.ResponseWriter, r *http.Request) {
	writeGeoJSON(w, geojson.MeasurementCollection(s.machine.Measurement()))
}

// tileBounds reads the optional tile query parameter.
func tileBounds(r *http.Request) (*types.BoundingBox, error) {
	v := r.URL.Query().Get("tile")
	if v == "" {
		return nil, nil
	}
	t, err := geo.ParseTile(v)
	if err != nil {
		return nil, err
	}
	b := t.Bounds()
	return &b, nil
}

func pointID(r *http.Request) types.PointID {
	return types.PointID(chi.URLParam(r, "id"))
}

// Package interaction interprets map events according to the active tool
// mode. It owns the commercial points, the measurement segment and the
// heatmap batch, and writes the session state.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/sitescout/internal/geo"
	"github.com/MeKo-Tech/sitescout/internal/metrics"
	"github.com/MeKo-Tech/sitescout/internal/session"
	"github.com/MeKo-Tech/sitescout/internal/types"
	"github.com/MeKo-Tech/sitescout/internal/worker"
	"github.com/google/uuid"
)

var (
	ErrUnknownPoint      = errors.New("unknown point")
	ErrInvalidToolMode   = errors.New("invalid tool mode")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrPrecondition      = errors.New("precondition violated")
	ErrClosed            = errors.New("session closed")
)

// DefaultCenter is People's Square, Shanghai.
var DefaultCenter = types.Coordinate{Lat: 31.2304, Lng: 121.4737}

// DefaultHeatmapSamples is the size of the heatmap batch.
const DefaultHeatmapSamples = 300

// HeatmapMode selects how heatmap intensities are generated.
type HeatmapMode string

const (
	HeatmapUniform HeatmapMode = "uniform"
	HeatmapPerlin  HeatmapMode = "perlin"
)

// ParseHeatmapMode validates a heatmap mode name. "" means uniform.
func ParseHeatmapMode(s string) (HeatmapMode, error) {
	switch m := HeatmapMode(s); m {
	case "", HeatmapUniform:
		return HeatmapUniform, nil
	case HeatmapPerlin:
		return m, nil
	default:
		return "", fmt.Errorf("unknown heatmap mode %q", s)
	}
}

// Config configures a Machine.
type Config struct {
	// Assessor resolves place-point requests. Required.
	Assessor worker.Assessor
	// Workers is the assessment pool size (default: worker.DefaultWorkers).
	Workers int

	// Center anchors the heatmap. Nil means DefaultCenter.
	Center       *types.Coordinate
	HeatmapCount int         // default: 300
	HeatmapMode  HeatmapMode // default: uniform
	HeatmapSeed  int64       // perlin seed

	// Strict returns ErrPrecondition for events that are invalid in the
	// current state instead of ignoring them.
	Strict bool
	// DiscardOpenSegmentOnModeSwitch drops a half-finished measurement when
	// the tool mode changes.
	DiscardOpenSegmentOnModeSwitch bool

	// Rand drives heatmap and zone synthesis (default: geo.DefaultSource()).
	Rand geo.Source
	// Logger for state transitions
	Logger *slog.Logger
}

// ClickResult describes what a surface click did.
type ClickResult struct {
	Mode        types.ToolMode            `json:"mode"`
	Point       *types.CommercialPoint    `json:"point,omitempty"`
	Measurement *types.MeasurementSegment `json:"measurement,omitempty"`
}

// Zone is the influence polygon of an assessed point.
type Zone struct {
	PointID types.PointID      `json:"pointId"`
	Center  types.Coordinate   `json:"center"`
	Radius  float64            `json:"radius"`
	Ring    []types.Coordinate `json:"ring"`
}

// Machine is the map interaction state machine. Every transition runs under
// one mutex; assessments run on the dispatcher and re-enter through resolve.
type Machine struct {
	mu sync.Mutex

	state      *session.State
	dispatcher *worker.Dispatcher
	rng        geo.Source
	logger     *slog.Logger

	strict      bool
	discardOpen bool

	points  []*types.CommercialPoint
	byID    map[types.PointID]*types.CommercialPoint
	placed  int
	segment *types.MeasurementSegment
	heatmap []types.HeatmapSample

	pending int
	idle    chan struct{} // closed while pending == 0
	closed  bool
}

// New creates a machine with a fresh session and starts its dispatcher.
// ctx bounds in-flight assessments; Close stops the dispatcher.
func New(ctx context.Context, cfg Config) (*Machine, error) {
	if cfg.Assessor == nil {
		return nil, fmt.Errorf("interaction machine requires an assessor")
	}
	center := DefaultCenter
	if cfg.Center != nil {
		center = *cfg.Center
	}
	if !center.Valid() {
		return nil, fmt.Errorf("%w: center %s", ErrInvalidCoordinate, center)
	}
	if cfg.HeatmapCount <= 0 {
		cfg.HeatmapCount = DefaultHeatmapSamples
	}
	if cfg.Rand == nil {
		cfg.Rand = geo.DefaultSource()
	}
	mode, err := ParseHeatmapMode(string(cfg.HeatmapMode))
	if err != nil {
		return nil, err
	}

	m := &Machine{
		state:       session.New(),
		rng:         cfg.Rand,
		logger:      cfg.Logger,
		strict:      cfg.Strict,
		discardOpen: cfg.DiscardOpenSegmentOnModeSwitch,
		byID:        make(map[types.PointID]*types.CommercialPoint),
		idle:        make(chan struct{}),
	}
	close(m.idle)

	switch mode {
	case HeatmapPerlin:
		m.heatmap = geo.SynthesizeHeatmapField(cfg.Rand, cfg.HeatmapSeed, center, cfg.HeatmapCount)
	default:
		m.heatmap = geo.SynthesizeHeatmap(cfg.Rand, center, cfg.HeatmapCount)
	}

	m.dispatcher = worker.New(worker.Config{
		Workers:  cfg.Workers,
		Assessor: cfg.Assessor,
		OnResult: m.resolve,
		Logger:   cfg.Logger,
	})
	m.dispatcher.Start(ctx)

	m.log().Info("session started",
		"center", center.String(),
		"heatmap_mode", mode,
		"heatmap_samples", len(m.heatmap),
		"strict", cfg.Strict,
	)

	return m, nil
}

// Session returns the session state the machine writes.
func (m *Machine) Session() *session.State {
	return m.state
}

// SurfaceClicked interprets a click on the map surface per the tool mode.
func (m *Machine) SurfaceClicked(c types.Coordinate) (ClickResult, error) {
	if !c.Valid() {
		return ClickResult{}, fmt.Errorf("%w: %s", ErrInvalidCoordinate, c)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	mode := m.state.ToolMode()
	metrics.SurfaceClicks.WithLabelValues(string(mode)).Inc()

	switch mode {
	case types.ToolPlacePoint:
		p, err := m.placePoint(c)
		if err != nil {
			return ClickResult{Mode: mode}, err
		}
		return ClickResult{Mode: mode, Point: &p}, nil
	case types.ToolMeasure:
		seg := m.measure(c)
		return ClickResult{Mode: mode, Measurement: &seg}, nil
	default:
		m.state.ClearSelection()
		return ClickResult{Mode: mode}, nil
	}
}

// placePoint creates, selects and dispatches a new point. Caller holds mu.
func (m *Machine) placePoint(c types.Coordinate) (types.CommercialPoint, error) {
	if m.closed {
		return types.CommercialPoint{}, ErrClosed
	}

	id, err := uuid.NewV7()
	if err != nil {
		return types.CommercialPoint{}, fmt.Errorf("failed to generate point id: %w", err)
	}

	m.placed++
	p := &types.CommercialPoint{
		ID:       types.PointID(id.String()),
		Position: c,
		Label:    fmt.Sprintf("Location %d", m.placed),
		Category: types.CategoryMixed,
	}
	m.points = append(m.points, p)
	m.byID[p.ID] = p
	m.state.Select(p.ID, nil)

	m.state.BeginAnalysis()
	if m.pending == 0 {
		m.idle = make(chan struct{})
	}
	m.pending++
	metrics.PointsPlaced.Inc()
	metrics.AssessmentsInFlight.Inc()

	if !m.dispatcher.Submit(worker.Job{PointID: p.ID, Coordinate: c}) {
		m.settle()
		m.log().Warn("assessment not dispatched", "point", p.ID)
	}

	m.log().Debug("point placed", "point", p.ID, "label", p.Label, "position", c.String())
	return p.Clone(), nil
}

// measure advances the measurement segment. Caller holds mu.
func (m *Machine) measure(c types.Coordinate) types.MeasurementSegment {
	if m.segment == nil || m.segment.Complete() {
		m.segment = &types.MeasurementSegment{Start: c}
		m.state.ClearLastMeasuredDistance()
		return m.segment.Clone()
	}

	end := c
	m.segment.End = &end
	m.segment.DistanceMeters = geo.Distance(m.segment.Start, c)
	m.state.SetLastMeasuredDistance(m.segment.DistanceMeters)

	m.log().Debug("measurement complete", "meters", m.segment.DistanceMeters)
	return m.segment.Clone()
}

// resolve attaches a finished assessment by id. It runs on a dispatcher
// worker.
func (m *Machine) resolve(r worker.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.settle()

	p, ok := m.byID[r.Job.PointID]
	if !ok {
		metrics.StaleResults.Inc()
		m.log().Debug("discarding assessment for removed point", "point", r.Job.PointID)
		return
	}
	if p.Assessed() {
		return
	}

	a := r.Assessment
	p.Assessment = &a
	m.state.SetActiveAssessment(p.ID, &a)

	m.log().Debug("assessment attached",
		"point", p.ID,
		"source", a.Source,
		"elapsed", r.Elapsed,
	)
}

// settle marks one request as finished. Caller holds mu.
func (m *Machine) settle() {
	m.state.EndAnalysis()
	metrics.AssessmentsInFlight.Dec()
	m.pending--
	if m.pending == 0 {
		close(m.idle)
	}
}

// PointClicked selects a point and shows its assessment. Clicks are honoured
// in select and place-point mode; in measure mode they are a precondition
// violation.
func (m *Machine) PointClicked(id types.PointID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPoint, id)
	}

	if mode := m.state.ToolMode(); mode == types.ToolMeasure {
		return m.violation("point click ignored", "mode", mode, "point", id)
	}

	m.state.Select(p.ID, p.Assessment)
	return nil
}

// SetToolMode switches the tool mode. Points, selection and heatmap are left
// alone.
func (m *Machine) SetToolMode(mode types.ToolMode) error {
	parsed, err := types.ParseToolMode(string(mode))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToolMode, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.state.ToolMode()
	m.state.SetToolMode(parsed)

	if m.discardOpen && prev != parsed && m.segment != nil && !m.segment.Complete() {
		m.segment = nil
		m.log().Debug("open measurement discarded on mode switch")
	}

	m.log().Debug("tool mode changed", "from", prev, "to", parsed)
	return nil
}

// SetLayers updates the layer toggles; nil leaves a toggle unchanged.
func (m *Machine) SetLayers(heatmap, influenceZones *bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if heatmap != nil {
		m.state.SetHeatmapVisible(*heatmap)
	}
	if influenceZones != nil {
		m.state.SetInfluenceZonesVisible(*influenceZones)
	}
}

// RemovePoint deletes a point. A result still in flight for it is discarded.
func (m *Machine) RemovePoint(id types.PointID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPoint, id)
	}

	delete(m.byID, id)
	kept := m.points[:0]
	for _, p := range m.points {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(m.points); i++ {
		m.points[i] = nil
	}
	m.points = kept

	if m.state.SelectedPointID() == id {
		m.state.ClearSelection()
	}

	m.log().Debug("point removed", "point", id)
	return nil
}

// SetCategory changes the category of a point.
func (m *Machine) SetCategory(id types.PointID, category types.Category) error {
	parsed, err := types.ParseCategory(string(category))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCategory, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPoint, id)
	}
	p.Category = parsed
	return nil
}

// Points returns the points in creation order.
func (m *Machine) Points() []types.CommercialPoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.CommercialPoint, len(m.points))
	for i, p := range m.points {
		out[i] = p.Clone()
	}
	return out
}

// Point returns a copy of one point.
func (m *Machine) Point(id types.PointID) (types.CommercialPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return types.CommercialPoint{}, fmt.Errorf("%w: %s", ErrUnknownPoint, id)
	}
	return p.Clone(), nil
}

// Measurement returns the live segment, if any.
func (m *Machine) Measurement() (types.MeasurementSegment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.segment == nil {
		return types.MeasurementSegment{}, false
	}
	return m.segment.Clone(), true
}

// Heatmap returns the session's heatmap batch.
func (m *Machine) Heatmap() []types.HeatmapSample {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.HeatmapSample, len(m.heatmap))
	copy(out, m.heatmap)
	return out
}

// InfluenceZones synthesises a zone for every assessed point, or only for
// the selected one. Shapes are random and differ between calls.
func (m *Machine) InfluenceZones(selectedOnly bool) []Zone {
	m.mu.Lock()
	defer m.mu.Unlock()

	selected := m.state.SelectedPointID()

	var zones []Zone
	for _, p := range m.points {
		if !p.Assessed() || (selectedOnly && p.ID != selected) {
			continue
		}
		zones = append(zones, Zone{
			PointID: p.ID,
			Center:  p.Position,
			Radius:  p.Assessment.InfluenceRadius,
			Ring:    geo.SynthesizeInfluenceZone(m.rng, p.Position, p.Assessment.InfluenceRadius),
		})
	}
	return zones
}

// Stats returns the dispatcher counters.
func (m *Machine) Stats() worker.Stats {
	return m.dispatcher.Stats()
}

// Wait blocks until every dispatched assessment has settled or ctx is done.
func (m *Machine) Wait(ctx context.Context) error {
	m.mu.Lock()
	idle := m.idle
	m.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting placements and waits for in-flight assessments.
func (m *Machine) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.dispatcher.Stop()
}

// violation handles an event that is invalid in the current state.
func (m *Machine) violation(msg string, args ...any) error {
	if m.strict {
		return fmt.Errorf("%w: %s", ErrPrecondition, msg)
	}
	m.log().Warn(msg, args...)
	return nil
}

func (m *Machine) log() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return slog.Default()
}

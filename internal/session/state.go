// Package session holds the per-session presentation state: tool mode, layer
// toggles, the selection and the assessment shown for it.
package session

import (
	"sync"

	"github.com/MeKo-Tech/sitescout/internal/types"
)

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	ToolMode              types.ToolMode    `json:"toolMode"`
	HeatmapVisible        bool              `json:"heatmapVisible"`
	InfluenceZonesVisible bool              `json:"influenceZonesVisible"`
	SelectedPointID       types.PointID     `json:"selectedPointId,omitempty"`
	ActiveAssessment      *types.Assessment `json:"activeAssessment,omitempty"`
	AnalysisInFlight      bool              `json:"analysisInFlight"`
	PendingAnalyses       int               `json:"pendingAnalyses"`
	LastMeasuredDistance  *float64          `json:"lastMeasuredDistance,omitempty"`
}

// CombinedScore is the rounded mean of traffic, commercial value and
// accessibility of the active assessment, or nil without one.
func (s Snapshot) CombinedScore() *int {
	if s.ActiveAssessment == nil {
		return nil
	}
	v := s.ActiveAssessment.CombinedScore()
	return &v
}

// State is the session state container. It is safe for concurrent use; the
// interaction machine is its only writer.
type State struct {
	mu sync.RWMutex

	toolMode              types.ToolMode
	heatmapVisible        bool
	influenceZonesVisible bool
	selected              types.PointID
	active                *types.Assessment
	pending               int
	lastDistance          *float64
}

// New returns the default state: select tool, heatmap hidden, influence
// zones visible.
func New() *State {
	return &State{
		toolMode:              types.ToolSelect,
		influenceZonesVisible: true,
	}
}

func (s *State) ToolMode() types.ToolMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toolMode
}

func (s *State) SetToolMode(m types.ToolMode) {
	s.mu.Lock()
	s.toolMode = m
	s.mu.Unlock()
}

func (s *State) HeatmapVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heatmapVisible
}

func (s *State) SetHeatmapVisible(v bool) {
	s.mu.Lock()
	s.heatmapVisible = v
	s.mu.Unlock()
}

func (s *State) InfluenceZonesVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.influenceZonesVisible
}

func (s *State) SetInfluenceZonesVisible(v bool) {
	s.mu.Lock()
	s.influenceZonesVisible = v
	s.mu.Unlock()
}

// SelectedPointID returns the selected point, or "" when nothing is selected.
func (s *State) SelectedPointID() types.PointID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Select sets the selection and its active assessment together. a may be nil
// for a point that has not been assessed yet.
func (s *State) Select(id types.PointID, a *types.Assessment) {
	s.mu.Lock()
	s.selected = id
	s.active = cloneAssessment(a)
	s.mu.Unlock()
}

// ClearSelection removes the selection and the active assessment.
func (s *State) ClearSelection() {
	s.mu.Lock()
	s.selected = ""
	s.active = nil
	s.mu.Unlock()
}

// ActiveAssessment returns a copy of the active assessment, or nil.
func (s *State) ActiveAssessment() *types.Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAssessment(s.active)
}

// SetActiveAssessment replaces the active assessment if id is still the
// selected point. It reports whether the assessment was applied.
func (s *State) SetActiveAssessment(id types.PointID, a *types.Assessment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" || s.selected != id {
		return false
	}
	s.active = cloneAssessment(a)
	return true
}

// BeginAnalysis records an outstanding assessment request.
func (s *State) BeginAnalysis() {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
}

// EndAnalysis settles one outstanding request. Extra calls are ignored.
func (s *State) EndAnalysis() {
	s.mu.Lock()
	if s.pending > 0 {
		s.pending--
	}
	s.mu.Unlock()
}

// AnalysisInFlight reports whether any assessment request is outstanding.
func (s *State) AnalysisInFlight() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending > 0
}

// PendingAnalyses returns the number of outstanding requests.
func (s *State) PendingAnalyses() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// LastMeasuredDistance returns the distance of the last completed
// measurement, or nil while none is shown.
func (s *State) LastMeasuredDistance() *float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastDistance == nil {
		return nil
	}
	d := *s.lastDistance
	return &d
}

func (s *State) SetLastMeasuredDistance(meters float64) {
	s.mu.Lock()
	s.lastDistance = &meters
	s.mu.Unlock()
}

func (s *State) ClearLastMeasuredDistance() {
	s.mu.Lock()
	s.lastDistance = nil
	s.mu.Unlock()
}

// CombinedScore is the combined score of the active assessment, or nil.
func (s *State) CombinedScore() *int {
	return s.Snapshot().CombinedScore()
}

// Snapshot returns a consistent copy of every field.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ToolMode:              s.toolMode,
		HeatmapVisible:        s.heatmapVisible,
		InfluenceZonesVisible: s.influenceZonesVisible,
		SelectedPointID:       s.selected,
		ActiveAssessment:      cloneAssessment(s.active),
		AnalysisInFlight:      s.pending > 0,
		PendingAnalyses:       s.pending,
	}
	if s.lastDistance != nil {
		d := *s.lastDistance
		snap.LastMeasuredDistance = &d
	}
	return snap
}

func cloneAssessment(a *types.Assessment) *types.Assessment {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

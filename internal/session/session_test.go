package session

import (
	"image"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"niftiviewer/internal/models"
	"niftiviewer/pkg/fiducial"
	"niftiviewer/pkg/navigation"
	"niftiviewer/pkg/visualization"
)

// fakeRenderer records every call a session makes
type fakeRenderer struct {
	displayed []int
	renders   int
	markers   []bool
	colors    []string
	positions []image.Point
	setCalls  int
}

func (r *fakeRenderer) Display(img image.Image, slice int) {
	r.displayed = append(r.displayed, slice)
}

func (r *fakeRenderer) Render() { r.renders++ }

func (r *fakeRenderer) AddMarker(pos image.Point, color string, visible bool) int {
	r.markers = append(r.markers, visible)
	r.colors = append(r.colors, color)
	r.positions = append(r.positions, pos)
	return len(r.markers) - 1
}

func (r *fakeRenderer) SetMarkerVisible(id int, visible bool) {
	r.setCalls++
	r.markers[id] = visible
}

// newTestSession builds a 4x4x10 volume with z spacing 2 and the given landmarks
func newTestSession(t *testing.T, initial int, points []fiducial.Point) (*Session, *fakeRenderer, *observer.ObservedLogs) {
	t.Helper()
	
	vol := &models.Volume{
		Data:    make([]float64, 4*4*10),
		Width:   4,
		Height:  4,
		Depth:   10,
		Spacing: [3]float64{1, 1, 2},
	}
	viewer, err := visualization.NewViewer(vol, 256, 128)
	if err != nil {
		t.Fatalf("Failed to create viewer: %v", err)
	}
	
	nav, err := navigation.NewNavigator(navigation.SliceRange{Min: 0, Max: vol.Depth - 1}, initial)
	if err != nil {
		t.Fatalf("Failed to create navigator: %v", err)
	}
	
	core, logs := observer.New(zapcore.DebugLevel)
	renderer := &fakeRenderer{}
	
	s, err := New(Config{
		Navigator:   nav,
		Converter:   viewer,
		Renderer:    renderer,
		Points:      points,
		Geometry:    vol.Geometry(models.AxisZ),
		MarkerColor: "#00ff00",
		AutoWindow:  &WindowLevel{Window: 10, Level: 5},
		Logger:      zap.New(core),
	})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Failed to start session: %v", err)
	}
	return s, renderer, logs
}

// TestStartRegistersMarkers verifies the first frame and marker setup
func TestStartRegistersMarkers(t *testing.T) {
	points := []fiducial.Point{
		{ID: "a", X: 1, Y: 2, Z: 10.9},
		{ID: "b", X: 0, Y: 0, Z: 11.0},
		{ID: "c", X: 3, Y: 3, Z: 9.1},
	}
	s, r, _ := newTestSession(t, 5, points)
	
	if !reflect.DeepEqual(r.displayed, []int{5}) {
		t.Errorf("Expected slice 5 displayed once, got %v", r.displayed)
	}
	if r.renders != 1 {
		t.Errorf("Expected 1 render, got %d", r.renders)
	}
	if want := []bool{true, false, true}; !reflect.DeepEqual(r.markers, want) {
		t.Errorf("Expected marker visibility %v, got %v", want, r.markers)
	}
	if r.colors[0] != "#00ff00" {
		t.Errorf("Expected marker color to be passed through, got %s", r.colors[0])
	}
	// (1,2) on a 4-row image: row 4-1-2 = 1
	if r.positions[0] != image.Pt(1, 1) {
		t.Errorf("Expected marker at (1,1), got %v", r.positions[0])
	}
	if got := s.Visibility(); !reflect.DeepEqual(got, []bool{true, false, true}) {
		t.Errorf("Unexpected visibility %v", got)
	}
}

// TestHandleKeyMovesAndRedraws checks that only real moves redraw
func TestHandleKeyMovesAndRedraws(t *testing.T) {
	points := []fiducial.Point{{ID: "on6", Z: 12}}
	s, r, logs := newTestSession(t, 5, points)
	
	changed, err := s.HandleKey("Up")
	if err != nil || !changed {
		t.Fatalf("Expected Up to move, got changed=%v err=%v", changed, err)
	}
	if s.Status().Slice != 6 {
		t.Errorf("Expected slice 6, got %d", s.Status().Slice)
	}
	if !r.markers[0] {
		t.Error("Expected landmark at z=12 to be visible on slice 6")
	}
	
	changed, _ = s.HandleKey("Left")
	if !changed || s.Status().Slice != 5 {
		t.Errorf("Expected Left to move back to 5, got %d", s.Status().Slice)
	}
	if r.markers[0] {
		t.Error("Expected landmark to be hidden again on slice 5")
	}
	
	// Unknown keys do nothing
	rendersBefore := r.renders
	changed, _ = s.HandleKey("x")
	if changed || r.renders != rendersBefore {
		t.Error("Expected unknown key to be ignored")
	}
	
	moves := logs.FilterField(zap.Int("slice", 6)).FilterMessage("Slice: 6")
	if moves.Len() != 1 {
		t.Errorf("Expected one 'Slice: 6' log entry, got %d", moves.Len())
	}
}

// TestHandleKeyAtBounds verifies no redraw happens when the index is pinned
func TestHandleKeyAtBounds(t *testing.T) {
	s, r, logs := newTestSession(t, 9, nil)
	
	for _, key := range []string{"Up", "Right"} {
		changed, err := s.HandleKey(key)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if changed {
			t.Errorf("Expected %s at max to be a no-op", key)
		}
	}
	if s.Status().Slice != 9 {
		t.Errorf("Expected slice to remain 9, got %d", s.Status().Slice)
	}
	if r.renders != 1 || len(r.displayed) != 1 {
		t.Errorf("Expected no redraw at bound, got %d renders", r.renders)
	}
	if logs.FilterMessageSnippet("Slice:").Len() != 0 {
		t.Error("Expected no slice log at bound")
	}
	
	if _, err := s.First(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	changed, _ := s.HandleKey("Down")
	if changed || s.Status().Slice != 0 {
		t.Errorf("Expected Down at min to be a no-op, got slice %d", s.Status().Slice)
	}
}

func TestLandmarkJumps(t *testing.T) {
	points := []fiducial.Point{{ID: "a", Z: 4}, {ID: "b", Z: 14}}
	s, _, _ := newTestSession(t, 0, points)
	
	if changed, _ := s.NextLandmark(); !changed || s.Status().Slice != 2 {
		t.Errorf("Expected jump to slice 2, got %d", s.Status().Slice)
	}
	if changed, _ := s.NextLandmark(); !changed || s.Status().Slice != 7 {
		t.Errorf("Expected jump to slice 7, got %d", s.Status().Slice)
	}
	if changed, _ := s.NextLandmark(); changed {
		t.Error("Expected no landmark after slice 7")
	}
	if changed, _ := s.PrevLandmark(); !changed || s.Status().Slice != 2 {
		t.Errorf("Expected jump back to slice 2, got %d", s.Status().Slice)
	}
	
	if changed, _ := s.Last(); !changed || s.Status().Slice != 9 {
		t.Errorf("Expected last slice 9, got %d", s.Status().Slice)
	}
}

func TestWindowLevel(t *testing.T) {
	s, r, _ := newTestSession(t, 3, nil)
	
	if err := s.ScaleWindow(0.5); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	st := s.Status()
	if st.Window != 128 || st.Level != 128 {
		t.Errorf("Expected window/level 128/128, got %f/%f", st.Window, st.Level)
	}
	
	if err := s.ShiftLevel(0.25); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if st := s.Status(); st.Level != 160 {
		t.Errorf("Expected level 160, got %f", st.Level)
	}
	
	// Window changes redraw the same slice
	if last := r.displayed[len(r.displayed)-1]; last != 3 {
		t.Errorf("Expected slice 3 to be redisplayed, got %d", last)
	}
	
	if err := s.ScaleWindow(0); err == nil {
		t.Error("Expected error for zero window, got nil")
	}
	
	toggled, err := s.ToggleAutoWindow()
	if err != nil || !toggled {
		t.Fatalf("Expected auto window toggle, got %v %v", toggled, err)
	}
	if st := s.Status(); !st.Auto || st.Window != 10 || st.Level != 5 {
		t.Errorf("Expected auto window 10/5, got %+v", st)
	}
	
	s.ToggleAutoWindow()
	if st := s.Status(); st.Auto || st.Window != 128 || st.Level != 160 {
		t.Errorf("Expected manual window 128/160 restored, got %+v", st)
	}
}

// TestScaleWindowSaturates verifies repeated scaling never drives the window to 0 or Inf
func TestScaleWindowSaturates(t *testing.T) {
	s, _, _ := newTestSession(t, 0, nil)
	
	for i := 0; i < 5; i++ {
		if err := s.ScaleWindow(1e300); err != nil {
			t.Fatalf("Unexpected error widening window: %v", err)
		}
	}
	if st := s.Status(); st.Window != MaxWindow {
		t.Errorf("Expected window %g, got %g", MaxWindow, st.Window)
	}
	
	for i := 0; i < 5; i++ {
		if err := s.ScaleWindow(1e-300); err != nil {
			t.Fatalf("Unexpected error narrowing window: %v", err)
		}
	}
	if st := s.Status(); st.Window != MinWindow {
		t.Errorf("Expected window %g, got %g", MinWindow, st.Window)
	}
}

func TestStatusNearest(t *testing.T) {
	points := []fiducial.Point{{ID: "near", Z: 7}, {ID: "far", Z: 19}}
	s, _, _ := newTestSession(t, 4, points)
	
	st := s.Status()
	if st.Position != 8 {
		t.Errorf("Expected plane position 8, got %f", st.Position)
	}
	if st.Nearest == nil || st.Nearest.ID != "near" {
		t.Fatalf("Expected nearest landmark 'near', got %+v", st.Nearest)
	}
	if st.NearestDistance != 1 {
		t.Errorf("Expected distance 1, got %f", st.NearestDistance)
	}
	if st.Total != 2 || st.Visible != 0 {
		t.Errorf("Expected 0 of 2 visible, got %d of %d", st.Visible, st.Total)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("Expected error for empty config, got nil")
	}
}

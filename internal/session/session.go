// Package session connects key presses to the slice navigator, recomputes
// landmark visibility and pushes the result to a renderer.
package session

import (
	"errors"
	"fmt"
	"image"
	"math"

	"go.uber.org/zap"

	"niftiviewer/internal/models"
	"niftiviewer/pkg/fiducial"
	"niftiviewer/pkg/navigation"
)

// Renderer is the display surface a session draws on
type Renderer interface {
	// Display replaces the shown slice image
	Display(img image.Image, slice int)
	
	// Render requests a redraw
	Render()
	
	// AddMarker places a landmark marker at pixel pos and returns its id
	AddMarker(pos image.Point, color string, visible bool) int
	
	// SetMarkerVisible shows or hides a marker added earlier
	SetMarkerVisible(id int, visible bool)
}

// Converter turns axial slices into display images
type Converter interface {
	ExtractSlice(axis models.Axis, position int) (*image.Gray, error)
	PlanePosition(x, y float64) image.Point
	WindowLevel() (float64, float64)
	SetWindowLevel(window, level float64) error
}

// WindowLevel is a color window/level pair
type WindowLevel struct {
	Window float64
	Level  float64
}

// Config holds the collaborators and data a session is built from
type Config struct {
	Navigator *navigation.Navigator
	Converter Converter
	Renderer  Renderer
	
	// Points are the loaded landmarks, possibly none
	Points []fiducial.Point
	
	// Geometry places axial slices in physical space
	Geometry models.SliceGeometry
	
	// MarkerColor is passed through to Renderer.AddMarker
	MarkerColor string
	
	// AutoWindow, when set, is the alternative window/level toggled by ToggleAutoWindow
	AutoWindow *WindowLevel
	
	Logger *zap.Logger
}

// Status summarizes what the session currently shows
type Status struct {
	Slice    int
	Min, Max int
	
	// Position is the physical z of the current slice plane
	Position float64
	
	Visible int
	Total   int
	
	Window float64
	Level  float64
	Auto   bool
	
	// Nearest is the landmark closest to the current plane, nil without landmarks
	Nearest         *fiducial.Point
	NearestDistance float64
}

// Session owns the current slice and the visibility of every landmark.
// It is driven from a single event loop and is not safe for concurrent use.
type Session struct {
	nav       *navigation.Navigator
	converter Converter
	renderer  Renderer
	points    []fiducial.Point
	geometry  models.SliceGeometry
	index     *fiducial.Index
	color     string
	logger    *zap.Logger
	
	markers []int
	visible []bool
	
	manual WindowLevel
	auto   *WindowLevel
	autoOn bool
}

// New creates a session. Start must be called before key events are handled.
func New(cfg Config) (*Session, error) {
	if cfg.Navigator == nil || cfg.Converter == nil || cfg.Renderer == nil {
		return nil, errors.New("session requires a navigator, a converter and a renderer")
	}
	
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	
	window, level := cfg.Converter.WindowLevel()
	return &Session{
		nav:       cfg.Navigator,
		converter: cfg.Converter,
		renderer:  cfg.Renderer,
		points:    cfg.Points,
		geometry:  cfg.Geometry,
		index:     fiducial.NewIndex(cfg.Points, cfg.Geometry, cfg.Navigator.Range()),
		color:     cfg.MarkerColor,
		logger:    logger,
		manual:    WindowLevel{Window: window, Level: level},
		auto:      cfg.AutoWindow,
	}, nil
}

// Start shows the initial slice and registers one marker per landmark
func (s *Session) Start() error {
	current := s.nav.Current()
	img, err := s.converter.ExtractSlice(models.AxisZ, current)
	if err != nil {
		return err
	}
	s.renderer.Display(img, current)
	
	s.visible = fiducial.ComputeVisibility(s.points, current, s.geometry)
	s.markers = make([]int, len(s.points))
	for i, p := range s.points {
		s.markers[i] = s.renderer.AddMarker(s.converter.PlanePosition(p.X, p.Y), s.color, s.visible[i])
	}
	
	s.renderer.Render()
	s.logger.Debug("session started",
		zap.Int("slice", current),
		zap.Int("landmarks", len(s.points)),
		zap.Int("visibleMarkers", fiducial.CountVisible(s.visible)))
	return nil
}

// HandleKey applies a key press. Up and Right move forward, Down and Left
// move backward, other keys are ignored. It reports whether the slice changed.
func (s *Session) HandleKey(key string) (bool, error) {
	dir, ok := navigation.KeyDirection(key)
	if !ok {
		return false, nil
	}
	
	before := s.nav.Current()
	after := s.nav.Advance(dir)
	if after == before {
		return false, nil
	}
	return true, s.refresh(after)
}

// Jump moves to index, clamped into range, and reports whether the slice changed
func (s *Session) Jump(index int) (bool, error) {
	before := s.nav.Current()
	after := s.nav.Set(index)
	if after == before {
		return false, nil
	}
	return true, s.refresh(after)
}

// First jumps to the lowest slice
func (s *Session) First() (bool, error) {
	return s.Jump(s.nav.Range().Min)
}

// Last jumps to the highest slice
func (s *Session) Last() (bool, error) {
	return s.Jump(s.nav.Range().Max)
}

// NextLandmark jumps to the next slice showing a landmark
func (s *Session) NextLandmark() (bool, error) {
	next, ok := s.index.Next(s.nav.Current())
	if !ok {
		return false, nil
	}
	return s.Jump(next)
}

// PrevLandmark jumps to the previous slice showing a landmark
func (s *Session) PrevLandmark() (bool, error) {
	prev, ok := s.index.Prev(s.nav.Current())
	if !ok {
		return false, nil
	}
	return s.Jump(prev)
}

// Bounds for the window reached through repeated ScaleWindow calls
const (
	MinWindow = 1e-3
	MaxWindow = 1e9
)

// ScaleWindow multiplies the color window by factor and redraws.
// A positive factor saturates at MinWindow and MaxWindow.
func (s *Session) ScaleWindow(factor float64) error {
	window, level := s.converter.WindowLevel()
	scaled := window * factor
	if factor > 0 {
		scaled = math.Min(MaxWindow, math.Max(MinWindow, scaled))
	}
	return s.setWindowLevel(WindowLevel{Window: scaled, Level: level})
}

// ShiftLevel moves the color level by fraction of the current window and redraws
func (s *Session) ShiftLevel(fraction float64) error {
	window, level := s.converter.WindowLevel()
	return s.setWindowLevel(WindowLevel{Window: window, Level: level + fraction*window})
}

// ToggleAutoWindow switches between the configured and the automatic
// window/level. It reports false when no automatic window is available.
func (s *Session) ToggleAutoWindow() (bool, error) {
	if s.auto == nil {
		return false, nil
	}
	
	if s.autoOn {
		s.autoOn = false
		return true, s.apply(s.manual)
	}
	s.autoOn = true
	return true, s.apply(*s.auto)
}

func (s *Session) setWindowLevel(wl WindowLevel) error {
	// Manual adjustment leaves auto mode
	s.autoOn = false
	if err := s.apply(wl); err != nil {
		return err
	}
	s.manual = wl
	return nil
}

func (s *Session) apply(wl WindowLevel) error {
	if err := s.converter.SetWindowLevel(wl.Window, wl.Level); err != nil {
		return err
	}
	
	current := s.nav.Current()
	img, err := s.converter.ExtractSlice(models.AxisZ, current)
	if err != nil {
		return err
	}
	s.renderer.Display(img, current)
	s.renderer.Render()
	s.logger.Debug("window/level changed", zap.Float64("window", wl.Window), zap.Float64("level", wl.Level))
	return nil
}

// refresh redraws after the slice index moved
func (s *Session) refresh(slice int) error {
	img, err := s.converter.ExtractSlice(models.AxisZ, slice)
	if err != nil {
		return fmt.Errorf("error converting slice %d: %w", slice, err)
	}
	s.renderer.Display(img, slice)
	
	s.visible = fiducial.ComputeVisibility(s.points, slice, s.geometry)
	for i, id := range s.markers {
		s.renderer.SetMarkerVisible(id, s.visible[i])
	}
	
	s.renderer.Render()
	s.logger.Info(fmt.Sprintf("Slice: %d", slice),
		zap.Int("slice", slice),
		zap.Int("visibleMarkers", fiducial.CountVisible(s.visible)))
	return nil
}

// Visibility returns a copy of the current per-landmark visibility
func (s *Session) Visibility() []bool {
	return append([]bool(nil), s.visible...)
}

// Status reports the current slice, window and landmark state
func (s *Session) Status() Status {
	current := s.nav.Current()
	rng := s.nav.Range()
	window, level := s.converter.WindowLevel()
	
	st := Status{
		Slice:    current,
		Min:      rng.Min,
		Max:      rng.Max,
		Position: s.geometry.Position(current),
		Visible:  fiducial.CountVisible(s.visible),
		Total:    len(s.points),
		Window:   window,
		Level:    level,
		Auto:     s.autoOn,
	}
	if p, dist, ok := s.index.Nearest(st.Position); ok {
		st.Nearest = &p
		st.NearestDistance = dist
	}
	return st
}

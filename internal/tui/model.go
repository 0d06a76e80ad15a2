// Package tui is the terminal slice viewer. Its Model is both the bubbletea
// program model and the session's renderer.
package tui

import (
	"fmt"
	"image"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"niftiviewer/internal/session"
)

// windowStep scales the color window per key press
const windowStep = 1.1

// levelStep moves the color level by this fraction of the window per key press
const levelStep = 0.05

// Controller is what the model drives in response to keys
type Controller interface {
	HandleKey(key string) (bool, error)
	First() (bool, error)
	Last() (bool, error)
	NextLandmark() (bool, error)
	PrevLandmark() (bool, error)
	ScaleWindow(factor float64) error
	ShiftLevel(fraction float64) error
	ToggleAutoWindow() (bool, error)
	Status() session.Status
}

type marker struct {
	at      image.Point
	color   string
	visible bool
}

// Model renders the current slice with half-block characters
type Model struct {
	ctrl  Controller
	keys  keyMap
	help  help.Model
	title string
	
	// pixelAspect is the physical height of a voxel divided by its width
	pixelAspect float64
	
	width  int
	height int
	
	img     image.Image
	slice   int
	markers []marker
	
	// frame caches the rendered image until Render or a resize invalidates it
	frame string
	dirty bool
	
	notice string
	err    error
}

// Options configures a Model
type Options struct {
	// Title is shown above the slice, usually the volume file name
	Title string
	
	// PixelAspect is y spacing over x spacing; 0 means square voxels
	PixelAspect float64
}

// NewModel creates a model with the default key bindings
func NewModel(opts Options) *Model {
	aspect := opts.PixelAspect
	if aspect <= 0 {
		aspect = 1
	}
	return &Model{
		keys:        defaultKeyMap(),
		help:        help.New(),
		title:       opts.Title,
		pixelAspect: aspect,
		width:       80,
		height:      24,
	}
}

// SetController attaches the session that handles key presses
func (m *Model) SetController(c Controller) {
	m.ctrl = c
}

// Err returns the error that stopped the program, if any
func (m *Model) Err() error {
	return m.err
}

// Display implements session.Renderer
func (m *Model) Display(img image.Image, slice int) {
	m.img = img
	m.slice = slice
}

// Render implements session.Renderer
func (m *Model) Render() {
	m.dirty = true
}

// AddMarker implements session.Renderer
func (m *Model) AddMarker(pos image.Point, color string, visible bool) int {
	m.markers = append(m.markers, marker{at: pos, color: color, visible: visible})
	return len(m.markers) - 1
}

// SetMarkerVisible implements session.Renderer
func (m *Model) SetMarkerVisible(id int, visible bool) {
	if id >= 0 && id < len(m.markers) {
		m.markers[id].visible = visible
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.dirty = true
		return m, nil
		
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		m.dirty = true
		return m, nil
	}
	if m.ctrl == nil {
		return m, nil
	}
	
	m.notice = ""
	
	// err stops the program; wlErr only rejects a window/level change
	var err, wlErr error
	switch {
	case key.Matches(msg, m.keys.Next), key.Matches(msg, m.keys.Prev):
		_, err = m.ctrl.HandleKey(msg.String())
	case key.Matches(msg, m.keys.First):
		_, err = m.ctrl.First()
	case key.Matches(msg, m.keys.Last):
		_, err = m.ctrl.Last()
	case key.Matches(msg, m.keys.NextLandmark):
		var moved bool
		if moved, err = m.ctrl.NextLandmark(); err == nil && !moved {
			m.notice = "no landmark above"
		}
	case key.Matches(msg, m.keys.PrevLandmark):
		var moved bool
		if moved, err = m.ctrl.PrevLandmark(); err == nil && !moved {
			m.notice = "no landmark below"
		}
	case key.Matches(msg, m.keys.WiderWindow):
		wlErr = m.ctrl.ScaleWindow(windowStep)
	case key.Matches(msg, m.keys.NarrowWindow):
		wlErr = m.ctrl.ScaleWindow(1 / windowStep)
	case key.Matches(msg, m.keys.RaiseLevel):
		wlErr = m.ctrl.ShiftLevel(levelStep)
	case key.Matches(msg, m.keys.LowerLevel):
		wlErr = m.ctrl.ShiftLevel(-levelStep)
	case key.Matches(msg, m.keys.AutoWindow):
		var ok bool
		if ok, wlErr = m.ctrl.ToggleAutoWindow(); wlErr == nil && !ok {
			m.notice = "auto window unavailable"
		}
	}
	
	if wlErr != nil {
		m.notice = "window/level rejected: " + wlErr.Error()
		return m, nil
	}
	if err != nil {
		m.err = fmt.Errorf("viewer stopped: %w", err)
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model
func (m *Model) View() string {
	if m.dirty || m.frame == "" {
		m.frame = m.renderFrame()
		m.dirty = false
	}
	return m.frame + "\n" + m.statusLine() + "\n" + m.help.View(m.keys)
}

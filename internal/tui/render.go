package tui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"

	"niftiviewer/pkg/visualization"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#c0caf5"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
	
	fallbackMarker = color.RGBA{R: 255, G: 48, B: 48, A: 255}
)

// halfBlock draws the top pixel in the foreground and the bottom one in the background
const halfBlock = "▀"

// chromeLines counts the title, status and short help lines around the image
const chromeLines = 3

// fit returns the largest pixel size within maxW x maxH that keeps the
// physical proportions of a w x h image whose pixels are aspect times taller than wide
func fit(w, h int, aspect float64, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	
	ratio := float64(h) * aspect / float64(w)
	dw := maxW
	dh := int(math.Round(float64(dw) * ratio))
	if dh > maxH {
		dh = maxH
		dw = int(math.Round(float64(dh) / ratio))
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	return dw, dh
}

// imageRows returns how many terminal rows the slice may use
func (m *Model) imageRows() int {
	rows := m.height - chromeLines
	if m.help.ShowAll {
		// full help takes as many lines as its tallest column
		tallest := 0
		for _, col := range m.keys.FullHelp() {
			if len(col) > tallest {
				tallest = len(col)
			}
		}
		rows -= tallest - 1
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *Model) renderFrame() string {
	header := titleStyle.Render(m.title)
	if m.img == nil {
		return header + "\n(no image)"
	}
	
	src := m.img.Bounds()
	dw, dh := fit(src.Dx(), src.Dy(), m.pixelAspect, m.width, m.imageRows()*2)
	if dw == 0 {
		return header
	}
	
	scaled := image.NewGray(image.Rect(0, 0, dw, dh))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), m.img, src, draw.Src, nil)
	
	var markers []visualization.Marker
	for _, mk := range m.markers {
		if !mk.visible {
			continue
		}
		c, err := visualization.ParseColor(mk.color)
		if err != nil {
			c = fallbackMarker
		}
		at := image.Pt(
			int((float64(mk.at.X-src.Min.X)+0.5)*float64(dw)/float64(src.Dx())),
			int((float64(mk.at.Y-src.Min.Y)+0.5)*float64(dh)/float64(src.Dy())),
		)
		markers = append(markers, visualization.Marker{At: at, Color: c})
	}
	frame := visualization.Overlay(scaled, markers)
	
	var b strings.Builder
	b.WriteString(header)
	cells := make(map[[2]color.RGBA]string)
	for y := 0; y < dh; y += 2 {
		b.WriteByte('\n')
		for x := 0; x < dw; x++ {
			top := frame.RGBAAt(x, y)
			bottom := color.RGBA{}
			if y+1 < dh {
				bottom = frame.RGBAAt(x, y+1)
			}
			k := [2]color.RGBA{top, bottom}
			cell, ok := cells[k]
			if !ok {
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor(top)))
				if y+1 < dh {
					style = style.Background(lipgloss.Color(hexColor(bottom)))
				}
				cell = style.Render(halfBlock)
				cells[k] = cell
			}
			b.WriteString(cell)
		}
	}
	return b.String()
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (m *Model) statusLine() string {
	if m.ctrl == nil {
		return statusStyle.Render(fmt.Sprintf("Slice %d", m.slice))
	}
	
	st := m.ctrl.Status()
	parts := []string{
		fmt.Sprintf("Slice %d/%d", st.Slice, st.Max),
		fmt.Sprintf("z=%.2f", st.Position),
		fmt.Sprintf("W/L %.0f/%.0f", st.Window, st.Level),
	}
	if st.Auto {
		parts[2] += " auto"
	}
	if st.Total > 0 {
		parts = append(parts, fmt.Sprintf("markers %d/%d", st.Visible, st.Total))
		if st.Nearest != nil {
			parts = append(parts, fmt.Sprintf("nearest %s (%.1f)", st.Nearest.ID, st.NearestDistance))
		}
	}
	
	line := statusStyle.Render(strings.Join(parts, "  "))
	if m.notice != "" {
		line += "  " + noticeStyle.Render(m.notice)
	}
	return line
}

package visualization

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FiniteValues returns the values of data that are neither NaN nor infinite
func FiniteValues(data []float64) []float64 {
	finite := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	return finite
}

// AutoWindow picks a color window and level spanning the [low, high]
// quantiles of the finite voxel intensities
func AutoWindow(data []float64, low, high float64) (window, level float64, err error) {
	if low < 0 || high > 1 || low >= high {
		return 0, 0, fmt.Errorf("invalid percentiles: low %g, high %g", low, high)
	}
	
	sorted := FiniteValues(data)
	if len(sorted) == 0 {
		return 0, 0, fmt.Errorf("cannot compute window: no finite intensities among %d voxels", len(data))
	}
	sort.Float64s(sorted)
	
	lo := stat.Quantile(low, stat.Empirical, sorted, nil)
	hi := stat.Quantile(high, stat.Empirical, sorted, nil)
	if hi <= lo {
		// Mostly constant volume: fall back to the full range
		lo, hi = floats.Min(sorted), floats.Max(sorted)
	}
	
	window = hi - lo
	if !(window > 0) || math.IsInf(window, 0) {
		window = 1
	}
	level = lo + window/2
	return window, level, nil
}

// ParseColor converts a hex color such as "#ff3030" into an opaque RGBA color
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid marker color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

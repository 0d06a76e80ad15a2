package fiducial

import (
	"math"

	"niftiviewer/internal/models"
	"niftiviewer/pkg/navigation"
)

// ComputeVisibility returns, for each point in order, whether it lies within
// half a slice spacing of the plane at sliceIndex. The interval is open:
// a point exactly half a spacing away is hidden.
func ComputeVisibility(points []Point, sliceIndex int, g models.SliceGeometry) []bool {
	sliceZ := g.Position(sliceIndex)
	tolerance := g.Spacing / 2
	
	visible := make([]bool, len(points))
	for i, p := range points {
		visible[i] = math.Abs(p.Z-sliceZ) < tolerance
	}
	return visible
}

// CountVisible returns the number of true entries
func CountVisible(visible []bool) int {
	n := 0
	for _, v := range visible {
		if v {
			n++
		}
	}
	return n
}

// SliceFor returns the slice in rng whose plane shows p, if any
func SliceFor(p Point, g models.SliceGeometry, rng navigation.SliceRange) (int, bool) {
	if g.Spacing <= 0 {
		return 0, false
	}
	
	nearest := int(math.Round((p.Z - g.Origin) / g.Spacing))
	best, bestDist := 0, math.Inf(1)
	for k := nearest - 1; k <= nearest+1; k++ {
		if !rng.Contains(k) {
			continue
		}
		dist := math.Abs(p.Z - g.Position(k))
		if dist < g.Spacing/2 && dist < bestDist {
			best, bestDist = k, dist
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

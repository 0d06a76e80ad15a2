package fiducial

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"niftiviewer/internal/models"
	"niftiviewer/pkg/navigation"
)

// depth is a landmark keyed by its z coordinate
type depth struct {
	z   float64
	idx int
}

// Compare implements the kdtree.Comparable interface
func (d depth) Compare(c kdtree.Comparable, _ kdtree.Dim) float64 {
	return d.z - c.(depth).z
}

// Dims returns the number of dimensions for the KD-tree
func (d depth) Dims() int { return 1 }

// Distance returns the squared z distance between two landmarks
func (d depth) Distance(c kdtree.Comparable) float64 {
	dz := d.z - c.(depth).z
	return dz * dz
}

// depths satisfies kdtree.Interface
type depths []depth

func (d depths) Index(i int) kdtree.Comparable         { return d[i] }
func (d depths) Len() int                              { return len(d) }
func (d depths) Slice(start, end int) kdtree.Interface { return d[start:end] }

func (d depths) Pivot(_ kdtree.Dim) int {
	return kdtree.Partition(depthPlane(d), kdtree.MedianOfRandoms(depthPlane(d), 100))
}

// depthPlane implements sort.Interface and kdtree.SortSlicer for depths
type depthPlane []depth

func (p depthPlane) Len() int           { return len(p) }
func (p depthPlane) Less(i, j int) bool { return p[i].z < p[j].z }
func (p depthPlane) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

func (p depthPlane) Slice(start, end int) kdtree.SortSlicer { return p[start:end] }

// Index answers slice-oriented questions about a landmark set: which landmark
// is nearest a plane and which slices hold landmarks at all.
type Index struct {
	points []Point
	tree   *kdtree.Tree
	
	// slices holds sorted, distinct slice indices that show at least one landmark
	slices []int
}

// NewIndex builds an index over points for the given geometry and range
func NewIndex(points []Point, g models.SliceGeometry, rng navigation.SliceRange) *Index {
	keys := make(depths, len(points))
	seen := make(map[int]bool)
	var slices []int
	for i, p := range points {
		keys[i] = depth{z: p.Z, idx: i}
		if k, ok := SliceFor(p, g, rng); ok && !seen[k] {
			seen[k] = true
			slices = append(slices, k)
		}
	}
	sort.Ints(slices)
	
	ix := &Index{points: points, slices: slices}
	if len(keys) > 0 {
		ix.tree = kdtree.New(keys, false)
	}
	return ix
}

// Nearest returns the landmark whose z is closest to z and its absolute distance
func (ix *Index) Nearest(z float64) (Point, float64, bool) {
	if ix.tree == nil {
		return Point{}, 0, false
	}
	
	c, dist := ix.tree.Nearest(depth{z: z})
	if c == nil {
		return Point{}, 0, false
	}
	return ix.points[c.(depth).idx], math.Sqrt(dist), true
}

// Slices returns the slice indices that show at least one landmark
func (ix *Index) Slices() []int {
	return ix.slices
}

// Next returns the first landmark slice after current
func (ix *Index) Next(current int) (int, bool) {
	i := sort.SearchInts(ix.slices, current+1)
	if i >= len(ix.slices) {
		return current, false
	}
	return ix.slices[i], true
}

// Prev returns the last landmark slice before current
func (ix *Index) Prev(current int) (int, bool) {
	i := sort.SearchInts(ix.slices, current)
	if i == 0 {
		return current, false
	}
	return ix.slices[i-1], true
}

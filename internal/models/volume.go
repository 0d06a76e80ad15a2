package models

import "fmt"

// Axis identifies one of the three volume axes
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// ParseAxis accepts "x", "y" or "z" in either case
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	default:
		return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", s)
	}
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Volume represents a 3D image volume decoded from disk
type Volume struct {
	// Data is the 3D volume data as a 1D array, x fastest, then y, then z
	Data []float64
	
	// Width is the width of the volume in voxels
	Width int
	
	// Height is the height of the volume in voxels
	Height int
	
	// Depth is the depth of the volume in voxels (number of axial slices)
	Depth int
	
	// Spacing is the physical distance between voxel centers along x, y, z in mm
	Spacing [3]float64
	
	// Origin is the physical position of voxel (0,0,0)
	Origin [3]float64
	
	// Datatype is the on-disk voxel type, e.g. "int16" or "float32"
	Datatype string
}

// Index returns the offset of voxel (x, y, z) in Data
func (v *Volume) Index(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}

// Len returns the number of voxels the dimensions describe
func (v *Volume) Len() int {
	return v.Width * v.Height * v.Depth
}

// Extent returns the number of slices along an axis
func (v *Volume) Extent(axis Axis) int {
	switch axis {
	case AxisX:
		return v.Width
	case AxisY:
		return v.Height
	default:
		return v.Depth
	}
}

// SliceGeometry describes the position of slices along the scroll axis
type SliceGeometry struct {
	// Spacing is the physical distance between consecutive slices
	Spacing float64
	
	// Origin is the physical position of slice 0
	Origin float64
}

// Geometry returns the slice geometry along an axis
func (v *Volume) Geometry(axis Axis) SliceGeometry {
	return SliceGeometry{
		Spacing: v.Spacing[axis],
		Origin:  v.Origin[axis],
	}
}

// Position returns the physical coordinate of a slice index
func (g SliceGeometry) Position(index int) float64 {
	return float64(index)*g.Spacing + g.Origin
}

package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"niftiviewer/internal/models"
)

// ConversionError reports a volume that cannot be turned into a display image
type ConversionError struct {
	Op  string
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

var (
	ErrBufferSize    = errors.New("voxel buffer does not match volume dimensions")
	ErrOutOfRange    = errors.New("slice position out of range")
	ErrInvalidWindow = errors.New("color window must be positive")
)

// Viewer converts slices of a volume into 8-bit grey images using a
// window/level mapping, the way a medical image viewer displays them.
type Viewer struct {
	// volume holds the decoded voxels and geometry
	volume *models.Volume
	
	// window is the width of the intensity range mapped onto 0..255
	window float64
	
	// level is the intensity mapped to mid grey
	level float64
}

// NewViewer creates a viewer over vol with the given color window and level
func NewViewer(vol *models.Volume, window, level float64) (*Viewer, error) {
	if vol == nil || len(vol.Data) != vol.Len() || vol.Len() == 0 {
		got := 0
		if vol != nil {
			got = len(vol.Data)
		}
		return nil, &ConversionError{Op: "convert volume", Err: fmt.Errorf("%w: %d voxels", ErrBufferSize, got)}
	}
	
	v := &Viewer{volume: vol}
	if err := v.SetWindowLevel(window, level); err != nil {
		return nil, err
	}
	return v, nil
}

// SetWindowLevel changes the intensity mapping used by later ExtractSlice calls
func (v *Viewer) SetWindowLevel(window, level float64) error {
	if !(window > 0) || math.IsInf(window, 0) || math.IsNaN(level) {
		return &ConversionError{Op: "set window/level", Err: fmt.Errorf("%w: window %g", ErrInvalidWindow, window)}
	}
	v.window = window
	v.level = level
	return nil
}

// WindowLevel returns the current color window and level
func (v *Viewer) WindowLevel() (float64, float64) {
	return v.window, v.level
}

// Volume returns the volume being viewed
func (v *Viewer) Volume() *models.Volume {
	return v.volume
}

// Gray maps one intensity to a grey value: 0 at level-window/2, 255 at level+window/2
func (v *Viewer) Gray(value float64) uint8 {
	scaled := (value - (v.level - v.window/2)) / v.window * 255
	return uint8(math.Max(0, math.Min(255, math.Round(scaled))))
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis.
// The vertical image axis points up in physical space, so row 0 holds the
// highest y (for z slices) or z (for x and y slices).
func (v *Viewer) ExtractSlice(axis models.Axis, position int) (*image.Gray, error) {
	vol := v.volume
	if position < 0 || position >= vol.Extent(axis) {
		return nil, &ConversionError{
			Op:  "extract slice",
			Err: fmt.Errorf("%w: %s position %d, extent %d", ErrOutOfRange, axis, position, vol.Extent(axis)),
		}
	}
	
	var img *image.Gray
	
	switch axis {
	case models.AxisX:
		// Extract slice along YZ plane
		img = image.NewGray(image.Rect(0, 0, vol.Height, vol.Depth))
		for z := 0; z < vol.Depth; z++ {
			for y := 0; y < vol.Height; y++ {
				img.Pix[img.PixOffset(y, vol.Depth-1-z)] = v.Gray(vol.Data[vol.Index(position, y, z)])
			}
		}
		
	case models.AxisY:
		// Extract slice along XZ plane
		img = image.NewGray(image.Rect(0, 0, vol.Width, vol.Depth))
		for z := 0; z < vol.Depth; z++ {
			for x := 0; x < vol.Width; x++ {
				img.Pix[img.PixOffset(x, vol.Depth-1-z)] = v.Gray(vol.Data[vol.Index(x, position, z)])
			}
		}
		
	case models.AxisZ:
		// Extract slice along XY plane
		img = image.NewGray(image.Rect(0, 0, vol.Width, vol.Height))
		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				img.Pix[img.PixOffset(x, vol.Height-1-y)] = v.Gray(vol.Data[vol.Index(x, y, position)])
			}
		}
		
	default:
		return nil, &ConversionError{Op: "extract slice", Err: fmt.Errorf("invalid axis: %s", axis)}
	}
	
	return img, nil
}

// PlanePosition maps a physical (x, y) position onto pixel coordinates of an
// axial slice image returned by ExtractSlice
func (v *Viewer) PlanePosition(x, y float64) image.Point {
	vol := v.volume
	col := int(math.Round((x - vol.Origin[0]) / vol.Spacing[0]))
	row := int(math.Round((y - vol.Origin[1]) / vol.Spacing[1]))
	return image.Pt(col, vol.Height-1-row)
}

// Format is an image file format for saved slices
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat accepts png, jpeg or jpg
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unsupported image format: %s (must be png or jpeg)", s)
	}
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return "png"
}

// SaveSlice saves an extracted slice in the given format
func SaveSlice(img image.Image, filename string, format Format, quality int) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	
	if format == FormatJPEG {
		return jpeg.Encode(file, img, &jpeg.Options{Quality: quality})
	}
	return png.Encode(file, img)
}

// SequenceOptions controls SaveSliceSequence
type SequenceOptions struct {
	Format  Format
	Quality int
	
	// Markers, when set, returns the markers to draw on a slice
	Markers func(position int) []Marker
}

// SliceFilename returns the file name used for one slice of a sequence
func SliceFilename(axis models.Axis, position int, format Format) string {
	return fmt.Sprintf("slice_%s_%03d.%s", axis, position, format.Extension())
}

// SaveSliceSequence extracts and saves every slice along the specified axis
func (v *Viewer) SaveSliceSequence(axis models.Axis, outputDir string, opts SequenceOptions) (int, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}
	
	if opts.Format == "" {
		opts.Format = FormatPNG
	}
	
	maxPos := v.volume.Extent(axis)
	for pos := 0; pos < maxPos; pos++ {
		gray, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return pos, err
		}
		
		var img image.Image = gray
		if opts.Markers != nil {
			if markers := opts.Markers(pos); len(markers) > 0 {
				img = Overlay(gray, markers)
			}
		}
		
		filename := filepath.Join(outputDir, SliceFilename(axis, pos, opts.Format))
		if err := SaveSlice(img, filename, opts.Format, opts.Quality); err != nil {
			return pos, fmt.Errorf("error saving %s: %w", filename, err)
		}
	}
	
	return maxPos, nil
}

// Marker is a landmark drawn on a slice image
type Marker struct {
	At    image.Point
	Color color.RGBA
}

// markerRadius is the half-length of a marker cross in pixels
const markerRadius = 2

// Overlay returns a color copy of img with a cross drawn at each marker
func Overlay(img *image.Gray, markers []Marker) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := img.GrayAt(x, y).Y
			out.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: 255})
		}
	}
	
	for _, m := range markers {
		for d := -markerRadius; d <= markerRadius; d++ {
			for _, p := range []image.Point{{m.At.X + d, m.At.Y}, {m.At.X, m.At.Y + d}} {
				if p.In(b) {
					out.SetRGBA(p.X, p.Y, m.Color)
				}
			}
		}
	}
	return out
}

package nifti

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"niftiviewer/internal/models"
)

var (
	ErrNotNIfTI            = errors.New("not a NIfTI-1 file")
	ErrTruncated           = errors.New("file is truncated")
	ErrBadDims             = errors.New("invalid dimensions")
	ErrUnsupportedDatatype = errors.New("unsupported datatype")
)

// DecodeError reports a volume that could not be read or decoded
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error reading %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Load reads the volume at path. Gzip input is detected from its magic bytes.
// Paired .hdr files read their voxels from the matching .img file.
// Only the first time point of a 4D series is loaded.
func Load(path string) (*models.Volume, error) {
	vol, _, err := LoadWithHeader(path)
	return vol, err
}

// LoadWithHeader is Load that also returns the decoded header
func LoadWithHeader(path string) (*models.Volume, *Header, error) {
	vol, h, err := load(path)
	if err != nil {
		return nil, nil, &DecodeError{Path: path, Err: err}
	}
	return vol, h, nil
}

// ReadHeader reads only the header of the file at path
func ReadHeader(path string) (*Header, error) {
	r, closer, err := open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer closer()
	
	h, _, err := readHeader(r)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return h, nil
}

func load(path string) (*models.Volume, *Header, error) {
	r, closer, err := open(path)
	if err != nil {
		return nil, nil, err
	}
	defer closer()
	
	h, order, err := readHeader(r)
	if err != nil {
		return nil, nil, err
	}
	
	if h.PairedFile() {
		imgPath := pairedImagePath(path)
		ir, imgCloser, err := open(imgPath)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening image data %s: %w", imgPath, err)
		}
		defer imgCloser()
		
		vol, err := Decode(h, order, ir, int64(h.VoxOffset))
		return vol, h, err
	}
	
	offset := int64(h.VoxOffset)
	if offset < HeaderSize+4 {
		offset = HeaderSize + 4
	}
	vol, err := Decode(h, order, r, offset-HeaderSize)
	return vol, h, err
}

// Decode reads voxel data from r after skipping skip bytes
func Decode(h *Header, order binary.ByteOrder, r io.Reader, skip int64) (*models.Volume, error) {
	width, height, depth, err := h.Dims()
	if err != nil {
		return nil, err
	}
	
	conv, size, err := converter(h.Datatype, order)
	if err != nil {
		return nil, err
	}
	if int(h.Bitpix) != size*8 {
		return nil, fmt.Errorf("%w: bitpix %d does not match %s", ErrUnsupportedDatatype, h.Bitpix, h.DatatypeName())
	}
	
	if skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, fmt.Errorf("%w: skipping to voxel data: %v", ErrTruncated, err)
		}
	}
	
	// The buffer grows with the data actually read, so a header claiming
	// more voxels than the file holds fails as truncated
	n := width * height * depth
	want := int64(n) * int64(size)
	var buf bytes.Buffer
	got, err := io.Copy(&buf, io.LimitReader(r, want))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %d voxels: %v", ErrTruncated, n, err)
	}
	if got < want {
		return nil, fmt.Errorf("%w: %d of %d voxel bytes present", ErrTruncated, got, want)
	}
	raw := buf.Bytes()
	
	slope, inter := float64(h.SclSlope), float64(h.SclInter)
	scale := slope != 0 && !math.IsNaN(slope) && !(slope == 1 && inter == 0)
	
	data := make([]float64, n)
	for i := range data {
		v := conv(raw[i*size : (i+1)*size])
		if scale {
			v = v*slope + inter
		}
		data[i] = v
	}
	
	return &models.Volume{
		Data:     data,
		Width:    width,
		Height:   height,
		Depth:    depth,
		Spacing:  h.Spacing(),
		Origin:   h.Origin(),
		Datatype: h.DatatypeName(),
	}, nil
}

// converter returns a function decoding one voxel and the voxel size in bytes
func converter(datatype int16, order binary.ByteOrder) (func([]byte) float64, int, error) {
	switch datatype {
	case DTUint8:
		return func(b []byte) float64 { return float64(b[0]) }, 1, nil
	case DTInt8:
		return func(b []byte) float64 { return float64(int8(b[0])) }, 1, nil
	case DTInt16:
		return func(b []byte) float64 { return float64(int16(order.Uint16(b))) }, 2, nil
	case DTUint16:
		return func(b []byte) float64 { return float64(order.Uint16(b)) }, 2, nil
	case DTInt32:
		return func(b []byte) float64 { return float64(int32(order.Uint32(b))) }, 4, nil
	case DTUint32:
		return func(b []byte) float64 { return float64(order.Uint32(b)) }, 4, nil
	case DTInt64:
		return func(b []byte) float64 { return float64(int64(order.Uint64(b))) }, 8, nil
	case DTUint64:
		return func(b []byte) float64 { return float64(order.Uint64(b)) }, 8, nil
	case DTFloat32:
		return func(b []byte) float64 { return float64(math.Float32frombits(order.Uint32(b))) }, 4, nil
	case DTFloat64:
		return func(b []byte) float64 { return math.Float64frombits(order.Uint64(b)) }, 8, nil
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnsupportedDatatype, datatype)
	}
}

// open returns a reader over the file, transparently gunzipping it
func open(path string) (io.Reader, func(), error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	
	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	
	if magic[0] != 0x1f || magic[1] != 0x8b {
		return br, func() { file.Close() }, nil
	}
	
	zr, err := gzip.NewReader(br)
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("error opening gzip stream: %w", err)
	}
	return zr, func() {
		zr.Close()
		file.Close()
	}, nil
}

// pairedImagePath maps foo.hdr to foo.img and foo.hdr.gz to foo.img.gz
func pairedImagePath(path string) string {
	switch {
	case strings.HasSuffix(path, ".hdr.gz"):
		return strings.TrimSuffix(path, ".hdr.gz") + ".img.gz"
	case strings.HasSuffix(path, ".hdr"):
		return strings.TrimSuffix(path, ".hdr") + ".img"
	default:
		return path + ".img"
	}
}

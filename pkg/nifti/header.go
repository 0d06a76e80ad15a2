// Package nifti decodes NIfTI-1 volumes (.nii, .nii.gz, .hdr/.img) into models.Volume.
package nifti

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// HeaderSize is the fixed size of a NIfTI-1 header in bytes
const HeaderSize = 348

// Datatype codes from nifti1.h
const (
	DTUint8   = 2
	DTInt16   = 4
	DTInt32   = 8
	DTFloat32 = 16
	DTFloat64 = 64
	DTInt8    = 256
	DTUint16  = 512
	DTUint32  = 768
	DTInt64   = 1024
	DTUint64  = 1280
)

var datatypeNames = map[int16]string{
	DTUint8:   "uint8",
	DTInt16:   "int16",
	DTInt32:   "int32",
	DTFloat32: "float32",
	DTFloat64: "float64",
	DTInt8:    "int8",
	DTUint16:  "uint16",
	DTUint32:  "uint32",
	DTInt64:   "int64",
	DTUint64:  "uint64",
}

// Header mirrors the on-disk nifti_1_header layout field for field
type Header struct {
	SizeofHdr    int32
	DataType     [10]byte
	DBName       [18]byte
	Extents      int32
	SessionError int16
	Regular      byte
	DimInfo      byte
	
	// Dim[0] is the number of dimensions, Dim[1..3] are x, y, z
	Dim [8]int16
	
	IntentP1   float32
	IntentP2   float32
	IntentP3   float32
	IntentCode int16
	Datatype   int16
	Bitpix     int16
	SliceStart int16
	
	// Pixdim[1..3] are the voxel spacings along x, y, z
	Pixdim [8]float32
	
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XYZTUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	TOffset       float32
	GLMax         int32
	GLMin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QOffsetX      float32
	QOffsetY      float32
	QOffsetZ      float32
	SRowX         [4]float32
	SRowY         [4]float32
	SRowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

// readHeader decodes a header and reports the byte order it was written in
func readHeader(r io.Reader) (*Header, binary.ByteOrder, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	
	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(buf) == HeaderSize:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(buf) == HeaderSize:
		order = binary.BigEndian
	default:
		return nil, nil, fmt.Errorf("%w: sizeof_hdr is %d", ErrNotNIfTI, binary.LittleEndian.Uint32(buf))
	}
	
	h := &Header{}
	if err := binary.Read(bytes.NewReader(buf), order, h); err != nil {
		return nil, nil, fmt.Errorf("error decoding header: %w", err)
	}
	
	if !h.SingleFile() && !h.PairedFile() {
		return nil, nil, fmt.Errorf("%w: magic %q", ErrNotNIfTI, h.Magic[:3])
	}
	
	return h, order, nil
}

// SingleFile reports an "n+1" header followed by data in the same file
func (h *Header) SingleFile() bool {
	return h.Magic == [4]byte{'n', '+', '1', 0}
}

// PairedFile reports an "ni1" header whose data lives in a separate .img file
func (h *Header) PairedFile() bool {
	return h.Magic == [4]byte{'n', 'i', '1', 0}
}

// DatatypeName returns the Go-style name of the voxel type
func (h *Header) DatatypeName() string {
	if name, ok := datatypeNames[h.Datatype]; ok {
		return name
	}
	return fmt.Sprintf("datatype(%d)", h.Datatype)
}

// Dims returns width, height and depth. Missing dimensions count as 1.
func (h *Header) Dims() (int, int, int, error) {
	ndim := int(h.Dim[0])
	if ndim < 1 || ndim > 7 {
		return 0, 0, 0, fmt.Errorf("%w: dim[0] is %d", ErrBadDims, ndim)
	}
	
	size := [3]int{1, 1, 1}
	for i := 0; i < 3 && i < ndim; i++ {
		n := int(h.Dim[i+1])
		if n < 1 {
			return 0, 0, 0, fmt.Errorf("%w: dim[%d] is %d", ErrBadDims, i+1, n)
		}
		size[i] = n
	}
	return size[0], size[1], size[2], nil
}

// Spacing returns the absolute voxel spacing, with 0 replaced by 1
func (h *Header) Spacing() [3]float64 {
	var s [3]float64
	for i := range s {
		v := float64(h.Pixdim[i+1])
		if v < 0 {
			v = -v
		}
		if v == 0 {
			v = 1
		}
		s[i] = v
	}
	return s
}

// Origin returns the physical position of voxel (0,0,0).
// The qform offset wins over the sform translation.
func (h *Header) Origin() [3]float64 {
	switch {
	case h.QformCode > 0:
		return [3]float64{float64(h.QOffsetX), float64(h.QOffsetY), float64(h.QOffsetZ)}
	case h.SformCode > 0:
		return [3]float64{float64(h.SRowX[3]), float64(h.SRowY[3]), float64(h.SRowZ[3])}
	default:
		return [3]float64{}
	}
}

// Description returns the descrip field without trailing NULs
func (h *Header) Description() string {
	return strings.TrimRight(string(h.Descrip[:]), "\x00")
}

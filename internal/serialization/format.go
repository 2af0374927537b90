// Package serialization reads and writes .sgt files, the archive format
// for named tensors (matrices, spectra, solver outputs).
//
// Layout:
//
//	[0x00] magic "SGT1"
//	[0x04] header length (uint32, little endian)
//	[0x08] SHA-256 checksum of the data section (32 bytes)
//	[0x28] JSON header, padded so the data section starts 64-byte aligned
//	[....] tensor data, concatenated in header order
package serialization

import (
	"time"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

const (
	// Magic identifies a .sgt file and pins the format version.
	Magic = "SGT1"
	// DataAlignment is the byte alignment of the data section.
	DataAlignment = 64
	// checksumSize is the size of the SHA-256 digest.
	checksumSize = 32
	// fixedHeaderSize covers magic, header length and checksum.
	fixedHeaderSize = 4 + 4 + checksumSize
)

// Header is the JSON header of a .sgt file.
type Header struct {
	CreatedAt time.Time         `json:"created_at"`
	Tensors   []TensorMeta      `json:"tensors"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return "float32"
	case tensor.Float64:
		return "float64"
	case tensor.Int32:
		return "int32"
	case tensor.Int64:
		return "int64"
	default:
		return "unknown"
	}
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case "float32":
		return tensor.Float32, true
	case "float64":
		return tensor.Float64, true
	case "int32":
		return tensor.Int32, true
	case "int64":
		return tensor.Int64, true
	default:
		return 0, false
	}
}

// alignUp rounds n up to the next multiple of align.
func alignUp(n, align int64) int64 {
	return (n + align - 1) / align * align
}

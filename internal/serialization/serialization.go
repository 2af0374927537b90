package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// ErrChecksumMismatch reports a corrupted data section.
var ErrChecksumMismatch = errors.New("serialization: checksum mismatch")

// Save writes the named tensors to path in .sgt format. Tensors are laid
// out in lexicographic name order so files are reproducible.
func Save(path string, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	if len(tensors) == 0 {
		return fmt.Errorf("serialization: nothing to save")
	}

	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		CreatedAt: time.Now().UTC(),
		Metadata:  metadata,
		Tensors:   make([]TensorMeta, 0, len(names)),
	}

	var data bytes.Buffer
	for _, name := range names {
		raw := tensors[name]
		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: int64(data.Len()),
			Size:   size,
		})
		data.Write(raw.Data()[:size])
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("serialization: encode header: %w", err)
	}
	// Pad the header so the data section starts aligned.
	dataStart := alignUp(fixedHeaderSize+int64(len(headerJSON)), DataAlignment)
	padded := make([]byte, dataStart-fixedHeaderSize)
	copy(padded, headerJSON)

	checksum := sha256.Sum256(data.Bytes())

	var out bytes.Buffer
	out.WriteString(Magic)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(headerJSON)))
	out.Write(lenBuf[:])
	out.Write(checksum[:])
	out.Write(padded)
	out.Write(data.Bytes())

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("serialization: write %s: %w", path, err)
	}
	return nil
}

// Load reads a .sgt file back into named tensors, verifying the checksum
// before any tensor is materialized.
func Load(path string) (map[string]*tensor.RawTensor, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("serialization: read %s: %w", path, err)
	}
	if len(blob) < fixedHeaderSize || string(blob[:4]) != Magic {
		return nil, fmt.Errorf("serialization: %s is not a .sgt file", path)
	}

	headerLen := int64(binary.LittleEndian.Uint32(blob[4:8]))
	var stored [checksumSize]byte
	copy(stored[:], blob[8:8+checksumSize])

	if fixedHeaderSize+headerLen > int64(len(blob)) {
		return nil, fmt.Errorf("serialization: truncated header in %s", path)
	}
	var header Header
	if err := json.Unmarshal(blob[fixedHeaderSize:fixedHeaderSize+headerLen], &header); err != nil {
		return nil, fmt.Errorf("serialization: decode header: %w", err)
	}

	dataStart := alignUp(fixedHeaderSize+headerLen, DataAlignment)
	if dataStart > int64(len(blob)) {
		return nil, fmt.Errorf("serialization: truncated data section in %s", path)
	}
	data := blob[dataStart:]

	if sha256.Sum256(data) != stored {
		return nil, ErrChecksumMismatch
	}

	tensors := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, fmt.Errorf("serialization: tensor %q has unknown dtype %q", meta.Name, meta.DType)
		}
		if meta.Offset < 0 || meta.Offset+meta.Size > int64(len(data)) {
			return nil, fmt.Errorf("serialization: tensor %q data out of bounds", meta.Name)
		}
		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, tensor.CPU)
		if err != nil {
			return nil, fmt.Errorf("serialization: tensor %q: %w", meta.Name, err)
		}
		if int64(raw.ByteSize()) != meta.Size {
			return nil, fmt.Errorf("serialization: tensor %q size %d does not match shape %v", meta.Name, meta.Size, meta.Shape)
		}
		copy(raw.Data(), data[meta.Offset:meta.Offset+meta.Size])
		tensors[meta.Name] = raw
	}
	return tensors, nil
}

package serialization_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigrad-ml/scigrad/internal/backend/cpu"
	"github.com/scigrad-ml/scigrad/internal/serialization"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

func raw64(t *testing.T, data []float64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	tt, err := tensor.FromSlice(data, shape, cpu.New())
	require.NoError(t, err)
	return tt.Raw()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.sgt")

	in := map[string]*tensor.RawTensor{
		"eigenvalues":  raw64(t, []float64{1, 2, 3}, tensor.Shape{3}),
		"eigenvectors": raw64(t, []float64{1, 0, 0, 1, 0, 0}, tensor.Shape{3, 2}),
	}
	require.NoError(t, serialization.Save(path, in, map[string]string{"method": "exact"}))

	out, err := serialization.Load(path)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, tensor.Shape{3}, out["eigenvalues"].Shape())
	assert.Equal(t, in["eigenvalues"].AsFloat64(), out["eigenvalues"].AsFloat64())
	assert.Equal(t, tensor.Shape{3, 2}, out["eigenvectors"].Shape())
	assert.Equal(t, in["eigenvectors"].AsFloat64(), out["eigenvectors"].AsFloat64())
}

func TestSaveEmpty(t *testing.T) {
	err := serialization.Save(filepath.Join(t.TempDir(), "x.sgt"), nil, nil)
	assert.ErrorContains(t, err, "nothing to save")
}

func TestLoadRejectsCorruptedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.sgt")
	in := map[string]*tensor.RawTensor{"x": raw64(t, []float64{1, 2, 3, 4}, tensor.Shape{4})}
	require.NoError(t, serialization.Save(path, in, nil))

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	blob[len(blob)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, blob, 0o644))

	_, err = serialization.Load(path)
	assert.ErrorIs(t, err, serialization.ErrChecksumMismatch)
}

func TestLoadRejectsWrongMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notsgt.bin")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a tensor archive"), 0o644))

	_, err := serialization.Load(path)
	assert.ErrorContains(t, err, "not a .sgt file")
}

package cli_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigrad-ml/scigrad/internal/backend/cpu"
	"github.com/scigrad-ml/scigrad/internal/cli"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadMatrix(t *testing.T) {
	path := writeFile(t, "1, 2, 3\n4, 5, 6\n")

	m, err := cli.ReadMatrix(path)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, m.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, m.AsFloat64())
}

func TestReadMatrixRagged(t *testing.T) {
	// csv.Reader itself rejects records with differing field counts.
	path := writeFile(t, "1,2\n3\n")
	_, err := cli.ReadMatrix(path)
	assert.Error(t, err)
}

func TestReadMatrixNonNumeric(t *testing.T) {
	path := writeFile(t, "1,foo\n")
	_, err := cli.ReadMatrix(path)
	assert.ErrorContains(t, err, "not a number")
}

func TestReadVector(t *testing.T) {
	t.Run("column", func(t *testing.T) {
		v, err := cli.ReadVector(writeFile(t, "1\n2\n3\n"))
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{3}, v.Shape())
		assert.Equal(t, []float64{1, 2, 3}, v.AsFloat64())
	})

	t.Run("row", func(t *testing.T) {
		v, err := cli.ReadVector(writeFile(t, "1,2,3\n"))
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, v.AsFloat64())
	})
}

func TestReadPoints(t *testing.T) {
	x, y, err := cli.ReadPoints(writeFile(t, "0,1\n0.5,0.2\n1.2,-0.5\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1.2}, x.AsFloat64())
	assert.Equal(t, []float64{1, 0.2, -0.5}, y.AsFloat64())

	_, _, err = cli.ReadPoints(writeFile(t, "0,1,2\n"))
	assert.ErrorContains(t, err, "expected 2")
}

func TestWriteCSV(t *testing.T) {
	backend := cpu.New()

	mat, err := tensor.FromSlice([]float64{1.5, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, cli.WriteCSV(&sb, mat.Raw()))
	assert.Equal(t, "1.5,2\n3,4\n", sb.String())

	vec, err := tensor.FromSlice([]float64{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	sb.Reset()
	require.NoError(t, cli.WriteCSV(&sb, vec.Raw()))
	assert.Equal(t, "1\n2\n", sb.String())
}

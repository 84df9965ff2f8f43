package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/cirun/pkg/manifest"
	"github.com/datawire/cirun/pkg/matrix"
)

func parse(t *testing.T, str string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(str))
	require.NoError(t, err)
	return m
}

func TestEntries(t *testing.T) {
	t.Parallel()
	m := parse(t, `
environment:
  global:
    CONDA_CHANNEL: conda-forge
    PYTHON_VERSION: "2.7"
  matrix:
    - PYTHON_VERSION: "3.7"
    - PYTHON_VERSION: "3.8"
      BUILD_WHEEL: 1
`)
	assert.Equal(t, []matrix.Entry{
		{"CONDA_CHANNEL": "conda-forge", "PYTHON_VERSION": "3.7"},
		{"CONDA_CHANNEL": "conda-forge", "PYTHON_VERSION": "3.8", "BUILD_WHEEL": "1"},
	}, matrix.Entries(m))
}

func TestEntriesNoMatrix(t *testing.T) {
	t.Parallel()

	// Globals alone still yield one entry.
	m := parse(t, "environment:\n  global:\n    A: \"1\"\n")
	assert.Equal(t, []matrix.Entry{{"A": "1"}}, matrix.Entries(m))

	// As does a manifest with no environment at all.
	m = parse(t, `install: [echo hi]`)
	assert.Equal(t, []matrix.Entry{{}}, matrix.Entries(m))
}

func TestEntryNames(t *testing.T) {
	t.Parallel()
	entry := matrix.Entry{"B": "2", "A": "1", "C": "3"}
	assert.Equal(t, []string{"A", "B", "C"}, entry.Names())
}

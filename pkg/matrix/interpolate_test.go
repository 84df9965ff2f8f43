package matrix_test

import (
	"errors"
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/cirun/pkg/matrix"
	"github.com/datawire/cirun/pkg/testutil"
)

func TestExpand(t *testing.T) {
	t.Parallel()
	vars := matrix.Entry{
		"PYTHON_VERSION": "3.7",
		"CONDA_CHANNEL":  "conda-forge",
	}
	type testcase struct {
		Input string
		Exp   string
	}
	testcases := map[string]testcase{
		"plain":       {Input: "pytest tests", Exp: "pytest tests"},
		"basic":       {Input: "conda create -n testenv python=%PYTHON_VERSION%", Exp: "conda create -n testenv python=3.7"},
		"two-refs":    {Input: "%CONDA_CHANNEL%/%PYTHON_VERSION%", Exp: "conda-forge/3.7"},
		"adjacent":    {Input: "%PYTHON_VERSION%%PYTHON_VERSION%", Exp: "3.73.7"},
		"escape":      {Input: "100%% done", Exp: "100% done"},
		"escaped-ref": {Input: "%%PYTHON_VERSION%%", Exp: "%PYTHON_VERSION%"},
		"lone":        {Input: "50% off", Exp: "50% off"},
		"trailing":    {Input: "50%", Exp: "50%"},
		"non-ident":   {Input: "a %b c% d", Exp: "a %b c% d"},
		"digit-start": {Input: "%1BAD%", Exp: "%1BAD%"},
		"empty-name":  {Input: "a %% b", Exp: "a % b"},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			act, err := matrix.Expand(tcData.Input, vars.Lookup)
			require.NoError(t, err)
			assert.Equal(t, tcData.Exp, act)
		})
	}
}

func TestExpandUnresolved(t *testing.T) {
	t.Parallel()
	vars := matrix.Entry{"PYTHON_VERSION": "3.7"}

	_, err := matrix.Expand("pip install pkg==%PKG_VERSION%", vars.Lookup)
	require.Error(t, err)
	var unresolvedErr *matrix.UnresolvedVariableError
	require.True(t, errors.As(err, &unresolvedErr))
	assert.Equal(t, "PKG_VERSION", unresolvedErr.Name)
	assert.Contains(t, err.Error(), "%PKG_VERSION%")
}

func TestExpandQuick(t *testing.T) {
	t.Parallel()

	// A string without any "%" always expands to itself, under any
	// (even empty) variable bindings.
	noVars := func(string) (string, bool) { return "", false }
	testutil.QuickCheck(t,
		func(str string) bool {
			str = strings.ReplaceAll(str, "%", "")
			act, err := matrix.Expand(str, noVars)
			return err == nil && act == str
		},
		quick.Config{},
		[]interface{}{"echo A >> log.txt"},
		[]interface{}{"python setup.py bdist_wheel"},
		[]interface{}{""},
	)
}

package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/datawire/cirun/pkg/manifest"
)

const exampleManifest = `
version: 0.1.{build}
environment:
  global:
    CONDA_CHANNEL: conda-forge
  matrix:
    - PYTHON_VERSION: "3.7"
    - PYTHON_VERSION: "3.8"
      BUILD_WHEEL: 1
init:
  - cmd: echo %PYTHON_VERSION%
install:
  - conda config --set always_yes yes
  - cmd: conda create -n testenv python=%PYTHON_VERSION%
  - cmd: activate testenv
  - cmd: pip install -r requirements.txt
build_script:
  - cmd: pytest tests
after_test:
  - cmd: python setup.py bdist_wheel
on_finish:
  - sh: rm -rf build
`

func TestParse(t *testing.T) {
	t.Parallel()
	m, err := manifest.Parse([]byte(exampleManifest))
	require.NoError(t, err)

	assert.Equal(t, "0.1.{build}", m.Version)
	assert.Equal(t, manifest.Environment{
		Global: manifest.Vars{
			"CONDA_CHANNEL": intstr.FromString("conda-forge"),
		},
		Matrix: []manifest.Vars{
			{"PYTHON_VERSION": intstr.FromString("3.7")},
			{"PYTHON_VERSION": intstr.FromString("3.8"), "BUILD_WHEEL": intstr.FromInt(1)},
		},
	}, m.Environment)

	// A bare string is a "cmd" step.
	assert.Equal(t,
		manifest.Step{Kind: manifest.KindCmd, Command: "conda config --set always_yes yes"},
		m.Install[0])
	assert.Equal(t,
		manifest.Step{Kind: manifest.KindSh, Command: "rm -rf build"},
		m.OnFinish[0])

	assert.Len(t, m.Install, 4)
	assert.Len(t, m.BuildScript, 1)
	assert.Empty(t, m.TestScript)
}

func TestPhaseOrder(t *testing.T) {
	t.Parallel()
	m, err := manifest.Parse([]byte(exampleManifest))
	require.NoError(t, err)

	var names []string
	for _, phase := range m.Phases() {
		names = append(names, phase.Name)
	}
	assert.Equal(t,
		[]string{"init", "install", "build_script", "test_script", "after_test"},
		names)

	names = nil
	for _, phase := range m.Hooks() {
		names = append(names, phase.Name)
	}
	assert.Equal(t, []string{"on_success", "on_failure", "on_finish"}, names)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	testcases := map[string]string{
		"unknown-key":        `bogus_phase: [echo hi]`,
		"unknown-step-kind":  `install: [{bash: echo hi}]`,
		"multi-key-step":     `install: [{cmd: echo a, sh: echo b}]`,
		"list-step":          `install: [[echo, hi]]`,
		"empty-command":      `install: [""]`,
		"empty-matrix-entry": "environment:\n  matrix:\n    - {}\n",
		// An unquoted 3.7 is a YAML float, which int-or-string refuses;
		// version-like values must be quoted strings.
		"float-var-value": "environment:\n  global:\n    PYTHON_VERSION: 3.7\n",
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			_, err := manifest.Parse([]byte(tcData))
			assert.Error(t, err)
		})
	}
}

func TestStepString(t *testing.T) {
	t.Parallel()
	step := manifest.Step{Kind: manifest.KindPS, Command: "Get-Location"}
	assert.Equal(t, "ps: Get-Location", step.String())
}

// Package manifest models AppVeyor-style build manifests.
//
// A manifest is an ordered mapping from phase name to a list of steps.
// The phase order is fixed by convention (init, install, build_script,
// test_script, after_test); steps within a phase execute in listed order.
package manifest

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/yaml"
)

// Vars is a set of variable bindings.  Values are int-or-string so that
// unquoted YAML integers stay exact; anything else (floats in
// particular) must be written as a quoted string.
type Vars map[string]intstr.IntOrString

type Environment struct {
	// Global bindings are shared by every matrix entry.
	Global Vars `json:"global,omitempty"`

	// Matrix is a list of variable-binding sets; the manifest is
	// instantiated once per entry.
	Matrix []Vars `json:"matrix,omitempty"`
}

type MatrixOptions struct {
	// FastFinish stops the whole matrix after the first failed entry.
	FastFinish bool `json:"fast_finish,omitempty"`
}

type Manifest struct {
	Version     string         `json:"version,omitempty"`
	CloneFolder string         `json:"clone_folder,omitempty"`
	Environment Environment    `json:"environment,omitempty"`
	Matrix      *MatrixOptions `json:"matrix,omitempty"`

	Init        []Step `json:"init,omitempty"`
	Install     []Step `json:"install,omitempty"`
	BuildScript []Step `json:"build_script,omitempty"`
	TestScript  []Step `json:"test_script,omitempty"`
	AfterTest   []Step `json:"after_test,omitempty"`

	// Hook phases.  on_success runs after a fully green run, on_failure
	// after a failed one, on_finish always; their failures do not fail
	// the run.
	OnSuccess []Step `json:"on_success,omitempty"`
	OnFailure []Step `json:"on_failure,omitempty"`
	OnFinish  []Step `json:"on_finish,omitempty"`
}

// Phase is a named, ordered group of steps.
type Phase struct {
	Name  string
	Steps []Step
}

// Phases returns the fatal phases in their fixed conventional order.  A
// non-zero exit from any of their steps aborts the run.  Hook phases are
// not included; see Hooks.
func (m *Manifest) Phases() []Phase {
	return []Phase{
		{Name: "init", Steps: m.Init},
		{Name: "install", Steps: m.Install},
		{Name: "build_script", Steps: m.BuildScript},
		{Name: "test_script", Steps: m.TestScript},
		{Name: "after_test", Steps: m.AfterTest},
	}
}

// Hooks returns the hook phases in the order they are considered after
// the fatal phases finish.
func (m *Manifest) Hooks() []Phase {
	return []Phase{
		{Name: "on_success", Steps: m.OnSuccess},
		{Name: "on_failure", Steps: m.OnFailure},
		{Name: "on_finish", Steps: m.OnFinish},
	}
}

// Parse strictly decodes a manifest; unknown keys and malformed steps
// are errors.
func Parse(bs []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(bs, &m, yaml.DisallowUnknownFields); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) Validate() error {
	for i, vars := range m.Environment.Matrix {
		if len(vars) == 0 {
			return fmt.Errorf("environment.matrix[%d]: entry binds no variables", i)
		}
	}
	for _, phase := range append(m.Phases(), m.Hooks()...) {
		for i, step := range phase.Steps {
			if step.Command == "" {
				return fmt.Errorf("%s[%d]: empty command", phase.Name, i)
			}
		}
	}
	return nil
}

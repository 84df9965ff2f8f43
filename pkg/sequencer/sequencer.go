// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package sequencer executes a build manifest's phases step by step: one
// logical worker, strictly sequential, halting the run on the first
// failing step.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dlog"

	"github.com/datawire/cirun/pkg/manifest"
	"github.com/datawire/cirun/pkg/matrix"
	"github.com/datawire/cirun/pkg/shell"
)

type Options struct {
	// Dir is the initial working directory.  If empty, the manifest's
	// clone_folder is used, and failing that the process's cwd.
	Dir string

	// Env is the base environment, in os.Environ form.  nil means
	// os.Environ().
	Env []string

	// SkipHooks suppresses the on_success/on_failure/on_finish phases.
	SkipHooks bool
}

// StepRef names one step of a run.
type StepRef struct {
	Phase string
	Index int
}

func (ref StepRef) String() string {
	return fmt.Sprintf("%s[%d]", ref.Phase, ref.Index)
}

// StepResult records one executed step.
type StepResult struct {
	StepRef
	Command  string // after variable substitution
	ExitCode int    // -1 if the step could not be invoked at all
	Hook     bool
}

// Result records one full run of a manifest against one matrix entry.
type Result struct {
	Entry matrix.Entry
	Steps []StepResult

	// Failed names the step whose failure aborted the run, if any.
	// Hook-phase failures are recorded in Steps but never here.
	Failed *StepRef
}

// StepError is the failure of a single step.  It unwraps to the
// underlying cause (an *UnresolvedVariableError, a *dexec.ExitError,
// or an invocation error).
type StepError struct {
	StepRef
	Command string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %q: %v", e.StepRef, e.Command, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

type run struct {
	env    map[string]string
	dir    string
	tmpdir string
	result *Result
}

// Run executes the manifest against one matrix entry.  The returned
// Result covers every step that was started, hooks included; the
// returned error is the failing step's *StepError, or nil.
func Run(ctx context.Context, m *manifest.Manifest, entry matrix.Entry, opts Options) (*Result, error) {
	base := opts.Env
	if base == nil {
		base = os.Environ()
	}
	env := make(map[string]string, len(base)+len(entry))
	for _, kv := range base {
		if eq := strings.IndexByte(kv, '='); eq > 0 {
			env[kv[:eq]] = kv[eq+1:]
		}
	}
	for k, v := range entry {
		env[k] = v
	}

	dir := opts.Dir
	if dir == "" {
		dir = m.CloneFolder
	}
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}

	tmpdir, err := os.MkdirTemp("", "cirun-")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = os.RemoveAll(tmpdir)
	}()

	r := &run{
		env:    env,
		dir:    dir,
		tmpdir: tmpdir,
		result: &Result{Entry: entry},
	}

	var runErr error
	for _, phase := range m.Phases() {
		if runErr = r.runPhase(ctx, phase, false); runErr != nil {
			break
		}
	}

	if !opts.SkipHooks {
		if runErr == nil {
			r.runHook(ctx, manifest.Phase{Name: "on_success", Steps: m.OnSuccess})
		} else {
			r.runHook(ctx, manifest.Phase{Name: "on_failure", Steps: m.OnFailure})
		}
		r.runHook(ctx, manifest.Phase{Name: "on_finish", Steps: m.OnFinish})
	}

	return r.result, runErr
}

// RunMatrix executes the manifest once per entry, sequentially and in
// declaration order.  If the manifest sets matrix.fast_finish, the first
// failed entry stops the matrix; otherwise remaining entries still run.
// The returned error is the first entry's error.
func RunMatrix(ctx context.Context, m *manifest.Manifest, entries []matrix.Entry, opts Options) ([]*Result, error) {
	results := make([]*Result, 0, len(entries))
	var firstErr error
	for i, entry := range entries {
		if len(entries) > 1 {
			dlog.Infof(ctx, "matrix entry %d of %d: %v", i+1, len(entries), entry)
		}
		result, err := Run(ctx, m, entry, opts)
		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if m.Matrix != nil && m.Matrix.FastFinish {
				if remaining := len(entries) - i - 1; remaining > 0 {
					dlog.Warnf(ctx, "matrix.fast_finish: skipping %d remaining entries", remaining)
				}
				break
			}
		}
	}
	return results, firstErr
}

func (r *run) runPhase(ctx context.Context, phase manifest.Phase, hook bool) error {
	for i, step := range phase.Steps {
		ref := StepRef{Phase: phase.Name, Index: i}
		if err := r.runStep(ctx, ref, step, hook); err != nil {
			if !hook {
				r.result.Failed = &ref
			}
			return err
		}
	}
	return nil
}

// runHook runs a hook phase.  A failing hook step still aborts the
// remaining steps of that hook phase, but is only logged; it does not
// change the run's outcome.
func (r *run) runHook(ctx context.Context, phase manifest.Phase) {
	if err := r.runPhase(ctx, phase, true); err != nil {
		dlog.Warnf(ctx, "hook failed (ignored): %v", err)
	}
}

func (r *run) runStep(ctx context.Context, ref StepRef, step manifest.Step, hook bool) error {
	command, err := matrix.Expand(step.Command, func(name string) (string, bool) {
		val, ok := r.env[name]
		return val, ok
	})
	if err != nil {
		r.result.Steps = append(r.result.Steps, StepResult{
			StepRef: ref, Command: step.Command, ExitCode: -1, Hook: hook,
		})
		return &StepError{StepRef: ref, Command: step.Command, Err: err}
	}

	intp := shell.ForKind(step.Kind)
	scriptfile := filepath.Join(r.tmpdir, "step"+intp.Ext())
	envFile := filepath.Join(r.tmpdir, "env")
	pwdFile := filepath.Join(r.tmpdir, "pwd")
	_ = os.Remove(envFile)
	_ = os.Remove(pwdFile)
	if err := os.WriteFile(scriptfile, []byte(intp.Script(command)), 0o700); err != nil {
		r.result.Steps = append(r.result.Steps, StepResult{
			StepRef: ref, Command: command, ExitCode: -1, Hook: hook,
		})
		return &StepError{StepRef: ref, Command: command, Err: err}
	}

	dlog.Infof(ctx, "%s: %s", ref, command)
	cmd := intp.Command(ctx, scriptfile)
	cmd.Dir = r.dir
	cmd.Env = environList(r.env, envFile, pwdFile)
	err = cmd.Run()

	res := StepResult{StepRef: ref, Command: command, Hook: hook}
	if err != nil {
		var exitErr *dexec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
	}
	r.result.Steps = append(r.result.Steps, res)

	// Carry forward whatever environment and working directory the step
	// left behind, even on failure: hook phases still observe them.
	r.importCapture(intp, envFile, pwdFile)

	if err != nil {
		return &StepError{StepRef: ref, Command: command, Err: err}
	}
	return nil
}

func (r *run) importCapture(intp shell.Interpreter, envFile, pwdFile string) {
	if bs, err := os.ReadFile(envFile); err == nil && len(bs) > 0 {
		r.env = intp.ParseEnviron(bs)
	}
	if bs, err := os.ReadFile(pwdFile); err == nil {
		if dir := strings.TrimRight(string(bs), "\r\n"); dir != "" {
			r.dir = dir
		}
	}
}

func environList(env map[string]string, envFile, pwdFile string) []string {
	ret := make([]string, 0, len(env)+2)
	for k, v := range env {
		ret = append(ret, k+"="+v)
	}
	sort.Strings(ret)
	return append(ret,
		shell.EnvCaptureVar+"="+envFile,
		shell.PwdCaptureVar+"="+pwdFile)
}

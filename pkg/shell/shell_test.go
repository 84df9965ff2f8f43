package shell_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/cirun/pkg/manifest"
	"github.com/datawire/cirun/pkg/shell"
)

func TestForKind(t *testing.T) {
	t.Parallel()
	assert.Equal(t, shell.Posix, shell.ForKind(manifest.KindSh))
	assert.Equal(t, shell.PowerShell, shell.ForKind(manifest.KindPS))
	if runtime.GOOS == "windows" {
		assert.Equal(t, shell.CmdExe, shell.ForKind(manifest.KindCmd))
	} else {
		assert.Equal(t, shell.Posix, shell.ForKind(manifest.KindCmd))
	}
}

func TestParseEnviron(t *testing.T) {
	t.Parallel()

	env := shell.Posix.ParseEnviron([]byte("A=1\x00B=two words\x00" +
		shell.EnvCaptureVar + "=/tmp/env\x00" +
		shell.PwdCaptureVar + "=/tmp/pwd\x00"))
	assert.Equal(t, map[string]string{"A": "1", "B": "two words"}, env)

	env = shell.CmdExe.ParseEnviron([]byte("A=1\r\nB=c:\\build\r\nCIRUN_EXIT=0\r\n"))
	assert.Equal(t, map[string]string{"A": "1", "B": `c:\build`}, env)
}

// runScript runs a command through an interpreter the way the sequencer
// does, and returns the captured environment and working directory.
func runScript(t *testing.T, intp shell.Interpreter, command string) (map[string]string, string, error) {
	t.Helper()
	ctx := dlog.NewTestContext(t, false)
	tmpdir := t.TempDir()

	envFile := filepath.Join(tmpdir, "env")
	pwdFile := filepath.Join(tmpdir, "pwd")
	scriptfile := filepath.Join(tmpdir, "step"+intp.Ext())
	require.NoError(t, os.WriteFile(scriptfile, []byte(intp.Script(command)), 0o700))

	cmd := intp.Command(ctx, scriptfile)
	cmd.Dir = tmpdir
	cmd.Env = append(os.Environ(),
		shell.EnvCaptureVar+"="+envFile,
		shell.PwdCaptureVar+"="+pwdFile)
	runErr := cmd.Run()

	var env map[string]string
	if bs, err := os.ReadFile(envFile); err == nil {
		env = intp.ParseEnviron(bs)
	}
	var pwd string
	if bs, err := os.ReadFile(pwdFile); err == nil {
		pwd = string(bs)
	}
	return env, pwd, runErr
}

func TestPosixCapture(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	t.Parallel()

	env, pwd, err := runScript(t, shell.Posix, "FOO=bar; export FOO; cd /")
	require.NoError(t, err)
	assert.Equal(t, "bar", env["FOO"])
	assert.NotContains(t, env, shell.EnvCaptureVar)
	assert.NotContains(t, env, shell.PwdCaptureVar)
	assert.Equal(t, "/\n", pwd)
}

func TestPosixCaptureOnFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	t.Parallel()

	// The EXIT trap fires even when the step itself calls exit, and the
	// capture does not clobber the exit status.
	env, _, err := runScript(t, shell.Posix, "FOO=mutated; export FOO; exit 3")
	require.Error(t, err)
	var exitErr *dexec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
	assert.Equal(t, "mutated", env["FOO"])
}

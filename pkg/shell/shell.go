// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package shell turns build-manifest steps into child processes.
//
// Each step runs as a generated script rather than as a bare -c
// argument, so that environment and working-directory mutations the step
// makes (activating an interpreter environment, cd'ing somewhere) can be
// captured when the interpreter exits and carried in to the next step.
package shell

import (
	"context"
	"runtime"
	"strings"

	"github.com/datawire/dlib/dexec"

	"github.com/datawire/cirun/pkg/manifest"
)

// Names of the environment variables through which the caller tells a
// generated script where to record the interpreter's final environment
// and working directory.
const (
	EnvCaptureVar = "CIRUN_ENV_FILE"
	PwdCaptureVar = "CIRUN_PWD_FILE"
)

// An Interpreter runs one step command.
type Interpreter interface {
	// Ext is the filename extension for generated scripts.
	Ext() string

	// Script wraps a (already variable-substituted) step command in to
	// script text that additionally records the interpreter's final
	// environment and working directory to the files named by the
	// EnvCaptureVar and PwdCaptureVar environment variables.
	Script(command string) string

	// Command builds the process invocation for a generated script.
	// The caller is responsible for setting .Dir and .Env.
	Command(ctx context.Context, scriptfile string) *dexec.Cmd

	// ParseEnviron decodes an environment capture written by a Script.
	// Capture bookkeeping variables are stripped.
	ParseEnviron(bs []byte) map[string]string
}

// ForKind returns the interpreter that runs steps of the given kind on
// this OS.  Kind "cmd" means the host's default command interpreter:
// cmd.exe on Windows, POSIX sh everywhere else.
func ForKind(kind manifest.Kind) Interpreter {
	switch kind {
	case manifest.KindSh:
		return Posix
	case manifest.KindPS:
		return PowerShell
	default:
		if runtime.GOOS == "windows" {
			return CmdExe
		}
		return Posix
	}
}

// Posix runs steps with /bin/sh.
var Posix Interpreter = posix{}

type posix struct{}

func (posix) Ext() string { return ".sh" }

func (posix) Script(command string) string {
	// The EXIT trap fires whether the step succeeds, fails, or calls
	// exit itself, and does not clobber the script's exit status.
	return "" +
		`trap '{ env -0 >"$` + EnvCaptureVar + `"; pwd >"$` + PwdCaptureVar + `"; } 2>/dev/null' EXIT` + "\n" +
		command + "\n"
}

func (posix) Command(ctx context.Context, scriptfile string) *dexec.Cmd {
	return dexec.CommandContext(ctx, "/bin/sh", scriptfile)
}

func (posix) ParseEnviron(bs []byte) map[string]string {
	return parseEnviron(strings.Split(string(bs), "\x00"))
}

// CmdExe runs steps with the Windows command interpreter.
var CmdExe Interpreter = cmdExe{}

type cmdExe struct{}

func (cmdExe) Ext() string { return ".cmd" }

func (cmdExe) Script(command string) string {
	return "@echo off\r\n" +
		command + "\r\n" +
		"set CIRUN_EXIT=%ERRORLEVEL%\r\n" +
		`set >"%` + EnvCaptureVar + `%"` + "\r\n" +
		`cd >"%` + PwdCaptureVar + `%"` + "\r\n" +
		"exit /b %CIRUN_EXIT%\r\n"
}

func (cmdExe) Command(ctx context.Context, scriptfile string) *dexec.Cmd {
	return dexec.CommandContext(ctx, "cmd.exe", "/q", "/c", scriptfile)
}

func (cmdExe) ParseEnviron(bs []byte) map[string]string {
	return parseEnviron(strings.Split(strings.ReplaceAll(string(bs), "\r\n", "\n"), "\n"))
}

// PowerShell runs steps with powershell.
var PowerShell Interpreter = powerShell{}

type powerShell struct{}

func (powerShell) Ext() string { return ".ps1" }

func (powerShell) Script(command string) string {
	return "try {\n" +
		command + "\n" +
		"} finally {\n" +
		`  Get-ChildItem env: | ForEach-Object { "$($_.Name)=$($_.Value)" } | Set-Content -Path $env:` + EnvCaptureVar + "\n" +
		"  (Get-Location).Path | Set-Content -Path $env:" + PwdCaptureVar + "\n" +
		"}\n" +
		"exit $LASTEXITCODE\n"
}

func (powerShell) Command(ctx context.Context, scriptfile string) *dexec.Cmd {
	return dexec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-File", scriptfile)
}

func (powerShell) ParseEnviron(bs []byte) map[string]string {
	return parseEnviron(strings.Split(strings.ReplaceAll(string(bs), "\r\n", "\n"), "\n"))
}

func parseEnviron(lines []string) map[string]string {
	ret := make(map[string]string, len(lines))
	for _, line := range lines {
		eq := strings.IndexByte(line, '=')
		if eq < 1 {
			continue
		}
		name := line[:eq]
		if name == EnvCaptureVar || name == PwdCaptureVar || name == "CIRUN_EXIT" {
			continue
		}
		ret[name] = line[eq+1:]
	}
	return ret
}

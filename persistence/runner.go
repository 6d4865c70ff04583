// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package persistence

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/axgle/mahonia"
)

// Result is the outcome of a finished command. Output is decoded as UTF-8.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner runs a command to completion, feeding it stdin. The error is only
// set when the command could not run at all.
type Runner interface {
	Run(ctx context.Context, stdin string, name string, args ...string) (*Result, error)
}

type execRunner struct{}

var utf8Decoder = mahonia.NewDecoder("utf8")

func decodeOutput(b []byte) string {
	return utf8Decoder.ConvertString(string(b))
}

func (execRunner) Run(ctx context.Context, stdin string, name string, args ...string) (*Result, error) {
	logger.Debug("run:", name, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	err := cmd.Run()
	result := &Result{
		Stdout: decodeOutput(stdout.Bytes()),
		Stderr: decodeOutput(stderr.Bytes()),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
		result.ExitCode = exitErr.ExitCode()
	}
	return result, nil
}

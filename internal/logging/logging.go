/*
Copyright 2025 The enrollment-planner Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging builds the process-wide logr.Logger (zap-backed) and defines
// the verbosity levels used with logger.V(...).
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	crzap "sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Verbosity levels for logger.V(...).
const (
	// DEBUG logs per-request decisions: resolved scenarios, profile merges, skipped rows.
	DEBUG = 1
	// TRACE logs feature vectors and raw model output.
	TRACE = 2
)

// Options controls logger construction.
type Options struct {
	// Level is "info", "debug", "trace" or a non-negative integer verbosity.
	Level string
	// Development switches to the console encoder with stack traces on warnings.
	Development bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// ParseLevel converts a level name or verbosity number into a zap level.
// logr verbosity N maps to zap level -N.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.Level(-DEBUG), nil
	case "trace":
		return zapcore.Level(-TRACE), nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	n, err := strconv.Atoi(level)
	if err != nil || n < 0 {
		return zapcore.InfoLevel, fmt.Errorf("unsupported log level %q", level)
	}
	return zapcore.Level(-n), nil
}

// NewLogger builds a logr.Logger from opts without installing it.
func NewLogger(opts Options) (logr.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return logr.Discard(), err
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return crzap.New(
		crzap.UseDevMode(opts.Development),
		crzap.WriteTo(out),
		crzap.Level(zap.NewAtomicLevelAt(lvl)),
	), nil
}

// Setup builds the logger and installs it as the controller-runtime global,
// which is what ctrl.Log and ctrl.LoggerFrom fall back to.
func Setup(opts Options) (logr.Logger, error) {
	logger, err := NewLogger(opts)
	if err != nil {
		return logger, err
	}
	ctrl.SetLogger(logger)
	return logger, nil
}

// NewTestLogger installs a development logger at DEBUG verbosity for test suites.
func NewTestLogger() logr.Logger {
	logger := crzap.New(
		crzap.UseDevMode(true),
		crzap.WriteTo(os.Stderr),
		crzap.Level(zap.NewAtomicLevelAt(zapcore.Level(-DEBUG))),
	)
	ctrl.SetLogger(logger)
	return logger
}

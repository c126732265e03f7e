// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/NVIDIA/textfile-collector/pkg/defaults"
	"github.com/NVIDIA/textfile-collector/pkg/errors"
)

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the per-command timeout. Default is defaults.CommandTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithProbeInterval paces consecutive invocations at most one per interval.
// Used by collectors that probe many devices on a shared bus. Zero disables
// pacing.
func WithProbeInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithEnv appends extra environment variables (KEY=VALUE) to every command.
func WithEnv(env ...string) Option {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// Runner executes external tools with bounded timeouts, locale-stable
// environment, and optional invocation pacing. The zero value is not usable;
// construct with New.
type Runner struct {
	timeout time.Duration
	limiter *rate.Limiter
	env     []string
}

// New creates a Runner. All commands run with LC_ALL=C so vendor tools do not
// apply locale-specific number or date formatting.
func New(opts ...Option) *Runner {
	r := &Runner{
		timeout: defaults.CommandTimeout,
		env:     []string{"LC_ALL=C"},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Find resolves an executable by PATH lookup, then by the given fallback
// absolute paths. Returns ErrCodeNotFound if nothing resolves.
func Find(name string, fallbacks ...string) (string, error) {
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	for _, p := range fallbacks {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", errors.NewWithContext(errors.ErrCodeNotFound,
		"executable not found", map[string]any{"name": name})
}

// Output runs the command and returns its stdout. Stderr is captured and
// folded into the returned error on failure. The command is bounded by the
// runner timeout in addition to any deadline already on ctx.
func (r *Runner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, "probe pacing interrupted", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), r.env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	slog.Debug("command finished",
		slog.String("command", name),
		slog.String("args", strings.Join(args, " ")),
		slog.Duration("elapsed", time.Since(start)),
		slog.Bool("failed", err != nil))

	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeTimeout,
				"command timed out", ctx.Err(),
				map[string]any{"command": name})
		}
		// Partial stdout is returned alongside the error so callers that
		// tolerate non-zero exits can still use it.
		return stdout.Bytes(), errors.WrapWithContext(errors.ErrCodeInternal,
			"command failed", err, map[string]any{
				"command": name,
				"stderr":  strings.TrimSpace(stderr.String()),
			})
	}

	return stdout.Bytes(), nil
}

// OutputIgnoreExit runs the command and returns stdout even when the command
// exits non-zero. Some vendor tools encode device state in the exit code
// while still printing usable output (smartctl in particular).
func (r *Runner) OutputIgnoreExit(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := r.Output(ctx, name, args...)
	if err != nil {
		var se *errors.StructuredError
		if errors.As(err, &se) && se.Code == errors.ErrCodeTimeout {
			return nil, err
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, nil
		}
		return nil, err
	}
	return out, nil
}

// Lines runs the command and returns stdout split into non-empty,
// whitespace-trimmed lines.
func (r *Runner) Lines(ctx context.Context, name string, args ...string) ([]string, error) {
	out, err := r.Output(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return SplitLines(string(out)), nil
}

// JSON runs the command and unmarshals stdout into v.
func (r *Runner) JSON(ctx context.Context, v any, name string, args ...string) error {
	out, err := r.Output(ctx, name, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, v); err != nil {
		return errors.WrapWithContext(errors.ErrCodeParse,
			"failed to parse command output as JSON", err,
			map[string]any{"command": name})
	}
	return nil
}

// SplitLines splits text into trimmed, non-empty lines.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

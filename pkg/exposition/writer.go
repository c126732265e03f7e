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

package exposition

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Encode renders all metric families from the gatherer in Prometheus text
// exposition format.
func Encode(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Writer persists gathered metrics to stdout or a file target.
type Writer struct {
	target string
	stdout io.Writer
}

// NewWriter creates a Writer. An empty target or "-" writes to stdout;
// anything else is treated as a file path and written atomically so a
// scraper never reads a torn .prom file.
func NewWriter(target string) *Writer {
	return &Writer{
		target: strings.TrimSpace(target),
		stdout: os.Stdout,
	}
}

// Write gathers and persists the metrics.
func (w *Writer) Write(g prometheus.Gatherer) error {
	if w.target == "" || w.target == "-" {
		return Encode(w.stdout, g)
	}
	return w.writeFile(g)
}

// writeFile encodes into a temp file next to the target and renames it into
// place. Rename within one directory is atomic on POSIX filesystems.
func (w *Writer) writeFile(g prometheus.Gatherer) error {
	var buf bytes.Buffer
	if err := Encode(&buf, g); err != nil {
		return err
	}

	dir := filepath.Dir(w.target)
	tmp, err := os.CreateTemp(dir, filepath.Base(w.target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file %s: %w", tmpName, err)
	}

	// .prom files must be world-readable for node_exporter to scrape them.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, w.target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename %s to %s: %w", tmpName, w.target, err)
	}

	slog.Debug("wrote exposition file",
		slog.String("path", w.target),
		slog.Int("bytes", buf.Len()))
	return nil
}

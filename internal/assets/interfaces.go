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

package assets

import (
	"context"
	"time"

	"github.com/scholarship-analytics/enrollment-planner/internal/history"
	"github.com/scholarship-analytics/enrollment-planner/internal/model"
)

// Snapshot is one consistent, immutable pair of model and history.
// Callers must not modify anything reachable from a Snapshot.
type Snapshot struct {
	// Model scores forecast scenarios.
	Model model.Predictor

	// History is the cleaned, date-ascending dataset.
	History *history.Dataset

	// Report describes how the history CSV was loaded.
	Report history.LoadReport

	// LoadedAt is when the snapshot was produced.
	LoadedAt time.Time
}

// Reader provides read-only access to the loaded assets.
// This interface is used by the planner and the HTTP handlers.
type Reader interface {
	// Get returns the current snapshot, loading it on first use.
	Get(ctx context.Context) (*Snapshot, error)

	// Loaded reports whether a snapshot is currently held.
	Loaded() bool
}

// Reloader drops or replaces the held snapshot.
type Reloader interface {
	// Invalidate drops the snapshot; the next Get reloads.
	Invalidate()

	// Reload loads a fresh snapshot and swaps it in only if loading succeeds.
	Reload(ctx context.Context) (*Snapshot, error)
}

// ReadReloader combines read access with cache-busting.
type ReadReloader interface {
	Reader
	Reloader
}

// Loader produces snapshots from their backing files.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*Snapshot, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context) (*Snapshot, error) {
	return f(ctx)
}

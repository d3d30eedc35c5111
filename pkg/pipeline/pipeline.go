// Package pipeline runs scenes through the stacking allocator.
//
// This package implements the load → pass → render pipeline shared by the
// CLI and the HTTP API. By centralizing this logic, both entry points
// produce identical results and share one cache.
//
// # Architecture
//
// A run materialises a scene, performs an initial pass, then applies each
// scripted frame followed by another pass. After every pass the committed
// depths are snapshotted. A pass that leaves work pending (a squeezed
// context, or a tree too deep for zmax) is repeated up to
// [Options.MaxPasses] times.
//
// # Usage
//
// Create a Runner and run a scene file:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.RunFile(ctx, "menu.toml", pipeline.Options{Verify: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.PaintOrder)
//
// Render a diagram of the final state:
//
//	svg, err := runner.Render(ctx, sc, pipeline.Options{Format: "svg", Frame: -1})
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/render/nodelink"
	"github.com/matzehuels/stackdepth/pkg/scene"
	"github.com/matzehuels/stackdepth/pkg/stacking"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultMaxPasses bounds the passes run per frame while work is pending.
	DefaultMaxPasses = 4

	// DefaultTTL is how long results and diagrams stay cached.
	DefaultTTL = 24 * time.Hour

	// DefaultFormat is the default diagram format.
	DefaultFormat = nodelink.FormatSVG

	// DefaultConcurrency is the number of scenes RunAll processes at once.
	DefaultConcurrency = 4
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Pass options
	ZMax        float64 `json:"zmax,omitempty"`         // Overrides the scene's zmax when positive
	DefaultZMax float64 `json:"default_zmax,omitempty"` // Used when neither ZMax nor the scene sets one
	MaxPasses   int     `json:"max_passes,omitempty"`
	Verify      bool    `json:"verify,omitempty"`
	Refresh     bool    `json:"refresh,omitempty"`

	// Render options
	Format   string `json:"format,omitempty"`
	Frame    int    `json:"frame,omitempty"` // Snapshot to render; negative means the last
	Detailed bool   `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	TTL    time.Duration `json:"-"`
	Logger *log.Logger   `json:"-"`
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.MaxPasses <= 0 {
		o.MaxPasses = DefaultMaxPasses
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option values. Call SetDefaults first.
func (o *Options) Validate() error {
	if o.ZMax < 0 || o.DefaultZMax < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "zmax must not be negative, got %v", min(o.ZMax, o.DefaultZMax))
	}
	if o.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "ttl must not be negative, got %v", o.TTL)
	}
	return ValidateFormat(o.Format)
}

// zmaxFor returns the zmax override to build sc with, or 0 to keep the
// scene's own.
func (o *Options) zmaxFor(sc *scene.Scene) float64 {
	if o.ZMax > 0 {
		return o.ZMax
	}
	if sc.ZMax > 0 {
		return 0
	}
	return o.DefaultZMax
}

// ValidateFormat checks that a diagram format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(nodelink.Formats, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg, png)", format)
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Frame is the state after one frame: the initial build is frame 0 and
// scripted frame i is frame i+1.
type Frame struct {
	Index  int                `json:"index"`
	Passes int                `json:"passes"`
	Stats  stacking.PassStats `json:"stats"`
	Depths map[string]float64 `json:"depths"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scene is the scene title.
	Scene string `json:"scene"`

	// Hash is the content hash of the scene.
	Hash string `json:"hash"`

	// Frames holds one snapshot per frame.
	Frames []Frame `json:"frames"`

	// Final is the depth of every node after the last frame.
	Final map[string]float64 `json:"final"`

	// PaintOrder lists node names back to front after the last frame.
	PaintOrder []string `json:"paint_order"`

	// Violations lists invariant violations found with Options.Verify.
	Violations []string `json:"violations,omitempty"`

	// Stats summarises the run.
	Stats Stats `json:"stats"`

	// CacheHit reports whether the result came from the cache.
	CacheHit bool `json:"-"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nodes     int           `json:"nodes"`
	Passes    int           `json:"passes"`
	Processed int           `json:"processed"`
	Adjusted  int           `json:"adjusted"`
	Changed   int           `json:"changed"`
	Squeezed  int           `json:"squeezed"`
	Pending   int           `json:"pending"`
	Duration  time.Duration `json:"duration"`
}

func (s *Stats) add(f Frame) {
	s.Passes += f.Passes
	s.Processed += f.Stats.Processed
	s.Adjusted += f.Stats.Adjusted
	s.Changed += f.Stats.Changed
	s.Squeezed += f.Stats.Squeezed
	s.Pending = f.Stats.Pending
}

// Settled reports whether the last pass left nothing pending.
func (r *Result) Settled() bool { return r.Stats.Pending == 0 }

// String formats the final depths as one "name depth" line per node in
// paint order.
func (r *Result) String() string {
	var b []byte
	for _, name := range r.PaintOrder {
		b = fmt.Appendf(b, "%s %g\n", name, r.Final[name])
	}
	return string(b)
}

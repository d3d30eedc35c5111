package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stackdepth/pkg/buildinfo"
	"github.com/matzehuels/stackdepth/pkg/cache"
	"github.com/matzehuels/stackdepth/pkg/errors"
	sceneio "github.com/matzehuels/stackdepth/pkg/io"
	"github.com/matzehuels/stackdepth/pkg/observability"
	"github.com/matzehuels/stackdepth/pkg/render/nodelink"
	"github.com/matzehuels/stackdepth/pkg/scene"
	"github.com/matzehuels/stackdepth/pkg/stacking"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Run runs every frame of sc, consulting the cache first unless
// opts.Refresh is set.
func (r *Runner) Run(ctx context.Context, sc *scene.Scene, opts Options) (*Result, error) {
	if err := r.prepare(&opts); err != nil {
		return nil, err
	}
	hash, err := sceneHash(sc)
	if err != nil {
		return nil, err
	}
	key := r.Keyer.ResultKey(hash, cache.ResultKeyOpts{
		ZMax:    opts.zmaxFor(sc),
		Verify:  opts.Verify,
		Version: buildinfo.Get().Version,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached Result
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "result")
				cached.CacheHit = true
				return &cached, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "result")
	}

	result, err := r.execute(ctx, sc, opts)
	if err != nil {
		return nil, err
	}
	result.Hash = hash

	if data, err := json.Marshal(result); err == nil {
		if err := r.Cache.Set(ctx, key, data, opts.TTL); err != nil {
			opts.Logger.Warn("cache write failed", "scene", sc.Name, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "result", len(data))
		}
	}
	return result, nil
}

// RunFile imports the scene at path and runs it.
func (r *Runner) RunFile(ctx context.Context, path string, opts Options) (*Result, error) {
	sc, err := sceneio.ImportFile(path)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, sc, opts)
}

// RunAll runs the scene files at paths concurrently, at most concurrency at
// a time, and returns results in input order. The first failure cancels the
// remaining runs.
func (r *Runner) RunAll(ctx context.Context, paths []string, opts Options, concurrency int) ([]*Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	results := make([]*Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		g.Go(func() error {
			res, err := r.RunFile(ctx, path, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Render draws sc after opts.Frame frames as a node-link diagram in
// opts.Format. The bool reports a cache hit.
func (r *Runner) Render(ctx context.Context, sc *scene.Scene, opts Options) ([]byte, bool, error) {
	if err := r.prepare(&opts); err != nil {
		return nil, false, err
	}
	hash, err := sceneHash(sc)
	if err != nil {
		return nil, false, err
	}
	frame := opts.Frame
	if frame < 0 || frame > len(sc.Frames) {
		frame = len(sc.Frames)
	}
	key := r.Keyer.RenderKey(hash, cache.RenderKeyOpts{
		ZMax:     opts.zmaxFor(sc),
		Format:   opts.Format,
		Frame:    frame,
		Detailed: opts.Detailed,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "render")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "render")
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, sc.Name, opts.Format)
	out, err := r.render(ctx, sc, frame, opts)
	observability.Pipeline().OnRenderComplete(ctx, sc.Name, opts.Format, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, out, opts.TTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "render", len(out))
	}
	return out, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) render(ctx context.Context, sc *scene.Scene, frame int, opts Options) ([]byte, error) {
	in, err := scene.Build(sc, scene.WithZMax(opts.zmaxFor(sc)))
	if err != nil {
		return nil, err
	}
	Settle(in, opts.MaxPasses)
	for i := range frame {
		if err := ctx.Err(); err != nil {
			return nil, errors.FromContext(err, "render %s frame %d", sc.Name, i+1)
		}
		if err := in.ApplyFrame(sc.Frames[i]); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i+1, err)
		}
		Settle(in, opts.MaxPasses)
	}
	dot := nodelink.ToDOT(in, nodelink.Options{Detailed: opts.Detailed})
	return nodelink.Render(ctx, dot, opts.Format)
}

// execute runs sc without consulting the cache.
func (r *Runner) execute(ctx context.Context, sc *scene.Scene, opts Options) (result *Result, err error) {
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, sc.Name, len(sc.Nodes))
	defer func() {
		frames := 0
		if result != nil {
			frames = len(result.Frames)
		}
		hooks.OnRunComplete(ctx, sc.Name, frames, time.Since(start), err)
	}()

	in, err := scene.Build(sc, scene.WithZMax(opts.zmaxFor(sc)))
	if err != nil {
		return nil, err
	}

	result = &Result{Scene: sc.Name, Frames: make([]Frame, 0, len(sc.Frames)+1)}
	snapshot := func(index int) {
		passStart := time.Now()
		hooks.OnPassStart(ctx, sc.Name, index, in.Stacker.Pending())
		passes, stats := Settle(in, opts.MaxPasses)
		hooks.OnPassComplete(ctx, sc.Name, index, stats, time.Since(passStart))

		f := Frame{Index: index, Passes: passes, Stats: stats, Depths: in.Depths()}
		result.Frames = append(result.Frames, f)
		result.Stats.add(f)
		if opts.Verify {
			for _, v := range in.Verify() {
				result.Violations = append(result.Violations, fmt.Sprintf("frame %d: %v", index, v))
			}
		}
		opts.Logger.Debug("frame", "scene", sc.Name, "index", index, "passes", passes,
			"processed", stats.Processed, "changed", stats.Changed, "pending", stats.Pending)
	}

	snapshot(0)
	for i, f := range sc.Frames {
		if err := ctx.Err(); err != nil {
			return nil, errors.FromContext(err, "run %s frame %d", sc.Name, i+1)
		}
		if err := in.ApplyFrame(f); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i+1, err)
		}
		snapshot(i + 1)
	}

	result.Final = in.Depths()
	result.PaintOrder = in.PaintOrder()
	result.Stats.Nodes = in.Len()
	result.Stats.Duration = time.Since(start)

	if !result.Settled() {
		opts.Logger.Warn("passes left work pending; zmax may be too small for the tree depth",
			"scene", sc.Name, "pending", result.Stats.Pending, "zmax", in.Stacker.ZMax())
	}
	opts.Logger.Info("ran scene",
		"scene", sc.Name,
		"nodes", result.Stats.Nodes,
		"frames", len(result.Frames),
		"duration", result.Stats.Duration)
	return result, nil
}

// Settle runs passes on in until nothing is pending or limit passes have
// run, and returns the pass count with the summed statistics.
func Settle(in *scene.Instance, limit int) (int, stacking.PassStats) {
	var total stacking.PassStats
	n := 0
	for n < limit {
		st := in.Pass()
		n++
		total.Processed += st.Processed
		total.Adjusted += st.Adjusted
		total.Changed += st.Changed
		total.Squeezed += st.Squeezed
		total.Pending = st.Pending
		if st.Pending == 0 {
			break
		}
	}
	return n, total
}

func (r *Runner) prepare(opts *Options) error {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

func sceneHash(sc *scene.Scene) (string, error) {
	var buf bytes.Buffer
	if err := sceneio.WriteJSON(sc, &buf); err != nil {
		return "", fmt.Errorf("hash scene: %w", err)
	}
	return cache.Hash(buf.Bytes()), nil
}

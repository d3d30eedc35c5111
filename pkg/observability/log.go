package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackdepth/pkg/stacking"
)

// LogHooks implements every hook interface by writing debug records.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger, or to log.Default() when
// logger is nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnRunStart(_ context.Context, scene string, nodes int) {
	h.logger.Debug("run start", "scene", scene, "nodes", nodes)
}

func (h *LogHooks) OnRunComplete(_ context.Context, scene string, frames int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("run failed", "scene", scene, "frames", frames, "duration", d, "err", err)
		return
	}
	h.logger.Debug("run complete", "scene", scene, "frames", frames, "duration", d)
}

func (h *LogHooks) OnPassStart(_ context.Context, scene string, frame, pending int) {
	h.logger.Debug("pass start", "scene", scene, "frame", frame, "pending", pending)
}

func (h *LogHooks) OnPassComplete(_ context.Context, scene string, frame int, s stacking.PassStats, d time.Duration) {
	h.logger.Debug("pass complete", "scene", scene, "frame", frame,
		"processed", s.Processed, "adjusted", s.Adjusted, "changed", s.Changed,
		"squeezed", s.Squeezed, "pending", s.Pending, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, scene, format string) {
	h.logger.Debug("render start", "scene", scene, "format", format)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, scene, format string, d time.Duration, err error) {
	h.logger.Debug("render complete", "scene", scene, "format", format, "duration", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "duration", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)

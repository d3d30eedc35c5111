package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stackdepth/pkg/buildinfo"
	"github.com/matzehuels/stackdepth/pkg/errors"
	sceneio "github.com/matzehuels/stackdepth/pkg/io"
	"github.com/matzehuels/stackdepth/pkg/observability"
	"github.com/matzehuels/stackdepth/pkg/pipeline"
	"github.com/matzehuels/stackdepth/pkg/render/nodelink"
	"github.com/matzehuels/stackdepth/pkg/scene"
	"github.com/matzehuels/stackdepth/pkg/stacking"
)

// SceneResponse describes a live scene.
type SceneResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Nodes     int                 `json:"nodes"`
	CreatedAt time.Time           `json:"created_at"`
	Passes    int                 `json:"passes,omitempty"`
	Stats     *stacking.PassStats `json:"stats,omitempty"`
	Depths    map[string]float64  `json:"depths,omitempty"`
}

// OrderItem is one entry of a paint order response.
type OrderItem struct {
	Name  string  `json:"name"`
	Depth float64 `json:"depth"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sc, err := s.readScene(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	res, err := s.runner.Run(r.Context(), sc, pipeline.Options{
		DefaultZMax: s.cfg.ZMax,
		MaxPasses:   s.cfg.MaxPasses,
		Verify:      q.Get("verify") == "true",
		Refresh:     q.Get("refresh") == "true",
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if res.CacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sc, err := s.readScene(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	in, err := scene.Build(sc, scene.WithZMax(s.zmaxFor(sc)))
	if err != nil {
		s.writeError(w, err)
		return
	}
	for _, f := range sc.Frames {
		pipeline.Settle(in, s.cfg.MaxPasses)
		if err := in.ApplyFrame(f); err != nil {
			s.writeError(w, err)
			return
		}
	}

	l, err := s.store.Add(in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var resp SceneResponse
	_ = l.With(time.Now(), func(in *scene.Instance) error {
		resp = s.settled(l, in)
		return nil
	})
	s.logger.Info("created scene", "id", l.ID, "name", resp.Name, "nodes", resp.Nodes)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	lives := s.store.List()
	out := make([]SceneResponse, 0, len(lives))
	for _, l := range lives {
		_ = l.With(time.Now(), func(in *scene.Instance) error {
			out = append(out, describe(l, in))
			return nil
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenes": out})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.withScene(w, r, func(l *Live, in *scene.Instance) (any, error) {
		return s.settled(l, in), nil
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOps(w http.ResponseWriter, r *http.Request) {
	var f scene.Frame
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode ops"))
		return
	}
	s.withScene(w, r, func(l *Live, in *scene.Instance) (any, error) {
		if err := in.ApplyFrame(f); err != nil {
			return nil, err
		}
		return s.settled(l, in), nil
	})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	s.withScene(w, r, func(l *Live, in *scene.Instance) (any, error) {
		pipeline.Settle(in, s.cfg.MaxPasses)
		items := in.Order.Items()
		out := make([]OrderItem, 0, len(items))
		for _, it := range items {
			out = append(out, OrderItem{Name: in.NodeName(it.ID), Depth: it.Depth})
		}
		return map[string]any{"order": out}, nil
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	s.withScene(w, r, func(l *Live, in *scene.Instance) (any, error) {
		pipeline.Settle(in, s.cfg.MaxPasses)
		violations := []string{}
		for _, err := range in.Verify() {
			violations = append(violations, err.Error())
		}
		return map[string]any{"pending": in.Stacker.Pending(), "violations": violations}, nil
	})
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}
	l, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var dot, name string
	_ = l.With(time.Now(), func(in *scene.Instance) error {
		pipeline.Settle(in, s.cfg.MaxPasses)
		name = in.Name()
		dot = nodelink.ToDOT(in, nodelink.Options{Detailed: r.URL.Query().Get("detailed") == "true"})
		return nil
	})

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnRenderStart(r.Context(), name, format)
	out, err := nodelink.Render(r.Context(), dot, format)
	hooks.OnRenderComplete(r.Context(), name, format, time.Since(start), err)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format))
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

var contentTypes = map[string]string{
	nodelink.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	nodelink.FormatSVG: "image/svg+xml",
	nodelink.FormatPNG: "image/png",
}

// withScene locks the scene named by the URL, runs fn and writes its
// result as JSON.
func (s *Server) withScene(w http.ResponseWriter, r *http.Request, fn func(*Live, *scene.Instance) (any, error)) {
	l, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var out any
	err = l.With(time.Now(), func(in *scene.Instance) error {
		var err error
		out, err = fn(l, in)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// settled runs passes until in settles and describes the result.
func (s *Server) settled(l *Live, in *scene.Instance) SceneResponse {
	passes, stats := pipeline.Settle(in, s.cfg.MaxPasses)
	resp := describe(l, in)
	resp.Passes = passes
	resp.Stats = &stats
	resp.Depths = in.Depths()
	return resp
}

func describe(l *Live, in *scene.Instance) SceneResponse {
	return SceneResponse{ID: l.ID, Name: in.Name(), Nodes: in.Len(), CreatedAt: l.CreatedAt}
}

func (s *Server) readScene(w http.ResponseWriter, r *http.Request) (*scene.Scene, error) {
	return sceneio.ReadJSON(http.MaxBytesReader(w, r.Body, s.cfg.MaxBody))
}

// zmaxFor returns the server's zmax for scenes that do not set their own.
func (s *Server) zmaxFor(sc *scene.Scene) float64 {
	if sc.ZMax > 0 {
		return 0
	}
	return s.cfg.ZMax
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
		if code == "" {
			code = errors.ErrCodeInternal
			msg = "internal error"
		}
	}
	if status == http.StatusRequestEntityTooLarge {
		code, msg = errors.ErrCodeInvalidInput, "request body too large"
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: msg})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errors.ErrCodeTimeout), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeLimit):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

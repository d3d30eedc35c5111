package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/observability"
)

const menuScene = `{
  "name": "menu",
  "zmax": 1000,
  "nodes": [
    {"name": "root"},
    {"name": "a", "parent": "root", "z": 1},
    {"name": "b", "parent": "root", "z": -1},
    {"name": "panel", "parent": "root", "z": "auto"},
    {"name": "item", "parent": "panel"}
  ]
}`

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	s, err := New(cfg, nil, log.NewWithOptions(io.Discard, log.Options{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func create(t *testing.T, ts *httptest.Server) SceneResponse {
	t.Helper()
	resp, body := do(t, http.MethodPost, ts.URL+"/scenes", menuScene)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /scenes = %d: %s", resp.StatusCode, body)
	}
	return decode[SceneResponse](t, body)
}

func TestCreateAndGet(t *testing.T) {
	ts := newTestServer(t, Config{})
	created := create(t, ts)

	if created.ID == "" || created.Name != "menu" || created.Nodes != 5 {
		t.Errorf("created = %+v", created)
	}
	if created.Depths["root"] != -1000 {
		t.Errorf("root depth = %v, want -1000", created.Depths["root"])
	}
	d := created.Depths
	if !(d["b"] < d["panel"] && d["panel"] < d["item"] && d["item"] < d["a"]) {
		t.Errorf("depths out of paint order: %v", d)
	}

	resp, body := do(t, http.MethodGet, ts.URL+"/scenes/"+created.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET = %d: %s", resp.StatusCode, body)
	}
	got := decode[SceneResponse](t, body)
	if got.Stats == nil || got.Stats.Processed != 0 {
		t.Errorf("settled scene should need no work, stats = %+v", got.Stats)
	}
	if got.Depths["a"] != created.Depths["a"] {
		t.Errorf("depth of a changed without edits: %v -> %v", created.Depths["a"], got.Depths["a"])
	}
}

func TestApplyOps(t *testing.T) {
	ts := newTestServer(t, Config{})
	id := create(t, ts).ID

	resp, body := do(t, http.MethodPost, ts.URL+"/scenes/"+id+"/ops",
		`{"ops": [{"op": "set-z", "name": "a", "z": -5}, {"op": "add", "name": "toast", "parent": "root", "z": 9}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST ops = %d: %s", resp.StatusCode, body)
	}
	got := decode[SceneResponse](t, body)
	if !(got.Depths["a"] < got.Depths["b"]) {
		t.Errorf("a should now paint below b: %v", got.Depths)
	}
	if got.Nodes != 6 {
		t.Errorf("Nodes = %d, want 6", got.Nodes)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/scenes/"+id+"/order", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET order = %d", resp.StatusCode)
	}
	order := decode[struct{ Order []OrderItem }](t, body)
	var names []string
	for _, it := range order.Order {
		names = append(names, it.Name)
	}
	if want := "root a b panel item toast"; strings.Join(names, " ") != want {
		t.Errorf("order = %v, want %s", names, want)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/scenes/"+id+"/verify", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET verify = %d", resp.StatusCode)
	}
	v := decode[struct {
		Pending    int
		Violations []string
	}](t, body)
	if v.Pending != 0 || len(v.Violations) != 0 {
		t.Errorf("verify = %+v", v)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t, Config{MaxScenes: 1, MaxBody: 2048})
	id := create(t, ts).ID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"unknown scene", http.MethodGet, "/scenes/nope", "", http.StatusNotFound, errors.ErrCodeSceneNotFound},
		{"bad json", http.MethodPost, "/run", "{", http.StatusBadRequest, errors.ErrCodeInvalidScene},
		{"unknown field", http.MethodPost, "/run", `{"name":"x","nodes":[],"extra":1}`, http.StatusBadRequest, errors.ErrCodeInvalidScene},
		{"unknown node", http.MethodPost, "/scenes/" + id + "/ops", `{"ops":[{"op":"delete","name":"ghost"}]}`, http.StatusNotFound, errors.ErrCodeNodeNotFound},
		{"unknown op", http.MethodPost, "/scenes/" + id + "/ops", `{"ops":[{"op":"move","name":"a"}]}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad format", http.MethodGet, "/scenes/" + id + "/diagram?format=gif", "", http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"limit", http.MethodPost, "/scenes", menuScene, http.StatusTooManyRequests, errors.ErrCodeLimit},
		{"too large", http.MethodPost, "/run", `{"name":"` + strings.Repeat("x", 4096) + `"}`, http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			e := decode[ErrorResponse](t, body)
			if e.Code != tt.code || e.Message == "" {
				t.Errorf("error = %+v, want code %s", e, tt.code)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"timeout code", errors.FromContext(context.DeadlineExceeded, "run"), http.StatusGatewayTimeout},
		{"bare deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"not found", errors.New(errors.ErrCodeSceneNotFound, "x"), http.StatusNotFound},
		{"invalid", errors.New(errors.ErrCodeInvalidFormat, "x"), http.StatusBadRequest},
		{"limit", errors.New(errors.ErrCodeLimit, "x"), http.StatusTooManyRequests},
		{"plain", io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestListAndDelete(t *testing.T) {
	ts := newTestServer(t, Config{})
	first := create(t, ts).ID
	second := create(t, ts).ID

	_, body := do(t, http.MethodGet, ts.URL+"/scenes", "")
	list := decode[struct{ Scenes []SceneResponse }](t, body)
	if len(list.Scenes) != 2 || list.Scenes[0].ID != first || list.Scenes[1].ID != second {
		t.Errorf("list = %+v, want [%s %s]", list.Scenes, first, second)
	}

	resp, _ := do(t, http.MethodDelete, ts.URL+"/scenes/"+first, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE = %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodDelete, ts.URL+"/scenes/"+first, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE = %d, want 404", resp.StatusCode)
	}
}

func TestRunEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{})
	body := `{"name":"s","nodes":[{"name":"r"},{"name":"x","parent":"r","z":2}],
		"frames":[{"ops":[{"op":"set-z","name":"x","z":"auto"}]}]}`

	resp, data := do(t, http.MethodPost, ts.URL+"/run?verify=true", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /run = %d: %s", resp.StatusCode, data)
	}
	res := decode[struct {
		Frames     []json.RawMessage
		PaintOrder []string `json:"paint_order"`
		Violations []string
	}](t, data)
	if len(res.Frames) != 2 || len(res.Violations) != 0 {
		t.Errorf("result = %+v", res)
	}
	if strings.Join(res.PaintOrder, ",") != "r,x" {
		t.Errorf("paint order = %v", res.PaintOrder)
	}
}

func TestDiagram(t *testing.T) {
	ts := newTestServer(t, Config{})
	id := create(t, ts).ID

	resp, body := do(t, http.MethodGet, ts.URL+"/scenes/"+id+"/diagram?format=dot", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("diagram = %d: %s", resp.StatusCode, body)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	if !bytes.Contains(body, []byte(`"panel" -> "item"`)) {
		t.Errorf("dot missing edge:\n%s", body)
	}
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
	resp, body = do(t, http.MethodGet, ts.URL+"/version", "")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`"version"`)) {
		t.Errorf("version = %d %s", resp.StatusCode, body)
	}
}

type routeHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *routeHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
}

func TestHooksUseRoutePatterns(t *testing.T) {
	h := &routeHooks{}
	observability.SetHTTPHooks(h)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t, Config{})
	id := create(t, ts).ID
	do(t, http.MethodGet, ts.URL+"/scenes/"+id+"/order", "")

	h.mu.Lock()
	defer h.mu.Unlock()
	want := []string{"POST /scenes", "GET /scenes/{id}/order"}
	if strings.Join(h.routes, "|") != strings.Join(want, "|") {
		t.Errorf("routes = %v, want %v", h.routes, want)
	}
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore(0, time.Minute)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	l, err := s.Add(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(l.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.Get(l.ID); !errors.IsNotFound(err) {
		t.Errorf("expired Get = %v, want not found", err)
	}
	if n := s.Cleanup(context.Background()); n != 1 || s.Len() != 0 {
		t.Errorf("Cleanup = %d, Len = %d", n, s.Len())
	}
}

func TestNewRejectsBadAddr(t *testing.T) {
	if _, err := New(Config{Addr: "not an addr"}, nil, nil); err == nil {
		t.Error("New should reject a malformed address")
	}
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/stackdepth/pkg/pipeline"
)

const menuScene = `name = "menu"
zmax = 1000

[[node]]
name = "root"

[[node]]
name = "a"
parent = "root"
z = 1

[[node]]
name = "b"
parent = "root"
z = -1

[[node]]
name = "c"
parent = "root"
z = "auto"

[[node]]
name = "d"
parent = "c"

[[frame]]
[[frame.op]]
op = "set-z"
name = "a"
z = -5

[[frame]]
[[frame.op]]
op = "delete"
name = "c"
`

// testEnv isolates config and cache directories and writes the menu scene.
func testEnv(t *testing.T) (dir, scenePath string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	scenePath = filepath.Join(dir, "menu.toml")
	if err := os.WriteFile(scenePath, []byte(menuScene), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, scenePath
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errb, logs bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errb)
	root.SetIn(strings.NewReader(""))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunPlain(t *testing.T) {
	_, path := testEnv(t)

	out, err := execute(t, "run", "--plain", "--verify", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var names []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		names = append(names, strings.Fields(line)[0])
	}
	if got := strings.Join(names, " "); got != "root a b" {
		t.Errorf("paint order = %q, want %q", got, "root a b")
	}
}

func TestRunJSON(t *testing.T) {
	_, path := testEnv(t)

	out, err := execute(t, "run", "--json", "--no-cache", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Scene != "menu" {
		t.Errorf("scene = %q", res.Scene)
	}
	if len(res.Frames) != 3 {
		t.Errorf("frames = %d, want 3", len(res.Frames))
	}
	if _, ok := res.Final["c"]; ok {
		t.Error("deleted node c still has a depth")
	}
}

func TestRunTable(t *testing.T) {
	_, path := testEnv(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"depths", []string{"run", path}, []string{"menu", "Node", "Depth", "root", "fresh"}},
		{"frames", []string{"run", "--frames", path}, []string{"f0", "f2", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	dir, path := testEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"run", filepath.Join(dir, "nope.toml")}, "nope.toml"},
		{"bad extension", []string{"run", filepath.Join(dir, "menu.yaml")}, "menu.yaml"},
		{"exclusive flags", []string{"run", "--json", "--plain", path}, "json"},
		{"no args", []string{"run"}, "arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestRenderDOT(t *testing.T) {
	dir, path := testEnv(t)

	out, err := execute(t, "render", "-f", "dot", "-o", "-", "--frame", "0", path)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "digraph") || !strings.Contains(out, `"d"`) {
		t.Errorf("frame 0 diagram should contain node d:\n%s", out)
	}

	target := filepath.Join(dir, "out", "menu.dot")
	if _, err := execute(t, "render", "-f", "dot", "-o", target, path); err != nil {
		t.Fatalf("render to file: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"d"`) {
		t.Error("final diagram still contains deleted node d")
	}
}

func TestRenderRejectsFormat(t *testing.T) {
	_, path := testEnv(t)
	if _, err := execute(t, "render", "-f", "pdf", path); err == nil {
		t.Fatal("expected error for pdf")
	}
}

func TestCacheCommands(t *testing.T) {
	dir, path := testEnv(t)

	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := strings.TrimSpace(out), filepath.Join(dir, "cache", "stackdepth"); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}

	if _, err := execute(t, "run", path); err != nil {
		t.Fatal(err)
	}
	out, err = execute(t, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cleared 1 cached entries") {
		t.Errorf("clear output = %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	dir, _ := testEnv(t)
	cfgPath := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(cfgPath, []byte("zmax = 500\n[cache]\nbackend = \"none\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{"zmax = 500", `backend = "none"`, "[serve]"} {
		if !strings.Contains(out, w) {
			t.Errorf("config show missing %q:\n%s", w, out)
		}
	}

	out, err = execute(t, "--config", cfgPath, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != cfgPath {
		t.Errorf("config path = %q", out)
	}

	if _, err := execute(t, "--config", filepath.Join(dir, "missing.toml"), "config", "show"); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestCompletion(t *testing.T) {
	testEnv(t)
	out, err := execute(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "stackdepth") {
		t.Error("bash completion does not mention the command name")
	}
}

func TestFormatDepth(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{12, "12"},
		{-3.5, "-3.5"},
		{1.0 / 3, "0.333"},
		{2.0001, "2"},
	}
	for _, tt := range tests {
		if got := formatDepth(tt.in); got != tt.want {
			t.Errorf("formatDepth(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	if got := outputPath("", "scenes/menu.toml", "svg"); got != "scenes/menu.svg" {
		t.Errorf("derived path = %q", got)
	}
	if got := outputPath("x.png", "menu.toml", "svg"); got != "x.png" {
		t.Errorf("explicit path = %q", got)
	}
}

func TestFrameModel(t *testing.T) {
	res := &pipeline.Result{
		Scene: "menu",
		Frames: []pipeline.Frame{
			{Index: 0, Passes: 1, Depths: map[string]float64{"root": 0, "a": 1}},
			{Index: 1, Passes: 1, Depths: map[string]float64{"root": 0, "a": 2, "b": 1}},
		},
	}
	var m tea.Model = NewFrameModel(res)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	fm := m.(FrameModel)
	if fm.Frame != 1 {
		t.Fatalf("frame = %d, want 1", fm.Frame)
	}

	rows := fm.rows()
	var names []string
	for _, r := range rows {
		names = append(names, r.name)
	}
	if got := strings.Join(names, " "); got != "root b a" {
		t.Errorf("rows = %q, want %q", got, "root b a")
	}
	if !rows[1].isNew || !rows[2].changed || rows[2].prev != 1 {
		t.Errorf("row flags wrong: %+v", rows)
	}

	view := fm.View()
	for _, w := range []string{"frame 1/1", "new"} {
		if !strings.Contains(view, w) {
			t.Errorf("view missing %q:\n%s", w, view)
		}
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.(FrameModel).Frame != 0 {
		t.Error("left should step back")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Error("q should quit")
	}
}

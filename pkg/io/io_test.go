package io

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/scene"
)

const menuTOML = `
name = "menu"
zmax = 5000

[[node]]
name = "root"

[[node]]
name = "overlay"
parent = "root"
z = "auto"

[[node]]
name = "badge"
parent = "overlay"
z = -2

[[frame]]
[[frame.op]]
op = "add"
name = "toast"
parent = "root"
z = 100

[[frame.op]]
op = "set-z"
name = "overlay"
z = 3
`

const menuJSON = `{
  "name": "menu",
  "zmax": 5000,
  "nodes": [
    {"name": "root"},
    {"name": "overlay", "parent": "root", "z": "auto"},
    {"name": "badge", "parent": "overlay", "z": -2}
  ],
  "frames": [
    {"ops": [
      {"op": "add", "name": "toast", "parent": "root", "z": 100},
      {"op": "set-z", "name": "overlay", "z": 3}
    ]}
  ]
}`

func TestTOMLAndJSONAgree(t *testing.T) {
	fromTOML, err := ReadTOML(strings.NewReader(menuTOML))
	if err != nil {
		t.Fatalf("ReadTOML: %v", err)
	}
	fromJSON, err := ReadJSON(strings.NewReader(menuJSON))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if !reflect.DeepEqual(fromTOML, fromJSON) {
		t.Errorf("TOML and JSON differ:\n%+v\n%+v", fromTOML, fromJSON)
	}
	if fromTOML.Nodes[1].Z != scene.Auto {
		t.Errorf("overlay z = %v, want auto", fromTOML.Nodes[1].Z)
	}
	if len(fromTOML.Frames) != 1 || len(fromTOML.Frames[0].Ops) != 2 {
		t.Errorf("frames = %+v", fromTOML.Frames)
	}
}

func TestReadRejects(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
		code   errors.Code
	}{
		{"malformed json", FormatJSON, `{"nodes": [`, errors.ErrCodeInvalidScene},
		{"unknown json field", FormatJSON, `{"nodes": [], "colour": 1}`, errors.ErrCodeInvalidScene},
		{"bad json z", FormatJSON, `{"nodes": [{"name": "a", "z": "top"}]}`, errors.ErrCodeInvalidScene},
		{"unknown toml key", FormatTOML, "depth = 3\n", errors.ErrCodeInvalidScene},
		{"bad toml z", FormatTOML, "[[node]]\nname = \"a\"\nz = 1.5\n", errors.ErrCodeInvalidScene},
		{"undeclared parent", FormatTOML, "[[node]]\nname = \"a\"\nparent = \"b\"\n", errors.ErrCodeInvalidScene},
		{"unknown format", Format("yaml"), "", errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), tt.format)
			if !errors.Is(err, tt.code) {
				t.Errorf("Read() = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	sc, err := ReadTOML(strings.NewReader(menuTOML))
	if err != nil {
		t.Fatal(err)
	}
	for _, format := range []Format{FormatTOML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(sc, &buf, format); err != nil {
				t.Fatalf("Write: %v", err)
			}
			back, err := ParseBytes(buf.Bytes(), format)
			if err != nil {
				t.Fatalf("re-read: %v\n%s", err, buf.String())
			}
			if !reflect.DeepEqual(sc, back) {
				t.Errorf("round trip changed scene:\n%+v\n%+v", sc, back)
			}
		})
	}
}

func TestFileImportExport(t *testing.T) {
	dir := t.TempDir()
	sc, err := ReadJSON(strings.NewReader(menuJSON))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "menu.toml")
	if err := ExportFile(sc, path); err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	back, err := ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if !reflect.DeepEqual(sc, back) {
		t.Errorf("file round trip changed scene")
	}

	if _, err := ImportFile(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scene.yaml"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportFile(filepath.Join(dir, "scene.yaml")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("yaml import error = %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.toml":      FormatTOML,
		"dir/B.TOML":  FormatTOML,
		"scene.json":  FormatJSON,
		"noextension": "",
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		if got != want || (want == "") != (err != nil) {
			t.Errorf("FormatFromPath(%q) = %q, %v", path, got, err)
		}
	}
}

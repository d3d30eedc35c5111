package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/scene"
)

// Format is a scene file encoding.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath returns the format implied by the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer scene format from %q (want .toml or .json)", path)
	}
}

// ReadJSON decodes and validates a JSON scene. Unknown fields are rejected.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*scene.Scene, error) {
	var sc scene.Scene
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode json")
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// ReadTOML decodes and validates a TOML scene. Unknown keys are rejected.
// ReadTOML does not close r.
func ReadTOML(r io.Reader) (*scene.Scene, error) {
	var sc scene.Scene
	md, err := toml.NewDecoder(r).Decode(&sc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidScene, "unknown key %q", undecoded[0].String())
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Read decodes a scene in the given format.
func Read(r io.Reader, format Format) (*scene.Scene, error) {
	switch format {
	case FormatTOML:
		return ReadTOML(r)
	case FormatJSON:
		return ReadJSON(r)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported scene format %q", format)
	}
}

// ParseBytes decodes a scene held in memory.
func ParseBytes(data []byte, format Format) (*scene.Scene, error) {
	return Read(bytes.NewReader(data), format)
}

// ImportFile reads the scene at path. The format follows the extension.
func ImportFile(path string) (*scene.Scene, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scene file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, format)
}

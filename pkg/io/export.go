package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stackdepth/pkg/scene"
)

// WriteJSON encodes sc as indented JSON and writes it to w.
func WriteJSON(sc *scene.Scene, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteTOML encodes sc as TOML and writes it to w.
func WriteTOML(sc *scene.Scene, w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(sc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Write encodes sc in the given format.
func Write(sc *scene.Scene, w io.Writer, format Format) error {
	switch format {
	case FormatTOML:
		return WriteTOML(sc, w)
	case FormatJSON:
		return WriteJSON(sc, w)
	default:
		return fmt.Errorf("unsupported scene format %q", format)
	}
}

// ExportFile writes sc to path in the format implied by its extension.
func ExportFile(sc *scene.Scene, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(sc, f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

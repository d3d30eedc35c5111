// Package io reads and writes scene files in TOML and JSON.
//
// # Formats
//
// Both formats carry the same fields. TOML uses array tables:
//
//	name = "menu"
//
//	[[node]]
//	name = "root"
//
//	[[node]]
//	name = "overlay"
//	parent = "root"
//	z = "auto"
//
//	[[frame]]
//	[[frame.op]]
//	op = "add"
//	name = "toast"
//	parent = "root"
//	z = 100
//
// JSON uses plain arrays:
//
//	{
//	  "name": "menu",
//	  "nodes": [
//	    {"name": "root"},
//	    {"name": "overlay", "parent": "root", "z": "auto"}
//	  ],
//	  "frames": [
//	    {"ops": [{"op": "add", "name": "toast", "parent": "root", "z": 100}]}
//	  ]
//	}
//
// A z-index is an integer or the string "auto"; a missing z means 0.
//
// # Import
//
// [ImportFile] picks the format from the file extension (.toml or .json) and
// validates the scene. [Read] does the same for any io.Reader with an
// explicit [Format].
//
// # Export
//
// [WriteJSON] and [WriteTOML] encode a scene; [ExportFile] writes one to a
// path, again choosing the format by extension. A scene read back from an
// export is equal to the one written.
package io

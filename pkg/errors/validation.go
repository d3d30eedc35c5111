package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxNameLength bounds scene and node names.
const maxNameLength = 128

// nodeNameRegex matches node names: a letter or digit followed by letters,
// digits, dots, dashes, underscores or slashes.
var nodeNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]*$`)

// ValidateNodeName validates the name of a scene node.
//
// Names are used as map keys, DOT identifiers and JSON keys, so the rules
// are conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 128 characters
//   - Letters, digits and ._/- only, not starting with punctuation
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidNode, "node name cannot be empty")
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidNode, "node name too long (max %d characters)", maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNode, "node name contains invalid control characters")
		}
	}
	if !nodeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidNode, "invalid node name: %q", name)
	}
	return nil
}

// ValidateSceneName validates the optional title of a scene.
func ValidateSceneName(name string) error {
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidScene, "scene name too long (max %d characters)", maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidScene, "scene name contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a relative output path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	return nil
}

// ValidateAddr validates a host:port listen or dial address.
func ValidateAddr(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidConfig, "address cannot be empty")
	}
	i := strings.LastIndex(addr, ":")
	if i < 0 || i == len(addr)-1 {
		return New(ErrCodeInvalidConfig, "address %q must be host:port", addr)
	}
	for _, r := range addr[i+1:] {
		if r < '0' || r > '9' {
			return New(ErrCodeInvalidConfig, "address %q has a non-numeric port", addr)
		}
	}
	return nil
}

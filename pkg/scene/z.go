package scene

import (
	"encoding/json"
	"strconv"

	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/tree"
)

// Z is a z-index as written in scene files: an integer or the string "auto".
type Z tree.ZIndex

// Auto is the "auto" z-index.
const Auto = Z(tree.Auto)

// ZIndex converts z to the tree representation.
func (z Z) ZIndex() tree.ZIndex { return tree.ZIndex(z) }

func (z Z) String() string { return tree.ZIndex(z).String() }

// UnmarshalTOML accepts a TOML integer or the string "auto".
func (z *Z) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case int64:
		return z.setInt(v)
	case string:
		return z.parse(v)
	default:
		return errors.New(errors.ErrCodeInvalidZIndex, "z must be an integer or \"auto\", got %T", v)
	}
}

// MarshalTOML writes auto as a string and integers bare.
func (z Z) MarshalTOML() ([]byte, error) {
	if tree.ZIndex(z).IsAuto() {
		return []byte(`"auto"`), nil
	}
	return []byte(strconv.Itoa(int(z))), nil
}

// UnmarshalJSON accepts a JSON number, "auto", or a quoted integer.
func (z *Z) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return z.parse(s)
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidZIndex, err, "z must be an integer or \"auto\"")
	}
	return z.setInt(n)
}

// MarshalJSON writes auto as a string and integers as numbers.
func (z Z) MarshalJSON() ([]byte, error) {
	return z.MarshalTOML()
}

func (z *Z) parse(s string) error {
	v, err := tree.ParseZIndex(s)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidZIndex, err, "invalid z %q", s)
	}
	*z = Z(v)
	return nil
}

func (z *Z) setInt(n int64) error {
	const limit = 1 << 31
	if n <= -limit || n >= limit {
		return errors.New(errors.ErrCodeInvalidZIndex, "z %d out of range", n)
	}
	*z = Z(n)
	return nil
}

// ParseZ parses a command-line z value.
func ParseZ(s string) (Z, error) {
	var z Z
	if err := z.parse(s); err != nil {
		return 0, err
	}
	return z, nil
}

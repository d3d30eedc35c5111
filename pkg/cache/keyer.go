package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer derives cache keys.
type Keyer interface {
	// ResultKey is the key of a pipeline result for a scene.
	ResultKey(sceneHash string, opts ResultKeyOpts) string
	// RenderKey is the key of a rendered diagram for a scene.
	RenderKey(sceneHash string, opts RenderKeyOpts) string
}

// ResultKeyOpts lists the options that change a pipeline result.
type ResultKeyOpts struct {
	ZMax    float64 `json:"zmax"`
	Verify  bool    `json:"verify"`
	Version string  `json:"version"`
}

// RenderKeyOpts lists the options that change a rendered diagram.
type RenderKeyOpts struct {
	ZMax     float64 `json:"zmax"`
	Format   string  `json:"format"`
	Frame    int     `json:"frame"`
	Detailed bool    `json:"detailed"`
}

// DefaultKeyer hashes the options together with the scene hash.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResultKey returns "result:<sha256>".
func (DefaultKeyer) ResultKey(sceneHash string, opts ResultKeyOpts) string {
	return "result:" + hashJSON(sceneHash, opts)
}

// RenderKey returns "render:<sha256>".
func (DefaultKeyer) RenderKey(sceneHash string, opts RenderKeyOpts) string {
	return "render:" + hashJSON(sceneHash, opts)
}

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// front ends can share one backend without colliding:
//
//	keyer := cache.NewScopedKeyer(nil, "serve:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ResultKey(sceneHash string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(sceneHash, opts)
}

func (k *ScopedKeyer) RenderKey(sceneHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(sceneHash, opts)
}

// Hash returns the hex SHA-256 of data. Scene hashes use it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashJSON hashes the JSON encoding of parts. The parts are plain structs
// and strings, so encoding cannot fail.
func hashJSON(parts ...any) string {
	data, _ := json.Marshal(parts)
	return Hash(data)
}

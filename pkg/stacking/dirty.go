package stacking

import (
	"math"

	"github.com/matzehuels/stackdepth/pkg/tree"
)

// noLayer is the watermark of an empty tracker.
const noLayer = math.MaxInt

// dirtyBuckets is a worklist of node IDs grouped by tree layer, so that a
// pass can visit ancestors before their descendants.
type dirtyBuckets struct {
	layers [][]tree.ID
	count  int
	min    int
}

func newDirtyBuckets() dirtyBuckets {
	return dirtyBuckets{min: noLayer}
}

// mark appends id to the bucket of layer and lowers the watermark.
func (d *dirtyBuckets) mark(id tree.ID, layer int) {
	for len(d.layers) <= layer {
		d.layers = append(d.layers, nil)
	}
	d.layers[layer] = append(d.layers[layer], id)
	d.count++
	if layer < d.min {
		d.min = layer
	}
}

// remove swap-removes id from the bucket of layer. It reports whether id
// was present.
func (d *dirtyBuckets) remove(id tree.ID, layer int) bool {
	if layer >= len(d.layers) {
		return false
	}
	bucket := d.layers[layer]
	for i, v := range bucket {
		if v != id {
			continue
		}
		last := len(bucket) - 1
		bucket[i] = bucket[last]
		d.layers[layer] = bucket[:last]
		d.count--
		if d.count == 0 {
			d.min = noLayer
		}
		return true
	}
	return false
}

// drain calls fn for every entry, shallowest layer first. Entries added to
// deeper layers while draining are visited in the same call. Buckets are
// emptied and the watermark reset once everything has been visited.
func (d *dirtyBuckets) drain(fn func(tree.ID)) {
	if d.count == 0 {
		return
	}
	for layer := d.min; layer < len(d.layers); layer++ {
		for i := 0; i < len(d.layers[layer]); i++ {
			fn(d.layers[layer][i])
		}
		d.count -= len(d.layers[layer])
		d.layers[layer] = d.layers[layer][:0]
	}
	d.min = noLayer
}

// len returns the number of pending entries.
func (d *dirtyBuckets) len() int { return d.count }

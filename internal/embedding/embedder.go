package embedding

import (
	"hash/fnv"
	"math"
	"strings"
)

// Embedder turns text into a fixed-size dense vector.
type Embedder interface {
	Embed(text string) []float32
	Dimensions() int
}

// HashingEmbedder maps token counts into a fixed number of buckets via FNV
// hashing and L2-normalizes the result. It needs no model artifacts and is
// fully deterministic, which makes query and document vectors comparable
// across processes and restarts.
type HashingEmbedder struct {
	dims int
}

func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashingEmbedder{dims: dims}
}

func (e *HashingEmbedder) Dimensions() int { return e.dims }

func (e *HashingEmbedder) Embed(text string) []float32 {
	vec := make([]float32, e.dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// Package embedding wraps the external embed() black box with a
// content-addressed cache, dimension enforcement, and vector math
// used throughout the rest of the system (C2).
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/kittclouds/memgraph/internal/errkind"
	"github.com/orsinium-labs/stopwords"
)

// en is the stopword set the cache key tokenizer strips before
// hashing, so "the meeting is tomorrow" and "meeting tomorrow" share a
// cache entry. Loaded once; the set itself is immutable after Get.
var en = stopwords.MustGet("en")

// Func is the external embedding boundary: deterministic for a given
// (text, model) pair, returns a dense vector of length Dimension.
type Func func(ctx context.Context, text string) ([]float32, error)

// Cache wraps Func with a content-addressed, bounded-LRU cache keyed
// by hash(normalized text, model). Safe for concurrent use.
type Cache struct {
	fn        Func
	model     string
	dimension int
	lru       *lru
}

// New builds a Cache around fn, enforcing dimension on every result
// and evicting least-recently-used entries once capacity entries are
// held.
func New(fn Func, model string, dimension, capacity int) *Cache {
	return &Cache{
		fn:        fn,
		model:     model,
		dimension: dimension,
		lru:       newLRU(capacity),
	}
}

// Embed returns the L2-normalized embedding for text, serving from
// cache when possible.
func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(c.model, text)
	if v, ok := c.lru.get(key); ok {
		return v, nil
	}

	v, err := c.fn(ctx, text)
	if err != nil {
		return nil, errkind.New(errkind.ExternalUnavailable, "embedding.Embed", err)
	}
	if len(v) != c.dimension {
		return nil, errkind.New(errkind.ValidationFailed, "embedding.Embed",
			errDimension(c.dimension, len(v)))
	}

	v = Normalize(v)
	c.lru.put(key, v)
	return v, nil
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int { return c.lru.len() }

func cacheKey(model, text string) string {
	h := sha256.Sum256([]byte(model + "\x00" + normalizeText(text)))
	return hex.EncodeToString(h[:])
}

// normalizeText folds the text to a stable form before hashing:
// lowercase, whitespace-collapsed, and stripped of English stopwords,
// so "the meeting is tomorrow" and "meeting tomorrow" collide in the
// cache the same way their embeddings would be expected to agree.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	folded := strings.TrimSpace(b.String())

	tokens := strings.Fields(folded)
	kept := tokens[:0]
	for _, tok := range tokens {
		if !en.Contains(tok) {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		return folded
	}
	return strings.Join(kept, " ")
}

// Normalize returns v scaled to unit L2 norm. A zero vector is
// returned unchanged.
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// CosineSimilarity computes the dot product of two unit-normalized
// vectors — the manual fallback C7 uses when the vector-search
// operator is unavailable (spec 4.2/4.7).
func CosineSimilarity(a, b []float32) float64 {
	var dot float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// Blend folds a new embedding into a prior one by arithmetic mean
// followed by L2-renormalization — the update half of C5's
// upsert_entity (spec 4.5).
func Blend(prior, next []float32) []float32 {
	if len(prior) == 0 {
		return Normalize(next)
	}
	if len(next) == 0 {
		return prior
	}
	out := make([]float32, len(prior))
	for i := range out {
		out[i] = (prior[i] + next[i]) / 2
	}
	return Normalize(out)
}

type dimErr struct {
	want, got int
}

func errDimension(want, got int) error {
	return &dimErr{want, got}
}

func (e *dimErr) Error() string {
	return "embedding dimension mismatch: want " + strconv.Itoa(e.want) + ", got " + strconv.Itoa(e.got)
}

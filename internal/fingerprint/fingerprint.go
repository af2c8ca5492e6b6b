// Package fingerprint computes the recursive content hash that keys the
// cache and drives invalidation: a prompt's fingerprint is built from its
// own text, the fingerprints of its imports, and the model/runtime
// parameters in effect, so any upstream change cascades downstream.
package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// versionTag is bumped to invalidate every cache entry at once when
// generation semantics change (system prompt format, parser updates, etc).
const versionTag = "lit-cache-v1\n"

// Import pairs an import's path with its own, already-computed fingerprint.
type Import struct {
	Path string
	Hash string
}

// Compute returns the hex-encoded SHA-256 fingerprint for a prompt given
// its raw content, its imports' fingerprints, and the effective model and
// language parameters. Import order does not affect the result.
func Compute(
	promptContent string,
	imports []Import,
	model string,
	temperature float64,
	seed *uint64,
	language string,
	framework *string,
) string {
	h := sha256.New()

	h.Write([]byte(versionTag))

	h.Write([]byte(promptContent))
	h.Write([]byte("\n---imports---\n"))

	sorted := append([]Import(nil), imports...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	for _, imp := range sorted {
		h.Write([]byte(imp.Path))
		h.Write([]byte(":"))
		h.Write([]byte(imp.Hash))
		h.Write([]byte("\n"))
	}

	h.Write([]byte("---model---\n"))
	h.Write([]byte(model))
	h.Write([]byte("\n"))
	fmt.Fprintf(h, "temp:%v\n", temperature)
	if seed != nil {
		fmt.Fprintf(h, "seed:%d\n", *seed)
	}

	h.Write([]byte("---lang---\n"))
	h.Write([]byte(language))
	h.Write([]byte("\n"))
	if framework != nil {
		h.Write([]byte(*framework))
		h.Write([]byte("\n"))
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}

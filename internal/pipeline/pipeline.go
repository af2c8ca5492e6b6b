// Package pipeline orchestrates a full run: it sweeps the DAG once in
// topological order, deciding per prompt whether to skip, serve from
// cache, or call the model provider, threading generated content forward
// as context for dependents, and producing an auditable Result.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/clintonboys/lit/internal/cache"
	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/dag"
	"github.com/clintonboys/lit/internal/errs"
	"github.com/clintonboys/lit/internal/fingerprint"
	"github.com/clintonboys/lit/internal/patch"
	"github.com/clintonboys/lit/internal/prompt"
	"github.com/clintonboys/lit/internal/provider"
	"github.com/clintonboys/lit/internal/sourcemap"
)

// GenerationOutput is the record of what happened for a single processed
// prompt during a run.
type GenerationOutput struct {
	PromptPath string
	Files      map[string]string
	TokensIn   uint64
	TokensOut  uint64
	DurationMs uint64
	Model      string
	FromCache  bool
	InputHash  string
}

// Result is the full outcome of one pipeline Run.
type Result struct {
	Outputs           []GenerationOutput
	TotalTokensIn     uint64
	TotalTokensOut    uint64
	TotalDurationMs   uint64
	Skipped           []string
	CacheHits         int
	CacheMisses       int
	PatchesApplied    int
	PatchesConflicted int
	Warnings          []string

	// Fingerprints holds every node's computed fingerprint (including
	// skipped nodes), keyed by prompt path, for introspection and debugging.
	// `lit patch save` does not use this field directly - it calls
	// ReconstructFromCache, which recomputes fingerprints independently so it
	// can run without a live Run (no provider required).
	Fingerprints map[string]string

	// GeneratedCode is the full threading map (disk-seeded outputs plus
	// everything produced or replayed from cache this run), keyed by
	// output path.
	GeneratedCode map[string]string
}

// Options configures a Run.
type Options struct {
	Cache    *cache.Cache // optional; nil disables caching
	Provider provider.Provider
	Config   *config.Config
}

// Run walks graph in topological order. regenerationSet restricts which
// prompts are actually (re)generated; all others are skipped and their
// previously known outputs (from existingCode) pass through untouched.
func Run(
	ctx context.Context,
	graph *dag.Dag,
	prompts map[string]*prompt.Prompt,
	regenerationSet []string,
	existingCode map[string]string,
	opts Options,
) (*Result, error) {
	generatedCode := make(map[string]string, len(existingCode))
	for k, v := range existingCode {
		generatedCode[k] = v
	}

	inSet := make(map[string]bool, len(regenerationSet))
	for _, p := range regenerationSet {
		inSet[p] = true
	}

	fingerprints := computeFingerprints(graph, prompts, opts.Config)
	result := &Result{Fingerprints: fingerprints}

	for _, path := range graph.Order() {
		node := graph.Get(path)
		p := prompts[path]

		model, temp, seed, language, framework := resolveModel(p, opts.Config)
		fp := fingerprints[path]

		if !inSet[path] {
			result.Skipped = append(result.Skipped, path)
			continue
		}

		if opts.Cache != nil {
			if entry, ok := opts.Cache.Get(fp); ok {
				for out, content := range entry.Files {
					generatedCode[out] = content
				}
				result.Outputs = append(result.Outputs, GenerationOutput{
					PromptPath: path,
					Files:      entry.Files,
					Model:      model,
					FromCache:  true,
					InputHash:  fp,
				})
				result.CacheHits++
				continue
			}
		}
		result.CacheMisses++

		contextStr := buildContext(node.Imports, prompts, generatedCode)
		systemPrompt := buildSystemPrompt(language, framework, p.Outputs)

		req := provider.Request{
			SystemPrompt: systemPrompt,
			Context:      contextStr,
			UserPrompt:   p.Body,
			Model:        model,
			Temperature:  temp,
			Seed:         seed,
		}

		start := time.Now()
		resp, err := opts.Provider.Generate(ctx, req)
		if err != nil {
			return nil, err
		}
		duration := time.Since(start)

		files, warnings, err := ParseResponse(path, resp.Content, p.Outputs)
		if err != nil {
			return nil, err
		}
		result.Warnings = append(result.Warnings, warnings...)

		for out, content := range files {
			generatedCode[out] = content
		}

		if opts.Cache != nil {
			entry := &cache.Entry{Fingerprint: fp, Files: files, TokensIn: resp.TokensIn, TokensOut: resp.TokensOut}
			if err := opts.Cache.Put(entry); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("cache write failed for %s: %v", path, err))
			}
		}

		result.Outputs = append(result.Outputs, GenerationOutput{
			PromptPath: path,
			Files:      files,
			TokensIn:   resp.TokensIn,
			TokensOut:  resp.TokensOut,
			DurationMs: uint64(duration.Milliseconds()),
			Model:      model,
			FromCache:  false,
			InputHash:  fp,
		})
		result.TotalTokensIn += resp.TokensIn
		result.TotalTokensOut += resp.TokensOut
		result.TotalDurationMs += uint64(duration.Milliseconds())
	}

	result.GeneratedCode = generatedCode
	return result, nil
}

// WriteStaticFiles writes every configured static file verbatim. These
// participate in no fingerprinting or caching and are written before the
// pipeline walk begins.
func WriteStaticFiles(repoRoot string, statics []config.StaticFile) error {
	for _, sf := range statics {
		full := filepath.Join(repoRoot, filepath.FromSlash(sf.Path))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return &errs.IOError{Op: "create static file dir", Path: full, Err: err}
		}
		if err := os.WriteFile(full, []byte(sf.Content), 0o644); err != nil {
			return &errs.IOError{Op: "write static file", Path: full, Err: err}
		}
	}
	return nil
}

// WriteOutputs writes every output produced this run to repoRoot. If
// patchStore holds a stored patch for an output path, the three-way merge
// is applied and the merged or conflict-marked content is written instead
// of the generated content verbatim. Patch counters on result are updated
// in place.
func WriteOutputs(repoRoot string, patchStore *patch.Store, result *Result) error {
	for _, gout := range result.Outputs {
		var paths []string
		for p := range gout.Files {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, outPath := range paths {
			content := gout.Files[outPath]

			if patchStore != nil {
				if sp, ok, err := patchStore.Load(outPath); err == nil && ok {
					res := patch.Apply(sp.OriginalContent, content, sp.ManualContent)
					content = res.Content
					if res.Conflict {
						result.PatchesConflicted++
					} else {
						result.PatchesApplied++
					}
				}
			}

			full := filepath.Join(repoRoot, filepath.FromSlash(outPath))
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return &errs.IOError{Op: "create output dir", Path: full, Err: err}
			}
			if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
				return &errs.IOError{Op: "write output", Path: full, Err: err}
			}

			if err := writeSourcemap(repoRoot, outPath, gout.PromptPath, content); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeSourcemap records a line-level mapping from outPath back to
// promptPath, per SPEC_FULL.md's audit-trail requirement that every
// written output is paired with a sourcemap. Every line of the written
// content is attributed sequentially to the prompt, since an LLM response
// carries no finer per-line provenance than "this whole file came from
// this prompt".
func writeSourcemap(repoRoot, outPath, promptPath, content string) error {
	lineCount := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") && content != "" {
		lineCount++
	}

	gen := sourcemap.NewGenerator(outPath, promptPath)
	gen.AddLines(lineCount, 0)

	data, err := gen.Generate()
	if err != nil {
		return err
	}

	full := filepath.Join(repoRoot, filepath.FromSlash(sourcemap.MapFilePath(outPath)))
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return &errs.IOError{Op: "write sourcemap", Path: full, Err: err}
	}
	return nil
}

// computeFingerprints computes every node's fingerprint in topological
// order, so each node's own fingerprint is available by the time its
// dependents need it for their own computation.
func computeFingerprints(graph *dag.Dag, prompts map[string]*prompt.Prompt, cfg *config.Config) map[string]string {
	fingerprints := make(map[string]string, graph.Len())
	for _, path := range graph.Order() {
		node := graph.Get(path)
		p := prompts[path]
		model, temp, seed, language, framework := resolveModel(p, cfg)

		var imports []fingerprint.Import
		for _, imp := range node.Imports {
			imports = append(imports, fingerprint.Import{Path: imp, Hash: fingerprints[imp]})
		}
		fingerprints[path] = fingerprint.Compute(p.Raw, imports, model, temp, seed, language, framework)
	}
	return fingerprints
}

// ReconstructFromCache rebuilds the "most recent model output" map per
// SPEC_FULL.md §4.6.4: it walks the DAG, recomputes every node's current
// fingerprint, and reads back whatever cache entries still exist for those
// fingerprints - with no provider call. Prompts whose current fingerprint
// has no matching cache entry (never generated, or evicted) are reported
// as warnings and simply contribute nothing to the returned map; callers
// fall back to an empty baseline for those paths.
func ReconstructFromCache(
	graph *dag.Dag,
	prompts map[string]*prompt.Prompt,
	cfg *config.Config,
	c *cache.Cache,
) (map[string]string, []string) {
	generated := make(map[string]string)

	if c == nil {
		var warnings []string
		for _, path := range graph.Order() {
			warnings = append(warnings, fmt.Sprintf("%s: no cache configured, cannot reconstruct a baseline", path))
		}
		return generated, warnings
	}

	fingerprints := computeFingerprints(graph, prompts, cfg)

	var warnings []string
	for _, path := range graph.Order() {
		entry, ok := c.Get(fingerprints[path])
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: no cache entry for its current fingerprint; run `lit regenerate` first", path))
			continue
		}
		for out, content := range entry.Files {
			generated[out] = content
		}
	}
	return generated, warnings
}

func resolveModel(p *prompt.Prompt, cfg *config.Config) (model string, temperature float64, seed *uint64, language string, framework *string) {
	model = cfg.Model.Model
	temperature = cfg.Model.Temperature
	seed = cfg.Model.Seed
	language = cfg.Language.Default
	if cfg.Framework != nil {
		framework = &cfg.Framework.Name
	}

	if p.Model != nil {
		if p.Model.Model != "" {
			model = p.Model.Model
		}
		temperature = p.Model.Temperature
		seed = p.Model.Seed
	}
	if p.Language != nil {
		language = *p.Language
	}
	return
}

func buildContext(imports []string, prompts map[string]*prompt.Prompt, generatedCode map[string]string) string {
	var blocks []string
	for _, imp := range imports {
		ip, ok := prompts[imp]
		if !ok {
			continue
		}
		for _, out := range ip.Outputs {
			content, ok := generatedCode[out]
			if !ok {
				continue
			}
			blocks = append(blocks, fmt.Sprintf("### %s\n```\n%s\n```", out, content))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func buildSystemPrompt(language string, framework *string, outputs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are generating %s code", language)
	if framework != nil {
		fmt.Fprintf(&b, " using the %s framework", *framework)
	}
	b.WriteString(".\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Output only the requested files, nothing else.\n")
	b.WriteString("- Do not wrap file contents in markdown code fences.\n")
	b.WriteString("- Use EXACT file paths as declared below, byte for byte.\n\n")
	b.WriteString("Declared outputs:\n")
	for _, o := range outputs {
		fmt.Fprintf(&b, "- %s\n", o)
	}
	b.WriteString("\nEmit each file prefixed by its own delimiter line, and nothing else on that line:\n")
	b.WriteString("=== FILE: <path> ===\n")
	return b.String()
}

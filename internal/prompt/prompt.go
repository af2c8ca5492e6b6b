// Package prompt parses prompt files: a TOML frontmatter header declaring
// outputs, imports, and optional per-prompt overrides, followed by a
// free-form body describing what to generate.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/clintonboys/lit/internal/errs"
)

// promptSuffix is the on-disk suffix that identifies a prompt file.
const promptSuffix = ".prompt.md"

// ModelOverride is a per-prompt override of the project's default model
// configuration.
type ModelOverride struct {
	Provider    string
	Model       string
	Temperature float64
	Seed        *uint64
}

// Prompt is a single parsed prompt file.
type Prompt struct {
	// Path is relative to the repository root.
	Path string

	// Outputs is the ordered sequence of declared output paths.
	Outputs []string

	// Imports is the sequence of imported prompt paths, in header order.
	Imports []string

	// Model is the per-prompt model override, if declared.
	Model *ModelOverride

	// Language is the per-prompt language override, if declared.
	Language *string

	// Raw is the full raw source text (header + body).
	Raw string

	// Body is the free-form text after the closing header delimiter.
	Body string

	// Warnings are non-fatal issues discovered while parsing (e.g. a body
	// @import() reference absent from the header's imports list).
	Warnings []string
}

type rawModel struct {
	Provider    string   `toml:"provider"`
	Model       string   `toml:"model"`
	Temperature *float64 `toml:"temperature"`
	Seed        *uint64  `toml:"seed"`
}

type rawFrontmatter struct {
	Outputs  []string  `toml:"outputs"`
	Imports  []string  `toml:"imports"`
	Model    *rawModel `toml:"model"`
	Language *string   `toml:"language"`
}

var bodyImportRe = regexp.MustCompile(`@import\(([^)]+)\)`)

// IsPromptFile reports whether name has the prompt-file suffix.
func IsPromptFile(name string) bool {
	return strings.HasSuffix(name, promptSuffix)
}

// DiscoverPrompts walks root recursively and returns every prompt file path
// (relative to root), sorted lexicographically for determinism.
func DiscoverPrompts(root string) ([]string, error) {
	var found []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !IsPromptFile(info.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		found = append(found, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &errs.IOError{Op: "discover prompts", Path: root, Err: err}
	}
	sort.Strings(found)
	return found, nil
}

// ParseFile reads and parses the prompt file at path (relative to repoRoot).
// mappingMode is the project's configured mapping mode ("direct", "manifest",
// "modular", or "inferred"); only "manifest" requires a non-empty Outputs.
func ParseFile(repoRoot, relPath, mappingMode string) (*Prompt, error) {
	full := filepath.Join(repoRoot, filepath.FromSlash(relPath))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, &errs.IOError{Op: "read prompt", Path: full, Err: err}
	}
	return Parse(relPath, string(data), mappingMode)
}

// Parse parses raw prompt text already read from disk. path is used only
// for error messages and to populate Prompt.Path.
func Parse(path, raw, mappingMode string) (*Prompt, error) {
	header, body, err := splitFrontmatter(path, raw)
	if err != nil {
		return nil, err
	}

	var fm rawFrontmatter
	if _, err := toml.Decode(header, &fm); err != nil {
		return nil, &errs.HeaderMalformed{Path: path, Reason: err.Error()}
	}

	if mappingMode == "manifest" && len(fm.Outputs) == 0 {
		return nil, &errs.NoOutputsInManifestMode{Path: path}
	}

	for _, imp := range fm.Imports {
		if filepath.Ext(imp) != ".md" {
			return nil, &errs.InvalidImportExtension{Path: path, Import: imp}
		}
	}

	p := &Prompt{
		Path:    path,
		Outputs: fm.Outputs,
		Imports: fm.Imports,
		Raw:     raw,
		Body:    body,
	}
	if fm.Language != nil {
		p.Language = fm.Language
	}
	if fm.Model != nil {
		temp := 0.0
		if fm.Model.Temperature != nil {
			temp = *fm.Model.Temperature
		}
		p.Model = &ModelOverride{
			Provider:    fm.Model.Provider,
			Model:       fm.Model.Model,
			Temperature: temp,
			Seed:        fm.Model.Seed,
		}
	}

	p.Warnings = bodyImportWarnings(path, body, fm.Imports)

	return p, nil
}

// BodyImports returns the set of @import(<path>) references found in body,
// in order of first appearance.
func BodyImports(body string) []string {
	matches := bodyImportRe.FindAllStringSubmatch(body, -1)
	var out []string
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

func bodyImportWarnings(path, body string, headerImports []string) []string {
	declared := make(map[string]bool, len(headerImports))
	for _, imp := range headerImports {
		declared[imp] = true
	}
	var warnings []string
	for _, ref := range BodyImports(body) {
		if !declared[ref] {
			warnings = append(warnings, fmt.Sprintf(
				"%s: body references @import(%s) which is not declared in the header's imports",
				path, ref,
			))
		}
	}
	return warnings
}

// splitFrontmatter splits raw into the header payload (the text between the
// opening and closing "---" delimiter lines) and the body (everything after
// the closing delimiter line, byte-for-byte).
func splitFrontmatter(path, raw string) (header, body string, err error) {
	trimmed := strings.TrimLeft(raw, " \t\r\n")
	if !strings.HasPrefix(trimmed, "---") {
		return "", "", &errs.HeaderMissing{Path: path}
	}

	firstLineEnd := strings.IndexByte(trimmed, '\n')
	if firstLineEnd == -1 {
		return "", "", &errs.HeaderUnterminated{Path: path}
	}
	afterOpen := trimmed[firstLineEnd+1:]

	var payload string
	var closerLineStart int
	if strings.HasPrefix(afterOpen, "---") {
		payload = ""
		closerLineStart = 0
	} else {
		idx := strings.Index(afterOpen, "\n---")
		if idx == -1 {
			return "", "", &errs.HeaderUnterminated{Path: path}
		}
		payload = afterOpen[:idx]
		closerLineStart = idx + 1
	}

	rest := afterOpen[closerLineStart:] // starts with "---"
	closerLineEnd := strings.IndexByte(rest, '\n')
	var afterCloserLine string
	if closerLineEnd == -1 {
		afterCloserLine = ""
	} else {
		afterCloserLine = rest[closerLineEnd+1:]
	}

	return payload, afterCloserLine, nil
}

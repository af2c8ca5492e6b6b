// Package diagnostics renders rustc-style error messages with source
// snippets: a header line, a few lines of source around the fault with a
// caret underline, and an optional suggestion. Adapted from the teacher's
// EnhancedError, but driven by prompt-file paths and line numbers instead
// of go/token positions, since prompt files have no Go AST.
package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/clintonboys/lit/internal/errs"
)

// contextLines is how many lines of source to show before and after the
// faulting line.
const contextLines = 2

// Diagnostic is a single renderable error report.
type Diagnostic struct {
	Message string
	Path    string
	Line    int // 1-indexed; 0 means unknown
	Column  int // 1-indexed; 0 means unknown
	Length  int // underline length

	SourceLines   []string
	HighlightLine int // index into SourceLines

	Annotation string
	Suggestion string
}

// sourceCache bounds how many prompt files' contents are kept resident,
// exactly as the teacher's error renderer bounds its own cache for
// long-running processes.
var (
	sourceCacheMu    sync.RWMutex
	sourceCache      = make(map[string][]string)
	sourceCacheKeys  = make([]string, 0, sourceCacheLimit)
	sourceCacheLimit = 100
)

// New builds a Diagnostic for path, reading fullPath from disk to extract
// a source snippet around line (1-indexed). line may be 0 if unknown.
func New(fullPath, displayPath string, line, column int, message string) *Diagnostic {
	d := &Diagnostic{
		Message: message,
		Path:    displayPath,
		Line:    line,
		Column:  column,
		Length:  1,
	}
	if line > 0 {
		lines, highlight, err := extractSourceLines(fullPath, line, contextLines)
		if err == nil {
			d.SourceLines = lines
			d.HighlightLine = highlight
		} else {
			d.Annotation = fmt.Sprintf("(source unavailable: %v)", err)
		}
	}
	return d
}

// WithAnnotation sets the text shown after the caret underline.
func (d *Diagnostic) WithAnnotation(annotation string) *Diagnostic {
	d.Annotation = annotation
	return d
}

// WithSuggestion sets a multi-line suggestion block shown after the snippet.
func (d *Diagnostic) WithSuggestion(suggestion string) *Diagnostic {
	d.Suggestion = suggestion
	return d
}

// Format renders the diagnostic, rustc-style.
func (d *Diagnostic) Format() string {
	var b strings.Builder

	if d.Line > 0 {
		fmt.Fprintf(&b, "error: %s\n  --> %s:%d:%d\n\n", d.Message, d.Path, d.Line, d.Column)
	} else {
		fmt.Fprintf(&b, "error: %s\n  --> %s\n\n", d.Message, d.Path)
	}

	if len(d.SourceLines) > 0 {
		startLine := d.Line - d.HighlightLine
		for i, line := range d.SourceLines {
			lineNum := startLine + i
			fmt.Fprintf(&b, "  %4d | %s\n", lineNum, line)
			if i == d.HighlightLine {
				indent := d.Column - 1
				if indent < 0 {
					indent = 0
				}
				if indent > len(line) {
					indent = len(line)
				}
				caretLen := d.Length
				if caretLen < 1 {
					caretLen = 1
				}
				fmt.Fprintf(&b, "       | %s%s", strings.Repeat(" ", indent), strings.Repeat("^", caretLen))
				if d.Annotation != "" {
					fmt.Fprintf(&b, " %s", d.Annotation)
				}
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	} else if d.Annotation != "" {
		fmt.Fprintf(&b, "note: %s\n\n", d.Annotation)
	}

	if d.Suggestion != "" {
		fmt.Fprintf(&b, "suggestion: %s\n", d.Suggestion)
	}

	return b.String()
}

// Error implements the error interface, so a Diagnostic can itself be
// returned and printed anywhere a plain error is expected.
func (d *Diagnostic) Error() string { return d.Format() }

var tomlLineRe = regexp.MustCompile(`line (\d+)`)

// FromError builds a Diagnostic from one of lit's typed errors, reading
// the offending prompt file from repoRoot to produce a source snippet. Errors it doesn't recognize are rendered with just the message.
func FromError(repoRoot string, err error) *Diagnostic {
	switch e := err.(type) {
	case *errs.HeaderMissing:
		return New(filepath.Join(repoRoot, e.Path), e.Path, 1, 1, "missing frontmatter header").
			WithAnnotation("prompt files must start with a \"---\" delimiter line")
	case *errs.HeaderUnterminated:
		return New(filepath.Join(repoRoot, e.Path), e.Path, 1, 1, "unterminated frontmatter header").
			WithAnnotation("expected a closing \"---\" delimiter line")
	case *errs.HeaderMalformed:
		line := 1
		if m := tomlLineRe.FindStringSubmatch(e.Reason); m != nil {
			if n, convErr := strconv.Atoi(m[1]); convErr == nil {
				line = n
			}
		}
		return New(filepath.Join(repoRoot, e.Path), e.Path, line, 1, "malformed frontmatter").
			WithAnnotation(e.Reason)
	case *errs.InvalidImportExtension:
		return New(filepath.Join(repoRoot, e.Path), e.Path, 0, 0,
			fmt.Sprintf("invalid import %q", e.Import)).
			WithAnnotation("imports must reference a .prompt.md file")
	case *errs.NoOutputsInManifestMode:
		return New(filepath.Join(repoRoot, e.Path), e.Path, 0, 0,
			"no outputs declared").
			WithAnnotation("manifest mode requires at least one entry in outputs")
	case *errs.MissingImports:
		return (&Diagnostic{Message: fmt.Sprintf("missing imports: %s", strings.Join(e.Pairs, "; "))})
	case *errs.OutputConflicts:
		var parts []string
		for out, claimants := range e.Conflicts {
			parts = append(parts, fmt.Sprintf("%s claimed by %s", out, strings.Join(claimants, ", ")))
		}
		return &Diagnostic{Message: fmt.Sprintf("output conflicts: %s", strings.Join(parts, "; "))}
	case *errs.Cycle:
		return &Diagnostic{Message: fmt.Sprintf("import cycle: %s", strings.Join(e.Path, " -> "))}
	case *errs.ParseError:
		d := &Diagnostic{Message: fmt.Sprintf("%s: %s", e.PromptPath, e.Reason)}
		if e.Preamble != "" {
			d.Annotation = fmt.Sprintf("response began: %q", e.Preamble)
		}
		return d
	default:
		return &Diagnostic{Message: err.Error()}
	}
}

func extractSourceLines(filename string, targetLine, context int) ([]string, int, error) {
	sourceCacheMu.RLock()
	allLines, cached := sourceCache[filename]
	sourceCacheMu.RUnlock()

	if cached {
		// A hit makes the entry the most recently used one.
		sourceCacheMu.Lock()
		addToSourceCache(filename, allLines)
		sourceCacheMu.Unlock()
	}
	if !cached {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, 0, fmt.Errorf("cannot read file: %w", err)
		}
		normalized := strings.ReplaceAll(string(data), "\r\n", "\n")
		allLines = strings.Split(normalized, "\n")
		if len(allLines) > 0 && allLines[len(allLines)-1] == "" {
			allLines = allLines[:len(allLines)-1]
		}
		sourceCacheMu.Lock()
		addToSourceCache(filename, allLines)
		sourceCacheMu.Unlock()
	}

	targetIdx := targetLine - 1
	if targetIdx < 0 || targetIdx >= len(allLines) {
		return nil, 0, fmt.Errorf("line %d out of range (1-%d)", targetLine, len(allLines))
	}

	start := targetIdx - context
	if start < 0 {
		start = 0
	}
	end := targetIdx + context + 1
	if end > len(allLines) {
		end = len(allLines)
	}
	return allLines[start:end], targetIdx - start, nil
}

// addToSourceCache adds filename's lines to the cache, evicting the
// least-recently-used entry once sourceCacheLimit is exceeded. Callers
// must hold sourceCacheMu for writing.
func addToSourceCache(filename string, lines []string) {
	for i, key := range sourceCacheKeys {
		if key == filename {
			sourceCacheKeys = append(sourceCacheKeys[:i], sourceCacheKeys[i+1:]...)
			sourceCacheKeys = append(sourceCacheKeys, filename)
			sourceCache[filename] = lines
			return
		}
	}
	if len(sourceCacheKeys) >= sourceCacheLimit {
		oldest := sourceCacheKeys[0]
		delete(sourceCache, oldest)
		sourceCacheKeys = sourceCacheKeys[1:]
	}
	sourceCacheKeys = append(sourceCacheKeys, filename)
	sourceCache[filename] = lines
}

// ClearSourceCache empties the cache; exposed for long-running processes
// (and tests) that want a clean slate.
func ClearSourceCache() {
	sourceCacheMu.Lock()
	defer sourceCacheMu.Unlock()
	sourceCache = make(map[string][]string)
	sourceCacheKeys = make([]string, 0, sourceCacheLimit)
}

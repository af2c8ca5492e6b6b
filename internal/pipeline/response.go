package pipeline

import (
	"fmt"
	"strings"

	"github.com/clintonboys/lit/internal/errs"
)

const fileDelimiter = "=== FILE:"

// section is one parsed `=== FILE: path ===` block from a model response.
type section struct {
	path    string
	content string
}

// ParseResponse extracts the declared output files from a raw model
// response, per the delimiter protocol set out in the system prompt
// (buildSystemPrompt): each file is prefixed by its own `=== FILE: path
// ===` line.
//
// If no delimiters are present and exactly one output was expected, the
// entire response is treated as that output's content. If delimiters are
// present but their paths don't match the declared outputs, and the
// section count equals the declared-output count, sections are remapped
// to declared outputs by position (with a warning) rather than failing
// the run. Any declared output still missing from the result after that
// produces a non-fatal warning, not an error.
func ParseResponse(promptPath, content string, expectedOutputs []string) (map[string]string, []string, error) {
	sections, err := splitSections(content)
	if err != nil {
		return nil, nil, err
	}

	if len(sections) == 0 {
		if len(expectedOutputs) == 1 {
			return map[string]string{expectedOutputs[0]: normalizeSection(content)}, nil, nil
		}
		return nil, nil, parseErrorFor(promptPath, content, expectedOutputs)
	}

	allDeclared := true
	for _, s := range sections {
		if !contains(expectedOutputs, s.path) {
			allDeclared = false
			break
		}
	}

	var warnings []string
	files := make(map[string]string, len(sections))
	if !allDeclared && len(sections) == len(expectedOutputs) {
		for i, s := range sections {
			target := expectedOutputs[i]
			files[target] = s.content
			warnings = append(warnings, fmt.Sprintf(
				"%s: remapped response section %q to declared output %q by position", promptPath, s.path, target))
		}
	} else {
		for _, s := range sections {
			files[s.path] = s.content
		}
	}

	for _, o := range expectedOutputs {
		if _, ok := files[o]; !ok {
			warnings = append(warnings, fmt.Sprintf(
				"%s: declared output %q was not present in the model response", promptPath, o))
		}
	}

	return files, warnings, nil
}

func parseErrorFor(promptPath, content string, expectedOutputs []string) error {
	preamble := content
	if len(preamble) > 200 {
		preamble = preamble[:200]
	}
	return &errs.ParseError{
		PromptPath: promptPath,
		Reason:     fmt.Sprintf("no file delimiters found but %d output(s) declared", len(expectedOutputs)),
		Preamble:   preamble,
	}
}

// splitSections scans content for `=== FILE: path ===` delimiter lines and
// returns the blocks between them. Delimiter lines with an empty path are
// skipped. Returns no sections (not an error) if the delimiter never
// appears.
func splitSections(content string) ([]section, error) {
	var sections []section

	first := strings.Index(content, fileDelimiter)
	if first == -1 {
		return nil, nil
	}

	remaining := content[first:]
	for len(remaining) > 0 {
		remaining = remaining[len(fileDelimiter):]

		var headerLine, afterHeader string
		if nl := strings.IndexByte(remaining, '\n'); nl == -1 {
			headerLine, afterHeader = remaining, ""
		} else {
			headerLine, afterHeader = remaining[:nl], remaining[nl+1:]
		}

		path := strings.TrimSpace(headerLine)
		path = strings.TrimSuffix(path, "===")
		path = strings.TrimSpace(path)

		var raw string
		if next := strings.Index(afterHeader, fileDelimiter); next == -1 {
			raw, remaining = afterHeader, ""
		} else {
			raw, remaining = afterHeader[:next], afterHeader[next:]
		}

		if path != "" {
			sections = append(sections, section{path: path, content: normalizeSection(raw)})
		}
	}

	return sections, nil
}

func normalizeSection(raw string) string {
	trimmed := strings.Trim(raw, "\n")
	stripped := stripMarkdownFences(trimmed)
	return ensureTrailingNewline(stripped)
}

// stripMarkdownFences removes a single leading and/or trailing ``` fence
// line, in case the model ignored the no-fences instruction.
func stripMarkdownFences(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) == 0 {
		return s
	}

	start, end := 0, len(lines)
	if strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		start = 1
	}
	if end > start && strings.HasPrefix(strings.TrimSpace(lines[end-1]), "```") {
		end--
	}
	if start == 0 && end == len(lines) {
		return s
	}
	return strings.Join(lines[start:end], "\n")
}

func ensureTrailingNewline(s string) string {
	if s == "" {
		return "\n"
	}
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

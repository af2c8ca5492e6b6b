// Package sourcemap writes a diagnostic-only, line-level Source Map v3
// file alongside each generated output, mapping output lines back to the
// prompt that produced them. It participates in no fingerprinting or
// caching; its only consumer is `lit debug map`.
package sourcemap

import (
	"encoding/json"

	gosourcemap "github.com/go-sourcemap/sourcemap"

	"github.com/clintonboys/lit/internal/errs"
)

const mapSuffix = ".lit-map.json"

// MapFilePath returns the sourcemap path for a generated output path.
func MapFilePath(outputPath string) string {
	return outputPath + mapSuffix
}

// Generator builds a line-level Source Map v3 document for a single
// output file, recording which prompt line produced each output line.
type Generator struct {
	outputPath string
	promptPath string
	// genToSource[i] is the source line (0-based) that produced output
	// line i (0-based), in the order lines were added.
	genToSource []int
}

// NewGenerator starts a sourcemap for outputPath, attributing every line
// to promptPath unless overridden per-line via AddLine.
func NewGenerator(outputPath, promptPath string) *Generator {
	return &Generator{outputPath: outputPath, promptPath: promptPath}
}

// AddLine records that the next generated line corresponds to sourceLine
// (0-based) in the prompt.
func (g *Generator) AddLine(sourceLine int) {
	g.genToSource = append(g.genToSource, sourceLine)
}

// AddLines is a convenience for attributing n sequential output lines to
// n sequential source lines starting at startSourceLine.
func (g *Generator) AddLines(n, startSourceLine int) {
	for i := 0; i < n; i++ {
		g.AddLine(startSourceLine + i)
	}
}

// v3Document is the standard Source Map v3 JSON shape.
type v3Document struct {
	Version  int      `json:"version"`
	File     string   `json:"file"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

// Generate renders the Source Map v3 JSON document for the lines recorded
// so far, with real base64-VLQ encoded mappings.
func (g *Generator) Generate() ([]byte, error) {
	doc := v3Document{
		Version: 3,
		File:    g.outputPath,
		Sources: []string{g.promptPath},
		Names:   []string{},
		Mappings: encodeMappings(g.genToSource),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &errs.IOError{Op: "serialize sourcemap", Path: g.outputPath, Err: err}
	}
	return data, nil
}

// encodeMappings renders one mapping group per generated line: a single
// segment [genColumn=0, sourceIndex=0, sourceLine, sourceColumn=0], each
// group delta-encoded against the previous line's values, per the Source
// Map v3 spec.
func encodeMappings(genToSource []int) string {
	var out []byte
	prevSourceLine := 0
	for i, sourceLine := range genToSource {
		if i > 0 {
			out = append(out, ';')
		}
		// genColumn delta (always 0), sourceIndex delta (always 0 - one
		// source per file), sourceLine delta, sourceColumn delta (always 0).
		out = append(out, encodeVLQ(0)...)
		out = append(out, encodeVLQ(0)...)
		out = append(out, encodeVLQ(sourceLine-prevSourceLine)...)
		out = append(out, encodeVLQ(0)...)
		prevSourceLine = sourceLine
	}
	return string(out)
}

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// encodeVLQ base64-VLQ encodes a single signed integer per the Source Map
// v3 spec: the sign occupies the low bit (zig-zag), 5 data bits per
// character, a 6th continuation bit set on every character but the last.
func encodeVLQ(value int) []byte {
	var vlq int
	if value < 0 {
		vlq = ((-value) << 1) | 1
	} else {
		vlq = value << 1
	}

	var out []byte
	for {
		digit := vlq & 0x1f
		vlq >>= 5
		if vlq > 0 {
			digit |= 0x20
		}
		out = append(out, base64Chars[digit])
		if vlq == 0 {
			break
		}
	}
	return out
}

// Consumer reads back a sourcemap generated by Generator.
type Consumer struct {
	sm *gosourcemap.Consumer
}

// Parse loads a sourcemap document.
func Parse(outputPath string, data []byte) (*Consumer, error) {
	sm, err := gosourcemap.Parse(outputPath, data)
	if err != nil {
		return nil, &errs.IOError{Op: "parse sourcemap", Path: outputPath, Err: err}
	}
	return &Consumer{sm: sm}, nil
}

// SourceLine answers: which prompt, and which line of it, produced output
// line genLine (0-based)?
func (c *Consumer) SourceLine(genLine int) (promptPath string, sourceLine int, ok bool) {
	file, _, line, _, found := c.sm.Source(genLine, 0)
	if !found {
		return "", 0, false
	}
	return file, line, true
}

// Package patch is the escape hatch for hand-edits: it detects manual
// changes to generated files, persists them alongside the model's
// baseline output, and replays them over freshly regenerated output with
// a three-way merge, falling back to conflict markers when the user's
// edits and the model's edits touch overlapping lines.
package patch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/clintonboys/lit/internal/errs"
)

const patchSuffix = ".patch"

// StoredPatch is the persisted record of a three-way-merge baseline plus
// the user's manual edits.
type StoredPatch struct {
	OriginalContent string `json:"original_content"`
	ManualContent   string `json:"manual_content"`
	Diff            string `json:"diff"`
}

// Info describes a detected difference between the model's most recent
// output and what is actually on disk for one output path.
type Info struct {
	OutputPath   string
	Diff         string
	LinesAdded   int
	LinesRemoved int
}

// Store persists StoredPatch records, one file per output path, under dir.
type Store struct {
	dir string
}

// NewStore returns a Store backed by dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) patchFilePath(outputPath string) string {
	return filepath.Join(s.dir, filepath.FromSlash(outputPath)+patchSuffix)
}

// DetectPatches compares generated (the model's most recent output per
// path) against actual (current on-disk content per path) and returns one
// Info per path whose contents differ, sorted by output path.
func DetectPatches(generated, actual map[string]string) []Info {
	var paths []string
	for path := range generated {
		if _, ok := actual[path]; ok {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	var infos []Info
	for _, path := range paths {
		gen, act := generated[path], actual[path]
		if gen == act {
			continue
		}
		diffText, added, removed := unifiedDiff(path, gen, act)
		infos = append(infos, Info{
			OutputPath:   path,
			Diff:         diffText,
			LinesAdded:   added,
			LinesRemoved: removed,
		})
	}
	return infos
}

func unifiedDiff(path, from, to string) (text string, added, removed int) {
	// difflib writes each line as given, so every line needs its own "\n".
	fromLines, toLines := splitLines(from), splitLines(to)
	for i := range fromLines {
		fromLines[i] += "\n"
	}
	for i := range toLines {
		toLines[i] += "\n"
	}
	ud := difflib.UnifiedDiff{
		A:        fromLines,
		B:        toLines,
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}
	out, _ := difflib.GetUnifiedDiffString(ud)

	sm := difflib.NewMatcher(splitLines(from), splitLines(to))
	for _, op := range sm.GetOpCodes() {
		switch op.Tag {
		case 'i':
			added += op.J2 - op.J1
		case 'd':
			removed += op.I2 - op.I1
		case 'r':
			added += op.J2 - op.J1
			removed += op.I2 - op.I1
		}
	}
	return out, added, removed
}

// Save persists a StoredPatch for outputPath with the given original
// (model-generated baseline) and manual (user-edited) content.
func (s *Store) Save(outputPath, original, manual string) error {
	diffText, _, _ := unifiedDiff(outputPath, original, manual)
	sp := StoredPatch{
		OriginalContent: original,
		ManualContent:   manual,
		Diff:            diffText,
	}
	data, err := json.MarshalIndent(sp, "", "  ")
	if err != nil {
		return &errs.IOError{Op: "serialize patch", Path: outputPath, Err: err}
	}
	path := s.patchFilePath(outputPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &errs.IOError{Op: "create patch dir", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &errs.IOError{Op: "write patch", Path: path, Err: err}
	}
	return nil
}

// Load reads the stored patch for outputPath, if one exists.
func (s *Store) Load(outputPath string) (*StoredPatch, bool, error) {
	path := s.patchFilePath(outputPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, &errs.IOError{Op: "read patch", Path: path, Err: err}
	}
	var sp StoredPatch
	if err := json.Unmarshal(data, &sp); err != nil {
		return nil, false, &errs.IOError{Op: "parse patch", Path: path, Err: err}
	}
	return &sp, true, nil
}

// HasPatch reports whether a stored patch exists for outputPath.
func (s *Store) HasPatch(outputPath string) bool {
	_, err := os.Stat(s.patchFilePath(outputPath))
	return err == nil
}

// List returns every output path with a stored patch, sorted.
func (s *Store) List() ([]string, error) {
	var paths []string
	err := filepath.Walk(s.dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(p, patchSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		rel = strings.TrimSuffix(filepath.ToSlash(rel), patchSuffix)
		paths = append(paths, rel)
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, &errs.IOError{Op: "list patches", Path: s.dir, Err: err}
	}
	sort.Strings(paths)
	return paths, nil
}

// Drop removes the stored patch for outputPath, then cleans up any parent
// directories left empty.
func (s *Store) Drop(outputPath string) error {
	path := s.patchFilePath(outputPath)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &errs.IOError{Op: "drop patch", Path: path, Err: err}
	}
	cleanupEmptyDirs(filepath.Dir(path), s.dir)
	return nil
}

func cleanupEmptyDirs(dir, stopAt string) {
	for {
		if dir == stopAt || dir == "." || dir == string(filepath.Separator) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func ensureTrailingNewline(s string) string {
	if s == "" {
		return "\n"
	}
	if !strings.HasSuffix(s, "\n") {
		return s + "\n"
	}
	return s
}

// lineRange is a half-open [Start, End) range of line indices into the
// original text touched by a single-sided edit.
type lineRange struct {
	Start, End int
}

func overlaps(a, b lineRange) bool {
	return a.Start < b.End && b.Start < a.End
}

// changeRanges returns the line ranges in a touched by a -> b, fusing each
// maximal run of non-equal opcodes (matching how a standard line-level LCS
// diff naturally coalesces consecutive insertions/deletions).
func changeRanges(a, b []string) []lineRange {
	sm := difflib.NewMatcher(a, b)
	var ranges []lineRange
	for _, op := range sm.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		ranges = append(ranges, lineRange{Start: op.I1, End: op.I2})
	}
	return ranges
}

type edit struct {
	Start, End int
	Lines      []string
	source     string
}

// Result is the outcome of a three-way merge replay.
type Result struct {
	Conflict bool
	Content  string
}

// Apply replays a stored patch over fresh model output: original is the
// stored baseline, new is the fresh regeneration, manual is the stored
// user edits.
func Apply(original, new, manual string) Result {
	if original == new {
		return Result{Content: ensureTrailingNewline(manual)}
	}

	origLines := splitLines(original)
	manualLines := splitLines(manual)
	newLines := splitLines(new)

	userRanges := changeRanges(origLines, manualLines)
	modelRanges := changeRanges(origLines, newLines)

	for _, u := range userRanges {
		for _, m := range modelRanges {
			if overlaps(u, m) {
				return Result{
					Conflict: true,
					Content: "<<<<<<< manual-patch\n" + ensureTrailingNewline(manual) +
						"=======\n" + ensureTrailingNewline(new) + ">>>>>>> generated\n",
				}
			}
		}
	}

	merged := mergeNonConflicting(origLines, manualLines, newLines)
	return Result{Content: ensureTrailingNewline(strings.Join(merged, "\n"))}
}

// mergeNonConflicting line-walks origLines, replacing each range touched by
// exactly one side's edits with that side's replacement lines, and passing
// through lines neither side touched.
func mergeNonConflicting(origLines, manualLines, newLines []string) []string {
	var edits []edit

	sm := difflib.NewMatcher(origLines, manualLines)
	for _, op := range sm.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		edits = append(edits, edit{Start: op.I1, End: op.I2, Lines: manualLines[op.J1:op.J2], source: "user"})
	}

	sm2 := difflib.NewMatcher(origLines, newLines)
	for _, op := range sm2.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		edits = append(edits, edit{Start: op.I1, End: op.I2, Lines: newLines[op.J1:op.J2], source: "model"})
	}

	sort.Slice(edits, func(i, j int) bool {
		if edits[i].Start != edits[j].Start {
			return edits[i].Start < edits[j].Start
		}
		return edits[i].End < edits[j].End
	})

	var result []string
	i, ei := 0, 0
	n := len(origLines)
	for i < n || ei < len(edits) {
		if ei < len(edits) && edits[ei].Start <= i {
			e := edits[ei]
			result = append(result, e.Lines...)
			if e.End > i {
				i = e.End
			}
			ei++
			continue
		}
		if i < n {
			result = append(result, origLines[i])
			i++
			continue
		}
		break
	}
	return result
}

// Sprint renders an Info for display (used by `lit diff` style commands).
func (i Info) Sprint() string {
	return fmt.Sprintf("%s (+%d/-%d)\n%s", i.OutputPath, i.LinesAdded, i.LinesRemoved, i.Diff)
}

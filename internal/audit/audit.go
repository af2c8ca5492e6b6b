// Package audit persists the per-run GenerationRecord: what was generated,
// how much it cost, and what was cached, skipped, or conflicted. Records
// back `lit cost` and provide the system's audit trail.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/errs"
)

// PromptRecord is the per-prompt metadata for a single run.
type PromptRecord struct {
	PromptPath  string   `json:"prompt_path"`
	OutputFiles []string `json:"output_files"`
	InputHash   string   `json:"input_hash"`
	FromCache   bool     `json:"from_cache"`
	TokensIn    uint64   `json:"tokens_in"`
	TokensOut   uint64   `json:"tokens_out"`
	DurationMs  uint64   `json:"duration_ms"`
	Model       string   `json:"model"`
	CostUSD     float64  `json:"cost_usd"`
}

// Summary is the aggregate statistics for a run.
type Summary struct {
	TotalPrompts      int     `json:"total_prompts"`
	CacheHits         int     `json:"cache_hits"`
	CacheMisses       int     `json:"cache_misses"`
	Skipped           int     `json:"skipped"`
	TotalTokensIn     uint64  `json:"total_tokens_in"`
	TotalTokensOut    uint64  `json:"total_tokens_out"`
	TotalCostUSD      float64 `json:"total_cost_usd"`
	TotalDurationMs   uint64  `json:"total_duration_ms"`
	TotalFilesWritten int     `json:"total_files_written"`
	PatchesApplied    int     `json:"patches_applied"`
	PatchesConflicted int     `json:"patches_conflicted"`
}

// Record is the full metadata for one `lit regenerate` run, stored as
// JSON at <state-root>/generations/<timestamp>.json.
type Record struct {
	Timestamp time.Time      `json:"timestamp"`
	Project   string         `json:"project"`
	Model     string         `json:"model"`
	Temp      float64        `json:"temperature"`
	Seed      *uint64        `json:"seed,omitempty"`
	Language  string         `json:"language"`
	Framework string         `json:"framework,omitempty"`
	Prompts   []PromptRecord `json:"prompts"`
	Summary   Summary        `json:"summary"`
}

// Write serializes the record to <generationsDir>/<timestamp>.json.
func (r *Record) Write(generationsDir string) error {
	if err := os.MkdirAll(generationsDir, 0o755); err != nil {
		return &errs.IOError{Op: "create generations dir", Path: generationsDir, Err: err}
	}
	filename := r.Timestamp.UTC().Format("20060102-150405") + ".json"
	path := filepath.Join(generationsDir, filename)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return &errs.IOError{Op: "serialize generation record", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &errs.IOError{Op: "write generation record", Path: path, Err: err}
	}
	return nil
}

// Read deserializes a single generation record from path.
func Read(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.IOError{Op: "read generation record", Path: path, Err: err}
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &errs.IOError{Op: "parse generation record", Path: path, Err: err}
	}
	return &r, nil
}

// List returns every generation record in dir, sorted newest-timestamp
// first. Malformed records are skipped (not an error for the caller).
func List(dir string) ([]*Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &errs.IOError{Op: "list generations dir", Path: dir, Err: err}
	}

	var records []*Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		r, err := Read(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		records = append(records, r)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

// Latest returns the most recent generation record in dir, if any.
func Latest(dir string) (*Record, error) {
	records, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Pricing is the per-million-token cost of a model.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// EstimateCost estimates the USD cost of a generation. A non-nil override
// (from lit.toml's [model.pricing]) always takes precedence over the
// built-in pricing table.
func EstimateCost(model string, tokensIn, tokensOut uint64, override *config.PricingConfig) float64 {
	pricing := modelPricing(model)
	if override != nil {
		pricing = Pricing{InputPerMillion: override.InputPerMillion, OutputPerMillion: override.OutputPerMillion}
	}
	inputCost := (float64(tokensIn) / 1_000_000.0) * pricing.InputPerMillion
	outputCost := (float64(tokensOut) / 1_000_000.0) * pricing.OutputPerMillion
	return inputCost + outputCost
}

// modelPricing returns known pricing for model, falling back to
// conservative Sonnet-tier defaults for unrecognized models.
func modelPricing(model string) Pricing {
	switch {
	case strings.Contains(model, "claude-opus-4-5"), strings.Contains(model, "claude-opus-4-6"):
		return Pricing{5.0, 25.0}
	case strings.Contains(model, "claude-3-opus"), strings.Contains(model, "claude-opus-4"):
		return Pricing{15.0, 75.0}
	case strings.Contains(model, "claude-3-5-sonnet"), strings.Contains(model, "claude-sonnet-4"):
		return Pricing{3.0, 15.0}
	case strings.Contains(model, "claude-haiku-4-5"):
		return Pricing{1.0, 5.0}
	case strings.Contains(model, "claude-3-5-haiku"), strings.Contains(model, "claude-haiku-4"):
		return Pricing{0.80, 4.0}
	case strings.Contains(model, "claude-3-haiku"):
		return Pricing{0.25, 1.25}
	case strings.Contains(model, "gpt-4o") && !strings.Contains(model, "mini"):
		return Pricing{2.50, 10.0}
	case strings.Contains(model, "gpt-4o-mini"):
		return Pricing{0.15, 0.60}
	case strings.HasPrefix(model, "gpt-4") && !strings.Contains(model, "gpt-4o"):
		return Pricing{30.0, 60.0}
	default:
		return Pricing{3.0, 15.0}
	}
}

// FormatCost renders a USD amount with precision that scales to its size.
func FormatCost(costUSD float64) string {
	switch {
	case costUSD < 0.001:
		return "$" + strconv.FormatFloat(costUSD, 'f', 4, 64)
	case costUSD < 0.01:
		return "$" + strconv.FormatFloat(costUSD, 'f', 3, 64)
	default:
		return "$" + strconv.FormatFloat(costUSD, 'f', 2, 64)
	}
}

// FormatTokens renders a token count with comma separators, or an "M"
// suffix above one million.
func FormatTokens(tokens uint64) string {
	if tokens >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(tokens)/1_000_000.0)
	}
	s := strconv.FormatUint(tokens, 10)
	if tokens < 1000 {
		return s
	}
	var out []byte
	for i, c := range reverse(s) {
		if i > 0 && i%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, byte(c))
	}
	return reverse(string(out))
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

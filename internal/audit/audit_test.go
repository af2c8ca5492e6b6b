package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clintonboys/lit/internal/config"
)

func sampleRecord(ts time.Time, project string) *Record {
	return &Record{
		Timestamp: ts,
		Project:   project,
		Model:     "claude-sonnet-4-5-20250929",
		Temp:      0.0,
		Language:  "python",
		Framework: "fastapi",
		Prompts: []PromptRecord{
			{
				PromptPath:  "prompts/models/user.prompt.md",
				OutputFiles: []string{"src/models/user.py"},
				InputHash:   "abc123",
				FromCache:   false,
				TokensIn:    500,
				TokensOut:   1200,
				DurationMs:  3500,
				Model:       "claude-sonnet-4-5-20250929",
				CostUSD:     0.0195,
			},
		},
		Summary: Summary{
			TotalPrompts:      1,
			CacheMisses:       1,
			TotalTokensIn:     500,
			TotalTokensOut:    1200,
			TotalCostUSD:      0.0195,
			TotalDurationMs:   3500,
			TotalFilesWritten: 1,
		},
	}
}

func TestWriteAndReadRecord(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generations")
	r := sampleRecord(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), "demo")
	require.NoError(t, r.Write(dir))

	records, err := List(dir)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "demo", records[0].Project)
	assert.Len(t, records[0].Prompts, 1)
}

func TestListNewestFirst(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generations")
	older := sampleRecord(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC), "project-1")
	newer := sampleRecord(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC), "project-2")
	require.NoError(t, older.Write(dir))
	require.NoError(t, newer.Write(dir))

	records, err := List(dir)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "project-2", records[0].Project)
	assert.Equal(t, "project-1", records[1].Project)
}

func TestLatest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generations")
	require.NoError(t, sampleRecord(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "old").Write(dir))
	require.NoError(t, sampleRecord(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), "new").Write(dir))

	latest, err := Latest(dir)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "new", latest.Project)
}

func TestListEmptyDir(t *testing.T) {
	records, err := List(filepath.Join(t.TempDir(), "nonexistent"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLatestEmpty(t *testing.T) {
	latest, err := Latest(filepath.Join(t.TempDir(), "nonexistent"))
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestEstimateCost_Sonnet(t *testing.T) {
	cost := EstimateCost("claude-sonnet-4-5-20250929", 1000, 2000, nil)
	assert.InDelta(t, 0.033, cost, 0.0001)
}

func TestEstimateCost_Haiku(t *testing.T) {
	cost := EstimateCost("claude-3-5-haiku-20241022", 1000, 2000, nil)
	assert.InDelta(t, 0.0088, cost, 0.0001)
}

func TestEstimateCost_UnknownModelFallsBackToSonnetTier(t *testing.T) {
	cost := EstimateCost("some-future-model", 1000, 2000, nil)
	sonnetCost := EstimateCost("claude-sonnet-4-5-20250929", 1000, 2000, nil)
	assert.Equal(t, sonnetCost, cost)
}

func TestEstimateCost_OverridePricing(t *testing.T) {
	cost := EstimateCost("claude-sonnet-4-5-20250929", 1000, 2000, &config.PricingConfig{InputPerMillion: 10.0, OutputPerMillion: 50.0})
	assert.InDelta(t, 0.11, cost, 0.0001)
}

func TestEstimateCost_OpusTiers(t *testing.T) {
	costNew := EstimateCost("claude-opus-4-5-20260101", 1_000_000, 0, nil)
	assert.InDelta(t, 5.0, costNew, 0.01)

	costOld := EstimateCost("claude-opus-4-20250514", 1_000_000, 0, nil)
	assert.InDelta(t, 15.0, costOld, 0.01)
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.0000", FormatCost(0.0))
	assert.Equal(t, "$0.0005", FormatCost(0.0005))
	assert.Equal(t, "$0.005", FormatCost(0.005))
	assert.Equal(t, "$0.05", FormatCost(0.05))
	assert.Equal(t, "$1.50", FormatCost(1.50))
}

func TestFormatTokens(t *testing.T) {
	assert.Equal(t, "0", FormatTokens(0))
	assert.Equal(t, "500", FormatTokens(500))
	assert.Equal(t, "1,234", FormatTokens(1234))
	assert.Equal(t, "12,345", FormatTokens(12345))
	assert.Equal(t, "123,456", FormatTokens(123456))
	assert.Equal(t, "1.2M", FormatTokens(1234567))
}

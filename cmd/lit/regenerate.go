package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/audit"
	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/pipeline"
	"github.com/clintonboys/lit/internal/prompt"
	"github.com/clintonboys/lit/internal/provider"
	"github.com/clintonboys/lit/internal/ui"
)

func regenerateCmd() *cobra.Command {
	var all bool
	var only []string

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Regenerate code from changed (or all) prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegenerate(all, only)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "regenerate every prompt, ignoring change detection")
	cmd.Flags().StringSliceVar(&only, "only", nil, "regenerate only these prompt paths (and their dependents)")
	return cmd
}

func runRegenerate(all bool, only []string) error {
	cfg, root, prompts, graph := loadProject()

	if err := pipeline.WriteStaticFiles(root, cfg.Static); err != nil {
		return err
	}

	c := openCache(root)
	patchStore := openPatchStore(root)
	existingCode := readOutputTree(root, prompts)

	prov, err := provider.FromConfig(cfg)
	if err != nil {
		return err
	}

	changed := changedPrompts(root, prompts, only, all)
	regenSet := graph.RegenerationSet(changed)

	out := ui.NewRunOutput()
	ui.PrintHeader(version)
	out.PrintSweepStart(len(regenSet))

	opts := pipeline.Options{Cache: c, Provider: prov, Config: cfg}
	result, err := pipeline.Run(context.Background(), graph, prompts, regenSet, existingCode, opts)
	if err != nil {
		out.PrintSummary(audit.Summary{}, true, err.Error())
		return err
	}

	for _, gout := range result.Outputs {
		status := ui.StepGenerated
		if gout.FromCache {
			status = ui.StepCacheHit
		}
		out.PrintStep(ui.Step{PromptPath: gout.PromptPath, Status: status, Duration: time.Duration(gout.DurationMs) * time.Millisecond})
	}
	for _, skipped := range result.Skipped {
		out.PrintStep(ui.Step{PromptPath: skipped, Status: ui.StepSkipped})
	}
	for _, w := range result.Warnings {
		ui.PrintWarning(w)
	}

	if err := pipeline.WriteOutputs(root, patchStore, result); err != nil {
		return err
	}

	summary := buildSummary(result)
	record := buildRecord(cfg, result, summary)
	if err := record.Write(generationsDir(root)); err != nil {
		ui.PrintWarning("failed to write generation record: " + err.Error())
	}

	out.PrintSummary(summary, false, "")
	return nil
}

// buildRecord assembles a per-run audit.Record from the pipeline result,
// estimating cost per prompt with the project's pricing config.
func buildRecord(cfg *config.Config, result *pipeline.Result, summary audit.Summary) *audit.Record {
	record := &audit.Record{
		Timestamp: time.Now(),
		Project:   cfg.Project.Name,
		Model:     cfg.Model.Model,
		Temp:      cfg.Model.Temperature,
		Seed:      cfg.Model.Seed,
		Language:  cfg.Language.Default,
	}
	if cfg.Framework != nil {
		record.Framework = cfg.Framework.Name
	}

	var totalCost float64
	for _, gout := range result.Outputs {
		cost := audit.EstimateCost(gout.Model, gout.TokensIn, gout.TokensOut, cfg.Model.Pricing)
		totalCost += cost
		var outs []string
		for path := range gout.Files {
			outs = append(outs, path)
		}
		record.Prompts = append(record.Prompts, audit.PromptRecord{
			PromptPath:  gout.PromptPath,
			OutputFiles: outs,
			InputHash:   gout.InputHash,
			FromCache:   gout.FromCache,
			TokensIn:    gout.TokensIn,
			TokensOut:   gout.TokensOut,
			DurationMs:  gout.DurationMs,
			Model:       gout.Model,
			CostUSD:     cost,
		})
	}
	summary.TotalCostUSD = totalCost
	record.Summary = summary
	return record
}

// changedPrompts reports which prompts should seed the regeneration set:
// every prompt if all is set or only is empty and nothing has ever been
// generated, the explicit --only list if given, or otherwise every prompt
// whose declared outputs are missing from disk (a cheap proxy for "never
// generated" used until a persisted last-fingerprint index exists).
func changedPrompts(root string, prompts map[string]*prompt.Prompt, only []string, all bool) []string {
	if all {
		var everything []string
		for path := range prompts {
			everything = append(everything, path)
		}
		return everything
	}
	if len(only) > 0 {
		return only
	}

	var changed []string
	for path, p := range prompts {
		for _, out := range p.Outputs {
			if _, ok := readOutputTree(root, map[string]*prompt.Prompt{path: p})[out]; !ok {
				changed = append(changed, path)
				break
			}
		}
	}
	return changed
}

func buildSummary(result *pipeline.Result) audit.Summary {
	s := audit.Summary{
		TotalPrompts:      len(result.Outputs) + len(result.Skipped),
		CacheHits:         result.CacheHits,
		CacheMisses:       result.CacheMisses,
		Skipped:           len(result.Skipped),
		TotalTokensIn:     result.TotalTokensIn,
		TotalTokensOut:    result.TotalTokensOut,
		TotalDurationMs:   result.TotalDurationMs,
		PatchesApplied:    result.PatchesApplied,
		PatchesConflicted: result.PatchesConflicted,
	}
	for _, gout := range result.Outputs {
		s.TotalFilesWritten += len(gout.Files)
	}
	return s
}


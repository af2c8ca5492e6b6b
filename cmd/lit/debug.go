package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/fingerprint"
	"github.com/clintonboys/lit/internal/prompt"
	"github.com/clintonboys/lit/internal/sourcemap"
	"github.com/clintonboys/lit/internal/ui"
)

func debugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Inspect the DAG, fingerprints, and sourcemaps without calling a model",
	}
	cmd.AddCommand(debugDryRunCmd(), debugMapCmd())
	return cmd
}

// debugDryRunCmd parses every prompt, builds the DAG, and computes every
// node's fingerprint without ever invoking a provider - useful for
// validating prompt syntax and import wiring before spending tokens.
func debugDryRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Parse prompts, build the DAG, and print fingerprints with no model calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, prompts, graph := loadProject()

			fingerprints := make(map[string]string, len(prompts))
			rows := [][]string{{"PROMPT", "OUTPUTS", "FINGERPRINT"}}
			for _, path := range graph.Order() {
				node := graph.Get(path)
				p := prompts[path]

				var imports []fingerprint.Import
				for _, imp := range node.Imports {
					imports = append(imports, fingerprint.Import{Path: imp, Hash: fingerprints[imp]})
				}

				model, temp, seed, language, framework := resolveDryRunModel(p, cfg)
				fp := fingerprint.Compute(p.Raw, imports, model, temp, seed, language, framework)
				fingerprints[path] = fp

				rows = append(rows, []string{path, fmt.Sprintf("%d", len(node.Outputs)), fp[:16]})
			}
			fmt.Print(ui.Table(rows))
			return nil
		},
	}
}

func debugMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map <output-path> <line>",
		Short: "Look up which prompt line produced a generated output line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, _, _ := loadProject()
			outputPath, lineArg := args[0], args[1]

			line, err := strconv.Atoi(lineArg)
			if err != nil {
				return fmt.Errorf("line must be an integer: %w", err)
			}

			mapPath := filepath.Join(root, filepath.FromSlash(sourcemap.MapFilePath(outputPath)))
			data, err := os.ReadFile(mapPath)
			if err != nil {
				return fmt.Errorf("no sourcemap for %s: %w", outputPath, err)
			}

			consumer, err := sourcemap.Parse(outputPath, data)
			if err != nil {
				return err
			}
			promptPath, sourceLine, ok := consumer.SourceLine(line - 1)
			if !ok {
				return fmt.Errorf("no mapping for %s:%d", outputPath, line)
			}
			fmt.Printf("%s:%d -> %s:%d\n", outputPath, line, promptPath, sourceLine+1)
			return nil
		},
	}
}

// resolveDryRunModel mirrors pipeline's override precedence: a prompt's
// own Model/Language blocks take full precedence over the project
// defaults when present.
func resolveDryRunModel(p *prompt.Prompt, cfg *config.Config) (model string, temperature float64, seed *uint64, language string, framework *string) {
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
	return model, temperature, seed, language, framework
}

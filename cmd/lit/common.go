package main

import (
	"os"
	"path/filepath"

	"github.com/clintonboys/lit/internal/cache"
	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/dag"
	"github.com/clintonboys/lit/internal/patch"
	"github.com/clintonboys/lit/internal/prompt"
)

const stateDir = ".lit"

func cacheDir(root string) string       { return filepath.Join(root, stateDir, "cache") }
func patchesDir(root string) string     { return filepath.Join(root, stateDir, "patches") }
func generationsDir(root string) string { return filepath.Join(root, stateDir, "generations") }
func promptsDir(root string) string     { return filepath.Join(root, "prompts") }

// loadProject finds lit.toml walking up from the current directory,
// parses every prompt file under prompts/, and builds the DAG. Any
// failure terminates the process; prompt parse and DAG errors are rendered
// as diagnostics, config and discovery errors as a plain error line.
func loadProject() (cfg *config.Config, root string, prompts map[string]*prompt.Prompt, graph *dag.Dag) {
	cfg, root, err := config.FindAndLoad(".")
	if err != nil {
		fail(err)
	}

	relPaths, err := prompt.DiscoverPrompts(promptsDir(root))
	if err != nil {
		fail(err)
	}

	prompts = make(map[string]*prompt.Prompt, len(relPaths))
	var list []*prompt.Prompt
	for _, rel := range relPaths {
		full := filepath.Join("prompts", rel)
		p, err := prompt.ParseFile(root, full, cfg.Project.Mapping)
		if err != nil {
			failDiagnostic(root, err)
		}
		prompts[full] = p
		list = append(list, p)
	}

	graph, err = dag.Build(list)
	if err != nil {
		failDiagnostic(root, err)
	}
	return cfg, root, prompts, graph
}

// readOutputTree reads the current on-disk content of every declared
// output across prompts, used as the pipeline's existingCode seed.
func readOutputTree(root string, prompts map[string]*prompt.Prompt) map[string]string {
	code := make(map[string]string)
	for _, p := range prompts {
		for _, out := range p.Outputs {
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(out)))
			if err == nil {
				code[out] = string(data)
			}
		}
	}
	return code
}

func openCache(root string) *cache.Cache {
	c := cache.New(cacheDir(root))
	if err := c.Init(); err != nil {
		fail(err)
	}
	return c
}

func openPatchStore(root string) *patch.Store {
	return patch.NewStore(patchesDir(root))
}

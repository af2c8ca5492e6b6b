package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/patch"
	"github.com/clintonboys/lit/internal/pipeline"
	"github.com/clintonboys/lit/internal/ui"
)

func patchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Manage hand-edit patches over generated output",
	}
	cmd.AddCommand(patchSaveCmd(), patchListCmd(), patchShowCmd(), patchDropCmd())
	return cmd
}

func patchSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <output-path>",
		Short: "Record the current on-disk content as a manual patch over the last generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputPath := args[0]
			cfg, root, prompts, graph := loadProject()
			store := openPatchStore(root)
			c := openCache(root)

			manual, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(outputPath)))
			if err != nil {
				return fmt.Errorf("reading %s: %w", outputPath, err)
			}

			// Reconstruct the model's most-recent-output baseline per
			// SPEC_FULL.md §4.6.4: walk the DAG, recompute fingerprints, and
			// read back whatever the cache still holds for them.
			generated, warnings := pipeline.ReconstructFromCache(graph, prompts, cfg, c)
			for _, w := range warnings {
				ui.PrintWarning(w)
			}

			original, ok := generated[outputPath]
			if !ok {
				ui.PrintWarning(fmt.Sprintf("%s: no reconstructable baseline, treating prior content as empty", outputPath))
				original = ""
			} else if diffs := patch.DetectPatches(map[string]string{outputPath: original}, map[string]string{outputPath: string(manual)}); len(diffs) > 0 {
				for _, d := range diffs {
					ui.PrintInfo(d.Sprint())
				}
			}

			if err := store.Save(outputPath, original, string(manual)); err != nil {
				return err
			}
			ui.PrintInfo("saved patch for " + outputPath)
			return nil
		},
	}
}

func patchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List output paths with a stored patch",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, _, _ := loadProject()
			paths, err := openPatchStore(root).List()
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				ui.PrintInfo("no stored patches")
				return nil
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		},
	}
}

func patchShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <output-path>",
		Short: "Show the diff between the stored baseline and the manual patch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, _, _ := loadProject()
			sp, ok, err := openPatchStore(root).Load(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no stored patch for %s", args[0])
			}
			fmt.Print(sp.Diff)
			return nil
		},
	}
}

func patchDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <output-path>",
		Short: "Discard the stored patch for an output path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, _, _ := loadProject()
			if err := openPatchStore(root).Drop(args[0]); err != nil {
				return err
			}
			ui.PrintInfo("dropped patch for " + args[0])
			return nil
		},
	}
}


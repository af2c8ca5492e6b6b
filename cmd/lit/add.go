package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/ui"
)

func addCmd() *cobra.Command {
	var outputs []string
	var imports []string

	cmd := &cobra.Command{
		Use:   "add <prompts/name.prompt.md>",
		Short: "Scaffold a new prompt file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(args[0], outputs, imports)
		},
	}
	cmd.Flags().StringSliceVar(&outputs, "output", nil, "declared output path (repeatable)")
	cmd.Flags().StringSliceVar(&imports, "import", nil, "imported prompt path (repeatable)")
	return cmd
}

func runAdd(relPath string, outputs, imports []string) error {
	if !strings.HasSuffix(relPath, ".prompt.md") {
		return fmt.Errorf("%s: prompt files must end in .prompt.md", relPath)
	}

	_, root, err := config.FindAndLoad(".")
	if err != nil {
		return err
	}

	full := filepath.Join(root, filepath.FromSlash(relPath))
	if _, err := os.Stat(full); err == nil {
		return fmt.Errorf("%s already exists", relPath)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("---\n")
	if len(outputs) > 0 {
		b.WriteString("outputs = [")
		for i, o := range outputs {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q", o)
		}
		b.WriteString("]\n")
	}
	if len(imports) > 0 {
		b.WriteString("imports = [")
		for i, imp := range imports {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q", imp)
		}
		b.WriteString("]\n")
	}
	b.WriteString("---\n\nDescribe what this prompt should generate here.\n")

	if err := os.WriteFile(full, []byte(b.String()), 0o644); err != nil {
		return err
	}

	ui.PrintInfo("created " + relPath)
	return nil
}

// Command lit is the CLI surface for the prompt-as-source generation
// engine: it drives the pipeline, wraps the git-backed version-control
// layer, and inspects cache/patch/audit state. Command registration
// follows the teacher's cmd/dingo/main.go style.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/diagnostics"
	"github.com/clintonboys/lit/internal/ui"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:          "lit",
		Short:        "lit - prompts as the source of truth for your codebase",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		initCmd(),
		addCmd(),
		regenerateCmd(),
		statusCmd(),
		diffCmd(),
		logCmd(),
		checkoutCmd(),
		commitCmd(),
		pushCmd(),
		pullCmd(),
		patchCmd(),
		costCmd(),
		debugCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func fail(err error) {
	ui.PrintError(err.Error())
	os.Exit(1)
}

func failDiagnostic(root string, err error) {
	fmt.Print(diagnostics.FromError(root, err).Format())
	os.Exit(1)
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/ui"
	"github.com/clintonboys/lit/internal/vcsgit"
)

const defaultLitToml = `[project]
name = "%s"
version = "0.1.0"
mapping = "direct"

[language]
default = "python"

[model]
provider = "anthropic"
model = "claude-sonnet-4-5-20250929"
temperature = 0.0
`

func initCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize a new lit project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if name == "" {
				abs, err := filepath.Abs(dir)
				if err == nil {
					name = filepath.Base(abs)
				} else {
					name = "lit-project"
				}
			}
			return runInit(dir, name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name (default: directory name)")
	return cmd
}

func runInit(dir, name string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, "prompts"), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, stateDir, "cache"), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, stateDir, "patches"), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, stateDir, "generations"), 0o755); err != nil {
		return err
	}

	configPath := filepath.Join(dir, "lit.toml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		content := fmt.Sprintf(defaultLitToml, name)
		if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
			return err
		}
	}

	gitignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); os.IsNotExist(err) {
		if err := os.WriteFile(gitignorePath, []byte(".lit/cache/\n"), 0o644); err != nil {
			return err
		}
	}

	repo := vcsgit.New(dir)
	if _, err := os.Stat(filepath.Join(dir, ".git")); os.IsNotExist(err) {
		if err := repo.Init(context.Background()); err != nil {
			ui.PrintWarning("could not initialize git repository: " + err.Error())
		}
	}

	ui.PrintInfo(fmt.Sprintf("initialized lit project %q in %s", name, dir))
	return nil
}

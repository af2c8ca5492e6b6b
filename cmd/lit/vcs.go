package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/ui"
	"github.com/clintonboys/lit/internal/vcsgit"
)

func repoAt(dir string) *vcsgit.Repo {
	_, root, _, _ := loadProject()
	if dir != "" {
		root = dir
	}
	return vcsgit.New(root)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the working tree status",
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := repoAt("").Status(context.Background())
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				ui.PrintInfo("working tree clean")
				return nil
			}
			rows := [][]string{{"STATUS", "PATH"}}
			for _, c := range changes {
				rows = append(rows, []string{c.Kind.String(), c.Path})
			}
			fmt.Print(ui.Table(rows))
			return nil
		},
	}
}

func diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff [pathspec]",
		Short: "Show unstaged changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pathspec := ""
			if len(args) == 1 {
				pathspec = args[0]
			}
			out, err := repoAt("").Diff(context.Background(), pathspec)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

func logCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent commit history",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := repoAt("").Log(context.Background(), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s  %-20s  %s\n", e.Hash[:12], e.Author, e.Subject)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of commits to show")
	return cmd
}

func checkoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <ref>",
		Short: "Check out a commit, branch, or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := repoAt("").Checkout(context.Background(), args[0]); err != nil {
				return err
			}
			ui.PrintInfo("checked out " + args[0])
			return nil
		},
	}
}

func commitCmd() *cobra.Command {
	var message string
	var stage bool
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Stage and commit generated output",
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("--message is required")
			}
			repo := repoAt("")
			ctx := context.Background()
			if stage {
				if err := repo.StageAll(ctx); err != nil {
					return err
				}
			}
			hash, err := repo.Commit(ctx, message)
			if err != nil {
				return err
			}
			ui.PrintInfo("committed " + hash[:12])
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVar(&stage, "stage", true, "stage all changes before committing")
	return cmd
}

func pushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Push committed output to the remote",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := repoAt("").Push(context.Background()); err != nil {
				return err
			}
			ui.PrintInfo("pushed")
			return nil
		},
	}
}

func pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull the latest output from the remote",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := repoAt("").Pull(context.Background()); err != nil {
				return err
			}
			ui.PrintInfo("pulled")
			return nil
		},
	}
}

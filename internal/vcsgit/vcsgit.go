// Package vcsgit is the concrete git-backed implementation of the
// version-control contract that spec.md leaves out of core scope: stage,
// commit, status, diff, checkout, log. It shells out to the git binary,
// one os/exec.Command per call, and is never imported by the core engine
// packages (prompt, dag, fingerprint, cache, pipeline, patch) — only by
// cmd/lit.
package vcsgit

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/clintonboys/lit/internal/errs"
)

// Repo is a git-backed repository rooted at Dir.
type Repo struct {
	Dir string
}

// New returns a Repo rooted at dir. It does not verify dir is a git
// repository; the first command run against it will fail if not.
func New(dir string) *Repo {
	return &Repo{Dir: dir}
}

// ChangeKind classifies a single path's working-tree status.
type ChangeKind int

const (
	Unmodified ChangeKind = iota
	Added
	Modified
	Deleted
	Untracked
	Renamed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Untracked:
		return "untracked"
	case Renamed:
		return "renamed"
	default:
		return "unmodified"
	}
}

// Change is a single path's working-tree status, as reported by `git
// status --porcelain`.
type Change struct {
	Path string
	Kind ChangeKind
}

// LogEntry is a single commit as reported by `git log`.
type LogEntry struct {
	Hash    string
	Author  string
	Subject string
}

func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &errs.IOError{Op: "git " + strings.Join(args, " "), Path: r.Dir, Err: errWithStderr(err, stderr.String())}
	}
	return stdout.String(), nil
}

func errWithStderr(err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err
	}
	return &gitError{underlying: err, stderr: stderr}
}

type gitError struct {
	underlying error
	stderr     string
}

func (e *gitError) Error() string { return e.stderr }
func (e *gitError) Unwrap() error { return e.underlying }

// StageAll stages every change in the working tree (`git add -A`).
func (r *Repo) StageAll(ctx context.Context) error {
	_, err := r.run(ctx, "add", "-A")
	return err
}

// Commit creates a commit with message msg and returns its hash.
func (r *Repo) Commit(ctx context.Context, msg string) (string, error) {
	if _, err := r.run(ctx, "commit", "-m", msg); err != nil {
		return "", err
	}
	out, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Status reports the working-tree change set, one Change per path.
func (r *Repo) Status(ctx context.Context) ([]Change, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	var changes []Change
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		path := strings.TrimSpace(line[3:])
		changes = append(changes, Change{Path: path, Kind: classifyStatusCode(code)})
	}
	return changes, nil
}

func classifyStatusCode(code string) ChangeKind {
	switch {
	case strings.Contains(code, "?"):
		return Untracked
	case strings.Contains(code, "A"):
		return Added
	case strings.Contains(code, "D"):
		return Deleted
	case strings.Contains(code, "R"):
		return Renamed
	case strings.Contains(code, "M"):
		return Modified
	default:
		return Unmodified
	}
}

// Diff returns the unified diff text for pathspec (empty string for the
// whole tree).
func (r *Repo) Diff(ctx context.Context, pathspec string) (string, error) {
	args := []string{"diff"}
	if pathspec != "" {
		args = append(args, "--", pathspec)
	}
	return r.run(ctx, args...)
}

// Checkout switches the working tree to ref.
func (r *Repo) Checkout(ctx context.Context, ref string) error {
	_, err := r.run(ctx, "checkout", ref)
	return err
}

// Log returns the most recent limit commits, newest first.
func (r *Repo) Log(ctx context.Context, limit int) ([]LogEntry, error) {
	args := []string{"log", "-n", strconv.Itoa(limit), "--pretty=format:%H\x1f%an\x1f%s"}
	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var entries []LogEntry
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\x1f", 3)
		if len(parts) != 3 {
			continue
		}
		entries = append(entries, LogEntry{Hash: parts[0], Author: parts[1], Subject: parts[2]})
	}
	return entries, nil
}

// Push pushes the current branch to its configured upstream.
func (r *Repo) Push(ctx context.Context) error {
	_, err := r.run(ctx, "push")
	return err
}

// Pull fetches and merges from the current branch's configured upstream.
func (r *Repo) Pull(ctx context.Context) error {
	_, err := r.run(ctx, "pull")
	return err
}

// Init initializes a new git repository at Dir.
func (r *Repo) Init(ctx context.Context) error {
	_, err := r.run(ctx, "init")
	return err
}

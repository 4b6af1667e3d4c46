// Package sync keeps the quest data directory in a git repository so
// progress can be shared between machines.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotRepo is returned when the data directory has no .git directory.
var ErrNotRepo = errors.New("not a git repository")

// ignored keeps machine-local files out of the repository. The journal is
// a per-machine SQLite database and would conflict on every sync.
var ignored = []string{"journal.db", "journal.db-journal", "journal.db-wal", "journal.db-shm"}

type repo struct {
	ctx context.Context
	dir string
	out io.Writer
}

func (r repo) cmd(args ...string) *exec.Cmd {
	c := exec.CommandContext(r.ctx, "git", append([]string{"-C", r.dir}, args...)...)
	c.Stdout = r.out
	c.Stderr = r.out
	return c
}

func (r repo) quiet(args ...string) error {
	return exec.CommandContext(r.ctx, "git", append([]string{"-C", r.dir}, args...)...).Run()
}

func isRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// InitRepo makes dir a git repository (if it is not one already), writes a
// .gitignore for the journal and, when remote is non-empty, points origin
// at it.
func InitRepo(ctx context.Context, dir, remote string, out io.Writer) error {
	r := repo{ctx: ctx, dir: dir, out: out}

	if !isRepo(dir) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		if err := r.cmd("init", "--quiet").Run(); err != nil {
			return fmt.Errorf("git init %s: %w", dir, err)
		}
		fmt.Fprintf(out, "Initialized quest repository in %s\n", dir)
	}

	if err := writeIgnore(dir); err != nil {
		return err
	}

	if remote == "" {
		return nil
	}
	// origin may not exist yet
	_ = r.quiet("remote", "remove", "origin")
	if err := r.cmd("remote", "add", "origin", remote).Run(); err != nil {
		return fmt.Errorf("setting remote: %w", err)
	}
	fmt.Fprintf(out, "Remote set to: %s\n", remote)
	return nil
}

func writeIgnore(dir string) error {
	path := filepath.Join(dir, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	have := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		have[strings.TrimSpace(line)] = true
	}
	var b strings.Builder
	b.Write(existing)
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		b.WriteString("\n")
	}
	added := false
	for _, name := range ignored {
		if !have[name] {
			b.WriteString(name + "\n")
			added = true
		}
	}
	if !added {
		return nil
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Commit stages everything in dir and commits it with msg. It reports
// whether a commit was made; a clean tree is not an error.
func Commit(ctx context.Context, dir, msg string, out io.Writer) (bool, error) {
	if !isRepo(dir) {
		return false, fmt.Errorf("%s: %w (run 'quest init' first)", dir, ErrNotRepo)
	}
	r := repo{ctx: ctx, dir: dir, out: out}

	if err := r.cmd("add", "-A").Run(); err != nil {
		return false, fmt.Errorf("staging changes: %w", err)
	}
	// exit status 1 means there are staged changes
	if err := r.quiet("diff", "--cached", "--quiet"); err == nil {
		return false, nil
	}
	if err := r.cmd("commit", "--quiet", "-m", msg).Run(); err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}
	return true, nil
}

// SyncRepo commits local progress, pulls (rebase, falling back to merge)
// and pushes.
func SyncRepo(ctx context.Context, dir string, out io.Writer) error {
	if !isRepo(dir) {
		return fmt.Errorf("%s: %w (run 'quest init' first)", dir, ErrNotRepo)
	}
	r := repo{ctx: ctx, dir: dir, out: out}

	fmt.Fprintln(out, "Committing progress...")
	msg := "progress " + time.Now().Format("2006-01-02 15:04:05")
	if _, err := Commit(ctx, dir, msg, out); err != nil {
		return err
	}

	fmt.Fprintln(out, "Pulling...")
	if err := r.cmd("pull", "--rebase").Run(); err != nil {
		fmt.Fprintln(out, "Rebase failed, trying merge...")
		_ = r.quiet("rebase", "--abort")

		if err := r.cmd("pull", "--no-rebase").Run(); err != nil {
			_ = r.quiet("merge", "--abort")
			return errors.New("sync failed: could not rebase or merge, resolve conflicts in the data directory manually")
		}
	}

	fmt.Fprintln(out, "Pushing...")
	if err := r.cmd("push").Run(); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	fmt.Fprintln(out, "Sync complete.")
	return nil
}

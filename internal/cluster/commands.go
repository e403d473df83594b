package cluster

import (
	"context"
	"fmt"
	"strings"
)

// ShellQuote wraps a path in single quotes for safe interpolation into a
// remote shell command.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Commands layers common filesystem operations over a Session.
type Commands struct {
	session Session
}

// NewCommands wraps a session.
func NewCommands(session Session) *Commands {
	return &Commands{session: session}
}

// MkdirAll creates a remote directory tree.
func (c *Commands) MkdirAll(ctx context.Context, path string) error {
	if _, stderr, err := c.session.ExecuteCommand(ctx, "mkdir -p "+ShellQuote(path)); err != nil {
		return fmt.Errorf("mkdir %s: %w (%s)", path, err, strings.TrimSpace(stderr))
	}
	return nil
}

// Copy copies a remote file to another remote path.
func (c *Commands) Copy(ctx context.Context, src, dst string) error {
	cmd := fmt.Sprintf("cp -f %s %s", ShellQuote(src), ShellQuote(dst))
	if _, stderr, err := c.session.ExecuteCommand(ctx, cmd); err != nil {
		return fmt.Errorf("copy %s -> %s: %w (%s)", src, dst, err, strings.TrimSpace(stderr))
	}
	return nil
}

// Move moves a remote file.
func (c *Commands) Move(ctx context.Context, src, dst string) error {
	cmd := fmt.Sprintf("mv -f %s %s", ShellQuote(src), ShellQuote(dst))
	if _, stderr, err := c.session.ExecuteCommand(ctx, cmd); err != nil {
		return fmt.Errorf("move %s -> %s: %w (%s)", src, dst, err, strings.TrimSpace(stderr))
	}
	return nil
}

// MoveGlob moves everything matching a glob into a directory. The pattern is
// deliberately not quoted so the remote shell expands it.
func (c *Commands) MoveGlob(ctx context.Context, pattern, dstDir string) error {
	cmd := fmt.Sprintf("mv -f %s %s/", pattern, ShellQuote(dstDir))
	if _, stderr, err := c.session.ExecuteCommand(ctx, cmd); err != nil {
		return fmt.Errorf("move %s -> %s: %w (%s)", pattern, dstDir, err, strings.TrimSpace(stderr))
	}
	return nil
}

// RemoveDir deletes a remote directory tree. Used for scratch cleanup.
func (c *Commands) RemoveDir(ctx context.Context, path string) error {
	if _, stderr, err := c.session.ExecuteCommand(ctx, "rm -rf "+ShellQuote(path)); err != nil {
		return fmt.Errorf("remove %s: %w (%s)", path, err, strings.TrimSpace(stderr))
	}
	return nil
}

// AppendFile appends text to a remote file unless a marker line is already
// present, keeping the append idempotent across reruns.
func (c *Commands) AppendFile(ctx context.Context, path, marker, text string) (appended bool, err error) {
	check := fmt.Sprintf("grep -qF %s %s", ShellQuote(marker), ShellQuote(path))
	if _, _, err := c.session.ExecuteCommand(ctx, check); err == nil {
		return false, nil
	}
	cmd := fmt.Sprintf("cat >> %s <<'CORRFLUX_EOF'\n%s\nCORRFLUX_EOF", ShellQuote(path), strings.TrimRight(text, "\n"))
	if _, stderr, err := c.session.ExecuteCommand(ctx, cmd); err != nil {
		return false, fmt.Errorf("append to %s: %w (%s)", path, err, strings.TrimSpace(stderr))
	}
	return true, nil
}

// ReadFile returns the content of a remote file.
func (c *Commands) ReadFile(ctx context.Context, path string) (string, error) {
	stdout, stderr, err := c.session.ExecuteCommand(ctx, "cat "+ShellQuote(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w (%s)", path, err, strings.TrimSpace(stderr))
	}
	return stdout, nil
}

// Package clustertest provides a scriptable in-memory Session for tests.
package clustertest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Response scripts the result of one remote command.
type Response struct {
	Stdout string
	Stderr string
	Err    error
}

// FakeSession records every interaction and answers commands from scripted
// responses. The zero value succeeds with empty output for everything.
type FakeSession struct {
	mu sync.Mutex

	// Respond, when set, answers every command. It wins over Responses.
	Respond func(command string) (string, string, error)

	// Responses maps a command substring to a scripted response. The
	// first matching entry in insertion order wins.
	responseKeys []string
	responses    map[string]Response

	// Exists answers FileExists by exact remote path.
	Exists map[string]bool

	// Contents backs DownloadFile: remote path -> file body written to
	// the local target.
	Contents map[string]string

	Commands  []string
	Uploads   map[string]string // remote -> local
	Downloads map[string]string // remote -> local
	closed    bool
}

// NewFakeSession returns an empty scriptable session.
func NewFakeSession() *FakeSession {
	return &FakeSession{
		responses: make(map[string]Response),
		Exists:    make(map[string]bool),
		Contents:  make(map[string]string),
		Uploads:   make(map[string]string),
		Downloads: make(map[string]string),
	}
}

// Script registers a response for any command containing substr.
func (f *FakeSession) Script(substr string, r Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.responses[substr]; !ok {
		f.responseKeys = append(f.responseKeys, substr)
	}
	f.responses[substr] = r
}

// SetExists marks a remote path as present or absent.
func (f *FakeSession) SetExists(path string, exists bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Exists[path] = exists
}

func (f *FakeSession) ExecuteCommand(ctx context.Context, command string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = append(f.Commands, command)

	if f.Respond != nil {
		return f.Respond(command)
	}
	for _, key := range f.responseKeys {
		if strings.Contains(command, key) {
			r := f.responses[key]
			return r.Stdout, r.Stderr, r.Err
		}
	}
	return "", "", nil
}

func (f *FakeSession) UploadFile(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Uploads[remotePath] = localPath
	f.Exists[remotePath] = true
	return nil
}

func (f *FakeSession) DownloadFile(ctx context.Context, remotePath, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Downloads[remotePath] = localPath
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(localPath, []byte(f.Contents[remotePath]), 0o644)
}

// SetContents scripts the body DownloadFile writes for a remote path and
// marks the path as existing.
func (f *FakeSession) SetContents(remotePath, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Contents[remotePath] = body
	f.Exists[remotePath] = true
}

func (f *FakeSession) FileExists(ctx context.Context, remotePath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Exists[remotePath], nil
}

func (f *FakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeSession) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// CommandCount returns how many executed commands contain substr.
func (f *FakeSession) CommandCount(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Commands {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}

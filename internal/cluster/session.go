// Package cluster provides the remote session a calculation runs against:
// command execution and file transfer over SSH, plus shell-level helpers for
// the colony and scratch areas.
package cluster

import "context"

// Session is an open connection to the cluster login node. Implementations
// are not safe for concurrent use; the scheduler opens one session per task.
type Session interface {
	// ExecuteCommand runs a shell command and returns its stdout and
	// stderr. A non-zero exit status is returned as an error alongside
	// whatever output was produced.
	ExecuteCommand(ctx context.Context, command string) (stdout, stderr string, err error)

	// UploadFile copies a local file to a remote path.
	UploadFile(ctx context.Context, localPath, remotePath string) error

	// DownloadFile copies a remote file to a local path.
	DownloadFile(ctx context.Context, remotePath, localPath string) error

	// FileExists reports whether a remote path exists.
	FileExists(ctx context.Context, remotePath string) (bool, error)

	Close() error
}

package cluster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/qchemtools/corrflux/internal/pathutil"
)

// Options configures an SSH session.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	KeyFile  string
	Timeout  time.Duration
}

// SSHSession is a Session over a single SSH client connection. Each command
// or transfer opens a fresh ssh channel on the shared connection.
type SSHSession struct {
	client *ssh.Client
	log    zerolog.Logger
}

// Dial opens an SSH connection to the cluster login node. Key-file
// authentication is preferred when both a key and a password are configured.
func Dial(opts Options, log zerolog.Logger) (*SSHSession, error) {
	if opts.Port == 0 {
		opts.Port = 22
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	var auth []ssh.AuthMethod
	if opts.KeyFile != "" {
		keyPath, err := pathutil.ExpandUser(opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("resolve key file %s: %w", opts.KeyFile, err)
		}
		key, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("read key file %s: %w", opts.KeyFile, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse key file %s: %w", opts.KeyFile, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if opts.Password != "" {
		auth = append(auth, ssh.Password(opts.Password))
	}
	if len(auth) == 0 {
		return nil, errors.New("no authentication method configured")
	}

	cfg := &ssh.ClientConfig{
		User: opts.User,
		Auth: auth,
		// Cluster login nodes rotate host keys behind load balancers;
		// pinning them is left to the user's known_hosts tooling.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         opts.Timeout,
	}

	addr := net.JoinHostPort(opts.Host, fmt.Sprintf("%d", opts.Port))
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	log.Debug().Str("host", opts.Host).Str("user", opts.User).Msg("ssh session established")
	return &SSHSession{client: client, log: log}, nil
}

// ExecuteCommand runs a command on the remote host. Cancellation closes the
// channel, which terminates the remote process group.
func (s *SSHSession) ExecuteCommand(ctx context.Context, command string) (string, string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("open channel: %w", err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(command) }()

	select {
	case <-ctx.Done():
		sess.Close()
		<-done
		return stdout.String(), stderr.String(), ctx.Err()
	case err := <-done:
		if err != nil {
			return stdout.String(), stderr.String(), fmt.Errorf("remote command failed: %w", err)
		}
		return stdout.String(), stderr.String(), nil
	}
}

// UploadFile streams a local file into a remote path through a shell
// redirect, avoiding an SFTP subsystem dependency.
func (s *SSHSession) UploadFile(ctx context.Context, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	sess, err := s.client.NewSession()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer sess.Close()

	sess.Stdin = f
	var stderr bytes.Buffer
	sess.Stderr = &stderr

	cmd := fmt.Sprintf("mkdir -p %s && cat > %s", ShellQuote(filepath.Dir(remotePath)), ShellQuote(remotePath))

	done := make(chan error, 1)
	go func() { done <- sess.Run(cmd) }()

	select {
	case <-ctx.Done():
		sess.Close()
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("upload %s: %w (%s)", remotePath, err, stderr.String())
		}
	}
	s.log.Debug().Str("local", localPath).Str("remote", remotePath).Msg("uploaded")
	return nil
}

// DownloadFile copies a remote file into a local path.
func (s *SSHSession) DownloadFile(ctx context.Context, remotePath, localPath string) error {
	sess, err := s.client.NewSession()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer sess.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", localPath, err)
	}
	defer f.Close()

	out, err := sess.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := sess.Start("cat " + ShellQuote(remotePath)); err != nil {
		return fmt.Errorf("download %s: %w", remotePath, err)
	}

	copied := make(chan error, 1)
	go func() {
		_, err := io.Copy(f, out)
		copied <- err
	}()

	select {
	case <-ctx.Done():
		sess.Close()
		<-copied
		return ctx.Err()
	case err := <-copied:
		if err != nil {
			return fmt.Errorf("download %s: %w", remotePath, err)
		}
	}
	if err := sess.Wait(); err != nil {
		return fmt.Errorf("download %s: %w", remotePath, err)
	}
	s.log.Debug().Str("remote", remotePath).Str("local", localPath).Msg("downloaded")
	return nil
}

// FileExists tests a remote path.
func (s *SSHSession) FileExists(ctx context.Context, remotePath string) (bool, error) {
	_, _, err := s.ExecuteCommand(ctx, "test -e "+ShellQuote(remotePath))
	if err == nil {
		return true, nil
	}
	// A non-zero exit from test means the path is absent; anything else
	// is a transport problem.
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}

// Close tears down the SSH connection.
func (s *SSHSession) Close() error {
	return s.client.Close()
}

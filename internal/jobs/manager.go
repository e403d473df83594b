// Package jobs manages the batch-system lifecycle of remote jobs: sbatch
// submission and completion polling.
package jobs

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/qchemtools/corrflux/internal/cluster"
)

// JobID identifies a job in the batch system.
type JobID string

// SubmissionError reports a failed or unparseable sbatch submission.
type SubmissionError struct {
	Script string
	Output string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submit %s: %v", e.Script, e.Err)
	}
	return fmt.Sprintf("submit %s: no job id in response %q", e.Script, strings.TrimSpace(e.Output))
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// MonitorError reports a failed queue status check.
type MonitorError struct {
	JobID JobID
	Err   error
}

func (e *MonitorError) Error() string {
	return fmt.Sprintf("monitor job %s: %v", e.JobID, e.Err)
}

func (e *MonitorError) Unwrap() error { return e.Err }

var submitRe = regexp.MustCompile(`Submitted batch job (\d+)`)

const (
	initialPollDelay = time.Second
	maxPollDelay     = 60 * time.Second
)

// Manager submits and monitors batch jobs over one cluster session.
type Manager struct {
	session cluster.Session
	log     zerolog.Logger

	// sleep is replaced in tests to observe the backoff schedule.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager builds a job manager on an open session.
func NewManager(session cluster.Session, log zerolog.Logger) *Manager {
	return &Manager{
		session: session,
		log:     log,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Submit runs sbatch on a remote script and parses the acknowledged job id.
func (m *Manager) Submit(ctx context.Context, scriptPath string) (JobID, error) {
	stdout, stderr, err := m.session.ExecuteCommand(ctx, "sbatch "+cluster.ShellQuote(scriptPath))
	if err != nil {
		return "", &SubmissionError{Script: scriptPath, Output: stdout + stderr, Err: err}
	}
	match := submitRe.FindStringSubmatch(stdout)
	if match == nil {
		return "", &SubmissionError{Script: scriptPath, Output: stdout + stderr}
	}
	id := JobID(match[1])
	m.log.Info().Str("job_id", string(id)).Str("script", scriptPath).Msg("job submitted")
	return id, nil
}

// Monitor polls the queue until the job leaves it. The first check happens
// immediately; subsequent checks back off 1s, 2s, 4s, ... capped at 60s and
// never reset. A job absent from the queue is treated as finished; success
// or failure is judged later from its artifacts, not its queue state.
// Cancelling the context stops polling but leaves the remote job running.
func (m *Manager) Monitor(ctx context.Context, id JobID) error {
	start := time.Now()
	delay := initialPollDelay
	for {
		stdout, _, err := m.session.ExecuteCommand(ctx, fmt.Sprintf("squeue -j %s", id))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &MonitorError{JobID: id, Err: err}
		}
		if !strings.Contains(stdout, string(id)) {
			m.log.Info().
				Str("job_id", string(id)).
				Time("started", start).
				Dur("elapsed", time.Since(start)).
				Msg("job left the queue")
			return nil
		}
		if err := m.sleep(ctx, delay); err != nil {
			return err
		}
		if delay < maxPollDelay {
			delay *= 2
			if delay > maxPollDelay {
				delay = maxPollDelay
			}
		}
	}
}

// SubmitAndWait submits a script and blocks until the job leaves the queue.
func (m *Manager) SubmitAndWait(ctx context.Context, scriptPath string) (JobID, error) {
	id, err := m.Submit(ctx, scriptPath)
	if err != nil {
		return "", err
	}
	if err := m.Monitor(ctx, id); err != nil {
		return id, err
	}
	return id, nil
}

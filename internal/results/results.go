// Package results collects the artifacts of a finished flux from the colony
// into a local per-calculation directory and summarizes them.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/qchemtools/corrflux/internal/cluster"
	"github.com/qchemtools/corrflux/internal/models"
	"github.com/qchemtools/corrflux/internal/parsers"
)

const summaryFile = "results.json"

// Manager downloads and summarizes calculation results.
type Manager struct {
	session    cluster.Session
	colonyRoot string
	localRoot  string
	log        zerolog.Logger
}

// NewManager builds a results manager over an open session.
func NewManager(session cluster.Session, colonyRoot, localRoot string, log zerolog.Logger) *Manager {
	return &Manager{
		session:    session,
		colonyRoot: colonyRoot,
		localRoot:  localRoot,
		log:        log,
	}
}

// Dir is the local results directory of a calculation.
func (m *Manager) Dir(id models.CalculationID) string {
	return filepath.Join(m.localRoot, string(id))
}

// Collect downloads the run log and requested property artifacts, parses the
// log, and writes the results.json summary. A log without the normal
// termination marker fails the collection: the job finished, the
// computation did not.
func (m *Manager) Collect(ctx context.Context, id models.CalculationID, spec models.CalculationSpec) (*models.Outcome, error) {
	localDir := m.Dir(id)
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}

	job := string(id)
	colony := path.Join(m.colonyRoot, job)

	logLocal := filepath.Join(localDir, job+".log")
	if err := m.session.DownloadFile(ctx, path.Join(colony, job+".log"), logLocal); err != nil {
		return nil, fmt.Errorf("download run log: %w", err)
	}
	content, err := os.ReadFile(logLocal)
	if err != nil {
		return nil, err
	}
	summary := parsers.ParseGaussianLog(string(content))
	if !summary.NormalTermination {
		return nil, fmt.Errorf("calculation %s: run log has no normal termination", id)
	}

	outcome := &models.Outcome{
		Calculation: id,
		Energies:    summary.Energies,
		Properties:  make(map[string]string, len(spec.Properties)),
		CollectedAt: time.Now().UTC(),
	}

	for _, prop := range spec.Properties {
		remote := path.Join(colony, prop+".cube")
		exists, err := m.session.FileExists(ctx, remote)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", remote, err)
		}
		if !exists {
			// The indicator run may legitimately skip an artifact;
			// the registry keeps the property open for a rerun.
			m.log.Warn().Str("calculation", string(id)).Str("property", prop).Msg("property artifact missing")
			continue
		}
		local := filepath.Join(localDir, prop+".cube")
		if err := m.session.DownloadFile(ctx, remote, local); err != nil {
			return nil, fmt.Errorf("download %s: %w", remote, err)
		}
		outcome.Properties[prop] = local
	}

	if err := m.writeSummary(outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

// LoadCached reads the results.json summary of a previously collected
// calculation.
func (m *Manager) LoadCached(id models.CalculationID) (*models.Outcome, error) {
	data, err := os.ReadFile(filepath.Join(m.Dir(id), summaryFile))
	if err != nil {
		return nil, fmt.Errorf("load cached results for %s: %w", id, err)
	}
	var outcome models.Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, fmt.Errorf("parse cached results for %s: %w", id, err)
	}
	outcome.Cached = true
	return &outcome, nil
}

// WriteSummary persists an updated outcome, used when the handler stamps
// timing after collection.
func (m *Manager) WriteSummary(outcome *models.Outcome) error {
	return m.writeSummary(outcome)
}

func (m *Manager) writeSummary(outcome *models.Outcome) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}
	target := filepath.Join(m.Dir(outcome.Calculation), summaryFile)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write results summary: %w", err)
	}
	return os.Rename(tmp, target)
}

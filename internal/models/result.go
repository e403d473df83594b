package models

import "time"

// JobHandle identifies a batch-system job spawned for one stage of a
// calculation.
type JobHandle struct {
	JobID       string
	Stage       string
	Calculation CalculationID
	SubmittedAt time.Time
}

// Outcome is the collected result of one calculation: parsed energies plus
// references to the downloaded property artifacts.
type Outcome struct {
	Calculation CalculationID     `json:"calculation"`
	Cached      bool              `json:"cached"`
	Energies    map[string]float64 `json:"energies,omitempty"`
	Properties  map[string]string  `json:"properties,omitempty"` // property -> local artifact path
	Elapsed     float64            `json:"elapsed_seconds"`
	CollectedAt time.Time          `json:"collected_at"`
}

// Result pairs a batch input spec with its outcome or failure. Results keep
// the input order of the batch.
type Result struct {
	Spec        CalculationSpec
	Calculation CalculationID
	Outcome     *Outcome
	Err         error
}

package models

import "time"

// CalculationID is the content-derived identity of a calculation.
type CalculationID string

func (id CalculationID) String() string { return string(id) }

// CalculationStatus is the registry lifecycle state of a calculation.
type CalculationStatus string

const (
	StatusPending   CalculationStatus = "pending"
	StatusRunning   CalculationStatus = "running"
	StatusCompleted CalculationStatus = "completed"
	StatusFailed    CalculationStatus = "failed"
)

// CalculationRecord is the registry row for one calculation, with its
// property rows attached.
type CalculationRecord struct {
	ID           CalculationID
	Molecule     string
	Charge       int
	Multiplicity int
	Omega        float64
	Method       string
	Basis        string
	Config       string
	Status       CalculationStatus
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	EndedAt      *time.Time
	Properties   []PropertyRecord
	Tags         []string
}

// PropertyRecord is one requested property of a calculation. Payload holds a
// reference to the collected artifact once the property completes.
type PropertyRecord struct {
	Name      string
	Completed bool
	Payload   string
	UpdatedAt time.Time
}

// MissingProperties lists the requested properties not yet completed.
func (r *CalculationRecord) MissingProperties() []string {
	var out []string
	for _, p := range r.Properties {
		if !p.Completed {
			out = append(out, p.Name)
		}
	}
	return out
}

// HasProperty reports whether the record already requests the named
// property.
func (r *CalculationRecord) HasProperty(name string) bool {
	for _, p := range r.Properties {
		if p.Name == name {
			return true
		}
	}
	return false
}

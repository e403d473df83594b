package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Method is the electronic-structure method of a calculation. The zero value
// is not valid; construct through NewMethod.
type Method struct {
	Name string // normalized: "hf", "mp2", "casscf", "fullci", ...

	// Active space, CASSCF only.
	ActiveElectrons int
	ActiveOrbitals  int

	// ExcitedState selects a CASSCF excited root (0 = ground state).
	ExcitedState int
}

var casscfRe = regexp.MustCompile(`^casscf\((\d+),(\d+)\)$`)

// NewMethod parses a method designation such as "HF", "MP2", "CASSCF(2,6)"
// or "FullCI". The excited-state index applies to CASSCF only.
func NewMethod(name string, excitedState int) (Method, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	if norm == "" {
		return Method{}, fmt.Errorf("method name is empty")
	}
	if excitedState < 0 {
		return Method{}, fmt.Errorf("method %s: excited state %d out of range", name, excitedState)
	}

	if m := casscfRe.FindStringSubmatch(norm); m != nil {
		ne, _ := strconv.Atoi(m[1])
		no, _ := strconv.Atoi(m[2])
		if ne < 1 || no < 1 {
			return Method{}, fmt.Errorf("casscf(%d,%d): active space must be positive", ne, no)
		}
		return Method{Name: "casscf", ActiveElectrons: ne, ActiveOrbitals: no, ExcitedState: excitedState}, nil
	}

	switch norm {
	case "hf", "uhf", "mp2", "ccsd", "fullci":
		if excitedState != 0 {
			return Method{}, fmt.Errorf("method %s: excited states require casscf", norm)
		}
		return Method{Name: norm}, nil
	}
	return Method{}, fmt.Errorf("unsupported method %q", name)
}

// HF returns the Hartree-Fock method, the reference for correlated runs.
func HF() Method { return Method{Name: "hf"} }

// IsHF reports whether the method is a Hartree-Fock variant. HF fluxes skip
// the density-matrix stages entirely.
func (m Method) IsHF() bool { return m.Name == "hf" || m.Name == "uhf" }

// IsCASSCF reports whether the method carries an active space.
func (m Method) IsCASSCF() bool { return m.Name == "casscf" }

// Keywords returns the method fragment of a Gaussian route section,
// including active-space and state-selection options.
func (m Method) Keywords() string {
	switch m.Name {
	case "casscf":
		if m.ExcitedState > 0 {
			// nroot is 1-based; root 2 is the first excited state.
			return fmt.Sprintf("casscf(%d,%d,nroot=%d)", m.ActiveElectrons, m.ActiveOrbitals, m.ExcitedState+1)
		}
		return fmt.Sprintf("casscf(%d,%d)", m.ActiveElectrons, m.ActiveOrbitals)
	case "fullci":
		return "cisd(full)"
	default:
		return m.Name
	}
}

func (m Method) String() string {
	s := m.Name
	if m.IsCASSCF() {
		s = fmt.Sprintf("casscf(%d,%d)", m.ActiveElectrons, m.ActiveOrbitals)
		if m.ExcitedState > 0 {
			s += fmt.Sprintf("/state%d", m.ExcitedState)
		}
	}
	return s
}

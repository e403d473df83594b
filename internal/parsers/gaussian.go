// Package parsers extracts energies, timing and geometry from
// electronic-structure log files.
package parsers

import (
	"regexp"
	"strconv"
	"strings"
)

// Atom is one center of a parsed geometry, coordinates in Angstrom.
type Atom struct {
	AtomicNumber int
	Symbol       string
	X, Y, Z      float64
}

// LogSummary is the parsed content of a run log.
type LogSummary struct {
	Energies          map[string]float64
	CPUTime           string
	ElapsedTime       string
	NormalTermination bool
	Geometry          []Atom
	Optimized         bool
}

var (
	scfRe      = regexp.MustCompile(`SCF Done:.+?=\s+(-?\d+\.\d+)`)
	hfRe       = regexp.MustCompile(`HF=(-?\d+\.\d+)`)
	mp2Re      = regexp.MustCompile(`EUMP2.+?=\s+(-?\d+\.\d+)`)
	casscfRe2  = regexp.MustCompile(`ECASSCF.+?=\s+(-?\d+\.\d+)`)
	cpuRe      = regexp.MustCompile(`Job cpu time:\s+(\d+ days\s+\d+ hours\s+\d+ minutes\s+\d+\.\d+ seconds\.)`)
	elapsedRe  = regexp.MustCompile(`Elapsed time:\s+(\d+ days\s+\d+ hours\s+\d+ minutes\s+\d+\.\d+ seconds\.)`)
	termRe     = regexp.MustCompile(`Normal termination`)
	geomStart  = regexp.MustCompile(`\s*(?:Input|Standard)\s+orientation:\s*`)
	geomEnd    = regexp.MustCompile(`\s*-{3,}\s*$`)
	geomHeader = regexp.MustCompile(` Center     Atomic      Atomic`)
	optFound   = regexp.MustCompile(`Stationary point found`)
)

var atomicSymbols = []string{
	"X", "H", "He", "Li", "Be", "B", "C", "N", "O", "F",
	"Ne", "Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K",
	"Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu",
	"Zn", "Ga", "Ge", "As", "Se", "Br", "Kr",
}

// AtomicSymbol maps an atomic number to its element symbol.
func AtomicSymbol(n int) string {
	if n >= 0 && n < len(atomicSymbols) {
		return atomicSymbols[n]
	}
	return strconv.Itoa(n)
}

// ParseGaussianLog parses a run log. An empty log yields an empty summary
// with NormalTermination false; judging that as failure is the caller's
// call.
func ParseGaussianLog(content string) *LogSummary {
	sum := &LogSummary{Energies: make(map[string]float64)}

	var (
		reading     bool
		headerFound bool
		current     []Atom
		final       []Atom
	)

	for _, line := range strings.Split(content, "\n") {
		if m := scfRe.FindStringSubmatch(line); m != nil {
			sum.Energies["scf"], _ = strconv.ParseFloat(m[1], 64)
		}
		if m := hfRe.FindStringSubmatch(line); m != nil {
			sum.Energies["hf"], _ = strconv.ParseFloat(m[1], 64)
		}
		if m := mp2Re.FindStringSubmatch(line); m != nil {
			sum.Energies["mp2"], _ = strconv.ParseFloat(m[1], 64)
		}
		if m := casscfRe2.FindStringSubmatch(line); m != nil {
			sum.Energies["casscf"], _ = strconv.ParseFloat(m[1], 64)
		}
		if m := cpuRe.FindStringSubmatch(line); m != nil {
			sum.CPUTime = m[1]
		}
		if m := elapsedRe.FindStringSubmatch(line); m != nil {
			sum.ElapsedTime = m[1]
		}
		if termRe.MatchString(line) {
			sum.NormalTermination = true
		}

		if optFound.MatchString(line) {
			sum.Optimized = true
			final = append([]Atom(nil), current...)
		}

		if geomStart.MatchString(line) {
			reading = true
			headerFound = false
			current = nil
			continue
		}
		if !reading {
			continue
		}
		if geomHeader.MatchString(line) {
			headerFound = true
			continue
		}
		if geomEnd.MatchString(line) {
			// Orientation tables carry separator rows before the
			// data too; stop only once atoms were read.
			if len(current) > 0 {
				reading = false
			}
			continue
		}
		if headerFound && strings.TrimSpace(line) != "" {
			if atom, ok := parseGeometryLine(line); ok {
				current = append(current, atom)
			}
		}
	}

	if len(final) > 0 {
		sum.Geometry = final
	} else {
		sum.Geometry = current
	}
	return sum
}

func parseGeometryLine(line string) (Atom, bool) {
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return Atom{}, false
	}
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return Atom{}, false
	}
	num, err := strconv.Atoi(fields[1])
	if err != nil {
		return Atom{}, false
	}
	x, err1 := strconv.ParseFloat(fields[3], 64)
	y, err2 := strconv.ParseFloat(fields[4], 64)
	z, err3 := strconv.ParseFloat(fields[5], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return Atom{}, false
	}
	return Atom{AtomicNumber: num, Symbol: AtomicSymbol(num), X: x, Y: y, Z: z}, true
}

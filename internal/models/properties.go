package models

import (
	"fmt"
	"sort"
	"strings"
)

// propertyDef describes one requestable property.
type propertyDef struct {
	name    string
	option  string // indicator deck option column
	aliases []string
}

var propertyDefs = []propertyDef{
	{name: "density", option: "total", aliases: []string{"density"}},
	{name: "on_top", option: "all", aliases: []string{"on top", "ontop", "ot", "on-top"}},
	{name: "pair_density", aliases: []string{"pair density", "pairdensity", "pd", "pair-density"}},
	{name: "i_d", aliases: []string{"indicator dynamic", "dynamic", "id"}},
	{name: "pair_density_c1", aliases: []string{"pair density c1", "c1"}},
	{name: "pair_density_c2", aliases: []string{"pair density c2", "c2"}},
	{name: "pair_density_hf", aliases: []string{"pair density hf"}},
	{name: "pair_density_nucleus", option: "all", aliases: []string{"pair density nucleus", "nucleus"}},
	{name: "pair_density_nucleus_c1", option: "all", aliases: []string{"pair density nucleus c1", "nucleus_c1"}},
	{name: "pair_density_nucleus_c2", option: "all", aliases: []string{"pair density nucleus c2", "nucleus_c2"}},
	{name: "pair_density_nucleus_hf", option: "all", aliases: []string{"pair density nucleus hf", "nucleus_hf"}},
	{name: "intracule", option: "all", aliases: []string{"intracule", "intracule density"}},
	{name: "intracule_c1", option: "all", aliases: []string{"intracule c1"}},
	{name: "intracule_c2", option: "all", aliases: []string{"intracule c2"}},
	{name: "intracule_hf", option: "all", aliases: []string{"intracule hf"}},
}

var propertyByAlias = func() map[string]propertyDef {
	m := make(map[string]propertyDef)
	for _, d := range propertyDefs {
		m[d.name] = d
		for _, a := range d.aliases {
			m[normalizeAlias(a)] = d
		}
	}
	return m
}()

func normalizeAlias(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// CanonicalProperty resolves a user-supplied property name or alias to its
// canonical form.
func CanonicalProperty(name string) (string, error) {
	d, ok := propertyByAlias[normalizeAlias(name)]
	if !ok {
		return "", fmt.Errorf("unknown property %q", name)
	}
	return d.name, nil
}

// CanonicalProperties resolves, dedupes and sorts a property list. Sorting
// keeps calculation identity independent of request order.
func CanonicalProperties(names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		c, err := CanonicalProperty(n)
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

// PropertyOption returns the option column for a canonical property in the
// indicator input deck.
func PropertyOption(name string) string {
	return propertyByAlias[normalizeAlias(name)].option
}

// IsNucleusPairDensity reports whether the property needs the Hartree-Fock
// reference density matrices alongside the correlated one.
func IsNucleusPairDensity(name string) bool {
	return strings.HasPrefix(name, "pair_density_nucleus")
}

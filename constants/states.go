package constants

import "strings"

// TotalRow is the label the reports use for the aggregate row at the
// bottom of the table. It is kept out of alphabetical ordering and is
// never validated against the per-state invariants.
const TotalRow = "total"

// nigerianStates is the canonical set of state names the reports use,
// in the publisher's usual reporting order. Extraction output is
// normalized against this list; anything else is kept verbatim but
// logged so new spellings surface in the audit trail.
var nigerianStates = []string{
	"ondo", "edo", "bauchi", "taraba", "benue", "ebonyi", "kogi",
	"kaduna", "plateau", "enugu", "cross river", "rivers", "delta",
	"nasarawa", "anambra", "gombe", "niger", "imo", "jigawa", "bayelsa",
	"adamawa", "fct", "katsina", "kano", "oyo", "lagos", "ogun", "yobe",
	"sokoto", "kebbi", "zamfara", "akwa ibom", "ekiti", "kwara", "borno",
	"osun", "abia",
}

var stateSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(nigerianStates))
	for _, s := range nigerianStates {
		m[s] = struct{}{}
	}
	return m
}()

// StateNames returns the canonical state names.
func StateNames() []string {
	out := make([]string, len(nigerianStates))
	copy(out, nigerianStates)
	return out
}

// NormalizeState lowercases a state name and replaces hyphens with
// spaces, the form used everywhere downstream.
func NormalizeState(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", " "))
}

// CanonicalState normalizes a name and reports whether it is one of
// the known states (the Total row counts as known).
func CanonicalState(name string) (string, bool) {
	n := NormalizeState(name)
	if n == TotalRow {
		return n, true
	}
	_, ok := stateSet[n]
	return n, ok
}

package constants

// Rule tags attached to Invalid verdicts. The comparison tags use the
// same spelling the surveillance reports use for the invariants.
type Rule string

const (
	RuleFields             Rule = "fields"
	RuleSuspectedConfirmed Rule = "suspected≥confirmed"
	RuleSuspectedProbable  Rule = "suspected≥probable"
	RuleConfirmedDeaths    Rule = "confirmed≥deaths"
	RuleWeek               Rule = "week"
	RuleYear               Rule = "year"
)

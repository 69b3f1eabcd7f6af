package llm

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/lassa-tracker/constants"
)

// BuildInstruction composes the fixed extraction instruction for one
// enhanced table image. The column inventory and the state roster
// mirror the layout the publisher has used since 2018; the Trend
// sparkline column is explicitly excluded because it carries no value.
func BuildInstruction(year, week int) string {
	parts := []string{
		"The provided image contains a table with weekly Lassa fever case data across States in Nigeria.",
		fmt.Sprintf("This table is from the year %d report for epidemiological week %d.", year, week),
		"The table has the following columns in this exact left-to-right order:",
		"1. States, 2. Suspected, 3. Confirmed, 4. Trend (ignore this column), 5. Probable, 6. HCW*, 7. Deaths (Confirmed Cases).",
		"Return ONLY a JSON array that matches the provided JSON Schema: one object per table row, keys",
		`"state", "year", "week", "suspected", "confirmed", "probable", "hcw", "deaths".`,
		fmt.Sprintf(`Set "year" to %d and "week" to %d on every row.`, year, week),
		`Counts are non-negative integers; write "unknown" when a cell is blank or dashed. Never invent a value for an empty cell.`,
		"State names can only come from this roster (order in the image may differ, and not every state appears every week): " +
			strings.Join(constants.StateNames(), ", ") + ".",
		`Include one object per state row you see, and one final object with state "Total" for the totals row.`,
		"JSON Schema:",
	}
	return strings.Join(parts, "\n")
}

// AppendInvalidHints augments the instruction with the rows a prior
// attempt got wrong, so the next extraction re-reads those cells
// instead of repeating the same transcription.
func AppendInvalidHints(instruction string, hints []InvalidHint) string {
	if len(hints) == 0 {
		return instruction
	}
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nA previous reading of this image produced rows that violate the reporting rules ")
	b.WriteString("(suspected ≥ confirmed ≥ deaths, suspected ≥ probable). ")
	b.WriteString("Re-read these rows digit by digit; the previous values were wrong:\n")
	for _, h := range hints {
		fmt.Fprintf(&b, "- %s: %s (violated %s)\n", h.State, h.Row, h.Rule)
	}
	return b.String()
}

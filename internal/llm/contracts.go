package llm

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// Count is a case count as reported: a non-negative integer, or an
// explicit unknown when the table cell is blank or dashed. A cell the
// service returned but we could not read stays malformed so the
// consistency validator can reject the record.
type Count struct {
	Raw   string
	Known bool
	Value int
}

// KnownCount builds a parsed count, mostly for tests and hints.
func KnownCount(v int) Count {
	return Count{Raw: strconv.Itoa(v), Known: true, Value: v}
}

// UnknownCount is the explicit unknown sentinel.
func UnknownCount() Count {
	return Count{Raw: "unknown"}
}

// Unknown reports whether this is an explicit blank/unknown cell.
func (c Count) Unknown() bool {
	return !c.Known && isUnknownToken(c.Raw)
}

// Malformed reports a cell that was present but unreadable.
func (c Count) Malformed() bool {
	return !c.Known && !isUnknownToken(c.Raw)
}

func (c Count) String() string {
	if c.Known {
		return strconv.Itoa(c.Value)
	}
	if c.Unknown() {
		return "unknown"
	}
	return c.Raw
}

func isUnknownToken(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	return s == "" || s == "unknown" || s == "-" || s == "–" || s == "n/a"
}

// UnmarshalJSON accepts a JSON number, a numeric string (with optional
// thousands separators), the unknown sentinels, or null.
func (c *Count) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = UnknownCount()
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*c = ParseCount(str)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		// a non-integer number is malformed, not an error
		*c = Count{Raw: s}
		return nil
	}
	*c = Count{Raw: s, Known: true, Value: n}
	return nil
}

func (c Count) MarshalJSON() ([]byte, error) {
	if c.Known {
		return json.Marshal(c.Value)
	}
	return json.Marshal(c.String())
}

// ParseCount normalizes a cell string into a Count.
func ParseCount(raw string) Count {
	s := strings.TrimSpace(raw)
	if isUnknownToken(s) {
		return Count{Raw: s}
	}
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return Count{Raw: s}
	}
	return Count{Raw: s, Known: true, Value: n}
}

// TableRow is one row as returned on the wire by the extraction
// service, before normalization.
type TableRow struct {
	State     string `json:"state"`
	Year      int    `json:"year"`
	Week      int    `json:"week"`
	Suspected Count  `json:"suspected"`
	Confirmed Count  `json:"confirmed"`
	Probable  Count  `json:"probable"`
	HCW       Count  `json:"hcw"`
	Deaths    Count  `json:"deaths"`
}

// InvalidHint carries one prior failed record back into the retry
// instruction so the next extraction re-reads the offending cells.
type InvalidHint struct {
	State string
	Rule  string
	Row   string // rendered prior values
}

// ExtractRequest is the request boundary of the extraction capability.
type ExtractRequest struct {
	ImagePNG    []byte
	Instruction string
	PriorHints  []InvalidHint
}

// TableExtractor is the interface the orchestrator depends on. It must
// be idempotent-safe to retry; rows carry no ordering guarantee across
// calls. The second return is the raw response for audit logging.
type TableExtractor interface {
	ExtractTable(ctx context.Context, req ExtractRequest) ([]TableRow, []byte, error)
}

package constants

// AttemptState is the state of one ExtractionAttempt in the
// validate-retry state machine.
type AttemptState string

// Stable values (these exact strings appear in logs and audit rows).
const (
	AttemptPending          AttemptState = "PENDING"
	AttemptSubmitted        AttemptState = "SUBMITTED"
	AttemptParsed           AttemptState = "PARSED"
	AttemptAllValid         AttemptState = "ALL_VALID"
	AttemptPartiallyInvalid AttemptState = "PARTIALLY_INVALID"
	AttemptAllInvalid       AttemptState = "ALL_INVALID"
	AttemptCallFailed       AttemptState = "CALL_FAILED"
	AttemptAccepted         AttemptState = "ACCEPTED"
	AttemptRetryScheduled   AttemptState = "RETRY_SCHEDULED"
	AttemptExhausted        AttemptState = "EXHAUSTED"
)

// Terminal reports whether no further transitions are possible.
func (s AttemptState) Terminal() bool {
	return s == AttemptAccepted || s == AttemptExhausted
}

// PageStatus is the canonical per-page outcome stored in the audit table.
type PageStatus string

const (
	PageEnhanced       PageStatus = "ENHANCED"       // artifact exported, extraction pending
	PageExtracted      PageStatus = "EXTRACTED"      // records accepted into the dataset
	PagePartial        PageStatus = "PARTIAL"        // budget exhausted, some records kept
	PageExhausted      PageStatus = "EXHAUSTED"      // budget exhausted, nothing kept
	PageRegionNotFound PageStatus = "NO_REGION"      // marker rows absent, flagged for manual review
	PageReadFailed     PageStatus = "READ_FAILED"    // source page unreadable
	PageEnhanceFailed  PageStatus = "ENHANCE_FAILED" // crop/enhance rejected the region
)

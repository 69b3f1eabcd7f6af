package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeState(t *testing.T) {
	assert.Equal(t, "akwa ibom", NormalizeState("Akwa-Ibom"))
	assert.Equal(t, "fct", NormalizeState("  FCT "))
	assert.Equal(t, "cross river", NormalizeState("Cross River"))
}

func TestCanonicalState(t *testing.T) {
	got, ok := CanonicalState("EDO")
	assert.True(t, ok)
	assert.Equal(t, "edo", got)

	got, ok = CanonicalState("Total")
	assert.True(t, ok)
	assert.Equal(t, TotalRow, got)

	got, ok = CanonicalState("Edo Central")
	assert.False(t, ok)
	assert.Equal(t, "edo central", got)
}

func TestStateNamesIsACopy(t *testing.T) {
	names := StateNames()
	assert.Len(t, names, 37)
	names[0] = "mutated"
	again := StateNames()
	assert.Equal(t, "ondo", again[0])
}

func TestAttemptStateTerminal(t *testing.T) {
	assert.True(t, AttemptAccepted.Terminal())
	assert.True(t, AttemptExhausted.Terminal())
	assert.False(t, AttemptPending.Terminal())
	assert.False(t, AttemptRetryScheduled.Terminal())
}

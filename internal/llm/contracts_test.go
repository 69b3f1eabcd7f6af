package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw       string
		known     bool
		value     int
		unknown   bool
		malformed bool
	}{
		{raw: "42", known: true, value: 42},
		{raw: " 1,204 ", known: true, value: 1204},
		{raw: "0", known: true, value: 0},
		{raw: "", unknown: true},
		{raw: "unknown", unknown: true},
		{raw: "Unknown", unknown: true},
		{raw: "-", unknown: true},
		{raw: "–", unknown: true},
		{raw: "N/A", unknown: true},
		{raw: "3O", malformed: true}, // letter O misread for zero
		{raw: "12.5", malformed: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := ParseCount(tt.raw)
			assert.Equal(t, tt.known, c.Known)
			if tt.known {
				assert.Equal(t, tt.value, c.Value)
			}
			assert.Equal(t, tt.unknown, c.Unknown())
			assert.Equal(t, tt.malformed, c.Malformed())
		})
	}
}

func TestCountUnmarshalJSON(t *testing.T) {
	var row TableRow
	payload := `{
		"state": "Edo", "year": 2021, "week": 9,
		"suspected": 120,
		"confirmed": "45",
		"probable": "unknown",
		"hcw": null,
		"deaths": "2,001"
	}`
	require.NoError(t, json.Unmarshal([]byte(payload), &row))

	assert.Equal(t, KnownCount(120).Value, row.Suspected.Value)
	assert.True(t, row.Suspected.Known)
	assert.Equal(t, 45, row.Confirmed.Value)
	assert.True(t, row.Probable.Unknown())
	assert.True(t, row.HCW.Unknown())
	assert.Equal(t, 2001, row.Deaths.Value)
}

func TestCountUnmarshalMalformed(t *testing.T) {
	var c Count
	require.NoError(t, json.Unmarshal([]byte(`"12a"`), &c))
	assert.True(t, c.Malformed())

	require.NoError(t, json.Unmarshal([]byte(`3.7`), &c))
	assert.True(t, c.Malformed())
}

func TestCountMarshalRoundTrip(t *testing.T) {
	b, err := json.Marshal(KnownCount(7))
	require.NoError(t, err)
	assert.Equal(t, "7", string(b))

	b, err = json.Marshal(UnknownCount())
	require.NoError(t, err)
	assert.Equal(t, `"unknown"`, string(b))
}

func TestCountString(t *testing.T) {
	assert.Equal(t, "13", KnownCount(13).String())
	assert.Equal(t, "unknown", UnknownCount().String())
	assert.Equal(t, "unknown", Count{Raw: "-"}.String())
	assert.Equal(t, "x9", Count{Raw: "x9"}.String())
}

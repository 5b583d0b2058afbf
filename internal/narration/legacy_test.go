package narration

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAudit = `{"assumptions":["a"],"constraints_checked":["vireax >= 0.99"],"violations":[],"confidence":0.8,"refs":["MKone_LogicGate_Audit"]}`

func TestSplitLegacy_NoMarker(t *testing.T) {
	text, meta, err := SplitLegacy("plain narration")
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Equal(t, "plain narration", text)
}

func TestSplitLegacy_TrailingBlock(t *testing.T) {
	text, meta, err := SplitLegacy("Gate holds.\nAUDIT_BLOCK " + sampleAudit + "\ntrailing noise")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "Gate holds.\n", text)
	assert.InDelta(t, 0.8, meta.Confidence, 1e-9)
	assert.Equal(t, []string{"MKone_LogicGate_Audit"}, meta.Refs)
}

func TestSplitLegacy_UsesLastMarker(t *testing.T) {
	in := "the AUDIT_BLOCK token is reserved. AUDIT_BLOCK" + sampleAudit
	text, meta, err := SplitLegacy(in)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "the AUDIT_BLOCK token is reserved. ", text)
}

func TestSplitLegacy_MarkerWithoutObject(t *testing.T) {
	_, meta, err := SplitLegacy("text AUDIT_BLOCK")
	assert.Nil(t, meta)
	assert.True(t, errors.Is(err, ErrMissingAudit))
}

func TestSplitLegacy_SchemaViolation(t *testing.T) {
	_, meta, err := SplitLegacy(`x AUDIT_BLOCK{"confidence": 3}`)
	assert.Nil(t, meta)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate audit metadata")
}

func TestLegacyDecoder_MarkerSplitAcrossChunks(t *testing.T) {
	full := "Frame nominal. AUDIT_BLOCK" + sampleAudit
	chunks := []string{"Frame nom", "inal. AUD", "IT_BL", "OCK", sampleAudit[:10], sampleAudit[10:]}
	require.Equal(t, full, strings.Join(chunks, ""))

	var d LegacyDecoder
	var shown strings.Builder
	for _, c := range chunks {
		out := d.Feed(c)
		assert.NotContains(t, out, "AUD")
		shown.WriteString(out)
	}
	rest, meta, err := d.Finish()
	require.NoError(t, err)
	require.NotNil(t, meta)
	shown.WriteString(rest)

	assert.True(t, d.Found())
	assert.Equal(t, "Frame nominal. ", shown.String())
}

func TestLegacyDecoder_HeldSuffixFlushedWithoutMarker(t *testing.T) {
	var d LegacyDecoder
	out := d.Feed("ends with AUDIT")
	assert.Equal(t, "ends with ", out)

	rest, meta, err := d.Finish()
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Equal(t, "AUDIT", rest)
}

func TestLegacyDecoder_RepeatedMarkerKeepsNarrative(t *testing.T) {
	var d LegacyDecoder
	shown := d.Feed("a AUDIT_BLOCK b ")
	shown += d.Feed("AUDIT_BLOCK" + sampleAudit)

	rest, meta, err := d.Finish()
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "a AUDIT_BLOCK b ", shown+rest)
}

const markerInPayload = `{"confidence":0.7,"refs":["AUDIT_BLOCK-spec"]}`

func TestSplitLegacy_MarkerInsidePayload(t *testing.T) {
	text, meta, err := SplitLegacy("Narrative. AUDIT_BLOCK" + markerInPayload)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "Narrative. ", text)
	assert.Equal(t, []string{"AUDIT_BLOCK-spec"}, meta.Refs)
}

func TestSplitLegacy_NoValidBlockHidesEverythingAfterFirstMarker(t *testing.T) {
	text, meta, err := SplitLegacy(`Narrative. AUDIT_BLOCK{"confidence":7,"refs":["AUDIT_BLOCK-x"]}`)
	assert.Nil(t, meta)
	require.Error(t, err)
	assert.Equal(t, "Narrative. ", text)
}

func TestLegacyDecoder_MarkerInsidePayload(t *testing.T) {
	var d LegacyDecoder
	shown := d.Feed("Narrative. AUDIT_")
	shown += d.Feed("BLOCK" + markerInPayload[:30])
	shown += d.Feed(markerInPayload[30:])

	rest, meta, err := d.Finish()
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "Narrative. ", shown+rest)
	assert.InDelta(t, 0.7, meta.Confidence, 1e-9)
	assert.Equal(t, []string{"AUDIT_BLOCK-spec"}, meta.Refs)
}

func TestDecodeAudit_RequiresConfidence(t *testing.T) {
	_, err := DecodeAudit([]byte(`{"refs":["x"]}`))
	require.Error(t, err)

	meta, err := DecodeAudit([]byte(`{"confidence":0}`))
	require.NoError(t, err)
	assert.Zero(t, meta.Confidence)
}

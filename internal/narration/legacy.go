package narration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// LegacyMarker precedes the audit JSON in the legacy in-band format.
const LegacyMarker = "AUDIT_BLOCK"

// #region legacy-split
// SplitLegacy separates narrative text from a trailing legacy audit block:
// a LegacyMarker, then one JSON object; anything after the object is
// ignored. The payload may itself contain the marker, so occurrences are
// tried from last to first and the last one followed by a valid block wins.
// When none decodes, the text before the first marker is returned with the
// error for that marker. Text without the marker is returned whole with a
// nil audit.
func SplitLegacy(text string) (string, *AuditMetadata, error) {
	first := strings.Index(text, LegacyMarker)
	if first < 0 {
		return text, nil, nil
	}
	var firstErr error
	for end := len(text); ; {
		idx := strings.LastIndex(text[:end], LegacyMarker)
		if idx < 0 {
			break
		}
		meta, err := decodeLegacyTail(text[idx+len(LegacyMarker):])
		if err == nil {
			return text[:idx], &meta, nil
		}
		firstErr = err
		end = idx
	}
	return text[:first], nil, firstErr
}

func decodeLegacyTail(tail string) (AuditMetadata, error) {
	start := strings.IndexByte(tail, '{')
	if start < 0 {
		return AuditMetadata{}, ErrMissingAudit
	}

	var raw json.RawMessage
	dec := json.NewDecoder(strings.NewReader(tail[start:]))
	if err := dec.Decode(&raw); err != nil {
		return AuditMetadata{}, fmt.Errorf("decode legacy audit block: %w", err)
	}
	return DecodeAudit(raw)
}

// #endregion legacy-split

// #region legacy-decoder
// LegacyDecoder applies SplitLegacy incrementally. Feed returns the text
// that is safe to display; a suffix that could begin the marker is held
// back until the next Feed or Finish.
type LegacyDecoder struct {
	held  string
	found bool
	tail  bytes.Buffer
}

// Feed consumes a chunk and returns displayable narrative.
func (d *LegacyDecoder) Feed(s string) string {
	if d.found {
		d.tail.WriteString(s)
		return ""
	}

	buf := d.held + s
	if idx := strings.Index(buf, LegacyMarker); idx >= 0 {
		d.found = true
		d.held = ""
		d.tail.WriteString(buf[idx+len(LegacyMarker):])
		return buf[:idx]
	}

	keep := partialMarkerSuffix(buf)
	d.held = buf[len(buf)-keep:]
	return buf[:len(buf)-keep]
}

// Found reports whether the marker has been seen.
func (d *LegacyDecoder) Found() bool {
	return d.found
}

// Finish flushes held text and decodes the audit block, if any. Everything
// after the first marker is resolved with SplitLegacy, so narrative between
// an earlier marker and the block is returned.
func (d *LegacyDecoder) Finish() (string, *AuditMetadata, error) {
	if !d.found {
		rest := d.held
		d.held = ""
		return rest, nil, nil
	}

	tail := d.tail.String()
	d.tail.Reset()
	return SplitLegacy(LegacyMarker + tail)
}

// partialMarkerSuffix returns the length of the longest suffix of s that is
// a proper prefix of LegacyMarker.
func partialMarkerSuffix(s string) int {
	n := len(LegacyMarker) - 1
	if n > len(s) {
		n = len(s)
	}
	for ; n > 0; n-- {
		if strings.HasPrefix(LegacyMarker, s[len(s)-n:]) {
			return n
		}
	}
	return 0
}

// #endregion legacy-decoder

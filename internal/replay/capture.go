package replay

// #region capture

// Capture turns a replay into golden expectations: one entry per slot where
// the gate status, run state or active contradiction changed, plus the
// final slot. Every captured entry pins all fields.
func Capture(results []SlotResult) []FixtureExpectedResult {
	var out []FixtureExpectedResult
	for i, r := range results {
		last := i == len(results)-1
		if i > 0 && !last {
			p := results[i-1]
			if p.Status == r.Status && p.Running == r.Running && p.ContradictionID == r.ContradictionID {
				continue
			}
		}
		goFrames, noGoFrames, frame, ct := r.ConsecutiveGo, r.ConsecutiveNoGo, r.Frame, r.ContradictionID
		out = append(out, FixtureExpectedResult{
			Slot:            r.Slot,
			Status:          string(r.Status),
			ConsecutiveGo:   &goFrames,
			ConsecutiveNoGo: &noGoFrames,
			Frame:           &frame,
			Contradiction:   &ct,
		})
	}
	return out
}

// #endregion capture

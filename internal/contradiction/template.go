package contradiction

import "fmt"

// #region template
// NewEvent stamps the fixed contradiction template with the triggering tick.
// Every call returns freshly allocated maps and slices.
func NewEvent(tick int64) *Event {
	return &Event{
		ID:        fmt.Sprintf("CT-%06d", tick),
		Event:     "contradiction_trap",
		Timestamp: tick,
		Inputs: map[string]string{
			"P1": "Snapshot psi-integrity is reported as 1.000 for the audited window.",
			"P2": "The same window logs a recovered write after a temporal drift spike.",
			"P3": "A recovered write implies at least one snapshot was not integral.",
		},
		Formalization: map[string]string{
			"P1": "∀s ∈ W: Integral(s)",
			"P2": "∃s ∈ W: Recovered(s)",
			"P3": "∀s: Recovered(s) → ¬Integral(s)",
		},
		Result: Result{
			Classification: "INCONSISTENT",
			Explanation:    "P2 and P3 entail ∃s ∈ W: ¬Integral(s), contradicting P1. At least one premise must be revised.",
		},
		Repairs: []Repair{
			{
				Type:   "weaken_premise",
				Change: "Restate P1 as integrity ≥ 0.999 outside recovery windows.",
				Cost:   "low",
				Notes:  "Preserves the dashboard claim while excluding recovered snapshots.",
			},
			{
				Type:   "retract_observation",
				Change: "Mark the recovered write in P2 as unverified pending replay.",
				Cost:   "medium",
				Notes:  "Requires replaying the drift window before the log can be trusted.",
			},
			{
				Type:   "revise_rule",
				Change: "Replace P3 with Recovered(s) → Degraded(s).",
				Cost:   "high",
				Notes:  "Changes the integrity model for every downstream audit.",
			},
		},
		Assumptions: []string{
			"Snapshot window W is closed and fully logged.",
			"Recovery events are recorded synchronously with the write path.",
		},
		ConstraintsChecked: []string{
			"A1: outputs traceable to inputs",
			"A3: contradictions formalized in FOL",
			"A4: telemetry cited (γ, v, Δt, ε)",
		},
		Violations: []string{
			"A3: P1 ∧ P2 ∧ P3 ⊢ ⊥",
		},
		Confidence: 0.87,
		Refs: []string{
			"MKone_LogicGate_Audit",
			fmt.Sprintf("frame:%d", tick),
		},
	}
}

// #endregion template

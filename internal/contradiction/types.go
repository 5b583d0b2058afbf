package contradiction

// #region event
// Event is a simulated logic-audit artifact. Events are immutable once
// created; the scheduler replaces or clears them, never edits them.
type Event struct {
	ID                 string            `json:"id"`
	Event              string            `json:"event"`
	Timestamp          int64             `json:"timestamp"` // triggering tick
	Inputs             map[string]string `json:"inputs"`
	Formalization      map[string]string `json:"formalization"`
	Result             Result            `json:"result"`
	Repairs            []Repair          `json:"repairs_minimal"`
	Assumptions        []string          `json:"assumptions"`
	ConstraintsChecked []string          `json:"constraints_checked"`
	Violations         []string          `json:"violations"`
	Confidence         float64           `json:"confidence"`
	Refs               []string          `json:"refs"`
}

// Result is the audit verdict for an event.
type Result struct {
	Classification string `json:"classification"`
	Explanation    string `json:"explanation"`
}

// Repair is one minimal-change candidate. Cost is "low" | "medium" | "high".
type Repair struct {
	Type   string `json:"type"`
	Change string `json:"change"`
	Cost   string `json:"cost"`
	Notes  string `json:"notes"`
}

// #endregion event

// #region scheduler-config
// SchedulerConfig holds the trigger and clear moduli.
type SchedulerConfig struct {
	TriggerEvery int64 `yaml:"trigger_every"`
	ClearEvery   int64 `yaml:"clear_every"`
}

// DefaultSchedulerConfig returns the 300/500 tick cadence.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		TriggerEvery: 300,
		ClearEvery:   500,
	}
}

// #endregion scheduler-config

package journal

import (
	"time"

	"github.com/danielpatrickdp/mirror-console/internal/gate"
)

// #region transition
// Transition is one observed gate status change.
type Transition struct {
	ID              int64       `json:"id"`
	RunID           string      `json:"runId"`
	Frame           int64       `json:"frame"`
	From            gate.Status `json:"from"`
	To              gate.Status `json:"to"`
	ConsecutiveGo   int         `json:"consecutiveGoFrames"`
	ConsecutiveNoGo int         `json:"consecutiveNoGoFrames"`
	Cause           Cause       `json:"cause"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Cause says what moved the gate.
type Cause string

const (
	CauseTick  Cause = "tick"
	CauseStart Cause = "run_started"
	CauseStop  Cause = "run_stopped"
)

// #endregion transition

// #region contradiction-entry
// Action is a contradiction lifecycle step.
type Action string

const (
	ActionRaised  Action = "raised"
	ActionCleared Action = "cleared"
)

// ContradictionEntry records a contradiction event being raised or cleared.
type ContradictionEntry struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"runId"`
	EventID     string    `json:"eventId"`
	Action      Action    `json:"action"`
	Frame       int64     `json:"frame"`
	PayloadJSON string    `json:"payload,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// #endregion contradiction-entry

// #region run
// Run summarises one process's entries.
type Run struct {
	ID             string    `json:"runId"`
	StartedAt      time.Time `json:"startedAt"`
	Transitions    int       `json:"transitions"`
	Contradictions int       `json:"contradictions"`
}

// #endregion run

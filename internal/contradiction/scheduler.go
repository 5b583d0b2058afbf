package contradiction

// #region scheduler
// Scheduler materializes and clears the active contradiction event.
type Scheduler struct {
	config SchedulerConfig
}

// NewScheduler creates a scheduler with the given cadence.
func NewScheduler(config SchedulerConfig) *Scheduler {
	return &Scheduler{config: config}
}

// Next returns the active event after tick t. The trigger check runs before
// the clear check, so a tick that hits both moduli (e.g. 1500) sets and then
// immediately clears. Identical inputs always produce identical outputs.
func (s *Scheduler) Next(t int64, active *Event) *Event {
	next := active

	if t > 0 && s.config.TriggerEvery > 0 && t%s.config.TriggerEvery == 0 && next == nil {
		next = NewEvent(t)
	}
	if s.config.ClearEvery > 0 && t%s.config.ClearEvery == 0 {
		next = nil
	}

	return next
}

// #endregion scheduler

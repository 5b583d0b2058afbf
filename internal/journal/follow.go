package journal

import (
	"context"
	"encoding/json"

	"github.com/danielpatrickdp/mirror-console/internal/sim"
)

// #region follow
// Follow records the differences between consecutive snapshots until ch is
// closed or ctx is done. Subscribers receive latest-wins delivery, so a
// journal that falls behind records the net change between the snapshots it
// did see.
func (j *Journal) Follow(ctx context.Context, ch <-chan *sim.SimulationState) error {
	var prev *sim.SimulationState
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case next, ok := <-ch:
			if !ok {
				return nil
			}
			if prev != nil {
				if err := j.Observe(prev, next); err != nil {
					j.logger.Printf("[JOURNAL] %v", err)
				}
			}
			prev = next
		}
	}
}

// Observe records what changed from prev to next. Changes made by a tick
// are stamped with that tick; changes made by a toggle, where no tick ran,
// with the next tick to generate.
func (j *Journal) Observe(prev, next *sim.SimulationState) error {
	frame := changeFrame(prev, next)
	if prev.GateStatus != next.GateStatus {
		cause := CauseTick
		switch {
		case !prev.IsRunning && next.IsRunning:
			cause = CauseStart
		case prev.IsRunning && !next.IsRunning:
			cause = CauseStop
		}
		err := j.RecordTransition(Transition{
			Frame:           frame,
			From:            prev.GateStatus,
			To:              next.GateStatus,
			ConsecutiveGo:   next.ConsecutiveGoFrames,
			ConsecutiveNoGo: next.ConsecutiveNoGoFrames,
			Cause:           cause,
		})
		if err != nil {
			return err
		}
	}

	was, now := prev.ActiveContradiction, next.ActiveContradiction
	if was != nil && (now == nil || now.ID != was.ID) {
		if err := j.RecordContradiction(ContradictionEntry{
			EventID: was.ID,
			Action:  ActionCleared,
			Frame:   frame,
		}); err != nil {
			return err
		}
	}
	if now != nil && (was == nil || now.ID != was.ID) {
		payload, err := json.Marshal(now)
		if err != nil {
			return err
		}
		if err := j.RecordContradiction(ContradictionEntry{
			EventID:     now.ID,
			Action:      ActionRaised,
			Frame:       frame,
			PayloadJSON: string(payload),
		}); err != nil {
			return err
		}
	}
	return nil
}

func changeFrame(prev, next *sim.SimulationState) int64 {
	if prev.IsRunning != next.IsRunning {
		return next.CurrentFrame
	}
	if latest, ok := next.Latest(); ok {
		return latest.Timestamp
	}
	return next.CurrentFrame
}

// #endregion follow

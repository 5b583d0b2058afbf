package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/mirror-console/internal/contradiction"
	"github.com/danielpatrickdp/mirror-console/internal/journal"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to a journal SQLite file")
	last := flag.Int("last", 20, "show N most recent entries")
	runID := flag.String("run", "", "only show entries from this run")
	event := flag.String("event", "", "show one contradiction event in detail (e.g. CT-000300)")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/journal.db [--last N] [--run id] [--event CT-000300] [--json]")
		os.Exit(2)
	}

	j, err := journal.OpenExisting(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open journal: %v\n", err)
		os.Exit(1)
	}
	defer j.Close()

	if *event != "" {
		err = runEventMode(j, *event, *runID, *jsonOut)
	} else {
		err = runListMode(j, *last, *runID, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listOutput struct {
	Runs           []journal.Run                `json:"runs"`
	Transitions    []journal.Transition         `json:"transitions"`
	Contradictions []journal.ContradictionEntry `json:"contradictions"`
}

func runListMode(j *journal.Journal, last int, runID string, jsonOut bool) error {
	runs, err := j.Runs()
	if err != nil {
		return err
	}
	transitions, err := j.Transitions(0)
	if err != nil {
		return err
	}
	contradictions, err := j.Contradictions(0)
	if err != nil {
		return err
	}

	out := listOutput{
		Runs:           runs,
		Transitions:    tail(filterRun(transitions, runID, func(t journal.Transition) string { return t.RunID }), last),
		Contradictions: tail(filterRun(contradictions, runID, func(c journal.ContradictionEntry) string { return c.RunID }), last),
	}
	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("%-12s  %-24s  %11s  %14s\n", "Run", "Started", "Transitions", "Contradictions")
	fmt.Printf("%-12s+-%-24s+-%11s+-%14s\n", "------------", "------------------------", "-----------", "--------------")
	for _, r := range runs {
		fmt.Printf("%-12s  %-24s  %11d  %14d\n", shortID(r.ID), r.StartedAt.Format("2006-01-02T15:04:05Z"), r.Transitions, r.Contradictions)
	}

	fmt.Printf("\nGate transitions (latest %d):\n", len(out.Transitions))
	fmt.Printf("%-12s  %8s  %-11s  %-11s  %4s  %5s  %s\n", "Run", "Frame", "From", "To", "Go", "NoGo", "Cause")
	for _, t := range out.Transitions {
		fmt.Printf("%-12s  %8d  %-11s  %-11s  %4d  %5d  %s\n",
			shortID(t.RunID), t.Frame, t.From, t.To, t.ConsecutiveGo, t.ConsecutiveNoGo, t.Cause)
	}

	fmt.Printf("\nContradictions (latest %d):\n", len(out.Contradictions))
	fmt.Printf("%-12s  %-10s  %-8s  %8s\n", "Run", "Event", "Action", "Frame")
	for _, c := range out.Contradictions {
		fmt.Printf("%-12s  %-10s  %-8s  %8d\n", shortID(c.RunID), c.EventID, c.Action, c.Frame)
	}
	return nil
}

// #endregion list-mode

// #region event-mode

func runEventMode(j *journal.Journal, eventID, runID string, jsonOut bool) error {
	entries, err := j.Contradictions(0)
	if err != nil {
		return err
	}

	var raised *journal.ContradictionEntry
	for i := range entries {
		e := entries[i]
		if e.EventID == eventID && e.Action == journal.ActionRaised && (runID == "" || e.RunID == runID) {
			raised = &e
		}
	}
	if raised == nil || raised.PayloadJSON == "" {
		return fmt.Errorf("no raised event %s in journal", eventID)
	}

	var ev contradiction.Event
	if err := json.Unmarshal([]byte(raised.PayloadJSON), &ev); err != nil {
		return fmt.Errorf("parse event payload: %w", err)
	}
	if jsonOut {
		return printJSON(ev)
	}

	fmt.Printf("Event:          %s (%s)\n", ev.ID, ev.Event)
	fmt.Printf("Run:            %s\n", raised.RunID)
	fmt.Printf("Frame:          %d\n", ev.Timestamp)
	fmt.Printf("Classification: %s\n", ev.Result.Classification)
	fmt.Printf("Explanation:    %s\n", ev.Result.Explanation)
	fmt.Printf("Confidence:     %.2f\n", ev.Confidence)
	fmt.Println("\nRepairs:")
	for _, r := range ev.Repairs {
		fmt.Printf("  [%-6s] %-20s %s\n", r.Cost, r.Type, r.Change)
	}
	fmt.Println("\nViolations:")
	for _, v := range ev.Violations {
		fmt.Printf("  %s\n", v)
	}
	return nil
}

// #endregion event-mode

// #region helpers

func filterRun[T any](items []T, runID string, id func(T) string) []T {
	if runID == "" {
		return items
	}
	var out []T
	for _, it := range items {
		if id(it) == runID {
			out = append(out, it)
		}
	}
	return out
}

func tail[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[len(items)-n:]
	}
	return items
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers

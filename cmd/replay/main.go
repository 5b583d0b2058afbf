package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/danielpatrickdp/mirror-console/internal/journal"
	"github.com/danielpatrickdp/mirror-console/internal/replay"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	seedA := flag.Uint64("seed-a", 0, "PCG seed (seed mode)")
	seedB := flag.Uint64("seed-b", 0, "PCG stream (seed mode)")
	slots := flag.Int("slots", 2000, "clock slots to run (seed mode)")
	journalPath := flag.String("journal", "", "write gate/contradiction journal to this SQLite file")
	flag.Parse()

	seedMode := *seedA != 0 || *seedB != 0
	if (*fixturePath == "") == !seedMode {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--journal out.db]")
		fmt.Fprintln(os.Stderr, "       replay --seed-a 7 --seed-b 11 [--slots 2000] [--journal out.db]")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, *journalPath)
	} else {
		exitCode = runSeedMode(*seedA, *seedB, *slots, *journalPath)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region modes

func runFixtureMode(path, journalPath string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results := replay.Replay(f.Source(), f.Slots, f.Toggles, f.Config.ToReplayConfig())
	if err := writeJournal(journalPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "journal: %v\n", err)
		return 2
	}

	return printComparison(results, f.ExpectedResults)
}

func runSeedMode(a, b uint64, slots int, journalPath string) int {
	source := replay.SeededSource(telemetry.DefaultGeneratorConfig(), a, b)
	results := replay.Replay(source, slots, []int{0}, replay.DefaultReplayConfig())
	if err := writeJournal(journalPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "journal: %v\n", err)
		return 2
	}
	printSummary(replay.Summarize(results))
	return 0
}

func writeJournal(path string, results []replay.SlotResult) error {
	if path == "" || len(results) == 0 {
		return nil
	}
	j, err := journal.Open(path, log.New(os.Stderr, "", log.LstdFlags))
	if err != nil {
		return err
	}
	defer j.Close()

	for i := 1; i < len(results); i++ {
		if err := j.Observe(results[i-1].Snapshot, results[i].Snapshot); err != nil {
			return err
		}
	}
	fmt.Printf("journal: run %s written to %s\n", j.RunID(), path)
	return nil
}

// #endregion modes

// #region output

// printComparison outputs a comparison table and returns exit code.
func printComparison(results []replay.SlotResult, expected []replay.FixtureExpectedResult) int {
	fmt.Printf("%-8s| %-12s| %-8s| %-5s| %-5s| %s\n", "Slot", "Status", "Frame", "Go", "NoGo", "Contradiction")
	fmt.Printf("%-8s+%-13s+%-9s+%-6s+%-6s+%s\n",
		"--------", "-------------", "---------", "------", "------", "--------------")
	for _, e := range expected {
		if e.Slot < 0 || e.Slot >= len(results) {
			continue
		}
		r := results[e.Slot]
		fmt.Printf("%-8d| %-12s| %-8d| %-5d| %-5d| %s\n",
			r.Slot, r.Status, r.Frame, r.ConsecutiveGo, r.ConsecutiveNoGo, r.ContradictionID)
	}

	mismatches := replay.Compare(results, expected)
	for _, m := range mismatches {
		fmt.Printf("DIFF slot %d %s: expected %q, replayed %q\n", m.Slot, m.Field, m.Expected, m.Replayed)
	}

	fmt.Println()
	printSummary(replay.Summarize(results))
	fmt.Printf("Checks: %d expected, %d diverge\n", len(expected), len(mismatches))

	if len(mismatches) > 0 {
		return 1
	}
	return 0
}

func printSummary(s replay.ReplaySummary) {
	fmt.Printf("Summary: %d slots, %d frames (final T+%06d), GO %d / STABILIZING %d / NO-GO %d, %d transitions, %d contradictions\n",
		s.TotalSlots, s.Frames, s.FinalFrame, s.GoSlots, s.StabilizeSlots, s.NoGoSlots, s.Transitions, s.Contradictions)
}

// #endregion output

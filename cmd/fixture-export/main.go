package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/mirror-console/internal/replay"
)

// #region main

func main() {
	seedA := flag.Uint64("seed-a", 0, "PCG seed")
	seedB := flag.Uint64("seed-b", 0, "PCG stream")
	script := flag.String("script", "", "health script instead of a seed ('U' marks an unhealthy tick)")
	slots := flag.Int("slots", 1000, "clock slots to record")
	toggles := flag.String("toggles", "0", "comma-separated slots at which the clock is toggled")
	outPath := flag.String("out", "", "output fixture JSON path")
	description := flag.String("description", "", "fixture description")
	flag.Parse()

	seeded := *seedA != 0 || *seedB != 0
	if *outPath == "" || seeded == (*script != "") {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --seed-a 7 --seed-b 11 --out fixture.json [--slots N] [--toggles 0,900]")
		fmt.Fprintln(os.Stderr, "       fixture-export --script HHHHHUU --out fixture.json [--toggles 0]")
		os.Exit(2)
	}

	toggleSlots, err := parseSlots(*toggles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "toggles: %v\n", err)
		os.Exit(2)
	}

	f := replay.Fixture{
		Description: *description,
		Slots:       *slots,
		Toggles:     toggleSlots,
	}
	if seeded {
		f.Seed = &replay.FixtureSeed{A: *seedA, B: *seedB}
	} else {
		f.Script = *script
	}

	if err := run(&f, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(f *replay.Fixture, outPath string) error {
	results := replay.Replay(f.Source(), f.Slots, f.Toggles, f.Config.ToReplayConfig())
	f.ExpectedResults = replay.Capture(results)
	if f.Description == "" {
		s := replay.Summarize(results)
		f.Description = fmt.Sprintf("recorded run: %d slots, %d frames, %d transitions, %d contradictions",
			s.TotalSlots, s.Frames, s.Transitions, s.Contradictions)
	}
	return writeFixture(*f, outPath)
}

func parseSlots(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("slot %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func writeFixture(fixture replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d expectations)\n", outPath, len(data), len(fixture.ExpectedResults))
	return nil
}

// #endregion export

package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"poolScope/internal/engine"
)

// TextSink prints a human readable line per engine. Ranked reports also
// list their entries and skipped pools.
type TextSink struct {
	path string
	w    io.Writer
}

func (s *TextSink) PutRun(records []OutcomeRecord) error {
	w := s.w
	if s.path != "" {
		if err := ensureDir(s.path); err != nil {
			return err
		}
		file, err := os.Create(s.path)
		if err != nil {
			return fmt.Errorf("open output file: %w", err)
		}
		defer file.Close()
		w = file
	}

	buf := bufio.NewWriter(w)
	for _, rec := range records {
		if rec.Status == statusError {
			fmt.Fprintf(buf, "%s: FAILED: %s\n", rec.Engine, rec.Error)
			continue
		}
		fmt.Fprintf(buf, "%s: %s\n", rec.Engine, rec.Summary)

		ranked, ok := rec.Report.(*engine.RankedReport)
		if !ok {
			continue
		}
		for pos, entry := range ranked.Ranked {
			fmt.Fprintf(buf, "  %3d. %-12s %-8s %s/%s score=%.6f\n",
				pos+1, entry.Pool.DexName, entry.Pool.Chain, entry.Pool.Token0, entry.Pool.Token1, entry.Score)
		}
		for _, skip := range ranked.Skipped {
			fmt.Fprintf(buf, "  skipped #%d %s (%s): %s\n", skip.Index, skip.DexName, skip.Chain, skip.Reason)
		}
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

package ui

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/brogergvhs/mangameta/internal/util"
)

// Stats collects download totals across chapter workers.
type Stats struct {
	TotalImages    atomic.Int64
	TotalBytes     atomic.Int64
	TotalChapters  atomic.Int64
	FailedChapters atomic.Int64
	SkippedImages  atomic.Int64
}

func (s *Stats) Summary(w io.Writer, elapsed time.Duration) {
	_, _ = fmt.Fprintln(w, "Download Summary:")
	_, _ = fmt.Fprintf(w, "Chapters: %d\n", s.TotalChapters.Load())
	if failed := s.FailedChapters.Load(); failed > 0 {
		_, _ = fmt.Fprintf(w, "Failed:   %d\n", failed)
	}
	_, _ = fmt.Fprintf(w, "Images:   %d\n", s.TotalImages.Load())
	if skipped := s.SkippedImages.Load(); skipped > 0 {
		_, _ = fmt.Fprintf(w, "Skipped:  %d\n", skipped)
	}
	_, _ = fmt.Fprintf(w, "Data:     %s\n", util.Human(s.TotalBytes.Load()))
	_, _ = fmt.Fprintf(w, "Time:     %s\n", elapsed.Round(time.Second))
}

package ui

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/brogergvhs/mangameta/internal/util"
)

// ProgressManager draws one bar per chapter being downloaded.
type ProgressManager struct {
	p *mpb.Progress
}

func NewProgressManager(out io.Writer) *ProgressManager {
	p := mpb.New(
		mpb.WithWidth(52),
		mpb.WithOutput(out),
		mpb.WithRefreshRate(120*time.Millisecond),
	)

	return &ProgressManager{p: p}
}

// Wait blocks until every bar has completed or been aborted.
func (pm *ProgressManager) Wait() {
	pm.p.Wait()
}

func (pm *ProgressManager) Register(label string) *ProgressHandle {
	h := &ProgressHandle{start: time.Now()}
	h.bar = pm.p.New(0,
		mpb.BarStyle().Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(label+"  "),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncWidth),
			decor.CountersNoUnit(" | %d/%d pages", decor.WCSyncWidth),
			decor.Any(func(decor.Statistics) string {
				return " | " + util.Human(h.bytes.Load())
			}),
			decor.Any(func(decor.Statistics) string {
				return fmt.Sprintf(" | %ds", h.seconds())
			}),
		),
	)

	return h
}

// ProgressHandle tracks one chapter. It is safe for concurrent use.
type ProgressHandle struct {
	bar   *mpb.Bar
	start time.Time

	total   atomic.Int64
	bytes   atomic.Int64
	elapsed atomic.Int64
	final   atomic.Bool
}

func (h *ProgressHandle) seconds() int64 {
	if h.final.Load() {
		return h.elapsed.Load()
	}

	return int64(time.Since(h.start).Seconds())
}

func (h *ProgressHandle) SetTotal(total int) {
	if h.final.Load() {
		return
	}

	h.total.Store(int64(total))
	h.bar.SetTotal(int64(total), false)
}

func (h *ProgressHandle) Update(done, total int, bytes int64) {
	if h.final.Load() {
		return
	}

	if total > 0 {
		h.SetTotal(total)
	}
	h.bytes.Store(bytes)
	h.bar.SetCurrent(int64(done))
}

func (h *ProgressHandle) MarkDone() {
	if h.final.Swap(true) {
		return
	}

	h.elapsed.Store(int64(time.Since(h.start).Seconds()))
	h.bar.SetCurrent(h.total.Load())
	h.bar.SetTotal(h.total.Load(), true)
}

// Abort removes the bar of a chapter that failed before its pages were
// known.
func (h *ProgressHandle) Abort() {
	if h.final.Swap(true) {
		return
	}

	h.bar.Abort(true)
}

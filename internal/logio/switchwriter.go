package logio

import (
	"io"
	"sync"
)

// SwitchWriter is an io.Writer whose destination can be swapped out
// mid-stream. Grounded on rtcmlogger/log/writer.go's use of
// switchWriter.Writer, whose lw.switchWriter.SwitchTo(nil) detaches the
// log from its current file at a rollover boundary; that module lives
// outside this corpus, so this is a from-scratch reimplementation of
// the same "swap destination, keep writing" shape, sized for this
// package's one user: the clean verb re-targeting a fresh output file
// at each timestamp jump (spec.md §6, "clean").
type SwitchWriter struct {
	mu  sync.Mutex
	dst io.Writer
}

// NewSwitchWriter wraps an initial destination, which may be nil (all
// writes are discarded until SwitchTo supplies one).
func NewSwitchWriter(dst io.Writer) *SwitchWriter {
	return &SwitchWriter{dst: dst}
}

// SwitchTo re-targets subsequent writes to dst. Passing nil discards
// subsequent writes until the next SwitchTo.
func (sw *SwitchWriter) SwitchTo(dst io.Writer) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.dst = dst
}

// Write implements io.Writer, sending to the current destination.
func (sw *SwitchWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	dst := sw.dst
	sw.mu.Unlock()
	if dst == nil {
		return len(p), nil
	}
	return dst.Write(p)
}

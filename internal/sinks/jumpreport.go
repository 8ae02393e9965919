package sinks

import (
	"fmt"
	"io"

	"github.com/goblimey/go-runlog/internal/byteutil"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/schema"
)

const jumpThreshold = 50000

// JumpReport reports discontinuities — a decrease, or an increase past
// jumpThreshold — in both the logger timestamp and the gps timestamp.
// Grounded on timestamp_reporter.hpp.
type JumpReport struct {
	w                io.Writer
	lastTimestamp    uint32
	lastGPSTimestamp uint32
	foundGPS         bool
}

// NewJumpReport wraps w.
func NewJumpReport(w io.Writer) *JumpReport { return &JumpReport{w: w} }

// GPSFound reports whether any gps_time_storage event was seen.
func (j *JumpReport) GPSFound() bool { return j.foundGPS }

// Handle implements handler.Handler.
func (j *JumpReport) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	payload := bytes[begin+1 : end-1]
	switch kind {
	case schema.KindTimestamp:
		v := byteutil.GetBEUint3(payload)
		if err := j.report("log jump", j.lastTimestamp, v); err != nil {
			return err
		}
		j.lastTimestamp = v
	case schema.KindGPSTimeStorage:
		j.foundGPS = true
		v := uint32(byteutil.GetBEUint(payload[2:6], 4))
		if err := j.report("gps jump", j.lastGPSTimestamp, v); err != nil {
			return err
		}
		j.lastGPSTimestamp = v
	}
	return nil
}

func (j *JumpReport) report(label string, last, current uint32) error {
	if last == 0 {
		return nil
	}
	if last > current {
		_, err := fmt.Fprintf(j.w, "%s: %d -> %d -%d\n", label, last, current, last-current)
		return err
	}
	if current-last > jumpThreshold {
		_, err := fmt.Fprintf(j.w, "%s: %d -> %d +%d\n", label, last, current, current-last)
		return err
	}
	return nil
}

var _ handler.Handler = (*JumpReport)(nil)

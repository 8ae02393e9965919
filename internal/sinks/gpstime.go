package sinks

import (
	"fmt"
	"io"

	"github.com/goblimey/go-runlog/internal/byteutil"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/schema"
)

const (
	slowClockThreshold    = 50 // ticks/s below this is "slow"
	slowClockCountTrigger = 10 // consecutive slow samples before flagging
)

// GPSTime prints one line per gps_time_storage event — the last seen
// logger timestamp, the gps time of week, and the average logger
// clock rate (ticks/s) since the previous gps sample — and flags the
// file (once) to a separate writer if that rate stays below
// slowClockThreshold for more than slowClockCountTrigger consecutive
// samples. Grounded on gps_time_printer.hpp.
type GPSTime struct {
	out, warn io.Writer
	filename  string

	lastTimestamp      uint32
	lastGPSTimestamp   uint32
	lastTimestampAtGPS uint32
	slowClockCount     int
	flagged            bool
}

// NewGPSTime wraps out (per-sample reports) and warn (the flagged
// filename, written at most once). filename is what gets written to
// warn.
func NewGPSTime(out, warn io.Writer, filename string) *GPSTime {
	return &GPSTime{out: out, warn: warn, filename: filename}
}

// Handle implements handler.Handler.
func (g *GPSTime) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	payload := bytes[begin+1 : end-1]
	switch kind {
	case schema.KindTimestamp:
		g.lastTimestamp = byteutil.GetBEUint3(payload)
		return nil
	case schema.KindGPSTimeStorage:
		return g.onGPSTime(payload)
	}
	return nil
}

func (g *GPSTime) onGPSTime(payload []byte) error {
	msOfWeek := uint32(byteutil.GetBEUint(payload[2:6], 4))

	gpsInterval := msOfWeek - g.lastGPSTimestamp
	loggerInterval := g.lastTimestamp - g.lastTimestampAtGPS
	var rate float64
	if gpsInterval > 0 {
		rate = 1000.0 * float64(loggerInterval) / float64(gpsInterval)
	}

	if !g.flagged {
		if rate < slowClockThreshold {
			g.slowClockCount++
			if g.slowClockCount > slowClockCountTrigger {
				if _, err := fmt.Fprintf(g.warn, "%s\n", g.filename); err != nil {
					return err
				}
				g.flagged = true
			}
		} else {
			g.slowClockCount = 0
		}
	}

	if _, err := fmt.Fprintf(g.out, "%d\t%d\t%.5g\n", g.lastTimestamp, msOfWeek, rate); err != nil {
		return err
	}

	g.lastGPSTimestamp = msOfWeek
	g.lastTimestampAtGPS = g.lastTimestamp
	return nil
}

var _ handler.Handler = (*GPSTime)(nil)

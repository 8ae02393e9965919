package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goblimey/go-runlog/internal/analogue"
	"github.com/goblimey/go-runlog/internal/clockcorrect"
	"github.com/goblimey/go-runlog/internal/csvencode"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/interpolate"
	"github.com/goblimey/go-runlog/internal/islandremove"
	"github.com/goblimey/go-runlog/internal/logio"
	"github.com/goblimey/go-runlog/internal/scanner"
	"github.com/goblimey/go-runlog/internal/schema"
	"github.com/goblimey/go-runlog/internal/sinks"
)

// readInputs reads every named file whole, per spec.md §5's resource
// policy ("a maximum buffer growth is the input file size"); an I/O
// error on one input is fatal for that file only, per spec.md §7, and
// is reported to stderr rather than returned, so remaining inputs
// still get processed.
func readInputs(names []string) [][]byte {
	var bufs [][]byte
	for _, name := range names {
		b, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "runlog: %s: %v\n", name, err)
			continue
		}
		bufs = append(bufs, b)
	}
	return bufs
}

func verbKML(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) < 1 {
		return fmt.Errorf("usage error: kml needs at least one input file")
	}
	w := bufio.NewWriter(os.Stdout)
	k, err := sinks.NewKML(w)
	if err != nil {
		return err
	}
	for _, b := range readInputs(f.args) {
		if err := scanner.Scan(k, b); err != nil {
			return err
		}
	}
	if err := k.Close(); err != nil {
		return err
	}
	return w.Flush()
}

func verbTimestamps(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) < 1 {
		return fmt.Errorf("usage error: timestamps needs at least one input file")
	}
	w := bufio.NewWriter(os.Stdout)
	ts := sinks.NewTimestamps(w)
	for _, b := range readInputs(f.args) {
		if err := scanner.Scan(ts, b); err != nil {
			return err
		}
	}
	if err := ts.Close(); err != nil {
		return err
	}
	return w.Flush()
}

func verbTxt(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) < 1 {
		return fmt.Errorf("usage error: txt needs at least one input file")
	}
	w := bufio.NewWriter(os.Stdout)
	d := sinks.NewTextDump(w)
	for _, b := range readInputs(f.args) {
		if err := scanner.Scan(d, b); err != nil {
			return err
		}
	}
	return w.Flush()
}

func verbValues(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) != 1 {
		return fmt.Errorf("usage error: values needs exactly one input file")
	}
	period, err := strconv.ParseFloat(f.get("p", "0"), 64)
	if err != nil {
		return fmt.Errorf("usage error: -p must be numeric: %w", err)
	}

	b, err := os.ReadFile(f.args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "runlog: %s: %v\n", f.args[0], err)
		return nil
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	tbl := analogue.New(logger)
	if err := scanner.Scan(tbl, b); err != nil {
		return err
	}
	tbl.UseDiscoveredColumns()

	w := bufio.NewWriter(os.Stdout)
	if err := tbl.BeginEmit(w, period); err != nil {
		return err
	}
	if err := scanner.Scan(tbl, b); err != nil {
		return err
	}
	return w.Flush()
}

func verbHistogram(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) != 1 {
		return fmt.Errorf("usage error: histogram needs exactly one input file")
	}
	b, err := os.ReadFile(f.args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "runlog: %s: %v\n", f.args[0], err)
		return nil
	}
	h := sinks.NewHistogram()
	if err := scanner.Scan(h, b); err != nil {
		return err
	}
	return h.WriteTo(os.Stdout)
}

func verbGPSTime(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) < 1 {
		return fmt.Errorf("usage error: gpstime needs at least one input file")
	}
	w := bufio.NewWriter(os.Stdout)
	for _, name := range f.args {
		b, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "runlog: %s: %v\n", name, err)
			continue
		}
		g := sinks.NewGPSTime(w, os.Stderr, name)
		if err := scanner.Scan(g, b); err != nil {
			return err
		}
	}
	return w.Flush()
}

func verbEvent(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) < 1 {
		return fmt.Errorf("usage error: event needs at least one input file")
	}
	trigger, err := strconv.ParseFloat(f.get("trigger", "64"), 64)
	if err != nil {
		return fmt.Errorf("usage error: -trigger must be numeric: %w", err)
	}

	w := bufio.NewWriter(os.Stdout)
	ev, err := sinks.NewEvent(w, f.args[0], trigger, true)
	if err != nil {
		return err
	}
	for _, name := range f.args {
		b, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "runlog: %s: %v\n", name, err)
			continue
		}
		ev.SetSource(name)
		if err := scanner.Scan(ev, b); err != nil {
			return err
		}
	}
	return w.Flush()
}

func verbTimestampJumps(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) < 1 {
		return fmt.Errorf("usage error: timestamp needs at least one input file")
	}
	w := bufio.NewWriter(os.Stdout)
	for _, name := range f.args {
		b, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "runlog: %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s:\n", name)
		j := sinks.NewJumpReport(w)
		if err := scanner.Scan(j, b); err != nil {
			return err
		}
	}
	return w.Flush()
}

func verbClean(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) != 1 {
		return fmt.Errorf("usage error: clean needs exactly one input file")
	}
	input := f.args[0]
	b, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runlog: %s: %v\n", input, err)
		return nil
	}

	dir := filepath.Dir(input)
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	suffix := byte('a')
	nextFile := func() (io.WriteCloser, error) {
		name := filepath.Join(dir, fmt.Sprintf("%s%c%s", base, suffix, ext))
		fmt.Fprintln(os.Stderr, name)
		suffix++
		return os.Create(name)
	}

	c, err := sinks.NewCleaner(nextFile, os.Stderr)
	if err != nil {
		return err
	}
	if err := scanner.Scan(c, b); err != nil {
		return err
	}
	return c.Close()
}

func verbCorrect(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) < 1 {
		return fmt.Errorf("usage error: correct needs at least one input file")
	}
	for _, name := range f.args {
		b, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "runlog: %s: %v\n", name, err)
			continue
		}
		outName := filepath.Join(filepath.Dir(name), "corrected_"+filepath.Base(name))
		out, err := os.Create(outName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "runlog: %s: %v\n", outName, err)
			continue
		}
		sm := clockcorrect.New(logio.New(out))
		if err := scanner.Scan(sm, b); err != nil {
			out.Close()
			return err
		}
		if err := sm.Close(); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
	}
	return nil
}

// parseChannelFlag reads a "-f <cols>" column-definition file into an
// ordered list of (name, key) pairs.
func parseChannelFlag(path string) ([]csvencode.NamedColumn, error) {
	if path == "" {
		return nil, fmt.Errorf("usage error: -f <column-definition file> is required")
	}
	cf, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer cf.Close()
	return csvencode.ParseColumnList(cf)
}

func verbInterpolate(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) != 1 {
		return fmt.Errorf("usage error: interpolate needs exactly one input file")
	}
	// spec.md §9: the interpolate verb defaults to the two-point-linear
	// variant on channel 37, absent an explicit column-definition file.
	// "Channel 37" is a sub_index of the external_auxiliary channel
	// (interpolator.hpp's hardcoded multiplexed comparison), not a
	// header number; external_auxiliary is headers 58-61 here.
	var cols []csvencode.NamedColumn
	if path := f.get("f", ""); path != "" {
		cols, err = parseChannelFlag(path)
		if err != nil {
			return err
		}
	} else {
		cols = []csvencode.NamedColumn{{Key: schema.ChannelKey{Header: 58, SubIndex: 37}, Name: "37"}}
	}

	input := f.args[0]
	b, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runlog: %s: %v\n", input, err)
		return nil
	}
	outName := filepath.Join(filepath.Dir(input), "interpolated_"+filepath.Base(input))
	out, err := os.Create(outName)
	if err != nil {
		return err
	}
	defer out.Close()

	var top handler.Handler = logio.New(out)
	switch f.get("mode", "linear") {
	case "linear":
		// Chain one Linear stage per configured channel; each wraps the
		// next, mirroring the teacher's pipeline-composition idiom
		// (handler wraps handler wraps handler).
		for i := len(cols) - 1; i >= 0; i-- {
			top = interpolate.NewLinear(top, cols[i].Key)
		}
	default:
		keys := make([]schema.ChannelKey, len(cols))
		for i, c := range cols {
			keys[i] = c.Key
		}
		top = interpolate.NewRepeatLast(top, keys)
	}

	return scanner.Scan(top, b)
}

func verbTnoify(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) < 1 {
		return fmt.Errorf("usage error: tnoify needs at least one input file")
	}
	cols, err := parseChannelFlag(f.get("f", ""))
	if err != nil {
		return err
	}
	period, err := strconv.ParseFloat(f.get("p", "0"), 64)
	if err != nil {
		return fmt.Errorf("usage error: -p must be numeric: %w", err)
	}

	columns := make([]analogue.Column, len(cols))
	for i, c := range cols {
		columns[i] = analogue.Column{Key: c.Key, Name: c.Name}
	}

	for _, name := range f.args {
		b, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "runlog: %s: %v\n", name, err)
			continue
		}
		if err := tnoifyOne(name, b, columns, period); err != nil {
			return err
		}
	}
	return nil
}

// byteCapture is a handler.Handler that records every event's framed
// bytes verbatim. tnoify uses it to materialise the island
// remover/corrector pipeline's output once; since tnoify fixes the
// analogue table's columns with SetColumns, the table then runs only
// its emit pass over that captured stream.
type byteCapture struct {
	bytes []byte
}

func (c *byteCapture) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	c.bytes = append(c.bytes, bytes[begin:end]...)
	return nil
}

var _ handler.Handler = (*byteCapture)(nil)

func tnoifyOne(name string, b []byte, columns []analogue.Column, period float64) error {
	capture := &byteCapture{}
	corrector := clockcorrect.New(capture)
	remover := islandremove.New(corrector)
	if err := scanner.Scan(remover, b); err != nil {
		return err
	}
	remover.Flush()
	if err := corrector.Close(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	tbl := analogue.New(logger)
	tbl.SetColumns(columns)

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(filepath.Base(name), ext)
	outName := filepath.Join(filepath.Dir(name), "tno_"+base+".csv")
	out, err := os.Create(outName)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	if err := tbl.BeginEmit(w, period); err != nil {
		return err
	}
	if err := scanner.Scan(tbl, capture.bytes); err != nil {
		return err
	}
	return w.Flush()
}

func verbFromCSV(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.args) != 1 {
		return fmt.Errorf("usage error: fromcsv needs exactly one input csv file")
	}
	defs, err := parseChannelFlag(f.get("f", ""))
	if err != nil {
		return err
	}
	defMap := make(map[string]schema.ChannelKey, len(defs))
	for _, d := range defs {
		defMap[d.Name] = d.Key
	}

	cf, err := os.Open(f.args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "runlog: %s: %v\n", f.args[0], err)
		return nil
	}
	defer cf.Close()

	reader := csv.NewReader(cf)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return err
	}

	ext := filepath.Ext(f.args[0])
	base := strings.TrimSuffix(filepath.Base(f.args[0]), ext)
	outName := filepath.Join(filepath.Dir(f.args[0]), "RUN_"+base)
	out, err := os.Create(outName)
	if err != nil {
		return err
	}
	defer out.Close()

	enc, err := csvencode.NewEncoder(logio.New(out), header, defMap)
	if err != nil {
		return err
	}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("conversion error: %w", err)
		}
		if err := enc.EncodeRow(row); err != nil {
			return fmt.Errorf("conversion error: %w", err)
		}
	}
	return nil
}

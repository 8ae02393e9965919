// Command runlog is the CLI entry point for the binary telemetry log
// toolbox: one verb per row of spec.md §6's CLI surface table, each
// built from the internal/ packages implementing spec.md §4's
// pipeline stages. Grounded on the teacher's single-purpose,
// manually-os.Args-parsed command binaries (displayrtcm3/main.go,
// rtcmfilter/main.go) rather than any flag-package-heavy CLI, since
// spec.md §6 explicitly asks for "a simple -key value scheme (no =)".
package main

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// verbs maps a CLI verb name to its implementation. Built at startup
// rather than via constructor-time self-registration (the teacher has
// no analogue to imitate here; spec.md §9's redesign note asks for a
// flat, data-driven registry in place of the original's compile-time
// tool_registrar chain).
var verbs = map[string]func(args []string) error{
	"kml":         verbKML,
	"timestamps":  verbTimestamps,
	"txt":         verbTxt,
	"values":      verbValues,
	"histogram":   verbHistogram,
	"gpstime":     verbGPSTime,
	"event":       verbEvent,
	"timestamp":   verbTimestampJumps,
	"clean":       verbClean,
	"correct":     verbCorrect,
	"interpolate": verbInterpolate,
	"tnoify":      verbTnoify,
	"fromcsv":     verbFromCSV,
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <verb> [flags] <input>... [output]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "verbs: kml timestamps txt values histogram gpstime event timestamp clean correct interpolate tnoify fromcsv\n")
}

func main() {
	log.SetFlags(0)
	log.SetPrefix(os.Args[0] + ": ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	fn, ok := verbs[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: unknown verb %q\n", os.Args[0], os.Args[1])
		usage()
		os.Exit(2)
	}
	if err := fn(os.Args[2:]); err != nil {
		if strings.HasPrefix(err.Error(), "usage error") {
			fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[0], err)
			usage()
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

// flags is a parsed "-key value" / positional-argument command line
// (spec.md §6's "simple -key value scheme (no =)").
type flags struct {
	values map[string]string
	args   []string
}

func (f flags) get(key, def string) string {
	if v, ok := f.values[key]; ok {
		return v
	}
	return def
}

// parseFlags splits args into "-key value" pairs and the remaining
// positional arguments (input/output file names).
func parseFlags(args []string) (flags, error) {
	f := flags{values: make(map[string]string)}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) > 1 && a[0] == '-' {
			if i+1 >= len(args) {
				return f, fmt.Errorf("usage error: flag %s needs a value", a)
			}
			f.values[a[1:]] = args[i+1]
			i++
			continue
		}
		f.args = append(f.args, a)
	}
	return f, nil
}

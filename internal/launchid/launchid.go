// Package launchid constructs and parses startup-notification launch IDs:
// LAUNCHER/LAUNCHEE/TIMESTAMP/PID-SEQ-HOST, with '/' in the launcher and
// launchee names rewritten to '|' so the four-field structure stays
// unambiguous on the wire.
package launchid

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
)

var sequenceCounter atomic.Uint64

// escapeField rewrites '/' to '|' so a launcher or launchee name can never
// be mistaken for a field separator.
func escapeField(s string) string {
	return strings.ReplaceAll(s, "/", "|")
}

// New builds a fresh launch ID for the given launcher/launchee names and
// timestamp, using the process pid, a process-local monotonic sequence
// number, and the local hostname.
func New(launcher, launchee string, timestamp uint32) string {
	seq := sequenceCounter.Add(1)
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return fmt.Sprintf("%s/%s/%d/%d-%d-%s",
		escapeField(launcher), escapeField(launchee), timestamp, os.Getpid(), seq, host)
}

// Pattern matches a well-formed launch ID:
// [^/]+/[^/]+/\d+/\d+-\d+-[^/]*
var Pattern = regexp.MustCompile(`^[^/]+/[^/]+/[0-9]+/[0-9]+-[0-9]+-[^/]*$`)

// Valid reports whether id has the expected four-field shape.
func Valid(id string) bool {
	return Pattern.MatchString(id)
}

// Fields is the parsed decomposition of a launch ID.
type Fields struct {
	Launcher  string
	Launchee  string
	Timestamp uint32
	PID       int
	Sequence  uint64
	Host      string
}

// Parse decomposes a launch ID into its fields. The launcher/launchee
// names are returned with '|' still in place — unescaping them is lossy
// only in the pathological case where the original name itself contained
// '|', which this package never produces.
func Parse(id string) (Fields, error) {
	parts := strings.SplitN(id, "/", 4)
	if len(parts) != 4 {
		return Fields{}, fmt.Errorf("launchid: malformed id %q", id)
	}
	timestamp, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return Fields{}, fmt.Errorf("launchid: bad timestamp in %q: %w", id, err)
	}
	last := strings.SplitN(parts[3], "-", 3)
	if len(last) != 3 {
		return Fields{}, fmt.Errorf("launchid: malformed pid-seq-host in %q", id)
	}
	pid, err := strconv.Atoi(last[0])
	if err != nil {
		return Fields{}, fmt.Errorf("launchid: bad pid in %q: %w", id, err)
	}
	seq, err := strconv.ParseUint(last[1], 10, 64)
	if err != nil {
		return Fields{}, fmt.Errorf("launchid: bad sequence in %q: %w", id, err)
	}
	return Fields{
		Launcher:  parts[0],
		Launchee:  parts[1],
		Timestamp: uint32(timestamp),
		PID:       pid,
		Sequence:  seq,
		Host:      last[2],
	}, nil
}

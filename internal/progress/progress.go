// Package progress estimates assignment progress from the status artifacts
// of the external worker programs (Mlucas, GpuOwl, CUDALucas) and projects
// completion time.
package progress

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/work"
)

// Stats is the converged output shape of all three status-file readers.
// MsecPerIter is nil when no timing sample is available yet; a missing
// artifact yields the zero value, which is not an error.
type Stats struct {
	Iteration   int
	MsecPerIter *float64
	FFTLen      int
	S1Bits      int
	S2Units     int
}

// Options tunes completion projection.
type Options struct {
	// HoursPerDay is how many hours per day the worker actually runs.
	// Wall-clock estimates are scaled by 24/HoursPerDay.
	HoursPerDay int
	// StageOverhead is the fixed multiplier on stage-1 bit count that
	// accounts for the stage-1 to stage-2 transition cost.
	StageOverhead float64
}

// DefaultOptions returns the standard projection tuning.
func DefaultOptions() Options {
	return Options{HoursPerDay: 24, StageOverhead: 1.5}
}

// Compute returns the completion percentage and, when a timing estimate
// exists, the projected time remaining. A nil duration means the finish
// cannot be estimated yet.
func Compute(a *work.Assignment, st Stats, opts Options) (percent float64, timeLeft *time.Duration) {
	total := a.N
	if a.Kind == work.KindCert && a.CertSquarings > 0 {
		total = a.CertSquarings
	}
	denom := total
	if st.S2Units != 0 {
		denom = st.S2Units
	} else if st.S1Bits != 0 {
		denom = st.S1Bits
	}
	if denom != 0 {
		percent = 100 * float64(st.Iteration) / float64(denom)
	}
	if st.MsecPerIter == nil {
		return percent, nil
	}
	msec := *st.MsecPerIter

	var left float64
	switch {
	case st.S1Bits != 0:
		left = msec * float64(st.S1Bits-st.Iteration)
		left += msec * float64(st.S1Bits) * opts.StageOverhead
		if a.Kind.IsLLOrPRP() {
			left += msec * float64(a.N)
		}
	case st.S2Units != 0:
		left = msec * float64(st.S2Units-st.Iteration)
		if a.Kind.IsLLOrPRP() {
			left += msec * float64(a.N)
		}
	default:
		left = msec * float64(total-st.Iteration)
	}

	hours := opts.HoursPerDay
	if hours <= 0 || hours > 24 {
		hours = 24
	}
	seconds := left / 1000 * (24 / float64(hours))
	d := time.Duration(seconds * float64(time.Second))
	return percent, &d
}

// medianLow returns the lower median: for an even-sized sample set, the
// lower of the two central values, never interpolated. This deliberately
// biases toward the faster recent rate over a possibly stale earlier one.
func medianLow(samples []float64) float64 {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return sorted[(len(sorted)-1)/2]
}

// readLines returns the file's lines, or nil if it does not exist. The
// artifacts are appended line by line by the worker, so no locking is
// needed.
func readLines(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}

package progress

import (
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strconv"
)

var (
	mlucasIterPattern = regexp.MustCompile(
		`(Iter#|S1|S2)(?: bit| at q)? = (\d+) \[ ?(\d+\.\d+)% complete\] .*\[ *(\d+\.\d+) (m?sec)/iter\]`)
	mlucasFFTPattern = regexp.MustCompile(`FFT length \d{3,}K = (\d{6,})`)
	mlucasS2Pattern  = regexp.MustCompile(`Stage 2 q0 = (\d+)`)
)

// ParseMlucasStat reads the Mlucas p<exponent>.stat file in workdir. It
// scans from the most recent line backward, keeping the 5 most recent
// iteration lines; the first match fixes the current iteration and stage
// and the per-iteration timing is the lower median of the samples.
func ParseMlucasStat(workdir string, exponent int) Stats {
	path := filepath.Join(workdir, fmt.Sprintf("p%d.stat", exponent))
	lines := readLines(path)
	if lines == nil {
		log.Printf("stat file %q does not exist", path)
		return Stats{}
	}

	var st Stats
	var samples []float64
	var percent float64
	found := 0
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if m := mlucasIterPattern.FindStringSubmatch(line); m != nil && found < 5 {
			found++
			if found == 1 {
				st.Iteration, _ = strconv.Atoi(m[2])
				percent, _ = strconv.ParseFloat(m[3], 64)
				if m[1] == "S1" {
					st.S1Bits = int(float64(st.Iteration) / (percent / 100))
				} else if m[1] == "S2" {
					st.S2Units = st.Iteration
				}
			}
			// Only collect timing samples from the stage the head
			// line is in.
			if (st.S1Bits == 0 || m[1] == "S1") && (st.S2Units == 0 || m[1] == "S2") {
				msec, _ := strconv.ParseFloat(m[4], 64)
				if m[5] == "sec" {
					msec *= 1000
				}
				samples = append(samples, msec)
			}
		} else if m := mlucasS2Pattern.FindStringSubmatch(line); m != nil && st.S2Units != 0 {
			// The q0 line pins down how many stage-2 blocks the run
			// started from; rescale the unit count accordingly.
			q0, _ := strconv.Atoi(m[1])
			st.S2Units = int(float64(st.Iteration-q0) / (percent / 100) / 20)
			st.Iteration = int(float64(st.S2Units) * (percent / 100))
		} else if m := mlucasFFTPattern.FindStringSubmatch(line); m != nil && st.FFTLen == 0 {
			st.FFTLen, _ = strconv.Atoi(m[1])
		}
		if found == 5 && st.FFTLen != 0 {
			break
		}
	}
	if found == 0 {
		return Stats{FFTLen: st.FFTLen}
	}
	m := medianLow(samples)
	st.MsecPerIter = &m
	return st
}

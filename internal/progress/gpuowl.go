package progress

import (
	"log"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	gpuowlIterPattern = regexp.MustCompile(`(\d{7,}) (LL|P1|OK|EE)? +(\d{5,})`)
	gpuowlUsPattern   = regexp.MustCompile(`\b(\d+) us/it;?\b`)
	gpuowlFFTPattern  = regexp.MustCompile(`\b\d{7,} FFT: (\d+(?:\.\d+)?[KM])\b`)
	gpuowlBitsPattern = regexp.MustCompile(`\b\d{7,} P1(?: B1=\d+, B2=\d+;|\(\d+(?:\.\d)?M?\)) (\d+) bits;?\b`)
	gpuowlP1Pattern   = regexp.MustCompile(`\| P1\(\d+(?:\.\d)?M?\)`)
	gpuowlP2Pattern   = regexp.MustCompile(`(\d{7,}) P2 (\d+)/(\d+)`)
)

// ParseGpuOwlLog reads the gpuowl.log file in workdir. Up to 20 recent
// progress lines are considered, with at most 5 timing samples; P1 bit
// counts and P2 buffer counts feed the stage fields. A line carrying a
// different exponent aborts the scan: the log belongs to another, likely
// superseded, assignment.
func ParseGpuOwlLog(workdir string, exponent int) Stats {
	path := filepath.Join(workdir, "gpuowl.log")
	lines := readLines(path)
	if lines == nil {
		log.Printf("log file %q does not exist", path)
		return Stats{}
	}

	var st Stats
	var samples []float64
	found := 0
	p1 := false
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		m := gpuowlIterPattern.FindStringSubmatch(line)
		if m != nil {
			if p, _ := strconv.Atoi(m[1]); p != exponent {
				if found == 0 {
					log.Printf("looking for the exponent %d, but found %s in %q", exponent, m[1], path)
				}
				break
			}
		}
		if p2 := gpuowlP2Pattern.FindStringSubmatch(line); p2 != nil {
			found++
			if st.S2Units == 0 {
				st.Iteration, _ = strconv.Atoi(p2[2])
				st.S2Units, _ = strconv.Atoi(p2[3])
			}
		} else if us := gpuowlUsPattern.FindStringSubmatch(line); m != nil && us != nil && found < 20 {
			found++
			iter, _ := strconv.Atoi(m[3])
			if found == 1 {
				st.Iteration = iter
				p1 = m[2] == "P1"
			} else if iter > st.Iteration {
				break
			}
			if !p1 && st.S2Units == 0 {
				p1 = m[2] == "OK" && gpuowlP1Pattern.MatchString(line)
			}
			if len(samples) < 5 {
				v, _ := strconv.ParseFloat(us[1], 64)
				samples = append(samples, v)
			}
		} else if bits := gpuowlBitsPattern.FindStringSubmatch(line); p1 && bits != nil {
			if st.S1Bits == 0 {
				st.S1Bits, _ = strconv.Atoi(bits[1])
			}
		} else if fft := gpuowlFFTPattern.FindStringSubmatch(line); fft != nil && st.FFTLen == 0 {
			st.FFTLen = parseFFTSize(fft[1])
		}
		if (st.S2Units != 0 || (found == 20 && (!p1 || st.S1Bits != 0))) && st.FFTLen != 0 {
			break
		}
	}
	if found == 0 {
		return Stats{FFTLen: st.FFTLen}
	}
	if len(samples) > 0 {
		msec := medianLow(samples) / 1000 // us/it to msec/it
		st.MsecPerIter = &msec
	}
	return st
}

// parseFFTSize converts a GpuOwl FFT size like "6.5M" or "6272K" to a
// length in elements.
func parseFFTSize(s string) int {
	unit := s[len(s)-1:]
	v, _ := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSuffix(s, "K"), "M"), 64)
	switch unit {
	case "K":
		return int(v * 1024)
	case "M":
		return int(v * 1024 * 1024)
	}
	return int(v)
}

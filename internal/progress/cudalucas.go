package progress

import (
	"log"
	"path/filepath"
	"regexp"
	"strconv"
)

var (
	cudaNumPattern  = regexp.MustCompile(`\bM(\d{7,})\b`)
	cudaIterPattern = regexp.MustCompile(`\b\d{5,}\b`)
	cudaMsPattern   = regexp.MustCompile(`\b\d+\.\d{1,5}\b`)
	cudaETAPattern  = regexp.MustCompile(`\b(?:(?:(\d+):)?(\d{1,2}):)?(\d{1,2}):(\d{2})\b`)
	cudaFFTPattern  = regexp.MustCompile(`\b(\d{3,})K\b`)
)

// ParseCUDALucasOutput reads the configured CUDALucas output file. The
// timing estimate is derived from the most recent line's ETA rather than
// the instantaneous per-iteration times, which fluctuate too much on GPUs.
func ParseCUDALucasOutput(workdir, filename string, exponent int) Stats {
	path := filepath.Join(workdir, filename)
	lines := readLines(path)
	if lines == nil {
		log.Printf("CUDALucas file %q does not exist", path)
		return Stats{}
	}

	var st Stats
	var msecSamples []float64
	found := 0
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		nums := cudaNumPattern.FindStringSubmatch(line)
		iters := cudaIterPattern.FindAllString(line, -1)
		ms := cudaMsPattern.FindAllString(line, -1)
		etas := cudaETAPattern.FindAllStringSubmatch(line, -1)
		ffts := cudaFFTPattern.FindAllStringSubmatch(line, -1)
		if nums == nil || iters == nil || len(ms) < 2 || len(etas) < 2 || ffts == nil {
			continue
		}
		if p, _ := strconv.Atoi(nums[1]); p != exponent {
			if found == 0 {
				log.Printf("looking for the exponent %d, but found %s in %q", exponent, nums[1], path)
			}
			break
		}
		found++
		if found == 1 {
			st.Iteration, _ = strconv.Atoi(iters[0])
			// The second timestamp on the line is the ETA; the first
			// is the elapsed time.
			eta := etas[1]
			days, _ := strconv.Atoi(eta[1])
			hours, _ := strconv.Atoi(eta[2])
			minutes, _ := strconv.Atoi(eta[3])
			seconds, _ := strconv.Atoi(eta[4])
			timeLeft := seconds + minutes*60 + hours*60*60 + days*24*60*60
			if exponent > st.Iteration {
				avg := float64(timeLeft) * 1000 / float64(exponent-st.Iteration)
				st.MsecPerIter = &avg
			}
			fft, _ := strconv.Atoi(ffts[0][1])
			st.FFTLen = fft * 1024
		} else {
			// A larger iteration further back means a previous run.
			if iter, _ := strconv.Atoi(iters[0]); iter > st.Iteration {
				break
			}
		}
		// Second float on the line is the instantaneous ms/iter (the
		// first is the roundoff error).
		if s, err := strconv.ParseFloat(ms[1], 64); err == nil {
			msecSamples = append(msecSamples, s)
		}
		if found == 5 {
			break
		}
	}
	if found == 0 {
		return Stats{}
	}
	// The ETA-derived average above is what drives projection; the
	// instantaneous rate fluctuates on GPUs and is reported for contrast.
	if len(msecSamples) > 0 {
		log.Printf("CUDALucas current rate: %.4f ms/iter over %d sample(s)",
			medianLow(msecSamples), len(msecSamples))
	}
	return st
}

package session

import (
	"math"
	"time"

	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/progress"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/queue"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/store"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/work"
)

// Observed error rates of the two primality test families: the chance a
// first-time test result is wrong and must be double-checked.
const (
	llErrorRate  = 0.018
	prpErrorRate = 0.0001
)

// AssignmentStatus is the local view of one queued assignment, for
// display only; nothing here talks to the server.
type AssignmentStatus struct {
	Assignment  *work.Assignment
	Percent     float64
	TimeLeft    *time.Duration // cumulative behind earlier queue entries
	Stage       string
	ProbPrime   float64 // chance this test finds a new Mersenne prime
	MsecPerIter *float64
}

// Status computes the display status of every queued assignment, using
// the head's live artifacts and the cached timing for the rest.
func (c *Controller) Status() []AssignmentStatus {
	assignments := queue.Deduped(c.Queue.Load())
	opts := progress.Options{
		HoursPerDay:   c.Config.HoursPerDay,
		StageOverhead: c.Config.Stage2Overhead,
	}

	var out []AssignmentStatus
	var cumulative time.Duration
	haveCumulative := true
	for i, a := range assignments {
		var st progress.Stats
		if i == 0 {
			st = progress.ForAssignment(c.Family(), c.Workdir, c.Config.CUDALucasFile, a)
		}
		if st.MsecPerIter == nil {
			if usec, ok, err := c.Store.GetFloat(store.KeyUsecPerIter); err == nil && ok {
				msec := usec / 1000
				st.MsecPerIter = &msec
			}
		}
		percent, timeLeft := progress.Compute(a, st, opts)
		if timeLeft == nil {
			haveCumulative = false
		} else if haveCumulative {
			cumulative += *timeLeft
			t := cumulative
			timeLeft = &t
		} else {
			timeLeft = nil
		}
		out = append(out, AssignmentStatus{
			Assignment:  a,
			Percent:     percent,
			TimeLeft:    timeLeft,
			Stage:       stageName(a, st),
			ProbPrime:   probPrime(a),
			MsecPerIter: st.MsecPerIter,
		})
	}
	return out
}

// probPrime estimates the chance the assignment's candidate is a new
// Mersenne prime, from the trial-factoring depth and whether P-1 has run.
// Mertens-style heuristic: surviving factors below 2^sieveDepth thin the
// candidate pool by a factor proportional to the depth.
func probPrime(a *work.Assignment) float64 {
	if !a.Kind.IsLLOrPRP() || a.N == 0 {
		return 0
	}
	sieveDepth := a.SieveDepth
	if !a.HasSieveDepth || sieveDepth == 0 {
		sieveDepth = 99
	}
	factor := 1.0
	if a.PMinus1ed != 0 {
		factor = 1.04
	}
	logK := 0.0
	if a.K > 1 {
		logK = math.Log2(a.K)
	}
	bits := logK + math.Log2(float64(a.B))*float64(a.N)
	prob := (sieveDepth - 1) * 1.733 * factor / bits

	// A double-check only yields a new prime when the first test erred.
	errRate := llErrorRate
	if a.Kind == work.KindPRP || a.Kind == work.KindPRPDC {
		errRate = prpErrorRate
	}
	if a.Kind == work.KindDoubleCheck || a.Kind == work.KindPRPDC {
		prob *= errRate
	}
	return prob
}

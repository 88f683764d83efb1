package session

import (
	"fmt"
	"log"
	"time"

	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/primenet"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/progress"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/queue"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/store"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/work"
)

// ReportProgressAll sends a progress update for every queued assignment
// and returns the head assignment's estimated time to completion, which
// the refill step uses to decide whether to keep an extra buffered
// assignment. Only the head has live status artifacts; the rest are
// projected from the cached per-iteration timing, stacked behind it.
func (c *Controller) ReportProgressAll() *time.Duration {
	assignments := queue.Deduped(c.Queue.Load())
	if len(assignments) == 0 {
		return nil
	}

	opts := progress.Options{
		HoursPerDay:   c.Config.HoursPerDay,
		StageOverhead: c.Config.Stage2Overhead,
	}

	var headTimeLeft *time.Duration
	var cumulative time.Duration
	haveCumulative := true
	for i, a := range assignments {
		var st progress.Stats
		if i == 0 {
			st = progress.ForAssignment(c.Family(), c.Workdir, c.Config.CUDALucasFile, a)
			if st.MsecPerIter != nil {
				if err := c.Store.SetFloat(store.KeyUsecPerIter, *st.MsecPerIter*1000); err != nil {
					log.Printf("ERROR caching timing estimate: %v", err)
				}
			}
		}
		if st.MsecPerIter == nil {
			if usec, ok, err := c.Store.GetFloat(store.KeyUsecPerIter); err == nil && ok {
				msec := usec / 1000
				st.MsecPerIter = &msec
			}
		}

		percent, timeLeft := progress.Compute(a, st, opts)
		if i == 0 {
			headTimeLeft = timeLeft
		}
		if timeLeft == nil {
			haveCumulative = false
		} else if haveCumulative {
			cumulative += *timeLeft
			t := cumulative
			timeLeft = &t
		} else {
			timeLeft = nil
		}

		if a.UID == "" {
			continue
		}
		if err := c.sendProgress(a, st, percent, timeLeft); err != nil {
			log.Printf("ERROR reporting progress for %s: %v", a.UID, err)
		}
	}
	return headTimeLeft
}

// sendProgress issues one ap transaction. The advisory codes saying the
// assignment is dead on the server drop it from the local queue so the
// worker stops burning time on it.
func (c *Controller) sendProgress(a *work.Assignment, st progress.Stats, percent float64, timeLeft *time.Duration) error {
	interval := c.Config.IntervalSeconds
	if interval <= 0 {
		interval = 24 * 60 * 60
	}
	_, err := c.retry("progress report", func(guid string) (primenet.Response, error) {
		p := primenet.NewParams(primenet.TxProgress, guid)
		p.Set("k", a.UID)
		p.Set("p", fmt.Sprintf("%.4f", percent))
		p.Set("d", interval)
		// Without a timing estimate, promise a week so the server does not
		// expire the assignment before the first samples appear.
		eta := 7 * 24 * time.Hour
		if timeLeft != nil {
			eta = *timeLeft
		}
		p.Set("e", int(eta.Seconds()))
		p.Set("c", c.Config.CPUNum)
		p.Set("stage", stageName(a, st))
		if st.FFTLen != 0 {
			p.Set("fftlen", st.FFTLen)
		}
		log.Printf("Sending expected completion date for %s: %.2f%% done", a.UID, percent)
		return c.Client.Do(guid, p)
	})
	switch primenet.ServerErrorCode(err) {
	case primenet.ErrorInvalidAssignmentKey, primenet.ErrorWorkNoLongerNeeded:
		log.Printf("Assignment %s is gone on the server, removing it locally: %v", a.UID, err)
		return c.Queue.Remove(a.UID)
	}
	return err
}

// stageName maps the assignment and its observed stats to the server's
// stage vocabulary.
func stageName(a *work.Assignment, st progress.Stats) string {
	switch {
	case st.S2Units != 0:
		return "S2"
	case st.S1Bits != 0:
		return "S1"
	}
	switch a.Kind {
	case work.KindTest, work.KindDoubleCheck:
		return "LL"
	case work.KindPRP, work.KindPRPDC:
		return "PRP"
	case work.KindCert:
		return "CERT"
	}
	return "S1"
}

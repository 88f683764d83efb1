package session

import (
	"errors"
	"log"
	"time"

	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/primenet"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/queue"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/store"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/work"
)

// FetchAssignments requests up to count new assignments from the server,
// one request per assignment, returning the successfully built queue
// records. A "no assignment" answer or an unusable record ends the fetch
// early; obtaining fewer than requested is degraded, not fatal.
func (c *Controller) FetchAssignments(count int) []string {
	supported := c.supportedWorkTypes()
	var records []string
	for i := 0; i < count; i++ {
		log.Printf("Getting assignment from server")
		r, err := c.retry("assignment fetch", func(guid string) (primenet.Response, error) {
			p := primenet.NewParams(primenet.TxGetAssignment, guid)
			p.Set("c", c.Config.CPUNum)
			p.Set("a", "")
			return c.Client.Do(guid, p)
		})
		if err != nil {
			if primenet.ServerErrorCode(err) == primenet.ErrorNoAssignment {
				log.Printf("Server has no assignments for this work preference")
			} else {
				log.Printf("ERROR while requesting an assignment: %v", err)
			}
			break
		}
		record, err := work.FromServer(r, supported)
		if err != nil {
			log.Printf("ERROR: unusable assignment from server: %v", err)
			break
		}
		records = append(records, record)
		log.Printf("Got assignment %s: %s %s", r["k"], r["w"], r["n"])
	}
	return records
}

// RefillQueue tops the work queue back up to the cache target, using the
// head assignment's time-left estimate to decide whether to keep an extra
// buffer. It returns how many assignments were added.
func (c *Controller) RefillQueue(timeLeft *time.Duration) int {
	if noMore, err := c.Store.GetBool(store.KeyNoMoreWork); err != nil {
		log.Printf("ERROR reading no-more-work flag: %v", err)
		return 0
	} else if noMore {
		log.Printf("No-more-work is set; not requesting new assignments")
		return 0
	}

	assignments := queue.Deduped(c.Queue.Load())
	cacheTarget := c.Config.NumCache + 1
	horizon := time.Duration(c.Config.DaysOfWork * 24 * float64(time.Hour))
	needed := queue.Needed(len(assignments), cacheTarget, timeLeft, horizon)
	if needed == 0 {
		log.Printf("%q already has %d >= %d entries, not getting new work",
			c.Queue.Path, len(assignments), cacheTarget)
		return 0
	}
	log.Printf("Fetching %d assignment(s)", needed)

	records := c.FetchAssignments(needed)
	valid := records[:0]
	for _, record := range records {
		if _, err := work.Parse(record); err != nil {
			log.Printf("ERROR: invalid assignment %q: %v", record, err)
			continue
		}
		log.Printf("New assignment: %q", record)
		valid = append(valid, record)
	}
	if err := c.Queue.Append(valid); err != nil {
		log.Printf("ERROR appending to work file: %v", err)
		return 0
	}
	if len(valid) < needed {
		log.Printf("Error: Failed to obtain requested number of new assignments, %d requested, %d successfully retrieved",
			needed, len(valid))
	}
	return len(valid)
}

// SetNoMoreWork toggles whether RefillQueue requests new assignments.
// With the flag set the agent still reports progress and submits results,
// but the queue drains as the worker finishes each entry.
func (c *Controller) SetNoMoreWork(v bool) error {
	return c.Store.SetBool(store.KeyNoMoreWork, v)
}

// Unreserve releases one assignment back to the server and removes it
// from the queue file. The advisory error codes ("no longer needed",
// "invalid assignment key") also drop the local record: the server no
// longer recognizes the reservation.
func (c *Controller) Unreserve(a *work.Assignment) error {
	if a.UID == "" {
		log.Printf("Cannot unreserve %d: record has no assignment ID", a.N)
		return nil
	}
	log.Printf("Unreserving %d", a.N)
	_, err := c.retry("assignment unreserve", func(guid string) (primenet.Response, error) {
		p := primenet.NewParams(primenet.TxUnreserve, guid)
		p.Set("k", a.UID)
		return c.Client.Do(guid, p)
	})
	switch primenet.ServerErrorCode(err) {
	case -1:
		if err != nil {
			return err
		}
	case primenet.ErrorWorkNoLongerNeeded, primenet.ErrorInvalidAssignmentKey, primenet.ErrorNoAssignment:
		log.Printf("Assignment %s already released: %v", a.UID, err)
	default:
		return err
	}
	return c.Queue.Remove(a.UID)
}

// UnreserveAll releases every queued assignment. Per-item failures are
// logged and do not stop the remaining releases.
func (c *Controller) UnreserveAll() error {
	assignments := queue.Deduped(c.Queue.Load())
	if len(assignments) == 0 {
		return nil
	}
	log.Printf("Quitting GIMPS: unreserving %d assignment(s)", len(assignments))
	var firstErr error
	for _, a := range assignments {
		if err := c.Unreserve(a); err != nil {
			log.Printf("ERROR while releasing assignment %s: %v", a.UID, err)
			if firstErr == nil && !errors.Is(err, ErrNotRegistered) {
				firstErr = err
			}
			if errors.Is(err, ErrNotRegistered) {
				return err
			}
		}
	}
	return firstErr
}

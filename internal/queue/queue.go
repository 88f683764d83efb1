// Package queue owns the on-disk work-queue file: the ordered set of
// pending assignments the worker program consumes.
package queue

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/work"
)

// Manager wraps one work-queue file. The file is shared with the external
// worker program; both sides append, neither locks. One agent process per
// working directory is assumed.
type Manager struct {
	Path string
}

// New returns a manager for the queue file at path.
func New(path string) *Manager {
	return &Manager{Path: path}
}

// Load parses every line of the queue file. Lines that fail to parse are
// logged and skipped; they never abort processing of sibling lines. A
// missing file is an empty queue.
func (m *Manager) Load() []*work.Assignment {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return nil
	}
	var assignments []*work.Assignment
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		a, err := work.Parse(line)
		if err != nil {
			log.Printf("ERROR: unable to parse entry in %q: %v", m.Path, err)
			continue
		}
		assignments = append(assignments, a)
	}
	return assignments
}

// Deduped returns the assignments de-duplicated by assignment ID, first
// occurrence winning, in arrival order. ID-less legacy records are never
// coalesced with each other. The underlying file is not reordered or
// mutated.
func Deduped(assignments []*work.Assignment) []*work.Assignment {
	seen := make(map[string]bool, len(assignments))
	var out []*work.Assignment
	for _, a := range assignments {
		if a.UID != "" {
			if seen[a.UID] {
				continue
			}
			seen[a.UID] = true
		}
		out = append(out, a)
	}
	return out
}

// Needed returns how many new assignments to request. cacheTarget is the
// configured minimum queue depth; it is raised by one when the head
// assignment's estimated time left is within the days-of-work horizon, so
// the worker never starves while the head finishes.
func Needed(queueLen, cacheTarget int, timeLeft *time.Duration, horizon time.Duration) int {
	if timeLeft != nil && *timeLeft <= horizon {
		cacheTarget++
		log.Printf("Time left %v is within the %v horizon; raising the cache target to %d",
			*timeLeft, horizon, cacheTarget)
	}
	n := cacheTarget - queueLen
	if n < 0 {
		return 0
	}
	return n
}

// Append adds records to the queue file in arrival order. Each record must
// already have been validated by the caller.
func (m *Manager) Append(records []string) error {
	if len(records) == 0 {
		return nil
	}
	f, err := os.OpenFile(m.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open work file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(strings.Join(records, "\n") + "\n"); err != nil {
		return fmt.Errorf("append work file: %w", err)
	}
	return nil
}

// Rewrite replaces the queue file contents with the given records. Used
// when assignments are removed (completed or unreserved).
func (m *Manager) Rewrite(records []string) error {
	if len(records) == 0 {
		return os.WriteFile(m.Path, nil, 0644)
	}
	return os.WriteFile(m.Path, []byte(strings.Join(records, "\n")+"\n"), 0644)
}

// Remove drops the assignment with the given ID from the queue file,
// preserving every other line byte for byte (including unparseable ones).
func (m *Manager) Remove(uid string) error {
	if uid == "" {
		return nil
	}
	data, err := os.ReadFile(m.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var kept []string
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if a, err := work.Parse(line); err == nil && a.UID == uid {
			continue
		}
		kept = append(kept, line)
	}
	return m.Rewrite(kept)
}

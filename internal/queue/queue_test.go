package queue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestQueue(t *testing.T, lines ...string) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worktodo.txt")
	if len(lines) > 0 {
		if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return New(path)
}

func TestLoadSkipsBadLines(t *testing.T) {
	m := newTestQueue(t,
		"Test="+strings.Repeat("A", 32)+",57885161,74,1",
		"this line is garbage",
		"DoubleCheck=21701,74,0",
	)
	assignments := m.Load()
	if len(assignments) != 2 {
		t.Fatalf("Load returned %d assignments, want 2 (bad line skipped)", len(assignments))
	}
	if assignments[0].N != 57885161 || assignments[1].N != 21701 {
		t.Errorf("arrival order not preserved: %d, %d", assignments[0].N, assignments[1].N)
	}
}

func TestLoadMissingFile(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "absent.txt"))
	if got := m.Load(); got != nil {
		t.Errorf("missing file must be an empty queue, got %v", got)
	}
}

func TestDedupedFirstSeenWins(t *testing.T) {
	uid := strings.Repeat("A", 32)
	m := newTestQueue(t,
		"Test="+uid+",57885161,74,1",
		"DoubleCheck=21701,74,0", // legacy, no ID
		"Test="+uid+",57885161,74,1",
		"DoubleCheck=11213,0,0", // legacy, no ID
	)
	deduped := Deduped(m.Load())
	if len(deduped) != 3 {
		t.Fatalf("got %d assignments, want 3", len(deduped))
	}
	if deduped[0].UID != uid || deduped[1].N != 21701 || deduped[2].N != 11213 {
		t.Errorf("unexpected dedup result: %+v", deduped)
	}
}

func TestNeeded(t *testing.T) {
	day := 24 * time.Hour
	short := 12 * time.Hour
	long := 10 * day

	// Scenario: empty queue, target 2.
	if got := Needed(0, 2, nil, 3*day); got != 2 {
		t.Errorf("Needed(0, 2, nil) = %d, want 2", got)
	}

	// Queue already full.
	if got := Needed(3, 2, nil, 3*day); got != 0 {
		t.Errorf("Needed(3, 2, nil) = %d, want 0", got)
	}

	// Head assignment nearly done: target bumps by one.
	if got := Needed(2, 2, &short, 3*day); got != 1 {
		t.Errorf("Needed(2, 2, 12h) = %d, want 1", got)
	}

	// Head assignment has plenty of time: no bump.
	if got := Needed(2, 2, &long, 3*day); got != 0 {
		t.Errorf("Needed(2, 2, 10d) = %d, want 0", got)
	}
}

func TestNeededMonotonicInCacheTarget(t *testing.T) {
	short := 12 * time.Hour
	horizon := 3 * 24 * time.Hour
	for queueLen := 0; queueLen < 5; queueLen++ {
		for target := 0; target < 5; target++ {
			for _, tl := range []*time.Duration{nil, &short} {
				a := Needed(queueLen, target, tl, horizon)
				b := Needed(queueLen, target+1, tl, horizon)
				if b < a {
					t.Fatalf("Needed not monotonic: target %d->%d gave %d->%d (queue %d)",
						target, target+1, a, b, queueLen)
				}
			}
			// Within the horizon the count is exactly one greater.
			below := Needed(queueLen, target, &short, horizon)
			without := Needed(queueLen, target, nil, horizon)
			if target+1-queueLen > 0 && below != without+1 {
				t.Errorf("horizon bump: Needed(%d, %d) = %d with 12h left, %d without",
					queueLen, target, below, without)
			}
		}
	}
}

func TestAppendAndRemove(t *testing.T) {
	uid := strings.Repeat("B", 32)
	m := newTestQueue(t, "DoubleCheck=21701,74,0")

	if err := m.Append([]string{"Test=" + uid + ",57885161,74,1"}); err != nil {
		t.Fatal(err)
	}
	if got := len(m.Load()); got != 2 {
		t.Fatalf("after append: %d assignments, want 2", got)
	}

	if err := m.Remove(uid); err != nil {
		t.Fatal(err)
	}
	assignments := m.Load()
	if len(assignments) != 1 || assignments[0].N != 21701 {
		t.Errorf("Remove dropped the wrong record: %+v", assignments)
	}
}

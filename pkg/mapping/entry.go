// Package mapping decides which rig bone each body landmark drives.
//
// A mapping list is an ordered slice of entries; order is significant both for
// auto-mapping and for the order bones are applied each frame.
package mapping

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/teslashibe/go-mocap/pkg/landmark"
)

// Entry binds one landmark to one rig bone.
type Entry struct {
	RigBone  string `json:"rig_bone,omitempty"` // human-readable label, e.g. "LeftForearm"
	Landmark string `json:"landmark"`
	Bone     string `json:"bone"`
	Enabled  bool   `json:"enabled"`
}

// Active reports whether the entry should be applied.
func (e Entry) Active() bool {
	return e.Enabled && e.Bone != ""
}

// ErrIndexOutOfRange is returned for list operations on a missing row.
var ErrIndexOutOfRange = errors.New("mapping index out of range")

// ErrInvalidSide is returned by Mirror for a side other than "L" or "R".
var ErrInvalidSide = errors.New(`side must be "L" or "R"`)

// List is a concurrency-safe, ordered mapping list with an active row,
// edited from the dashboard while the capture loop reads snapshots.
type List struct {
	mu      sync.RWMutex
	entries []Entry
	active  int
}

// NewList creates a list holding a copy of entries.
func NewList(entries []Entry) *List {
	l := &List{}
	l.Replace(entries)
	return l
}

// Entries returns a snapshot copy of the list.
func (l *List) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Replace swaps in a copy of entries and resets the active row.
func (l *List) Replace(entries []Entry) {
	cp := make([]Entry, len(entries))
	copy(cp, entries)

	l.mu.Lock()
	l.entries = cp
	l.active = 0
	l.mu.Unlock()
}

// Add appends an entry and makes it active. The landmark must be known.
func (l *List) Add(e Entry) (int, error) {
	if e.Landmark != "" && !landmark.Known(e.Landmark) {
		return 0, fmt.Errorf("unknown landmark %q", e.Landmark)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	l.active = len(l.entries) - 1
	return l.active, nil
}

// Update overwrites the entry at i.
func (l *List) Update(i int, e Entry) error {
	if e.Landmark != "" && !landmark.Known(e.Landmark) {
		return fmt.Errorf("unknown landmark %q", e.Landmark)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.entries) {
		return fmt.Errorf("update %d: %w", i, ErrIndexOutOfRange)
	}
	l.entries[i] = e
	return nil
}

// Remove deletes the entry at i, keeping the active row in range.
func (l *List) Remove(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.entries) {
		return fmt.Errorf("remove %d: %w", i, ErrIndexOutOfRange)
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	if l.active >= len(l.entries) {
		l.active = max(len(l.entries)-1, 0)
	}
	return nil
}

// Clear removes every entry.
func (l *List) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.active = 0
	l.mu.Unlock()
}

// Active returns the active row index.
func (l *List) Active() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// SetActive moves the active row.
func (l *List) SetActive(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.entries) {
		return fmt.Errorf("select %d: %w", i, ErrIndexOutOfRange)
	}
	l.active = i
	return nil
}

// EnabledCount returns how many entries would be applied.
func (l *List) EnabledCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.entries {
		if e.Active() {
			n++
		}
	}
	return n
}

// Mirror copies every entry on side ("L" or "R") to the opposite side: the
// landmark and the bone's side marker are swapped. An existing entry for the
// mirrored landmark is overwritten, otherwise one is appended. It returns the
// number of entries written.
func (l *List) Mirror(side string) (int, error) {
	side = strings.ToUpper(side)
	if side != "L" && side != "R" {
		return 0, ErrInvalidSide
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, e := range append([]Entry(nil), l.entries...) {
		if e.Bone == "" || SideSuffix(e.Bone) != side {
			continue
		}
		target, ok := mirrorLandmark(e.Landmark, side)
		if !ok {
			continue
		}
		m := Entry{
			Landmark: target,
			Bone:     MirrorBoneName(e.Bone),
			Enabled:  e.Enabled,
		}
		m.RigBone = LabelFor(m.Landmark, m.Bone)

		replaced := false
		for i := range l.entries {
			if l.entries[i].Landmark == target {
				l.entries[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			l.entries = append(l.entries, m)
		}
		n++
	}
	return n, nil
}

// mirrorLandmark swaps the LEFT_/RIGHT_ prefix of a landmark on side.
func mirrorLandmark(name, side string) (string, bool) {
	from, to := "LEFT_", "RIGHT_"
	if side == "R" {
		from, to = to, from
	}
	if !strings.HasPrefix(name, from) {
		return "", false
	}
	target := to + strings.TrimPrefix(name, from)
	return target, landmark.Known(target)
}

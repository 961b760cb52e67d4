// Package lifecycle keeps the side table of native objects that were handed
// out through the facade and not yet released, and tears them down in
// dependency order when the owner closes.
package lifecycle

import (
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fxnlabs/clfacade/internal/metrics"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// sweepRank orders kinds for teardown: dependents before the objects they
// were created from.
var sweepRank = map[driver.Kind]int{
	driver.KindEvent:        0,
	driver.KindKernel:       1,
	driver.KindMem:          2,
	driver.KindSampler:      2,
	driver.KindProgram:      3,
	driver.KindCommandQueue: 4,
	driver.KindContext:      5,
	driver.KindDevice:       6,
}

// Tracked reports whether objects of kind k are reference counted by the
// tracker. Platforms have no reference count.
func Tracked(k driver.Kind) bool {
	_, ok := sweepRank[k]
	return ok
}

// Entry is one live object.
type Entry struct {
	Ptr  driver.Ptr
	Kind driver.Kind
	// Refs is the number of references the facade's caller holds.
	Refs int
	seq  uint64
}

// ReleaseFunc releases one reference to a native object.
type ReleaseFunc func(kind driver.Kind, ptr driver.Ptr) error

// Tracker is safe for concurrent use. Its mutex guards bookkeeping only;
// ReleaseFunc is never called with the lock held.
type Tracker struct {
	mu      sync.Mutex
	entries map[driver.Ptr]*Entry
	seq     uint64
	swept   bool
	log     *zap.Logger
}

func New(log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		entries: make(map[driver.Ptr]*Entry),
		log:     log,
	}
}

// Created records a new object with one reference. A pointer the runtime
// reuses after it was freed starts a fresh entry. Once Sweep has run nothing
// more is recorded and Created reports false; the caller then owns the
// release.
func (t *Tracker) Created(kind driver.Kind, ptr driver.Ptr) bool {
	if ptr == 0 || !Tracked(kind) {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.swept {
		return false
	}
	if e, ok := t.entries[ptr]; ok && e.Kind == kind {
		e.Refs++
		return true
	} else if ok {
		t.dropLocked(e)
	}
	t.seq++
	t.entries[ptr] = &Entry{Ptr: ptr, Kind: kind, Refs: 1, seq: t.seq}
	metrics.LiveHandles.WithLabelValues(kind.String()).Inc()
	return true
}

// Retained records an extra reference. It reports false for objects the
// tracker does not know, which are left to the native runtime.
func (t *Tracker) Retained(kind driver.Kind, ptr driver.Ptr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[ptr]
	if !ok || e.Kind != kind {
		return false
	}
	e.Refs++
	return true
}

// Released drops one reference and forgets the object when none remain.
func (t *Tracker) Released(kind driver.Kind, ptr driver.Ptr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[ptr]
	if !ok || e.Kind != kind {
		return false
	}
	e.Refs--
	if e.Refs <= 0 {
		t.dropLocked(e)
	}
	return true
}

func (t *Tracker) dropLocked(e *Entry) {
	delete(t.entries, e.Ptr)
	metrics.LiveHandles.WithLabelValues(e.Kind.String()).Dec()
}

// Refs returns the facade-held reference count of ptr.
func (t *Tracker) Refs(ptr driver.Ptr) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[ptr]
	if !ok {
		return 0, false
	}
	return e.Refs, true
}

// Len returns the number of live objects.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Count returns the number of live objects of kind k.
func (t *Tracker) Count(k driver.Kind) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, e := range t.entries {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Live returns the live objects in the order Sweep would release them.
func (t *Tracker) Live() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.orderedLocked()
}

func (t *Tracker) orderedLocked() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := sweepRank[out[i].Kind], sweepRank[out[j].Kind]
		if ri != rj {
			return ri < rj
		}
		return out[i].seq > out[j].seq
	})
	return out
}

// Sweep empties the table and issues exactly one release per object that was
// still live, events first and devices last, newest first within a kind.
// Errors from individual releases are combined; every object is attempted.
// A second Sweep finds an empty table and calls nothing.
func (t *Tracker) Sweep(release ReleaseFunc) error {
	t.mu.Lock()
	t.swept = true
	live := t.orderedLocked()
	for _, e := range live {
		t.dropLocked(t.entries[e.Ptr])
	}
	t.mu.Unlock()

	if len(live) == 0 {
		return nil
	}
	t.log.Info("releasing live handles", zap.Int("count", len(live)))

	var err error
	for _, e := range live {
		if rerr := release(e.Kind, e.Ptr); rerr != nil {
			t.log.Warn("release failed during sweep",
				zap.Stringer("kind", e.Kind),
				zap.Uint64("ptr", uint64(e.Ptr)),
				zap.Error(rerr))
			err = multierr.Append(err, rerr)
		}
	}
	return err
}

// Package capability is the static description of the OpenCL host API across
// versions 1.0 to 2.2: which operations exist at each version, the signature
// revision active there, and the named constants each version defines.
//
// The registry is immutable once built. Everything in it is a pure function
// of (version, operation) and safe for concurrent use.
package capability

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Registry maps operations to their revision history.
type Registry struct {
	defs  map[Op]Definition
	order []Op
}

// NewRegistry validates defs and builds a registry. Revisions of one
// operation must be ordered and must not overlap.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{defs: make(map[Op]Definition, len(defs))}
	for _, d := range defs {
		if _, dup := r.defs[d.Op]; dup {
			return nil, fmt.Errorf("operation %s defined twice", d.Op)
		}
		if len(d.Revisions) == 0 {
			return nil, fmt.Errorf("operation %s has no revisions", d.Op)
		}
		for i := range d.Revisions {
			rev := &d.Revisions[i]
			if !rev.Since.Valid() {
				return nil, fmt.Errorf("operation %s revision %d: invalid since version", d.Op, i)
			}
			if rev.Removed != VersionNone && rev.Removed <= rev.Since {
				return nil, fmt.Errorf("operation %s revision %d: removed at %s before introduced at %s", d.Op, i, rev.Removed, rev.Since)
			}
			if i > 0 && d.Revisions[i-1].Removed != rev.Since {
				return nil, fmt.Errorf("operation %s revision %d: does not start where revision %d ends", d.Op, i, i-1)
			}
			rev.Op = d.Op
			rev.Deprecated = d.Deprecated
		}
		r.defs[d.Op] = d
		r.order = append(r.order, d.Op)
	}
	sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })
	return r, nil
}

var standard = func() *Registry {
	r, err := NewRegistry(definitions())
	if err != nil {
		panic(err)
	}
	return r
}()

// Standard returns the registry describing OpenCL 1.0 through 2.2.
func Standard() *Registry {
	return standard
}

// Lookup returns the signature revision active at v.
func (r *Registry) Lookup(v Version, op Op) (Signature, bool) {
	d, ok := r.defs[op]
	if !ok {
		return Signature{}, false
	}
	for i := len(d.Revisions) - 1; i >= 0; i-- {
		if d.Revisions[i].Active(v) {
			return d.Revisions[i], true
		}
	}
	return Signature{}, false
}

// Supports reports whether op may be called at v.
func (r *Registry) Supports(v Version, op Op) bool {
	_, ok := r.Lookup(v, op)
	return ok
}

// Definition returns the revision history of op.
func (r *Registry) Definition(op Op) (Definition, bool) {
	d, ok := r.defs[op]
	return d, ok
}

// All lists every known operation in name order.
func (r *Registry) All() []Op {
	out := make([]Op, len(r.order))
	copy(out, r.order)
	return out
}

// Operations returns the set of operations active at v.
func (r *Registry) Operations(v Version) mapset.Set[Op] {
	set := mapset.NewThreadUnsafeSet[Op]()
	for _, op := range r.order {
		if r.Supports(v, op) {
			set.Add(op)
		}
	}
	return set
}

// Deprecated returns the operations that are active but deprecated at v.
func (r *Registry) Deprecated(v Version) mapset.Set[Op] {
	set := mapset.NewThreadUnsafeSet[Op]()
	for _, op := range r.order {
		if sig, ok := r.Lookup(v, op); ok && sig.DeprecatedAt(v) {
			set.Add(op)
		}
	}
	return set
}

// Diff reports which operations become available and which disappear when
// moving from one version to another.
func (r *Registry) Diff(from, to Version) (added, removed mapset.Set[Op]) {
	a, b := r.Operations(from), r.Operations(to)
	return b.Difference(a), a.Difference(b)
}

// Revised returns the operations whose active signature at v differs from
// the one active at the previous version.
func (r *Registry) Revised(v Version) []Op {
	if v <= MinVersion {
		return nil
	}
	var out []Op
	for _, op := range r.order {
		cur, ok := r.Lookup(v, op)
		if !ok {
			continue
		}
		prev, ok := r.Lookup(v-1, op)
		if ok && prev.Since != cur.Since {
			out = append(out, op)
		}
	}
	return out
}

// Lookup consults the standard registry.
func Lookup(v Version, op Op) (Signature, bool) {
	return standard.Lookup(v, op)
}

// Supports consults the standard registry.
func Supports(v Version, op Op) bool {
	return standard.Supports(v, op)
}

// Operations consults the standard registry.
func Operations(v Version) mapset.Set[Op] {
	return standard.Operations(v)
}

// Sorted returns the members of set in name order.
func Sorted(set mapset.Set[Op]) []Op {
	out := set.ToSlice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

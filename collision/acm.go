package collision

import (
	"fmt"
	"io"
	"sort"

	"github.com/samber/lo"

	"go.viam.com/planningscene/msgs"
)

// AllowedCollision is the collision exception between two named entities.
type AllowedCollision uint8

const (
	// Never means collisions between the pair are always reported.
	Never AllowedCollision = iota
	// Always means collisions between the pair are never reported.
	Always
	// Conditional means a decide function is consulted for each contact.
	Conditional
)

func (a AllowedCollision) String() string {
	switch a {
	case Never:
		return "never"
	case Always:
		return "always"
	case Conditional:
		return "conditional"
	default:
		return fmt.Sprintf("AllowedCollision(%d)", uint8(a))
	}
}

// DecideContactFn reports whether a contact is allowed.
type DecideContactFn func(c Contact) bool

type acmEntry struct {
	allowed AllowedCollision
	fn      DecideContactFn
}

type pairKey [2]string

func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// AllowedCollisionMatrix is a symmetric sparse table of collision exceptions with an optional default per name.
type AllowedCollisionMatrix struct {
	entries  map[pairKey]acmEntry
	defaults map[string]acmEntry
}

// NewAllowedCollisionMatrix returns an empty matrix.
func NewAllowedCollisionMatrix() *AllowedCollisionMatrix {
	return &AllowedCollisionMatrix{entries: map[pairKey]acmEntry{}, defaults: map[string]acmEntry{}}
}

// NewAllowedCollisionMatrixFromNames returns a matrix with every pair of names set to allowed.
func NewAllowedCollisionMatrixFromNames(names []string, allowed bool) *AllowedCollisionMatrix {
	acm := NewAllowedCollisionMatrix()
	for i := range names {
		for j := i; j < len(names); j++ {
			acm.SetEntry(names[i], names[j], allowed)
		}
	}
	return acm
}

// FromMsg builds a matrix from its message form. Rows shorter than the name list are ignored.
func FromMsg(m msgs.AllowedCollisionMatrix) *AllowedCollisionMatrix {
	acm := NewAllowedCollisionMatrix()
	for i, row := range m.EntryValues {
		if i >= len(m.EntryNames) || len(row.Enabled) != len(m.EntryNames) {
			continue
		}
		for j, enabled := range row.Enabled {
			acm.SetEntry(m.EntryNames[i], m.EntryNames[j], enabled)
		}
	}
	for i, name := range m.DefaultEntryNames {
		if i < len(m.DefaultEntryValues) {
			acm.SetDefaultEntry(name, m.DefaultEntryValues[i])
		}
	}
	return acm
}

// Clone returns an independent copy. Decide functions are shared.
func (acm *AllowedCollisionMatrix) Clone() *AllowedCollisionMatrix {
	return &AllowedCollisionMatrix{entries: lo.Assign(acm.entries), defaults: lo.Assign(acm.defaults)}
}

func boolEntry(allowed bool) acmEntry {
	if allowed {
		return acmEntry{allowed: Always}
	}
	return acmEntry{allowed: Never}
}

// SetEntry sets the exception between a and b.
func (acm *AllowedCollisionMatrix) SetEntry(a, b string, allowed bool) {
	acm.entries[newPairKey(a, b)] = boolEntry(allowed)
}

// SetEntryFn makes the exception between a and b conditional on fn.
func (acm *AllowedCollisionMatrix) SetEntryFn(a, b string, fn DecideContactFn) {
	acm.entries[newPairKey(a, b)] = acmEntry{allowed: Conditional, fn: fn}
}

// SetEntryAll sets the exception between name and every other known name.
func (acm *AllowedCollisionMatrix) SetEntryAll(name string, allowed bool) {
	for _, other := range acm.EntryNames() {
		if other != name {
			acm.SetEntry(name, other, allowed)
		}
	}
}

// SetEntryBetween sets the exception between name and each of others.
func (acm *AllowedCollisionMatrix) SetEntryBetween(name string, others []string, allowed bool) {
	for _, other := range others {
		acm.SetEntry(name, other, allowed)
	}
}

// RemoveEntry removes the pair entry between a and b.
func (acm *AllowedCollisionMatrix) RemoveEntry(a, b string) {
	delete(acm.entries, newPairKey(a, b))
}

// RemoveEntries removes every pair entry and the default entry involving name.
func (acm *AllowedCollisionMatrix) RemoveEntries(name string) {
	for k := range acm.entries {
		if k[0] == name || k[1] == name {
			delete(acm.entries, k)
		}
	}
	delete(acm.defaults, name)
}

// Entry returns the pair entry between a and b, if set.
func (acm *AllowedCollisionMatrix) Entry(a, b string) (AllowedCollision, bool) {
	e, ok := acm.entries[newPairKey(a, b)]
	return e.allowed, ok
}

// HasEntry returns whether name appears in any pair entry.
func (acm *AllowedCollisionMatrix) HasEntry(name string) bool {
	for k := range acm.entries {
		if k[0] == name || k[1] == name {
			return true
		}
	}
	return false
}

// SetDefaultEntry sets the default exception for name.
func (acm *AllowedCollisionMatrix) SetDefaultEntry(name string, allowed bool) {
	acm.defaults[name] = boolEntry(allowed)
}

// SetDefaultEntryFn makes the default exception for name conditional on fn.
func (acm *AllowedCollisionMatrix) SetDefaultEntryFn(name string, fn DecideContactFn) {
	acm.defaults[name] = acmEntry{allowed: Conditional, fn: fn}
}

// DefaultEntry returns the default exception for name, if set.
func (acm *AllowedCollisionMatrix) DefaultEntry(name string) (AllowedCollision, bool) {
	e, ok := acm.defaults[name]
	return e.allowed, ok
}

// AllowedCollision resolves the exception between a and b. A default entry of Always on either name wins, then the
// pair entry, then the defaults. The returned function is non-nil only for Conditional.
func (acm *AllowedCollisionMatrix) AllowedCollision(a, b string) (AllowedCollision, DecideContactFn, bool) {
	if acm == nil {
		return Never, nil, false
	}
	da, okA := acm.defaults[a]
	db, okB := acm.defaults[b]
	if (okA && da.allowed == Always) || (okB && db.allowed == Always) {
		return Always, nil, true
	}
	if e, ok := acm.entries[newPairKey(a, b)]; ok {
		return e.allowed, e.fn, true
	}
	switch {
	case okA && okB:
		if da.allowed == Conditional && db.allowed == Conditional {
			return Conditional, func(c Contact) bool { return da.fn(c) && db.fn(c) }, true
		}
		if da.allowed == Conditional {
			return Conditional, da.fn, true
		}
		if db.allowed == Conditional {
			return Conditional, db.fn, true
		}
		return Never, nil, true
	case okA:
		return da.allowed, da.fn, true
	case okB:
		return db.allowed, db.fn, true
	}
	return Never, nil, false
}

// EntryNames returns every name in a pair or default entry, sorted.
func (acm *AllowedCollisionMatrix) EntryNames() []string {
	names := map[string]struct{}{}
	for k := range acm.entries {
		names[k[0]] = struct{}{}
		names[k[1]] = struct{}{}
	}
	for k := range acm.defaults {
		names[k] = struct{}{}
	}
	out := lo.Keys(names)
	sort.Strings(out)
	return out
}

// Size returns the number of pair entries.
func (acm *AllowedCollisionMatrix) Size() int {
	return len(acm.entries)
}

// ToMsg returns the message form. Conditional entries are exported as not allowed.
func (acm *AllowedCollisionMatrix) ToMsg() msgs.AllowedCollisionMatrix {
	m := msgs.AllowedCollisionMatrix{}
	pairNames := map[string]struct{}{}
	for k := range acm.entries {
		pairNames[k[0]] = struct{}{}
		pairNames[k[1]] = struct{}{}
	}
	m.EntryNames = lo.Keys(pairNames)
	sort.Strings(m.EntryNames)
	for _, a := range m.EntryNames {
		row := msgs.AllowedCollisionEntry{Enabled: make([]bool, len(m.EntryNames))}
		for j, b := range m.EntryNames {
			e, ok := acm.entries[newPairKey(a, b)]
			row.Enabled[j] = ok && e.allowed == Always
		}
		m.EntryValues = append(m.EntryValues, row)
	}
	m.DefaultEntryNames = lo.Keys(acm.defaults)
	sort.Strings(m.DefaultEntryNames)
	for _, name := range m.DefaultEntryNames {
		m.DefaultEntryValues = append(m.DefaultEntryValues, acm.defaults[name].allowed == Always)
	}
	return m
}

// Print writes the matrix as a table, one row per name with '1' for Always, '0' for Never, '?' for Conditional
// and '-' for unset.
func (acm *AllowedCollisionMatrix) Print(w io.Writer) error {
	names := acm.EntryNames()
	width := lo.Max(lo.Map(names, func(n string, _ int) int { return len(n) }))
	for _, a := range names {
		line := fmt.Sprintf("%*s | ", width, a)
		for _, b := range names {
			e, ok := acm.entries[newPairKey(a, b)]
			switch {
			case !ok:
				line += "- "
			case e.allowed == Always:
				line += "1 "
			case e.allowed == Conditional:
				line += "? "
			default:
				line += "0 "
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

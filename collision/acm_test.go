package collision

import (
	"bytes"
	"testing"

	"go.viam.com/test"

	"go.viam.com/planningscene/msgs"
)

func TestAllowedCollisionResolution(t *testing.T) {
	acm := NewAllowedCollisionMatrix()
	a, _, found := acm.AllowedCollision("a", "b")
	test.That(t, found, test.ShouldBeFalse)
	test.That(t, a, test.ShouldEqual, Never)

	acm.SetEntry("b", "a", true)
	a, _, found = acm.AllowedCollision("a", "b")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, a, test.ShouldEqual, Always)

	acm.SetDefaultEntry("c", true)
	acm.SetEntry("a", "c", false)
	a, _, _ = acm.AllowedCollision("a", "c")
	test.That(t, a, test.ShouldEqual, Always)

	acm.SetDefaultEntry("d", false)
	a, _, found = acm.AllowedCollision("d", "e")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, a, test.ShouldEqual, Never)

	acm.SetEntryFn("x", "y", func(c Contact) bool { return c.Depth < 0.1 })
	a, fn, _ := acm.AllowedCollision("y", "x")
	test.That(t, a, test.ShouldEqual, Conditional)
	test.That(t, fn(Contact{Depth: 0.05}), test.ShouldBeTrue)
	test.That(t, fn(Contact{Depth: 0.5}), test.ShouldBeFalse)

	var nilACM *AllowedCollisionMatrix
	a, _, _ = nilACM.AllowedCollision("a", "b")
	test.That(t, a, test.ShouldEqual, Never)
}

func TestAllowedCollisionRemoveAndNames(t *testing.T) {
	acm := NewAllowedCollisionMatrixFromNames([]string{"a", "b", "c"}, false)
	acm.SetDefaultEntry("d", true)
	test.That(t, acm.EntryNames(), test.ShouldResemble, []string{"a", "b", "c", "d"})
	test.That(t, acm.HasEntry("b"), test.ShouldBeTrue)

	acm.SetEntryAll("a", true)
	e, ok := acm.Entry("a", "d")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, e, test.ShouldEqual, Always)

	acm.RemoveEntries("b")
	test.That(t, acm.HasEntry("b"), test.ShouldBeFalse)
	acm.RemoveEntries("d")
	_, ok = acm.DefaultEntry("d")
	test.That(t, ok, test.ShouldBeFalse)

	clone := acm.Clone()
	clone.RemoveEntry("a", "c")
	_, ok = acm.Entry("a", "c")
	test.That(t, ok, test.ShouldBeTrue)
}

func TestAllowedCollisionMsg(t *testing.T) {
	acm := NewAllowedCollisionMatrix()
	acm.SetEntry("a", "b", true)
	acm.SetEntry("a", "a", false)
	acm.SetDefaultEntry("octo", true)

	m := acm.ToMsg()
	test.That(t, m.EntryNames, test.ShouldResemble, []string{"a", "b"})
	test.That(t, m.EntryValues, test.ShouldResemble, []msgs.AllowedCollisionEntry{
		{Enabled: []bool{false, true}},
		{Enabled: []bool{true, false}},
	})
	test.That(t, m.DefaultEntryNames, test.ShouldResemble, []string{"octo"})
	test.That(t, m.DefaultEntryValues, test.ShouldResemble, []bool{true})

	back := FromMsg(m)
	a, _, _ := back.AllowedCollision("b", "a")
	test.That(t, a, test.ShouldEqual, Always)
	a, _, _ = back.AllowedCollision("a", "octo")
	test.That(t, a, test.ShouldEqual, Always)

	var buf bytes.Buffer
	test.That(t, acm.Print(&buf), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldContainSubstring, "   a | 0 1 - ")
}

package cli

import (
	"testing"

	"go.viam.com/test"
)

func TestSamePath(t *testing.T) {
	equal, _ := samePath("/x", "/x")
	test.That(t, equal, test.ShouldBeTrue)
	equal, _ = samePath("/x", "x")
	test.That(t, equal, test.ShouldBeFalse)
}

func TestParseJointPositions(t *testing.T) {
	got, err := parseJointPositions([]string{"slide=1.5", "wrist=-2"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, map[string]float64{"slide": 1.5, "wrist": -2})

	for _, bad := range []string{"slide", "=1", "slide=fast"} {
		_, err := parseJointPositions([]string{bad})
		test.That(t, err, test.ShouldNotBeNil)
	}
}

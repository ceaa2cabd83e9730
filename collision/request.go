package collision

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// Request configures a collision query.
type Request struct {
	// GroupName restricts robot bodies to the links of a model group. Empty means the whole robot.
	GroupName string
	Distance  bool
	Cost      bool
	Contacts  bool
	// MaxContacts bounds the number of contacts recorded overall.
	MaxContacts        int
	MaxContactsPerPair int
	MaxCostSources     int
	Verbose            bool

	PadEnvironmentCollisions bool
	PadSelfCollisions        bool
}

// DefaultRequest returns the request used when callers do not supply one.
func DefaultRequest() Request {
	return Request{
		MaxContacts:              1,
		MaxContactsPerPair:       1,
		MaxCostSources:           1,
		PadEnvironmentCollisions: true,
	}
}

// BodyType says what kind of entity a contact body is.
type BodyType uint8

// Body types.
const (
	RobotLink BodyType = iota
	RobotAttached
	WorldObject
)

func (b BodyType) String() string {
	switch b {
	case RobotLink:
		return "robot_link"
	case RobotAttached:
		return "robot_attached"
	case WorldObject:
		return "world_object"
	default:
		return "unknown"
	}
}

// Contact is a single point of contact between two bodies.
type Contact struct {
	Pos       r3.Vector
	Normal    r3.Vector
	Depth     float64
	Body1     string
	Body2     string
	BodyType1 BodyType
	BodyType2 BodyType
}

// ContactKey names the two bodies of a contact, ordered.
type ContactKey [2]string

// NewContactKey orders a and b.
func NewContactKey(a, b string) ContactKey {
	return ContactKey(newPairKey(a, b))
}

// CostSource is a weighted axis aligned region of collision.
type CostSource struct {
	AABBMin r3.Vector
	AABBMax r3.Vector
	Cost    float64
}

// Volume returns the volume of the region.
func (c CostSource) Volume() float64 {
	d := c.AABBMax.Sub(c.AABBMin)
	if d.X <= 0 || d.Y <= 0 || d.Z <= 0 {
		return 0
	}
	return d.X * d.Y * d.Z
}

func (c CostSource) intersection(o CostSource) float64 {
	lower := r3.Vector{X: math.Max(c.AABBMin.X, o.AABBMin.X), Y: math.Max(c.AABBMin.Y, o.AABBMin.Y), Z: math.Max(c.AABBMin.Z, o.AABBMin.Z)}
	upper := r3.Vector{X: math.Min(c.AABBMax.X, o.AABBMax.X), Y: math.Min(c.AABBMax.Y, o.AABBMax.Y), Z: math.Min(c.AABBMax.Z, o.AABBMax.Z)}
	return CostSource{AABBMin: lower, AABBMax: upper}.Volume()
}

// SortCostSources orders sources by decreasing cost, then by position for a stable order.
func SortCostSources(sources []CostSource) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].Cost != sources[j].Cost {
			return sources[i].Cost > sources[j].Cost
		}
		a, b := sources[i].AABBMin, sources[j].AABBMin
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
}

// RemoveCostSources drops every source whose overlap with any of remove is at least overlapFraction of its volume.
func RemoveCostSources(sources, remove []CostSource, overlapFraction float64) []CostSource {
	out := sources[:0:0]
	for _, s := range sources {
		v := s.Volume()
		drop := false
		for _, r := range remove {
			if s.intersection(r) >= v*overlapFraction {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, s)
		}
	}
	return out
}

// RemoveOverlapping drops sources that overlap an earlier, costlier source by at least overlapFraction of their
// own volume. sources must be sorted by SortCostSources.
func RemoveOverlapping(sources []CostSource, overlapFraction float64) []CostSource {
	var out []CostSource
	for _, s := range sources {
		v := s.Volume()
		keep := true
		for _, k := range out {
			if s.intersection(k) >= v*overlapFraction {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, s)
		}
	}
	return out
}

// Result is the outcome of a collision query.
type Result struct {
	Collision    bool
	Distance     float64
	ContactCount int
	Contacts     map[ContactKey][]Contact
	CostSources  []CostSource
}

// NewResult returns an empty result.
func NewResult() *Result {
	r := &Result{}
	r.Clear()
	return r
}

// Clear resets the result.
func (r *Result) Clear() {
	r.Collision = false
	r.Distance = math.MaxFloat64
	r.ContactCount = 0
	r.Contacts = map[ContactKey][]Contact{}
	r.CostSources = nil
}

// done reports whether a query can stop early.
func (r *Result) done(req Request) bool {
	if req.Distance || req.Cost {
		return false
	}
	if !r.Collision {
		return false
	}
	return !req.Contacts || r.ContactCount >= req.MaxContacts
}

func (r *Result) addContact(req Request, c Contact) {
	if !req.Contacts || r.ContactCount >= req.MaxContacts {
		return
	}
	key := NewContactKey(c.Body1, c.Body2)
	perPair := req.MaxContactsPerPair
	if perPair <= 0 {
		perPair = 1
	}
	if len(r.Contacts[key]) >= perPair {
		return
	}
	r.Contacts[key] = append(r.Contacts[key], c)
	r.ContactCount++
}

func (r *Result) addCostSource(req Request, cs CostSource) {
	if !req.Cost {
		return
	}
	r.CostSources = append(r.CostSources, cs)
	SortCostSources(r.CostSources)
	limit := req.MaxCostSources
	if limit <= 0 {
		limit = 1
	}
	if len(r.CostSources) > limit {
		r.CostSources = r.CostSources[:limit]
	}
}

// Package octree implements a voxel occupancy tree: space is recursively partitioned into octants down to a fixed
// resolution and each leaf carries an occupancy log-odds value.
package octree

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Each node in the octree is either an internal node which links to other nodes, or a leaf carrying an occupancy
// value. Leaves whose value is below the occupancy threshold are free.
const (
	InternalNode = NodeType(iota)
	LeafNodeFree
	LeafNodeOccupied
)

// NodeType represents the possible types of nodes in an octree.
type NodeType uint8

const (
	treeDepth = 16
	keyCenter = 1 << (treeDepth - 1)

	// occupancy model, in log-odds
	logOddsHit      = float32(0.85)
	logOddsMiss     = float32(-0.4)
	clampingMin     = float32(-2)
	clampingMax     = float32(3.5)
	occupancyThresh = float32(0)
)

type key [3]uint16

type node struct {
	children *[8]*node
	logOdds  float32
}

func (n *node) isLeaf() bool {
	return n.children == nil
}

func (n *node) nodeType() NodeType {
	switch {
	case !n.isLeaf():
		return InternalNode
	case n.logOdds > occupancyThresh:
		return LeafNodeOccupied
	default:
		return LeafNodeFree
	}
}

// Octree is a sparse occupancy octree with a fixed leaf resolution.
type Octree struct {
	resolution float64
	root       *node
}

// New creates an empty octree whose leaves have the given side length.
func New(resolution float64) (*Octree, error) {
	if resolution <= 0 || math.IsNaN(resolution) || math.IsInf(resolution, 0) {
		return nil, errors.Errorf("invalid resolution (%.4f) for octree", resolution)
	}
	return &Octree{resolution: resolution}, nil
}

// Resolution returns the side length of a leaf voxel.
func (o *Octree) Resolution() float64 {
	return o.resolution
}

// NumLeaves returns the number of leaves (free or occupied) stored in the tree.
func (o *Octree) NumLeaves() int {
	count := 0
	o.Iterate(func(r3.Vector, float64, float32) bool {
		count++
		return true
	})
	return count
}

// Size returns the number of occupied leaves.
func (o *Octree) Size() int {
	count := 0
	o.Iterate(func(_ r3.Vector, _ float64, logOdds float32) bool {
		if logOdds > occupancyThresh {
			count++
		}
		return true
	})
	return count
}

func (o *Octree) coordToKey(p r3.Vector) (key, error) {
	var k key
	for i, v := range []float64{p.X, p.Y, p.Z} {
		idx := math.Floor(v/o.resolution) + keyCenter
		if idx < 0 || idx >= 2*keyCenter || math.IsNaN(idx) {
			return k, errors.Errorf("point %v is outside the bounds of this octree", p)
		}
		k[i] = uint16(idx)
	}
	return k, nil
}

func childIndex(k key, depth int) int {
	bit := uint(treeDepth - 1 - depth)
	idx := 0
	if k[0]>>bit&1 == 1 {
		idx |= 1
	}
	if k[1]>>bit&1 == 1 {
		idx |= 2
	}
	if k[2]>>bit&1 == 1 {
		idx |= 4
	}
	return idx
}

// nodeCenter returns the center and side length of the node at depth whose key prefix is k.
func (o *Octree) nodeCenter(k key, depth int) (r3.Vector, float64) {
	span := uint32(1) << uint(treeDepth-depth)
	coord := func(c uint16) float64 {
		base := uint32(c) &^ (span - 1)
		return (float64(base) - keyCenter + float64(span)/2) * o.resolution
	}
	return r3.Vector{X: coord(k[0]), Y: coord(k[1]), Z: coord(k[2])}, float64(span) * o.resolution
}

// leafFor walks to the leaf covering k. With create set, missing nodes are added and coarse leaves are expanded
// into eight children carrying the parent's value.
func (o *Octree) leafFor(k key, create bool) *node {
	if o.root == nil {
		if !create {
			return nil
		}
		o.root = &node{children: &[8]*node{}}
	}
	n := o.root
	for depth := 0; depth < treeDepth; depth++ {
		if n.isLeaf() {
			if !create {
				return n
			}
			n.children = &[8]*node{}
			for i := range n.children {
				n.children[i] = &node{logOdds: n.logOdds}
			}
		}
		idx := childIndex(k, depth)
		child := n.children[idx]
		if child == nil {
			if !create {
				return nil
			}
			child = &node{}
			n.children[idx] = child
		}
		n = child
	}
	return n
}

// UpdateNode integrates a single occupied or free observation at p.
func (o *Octree) UpdateNode(p r3.Vector, occupied bool) error {
	k, err := o.coordToKey(p)
	if err != nil {
		return err
	}
	n := o.leafFor(k, true)
	if occupied {
		n.logOdds += logOddsHit
	} else {
		n.logOdds += logOddsMiss
	}
	n.logOdds = float32(math.Max(float64(clampingMin), math.Min(float64(clampingMax), float64(n.logOdds))))
	return nil
}

// SetNodeValue sets the log-odds value of the leaf containing p.
func (o *Octree) SetNodeValue(p r3.Vector, logOdds float32) error {
	k, err := o.coordToKey(p)
	if err != nil {
		return err
	}
	o.leafFor(k, true).logOdds = logOdds
	return nil
}

// Search returns the log-odds of the leaf containing p, if one is known.
func (o *Octree) Search(p r3.Vector) (float32, bool) {
	k, err := o.coordToKey(p)
	if err != nil {
		return 0, false
	}
	n := o.leafFor(k, false)
	if n == nil || !n.isLeaf() {
		return 0, false
	}
	return n.logOdds, true
}

// IsOccupied returns whether the voxel containing p is known and occupied.
func (o *Octree) IsOccupied(p r3.Vector) bool {
	v, ok := o.Search(p)
	return ok && v > occupancyThresh
}

// Iterate visits every leaf in depth-first order with its center, side length and log-odds. It stops early if fn
// returns false.
func (o *Octree) Iterate(fn func(center r3.Vector, size float64, logOdds float32) bool) {
	if o.root == nil {
		return
	}
	o.iterate(o.root, key{}, 0, fn)
}

func (o *Octree) iterate(n *node, k key, depth int, fn func(r3.Vector, float64, float32) bool) bool {
	if n.isLeaf() {
		center, size := o.nodeCenter(k, depth)
		return fn(center, size, n.logOdds)
	}
	bit := uint(treeDepth - 1 - depth)
	for i, child := range n.children {
		if child == nil {
			continue
		}
		ck := k
		if i&1 != 0 {
			ck[0] |= 1 << bit
		}
		if i&2 != 0 {
			ck[1] |= 1 << bit
		}
		if i&4 != 0 {
			ck[2] |= 1 << bit
		}
		if !o.iterate(child, ck, depth+1, fn) {
			return false
		}
	}
	return true
}

// OccupiedCenters returns the centers of all occupied leaves along with the side length of each.
func (o *Octree) OccupiedCenters() ([]r3.Vector, []float64) {
	var centers []r3.Vector
	var sizes []float64
	o.Iterate(func(c r3.Vector, size float64, logOdds float32) bool {
		if logOdds > occupancyThresh {
			centers = append(centers, c)
			sizes = append(sizes, size)
		}
		return true
	})
	return centers, sizes
}

// Clone returns a deep copy of the tree.
func (o *Octree) Clone() *Octree {
	return &Octree{resolution: o.resolution, root: cloneNode(o.root)}
}

func cloneNode(n *node) *node {
	if n == nil {
		return nil
	}
	out := &node{logOdds: n.logOdds}
	if n.children != nil {
		out.children = &[8]*node{}
		for i, c := range n.children {
			out.children[i] = cloneNode(c)
		}
	}
	return out
}

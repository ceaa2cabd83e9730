package octree

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// child codes of the binary encoding, two bits per child
const (
	codeUnknown = iota
	codeFree
	codeOccupied
	codeInner
)

// MarshalBinary encodes only the occupancy state of the tree: for every inner node, depth first, a little-endian
// uint16 holding a two bit code per child. Leaf values are reduced to free or occupied.
func (o *Octree) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if o.root == nil {
		return nil, nil
	}
	if o.root.isLeaf() {
		return nil, errors.New("cannot binary encode an octree whose root is a leaf")
	}
	writeBinaryNode(&buf, o.root)
	return buf.Bytes(), nil
}

func writeBinaryNode(w *bytes.Buffer, n *node) {
	var codes uint16
	for i, child := range n.children {
		code := codeUnknown
		switch {
		case child == nil:
		case !child.isLeaf():
			code = codeInner
		case child.nodeType() == LeafNodeOccupied:
			code = codeOccupied
		default:
			code = codeFree
		}
		codes |= uint16(code) << uint(2*i)
	}
	//nolint:errcheck
	binary.Write(w, binary.LittleEndian, codes)
	for _, child := range n.children {
		if child != nil && !child.isLeaf() {
			writeBinaryNode(w, child)
		}
	}
}

// UnmarshalBinary decodes data produced by MarshalBinary into a new tree of the given resolution.
func UnmarshalBinary(resolution float64, data []byte) (*Octree, error) {
	o, err := New(resolution)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return o, nil
	}
	r := bytes.NewReader(data)
	o.root = &node{}
	if err := readBinaryNode(r, o.root, 0); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after octree data", r.Len())
	}
	return o, nil
}

func readBinaryNode(r io.Reader, n *node, depth int) error {
	var codes uint16
	if err := binary.Read(r, binary.LittleEndian, &codes); err != nil {
		return errors.Wrap(err, "truncated binary octree")
	}
	n.children = &[8]*node{}
	var inner []*node
	for i := range n.children {
		switch (codes >> uint(2*i)) & 3 {
		case codeFree:
			n.children[i] = &node{logOdds: clampingMin}
		case codeOccupied:
			n.children[i] = &node{logOdds: clampingMax}
		case codeInner:
			if depth+1 >= treeDepth {
				return errors.Errorf("binary octree deeper than %d levels", treeDepth)
			}
			n.children[i] = &node{}
			inner = append(inner, n.children[i])
		}
	}
	for _, child := range inner {
		if err := readBinaryNode(r, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// MarshalFull encodes the tree with its occupancy values: for every node, depth first, a little-endian float32
// log-odds followed by a byte whose bits mark the children present.
func (o *Octree) MarshalFull() ([]byte, error) {
	var buf bytes.Buffer
	if o.root == nil {
		return nil, nil
	}
	if err := writeFullNode(&buf, o.root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFullNode(w io.Writer, n *node) error {
	var mask uint8
	if n.children != nil {
		for i, child := range n.children {
			if child != nil {
				mask |= 1 << uint(i)
			}
		}
	}
	if err := binary.Write(w, binary.LittleEndian, n.logOdds); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, mask); err != nil {
		return err
	}
	if mask == 0 {
		return nil
	}
	for _, child := range n.children {
		if child == nil {
			continue
		}
		if err := writeFullNode(w, child); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalFull decodes data produced by MarshalFull into a new tree of the given resolution.
func UnmarshalFull(resolution float64, data []byte) (*Octree, error) {
	o, err := New(resolution)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return o, nil
	}
	r := bytes.NewReader(data)
	o.root = &node{}
	if err := readFullNode(r, o.root, 0); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after octree data", r.Len())
	}
	return o, nil
}

func readFullNode(r io.Reader, n *node, depth int) error {
	var mask uint8
	if err := binary.Read(r, binary.LittleEndian, &n.logOdds); err != nil {
		return errors.Wrap(err, "truncated octree")
	}
	if err := binary.Read(r, binary.LittleEndian, &mask); err != nil {
		return errors.Wrap(err, "truncated octree")
	}
	if mask == 0 {
		return nil
	}
	if depth >= treeDepth {
		return errors.Errorf("octree deeper than %d levels", treeDepth)
	}
	n.children = &[8]*node{}
	for i := range n.children {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		n.children[i] = &node{}
		if err := readFullNode(r, n.children[i], depth+1); err != nil {
			return err
		}
	}
	return nil
}

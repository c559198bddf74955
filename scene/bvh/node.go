package bvh

import "github.com/guanlun/psan1-rendering-engine/types"

// Bvh node definition. Nodes are stored in a flat list with the root at
// index 0.
type Node struct {
	// Bounding box min extent.
	Min types.Vec3

	// If this is a node then LData > 0 and contains the index to the left
	// child. If this is a leaf then LData is <= 0 and -LData is the index of
	// the first item in the leaf.
	LData int32

	// Bounding box max extent.
	Max types.Vec3

	// If this is a node then RData contains the index to the right child. If
	// this is a leaf then RData contains the number of items in the leaf.
	RData int32
}

// Set the child node indices.
func (n *Node) SetChildNodes(left, right uint32) {
	n.LData = int32(left)
	n.RData = int32(right)
}

// Set the leaf item range.
func (n *Node) SetItems(firstIndex uint32, count uint32) {
	n.LData = -int32(firstIndex)
	n.RData = int32(count)
}

// Returns true if this node is a leaf.
func (n *Node) IsLeaf() bool {
	return n.LData <= 0
}

// Get the child node indices.
func (n *Node) Children() (left, right uint32) {
	return uint32(n.LData), uint32(n.RData)
}

// Get the first item index and item count for a leaf.
func (n *Node) Items() (firstIndex uint32, count uint32) {
	return uint32(-n.LData), uint32(n.RData)
}

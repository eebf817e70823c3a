// Package models defines the core data types for Talus Tally projects:
// nodes, blueprints, blocking relationships, and velocity calculations.
package models

// Node is a single work item in the project hierarchy.
// Parent/child edges may be expressed through ParentID on the child,
// through the Children list on the parent, or both.
type Node struct {
	ID         string         `json:"id" yaml:"id"`
	TypeID     string         `json:"type" yaml:"type"`
	ParentID   *string        `json:"parentId,omitempty" yaml:"parent,omitempty"`
	Children   []string       `json:"children,omitempty" yaml:"children,omitempty"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Parent returns the node's declared parent ID, or "" if it has none.
func (n *Node) Parent() string {
	if n == nil || n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}

// Property returns a property value by ID.
func (n *Node) Property(id string) (any, bool) {
	if n == nil || n.Properties == nil {
		return nil, false
	}
	v, ok := n.Properties[id]
	return v, ok
}

// NodeSet is an ordered collection of nodes keyed by ID. Order is
// insertion order, which ranking uses as the tie-break.
type NodeSet struct {
	ids  []string
	byID map[string]*Node
}

// NewNodeSet builds a NodeSet from nodes in the given order.
// Duplicate IDs keep the first occurrence.
func NewNodeSet(nodes ...*Node) *NodeSet {
	s := &NodeSet{byID: make(map[string]*Node, len(nodes))}
	for _, n := range nodes {
		s.Add(n)
	}
	return s
}

// Add appends a node to the set, ignoring nil nodes and duplicate IDs.
func (s *NodeSet) Add(n *Node) {
	if n == nil || n.ID == "" {
		return
	}
	if _, exists := s.byID[n.ID]; exists {
		return
	}
	s.byID[n.ID] = n
	s.ids = append(s.ids, n.ID)
}

// Get returns the node with the given ID.
func (s *NodeSet) Get(id string) (*Node, bool) {
	if s == nil {
		return nil, false
	}
	n, ok := s.byID[id]
	return n, ok
}

// IDs returns all node IDs in insertion order.
func (s *NodeSet) IDs() []string {
	if s == nil {
		return nil
	}
	return s.ids
}

// Len returns the number of nodes in the set.
func (s *NodeSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

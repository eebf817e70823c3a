package models

// Project is a saved node tree plus its blocking relationships,
// referencing the blueprint that defines its node types.
type Project struct {
	Name      string                 `json:"name" yaml:"name"`
	Blueprint string                 `json:"blueprint,omitempty" yaml:"blueprint,omitempty"`
	Nodes     []*Node                `json:"nodes" yaml:"nodes"`
	Blocking  []BlockingRelationship `json:"blocking,omitempty" yaml:"blocking,omitempty"`
}

// NodeSet builds an ordered snapshot of the project's nodes.
func (p *Project) NodeSet() *NodeSet {
	if p == nil {
		return NewNodeSet()
	}
	return NewNodeSet(p.Nodes...)
}

package models

// BlockingRelationship is a directed edge meaning BlockedNodeID cannot
// progress until BlockingNodeID is resolved. The command layer keeps at
// most one active blocker per blocked node; consumers must still tolerate
// multiple matches in a raw snapshot.
type BlockingRelationship struct {
	BlockedNodeID  string `json:"blockedNodeId" yaml:"blockedNodeId"`
	BlockingNodeID string `json:"blockingNodeId" yaml:"blockingNodeId"`
}

// BlockersOf returns the blocking node IDs for every relationship naming
// nodeID as the blocked node.
func BlockersOf(rels []BlockingRelationship, nodeID string) []string {
	var out []string
	for _, rel := range rels {
		if rel.BlockedNodeID == nodeID {
			out = append(out, rel.BlockingNodeID)
		}
	}
	return out
}

// BlockedBy returns the node IDs blocked by nodeID.
func BlockedBy(rels []BlockingRelationship, nodeID string) []string {
	var out []string
	for _, rel := range rels {
		if rel.BlockingNodeID == nodeID {
			out = append(out, rel.BlockedNodeID)
		}
	}
	return out
}

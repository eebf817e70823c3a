package models

import "math"

// Calculation is the velocity score breakdown for one node, produced by
// one engine pass. JSON field names are the wire format the transport
// layer serializes.
type Calculation struct {
	NodeID          string   `json:"nodeId"`
	BaseScore       float64  `json:"baseScore"`
	InheritedScore  float64  `json:"inheritedScore"`
	StatusScore     float64  `json:"statusScore"`
	NumericalScore  float64  `json:"numericalScore"`
	BlockingPenalty float64  `json:"blockingPenalty"`
	BlockingBonus   float64  `json:"blockingBonus"`
	TotalVelocity   float64  `json:"totalVelocity"`
	IsBlocked       bool     `json:"isBlocked"`
	BlockedByNodes  []string `json:"blockedByNodes"`
	BlocksNodeIDs   []string `json:"blocksNodeIds"`
}

// NewCalculation returns a zero-value calculation for a node. Slices are
// non-nil so the wire format serializes them as empty arrays.
func NewCalculation(nodeID string) Calculation {
	return Calculation{
		NodeID:         nodeID,
		BlockedByNodes: []string{},
		BlocksNodeIDs:  []string{},
	}
}

// ComponentSum is the node's un-penalized score: what it earns from its
// own components before blocking is applied.
func (c Calculation) ComponentSum() float64 {
	return c.BaseScore + c.InheritedScore + c.StatusScore + c.NumericalScore
}

// Round truncates all score fields to two decimal places for display
// and serialization stability.
func (c *Calculation) Round() {
	c.BaseScore = round2(c.BaseScore)
	c.InheritedScore = round2(c.InheritedScore)
	c.StatusScore = round2(c.StatusScore)
	c.NumericalScore = round2(c.NumericalScore)
	c.BlockingPenalty = round2(c.BlockingPenalty)
	c.BlockingBonus = round2(c.BlockingBonus)
	c.TotalVelocity = round2(c.TotalVelocity)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Package velocity computes priority scores for project nodes from a
// node snapshot, a blueprint's scoring configuration, and a set of
// blocking relationships.
//
// An Engine is bound to one consistent snapshot and performs one
// evaluation pass; its cache is never shared across passes. Construct a
// fresh engine per query and discard it. Malformed input (unknown nodes,
// missing configuration, cycles) degrades to zero-value results instead
// of errors: ranking output is advisory and must never abort the editing
// session that requested it.
package velocity

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
)

// unconfiguredBaseScore is the self value of nodes whose type carries no
// velocity configuration at all. They still inherit from ancestors, so a
// child's total is its inherited score minus one.
const unconfiguredBaseScore = -1

// maxAncestorHops bounds the ancestor walk so a malformed parent chain
// terminates. A well-formed tree never gets near it.
const maxAncestorHops = 100

// Engine calculates velocity scores over one snapshot. Not safe for
// concurrent use; callers hold exclusive access for the duration of a
// pass.
type Engine struct {
	nodes     *models.NodeSet
	blueprint *models.Blueprint
	rels      []models.BlockingRelationship

	// parents maps child to parent for edges declared through Children
	// lists. ParentID edges are resolved lazily.
	parents map[string]string

	cache map[string]*models.Calculation
	// active tracks node IDs mid-evaluation; hitting one is the cycle
	// breaker, not an error path.
	active map[string]struct{}
	// pending holds the un-penalized component sum of in-flight nodes so
	// descendants mid-walk can read their ancestor's contribution.
	pending map[string]float64
}

// New creates an engine bound to the given snapshot, blueprint, and
// blocking relationships. All three are read, never mutated.
func New(nodes *models.NodeSet, blueprint *models.Blueprint, rels []models.BlockingRelationship) *Engine {
	e := &Engine{
		nodes:     nodes,
		blueprint: blueprint,
		rels:      rels,
		parents:   make(map[string]string),
		cache:     make(map[string]*models.Calculation),
		active:    make(map[string]struct{}),
		pending:   make(map[string]float64),
	}
	for _, id := range nodes.IDs() {
		node, _ := nodes.Get(id)
		for _, child := range node.Children {
			if _, claimed := e.parents[child]; !claimed && child != "" {
				e.parents[child] = id
			}
		}
	}
	return e
}

// CalculateVelocity returns the score breakdown for one node, evaluating
// it (and any nodes it blocks) if this pass has not seen it yet.
func (e *Engine) CalculateVelocity(nodeID string) models.Calculation {
	if calc, done := e.cache[nodeID]; done {
		return *calc
	}
	if _, mid := e.active[nodeID]; mid {
		return models.NewCalculation(nodeID)
	}
	if _, ok := e.nodes.Get(nodeID); !ok {
		return models.NewCalculation(nodeID)
	}
	for _, id := range e.evaluationOrder(nodeID) {
		e.evaluate(id)
	}
	return *e.cache[nodeID]
}

// CalculateAll resets the pass state and evaluates every node in
// snapshot order, returning the full set of calculations.
func (e *Engine) CalculateAll() map[string]models.Calculation {
	e.cache = make(map[string]*models.Calculation, e.nodes.Len())
	e.active = make(map[string]struct{})
	e.pending = make(map[string]float64)

	for _, id := range e.nodes.IDs() {
		e.CalculateVelocity(id)
	}

	out := make(map[string]models.Calculation, len(e.cache))
	for id, calc := range e.cache {
		out[id] = *calc
	}
	return out
}

// RankedNode pairs a node ID with its calculation in ranking order.
type RankedNode struct {
	NodeID      string
	Calculation models.Calculation
}

// Ranking runs a full pass and returns all nodes sorted by total
// velocity descending. Ties keep snapshot order.
func (e *Engine) Ranking() []RankedNode {
	e.CalculateAll()

	ranked := make([]RankedNode, 0, e.nodes.Len())
	for _, id := range e.nodes.IDs() {
		ranked = append(ranked, RankedNode{NodeID: id, Calculation: *e.cache[id]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Calculation.TotalVelocity > ranked[j].Calculation.TotalVelocity
	})
	return ranked
}

// evaluationOrder returns start plus every uncached node reachable from
// it over blocks-edges, arranged so each node appears after the nodes
// feeding its blocking bonus. Explicit post-order traversal; edges back
// into the in-progress set are cut, which is what bounds cyclic blocking.
func (e *Engine) evaluationOrder(start string) []string {
	type frame struct {
		id       string
		expanded bool
	}

	var order []string
	seen := make(map[string]struct{})
	stack := []frame{{id: start}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.expanded {
			order = append(order, f.id)
			continue
		}
		if _, ok := seen[f.id]; ok {
			continue
		}
		seen[f.id] = struct{}{}
		stack = append(stack, frame{id: f.id, expanded: true})

		for _, blocked := range models.BlockedBy(e.rels, f.id) {
			if _, ok := seen[blocked]; ok {
				continue
			}
			if _, done := e.cache[blocked]; done {
				continue
			}
			if _, mid := e.active[blocked]; mid {
				continue
			}
			if _, ok := e.nodes.Get(blocked); !ok {
				continue
			}
			stack = append(stack, frame{id: blocked})
		}
	}
	return order
}

// evaluate computes and caches the calculation for one node. Nodes it
// blocks must already be cached (or unresolvable, contributing zero).
func (e *Engine) evaluate(nodeID string) {
	if _, done := e.cache[nodeID]; done {
		return
	}
	node, ok := e.nodes.Get(nodeID)
	if !ok {
		return
	}
	e.active[nodeID] = struct{}{}

	calc := models.NewCalculation(nodeID)
	nt := e.blueprint.NodeType(node.TypeID)

	calc.BaseScore = e.baseScore(nt)
	if e.inheritsFromAncestors(nt) {
		calc.InheritedScore = e.inheritedScore(nodeID)
	}
	calc.StatusScore = e.statusScore(node, nt)
	calc.NumericalScore = e.numericalScore(node, nt)

	e.pending[nodeID] = calc.ComponentSum()

	calc.BlockedByNodes = orEmpty(models.BlockersOf(e.rels, nodeID))
	calc.IsBlocked = len(calc.BlockedByNodes) > 0
	if calc.IsBlocked {
		// What the node would have earned without the blocker.
		calc.BlockingPenalty = calc.ComponentSum()
	}

	calc.BlocksNodeIDs = orEmpty(models.BlockedBy(e.rels, nodeID))
	calc.BlockingBonus = e.blockingBonus(calc.BlocksNodeIDs)

	if calc.IsBlocked {
		calc.TotalVelocity = 0
	} else {
		calc.TotalVelocity = calc.ComponentSum() + calc.BlockingBonus
	}
	calc.Round()

	delete(e.pending, nodeID)
	delete(e.active, nodeID)
	e.cache[nodeID] = &calc
}

// baseScore resolves a type's base contribution. Unconfigured types get
// the -1 sentinel; a configured type with a zero base score contributes
// nothing.
func (e *Engine) baseScore(nt *models.NodeType) float64 {
	switch {
	case !nt.HasVelocityConfig():
		return unconfiguredBaseScore
	case nt.VelocityConfig != nil && nt.VelocityConfig.BaseScore != 0:
		return nt.VelocityConfig.BaseScore
	default:
		return 0
	}
}

// inheritsFromAncestors reports whether nodes of this type accumulate
// ancestor contributions. Unconfigured types and types with only
// property-level configuration inherit implicitly.
func (e *Engine) inheritsFromAncestors(nt *models.NodeType) bool {
	if !nt.HasVelocityConfig() {
		return true
	}
	if nt.VelocityConfig == nil {
		return true
	}
	return nt.VelocityConfig.Inherits()
}

// inheritedScore walks the ancestor chain, summing each ancestor's own
// contribution and continuing upward while ancestors are themselves
// inherit-mode. The walk is a bounded loop rather than recursion, so a
// cyclic parent chain terminates at the hop limit at worst.
func (e *Engine) inheritedScore(nodeID string) float64 {
	var total float64
	current := nodeID

	for hop := 0; hop < maxAncestorHops; hop++ {
		parentID := e.parentOf(current)
		if parentID == "" {
			break
		}

		// A blocked ancestor's total collapses to zero, so nothing flows
		// down through it. The descendant itself is not flagged blocked.
		if len(models.BlockersOf(e.rels, parentID)) > 0 {
			break
		}

		if _, mid := e.active[parentID]; mid {
			total += e.pending[parentID]
			break
		}
		if calc, done := e.cache[parentID]; done {
			total += calc.ComponentSum()
			break
		}

		parent, ok := e.nodes.Get(parentID)
		if !ok {
			break
		}
		nt := e.blueprint.NodeType(parent.TypeID)
		total += e.baseScore(nt) + e.statusScore(parent, nt) + e.numericalScore(parent, nt)
		if !e.inheritsFromAncestors(nt) {
			break
		}
		current = parentID
	}
	return total
}

// parentOf resolves a node's parent through either edge representation:
// a Children claim takes precedence, then the node's own ParentID.
func (e *Engine) parentOf(nodeID string) string {
	if p, ok := e.parents[nodeID]; ok {
		return p
	}
	node, ok := e.nodes.Get(nodeID)
	if !ok {
		return ""
	}
	return node.Parent()
}

// statusScore evaluates the type's status rule, if any. The first
// enabled status-mode property decides the score; a value with no
// mapping contributes zero.
func (e *Engine) statusScore(node *models.Node, nt *models.NodeType) float64 {
	if nt == nil {
		return 0
	}
	for i := range nt.Properties {
		prop := &nt.Properties[i]
		cfg := prop.VelocityConfig
		if !cfg.IsStatusRule() {
			continue
		}

		raw, ok := node.Property(prop.ID)
		if !ok {
			return 0
		}
		value, ok := raw.(string)
		if !ok {
			return 0
		}
		// Select values are stored as option IDs; score by option name.
		if prop.Type == "select" {
			value = prop.OptionName(value)
		}
		return cfg.StatusScores[value]
	}
	return 0
}

// numericalScore sums the type's multiplier rules over the node's
// numeric properties. Missing values score as zero; non-numeric values
// are skipped, not errored.
func (e *Engine) numericalScore(node *models.Node, nt *models.NodeType) float64 {
	if nt == nil {
		return 0
	}
	var score float64
	for i := range nt.Properties {
		prop := &nt.Properties[i]
		if !prop.IsNumeric() {
			continue
		}
		cfg := prop.VelocityConfig
		if !cfg.IsMultiplierRule() {
			continue
		}

		var value float64
		if raw, ok := node.Property(prop.ID); ok {
			parsed, numeric := numericValue(raw)
			if !numeric {
				continue
			}
			value = parsed
		}

		if cfg.PenaltyMode {
			// Lower values rank higher: invert against 100.
			score += math.Max(0, (100-value)*cfg.Factor())
		} else {
			score += value * cfg.Factor()
		}
	}
	return score
}

// blockingBonus sums the un-penalized value of every node in blockedIDs.
// Uncached entries are mid-cycle or unknown and contribute nothing,
// matching a zero-value calculation. Bonuses chain so a run of blockers
// still accrues the full downstream value.
func (e *Engine) blockingBonus(blockedIDs []string) float64 {
	var bonus float64
	for _, id := range blockedIDs {
		if calc, done := e.cache[id]; done {
			bonus += calc.ComponentSum() + calc.BlockingBonus
		}
	}
	return bonus
}

// numericValue coerces a property value to float64. Currency strings
// like "$1,200.50" parse after stripping formatting.
func numericValue(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(v, "$", ""), ",", ""))
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

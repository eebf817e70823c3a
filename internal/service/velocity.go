// Package service provides business logic for Talus Tally operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/metrics"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/session"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/velocity"
)

var (
	// ErrSessionNotFound means the session ID is not registered.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNodeNotFound means the node ID is not in the session's graph.
	ErrNodeNotFound = errors.New("node not found")
)

// Broadcaster pushes change notifications to connected clients.
type Broadcaster interface {
	NodeUpdated(sessionID, nodeID string)
	VelocityInvalidated(sessionID string)
}

// VelocityNode is one node's velocity breakdown as served to clients.
type VelocityNode struct {
	NodeID          string   `json:"nodeId"`
	NodeName        string   `json:"nodeName"`
	NodeType        string   `json:"nodeType"`
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

// RankingResult is a full prioritized pass over one session.
type RankingResult struct {
	SessionID string         `json:"sessionId"`
	Nodes     []VelocityNode `json:"nodes"`
	Timestamp int64          `json:"timestamp"`
}

// BlockingGraph lists a session's blocking relationships.
type BlockingGraph struct {
	SessionID     string                        `json:"sessionId"`
	Relationships []models.BlockingRelationship `json:"relationships"`
	Timestamp     int64                         `json:"timestamp"`
}

// VelocityService computes rankings and applies blocking edits on live
// sessions.
type VelocityService struct {
	sessions    *session.Store
	broadcaster Broadcaster
	stats       *metrics.Collector
	logger      *slog.Logger
}

// NewVelocityService creates a velocity service. broadcaster and stats
// may be nil when no clients are listening and nothing collects metrics.
func NewVelocityService(sessions *session.Store, broadcaster Broadcaster, stats *metrics.Collector, logger *slog.Logger) *VelocityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VelocityService{
		sessions:    sessions,
		broadcaster: broadcaster,
		stats:       stats,
		logger:      logger,
	}
}

// Ranking runs a full velocity pass over the session and returns nodes
// sorted by total velocity descending. Nodes with negative totals are
// hidden; those are types with no scoring configured anywhere.
func (s *VelocityService) Ranking(ctx context.Context, sessionID string) (*RankingResult, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	nodes, bp, rels := sess.Snapshot()
	started := time.Now()
	ranked := velocity.New(nodes, bp, rels).Ranking()

	result := &RankingResult{
		SessionID: sessionID,
		Nodes:     make([]VelocityNode, 0, len(ranked)),
		Timestamp: time.Now().UnixMilli(),
	}
	for _, r := range ranked {
		if r.Calculation.TotalVelocity < 0 {
			continue
		}
		result.Nodes = append(result.Nodes, s.toVelocityNode(nodes, bp, r.NodeID, r.Calculation))
	}

	if s.stats != nil {
		s.stats.RecordPass(metrics.OpRankingPass, time.Since(started), int64(nodes.Len()))
	}
	s.logger.Debug("velocity ranking computed",
		"session_id", sessionID,
		"nodes", len(result.Nodes),
		"duration", time.Since(started))
	return result, nil
}

// NodeVelocity computes the breakdown for a single node.
func (s *VelocityService) NodeVelocity(ctx context.Context, sessionID, nodeID string) (*VelocityNode, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	nodes, bp, rels := sess.Snapshot()
	if _, ok := nodes.Get(nodeID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	started := time.Now()
	calc := velocity.New(nodes, bp, rels).CalculateVelocity(nodeID)
	if s.stats != nil {
		s.stats.RecordTiming(metrics.OpNodeCalc, time.Since(started))
	}

	node := s.toVelocityNode(nodes, bp, nodeID, calc)
	return &node, nil
}

// UpdateBlocking sets, replaces, or clears (empty blockerID) the blocker
// of a node, then notifies listeners.
func (s *VelocityService) UpdateBlocking(ctx context.Context, sessionID, blockedNodeID, blockerID string) error {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if _, ok := sess.Node(blockedNodeID); !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, blockedNodeID)
	}
	if blockerID != "" {
		if _, ok := sess.Node(blockerID); !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, blockerID)
		}
	}

	started := time.Now()
	if err := sess.UpdateBlocking(blockedNodeID, blockerID); err != nil {
		return fmt.Errorf("update blocking relationship: %w", err)
	}
	if s.stats != nil {
		s.stats.RecordTiming(metrics.OpBlockingUpdate, time.Since(started))
	}

	s.logger.Info("blocking relationship updated",
		"session_id", sessionID,
		"blocked_node", blockedNodeID,
		"blocker_node", blockerID)
	if s.broadcaster != nil {
		s.broadcaster.NodeUpdated(sessionID, blockedNodeID)
	}
	return nil
}

// UndoBlocking reverts the session's most recent blocking edit.
func (s *VelocityService) UndoBlocking(ctx context.Context, sessionID string) error {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err := sess.UndoBlocking(); err != nil {
		return err
	}

	s.logger.Info("blocking edit undone", "session_id", sessionID)
	if s.broadcaster != nil {
		s.broadcaster.VelocityInvalidated(sessionID)
	}
	return nil
}

// Graph returns the session's current blocking relationships.
func (s *VelocityService) Graph(ctx context.Context, sessionID string) (*BlockingGraph, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return &BlockingGraph{
		SessionID:     sessionID,
		Relationships: sess.Relationships(),
		Timestamp:     time.Now().UnixMilli(),
	}, nil
}

func (s *VelocityService) toVelocityNode(nodes *models.NodeSet, bp *models.Blueprint, nodeID string, calc models.Calculation) VelocityNode {
	name := "Unnamed"
	typeName := ""
	if node, ok := nodes.Get(nodeID); ok {
		if raw, ok := node.Property("name"); ok {
			if v, ok := raw.(string); ok && v != "" {
				name = v
			}
		}
		typeName = node.TypeID
		if nt := bp.NodeType(node.TypeID); nt != nil && nt.Name != "" {
			typeName = nt.Name
		}
	}
	return VelocityNode{
		NodeID:          nodeID,
		NodeName:        name,
		NodeType:        typeName,
		BaseScore:       calc.BaseScore,
		InheritedScore:  calc.InheritedScore,
		StatusScore:     calc.StatusScore,
		NumericalScore:  calc.NumericalScore,
		BlockingPenalty: calc.BlockingPenalty,
		BlockingBonus:   calc.BlockingBonus,
		TotalVelocity:   calc.TotalVelocity,
		IsBlocked:       calc.IsBlocked,
		BlockedByNodes:  calc.BlockedByNodes,
		BlocksNodeIDs:   calc.BlocksNodeIDs,
	}
}

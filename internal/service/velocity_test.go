package service

import (
	"context"
	"errors"
	"testing"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/metrics"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/session"
)

type recordingBroadcaster struct {
	updated     []string
	invalidated []string
}

func (b *recordingBroadcaster) NodeUpdated(sessionID, nodeID string) {
	b.updated = append(b.updated, sessionID+"/"+nodeID)
}

func (b *recordingBroadcaster) VelocityInvalidated(sessionID string) {
	b.invalidated = append(b.invalidated, sessionID)
}

func testBlueprint() *models.Blueprint {
	return &models.Blueprint{
		ID: "restoration",
		NodeTypes: []models.NodeType{
			{
				ID:   "task",
				Name: "Task",
				VelocityConfig: &models.TypeScoreConfig{
					BaseScore: 10,
					ScoreMode: models.ScoreModeFixed,
				},
			},
			{ID: "note", Name: "Note"},
		},
	}
}

func newTestService(t *testing.T) (*VelocityService, *session.Session, *recordingBroadcaster) {
	t.Helper()
	project := &models.Project{
		Name: "bus",
		Nodes: []*models.Node{
			{ID: "engine", TypeID: "task", Properties: map[string]any{"name": "Rebuild engine"}},
			{ID: "carb", TypeID: "task", Properties: map[string]any{"name": "Clean carburetor"}},
			{ID: "memo", TypeID: "note"},
		},
	}
	store := session.NewStore(nil)
	sess := store.Create(project, testBlueprint())
	broadcaster := &recordingBroadcaster{}
	return NewVelocityService(store, broadcaster, metrics.NewCollector(), nil), sess, broadcaster
}

func TestRanking(t *testing.T) {
	svc, sess, _ := newTestService(t)

	result, err := svc.Ranking(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Ranking: %v", err)
	}
	// memo's type has no scoring anywhere, so it is hidden.
	if len(result.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(result.Nodes))
	}
	for _, n := range result.Nodes {
		if n.TotalVelocity != 10 {
			t.Errorf("node %s total = %v, want 10", n.NodeID, n.TotalVelocity)
		}
	}
	first := result.Nodes[0]
	if first.NodeName != "Rebuild engine" || first.NodeType != "Task" {
		t.Errorf("first node = %q/%q, want Rebuild engine/Task", first.NodeName, first.NodeType)
	}
	if result.Timestamp == 0 {
		t.Error("expected a millisecond timestamp")
	}
}

func TestRankingUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Ranking(context.Background(), "bogus"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestNodeVelocity(t *testing.T) {
	svc, sess, _ := newTestService(t)
	ctx := context.Background()

	node, err := svc.NodeVelocity(ctx, sess.ID, "engine")
	if err != nil {
		t.Fatalf("NodeVelocity: %v", err)
	}
	if node.BaseScore != 10 || node.TotalVelocity != 10 {
		t.Errorf("engine breakdown = %+v, want base 10 total 10", node)
	}

	if _, err := svc.NodeVelocity(ctx, sess.ID, "ghost"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound", err)
	}
}

func TestUpdateBlocking(t *testing.T) {
	svc, sess, broadcaster := newTestService(t)
	ctx := context.Background()

	if err := svc.UpdateBlocking(ctx, sess.ID, "carb", "engine"); err != nil {
		t.Fatalf("UpdateBlocking: %v", err)
	}

	blocked, err := svc.NodeVelocity(ctx, sess.ID, "carb")
	if err != nil {
		t.Fatalf("NodeVelocity: %v", err)
	}
	if !blocked.IsBlocked || blocked.TotalVelocity != 0 || blocked.BlockingPenalty != 10 {
		t.Errorf("blocked node = %+v, want blocked with total 0 and penalty 10", blocked)
	}

	blocker, err := svc.NodeVelocity(ctx, sess.ID, "engine")
	if err != nil {
		t.Fatalf("NodeVelocity: %v", err)
	}
	if blocker.BlockingBonus != 10 || blocker.TotalVelocity != 20 {
		t.Errorf("blocker node = %+v, want bonus 10 total 20", blocker)
	}

	if len(broadcaster.updated) != 1 || broadcaster.updated[0] != sess.ID+"/carb" {
		t.Errorf("broadcasts = %v, want one node-updated for carb", broadcaster.updated)
	}
}

func TestUpdateBlockingValidatesNodes(t *testing.T) {
	svc, sess, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.UpdateBlocking(ctx, sess.ID, "ghost", "engine"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("unknown blocked node: err = %v, want ErrNodeNotFound", err)
	}
	if err := svc.UpdateBlocking(ctx, sess.ID, "carb", "ghost"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("unknown blocker: err = %v, want ErrNodeNotFound", err)
	}
	if err := svc.UpdateBlocking(ctx, "bogus", "carb", "engine"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown session: err = %v, want ErrSessionNotFound", err)
	}
}

func TestUndoBlocking(t *testing.T) {
	svc, sess, broadcaster := newTestService(t)
	ctx := context.Background()

	if err := svc.UpdateBlocking(ctx, sess.ID, "carb", "engine"); err != nil {
		t.Fatalf("UpdateBlocking: %v", err)
	}
	if err := svc.UndoBlocking(ctx, sess.ID); err != nil {
		t.Fatalf("UndoBlocking: %v", err)
	}

	node, err := svc.NodeVelocity(ctx, sess.ID, "carb")
	if err != nil {
		t.Fatalf("NodeVelocity: %v", err)
	}
	if node.IsBlocked || node.TotalVelocity != 10 {
		t.Errorf("node after undo = %+v, want unblocked total 10", node)
	}
	if len(broadcaster.invalidated) != 1 {
		t.Errorf("invalidations = %v, want one", broadcaster.invalidated)
	}
}

func TestRankingRecordsMetrics(t *testing.T) {
	store := session.NewStore(nil)
	sess := store.Create(&models.Project{
		Name:  "metrics",
		Nodes: []*models.Node{{ID: "a", TypeID: "task"}},
	}, testBlueprint())
	stats := metrics.NewCollector()
	svc := NewVelocityService(store, nil, stats, nil)

	if _, err := svc.Ranking(context.Background(), sess.ID); err != nil {
		t.Fatalf("Ranking: %v", err)
	}

	snap := stats.Snapshot()
	if snap.RankingPass == nil || snap.RankingPass.Count != 1 {
		t.Fatalf("RankingPass = %+v, want one recorded pass", snap.RankingPass)
	}
	if snap.RankingPass.TotalNodes == nil || *snap.RankingPass.TotalNodes != 1 {
		t.Errorf("TotalNodes = %v, want 1", snap.RankingPass.TotalNodes)
	}
}

func TestGraph(t *testing.T) {
	svc, sess, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.UpdateBlocking(ctx, sess.ID, "carb", "engine"); err != nil {
		t.Fatalf("UpdateBlocking: %v", err)
	}
	graph, err := svc.Graph(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(graph.Relationships) != 1 || graph.Relationships[0].BlockingNodeID != "engine" {
		t.Errorf("graph = %v, want carb blocked by engine", graph.Relationships)
	}
}

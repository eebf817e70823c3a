package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/blueprint"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/commands"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/service"
)

// maxRequestBody bounds uploaded project payloads.
const maxRequestBody = 8 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

type createSessionRequest struct {
	Blueprint models.Blueprint `json:"blueprint"`
	Project   models.Project   `json:"project"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
	Nodes     int    `json:"nodes"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	if err := blueprint.Validate(&req.Blueprint); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess := s.sessions.Create(&req.Project, &req.Blueprint)
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID,
		Nodes:     len(req.Project.Nodes),
	})
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	result, err := s.velocity.Ranking(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleNodeVelocity(w http.ResponseWriter, r *http.Request) {
	node, err := s.velocity.NodeVelocity(r.Context(), r.PathValue("id"), r.PathValue("nodeID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

type updateBlockingRequest struct {
	BlockingNodeID *string `json:"blockingNodeId"`
}

func (s *Server) handleUpdateBlocking(w http.ResponseWriter, r *http.Request) {
	var req updateBlockingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	// null clears the relationship.
	blockerID := ""
	if req.BlockingNodeID != nil {
		blockerID = *req.BlockingNodeID
	}

	sessionID := r.PathValue("id")
	if err := s.velocity.UpdateBlocking(r.Context(), sessionID, r.PathValue("nodeID"), blockerID); err != nil {
		writeServiceError(w, err)
		return
	}

	graph, err := s.velocity.Graph(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

func (s *Server) handleUndoBlocking(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if err := s.velocity.UndoBlocking(r.Context(), sessionID); err != nil {
		if errors.Is(err, commands.ErrNothingToUndo) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeServiceError(w, err)
		return
	}

	graph, err := s.velocity.Graph(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

func (s *Server) handleBlockingGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := s.velocity.Graph(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrNodeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

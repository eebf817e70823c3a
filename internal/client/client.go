// Package client provides a Go client for the Talus Tally server API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/service"
)

// Client talks to a running tally-server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. If baseURL is empty, uses the TALUS_SERVER_URL
// env var or defaults to localhost:8787.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("TALUS_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8787"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type createSessionRequest struct {
	Blueprint *models.Blueprint `json:"blueprint"`
	Project   *models.Project   `json:"project"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// CreateSession uploads a blueprint and project, returning the new
// session's ID.
func (c *Client) CreateSession(ctx context.Context, bp *models.Blueprint, p *models.Project) (string, error) {
	var resp createSessionResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/sessions", createSessionRequest{Blueprint: bp, Project: p}, &resp)
	if err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

// Ranking fetches the full velocity ranking for a session.
func (c *Client) Ranking(ctx context.Context, sessionID string) (*service.RankingResult, error) {
	var result service.RankingResult
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+sessionID+"/velocity", nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// NodeVelocity fetches one node's velocity breakdown.
func (c *Client) NodeVelocity(ctx context.Context, sessionID, nodeID string) (*service.VelocityNode, error) {
	var node service.VelocityNode
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+sessionID+"/nodes/"+nodeID+"/velocity", nil, &node)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// UpdateBlocking sets or replaces a node's blocker. An empty blockerID
// clears it.
func (c *Client) UpdateBlocking(ctx context.Context, sessionID, nodeID, blockerID string) (*service.BlockingGraph, error) {
	body := map[string]any{"blockingNodeId": nil}
	if blockerID != "" {
		body["blockingNodeId"] = blockerID
	}
	var graph service.BlockingGraph
	err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+sessionID+"/nodes/"+nodeID+"/blocking", body, &graph)
	if err != nil {
		return nil, err
	}
	return &graph, nil
}

// UndoBlocking reverts the session's most recent blocking edit.
func (c *Client) UndoBlocking(ctx context.Context, sessionID string) (*service.BlockingGraph, error) {
	var graph service.BlockingGraph
	err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+sessionID+"/blocking/undo", nil, &graph)
	if err != nil {
		return nil, err
	}
	return &graph, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("server: %s (status %d)", errResp.Error, resp.StatusCode)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
)

// Event is one change notification from the server's event stream.
type Event struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId"`
	NodeID    string `json:"nodeId,omitempty"`
}

// Watch subscribes to a session's event stream. Events arrive on the
// returned channel until ctx is cancelled or the connection drops; the
// channel is closed either way.
func (c *Client) Watch(ctx context.Context, sessionID string) (<-chan Event, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws?sessionId=" + sessionID

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	events := make(chan Event)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var ev Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

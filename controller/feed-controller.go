package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"scorekeeper/client"
	"scorekeeper/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const feedWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// allow any host origin to connect to the websocket
		return true
	},
}

// FeedHub pushes workflow notifications to connected websocket clients. Each connection may
// filter on a single entity type.
type FeedHub struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]string
}

func NewFeedHub() *FeedHub {
	return &FeedHub{connections: make(map[*websocket.Conn]string)}
}

func (h *FeedHub) Notify(ctx context.Context, notification client.Notification) error {
	serialized, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, entityType := range h.connections {
		if entityType != "" && entityType != notification.EntityType {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, serialized); err != nil {
			conn.Close()
			h.remove(conn)
		}
	}
	return nil
}

func (h *FeedHub) add(conn *websocket.Conn, entityType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn] = entityType
	metrics.FeedConnectionsGauge.Set(float64(len(h.connections)))
}

// remove expects h.mu to be held.
func (h *FeedHub) remove(conn *websocket.Conn) {
	delete(h.connections, conn)
	metrics.FeedConnectionsGauge.Set(float64(len(h.connections)))
}

func (h *FeedHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

func setupFeedController(deps *Dependencies) []RouteInfo {
	if deps.Feed == nil {
		return nil
	}
	return []RouteInfo{
		{Method: "GET", Path: "/feed/ws", HandlerFunc: deps.Feed.WebSocketHandler},
	}
}

// @id FeedWebSocket
// @Description Websocket for workflow notifications. Once connected, the client receives every transition announcement, optionally filtered by entity type.
// @Tags feed
// @Param entity_type query string false "Only forward notifications for this record type"
// @Success 200 {object} client.Notification
// @Router /feed/ws [get]
func (h *FeedHub) WebSocketHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		http.NotFound(c.Writer, c.Request)
		return
	}
	defer conn.Close()
	h.add(conn, c.Query("entity_type"))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.mu.Lock()
			h.remove(conn)
			h.mu.Unlock()
			return
		}
	}
}

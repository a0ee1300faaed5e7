package sse

import (
	"fmt"
	"log"
	"sync"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// GlobalHub is the singleton SSE Hub instance
var GlobalHub = NewHub()

// NewHub creates a new SSE Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("[SSE] Client registered: id=%s user=%s (total: %d)", client.ID, client.UserID, len(h.clients))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		log.Printf("[SSE] Client unregistered: id=%s (total: %d)", clientID, len(h.clients))
	}
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			log.Printf("[SSE] Client %s buffer full, skipping event", client.ID)
		}
	}
}

// PublishWorkOrderUpdate 工单状态变化（下达/暂停/取消/恢复等），看板据此刷新
func PublishWorkOrderUpdate(workOrderID, status, action string) {
	data := fmt.Sprintf(`{"work_order_id":"%s","status":"%s","action":"%s"}`, workOrderID, status, action)
	GlobalHub.Broadcast(Event{
		EventType: "work_order_update",
		Data:      data,
	})
	log.Printf("[SSE] Published work_order_update: wo=%s status=%s action=%s", workOrderID, status, action)
}

// PublishStageUpdate 工序事件（START/PAUSE/COMPLETE落日志后推送）
func PublishStageUpdate(workOrderID, stageCode, event string) {
	data := fmt.Sprintf(`{"work_order_id":"%s","stage_code":"%s","event":"%s"}`, workOrderID, stageCode, event)
	GlobalHub.Broadcast(Event{
		EventType: "stage_update",
		Data:      data,
	})
	log.Printf("[SSE] Published stage_update: wo=%s stage=%s event=%s", workOrderID, stageCode, event)
}

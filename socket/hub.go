package socket

import (
	"context"
	"encoding/json"
	"sync"

	"songcatalog/pkg/events"
	"songcatalog/pkg/logger"

	"github.com/gorilla/websocket"
)

const broadcastBuffer = 256

// Hub fans catalog events out to every connected websocket client.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan events.Event
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
}

type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan events.Event, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Publish hands the event to the run loop without blocking the caller.
func (h *Hub) Publish(e events.Event) {
	select {
	case h.Broadcast <- e:
	default:
		logger.Sugar.Warnf("Hub broadcast buffer full, dropping %s event", e.Type)
	}
}

// Subscribers reports the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			// Greet the new client so it knows the subscription is live.
			hello, _ := json.Marshal(events.New(events.Subscribed, 0, map[string]int{"subscribers": count}))
			client.Send <- hello
			logger.Sugar.Debugf("Feed subscriber joined, %d connected", count)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case e := <-h.Broadcast:
			payload, err := json.Marshal(e)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast event: %v", err)
				continue
			}

			// Collect recipients first so the lock is not held during channel sends.
			h.mu.Lock()
			recipients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				recipients = append(recipients, client)
			}
			h.mu.Unlock()

			for _, client := range recipients {
				select {
				case client.Send <- payload:
				default:
					// Lagging client: drop it rather than block the hub.
					logger.Sugar.Warn("Feed client send buffer is full. Disconnecting.")
					h.drop(client)
				}
			}
		}
	}
}

// join and leave give up once the run loop has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.Send)
	}
}

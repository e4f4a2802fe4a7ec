package brackets

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

const (
	MessageBracketSnapshot = "BRACKET_SNAPSHOT"
	MessageBracketUpdated  = "BRACKET_UPDATED"
)

type WebSocketMessage struct {
	Type         string      `json:"type"`
	Payload      interface{} `json:"payload"`
	TournamentID string      `json:"tournamentId,omitempty"`
}

type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
	Room string // tournament id

	mu       sync.Mutex
	isClosed bool
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isClosed {
		close(c.Send)
		c.isClosed = true
	}
}

// Hub tracks websocket clients per tournament room and bridges the
// Broadcaster into them: the first client of a room subscribes the room to
// bracket updates, the last one leaving tears the subscription down, so an
// idle deployment holds no per-tournament state.
type Hub struct {
	broadcaster *Broadcaster
	Register    chan *Client
	Unregister  chan *Client

	mu     sync.RWMutex
	rooms  map[string]map[*Client]bool
	unsubs map[string]func()
}

func NewHub(broadcaster *Broadcaster) *Hub {
	return &Hub{
		broadcaster: broadcaster,
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		rooms:       make(map[string]map[*Client]bool),
		unsubs:      make(map[string]func()),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
				room := client.Room
				h.unsubs[room] = h.broadcaster.Subscribe(room, func(snapshot *models.Bracket) {
					h.BroadcastToRoom(room, WebSocketMessage{
						Type:         MessageBracketUpdated,
						Payload:      snapshot,
						TournamentID: room,
					})
				})
			}
			h.rooms[client.Room][client] = true
			log.Printf("client registered to room %s, %d total", client.Room, len(h.rooms[client.Room]))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.Room]; ok {
				if _, known := clients[client]; known {
					client.close()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.Room)
						if unsub := h.unsubs[client.Room]; unsub != nil {
							unsub()
							delete(h.unsubs, client.Room)
						}
						log.Printf("room %s closed, last client left", client.Room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToRoom sends a message to every client in the room. Clients with
// a full send buffer are skipped rather than blocking the broadcast.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("failed to marshal message for room %s: %v", roomID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		client.mu.Lock()
		if client.isClosed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.Send <- messageBytes:
		default:
			log.Printf("client send buffer full in room %s, dropping update", roomID)
		}
		client.mu.Unlock()
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Incoming messages are ignored; the socket is one-way.
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error in room %s: %v", c.Room, err)
			}
			break
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Drain anything already queued into the same frame batch.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

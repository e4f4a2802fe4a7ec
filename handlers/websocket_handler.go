package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict Origin once the frontend domains are fixed.
		return true
	},
}

type WebSocketHandler struct {
	hub            *brackets.Hub
	bracketService services.BracketService
}

func NewWebSocketHandler(hub *brackets.Hub, bracketService services.BracketService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		bracketService: bracketService,
	}
}

// ServeWs handles GET /ws/tournaments/{tournamentID}. The tournament must
// already have a bracket; its current state is pushed as the first message,
// then every mutation follows as an update.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	if tournamentID == "" {
		http.Error(w, "missing tournamentID", http.StatusBadRequest)
		return
	}

	bracket, err := h.bracketService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		if errors.Is(err, services.ErrBracketNotFound) {
			http.NotFound(w, r)
			return
		}
		serverErrorResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		log.Printf("failed to upgrade connection for tournament %s: %v", tournamentID, err)
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: tournamentID,
	}

	snapshot, err := json.Marshal(brackets.WebSocketMessage{
		Type:         brackets.MessageBracketSnapshot,
		Payload:      bracket,
		TournamentID: tournamentID,
	})
	if err != nil {
		log.Printf("failed to marshal snapshot for tournament %s: %v", tournamentID, err)
		conn.Close()
		return
	}
	client.Send <- snapshot

	client.Hub.Register <- client
	go client.WritePump()
	go client.ReadPump()
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
)

const streamKeepAliveInterval = 25 * time.Second

// StreamHandler exposes bracket updates over Server-Sent Events, for clients
// that cannot hold a websocket. Same contract as the socket: current state
// first, then every subsequent change.
type StreamHandler struct {
	bracketService services.BracketService
	broadcaster    *brackets.Broadcaster
}

func NewStreamHandler(bracketService services.BracketService, broadcaster *brackets.Broadcaster) *StreamHandler {
	return &StreamHandler{
		bracketService: bracketService,
		broadcaster:    broadcaster,
	}
}

// Stream handles GET /tournaments/{tournamentID}/bracket/stream.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	bracket, err := h.bracketService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		if errors.Is(err, services.ErrBracketNotFound) {
			notFoundResponse(w, r)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSSEEvent(w, "snapshot", bracket); err != nil {
		return
	}
	flusher.Flush()

	// Updates land in a buffered channel; if the client cannot keep up the
	// oldest pending snapshot is dropped in favor of the newest.
	updates := make(chan *models.Bracket, 8)
	unsubscribe := h.broadcaster.Subscribe(tournamentID, func(snapshot *models.Bracket) {
		for {
			select {
			case updates <- snapshot:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	defer unsubscribe()

	keepAlive := time.NewTicker(streamKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot := <-updates:
			if err := writeSSEEvent(w, "update", snapshot); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mockup-machine/event"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents streams catalog-change events to a UI client until it
// disconnects.
func (h *handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	id, events := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(id)

	// Serialise writes — gorilla/websocket forbids concurrent writers.
	var writeMu sync.Mutex
	writeEvent := func(ev event.Event) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(ev)
	}

	// Goroutine: pump hub events to the client. Exits when Unsubscribe
	// closes the channel or when a write fails.
	go func() {
		for ev := range events {
			if err := writeEvent(ev); err != nil {
				conn.Close()
				return
			}
		}
	}()

	// Main loop: clients send nothing; reading only detects disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

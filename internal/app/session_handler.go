// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/jump_tracker/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is a capture command from the browser.
type WSMessage struct {
	Action string `json:"action"` // start, stop
}

// WSResponse is a frame pushed to the browser.
type WSResponse struct {
	Type    string         `json:"type"` // jump, summary, status, error
	Jump    *JumpReport    `json:"jump,omitempty"`
	Report  *SessionReport `json:"report,omitempty"`
	Message string         `json:"message,omitempty"`
}

// wsHub fans live frames out to every connected browser.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]*sync.Mutex
}

func newWSHub() *wsHub {
	return &wsHub{conns: map[*websocket.Conn]*sync.Mutex{}}
}

func (h *wsHub) add(conn *websocket.Conn) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	wl := &sync.Mutex{}
	h.conns[conn] = wl
	return wl
}

func (h *wsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

func (h *wsHub) broadcast(frame WSResponse) {
	h.mu.Lock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(h.conns))
	for c, wl := range h.conns {
		conns[c] = wl
	}
	h.mu.Unlock()

	for conn, wl := range conns {
		wl.Lock()
		err := conn.WriteJSON(frame)
		wl.Unlock()
		if err != nil {
			log.Printf("capture ws: write error, dropping client: %v", err)
			h.remove(conn)
			conn.Close()
		}
	}
}

// HandleCaptureWS runs the websocket session for one browser: reads
// start/stop actions, forwards them to the analyzer over the control
// topic, and keeps the connection registered for live frames.
func HandleCaptureWS(w http.ResponseWriter, r *http.Request, client mqtt.Client, hub *wsHub, state *webState) {
	cfg := config.Get()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("capture ws: upgrade error: %v", err)
		return
	}
	defer conn.Close()

	wl := hub.add(conn)
	defer hub.remove(conn)

	send := func(frame WSResponse) {
		wl.Lock()
		defer wl.Unlock()
		if err := conn.WriteJSON(frame); err != nil {
			log.Printf("capture ws: write error: %v", err)
		}
	}

	// Main message loop
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("capture ws: read error: %v", err)
			return
		}

		switch msg.Action {
		case "start", "stop":
			payload, err := json.Marshal(ControlMessage{Action: msg.Action})
			if err != nil {
				send(WSResponse{Type: "error", Message: err.Error()})
				continue
			}
			if token := client.Publish(cfg.TopicControl, 0, false, payload); token.Wait() && token.Error() != nil {
				send(WSResponse{Type: "error", Message: token.Error().Error()})
				continue
			}

			state.mu.Lock()
			if msg.Action == "start" {
				state.capturing = true
				state.jumps = nil
				state.lastReport = nil
			} else {
				state.capturing = false
			}
			state.mu.Unlock()

			send(WSResponse{Type: "status", Message: "capture " + msg.Action})
			log.Printf("capture ws: %s requested", msg.Action)

		default:
			send(WSResponse{Type: "error", Message: "unknown action: " + msg.Action})
		}
	}
}

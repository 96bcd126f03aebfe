package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/jump_tracker/internal/config"
)

// webState is the latest view of the capture, shared between the MQTT
// subscriptions, the JSON API, and the websocket clients.
type webState struct {
	mu         sync.RWMutex
	capturing  bool
	jumps      []JumpReport
	lastReport *SessionReport
}

const maxLiveJumps = 100

// RunWeb serves the browser UI: a JSON snapshot endpoint, static files
// from ./web, and a websocket that starts/stops captures and streams
// jumps as they land.
func RunWeb() error {
	cfg := config.Get()
	state := &webState{}

	// 1) Connect to the broker and mirror the live topics into state.
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	hub := newWSHub()

	jumpToken := client.Subscribe(cfg.TopicJumps, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var jr JumpReport
		if err := json.Unmarshal(msg.Payload(), &jr); err != nil {
			log.Printf("web: jump unmarshal error: %v", err)
			return
		}
		state.mu.Lock()
		state.jumps = append(state.jumps, jr)
		if len(state.jumps) > maxLiveJumps {
			state.jumps = state.jumps[len(state.jumps)-maxLiveJumps:]
		}
		state.mu.Unlock()
		hub.broadcast(WSResponse{Type: "jump", Jump: &jr})
	})
	jumpToken.Wait()
	if jumpToken.Error() != nil {
		return jumpToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicJumps)

	summaryToken := client.Subscribe(cfg.TopicSummary, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var sr SessionReport
		if err := json.Unmarshal(msg.Payload(), &sr); err != nil {
			log.Printf("web: summary unmarshal error: %v", err)
			return
		}
		state.mu.Lock()
		state.lastReport = &sr
		state.capturing = false
		state.mu.Unlock()
		if sr.Error != "" {
			hub.broadcast(WSResponse{Type: "error", Message: sr.Error})
		} else {
			hub.broadcast(WSResponse{Type: "summary", Report: &sr})
		}
	})
	summaryToken.Wait()
	if summaryToken.Error() != nil {
		return summaryToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicSummary)

	// 2) JSON API: current snapshot.
	http.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		state.mu.RLock()
		defer state.mu.RUnlock()

		snapshot := struct {
			Capturing bool           `json:"capturing"`
			Jumps     []JumpReport   `json:"jumps"`
			Report    *SessionReport `json:"report,omitempty"`
		}{
			Capturing: state.capturing,
			Jumps:     state.jumps,
			Report:    state.lastReport,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 3) Websocket capture control + live feed.
	http.HandleFunc("/ws/capture", func(w http.ResponseWriter, r *http.Request) {
		HandleCaptureWS(w, r, client, hub, state)
	})

	// 4) Static files from ./web as the root.
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}

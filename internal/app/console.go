package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/jump_tracker/internal/config"
)

// RunConsole subscribes to the jump and summary topics and prints each
// message as a readable line. Handy while tuning thresholds at the rig.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	jumpToken := client.Subscribe(cfg.TopicJumps, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var jr JumpReport
		if err := json.Unmarshal(msg.Payload(), &jr); err != nil {
			log.Printf("console: jump unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[JUMP]  flight=%6.3fs  height=%6.1fcm  contact=%6.3fs  RSI=%6.3f\n",
			jr.Metrics.FlightTime, jr.Metrics.Height*100, jr.Metrics.ContactTime, jr.Metrics.RSI,
		)
	})
	jumpToken.Wait()
	if jumpToken.Error() != nil {
		return jumpToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicJumps)

	summaryToken := client.Subscribe(cfg.TopicSummary, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var sr SessionReport
		if err := json.Unmarshal(msg.Payload(), &sr); err != nil {
			log.Printf("console: summary unmarshal error: %v", err)
			return
		}

		if sr.Error != "" {
			fmt.Printf("[SESSION] failed: %s\n", sr.Error)
			return
		}

		fmt.Printf(
			"[SESSION] jumps=%d  duration=%5.1fs  cadence=%5.1f/min  rejected=%d\n",
			sr.Summary.Count, sr.Summary.Duration, sr.Summary.Cadence, sr.Rejected,
		)
		if sr.Location != nil {
			fmt.Printf("[SESSION] location lat=%.6f lon=%.6f\n", sr.Location.Latitude, sr.Location.Longitude)
		}
		for i, m := range sr.Summary.Items {
			fmt.Printf("  #%-3d flight=%6.3fs height=%6.1fcm contact=%6.3fs RSI=%6.3f\n",
				i+1, m.FlightTime, m.Height*100, m.ContactTime, m.RSI)
		}
	})
	summaryToken.Wait()
	if summaryToken.Error() != nil {
		return summaryToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSummary)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("console: shutting down")
	return nil
}

package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/jump_tracker/internal/config"
	"github.com/relabs-tech/jump_tracker/internal/motion"
	"github.com/relabs-tech/jump_tracker/internal/sensors"
)

// RunIMUProducer reads the MPU9250, denoises each sample, and publishes
// it to the samples topic. This is the gravity-included feed.
func RunIMUProducer() error {
	log.Println("starting jump-tracker IMU producer (MPU9250 → MQTT)")

	cfg := config.Get()

	// --- choose acceleration source (mock vs real IMU) ---
	var src motion.Source
	var err error
	if cfg.IMUUseMock {
		log.Println("using mock acceleration source")
		src = sensors.NewMockSource()
	} else {
		src, err = sensors.NewIMUSource()
		if err != nil {
			return err
		}
	}

	denoise := cfg.Denoiser()

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDIMUProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Printf("IMU producer: connected to MQTT at %s, publishing to %s", cfg.MQTTBroker, cfg.TopicSamples)

	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		s, err := src.Next()
		if err != nil {
			log.Printf("IMU producer: read error: %v", err)
			continue
		}

		s = denoise.Apply(s)

		payload, err := json.Marshal(s)
		if err != nil {
			log.Printf("IMU producer: json marshal error: %v", err)
			continue
		}
		if token := client.Publish(cfg.TopicSamples, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("IMU producer: MQTT publish error: %v", token.Error())
		}
	}
	return nil
}

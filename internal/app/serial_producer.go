package app

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/jump_tracker/internal/config"
	"github.com/relabs-tech/jump_tracker/internal/sensors"
)

// RunSerialProducer forwards samples from the serial linear-acceleration
// module to the samples topic. The module paces the loop; there is no
// ticker. Analyzers consuming this feed must run with SOURCE_MODE=linear
// so gravity is not subtracted a second time.
func RunSerialProducer() error {
	log.Println("starting jump-tracker serial producer (linear-acceleration module → MQTT)")

	cfg := config.Get()

	src, err := sensors.NewSerialSource()
	if err != nil {
		return err
	}

	denoise := cfg.Denoiser()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSerialProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Printf("serial producer: connected to MQTT at %s, publishing to %s", cfg.MQTTBroker, cfg.TopicSamples)

	for {
		s, err := src.Next()
		if err != nil {
			log.Printf("serial producer: read error: %v", err)
			return err
		}

		s = denoise.Apply(s)

		payload, err := json.Marshal(s)
		if err != nil {
			log.Printf("serial producer: json marshal error: %v", err)
			continue
		}
		if token := client.Publish(cfg.TopicSamples, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("serial producer: MQTT publish error: %v", token.Error())
		}
	}
}

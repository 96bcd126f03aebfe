package app

import (
	"bufio"
	"encoding/json"
	"log"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/jump_tracker/internal/config"
	"github.com/relabs-tech/jump_tracker/internal/gps"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes combined fixes as JSON. The analyzer keeps the most recent
// fix and stamps it on the session report so outdoor sessions carry
// their location.
func RunGPSProducer() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDGPS)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("GPS producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open GPS serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("GPS producer: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	reader := bufio.NewReader(port)

	// RMC carries everything a session geotag needs.
	var current gps.Fix

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("GPS producer: read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy GPS or partial sentences
			continue
		}

		if sentence.DataType() != nmea.TypeRMC {
			continue
		}
		m := sentence.(nmea.RMC)

		current.Time = m.Time.String()
		current.Date = m.Date.String()
		current.Latitude = m.Latitude
		current.Longitude = m.Longitude
		current.SpeedKnots = m.Speed
		current.CourseDeg = m.Course
		current.Validity = string(m.Validity)

		payload, err := json.Marshal(current)
		if err != nil {
			log.Printf("GPS producer: JSON marshal error: %v", err)
			continue
		}

		if token := client.Publish(cfg.TopicGPS, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("GPS producer: publish error: %v", token.Error())
		}
	}
}

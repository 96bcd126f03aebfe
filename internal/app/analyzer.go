// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/jump_tracker/internal/calibration"
	"github.com/relabs-tech/jump_tracker/internal/config"
	"github.com/relabs-tech/jump_tracker/internal/gps"
	"github.com/relabs-tech/jump_tracker/internal/jump"
	"github.com/relabs-tech/jump_tracker/internal/metrics"
	"github.com/relabs-tech/jump_tracker/internal/motion"
	"github.com/relabs-tech/jump_tracker/internal/session"
)

// RunAnalyzer owns the capture session. It consumes the samples topic,
// reacts to start/stop on the control topic, publishes each detected
// jump live, and publishes the session report on stop.
//
// MQTT delivers messages from its own goroutines; a single mutex keeps
// the aggregator single-writer, which the session package requires.
func RunAnalyzer() error {
	cfg := config.Get()

	jc := cfg.DetectorConfig()
	agg, err := buildAggregator(cfg, jc)
	if err != nil {
		return err
	}

	var (
		mu        sync.Mutex
		capturing bool
		lastFix   *gps.Fix
	)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDAnalyzer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("analyzer: connected to MQTT at %s (profile=%s, mode=%s)", cfg.MQTTBroker, cfg.DetectorProfile, cfg.SourceMode)

	// Live event publishing. The listener runs inside Feed, under mu.
	agg.OnJump(func(evt jump.Event, m metrics.Jump) {
		report := JumpReport{Event: evt, Metrics: m}
		payload, err := json.Marshal(report)
		if err != nil {
			log.Printf("analyzer: jump marshal error: %v", err)
			return
		}
		if token := client.Publish(cfg.TopicJumps, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("analyzer: jump publish error: %v", token.Error())
		}
		log.Printf("analyzer: jump flight=%.3fs height=%.3fm contact=%.3fs rsi=%.3f",
			m.FlightTime, m.Height, m.ContactTime, m.RSI)
	})

	// Samples feed.
	sampleToken := client.Subscribe(cfg.TopicSamples, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s motion.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("analyzer: sample unmarshal error: %v", err)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if !capturing {
			return
		}
		if err := agg.Feed(s); err != nil {
			// Calibration failure: the capture never starts. Publish the
			// failure so the UI can show it, then stand down.
			log.Printf("analyzer: %v", err)
			capturing = false
			publishReport(client, cfg.TopicSummary, SessionReport{Error: err.Error()})
		}
	})
	sampleToken.Wait()
	if sampleToken.Error() != nil {
		return sampleToken.Error()
	}
	log.Printf("analyzer: subscribed to %s", cfg.TopicSamples)

	// Capture control.
	controlToken := client.Subscribe(cfg.TopicControl, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var cm ControlMessage
		if err := json.Unmarshal(msg.Payload(), &cm); err != nil {
			log.Printf("analyzer: control unmarshal error: %v", err)
			return
		}

		mu.Lock()
		defer mu.Unlock()

		switch cm.Action {
		case "start":
			agg.Reset()
			capturing = true
			log.Println("analyzer: capture started")

		case "stop":
			if !capturing {
				return
			}
			capturing = false
			summary, err := agg.Finalize()
			if err != nil {
				log.Printf("analyzer: finalize error: %v", err)
				publishReport(client, cfg.TopicSummary, SessionReport{Error: err.Error()})
				return
			}
			report := SessionReport{
				Summary:  summary,
				Rejected: agg.Rejected(),
				Location: lastFix,
			}
			publishReport(client, cfg.TopicSummary, report)
			log.Printf("analyzer: capture stopped: %d jumps in %.1fs (%.1f/min), %d rejected samples",
				summary.Count, summary.Duration, summary.Cadence, report.Rejected)

		default:
			log.Printf("analyzer: unknown control action %q", cm.Action)
		}
	})
	controlToken.Wait()
	if controlToken.Error() != nil {
		return controlToken.Error()
	}
	log.Printf("analyzer: subscribed to %s", cfg.TopicControl)

	// Optional GPS geotag.
	gpsToken := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("analyzer: gps unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastFix = &f
		mu.Unlock()
	})
	gpsToken.Wait()
	if gpsToken.Error() != nil {
		return gpsToken.Error()
	}

	// Block until interrupted.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("analyzer: shutting down")
	return nil
}

func buildAggregator(cfg *config.Config, jc jump.Config) (*session.Aggregator, error) {
	if cfg.SourceMode == "linear" {
		cal, err := calibration.ForLinear(cfg.LinearGravityVec())
		if err != nil {
			return nil, err
		}
		return session.NewWithCalibration(jc, cal), nil
	}
	return session.New(jc, cfg.CalibrationWindow()), nil
}

func publishReport(client mqtt.Client, topic string, report SessionReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		log.Printf("analyzer: report marshal error: %v", err)
		return
	}
	if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("analyzer: report publish error: %v", token.Error())
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Guided gravity calibration for the jump tracker.
//
// The device must sit completely still; the tool captures the configured
// calibration window, estimates gravity magnitude and direction, and
// reports stillness quality. The estimate is the same one the analyzer
// computes at capture start, so this tool is mainly a bench check that
// mounting and scaling are sane before a training session.
//
// Output:
//
//	Writes a JSON file under ./calibration/ including the capture date
//	and per-axis spread.
//
// Run:
//
//	go run ./cmd/calibration
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/relabs-tech/jump_tracker/internal/calibration"
	"github.com/relabs-tech/jump_tracker/internal/config"
	"github.com/relabs-tech/jump_tracker/internal/motion"
	"github.com/relabs-tech/jump_tracker/internal/sensors"
	"github.com/relabs-tech/jump_tracker/internal/vec"
)

const (
	// Stillness quality heuristics, m/s². Above stillStdBad the
	// estimate is printed but flagged as unusable.
	stillStdGood = 0.05
	stillStdBad  = 0.30
)

type report struct {
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`

	Result calibration.Result `json:"result"`

	StdDev  vec.Vec3 `json:"stddev"`
	Quality string   `json:"quality"` // good, marginal, bad
}

func main() {
	configPath := flag.String("config", "./jump_config.txt", "path to configuration file")
	outDir := flag.String("out", "./calibration", "output directory for calibration JSON")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	var src motion.Source
	var desc motion.Descriptor
	var err error
	if cfg.IMUUseMock {
		src = sensors.NewMockSource()
		desc = sensors.MockDescriptor()
	} else {
		src, err = sensors.NewIMUSource()
		if err != nil {
			log.Fatalf("failed to open IMU: %v", err)
		}
		desc = sensors.IMUDescriptor()
	}

	fmt.Println("=== Gravity calibration ===")
	fmt.Printf("Window: %d ms, source: %s\n", cfg.CalibrationWindowMS, desc.Name)
	fmt.Println("Place the device on a flat surface and do not touch it.")
	fmt.Print("Press ENTER to begin...")
	bufio.NewReader(os.Stdin).ReadString('\n')

	samples, err := capture(src, cfg.CalibrationWindow(), time.Duration(cfg.IMUSampleInterval)*time.Millisecond)
	if err != nil {
		log.Fatalf("capture failed: %v", err)
	}
	fmt.Printf("Captured %d samples.\n", len(samples))

	result, err := calibration.Calibrate(samples, cfg.CalibrationWindow())
	if err != nil {
		log.Fatalf("calibration failed: %v", err)
	}

	std := spread(samples)
	quality := classify(std)

	fmt.Printf("g0    = %.4f m/s²\n", result.G0)
	fmt.Printf("gUnit = (%.4f, %.4f, %.4f)\n", result.GUnit.X, result.GUnit.Y, result.GUnit.Z)
	fmt.Printf("spread σ = (%.3f, %.3f, %.3f) m/s² → %s\n", std.X, std.Y, std.Z, quality)
	if quality == "bad" {
		fmt.Println("WARNING: too much movement during capture; repeat on a stable surface.")
	}

	r := report{
		Version:   1,
		Timestamp: time.Now(),
		Source:    desc.Name,
		Result:    result,
		StdDev:    std,
		Quality:   quality,
	}
	path, err := write(*outDir, r)
	if err != nil {
		log.Fatalf("failed to write report: %v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}

// capture polls the source until the sample timestamps span the window.
func capture(src motion.Source, window float64, interval time.Duration) ([]motion.Sample, error) {
	var samples []motion.Sample
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		s, err := src.Next()
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
		if s.T-samples[0].T > window {
			return samples, nil
		}
	}
	return samples, nil
}

func spread(samples []motion.Sample) vec.Vec3 {
	var mean vec.Vec3
	for _, s := range samples {
		mean = mean.Add(s.Vec())
	}
	mean = mean.Scale(1.0 / float64(len(samples)))

	var sq vec.Vec3
	for _, s := range samples {
		d := s.Vec().Add(mean.Scale(-1))
		sq = sq.Add(vec.Vec3{X: d.X * d.X, Y: d.Y * d.Y, Z: d.Z * d.Z})
	}
	n := float64(len(samples))
	return vec.Vec3{
		X: math.Sqrt(sq.X / n),
		Y: math.Sqrt(sq.Y / n),
		Z: math.Sqrt(sq.Z / n),
	}
}

func classify(std vec.Vec3) string {
	worst := math.Max(std.X, math.Max(std.Y, std.Z))
	switch {
	case worst <= stillStdGood:
		return "good"
	case worst <= stillStdBad:
		return "marginal"
	default:
		return "bad"
	}
}

func write(dir string, r report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("gravity_%s.json", r.Timestamp.Format("20060102_150405")))
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

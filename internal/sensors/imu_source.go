// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/jump_tracker/internal/calibration"
	"github.com/relabs-tech/jump_tracker/internal/config"
	"github.com/relabs-tech/jump_tracker/internal/motion"
)

// Full-scale accelerometer range in g for each IMU_ACCEL_RANGE setting.
var accelFullScaleG = []float64{2, 4, 8, 16}

type imuSource struct {
	imu   *mpu9250.MPU9250
	scale float64 // counts → m/s²
	start time.Time
}

// NewIMUSource initializes the MPU9250 over SPI and returns a source of
// acceleration samples in m/s². This feed reports specific force, so
// its descriptor has gravity included.
func NewIMUSource() (motion.Source, error) {
	cfg := config.Get()

	if cfg.IMUSPIDevice == "" {
		return nil, fmt.Errorf("IMU: IMU_SPI_DEVICE not configured")
	}
	if cfg.IMUCSPin == "" {
		return nil, fmt.Errorf("IMU: IMU_CS_PIN not configured")
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.IMUCSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", cfg.IMUCSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.IMUSPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", cfg.IMUSPIDevice, err)
	}

	imu, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	if err := imu.SetAccelRange(cfg.IMUAccelRange); err != nil {
		return nil, fmt.Errorf("IMU: set accel range: %w", err)
	}
	fullScale := accelFullScaleG[cfg.IMUAccelRange]
	log.Printf("IMU: accelerometer range set to %d (±%.0fg)", cfg.IMUAccelRange, fullScale)

	if _, err := imu.SelfTest(); err != nil {
		log.Printf("Warning: IMU self-test failed: %v", err)
	}
	if err := imu.Calibrate(); err != nil {
		log.Printf("Warning: IMU bias calibration failed: %v", err)
	}

	return &imuSource{
		imu:   imu,
		scale: fullScale * calibration.StandardGravity / 32768.0,
		start: time.Now(),
	}, nil
}

// IMUDescriptor describes the MPU9250 feed.
func IMUDescriptor() motion.Descriptor {
	return motion.Descriptor{Name: "mpu9250", GravityIncluded: true}
}

// Next reads one accelerometer sample and converts raw counts to m/s².
// The timestamp is seconds since the source was opened, which keeps it
// monotonic regardless of wall-clock adjustments.
func (s *imuSource) Next() (motion.Sample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("IMU acc X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("IMU acc Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("IMU acc Z: %w", err)
	}

	return motion.Sample{
		T:  time.Since(s.start).Seconds(),
		Ax: float64(ax) * s.scale,
		Ay: float64(ay) * s.scale,
		Az: float64(az) * s.scale,
	}, nil
}

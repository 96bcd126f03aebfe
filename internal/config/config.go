package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/jump_tracker/internal/jump"
	"github.com/relabs-tech/jump_tracker/internal/motion"
	"github.com/relabs-tech/jump_tracker/internal/vec"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker                 string
	MQTTClientIDIMUProducer    string
	MQTTClientIDSerialProducer string
	MQTTClientIDAnalyzer       string
	MQTTClientIDConsole        string
	MQTTClientIDWeb            string
	MQTTClientIDDisplay        string
	MQTTClientIDGPS            string

	// Topics
	TopicSamples string
	TopicJumps   string
	TopicSummary string
	TopicControl string
	TopicGPS     string

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Sample period in milliseconds
	IMUSampleInterval int
	IMUUseMock        bool

	// Serial linear-acceleration module
	SerialPort     string
	SerialBaudRate int

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Detector
	DetectorProfile     string // default, strict, sensitive
	SourceMode          string // raw (gravity included) or linear
	LinearGravityAxis   string // x, y or z; mounting axis for linear mode
	Alpha               float64
	FlightEpsMag        float64
	FlightEpsVert       float64
	MoveThresh          float64
	MinFlightMS         int
	MaxFlightMS         int
	MinContactMS        int
	ContactFallbackMS   int
	CalibrationWindowMS int

	// Denoise floors applied by the producers
	DenoiseFloor        float64
	DenoiseFloorGravity float64
	DenoiseGravityAxis  string // x, y or z

	// Web Server
	WebServerPort int

	// Display
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults returns a Config pre-filled with every optional value so a
// minimal file only needs MQTT_BROKER.
func defaults() *Config {
	return &Config{
		MQTTClientIDIMUProducer:    "jump-imu-producer",
		MQTTClientIDSerialProducer: "jump-serial-producer",
		MQTTClientIDAnalyzer:       "jump-analyzer",
		MQTTClientIDConsole:        "jump-console",
		MQTTClientIDWeb:            "jump-web",
		MQTTClientIDDisplay:        "jump-display",
		MQTTClientIDGPS:            "jump-gps-producer",

		TopicSamples: "jump/samples",
		TopicJumps:   "jump/events",
		TopicSummary: "jump/summary",
		TopicControl: "jump/control",
		TopicGPS:     "jump/gps",

		IMUSampleInterval: 10,
		SerialBaudRate:    115200,
		GPSBaudRate:       9600,

		DetectorProfile:     "default",
		SourceMode:          "raw",
		LinearGravityAxis:   "z",
		CalibrationWindowMS: 1000,

		DenoiseFloor:        0.15,
		DenoiseFloorGravity: 0.40,
		DenoiseGravityAxis:  "z",

		WebServerPort:         8080,
		DisplayUpdateInterval: 250,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_IMU_PRODUCER":
		c.MQTTClientIDIMUProducer = value
	case "MQTT_CLIENT_ID_SERIAL_PRODUCER":
		c.MQTTClientIDSerialProducer = value
	case "MQTT_CLIENT_ID_ANALYZER":
		c.MQTTClientIDAnalyzer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value

	// Topics
	case "TOPIC_SAMPLES":
		c.TopicSamples = value
	case "TOPIC_JUMPS":
		c.TopicJumps = value
	case "TOPIC_SUMMARY":
		c.TopicSummary = value
	case "TOPIC_CONTROL":
		c.TopicControl = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_SAMPLE_INTERVAL":
		interval, err := positiveInt(value)
		if err != nil {
			return fmt.Errorf("IMU_SAMPLE_INTERVAL: %w", err)
		}
		c.IMUSampleInterval = interval
	case "IMU_USE_MOCK":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_USE_MOCK %q: %w", value, err)
		}
		c.IMUUseMock = b

	// Serial module
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := positiveInt(value)
		if err != nil {
			return fmt.Errorf("SERIAL_BAUD_RATE: %w", err)
		}
		c.SerialBaudRate = rate

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := positiveInt(value)
		if err != nil {
			return fmt.Errorf("GPS_BAUD_RATE: %w", err)
		}
		c.GPSBaudRate = rate

	// Detector
	case "DETECTOR_PROFILE":
		switch value {
		case "default", "strict", "sensitive":
			c.DetectorProfile = value
		default:
			return fmt.Errorf("DETECTOR_PROFILE must be default, strict or sensitive, got %q", value)
		}
	case "SOURCE_MODE":
		switch value {
		case "raw", "linear":
			c.SourceMode = value
		default:
			return fmt.Errorf("SOURCE_MODE must be raw or linear, got %q", value)
		}
	case "LINEAR_GRAVITY_AXIS":
		if err := validAxis(value); err != nil {
			return fmt.Errorf("LINEAR_GRAVITY_AXIS: %w", err)
		}
		c.LinearGravityAxis = value
	case "ALPHA":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid ALPHA %q: %w", value, err)
		}
		if f <= 0 || f > 1 {
			return fmt.Errorf("ALPHA must be in (0,1], got %g", f)
		}
		c.Alpha = f
	case "FLIGHT_EPS_MAG":
		f, err := positiveFloat(value)
		if err != nil {
			return fmt.Errorf("FLIGHT_EPS_MAG: %w", err)
		}
		c.FlightEpsMag = f
	case "FLIGHT_EPS_VERT":
		f, err := positiveFloat(value)
		if err != nil {
			return fmt.Errorf("FLIGHT_EPS_VERT: %w", err)
		}
		c.FlightEpsVert = f
	case "MOVE_THRESH":
		f, err := positiveFloat(value)
		if err != nil {
			return fmt.Errorf("MOVE_THRESH: %w", err)
		}
		c.MoveThresh = f
	case "MIN_FLIGHT_MS":
		ms, err := positiveInt(value)
		if err != nil {
			return fmt.Errorf("MIN_FLIGHT_MS: %w", err)
		}
		c.MinFlightMS = ms
	case "MAX_FLIGHT_MS":
		ms, err := positiveInt(value)
		if err != nil {
			return fmt.Errorf("MAX_FLIGHT_MS: %w", err)
		}
		c.MaxFlightMS = ms
	case "MIN_CONTACT_MS":
		ms, err := positiveInt(value)
		if err != nil {
			return fmt.Errorf("MIN_CONTACT_MS: %w", err)
		}
		c.MinContactMS = ms
	case "CONTACT_FALLBACK_MS":
		ms, err := positiveInt(value)
		if err != nil {
			return fmt.Errorf("CONTACT_FALLBACK_MS: %w", err)
		}
		c.ContactFallbackMS = ms
	case "CALIBRATION_WINDOW_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_WINDOW_MS %q: %w", value, err)
		}
		if ms < 500 || ms > 2000 {
			return fmt.Errorf("CALIBRATION_WINDOW_MS must be 500-2000, got %d", ms)
		}
		c.CalibrationWindowMS = ms

	// Denoise
	case "DENOISE_FLOOR":
		f, err := positiveFloat(value)
		if err != nil {
			return fmt.Errorf("DENOISE_FLOOR: %w", err)
		}
		c.DenoiseFloor = f
	case "DENOISE_FLOOR_GRAVITY":
		f, err := positiveFloat(value)
		if err != nil {
			return fmt.Errorf("DENOISE_FLOOR_GRAVITY: %w", err)
		}
		c.DenoiseFloorGravity = f
	case "DENOISE_GRAVITY_AXIS":
		if err := validAxis(value); err != nil {
			return fmt.Errorf("DENOISE_GRAVITY_AXIS: %w", err)
		}
		c.DenoiseGravityAxis = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := positiveInt(value)
		if err != nil {
			return fmt.Errorf("DISPLAY_UPDATE_INTERVAL: %w", err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func positiveFloat(value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", value, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("must be positive, got %g", f)
	}
	return f, nil
}

func positiveInt(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func validAxis(value string) error {
	switch value {
	case "x", "y", "z":
		return nil
	}
	return fmt.Errorf("must be x, y or z, got %q", value)
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.MinFlightMS > 0 && c.MaxFlightMS > 0 && c.MinFlightMS >= c.MaxFlightMS {
		return fmt.Errorf("MIN_FLIGHT_MS must be below MAX_FLIGHT_MS")
	}
	return nil
}

// DetectorConfig builds the engine configuration: the named profile as
// the base, individual keys overriding when set in the file.
func (c *Config) DetectorConfig() jump.Config {
	jc := jump.Profile(c.DetectorProfile)
	if c.Alpha > 0 {
		jc.Alpha = c.Alpha
	}
	if c.FlightEpsMag > 0 {
		jc.FlightEpsMag = c.FlightEpsMag
	}
	if c.FlightEpsVert > 0 {
		jc.FlightEpsVert = c.FlightEpsVert
	}
	if c.MoveThresh > 0 {
		jc.MoveThresh = c.MoveThresh
	}
	if c.MinFlightMS > 0 {
		jc.MinFlight = float64(c.MinFlightMS) / 1000
	}
	if c.MaxFlightMS > 0 {
		jc.MaxFlight = float64(c.MaxFlightMS) / 1000
	}
	if c.MinContactMS > 0 {
		jc.MinContact = float64(c.MinContactMS) / 1000
	}
	if c.ContactFallbackMS > 0 {
		jc.ContactFallback = float64(c.ContactFallbackMS) / 1000
	}
	jc.GravityIncluded = c.SourceMode != "linear"
	return jc
}

// CalibrationWindow returns the calibration window in seconds.
func (c *Config) CalibrationWindow() float64 {
	return float64(c.CalibrationWindowMS) / 1000
}

// Denoiser builds the producer-side denoise prefilter.
func (c *Config) Denoiser() motion.Denoiser {
	return motion.Denoiser{
		Floor:        c.DenoiseFloor,
		GravityFloor: c.DenoiseFloorGravity,
		GravityAxis:  axisIndex(c.DenoiseGravityAxis),
	}
}

// LinearGravityVec returns the mounting axis for linear-mode sources.
func (c *Config) LinearGravityVec() vec.Vec3 {
	switch c.LinearGravityAxis {
	case "x":
		return vec.Vec3{X: 1}
	case "y":
		return vec.Vec3{Y: 1}
	default:
		return vec.Vec3{Z: 1}
	}
}

func axisIndex(axis string) motion.Axis {
	switch axis {
	case "x":
		return motion.AxisX
	case "y":
		return motion.AxisY
	default:
		return motion.AxisZ
	}
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

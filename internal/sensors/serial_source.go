package sensors

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/jump_tracker/internal/config"
	"github.com/relabs-tech/jump_tracker/internal/motion"
)

// serialSource reads the external IMU module, which streams
// "t,ax,ay,az" CSV lines of linear acceleration (gravity already
// removed on the module) at its own rate.
type serialSource struct {
	port   io.ReadCloser
	reader *bufio.Reader
}

// NewSerialSource opens the configured serial port.
func NewSerialSource() (motion.Source, error) {
	cfg := config.Get()

	if cfg.SerialPort == "" {
		return nil, fmt.Errorf("serial source: SERIAL_PORT not configured")
	}

	serialOpts := serial.OpenOptions{
		PortName:        cfg.SerialPort,
		BaudRate:        uint(cfg.SerialBaudRate),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("serial source: open %s: %w", cfg.SerialPort, err)
	}
	log.Printf("serial source: port opened on %s at %d baud", cfg.SerialPort, cfg.SerialBaudRate)

	return &serialSource{port: port, reader: bufio.NewReader(port)}, nil
}

// SerialDescriptor describes the serial linear-acceleration feed.
func SerialDescriptor() motion.Descriptor {
	return motion.Descriptor{Name: "serial-linear", GravityIncluded: false}
}

// Next blocks for the next parseable line. Malformed lines (partial
// reads, boot banners, checksum garbage) are skipped, not surfaced.
func (s *serialSource) Next() (motion.Sample, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return motion.Sample{}, fmt.Errorf("serial source: read: %w", err)
		}

		sample, ok := parseSampleLine(strings.TrimSpace(line))
		if !ok {
			continue
		}
		return sample, nil
	}
}

func parseSampleLine(line string) (motion.Sample, bool) {
	if line == "" {
		return motion.Sample{}, false
	}
	fields := strings.Split(line, ",")
	if len(fields) != 4 {
		return motion.Sample{}, false
	}

	vals := make([]float64, 4)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return motion.Sample{}, false
		}
		vals[i] = v
	}

	return motion.Sample{T: vals[0], Ax: vals[1], Ay: vals[2], Az: vals[3]}, true
}

// Close releases the serial port.
func (s *serialSource) Close() error {
	return s.port.Close()
}

package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/jump_tracker/internal/config"
)

// displayData holds the latest data shown on the OLED.
type displayData struct {
	mu sync.RWMutex

	lastJump JumpReport
	haveJump bool
	count    int

	report     SessionReport
	haveReport bool
}

// RunDisplay drives the SSD1306 OLED at the rig: live jump count and
// last-jump numbers while capturing, session totals after stop.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: SSD1306 initialized")

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &displayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	jumpToken := client.Subscribe(cfg.TopicJumps, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var jr JumpReport
		if err := json.Unmarshal(msg.Payload(), &jr); err != nil {
			log.Printf("display: jump unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.lastJump = jr
		data.haveJump = true
		data.count++
		data.mu.Unlock()
	})
	jumpToken.Wait()
	if jumpToken.Error() != nil {
		return jumpToken.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicJumps)

	summaryToken := client.Subscribe(cfg.TopicSummary, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var sr SessionReport
		if err := json.Unmarshal(msg.Payload(), &sr); err != nil {
			log.Printf("display: summary unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.report = sr
		data.haveReport = true
		data.haveJump = false
		data.count = 0
		data.mu.Unlock()
	})
	summaryToken.Wait()
	if summaryToken.Error() != nil {
		return summaryToken.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicSummary)

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		data.mu.RLock()
		snapshot := displayData{
			lastJump:   data.lastJump,
			haveJump:   data.haveJump,
			count:      data.count,
			report:     data.report,
			haveReport: data.haveReport,
		}
		data.mu.RUnlock()

		if err := updateJumpDisplay(dev, &snapshot); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func blankFrame() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}
	return img
}

func newDrawer(img *image1bit.VerticalLSB) *font.Drawer {
	return &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
}

func updateJumpDisplay(dev *ssd1306.Dev, data *displayData) error {
	img := blankFrame()
	drawer := newDrawer(img)

	switch {
	case data.haveJump:
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(fmt.Sprintf("Jumps: %d", data.count)))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("H: %5.1fcm", data.lastJump.Metrics.Height*100)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("Ft:%6.3fs", data.lastJump.Metrics.FlightTime)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("RSI:%5.2f", data.lastJump.Metrics.RSI)))

	case data.haveReport:
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte("Session done"))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("Jumps: %d", data.report.Summary.Count)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("%4.1f/min", data.report.Summary.Cadence)))

	default:
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Jump Tracker"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := blankFrame()
	drawer := newDrawer(img)

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Jump Tracker"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Starting..."))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/jump_tracker/internal/app"
	"github.com/relabs-tech/jump_tracker/internal/config"
)

func main() {
	configPath := flag.String("config", "./jump_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting jump-tracker GPS producer (NMEA → MQTT)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunGPSProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

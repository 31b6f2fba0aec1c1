package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AirSpectra/internal/alerter"
	"AirSpectra/internal/api"
	"AirSpectra/internal/config"
	"AirSpectra/internal/decode"
	"AirSpectra/internal/engine"
	"AirSpectra/internal/notification"
	"AirSpectra/internal/probe"
	"AirSpectra/pkg/pcap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	captureFile := flag.String("pcap", "", "Read frames from a capture file instead of subscribing to NATS.")
	flag.Parse()

	log.Println("Starting as-engine...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	manager, err := engine.NewManager(cfg)
	if err != nil {
		log.Fatalf("Failed to create engine manager: %v", err)
	}
	manager.Start()

	// Alerter is optional; it needs at least one notifier to be useful.
	var alrt *alerter.Alerter
	if cfg.Alerter.Enabled {
		if cfg.SMTP.Host != "" {
			notifier := notification.NewEmailNotifier(cfg.SMTP)
			alrt, err = alerter.NewAlerter(&cfg.Alerter, manager, notifier)
			if err != nil {
				log.Fatalf("Failed to create alerter: %v", err)
			}
			go alrt.Start()
		} else {
			log.Println("Alerter is enabled in config, but no notifiers are configured. Alerter will not run.")
		}
	}

	var server *api.Server
	if cfg.API.ListenAddr != "" {
		server = api.NewServer(cfg.API.ListenAddr, manager)
		go func() {
			if err := server.Start(); err != nil {
				log.Fatalf("API server failed: %v", err)
			}
		}()
	}

	if *captureFile != "" {
		runFromCapture(*captureFile, manager)
	} else {
		runFromNATS(cfg, manager)
	}

	if alrt != nil {
		alrt.Stop()
	}
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}
	log.Println("Shutdown complete.")
}

// runFromCapture replays a capture file through the pipeline and exits.
func runFromCapture(path string, manager *engine.Manager) {
	reader, err := pcap.NewReader(path)
	if err != nil {
		log.Fatalf("Failed to open capture file: %v", err)
	}
	defer reader.Close()

	log.Printf("Reading frames from '%s'...", path)
	reader.ReadRecords(manager.Input())
	log.Println("Finished reading all frames from the capture file.")

	manager.Stop()
}

// runFromNATS consumes frame records from the probe subject until a
// shutdown signal arrives.
func runFromNATS(cfg *config.Config, manager *engine.Manager) {
	subscriber, err := probe.NewSubscriber(cfg.Probe)
	if err != nil {
		log.Fatalf("Failed to create NATS subscriber: %v", err)
	}

	if err := subscriber.Start(func(rec decode.RawRecord) {
		manager.Input() <- rec
	}); err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping engine...")
	subscriber.Close()
	manager.Stop()
}

package main

import (
	"AirSpectra/internal/config"
	"AirSpectra/internal/decode"
	"AirSpectra/internal/probe"
	"AirSpectra/pkg/pcap"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// --- Command-Line Flag Parsing ---
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	mode := flag.String("mode", "sub", "Operating mode: 'pub' to read a capture and publish, 'sub' to subscribe and print.")
	capturePath := flag.String("pcap", "", "Radiotap capture file to publish (required for pub mode).")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Mode Dispatch ---
	switch *mode {
	case "pub":
		runProbe(cfg.Probe, *capturePath)
	case "sub":
		runSubscriber(cfg.Probe)
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode: %s\n", *mode)
		flag.Usage()
		os.Exit(1)
	}
}

// runProbe reads radiotap frames from a capture file and publishes their
// flattened records to NATS.
func runProbe(cfg config.ProbeConfig, capturePath string) {
	if capturePath == "" {
		log.Println("Error: -pcap flag is required for pub mode.")
		flag.Usage()
		os.Exit(1)
	}
	log.Printf("Starting as-probe in PUBLISH mode from capture: %s", capturePath)

	pub, err := probe.NewPublisher(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer pub.Close()

	reader, err := pcap.NewReader(capturePath)
	if err != nil {
		log.Fatalf("Error opening capture %s: %v", capturePath, err)
	}
	defer reader.Close()

	records := make(chan decode.RawRecord, 100)
	go func() {
		reader.ReadRecords(records)
		close(records)
	}()

	published := 0
	for rec := range records {
		if err := pub.Publish(rec); err != nil {
			log.Printf("Failed to publish record: %v", err)
			continue
		}
		published++
		if published%1000 == 0 {
			log.Printf("%d records published...", published)
		}
	}
	log.Printf("Capture finished, %d records published.", published)
}

// runSubscriber subscribes to the record subject and prints what arrives.
// Useful for checking that a remote probe is actually feeding the engine.
func runSubscriber(cfg config.ProbeConfig) {
	log.Println("Starting as-probe in SUBSCRIBER mode...")

	sub, err := probe.NewSubscriber(cfg)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	handler := func(rec decode.RawRecord) {
		log.Printf("Received record: %+v", rec)
	}

	if err := sub.Start(handler); err != nil {
		log.Fatalf("Subscriber failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
}

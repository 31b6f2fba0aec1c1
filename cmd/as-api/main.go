package main

import (
	"AirSpectra/internal/config"
	"AirSpectra/internal/query"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Find the first enabled ClickHouse writer config
	var chCfg *config.ClickHouseConfig
	for _, writerDef := range cfg.Engine.Writers {
		if writerDef.Enabled && writerDef.Type == "clickhouse" {
			chCfg = &writerDef.ClickHouse
			break
		}
	}

	if chCfg == nil {
		log.Fatalf("No enabled ClickHouse writer found in config. API server cannot start.")
	}

	querier, err := query.NewClickHouseQuerier(*chCfg)
	if err != nil {
		log.Fatalf("Failed to create querier: %v", err)
	}

	r := mux.NewRouter()
	apiHandler := &APIHandler{querier: querier}
	r.HandleFunc("/api/v1/utilization", apiHandler.utilizationHandler).Methods("POST")

	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: r,
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("API server exited.")
}

// APIHandler holds the dependencies for API handlers.
type APIHandler struct {
	querier query.Querier
}

// utilizationRequest selects the channel and time range to query.
type utilizationRequest struct {
	ChannelID string    `json:"channel_id"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
}

// utilizationResponse carries the per-window rows for the requested range.
type utilizationResponse struct {
	ChannelID string                 `json:"channel_id"`
	Windows   []query.UtilizationRow `json:"windows"`
}

// utilizationHandler serves historical per-window channel utilization.
func (h *APIHandler) utilizationHandler(w http.ResponseWriter, r *http.Request) {
	var req utilizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("failed to decode request: %v", err), http.StatusBadRequest)
		return
	}
	if req.ChannelID == "" {
		http.Error(w, "channel_id is required", http.StatusBadRequest)
		return
	}
	if !req.To.After(req.From) {
		http.Error(w, "'to' must be after 'from'", http.StatusBadRequest)
		return
	}

	rows, err := h.querier.ChannelUtilization(r.Context(), req.ChannelID, req.From, req.To)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to query utilization: %v", err), http.StatusInternalServerError)
		return
	}

	resp := utilizationResponse{ChannelID: req.ChannelID, Windows: rows}
	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonBytes)
}

package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"AirSpectra/internal/aggregate"
	"AirSpectra/internal/engine"
)

// Server exposes the engine's latest flushed window over HTTP.
type Server struct {
	manager *engine.Manager
	srv     *http.Server
}

// NewServer creates the live-snapshot API server.
func NewServer(listenAddr string, manager *engine.Manager) *Server {
	s := &Server{manager: manager}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/snapshot", s.snapshotHandler).Methods("GET")
	r.HandleFunc("/api/v1/channels/{channel}/utilization", s.utilizationHandler).Methods("GET")

	s.srv = &http.Server{
		Addr:         listenAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("API server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type totalsEntry struct {
	StationID         string `json:"station_id"`
	ChannelID         string `json:"channel_id"`
	FrameCount        uint64 `json:"frame_count"`
	UnresolvableCount uint64 `json:"unresolvable_count"`
	RetryCount        uint64 `json:"retry_count"`
	FCSBadCount       uint64 `json:"fcs_bad_count"`
	TotalAirtimeNs    uint64 `json:"total_airtime_ns"`
	TotalBytes        uint64 `json:"total_bytes"`
}

type snapshotResponse struct {
	WindowStart     time.Time     `json:"window_start"`
	WindowEnd       time.Time     `json:"window_end"`
	DecodeFailures  uint64        `json:"decode_failures"`
	OutOfOrderCount uint64        `json:"out_of_order"`
	Totals          []totalsEntry `json:"totals"`
}

func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := s.manager.Latest()

	resp := snapshotResponse{
		WindowStart:     snapshot.Start,
		WindowEnd:       snapshot.End,
		DecodeFailures:  snapshot.DecodeFailures,
		OutOfOrderCount: snapshot.OutOfOrderCount,
		Totals:          make([]totalsEntry, 0, len(snapshot.Totals)),
	}
	for key, totals := range snapshot.Totals {
		resp.Totals = append(resp.Totals, totalsEntry{
			StationID:         key.StationID,
			ChannelID:         key.ChannelID,
			FrameCount:        totals.FrameCount,
			UnresolvableCount: totals.UnresolvableCount,
			RetryCount:        totals.RetryCount,
			FCSBadCount:       totals.FCSBadCount,
			TotalAirtimeNs:    totals.TotalAirtimeNs,
			TotalBytes:        totals.TotalBytes,
		})
	}

	writeJSON(w, resp)
}

type utilizationResponse struct {
	ChannelID   string  `json:"channel_id"`
	WindowNs    int64   `json:"window_ns"`
	Utilization float64 `json:"utilization"`
	Overflow    bool    `json:"overflow"`
}

func (s *Server) utilizationHandler(w http.ResponseWriter, r *http.Request) {
	channel := mux.Vars(r)["channel"]
	window := s.manager.WindowDuration()
	utilization, overflow := aggregate.SnapshotChannelUtilization(s.manager.Latest(), channel, window)

	writeJSON(w, utilizationResponse{
		ChannelID:   channel,
		WindowNs:    window.Nanoseconds(),
		Utilization: utilization,
		Overflow:    overflow,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding API response: %v", err)
	}
}

package engine

import (
	"log"
	"sync"
	"time"

	"AirSpectra/internal/aggregate"
	"AirSpectra/internal/config"
	"AirSpectra/internal/decode"
	"AirSpectra/internal/model"
	"AirSpectra/internal/phy"
	"AirSpectra/internal/snapshot"
)

const (
	defaultNumWorkers  = 4
	defaultChannelSize = 1000
)

// ingestItem carries one decoded frame and its airtime result from the
// worker pool to the aggregator goroutine. A decode failure travels as an
// item of its own so the failure tally stays inside the single-writer
// boundary.
type ingestItem struct {
	frame        model.FrameDescriptor
	result       model.AirtimeResult
	decodeFailed bool
}

// Manager runs the airtime pipeline: a pool of stateless decode/compute
// workers feeding a single goroutine that owns the aggregation window, plus
// a snapshotter that hands flushed windows to the configured writers.
type Manager struct {
	decoder *decode.Decoder
	agg     *aggregate.Aggregator
	writers []model.Writer

	recordChannel   chan decode.RawRecord
	ingestChannel   chan ingestItem
	snapshotChannel chan model.WindowSnapshot

	numWorkers     int
	windowDuration time.Duration

	workerWg      sync.WaitGroup
	aggWg         sync.WaitGroup
	snapshotterWg sync.WaitGroup

	mu     sync.RWMutex
	latest model.WindowSnapshot
}

// NewManager creates a new Manager from the engine configuration.
func NewManager(cfg *config.Config) (*Manager, error) {
	engCfg := cfg.Engine

	windowDuration, err := time.ParseDuration(engCfg.WindowDuration)
	if err != nil {
		return nil, err
	}

	numWorkers := engCfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = defaultNumWorkers
	}
	channelSize := engCfg.SizeOfRecordChannel
	if channelSize <= 0 {
		channelSize = defaultChannelSize
	}

	return &Manager{
		decoder:         decode.NewDecoder(engCfg.CCKShortPreamble),
		agg:             aggregate.NewAggregator(),
		writers:         snapshot.NewWriters(engCfg.Writers),
		recordChannel:   make(chan decode.RawRecord, channelSize),
		ingestChannel:   make(chan ingestItem, channelSize),
		snapshotChannel: make(chan model.WindowSnapshot, 16),
		numWorkers:      numWorkers,
		windowDuration:  windowDuration,
	}, nil
}

// Input returns the channel raw frame records should be sent to.
func (m *Manager) Input() chan<- decode.RawRecord {
	return m.recordChannel
}

// Latest returns the most recently flushed window snapshot.
func (m *Manager) Latest() model.WindowSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// WindowDuration returns the configured reset boundary.
func (m *Manager) WindowDuration() time.Duration {
	return m.windowDuration
}

// Start launches the worker pool, the aggregator goroutine and the
// snapshotter.
func (m *Manager) Start() {
	m.workerWg.Add(m.numWorkers)
	for i := 0; i < m.numWorkers; i++ {
		go m.worker()
	}

	m.aggWg.Add(1)
	go m.runAggregator()

	m.snapshotterWg.Add(1)
	go m.runSnapshotter()

	for _, writer := range m.writers {
		log.Printf("Snapshot writer registered with interval %s.", writer.GetInterval())
	}
	log.Printf("Engine started: %d workers, %s window.", m.numWorkers, m.windowDuration)
}

// Stop drains the pipeline: pending records are processed, the final
// partial window is flushed and written, then all goroutines exit.
func (m *Manager) Stop() {
	close(m.recordChannel)
	m.workerWg.Wait()
	close(m.ingestChannel)
	m.aggWg.Wait()
	m.snapshotterWg.Wait()
	log.Println("Engine stopped.")
}

// worker decodes records and computes airtime. Decoder and calculator are
// stateless, so any number of workers may run over disjoint records.
func (m *Manager) worker() {
	defer m.workerWg.Done()
	for rec := range m.recordChannel {
		frame, err := m.decoder.Decode(rec)
		if err != nil {
			log.Printf("Skipping record: %v", err)
			m.ingestChannel <- ingestItem{decodeFailed: true}
			continue
		}
		m.ingestChannel <- ingestItem{frame: frame, result: phy.Compute(frame)}
	}
}

// runAggregator is the single owner of the current window.
func (m *Manager) runAggregator() {
	defer m.aggWg.Done()
	defer close(m.snapshotChannel)

	ticker := time.NewTicker(m.windowDuration)
	defer ticker.Stop()

	for {
		select {
		case item, ok := <-m.ingestChannel:
			if !ok {
				m.emitSnapshot()
				return
			}
			if item.decodeFailed {
				m.agg.RecordDecodeFailure()
				continue
			}
			m.agg.Ingest(item.frame, item.result)
		case <-ticker.C:
			m.emitSnapshot()
		}
	}
}

func (m *Manager) emitSnapshot() {
	snap := m.agg.Flush()
	for _, channel := range aggregate.SnapshotChannels(snap) {
		if utilization, overflow := aggregate.SnapshotChannelUtilization(snap, channel, m.windowDuration); overflow {
			log.Printf("Warning: channel %s utilization %.3f exceeds 1; overlapping or misclassified durations upstream.",
				channel, utilization)
		}
	}
	m.snapshotChannel <- snap
}

// runSnapshotter publishes each flushed window to the writers and caches it
// for API consumers.
func (m *Manager) runSnapshotter() {
	defer m.snapshotterWg.Done()
	for snap := range m.snapshotChannel {
		m.mu.Lock()
		m.latest = snap
		m.mu.Unlock()

		if len(snap.Totals) == 0 && snap.DecodeFailures == 0 {
			continue
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		for _, writer := range m.writers {
			if err := writer.Write(snap, timestamp); err != nil {
				log.Printf("Error writing snapshot: %v", err)
			}
		}
	}
}

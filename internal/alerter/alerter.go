package alerter

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gomarkdown/markdown"

	"AirSpectra/internal/aggregate"
	"AirSpectra/internal/config"
	"AirSpectra/internal/model"
)

// SnapshotSource is where the alerter reads the window it evaluates.
type SnapshotSource interface {
	Latest() model.WindowSnapshot
	WindowDuration() time.Duration
}

// Alerter periodically evaluates the latest window snapshot against the
// configured rules and sends a consolidated notification when any of them
// trips. An over-unity channel utilization is always reported, rule or not:
// it means duration accounting is overlapping or misclassified upstream and
// operators need to see it.
type Alerter struct {
	source        SnapshotSource
	rules         []config.AlerterRule
	notifier      model.Notifier
	checkInterval time.Duration
	stopChan      chan struct{}
	wg            sync.WaitGroup
}

// NewAlerter creates a new Alerter instance.
func NewAlerter(cfg *config.AlerterConfig, source SnapshotSource, notifier model.Notifier) (*Alerter, error) {
	interval, err := time.ParseDuration(cfg.CheckInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid check_interval for alerter: %w", err)
	}

	return &Alerter{
		source:        source,
		rules:         cfg.Rules,
		notifier:      notifier,
		checkInterval: interval,
		stopChan:      make(chan struct{}),
	}, nil
}

// Start begins the periodic evaluation of alert rules.
func (a *Alerter) Start() {
	log.Println("Alerter started")

	a.wg.Add(1)
	defer a.wg.Done()

	ticker := time.NewTicker(a.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.evaluate()
		case <-a.stopChan:
			return
		}
	}
}

// Stop gracefully stops the alerter's evaluation loop.
func (a *Alerter) Stop() {
	log.Println("Stopping Alerter...")
	close(a.stopChan)
	a.wg.Wait()
	a.evaluate()
}

func (a *Alerter) evaluate() {
	snapshot := a.source.Latest()
	if len(snapshot.Totals) == 0 {
		return
	}
	window := a.source.WindowDuration()

	messages := EvaluateSnapshot(snapshot, window, a.rules)
	if len(messages) == 0 {
		return
	}

	log.Printf("Alerter evaluation completed. %d alert(s) triggered.", len(messages))
	if a.notifier == nil {
		return
	}

	body := "# AirSpectra Alert Summary\n\n" +
		"The following alerts were triggered during the last check:\n\n" +
		strings.Join(messages, "\n\n---\n\n")
	html := markdown.ToHTML([]byte(body), nil, nil)

	subject := fmt.Sprintf("AirSpectra Alert Summary (%d Triggered)", len(messages))
	if err := a.notifier.Send(subject, string(html)); err != nil {
		log.Printf("ERROR: Failed to send consolidated alert notification: %v", err)
	} else {
		log.Printf("INFO: Consolidated alert notification sent successfully.")
	}
}

// EvaluateSnapshot returns one markdown message per violated rule plus one
// per over-unity channel.
func EvaluateSnapshot(snapshot model.WindowSnapshot, window time.Duration, rules []config.AlerterRule) []string {
	var messages []string

	for _, channel := range aggregate.SnapshotChannels(snapshot) {
		utilization, overflow := aggregate.SnapshotChannelUtilization(snapshot, channel, window)
		if overflow {
			messages = append(messages, fmt.Sprintf(
				"**Utilization overflow** on channel `%s`: %.3f exceeds 1.0; duration accounting is overlapping or a PHY mode/GI was misclassified upstream.",
				channel, utilization))
		}

		for _, rule := range rules {
			if rule.ChannelID != "" && rule.ChannelID != channel {
				continue
			}
			if rule.MaxUtilization > 0 && utilization > rule.MaxUtilization {
				messages = append(messages, fmt.Sprintf(
					"**Rule `%s`**: channel `%s` utilization %.3f above limit %.3f.",
					rule.Name, channel, utilization, rule.MaxUtilization))
			}
			if rule.MaxUnresolvableFraction > 0 {
				var frames, unresolvable uint64
				for key, totals := range snapshot.Totals {
					if key.ChannelID != channel {
						continue
					}
					frames += totals.FrameCount
					unresolvable += totals.UnresolvableCount
				}
				if frames > 0 {
					fraction := float64(unresolvable) / float64(frames)
					if fraction > rule.MaxUnresolvableFraction {
						messages = append(messages, fmt.Sprintf(
							"**Rule `%s`**: channel `%s` unresolvable fraction %.3f above limit %.3f (%d of %d frames).",
							rule.Name, channel, fraction, rule.MaxUnresolvableFraction, unresolvable, frames))
					}
				}
			}
		}
	}

	return messages
}

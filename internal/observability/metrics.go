package observability

import (
	"fmt"
	"time"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	InteractionsRecorded int            `json:"interactions_recorded"`
	InteractionsByType   map[string]int `json:"interactions_by_type"`
	TransitionsDetected  int            `json:"transitions_detected"`
	FlakyDetected        int            `json:"flaky_detected"`
	LinksMissing         int            `json:"links_missing"`
	LearningsPromoted    int            `json:"learnings_promoted"`
	EventCount           int            `json:"event_count"`
	OldestEvent          *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent          *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		InteractionsByType: make(map[string]int),
	}

	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "interaction.recorded":
			m.InteractionsRecorded++
			if modType, ok := event.Data["type"].(string); ok {
				m.InteractionsByType[modType]++
			}
		case "test.transition":
			m.TransitionsDetected++
		case "test.flaky":
			m.FlakyDetected++
		case "link.target_missing":
			m.LinksMissing++
		case "learning.promoted":
			m.LearningsPromoted++
		}
	}

	return m, nil
}

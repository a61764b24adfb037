package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a lifecycle or progress notification.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	RunID     string                 `json:"run_id,omitempty"`
	Message   string                 `json:"message"`
	Level     string                 `json:"level"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Event types.
const (
	EventTypeProgress            = "progress"
	EventTypeIngestCompleted     = "ingest.completed"
	EventTypeIngestFailed        = "ingest.failed"
	EventTypeValidationCompleted = "validation.completed"
)

// Event levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber handles events. Subscribers are called one event at a
// time, in publication order.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be delivered.
type EventFilter func(event Event) bool

// EventPublisher fans events out to subscribers. Progress reports are
// advisory: in async mode they are dropped when the buffer is full.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	mu          sync.RWMutex
	wg          sync.WaitGroup
	done        chan struct{}
	closeOnce   sync.Once
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) *EventPublisher {
	ep := &EventPublisher{config: cfg, done: make(chan struct{})}
	if cfg.Enabled && cfg.EnableAsync {
		ep.buffer = make(chan Event, cfg.BufferSize)
		ep.wg.Add(1)
		go ep.processEvents()
	}
	return ep
}

// Publish delivers an event to every subscriber whose filter accepts it.
func (ep *EventPublisher) Publish(event Event) error {
	if ep == nil || !ep.config.Enabled {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Level == "" {
		event.Level = EventLevelInfo
	}

	if ep.buffer == nil {
		ep.deliverEvent(event)
		return nil
	}
	select {
	case <-ep.done:
		return fmt.Errorf("event publisher stopped")
	default:
	}
	select {
	case ep.buffer <- event:
		return nil
	default:
		return fmt.Errorf("event buffer full, %s event dropped", event.Type)
	}
}

// PublishProgress reports the advisory completion percentage of a stage.
func (ep *EventPublisher) PublishProgress(source, stage string, percent int) error {
	return ep.Publish(Event{
		Type:    EventTypeProgress,
		Source:  source,
		Message: fmt.Sprintf("%s %d%%", stage, percent),
		Data: map[string]interface{}{
			"stage":   stage,
			"percent": percent,
		},
	})
}

// PublishIngestCompleted reports a successful ingestion.
func (ep *EventPublisher) PublishIngestCompleted(runID string, points int, duration time.Duration) error {
	return ep.Publish(Event{
		Type:    EventTypeIngestCompleted,
		Source:  "ingest",
		RunID:   runID,
		Message: fmt.Sprintf("Ingested %d points", points),
		Data: map[string]interface{}{
			"points":   points,
			"duration": duration.Seconds(),
		},
	})
}

// PublishIngestFailed reports an aborted ingestion.
func (ep *EventPublisher) PublishIngestFailed(runID string, err error) error {
	return ep.Publish(Event{
		Type:    EventTypeIngestFailed,
		Source:  "ingest",
		RunID:   runID,
		Message: err.Error(),
		Level:   EventLevelError,
	})
}

// PublishValidationCompleted reports a validation run with the number of
// flagged tags per rule.
func (ep *EventPublisher) PublishValidationCompleted(runID string, flagged map[string]int, duration time.Duration) error {
	total := 0
	for _, n := range flagged {
		total += n
	}
	level := EventLevelInfo
	if total > 0 {
		level = EventLevelWarning
	}
	return ep.Publish(Event{
		Type:    EventTypeValidationCompleted,
		Source:  "validation",
		RunID:   runID,
		Message: fmt.Sprintf("Validation flagged %d tags", total),
		Level:   level,
		Data: map[string]interface{}{
			"flagged":  flagged,
			"duration": duration.Seconds(),
		},
	})
}

// Subscribe adds a subscriber. A nil filter accepts every event.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.subscribers = append(ep.subscribers, subscriberEntry{subscriber: subscriber, filter: filter})
}

func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()
	for {
		select {
		case event := <-ep.buffer:
			ep.deliverEvent(event)
		case <-ep.done:
			for {
				select {
				case event := <-ep.buffer:
					ep.deliverEvent(event)
				default:
					return
				}
			}
		}
	}
}

func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()
	for _, entry := range ep.subscribers {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown drains buffered events and stops the publisher.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if ep == nil {
		return nil
	}
	ep.closeOnce.Do(func() { close(ep.done) })

	finished := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown timeout")
	}
}

// FilterByType accepts only events of the given types.
func FilterByType(types ...string) EventFilter {
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}
	return func(event Event) bool {
		return typeSet[event.Type]
	}
}

// FilterByLevel accepts events of minLevel or above.
func FilterByLevel(minLevel string) EventFilter {
	levels := map[string]int{
		EventLevelInfo:    0,
		EventLevelWarning: 1,
		EventLevelError:   2,
	}
	minLevelValue := levels[minLevel]
	return func(event Event) bool {
		return levels[event.Level] >= minLevelValue
	}
}

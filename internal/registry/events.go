package registry

import (
	"sync"

	"github.com/rs/zerolog"
)

// Event is a registry lifecycle event: a name, the challenge it concerns
// (empty for registry-wide events) and optional fields.
type Event struct {
	Name      string
	Challenge string
	Fields    map[string]any
}

// Event names.
const (
	EventLoadStart     = "load_start"
	EventModelLoaded   = "model_loaded"
	EventLoadFailed    = "load_failed"
	EventLoadDone      = "load_done"
	EventPredictPanic  = "predict_panic"
	EventGuardPoisoned = "guard_poisoned"
	EventClosed        = "closed"
)

// EventPublisher receives registry events. Implementations must be
// non-blocking and must not panic; Publish may be called from load workers
// concurrently.
type EventPublisher interface {
	Publish(Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MemoryPublisher stores events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Names returns the names of the recorded events in order.
func (p *MemoryPublisher) Names() []string {
	evs := p.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Name
	}
	return out
}

// LogPublisher writes events to a zerolog logger at debug level.
type LogPublisher struct{ log zerolog.Logger }

func NewLogPublisher(l zerolog.Logger) LogPublisher { return LogPublisher{log: l} }

func (p LogPublisher) Publish(e Event) {
	ev := p.log.Debug().Str("event", e.Name)
	if e.Challenge != "" {
		ev = ev.Str("challenge", e.Challenge)
	}
	ev.Fields(e.Fields).Msg("registry event")
}

package engine

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// EventKind identifies one variant of the closed event union below.
type EventKind string

const (
	KindPhaseEntered    EventKind = "PHASE/ENTER"
	KindPhaseExited     EventKind = "PHASE/EXIT"
	KindActionRejected  EventKind = "ACTION/REJECTED"
	KindModuleCompleted EventKind = "MODULE/COMPLETE"
	KindContentAdvanced EventKind = "CONTENT/NEXT"
)

// Event is the full observable surface for renderers. Each variant carries
// only its declared fields; renderers re-derive everything else through
// accessor calls, never by reaching into engine internals.
type Event interface {
	EventKind() EventKind
}

type PhaseEntered struct{ Phase string }

type PhaseExited struct{ Phase string }

type ActionRejected struct {
	Phase  string
	Action Action
}

type ModuleCompleted struct{}

type ContentAdvanced struct{ Index int }

func (PhaseEntered) EventKind() EventKind    { return KindPhaseEntered }
func (PhaseExited) EventKind() EventKind     { return KindPhaseExited }
func (ActionRejected) EventKind() EventKind  { return KindActionRejected }
func (ModuleCompleted) EventKind() EventKind { return KindModuleCompleted }
func (ContentAdvanced) EventKind() EventKind { return KindContentAdvanced }

type subscriber struct {
	id int
	fn func(Event)
}

// Bus is a synchronous publish/subscribe hub for lifecycle events. Delivery
// happens in subscription order within the publishing call; there is no
// cross-process fanout.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[EventKind][]subscriber
}

func NewBus() *Bus {
	return &Bus{subs: make(map[EventKind][]subscriber)}
}

// Subscribe registers a handler for one event kind and returns its
// unsubscribe func. A handler registered while a publish is in flight does
// not receive that event.
func (b *Bus) Subscribe(kind EventKind, fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.subs[kind] = append(b.subs[kind], subscriber{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[kind]
		for i, s := range list {
			if s.id == id {
				b.subs[kind] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every handler registered for its kind. The
// subscriber list is snapshotted before iteration, and a panicking handler is
// recovered and logged so it cannot block delivery to the rest.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	snapshot := make([]subscriber, len(b.subs[ev.EventKind()]))
	copy(snapshot, b.subs[ev.EventKind()])
	b.mu.Unlock()

	for _, s := range snapshot {
		deliver(s, ev)
	}
}

func deliver(s subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("kind", string(ev.EventKind())).Any("panic", r).Msg("event handler panicked")
		}
	}()
	s.fn(ev)
}

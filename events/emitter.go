// Package events provides the synchronous publish/subscribe primitive behind
// node:events.
package events

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

type entry[L any] struct {
	listener L
	once     bool
}

// Emitter maps event names to ordered listener lists. Duplicate
// registrations are kept and invoked once per registration.
type Emitter[L any] struct {
	same   func(a, b L) bool
	events map[string][]entry[L]
	names  []string
	mu     sync.Mutex
}

// New creates an emitter. same decides listener identity for removal.
func New[L any](same func(a, b L) bool) *Emitter[L] {
	return &Emitter[L]{
		same:   same,
		events: make(map[string][]entry[L]),
	}
}

func (e *Emitter[L]) add(event string, en entry[L], prepend bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list, ok := e.events[event]
	if !ok {
		e.names = append(e.names, event)
	}
	if prepend {
		list = append([]entry[L]{en}, list...)
	} else {
		list = append(list, en)
	}
	e.events[event] = list
}

// On appends listener to event.
func (e *Emitter[L]) On(event string, listener L) *Emitter[L] {
	e.add(event, entry[L]{listener: listener}, false)
	return e
}

// Prepend inserts listener at the front of event.
func (e *Emitter[L]) Prepend(event string, listener L) *Emitter[L] {
	e.add(event, entry[L]{listener: listener}, true)
	return e
}

// Once appends listener; it is removed before its first invocation.
func (e *Emitter[L]) Once(event string, listener L) *Emitter[L] {
	e.add(event, entry[L]{listener: listener, once: true}, false)
	return e
}

// Emit invokes every listener registered for event at the time of the call,
// in order. A failing or panicking listener is logged and skipped. Returns
// false when event had no listeners.
func (e *Emitter[L]) Emit(event string, call func(L) error) bool {
	e.mu.Lock()
	list := e.events[event]
	if len(list) == 0 {
		e.mu.Unlock()
		return false
	}
	snapshot := slices.Clone(list)
	kept := list[:0:0]
	for _, en := range list {
		if !en.once {
			kept = append(kept, en)
		}
	}
	e.setLocked(event, kept)
	e.mu.Unlock()

	for _, en := range snapshot {
		if err := invoke(call, en.listener); err != nil {
			Logger().Error("event listener failed",
				zap.String("event", event),
				zap.Error(err))
		}
	}
	return true
}

func invoke[L any](call func(L) error, l L) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return call(l)
}

func (e *Emitter[L]) setLocked(event string, list []entry[L]) {
	if len(list) == 0 {
		delete(e.events, event)
		e.names = slices.DeleteFunc(e.names, func(n string) bool { return n == event })
		return
	}
	e.events[event] = list
}

// RemoveListener removes every registration of listener for event.
func (e *Emitter[L]) RemoveListener(event string, listener L) *Emitter[L] {
	e.mu.Lock()
	defer e.mu.Unlock()

	list, ok := e.events[event]
	if !ok {
		return e
	}
	kept := make([]entry[L], 0, len(list))
	for _, en := range list {
		if !e.same(en.listener, listener) {
			kept = append(kept, en)
		}
	}
	e.setLocked(event, kept)
	return e
}

// RemoveAll drops the listeners of the given events, or of all events when
// none are named.
func (e *Emitter[L]) RemoveAll(events ...string) *Emitter[L] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(events) == 0 {
		e.events = make(map[string][]entry[L])
		e.names = nil
		return e
	}
	for _, ev := range events {
		e.setLocked(ev, nil)
	}
	return e
}

// Listeners returns a copy of the listeners for event.
func (e *Emitter[L]) Listeners(event string) []L {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.events[event]
	out := make([]L, len(list))
	for i, en := range list {
		out[i] = en.listener
	}
	return out
}

func (e *Emitter[L]) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events[event])
}

// EventNames returns events with listeners, in first-registration order.
func (e *Emitter[L]) EventNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.names)
}

// Package network is the single source of truth for connectivity state.
// The host environment's connectivity signal is bridged into the rest
// of the system through exactly one Monitor.
package network

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
)

// Status is the connectivity state.
type Status int

const (
	Offline Status = iota
	Online
)

func (s Status) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// TriggerFunc runs when connectivity returns. Typically wired to the
// sync processor's ProcessQueue.
type TriggerFunc func(ctx context.Context) error

// Monitor tracks online/offline transitions, notifies listeners, and
// fires a reconciliation trigger on each offline-to-online edge.
//
// The trigger is coalesced: if a previous run is still in flight when
// another online event arrives, the new event is dropped, not queued.
// The next genuine transition (or an explicit manual trigger) is the
// retry mechanism.
type Monitor struct {
	mu        sync.Mutex
	online    bool
	listeners map[int]func(Status)
	nextID    int
	trigger   TriggerFunc

	triggerBusy atomic.Bool
	wg          sync.WaitGroup
	logger      *log.Logger
}

// NewMonitor creates a monitor with the given initial state. If logger
// is nil, a default logger writing to stderr is used.
func NewMonitor(online bool, logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.New(os.Stderr, "[network] ", log.LstdFlags)
	}
	return &Monitor{
		online:    online,
		listeners: make(map[int]func(Status)),
		logger:    logger,
	}
}

// Online reports the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Status returns the current state as a Status value.
func (m *Monitor) Status() Status {
	if m.Online() {
		return Online
	}
	return Offline
}

// OnStatusChange registers a listener for state transitions and returns
// an unsubscribe function. The handle makes unsubscription reliable:
// there is no closure identity to get wrong.
func (m *Monitor) OnStatusChange(listener func(Status)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = listener

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// SubscribeOnlineTrigger registers the callback fired on each
// offline-to-online transition. Only one trigger is supported; the sync
// processor is the intended subscriber.
func (m *Monitor) SubscribeOnlineTrigger(trigger TriggerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trigger = trigger
}

// SetOnline feeds the host connectivity signal into the monitor. A
// repeated signal for the current state is a no-op; a genuine
// transition notifies listeners, and an offline-to-online edge fires
// the trigger.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	status := Offline
	if online {
		status = Online
	}
	listeners := make([]func(Status), 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	trigger := m.trigger
	m.mu.Unlock()

	for _, l := range listeners {
		l(status)
	}

	if online && trigger != nil {
		m.fireTrigger(trigger)
	}
}

// TriggerNow fires the online trigger manually, subject to the same
// coalescing as a transition. Used by the explicit `sync` command.
func (m *Monitor) TriggerNow() {
	m.mu.Lock()
	trigger := m.trigger
	online := m.online
	m.mu.Unlock()

	if online && trigger != nil {
		m.fireTrigger(trigger)
	}
}

func (m *Monitor) fireTrigger(trigger TriggerFunc) {
	if !m.triggerBusy.CompareAndSwap(false, true) {
		// A sync is already in flight; drop this edge.
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.triggerBusy.Store(false)
		defer func() {
			if r := recover(); r != nil {
				m.logger.Printf("panic in online trigger: %v", r)
			}
		}()

		if err := trigger(context.Background()); err != nil {
			// Swallowed: the next genuine transition retries.
			m.logger.Printf("online trigger failed: %v", err)
		}
	}()
}

// Wait blocks until any in-flight trigger run finishes. Used during
// shutdown and in tests.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

package session

import (
	"slices"
	"time"

	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
)

// EventKind names a session transition.
type EventKind string

const (
	EventRestored         EventKind = "restored"
	EventSignedIn         EventKind = "signed_in"
	EventRefreshed        EventKind = "refreshed"
	EventSignedOut        EventKind = "signed_out"
	EventExpired          EventKind = "expired"
	EventPrincipalUpdated EventKind = "principal_updated"
)

// Event is delivered to observers after the transition has been applied.
// Principal is the zero value once the session is gone.
type Event struct {
	Kind      EventKind
	Principal authsdk.Principal
	At        time.Time
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it. Observers run synchronously on the goroutine that caused
// the transition, after the session lock is released, so they may call back
// into the Manager.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()

	id := m.nextObserver
	m.nextObserver++
	m.observers = append(m.observers, observer{id: id, fn: fn})

	return func() {
		m.obsMu.Lock()
		defer m.obsMu.Unlock()
		m.observers = slices.DeleteFunc(m.observers, func(o observer) bool { return o.id == id })
	}
}

type observer struct {
	id uint64
	fn func(Event)
}

func (m *Manager) emit(kind EventKind, principal authsdk.Principal) {
	m.obsMu.Lock()
	observers := slices.Clone(m.observers)
	m.obsMu.Unlock()

	ev := Event{Kind: kind, Principal: principal, At: m.now()}
	for _, o := range observers {
		o.fn(ev)
	}
}

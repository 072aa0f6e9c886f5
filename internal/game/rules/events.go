package rules

import (
	"maps"
	"sync"
	"time"
)

// EventType indicates the category of a match event.
type EventType string

const (
	EventMatchCreated    EventType = "MATCH_CREATED"
	EventPhaseChanged    EventType = "PHASE_CHANGED"
	EventCardDrawn       EventType = "CARD_DRAWN"
	EventZoneChanged     EventType = "ZONE_CHANGED"
	EventLibraryShuffled EventType = "LIBRARY_SHUFFLED"
	EventMulligan        EventType = "MULLIGAN"
	EventHandKept        EventType = "HAND_KEPT"
	EventLifeChanged     EventType = "LIFE_CHANGED"
	EventTapped          EventType = "TAPPED"
	EventUntapped        EventType = "UNTAPPED"
	EventCounterAdded    EventType = "COUNTER_ADDED"
	EventPlayerLost      EventType = "PLAYER_LOST"
	EventGameEnded       EventType = "GAME_ENDED"
)

// IsTerminal reports whether the event closes the match.
func (et EventType) IsTerminal() bool {
	return et == EventGameEnded
}

// Event describes one observable mutation. Events reference players and objects by identifier
// only; consumers look up anything else in the state they are entitled to see.
type Event struct {
	ID        string            `json:"id"`
	Seq       uint64            `json:"seq"`
	Type      EventType         `json:"type"`
	GameID    string            `json:"game_id"`
	PlayerID  string            `json:"player_id,omitempty"`
	PlayerIDs []string          `json:"player_ids,omitempty"`
	Turn      int               `json:"turn"`
	Phase     Phase             `json:"phase"`
	ObjectID  string            `json:"object_id,omitempty"`
	FromZone  string            `json:"from_zone,omitempty"`
	ToZone    string            `json:"to_zone,omitempty"`
	Amount    int               `json:"amount,omitempty"`
	Winner    string            `json:"winner,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Clone returns a copy sharing no slices or maps with e.
func (e Event) Clone() Event {
	if e.PlayerIDs != nil {
		e.PlayerIDs = append([]string(nil), e.PlayerIDs...)
	}
	if e.Metadata != nil {
		e.Metadata = maps.Clone(e.Metadata)
	}
	return e
}

// NewEvent creates an event with the common fields populated.
func NewEvent(eventType EventType, gameID, playerID string) Event {
	return Event{
		Type:      eventType,
		GameID:    gameID,
		PlayerID:  playerID,
		Timestamp: time.Now(),
	}
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
// Its Publish method satisfies Listener, so a bus can be handed to a match as its sink.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	order          []int
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	bus.order = append(bus.order, handle)
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, ok := bus.listeners[handle]; ok {
		delete(bus.listeners, handle)
		for i, h := range bus.order {
			if h == handle {
				bus.order = append(bus.order[:i], bus.order[i+1:]...)
				break
			}
		}
		return
	}
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				return
			}
		}
	}
}

// Len returns the number of registered listeners of either kind.
func (bus *EventBus) Len() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	n := len(bus.listeners)
	for _, l := range bus.typedListeners {
		n += len(l)
	}
	return n
}

// Publish delivers the event synchronously, first to catch-all listeners in subscription
// order, then to listeners of the event's type. Each listener gets its own copy.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	all := make([]Listener, 0, len(bus.order))
	for _, h := range bus.order {
		all = append(all, bus.listeners[h])
	}
	typed := append([]TypedListener(nil), bus.typedListeners[event.Type]...)
	bus.mu.RUnlock()

	for _, listener := range all {
		listener(event.Clone())
	}
	for _, listener := range typed {
		listener.Callback(event.Clone())
	}
}

// PublishBatch publishes multiple events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}

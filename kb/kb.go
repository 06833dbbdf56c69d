package kb

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tesh144/RTChess-sub001/internal/pubsub"
	"github.com/tesh144/RTChess-sub001/model"
)

var (
	// ErrEntityExists is returned when adding an entity whose ID is taken.
	ErrEntityExists = errors.New("entity already exists")
	// ErrEntityNotFound is returned when an ID is not registered.
	ErrEntityNotFound = errors.New("entity not found")
)

// Entity is a spawned board object. Anchor is its top-left cell.
type Entity struct {
	ID        string
	Kind      model.EntityKind
	Anchor    model.Coord
	Footprint model.Footprint
	Level     int
}

// Cells lists every board cell the entity covers.
func (e Entity) Cells() []model.Coord {
	return e.Footprint.Cells(e.Anchor)
}

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventEntityAdded EventType = iota
	EventEntityRemoved
	EventEntitiesShifted
)

func (t EventType) String() string {
	switch t {
	case EventEntityAdded:
		return "added"
	case EventEntityRemoved:
		return "removed"
	case EventEntitiesShifted:
		return "shifted"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers when something interesting happens.
// Offset is only set for EventEntitiesShifted.
type Event struct {
	Type   EventType
	Entity Entity
	Offset model.Offset
}

// KnowledgeBase is an in-memory, thread-safe registry of spawned entities.
type KnowledgeBase struct {
	mu       sync.RWMutex
	entities map[string]*Entity

	events pubsub.Hub[Event]
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		entities: make(map[string]*Entity),
	}
}

// Add registers e and returns the stored copy. An empty ID is replaced with
// a fresh UUID.
func (kb *KnowledgeBase) Add(e Entity) (Entity, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Kind == model.EntityNone {
		return Entity{}, fmt.Errorf("entity %q: kind must be set", e.ID)
	}

	kb.mu.Lock()
	if _, exists := kb.entities[e.ID]; exists {
		kb.mu.Unlock()
		return Entity{}, fmt.Errorf("%w: %q", ErrEntityExists, e.ID)
	}
	stored := e
	kb.entities[e.ID] = &stored
	kb.mu.Unlock()

	kb.events.Publish(Event{Type: EventEntityAdded, Entity: e})
	return e, nil
}

// Remove deletes the entity with the given ID.
func (kb *KnowledgeBase) Remove(id string) (Entity, error) {
	kb.mu.Lock()
	e, ok := kb.entities[id]
	if !ok {
		kb.mu.Unlock()
		return Entity{}, fmt.Errorf("%w: %q", ErrEntityNotFound, id)
	}
	delete(kb.entities, id)
	removed := *e
	kb.mu.Unlock()

	kb.events.Publish(Event{Type: EventEntityRemoved, Entity: removed})
	return removed, nil
}

// Get returns a copy of the entity with the given ID.
func (kb *KnowledgeBase) Get(id string) (Entity, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	e, ok := kb.entities[id]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// List returns a snapshot of entities of the given kind ordered by anchor
// (row-major). model.EntityNone lists everything.
func (kb *KnowledgeBase) List(kind model.EntityKind) []Entity {
	kb.mu.RLock()
	res := make([]Entity, 0, len(kb.entities))
	for _, e := range kb.entities {
		if kind == model.EntityNone || e.Kind == kind {
			res = append(res, *e)
		}
	}
	kb.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool {
		a, b := res[i].Anchor, res[j].Anchor
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return res[i].ID < res[j].ID
	})
	return res
}

// Count returns how many entities of kind are registered; model.EntityNone
// counts all of them.
func (kb *KnowledgeBase) Count(kind model.EntityKind) int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	if kind == model.EntityNone {
		return len(kb.entities)
	}
	n := 0
	for _, e := range kb.entities {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Translate moves every anchor by off. It is used when the board grows and
// existing content is re-centred.
func (kb *KnowledgeBase) Translate(off model.Offset) {
	if off.IsZero() {
		return
	}
	kb.mu.Lock()
	for _, e := range kb.entities {
		e.Anchor = e.Anchor.Add(off)
	}
	kb.mu.Unlock()

	kb.events.Publish(Event{Type: EventEntitiesShifted, Offset: off})
}

// Subscribe registers a callback for KB events. It returns an unsubscribe function.
// Callbacks run outside the KB lock.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	return kb.events.Subscribe(fn)
}

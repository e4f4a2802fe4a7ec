package brackets

import (
	"log"
	"sync"

	"github.com/Dosada05/bracket-engine/models"
)

// Subscriber receives post-mutation bracket snapshots for one tournament.
type Subscriber func(*models.Bracket)

// Broadcaster is the in-process fan-out registry for live bracket updates.
// It is constructed once at service start and injected into everything that
// publishes or subscribes. Delivery is best-effort and decoupled from
// persistence: subscribers that connect after a change must fetch current
// state themselves and then receive only subsequent changes. A multi-process
// deployment would externalize this fan-out over a shared message channel;
// that is an extension point, not implemented here.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID uint64
	rooms  map[string]map[uint64]Subscriber
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{rooms: make(map[string]map[uint64]Subscriber)}
}

// Subscribe registers a callback for one tournament's updates and returns
// the function that deregisters it. Unsubscribing frees all per-subscriber
// state; a publish already in flight may still deliver once.
func (br *Broadcaster) Subscribe(tournamentID string, fn Subscriber) func() {
	br.mu.Lock()
	defer br.mu.Unlock()

	br.nextID++
	id := br.nextID
	if _, ok := br.rooms[tournamentID]; !ok {
		br.rooms[tournamentID] = make(map[uint64]Subscriber)
	}
	br.rooms[tournamentID][id] = fn

	return func() {
		br.mu.Lock()
		defer br.mu.Unlock()
		if subs, ok := br.rooms[tournamentID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(br.rooms, tournamentID)
			}
		}
	}
}

// SubscriberCount reports how many subscribers a tournament currently has.
func (br *Broadcaster) SubscriberCount(tournamentID string) int {
	br.mu.RLock()
	defer br.mu.RUnlock()
	return len(br.rooms[tournamentID])
}

// Publish invokes every subscriber of the tournament with the snapshot.
// One failing subscriber never affects the others or the publisher.
func (br *Broadcaster) Publish(tournamentID string, snapshot *models.Bracket) {
	br.mu.RLock()
	subs := make([]Subscriber, 0, len(br.rooms[tournamentID]))
	for _, fn := range br.rooms[tournamentID] {
		subs = append(subs, fn)
	}
	br.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("bracket subscriber for tournament %s panicked: %v", tournamentID, r)
				}
			}()
			fn(snapshot)
		}()
	}
}

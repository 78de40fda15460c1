package notebook

import "sync"

// EventLayout tells subscribers that the visible graph changed and the
// layout should be recomputed.
const EventLayout = "layout"

// Event is published after every applied collapse or expand.
type Event struct {
	Type       string `json:"type"`
	Reason     string `json:"reason"`
	Region     string `json:"region,omitempty"`
	Generation uint64 `json:"generation"`
}

// broker fans events out to subscribers. Slow subscribers miss events
// instead of blocking the writer.
type broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

func (b *broker) subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *broker) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			eventsDropped.Inc()
		}
	}
}

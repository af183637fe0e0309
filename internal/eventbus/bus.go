package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Transition is an observed status change for one monitored server.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Subscribers MUST use buffered channels.
//   - Slow subscribers may drop transitions (bounded backpressure).
//
// Transitions are ephemeral signals, not history: nothing replays them.
type Transition struct {
	GuildID   string
	Host      string
	ChannelID string
	Online    bool
	Players   int
	Max       int
	At        time.Time
}

type Bus interface {
	Publish(tr Transition)
	Subscribe(buffer int) (ch <-chan Transition, unsubscribe func())
}

// New returns a simple in-memory fanout bus.
//
// It intentionally does not own any background goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]chan Transition{}}
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Transition
	seq  atomic.Uint64
}

func (b *memBus) Publish(tr Transition) {
	if tr.At.IsZero() {
		tr.At = time.Now()
	}
	// Snapshot subscribers so Publish doesn't hold locks while attempting sends.
	b.mu.RLock()
	chs := make([]chan Transition, 0, len(b.subs))
	for _, ch := range b.subs {
		chs = append(chs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range chs {
		// Non-blocking delivery. If a subscriber unsubscribes concurrently and
		// the channel closes, recover from the send panic.
		func() {
			defer func() { _ = recover() }()
			select {
			case ch <- tr:
			default:
			}
		}()
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Transition, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Transition, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			// Closing is safe because Publish recovers from send panics.
			close(ch)
		})
	}
	return ch, unsub
}

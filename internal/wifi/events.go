// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package wifi

import (
	"sync"
	"time"

	"grimm.is/wavelink/internal/logging"
)

// Event is one state or mode change, as delivered to subscribers.
type Event struct {
	State   string    `json:"state"`
	Mode    string    `json:"mode"`
	Attempt int       `json:"attempt,omitempty"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

const subscriberBuffer = 16

// hub fans events out to subscribers. Delivery is best-effort: a
// subscriber that falls more than subscriberBuffer events behind loses
// the oldest ones rather than stalling the state machine.
type hub struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	dropped uint64
	log     *logging.Logger
}

func newHub(log *logging.Logger) *hub {
	return &hub{
		subs: make(map[int]chan Event),
		log:  log,
	}
}

func (h *hub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Slow consumer: drop the oldest event to make room.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
			h.dropped++
			if h.log != nil {
				h.log.Debug("dropped event for slow subscriber", "total_dropped", h.dropped)
			}
		}
	}
}

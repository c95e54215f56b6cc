package jobcore

import "sync"

const subscriberBuffer = 16

// Hub fans job events out to per-job subscribers. Slow subscribers drop
// events rather than blocking the worker.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan JobEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan JobEvent]struct{}),
	}
}

// Subscribe registers interest in one job's events. The returned cancel
// func must be called to release the channel.
func (h *Hub) Subscribe(jobID string) (<-chan JobEvent, func()) {
	ch := make(chan JobEvent, subscriberBuffer)

	h.mu.Lock()
	if h.subs[jobID] == nil {
		h.subs[jobID] = make(map[chan JobEvent]struct{})
	}
	h.subs[jobID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[jobID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, jobID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) Publish(event JobEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[event.JobID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers reports how many channels listen to the given job.
func (h *Hub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[jobID])
}

package web

import (
	"encoding/json"
	"net/http"
	"sync"

	"razor-ahrs/internal/ahrs"
)

// Broadcaster fans out every AHRS cycle to stream listeners. It keeps the
// most recent snapshot so a new subscriber gets a sample immediately.
// Slow subscribers miss cycles instead of blocking the filter loop.
type Broadcaster struct {
	mu       sync.RWMutex
	subs     map[int]chan ahrs.Snapshot
	nextID   int
	last     ahrs.Snapshot
	haveLast bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan ahrs.Snapshot)}
}

func (b *Broadcaster) Subscribe(buffer int) (int, <-chan ahrs.Snapshot) {
	if b == nil {
		return 0, nil
	}
	if buffer <= 0 {
		buffer = 2
	}
	ch := make(chan ahrs.Snapshot, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	if b.haveLast {
		ch <- b.last
	}
	b.mu.Unlock()
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish implements ahrs.Publisher.
func (b *Broadcaster) Publish(s ahrs.Snapshot) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = s
	b.haveLast = true
	for _, ch := range b.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// ServeHTTP streams one Status per cycle as server-sent events.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	id, ch := b.Subscribe(8)
	defer b.Unsubscribe(id)
	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(NewStatus(snap))
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			_, _ = w.Write(payload)
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

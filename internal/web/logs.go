package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LogRing keeps the most recent log lines for /api/logs. It is an
// io.Writer meant to sit next to stderr in log.SetOutput.
type LogRing struct {
	mu      sync.Mutex
	lines   []string
	next    int
	full    bool
	partial []byte
	dropped uint64
}

func NewLogRing(maxLines int) *LogRing {
	if maxLines <= 0 {
		maxLines = 500
	}
	return &LogRing{lines: make([]string, maxLines)}
}

func (b *LogRing) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := append(b.partial, p...)
	for {
		line, rest, ok := bytes.Cut(data, []byte{'\n'})
		if !ok {
			break
		}
		b.push(string(bytes.TrimRight(line, "\r")))
		data = rest
	}
	b.partial = append([]byte(nil), data...)
	return len(p), nil
}

func (b *LogRing) push(line string) {
	if line == "" {
		return
	}
	if b.full {
		b.dropped++
	}
	b.lines[b.next] = line
	b.next++
	if b.next == len(b.lines) {
		b.next = 0
		b.full = true
	}
}

// Tail returns up to n of the newest complete lines, oldest first.
func (b *LogRing) Tail(n int) (lines []string, dropped uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := b.next
	if b.full {
		count = len(b.lines)
	}
	if n <= 0 || n > count {
		n = count
	}
	lines = make([]string, 0, n)
	for i := count - n; i < count; i++ {
		idx := i
		if b.full {
			idx = (b.next + i) % len(b.lines)
		}
		lines = append(lines, b.lines[idx])
	}
	return lines, b.dropped
}

type LogsResponse struct {
	NowUTC  string   `json:"now_utc"`
	Dropped uint64   `json:"dropped"`
	Lines   []string `json:"lines"`
}

// Handler serves ?tail=N (default 200) as JSON, or as text with
// ?format=text.
func (b *LogRing) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodGet) {
			return
		}
		tail := 200
		if s := strings.TrimSpace(r.URL.Query().Get("tail")); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v < 1 {
				http.Error(w, "tail must be a positive integer", http.StatusBadRequest)
				return
			}
			tail = v
		}
		lines, dropped := b.Tail(tail)

		if strings.EqualFold(r.URL.Query().Get("format"), "text") {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			if dropped > 0 {
				_, _ = fmt.Fprintf(w, "[dropped=%d]\n", dropped)
			}
			for _, line := range lines {
				_, _ = fmt.Fprintln(w, line)
			}
			return
		}
		writeJSON(w, LogsResponse{
			NowUTC:  time.Now().UTC().Format(time.RFC3339Nano),
			Dropped: dropped,
			Lines:   lines,
		})
	})
}

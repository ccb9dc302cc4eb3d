package logging

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultRecentEntries is the ring size used when NewRecent gets n <= 0.
const DefaultRecentEntries = 100

// Entry is one captured log record.
type Entry struct {
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Level     string         `json:"level" yaml:"level"`
	Message   string         `json:"message" yaml:"message"`
	Attrs     map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// Recent keeps the last N records at or above a level (ring buffer).
type Recent struct {
	mu         sync.Mutex
	entries    []Entry
	maxEntries int
}

// NewRecent creates a Recent holding at most maxEntries records.
func NewRecent(maxEntries int) *Recent {
	if maxEntries <= 0 {
		maxEntries = DefaultRecentEntries
	}
	return &Recent{
		entries:    make([]Entry, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

func (r *Recent) add(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	if len(r.entries) > r.maxEntries {
		r.entries = r.entries[len(r.entries)-r.maxEntries:]
	}
}

// Entries returns the captured records, oldest first.
func (r *Recent) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// Counts returns the number of captured records per level ("WARN", "ERROR").
func (r *Recent) Counts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int)
	for _, entry := range r.entries {
		counts[entry.Level]++
	}
	return counts
}

// Handler wraps next so that records at or above min are also captured.
// Capturing does not depend on next's level.
func (r *Recent) Handler(next slog.Handler, min slog.Level) slog.Handler {
	return &recentHandler{next: next, recent: r, min: min}
}

type recentHandler struct {
	next   slog.Handler
	recent *Recent
	min    slog.Level
	attrs  []slog.Attr
	group  string
}

func (h *recentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min || h.next.Enabled(ctx, level)
}

func (h *recentHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= h.min {
		attrs := make(map[string]any, len(h.attrs)+record.NumAttrs())
		for _, a := range h.attrs {
			attrs[a.Key] = a.Value.Resolve().Any()
		}
		record.Attrs(func(a slog.Attr) bool {
			attrs[h.key(a.Key)] = a.Value.Resolve().Any()
			return true
		})
		if len(attrs) == 0 {
			attrs = nil
		}

		h.recent.add(Entry{
			Timestamp: record.Time.UTC(),
			Level:     record.Level.String(),
			Message:   record.Message,
			Attrs:     attrs,
		})
	}

	if h.next.Enabled(ctx, record.Level) {
		return h.next.Handle(ctx, record)
	}
	return nil
}

func (h *recentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	clone.attrs = slices.Clone(h.attrs)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}
	return &clone
}

func (h *recentHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.next = h.next.WithGroup(name)
	clone.group = h.key(name)
	return &clone
}

func (h *recentHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

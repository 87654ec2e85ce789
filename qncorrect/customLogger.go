package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const lineTimeFormat = "[2006/01/02 15:04:05]"

// Handler writes one "[time] [level] [values...] message" line per record.
// Keys and groups are dropped; only attribute values are printed, the ones
// bound with WithAttrs first. The level is omitted for Info records.
type Handler struct {
	level slog.Leveler
	attrs []slog.Attr
	mu    *sync.Mutex
	out   io.Writer
}

func NewHandler(o io.Writer, opts *slog.HandlerOptions) *Handler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &Handler{level: level, mu: &sync.Mutex{}, out: o}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	bound := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	bound = append(append(bound, h.attrs...), attrs...)
	return &Handler{level: h.level, attrs: bound, mu: h.mu, out: h.out}
}

func (h *Handler) WithGroup(string) slog.Handler { return h }

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var line strings.Builder
	stamp := r.Time
	if stamp.IsZero() {
		stamp = time.Now()
	}
	line.WriteString(stamp.Format(lineTimeFormat))
	if r.Level != slog.LevelInfo {
		fmt.Fprintf(&line, " [%s]", r.Level)
	}
	value := func(a slog.Attr) bool {
		if a.Key == "" && a.Value.Any() == nil {
			return true
		}
		fmt.Fprintf(&line, " [%s]", a.Value.Resolve())
		return true
	}
	for _, a := range h.attrs {
		value(a)
	}
	r.Attrs(value)
	line.WriteByte(' ')
	line.WriteString(r.Message)
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line.String())
	return err
}

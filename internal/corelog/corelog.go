// Package corelog adapts log/slog the way rcornwell/S370's util/logger
// package does: a single handler that writes a compact timestamped line to
// a file (or any io.Writer) and mirrors it to stderr once a debug flag is
// set, rather than wiring a third-party logging backend nobody in the
// corpus reaches for.
package corelog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler writes one line per record: "time level message attr=value ...".
type Handler struct {
	out   io.Writer
	inner slog.Handler
	mu    *sync.Mutex
	debug bool
}

var _ slog.Handler = (*Handler)(nil)

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithAttrs(attrs), mu: h.mu, debug: h.debug}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithGroup(name), mu: h.mu, debug: h.debug}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	parts := []string{r.Time.Format("2006/01/02 15:04:05"), r.Level.String() + ":", r.Message}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.String())
		return true
	})
	line := []byte(strings.Join(parts, " ") + "\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(line)
	}
	if h.debug || r.Level >= slog.LevelWarn {
		_, werr := os.Stderr.Write(line)
		if err == nil {
			err = werr
		}
	}
	return err
}

// NewHandler builds a Handler writing to w, at minimum level lvl. When
// debug is true every record is also mirrored to stderr; otherwise only
// Warn and above are.
func NewHandler(w io.Writer, lvl slog.Level, debug bool) *Handler {
	return &Handler{
		out:   w,
		inner: slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}),
		mu:    &sync.Mutex{},
		debug: debug,
	}
}

// New is the common-case constructor: a logger that writes to w at the
// given level, used as the generator's default diagnostic sink.
func New(w io.Writer, lvl slog.Level, debug bool) *slog.Logger {
	return slog.New(NewHandler(w, lvl, debug))
}

// Discard is a logger that drops everything, for tests that don't want to
// assert on log output.
func Discard() *slog.Logger {
	return slog.New(NewHandler(io.Discard, slog.LevelError+1, false))
}

package logger

import (
	"context"
	"errors"
	"log/slog"
)

// NewMultiHandler fans every record out to all target handlers. A record
// reaches each target whose own level admits it; delivery errors are
// joined rather than short-circuiting, so one failing sink cannot
// silence the others.
func NewMultiHandler(targets ...slog.Handler) slog.Handler {
	return multiHandler{targets: targets}
}

type multiHandler struct {
	targets []slog.Handler
}

func (h multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, target := range h.targets {
		if target.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h multiHandler) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, target := range h.targets {
		if !target.Enabled(ctx, rec.Level) {
			continue
		}
		if err := target.Handle(ctx, rec.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	targets := make([]slog.Handler, len(h.targets))
	for i, target := range h.targets {
		targets[i] = target.WithAttrs(attrs)
	}
	return multiHandler{targets: targets}
}

func (h multiHandler) WithGroup(name string) slog.Handler {
	targets := make([]slog.Handler, len(h.targets))
	for i, target := range h.targets {
		targets[i] = target.WithGroup(name)
	}
	return multiHandler{targets: targets}
}

package toon

import (
	"context"
	"log/slog"
)

// Options configures a parse.
type Options struct {
	// Strict makes semantic violations terminal. When false they are
	// collected in Document.Warnings.
	Strict bool
	// MaxDepth bounds the number of nested indentation levels.
	MaxDepth int
	// AllowTabs accepts tabs in indentation; each tab advances the width to
	// the next multiple of TabWidth.
	AllowTabs bool
	TabWidth  int
	// Logger receives debug and warning events. Nil discards them.
	Logger *slog.Logger
}

const (
	defaultMaxDepth = 256
	defaultTabWidth = 2
)

func DefaultOptions() Options {
	return Options{
		Strict:   true,
		MaxDepth: defaultMaxDepth,
		TabWidth: defaultTabWidth,
	}
}

func (o Options) normalized() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = defaultMaxDepth
	}
	if o.TabWidth <= 0 {
		o.TabWidth = defaultTabWidth
	}
	if o.Logger == nil {
		o.Logger = slog.New(discardHandler{})
	}
	return o
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

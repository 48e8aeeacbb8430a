// Package widget implements the status bar widgets and the engine that
// schedules them.
package widget

import (
	"context"
	"time"
)

// State is a widget's rendered output.
type State struct {
	Text  string
	Class string // Style hint for bar formatters: "", "error", "unread"
}

// Widget is a pollable bar segment. Poll never returns an error; widgets
// convert failures into a fixed fallback text and log the cause.
type Widget interface {
	Name() string
	// Interval returns how often the widget polls. Zero means the widget
	// is event-driven and only re-renders on an explicit refresh.
	Interval() time.Duration
	Poll(ctx context.Context) State
}

// Listener is notified after each successful notification fetch.
// Implementations pull the refreshed records from the summary cache.
type Listener interface {
	Refreshed()
}

// State classes.
const (
	ClassError  = "error"
	ClassUnread = "unread"
)

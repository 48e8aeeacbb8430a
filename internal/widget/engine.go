package widget

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPollTimeout bounds a single widget poll so one slow endpoint
// cannot stall the whole loop.
const DefaultPollTimeout = 15 * time.Second

// Output is a named widget state, published to the sink in widget order.
type Output struct {
	Name  string
	Text  string
	Class string
}

// Sink receives the full set of widget outputs after every poll.
type Sink func(outputs []Output)

type entry struct {
	widget Widget
	next   time.Time // Zero for event-driven widgets
	state  State
}

// Engine runs all widgets on a single goroutine. Polls are serialized;
// widget state is only ever touched from the engine loop.
type Engine struct {
	log         *slog.Logger
	sink        Sink
	pollTimeout time.Duration
	entries     []*entry
	refreshCh   chan string
}

// NewEngine creates an engine publishing to the given sink.
func NewEngine(log *slog.Logger, sink Sink) *Engine {
	return &Engine{
		log:         log,
		sink:        sink,
		pollTimeout: DefaultPollTimeout,
		refreshCh:   make(chan string, 16),
	}
}

// Add registers a widget. Not safe to call after Run has started.
func (e *Engine) Add(w Widget) {
	e.entries = append(e.entries, &entry{widget: w})
}

// Refresh schedules an immediate re-poll of the named widget on the
// engine loop. Safe to call from any goroutine; drops the request if the
// queue is full rather than blocking.
func (e *Engine) Refresh(name string) {
	select {
	case e.refreshCh <- name:
	default:
		e.log.Warn("refresh queue full, dropping request", "widget", name)
	}
}

// RefreshAll schedules an immediate re-poll of every widget.
func (e *Engine) RefreshAll() {
	for _, en := range e.entries {
		e.Refresh(en.widget.Name())
	}
}

// snapshot collects the current outputs in widget order. Only called
// from the engine loop; external readers consume the sink instead.
func (e *Engine) snapshot() []Output {
	outputs := make([]Output, len(e.entries))
	for i, en := range e.entries {
		outputs[i] = Output{Name: en.widget.Name(), Text: en.state.Text, Class: en.state.Class}
	}
	return outputs
}

// Run polls every widget once, then serves the schedule until ctx is
// canceled.
func (e *Engine) Run(ctx context.Context) {
	now := time.Now()
	for _, en := range e.entries {
		e.poll(ctx, en, now)
	}
	e.publish()

	for {
		var timerC <-chan time.Time
		var timer *time.Timer
		if next, ok := e.nextDue(); ok {
			timer = time.NewTimer(time.Until(next))
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case name := <-e.refreshCh:
			if en := e.find(name); en != nil {
				e.poll(ctx, en, time.Now())
				e.publish()
			} else {
				e.log.Warn("refresh for unknown widget", "widget", name)
			}

		case <-timerC:
			now := time.Now()
			for _, en := range e.entries {
				if !en.next.IsZero() && !en.next.After(now) {
					e.poll(ctx, en, now)
				}
			}
			e.publish()
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

func (e *Engine) find(name string) *entry {
	for _, en := range e.entries {
		if en.widget.Name() == name {
			return en
		}
	}
	return nil
}

func (e *Engine) nextDue() (time.Time, bool) {
	var next time.Time
	for _, en := range e.entries {
		if en.next.IsZero() {
			continue
		}
		if next.IsZero() || en.next.Before(next) {
			next = en.next
		}
	}
	return next, !next.IsZero()
}

func (e *Engine) poll(ctx context.Context, en *entry, now time.Time) {
	pctx, cancel := context.WithTimeout(ctx, e.pollTimeout)
	defer cancel()

	en.state = en.widget.Poll(pctx)
	if interval := en.widget.Interval(); interval > 0 {
		en.next = now.Add(interval)
	}
}

func (e *Engine) publish() {
	if e.sink != nil {
		e.sink(e.snapshot())
	}
}

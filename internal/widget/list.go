package widget

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// List renders the cached notifications as a compact line. It never
// fetches; the summary pushes a refresh after each successful poll.
type List struct {
	summary  *Summary
	maxShown int
	engine   *Engine
}

// NewList builds the detail list and registers it with the summary.
// When engine is non-nil, a summary refresh schedules a re-render.
func NewList(summary *Summary, maxShown int, engine *Engine) *List {
	l := &List{summary: summary, maxShown: maxShown, engine: engine}
	summary.Register(l)
	return l
}

// Name implements Widget.
func (l *List) Name() string {
	return "hive-list"
}

// Interval implements Widget. The list is event-driven.
func (l *List) Interval() time.Duration {
	return 0
}

// Refreshed implements Listener.
func (l *List) Refreshed() {
	if l.engine != nil {
		l.engine.Refresh(l.Name())
	}
}

// Poll implements Widget.
func (l *List) Poll(ctx context.Context) State {
	records := l.summary.Records()
	if len(records) == 0 {
		return State{}
	}

	shown := records
	extra := 0
	if l.maxShown > 0 && len(shown) > l.maxShown {
		extra = len(shown) - l.maxShown
		shown = shown[:l.maxShown]
	}

	parts := make([]string, 0, len(shown)+1)
	for _, r := range shown {
		parts = append(parts, fmt.Sprintf("%s %s", r.Sender(), r.SummaryTruncated(40)))
	}
	if extra > 0 {
		parts = append(parts, fmt.Sprintf("+%d more", extra))
	}
	return State{Text: strings.Join(parts, "; "), Class: ClassUnread}
}

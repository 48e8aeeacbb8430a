package widget

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWidget struct {
	name     string
	interval time.Duration
	polls    atomic.Int64
}

func (f *fakeWidget) Name() string            { return f.name }
func (f *fakeWidget) Interval() time.Duration { return f.interval }
func (f *fakeWidget) Poll(ctx context.Context) State {
	n := f.polls.Add(1)
	return State{Text: fmt.Sprintf("%s-%d", f.name, n)}
}

func startEngine(t *testing.T, widgets ...Widget) (<-chan []Output, *Engine, context.CancelFunc) {
	t.Helper()

	publishes := make(chan []Output, 64)
	e := NewEngine(testLogger(), func(outputs []Output) {
		select {
		case publishes <- outputs:
		default: // Slow consumer, drop rather than stall the loop
		}
	})
	for _, w := range widgets {
		e.Add(w)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return publishes, e, cancel
}

func waitPublish(t *testing.T, publishes <-chan []Output) []Output {
	t.Helper()
	select {
	case outputs := <-publishes:
		return outputs
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a publish")
		return nil
	}
}

func TestEngineInitialPoll(t *testing.T) {
	a := &fakeWidget{name: "a", interval: time.Hour}
	b := &fakeWidget{name: "b", interval: time.Hour}
	publishes, _, _ := startEngine(t, a, b)

	outputs := waitPublish(t, publishes)
	require.Len(t, outputs, 2)
	assert.Equal(t, Output{Name: "a", Text: "a-1"}, outputs[0])
	assert.Equal(t, Output{Name: "b", Text: "b-1"}, outputs[1])
}

func TestEngineRefresh(t *testing.T) {
	a := &fakeWidget{name: "a", interval: time.Hour}
	b := &fakeWidget{name: "b", interval: time.Hour}
	publishes, e, _ := startEngine(t, a, b)
	waitPublish(t, publishes)

	e.Refresh("a")
	outputs := waitPublish(t, publishes)

	assert.Equal(t, "a-2", outputs[0].Text)
	assert.Equal(t, "b-1", outputs[1].Text, "refresh targets one widget")
}

func TestEngineManualWidgetOnlyPollsOnRefresh(t *testing.T) {
	ticking := &fakeWidget{name: "ticking", interval: 20 * time.Millisecond}
	manual := &fakeWidget{name: "manual"}
	_, e, _ := startEngine(t, ticking, manual)

	require.Eventually(t, func() bool {
		return ticking.polls.Load() >= 3
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), manual.polls.Load(), "manual widget polls only at startup")

	e.Refresh("manual")
	require.Eventually(t, func() bool {
		return manual.polls.Load() == 2
	}, 5*time.Second, 5*time.Millisecond)
}

func TestEngineScheduledPolls(t *testing.T) {
	w := &fakeWidget{name: "w", interval: 10 * time.Millisecond}
	startEngine(t, w)

	require.Eventually(t, func() bool {
		return w.polls.Load() >= 4
	}, 5*time.Second, 5*time.Millisecond)
}

func TestEngineUnknownRefreshIsIgnored(t *testing.T) {
	a := &fakeWidget{name: "a", interval: time.Hour}
	publishes, e, _ := startEngine(t, a)
	waitPublish(t, publishes)

	e.Refresh("nope")
	e.Refresh("a")
	outputs := waitPublish(t, publishes)
	assert.Equal(t, "a-2", outputs[0].Text)
}

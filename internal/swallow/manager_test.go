package swallow

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	classes   []string
	pid       int32
	minimized bool
}

type fakeSession struct {
	windows map[Window]*fakeWindow
	clients []Window

	minimizeCalls map[Window]int
	restoreCalls  map[Window]int
	focusCalls    map[Window]int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		windows:       make(map[Window]*fakeWindow),
		minimizeCalls: make(map[Window]int),
		restoreCalls:  make(map[Window]int),
		focusCalls:    make(map[Window]int),
	}
}

func (f *fakeSession) addWindow(id Window, w *fakeWindow) {
	f.windows[id] = w
	f.clients = append(f.clients, id)
}

func (f *fakeSession) WindowClass(win Window) ([]string, error) {
	w, ok := f.windows[win]
	if !ok {
		return nil, errors.New("no such window")
	}
	return w.classes, nil
}

func (f *fakeSession) WindowPID(win Window) (int32, error) {
	w, ok := f.windows[win]
	if !ok {
		return 0, errors.New("no such window")
	}
	return w.pid, nil
}

func (f *fakeSession) ClientWindows() ([]Window, error) {
	return f.clients, nil
}

func (f *fakeSession) IsMinimized(win Window) (bool, error) {
	w, ok := f.windows[win]
	if !ok {
		return false, errors.New("no such window")
	}
	return w.minimized, nil
}

func (f *fakeSession) Minimize(win Window) error {
	f.minimizeCalls[win]++
	f.windows[win].minimized = true
	return nil
}

func (f *fakeSession) Restore(win Window) error {
	f.restoreCalls[win]++
	f.windows[win].minimized = false
	return nil
}

func (f *fakeSession) Focus(win Window) error {
	f.focusCalls[win]++
	return nil
}

// fakeTree maps pid -> parent pid.
type fakeTree map[int32]int32

func (f fakeTree) Parent(pid int32) (int32, error) {
	parent, ok := f[pid]
	if !ok {
		return 0, errors.New("no such process")
	}
	return parent, nil
}

const (
	termWin Window = 100
	guiWin  Window = 200
)

// setup: terminal (pid 50) -> shell (pid 60) -> gui (pid 70)
func testManager(t *testing.T) (*Manager, *fakeSession) {
	t.Helper()
	session := newFakeSession()
	session.addWindow(termWin, &fakeWindow{classes: []string{"kitty", "kitty"}, pid: 50})
	session.addWindow(guiWin, &fakeWindow{classes: []string{"mpv", "mpv"}, pid: 70})

	tree := fakeTree{70: 60, 60: 50, 50: 1}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(log, session, tree, []string{"kitty", "Alacritty"}, 8), session
}

func TestSwallowMinimizesAncestorTerminal(t *testing.T) {
	mgr, session := testManager(t)

	mgr.HandleClientNew(guiWin)

	assert.Equal(t, 1, session.minimizeCalls[termWin])
	assert.True(t, session.windows[termWin].minimized)
}

func TestSwallowMinimizesExactlyOnce(t *testing.T) {
	mgr, session := testManager(t)

	mgr.HandleClientNew(guiWin)
	mgr.HandleClientNew(guiWin)

	assert.Equal(t, 1, session.minimizeCalls[termWin], "already-iconic terminal must not be re-minimized")
}

func TestRestoreAndFocusExactlyOnce(t *testing.T) {
	mgr, session := testManager(t)

	mgr.HandleClientNew(guiWin)
	mgr.HandleClientKilled(guiWin)
	mgr.HandleClientKilled(guiWin)

	assert.Equal(t, 1, session.restoreCalls[termWin])
	assert.Equal(t, 1, session.focusCalls[termWin])
	assert.False(t, session.windows[termWin].minimized)
}

func TestKillWithoutSwallowIsNoop(t *testing.T) {
	mgr, session := testManager(t)

	mgr.HandleClientKilled(guiWin)

	assert.Empty(t, session.restoreCalls)
	assert.Empty(t, session.focusCalls)
}

func TestTerminalWindowIsIgnored(t *testing.T) {
	mgr, session := testManager(t)

	// A new terminal never swallows anything
	mgr.HandleClientNew(termWin)

	assert.Empty(t, session.minimizeCalls)
}

func TestWindowWithoutPIDIsIgnored(t *testing.T) {
	mgr, session := testManager(t)
	session.windows[guiWin].pid = 0

	mgr.HandleClientNew(guiWin)

	assert.Empty(t, session.minimizeCalls)
}

func TestAncestryDepthLimit(t *testing.T) {
	session := newFakeSession()
	session.addWindow(termWin, &fakeWindow{classes: []string{"kitty", "kitty"}, pid: 50})
	session.addWindow(guiWin, &fakeWindow{classes: []string{"mpv", "mpv"}, pid: 70})

	// Terminal is 3 hops up but the walk is capped at 2
	tree := fakeTree{70: 65, 65: 60, 60: 50, 50: 1}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := NewManager(log, session, tree, []string{"kitty"}, 2)

	mgr.HandleClientNew(guiWin)
	assert.Empty(t, session.minimizeCalls)

	deeper := NewManager(log, session, tree, []string{"kitty"}, 8)
	deeper.HandleClientNew(guiWin)
	assert.Equal(t, 1, session.minimizeCalls[termWin])
}

func TestUnrelatedProcessTree(t *testing.T) {
	mgr, session := testManager(t)

	// GUI launched from somewhere else entirely
	session.windows[guiWin].pid = 99
	tree := fakeTree{99: 1}
	mgr.procs = tree

	mgr.HandleClientNew(guiWin)
	assert.Empty(t, session.minimizeCalls)
}

func TestLookupFailureAbortsSilently(t *testing.T) {
	mgr, session := testManager(t)

	// Window vanished before we could inspect it
	delete(session.windows, guiWin)

	require.NotPanics(t, func() { mgr.HandleClientNew(guiWin) })
	assert.Empty(t, session.minimizeCalls)
}

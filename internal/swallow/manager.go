// Package swallow minimizes a terminal when it spawns a GUI window and
// restores it when that window closes.
package swallow

import (
	"log/slog"
	"sync"
)

// Window is an X11 window id.
type Window uint32

// Session is the slice of the display server the manager needs. The X11
// implementation lives in this package; tests use a fake.
type Session interface {
	// WindowClass returns the WM_CLASS strings (instance, class).
	WindowClass(win Window) ([]string, error)
	// WindowPID returns the _NET_WM_PID, 0 when unset.
	WindowPID(win Window) (int32, error)
	// ClientWindows returns the _NET_CLIENT_LIST of managed windows.
	ClientWindows() ([]Window, error)
	// IsMinimized reports whether WM_STATE is iconic.
	IsMinimized(win Window) (bool, error)
	Minimize(win Window) error
	Restore(win Window) error
	Focus(win Window) error
}

// ProcessTree resolves parent process ids.
type ProcessTree interface {
	// Parent returns the parent pid, 0 when the process is gone or at
	// the top of the tree.
	Parent(pid int32) (int32, error)
}

// Manager tracks which terminal was hidden for which GUI window.
type Manager struct {
	log       *slog.Logger
	session   Session
	procs     ProcessTree
	terminals map[string]bool
	maxDepth  int

	mu        sync.Mutex
	swallowed map[Window]Window // GUI window -> hidden terminal
}

// NewManager creates a swallow manager with the given terminal
// WM_CLASS allow-list.
func NewManager(log *slog.Logger, session Session, procs ProcessTree, terminals []string, maxDepth int) *Manager {
	allow := make(map[string]bool, len(terminals))
	for _, t := range terminals {
		allow[t] = true
	}
	return &Manager{
		log:       log.With("component", "swallow"),
		session:   session,
		procs:     procs,
		terminals: allow,
		maxDepth:  maxDepth,
		swallowed: make(map[Window]Window),
	}
}

// HandleClientNew inspects a newly mapped window and, when it was
// launched from a visible terminal, minimizes that terminal once.
// Every lookup failure silently aborts the attempt.
func (m *Manager) HandleClientNew(win Window) {
	classes, err := m.session.WindowClass(win)
	if err != nil || m.isTerminal(classes) {
		return
	}

	pid, err := m.session.WindowPID(win)
	if err != nil || pid == 0 {
		return
	}

	terminal, ok := m.findAncestorTerminal(pid)
	if !ok {
		return
	}

	minimized, err := m.session.IsMinimized(terminal)
	if err != nil || minimized {
		return
	}
	if err := m.session.Minimize(terminal); err != nil {
		m.log.Debug("failed to minimize terminal", "terminal", terminal, "error", err)
		return
	}

	m.mu.Lock()
	m.swallowed[win] = terminal
	m.mu.Unlock()
	m.log.Debug("swallowed terminal", "window", win, "terminal", terminal)
}

// HandleClientKilled restores and focuses the terminal remembered for a
// closed window, exactly once.
func (m *Manager) HandleClientKilled(win Window) {
	m.mu.Lock()
	terminal, ok := m.swallowed[win]
	if ok {
		delete(m.swallowed, win)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	if err := m.session.Restore(terminal); err != nil {
		m.log.Debug("failed to restore terminal", "terminal", terminal, "error", err)
		return
	}
	if err := m.session.Focus(terminal); err != nil {
		m.log.Debug("failed to focus terminal", "terminal", terminal, "error", err)
	}
	m.log.Debug("restored terminal", "window", win, "terminal", terminal)
}

// findAncestorTerminal walks up the process tree looking for a pid that
// owns a visible terminal window. The walk is bounded by maxDepth.
func (m *Manager) findAncestorTerminal(pid int32) (Window, bool) {
	byPID, err := m.terminalWindowsByPID()
	if err != nil || len(byPID) == 0 {
		return 0, false
	}

	cur := pid
	for depth := 0; depth < m.maxDepth; depth++ {
		parent, err := m.procs.Parent(cur)
		if err != nil || parent <= 1 {
			return 0, false
		}
		if win, ok := byPID[parent]; ok {
			return win, true
		}
		cur = parent
	}
	return 0, false
}

func (m *Manager) terminalWindowsByPID() (map[int32]Window, error) {
	clients, err := m.session.ClientWindows()
	if err != nil {
		return nil, err
	}

	byPID := make(map[int32]Window)
	for _, client := range clients {
		classes, err := m.session.WindowClass(client)
		if err != nil || !m.isTerminal(classes) {
			continue
		}
		pid, err := m.session.WindowPID(client)
		if err != nil || pid == 0 {
			continue
		}
		byPID[pid] = client
	}
	return byPID, nil
}

func (m *Manager) isTerminal(classes []string) bool {
	for _, c := range classes {
		if m.terminals[c] {
			return true
		}
	}
	return false
}

// Package control exposes the daemon's control interface on the session
// bus and the client used by the CLI to drive it.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// BusName is the bus name claimed by hivebard.
	BusName = "io.github.thecrazygm.Hivebar1"
	// Interface is the control interface name.
	Interface = "io.github.thecrazygm.Hivebar1"
	// Path is the control object path.
	Path = "/io/github/thecrazygm/Hivebar1"
)

// Handlers are the daemon callbacks behind the control methods.
type Handlers struct {
	// TogglePopup shows or hides the notification popup.
	TogglePopup func()
	// MarkAsRead broadcasts setLastRead; returns a human-readable outcome.
	MarkAsRead func(ctx context.Context) (string, error)
	// Refresh re-polls one widget, or every widget when name is empty.
	Refresh func(name string)
	// Status returns the current widget snapshot.
	Status func() StatusSnapshot
}

// StatusSnapshot is the Status() payload, serialized as JSON.
type StatusSnapshot struct {
	Unread  int            `json:"unread"`
	Widgets []WidgetStatus `json:"widgets"`
}

// WidgetStatus is one widget's rendered state.
type WidgetStatus struct {
	Name  string `json:"name"`
	Text  string `json:"text"`
	Class string `json:"class,omitempty"`
}

// Server exports the control interface.
type Server struct {
	log      *slog.Logger
	handlers Handlers

	mu      sync.Mutex
	conn    *dbus.Conn
	running bool
}

// NewServer creates a control server with the given handlers.
func NewServer(log *slog.Logger, handlers Handlers) *Server {
	return &Server{
		log:      log.With("component", "control"),
		handlers: handlers,
	}
}

// Start connects to the session bus, exports the object, and claims the
// bus name.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("control server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s, Path, Interface); err != nil {
		conn.Close()
		return fmt.Errorf("failed to export control object: %w", err)
	}

	node := &introspect.Node{
		Name: Path,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: controlMethods(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("bus name %s already taken, is hivebard already running?", BusName)
	}

	s.conn = conn
	s.running = true
	s.log.Info("control interface started", "bus_name", BusName, "path", Path)
	return nil
}

// Stop releases the bus name and closes the connection.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.conn.ReleaseName(BusName)
	s.conn.Close()
	s.conn = nil
	s.running = false
}

// TogglePopup handles the TogglePopup D-Bus method.
func (s *Server) TogglePopup() *dbus.Error {
	if s.handlers.TogglePopup != nil {
		s.handlers.TogglePopup()
	}
	return nil
}

// MarkAsRead handles the MarkAsRead D-Bus method.
func (s *Server) MarkAsRead() (string, *dbus.Error) {
	if s.handlers.MarkAsRead == nil {
		return "", dbus.MakeFailedError(fmt.Errorf("mark as read not available"))
	}
	msg, err := s.handlers.MarkAsRead(context.Background())
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return msg, nil
}

// Refresh handles the Refresh D-Bus method.
func (s *Server) Refresh(name string) *dbus.Error {
	if s.handlers.Refresh != nil {
		s.handlers.Refresh(name)
	}
	return nil
}

// Status handles the Status D-Bus method, returning a JSON snapshot.
func (s *Server) Status() (string, *dbus.Error) {
	if s.handlers.Status == nil {
		return "{}", nil
	}
	data, err := json.Marshal(s.handlers.Status())
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

func controlMethods() []introspect.Method {
	return []introspect.Method{
		{Name: "TogglePopup"},
		{
			Name: "MarkAsRead",
			Args: []introspect.Arg{
				{Name: "result", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Refresh",
			Args: []introspect.Arg{
				{Name: "widget", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "Status",
			Args: []introspect.Arg{
				{Name: "status", Type: "s", Direction: "out"},
			},
		},
	}
}

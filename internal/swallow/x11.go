package swallow

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// ICCCM WM_STATE values.
const iconicState = 3

var x11Atoms = []string{
	"_NET_CLIENT_LIST",
	"_NET_WM_PID",
	"_NET_ACTIVE_WINDOW",
	"WM_STATE",
	"WM_CHANGE_STATE",
}

// X11Session implements Session against a live X server.
type X11Session struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// NewX11Session connects to the display and interns the atoms used by
// the swallow manager.
func NewX11Session() (*X11Session, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	s := &X11Session{
		conn:  conn,
		root:  xproto.Setup(conn).DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom, len(x11Atoms)),
	}
	for _, name := range x11Atoms {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to intern atom %s: %w", name, err)
		}
		s.atoms[name] = reply.Atom
	}
	return s, nil
}

// Close disconnects from the X server.
func (s *X11Session) Close() {
	s.conn.Close()
}

func (s *X11Session) getProperty(win xproto.Window, prop, typ xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(s.conn, false, win, prop, typ, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	if reply.Format == 0 {
		return nil, fmt.Errorf("property %d not set on window %d", prop, win)
	}
	return reply.Value, nil
}

// WindowClass implements Session.
func (s *X11Session) WindowClass(win Window) ([]string, error) {
	value, err := s.getProperty(xproto.Window(win), xproto.AtomWmClass, xproto.AtomString, 64)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(strings.TrimRight(string(value), "\x00"), "\x00")
	return parts, nil
}

// WindowPID implements Session.
func (s *X11Session) WindowPID(win Window) (int32, error) {
	value, err := s.getProperty(xproto.Window(win), s.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil {
		return 0, err
	}
	if len(value) < 4 {
		return 0, nil
	}
	return int32(binary.LittleEndian.Uint32(value[:4])), nil
}

// ClientWindows implements Session.
func (s *X11Session) ClientWindows() ([]Window, error) {
	value, err := s.getProperty(s.root, s.atoms["_NET_CLIENT_LIST"], xproto.AtomWindow, 1024)
	if err != nil {
		return nil, err
	}
	windows := make([]Window, 0, len(value)/4)
	for i := 0; i+4 <= len(value); i += 4 {
		windows = append(windows, Window(binary.LittleEndian.Uint32(value[i:i+4])))
	}
	return windows, nil
}

// IsMinimized implements Session.
func (s *X11Session) IsMinimized(win Window) (bool, error) {
	value, err := s.getProperty(xproto.Window(win), s.atoms["WM_STATE"], s.atoms["WM_STATE"], 2)
	if err != nil {
		// Unset WM_STATE just means not iconic
		return false, nil
	}
	if len(value) < 4 {
		return false, nil
	}
	return binary.LittleEndian.Uint32(value[:4]) == iconicState, nil
}

// Minimize implements Session, via a WM_CHANGE_STATE client message.
func (s *X11Session) Minimize(win Window) error {
	return s.sendClientMessage(win, s.atoms["WM_CHANGE_STATE"], [5]uint32{iconicState})
}

// Restore implements Session.
func (s *X11Session) Restore(win Window) error {
	return xproto.MapWindowChecked(s.conn, xproto.Window(win)).Check()
}

// Focus implements Session, via a _NET_ACTIVE_WINDOW client message.
// Source indication 2 marks the request as coming from a pager/tool.
func (s *X11Session) Focus(win Window) error {
	return s.sendClientMessage(win, s.atoms["_NET_ACTIVE_WINDOW"], [5]uint32{2})
}

func (s *X11Session) sendClientMessage(win Window, typ xproto.Atom, data [5]uint32) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(win),
		Type:   typ,
		Data:   xproto.ClientMessageDataUnionData32New(data[:]),
	}
	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
	return xproto.SendEventChecked(s.conn, false, s.root, mask, string(ev.Bytes())).Check()
}

// Run subscribes to window create/destroy events on the root window and
// feeds them to the manager until ctx is canceled.
func (s *X11Session) Run(ctx context.Context, log *slog.Logger, mgr *Manager) error {
	err := xproto.ChangeWindowAttributesChecked(s.conn, s.root, xproto.CwEventMask,
		[]uint32{xproto.EventMaskSubstructureNotify}).Check()
	if err != nil {
		return fmt.Errorf("failed to subscribe to root events: %w", err)
	}

	// WaitForEvent has no cancellation; closing the connection unblocks it.
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	for {
		ev, xerr := s.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("X connection closed")
		}
		if xerr != nil {
			log.Debug("X error event", "error", xerr)
			continue
		}

		switch e := ev.(type) {
		case xproto.MapNotifyEvent:
			if !e.OverrideRedirect {
				mgr.HandleClientNew(Window(e.Window))
			}
		case xproto.DestroyNotifyEvent:
			mgr.HandleClientKilled(Window(e.Window))
		}
	}
}

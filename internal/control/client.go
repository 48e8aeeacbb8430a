package control

import (
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Client drives a running hivebard over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Dial connects to the session bus.
func Dial() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(BusName, Path),
	}, nil
}

// Close releases the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// TogglePopup shows or hides the daemon's notification popup.
func (c *Client) TogglePopup() error {
	return c.obj.Call(Interface+".TogglePopup", 0).Err
}

// MarkAsRead asks the daemon to broadcast setLastRead.
func (c *Client) MarkAsRead() (string, error) {
	var msg string
	if err := c.obj.Call(Interface+".MarkAsRead", 0).Store(&msg); err != nil {
		return "", err
	}
	return msg, nil
}

// Refresh re-polls one widget, or everything when name is empty.
func (c *Client) Refresh(name string) error {
	return c.obj.Call(Interface+".Refresh", 0, name).Err
}

// Status fetches the daemon's widget snapshot.
func (c *Client) Status() (StatusSnapshot, error) {
	var raw string
	if err := c.obj.Call(Interface+".Status", 0).Store(&raw); err != nil {
		return StatusSnapshot{}, err
	}
	var snapshot StatusSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return StatusSnapshot{}, fmt.Errorf("bad status payload: %w", err)
	}
	return snapshot, nil
}

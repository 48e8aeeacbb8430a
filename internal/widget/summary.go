package widget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/thecrazygm/hivebar/internal/config"
	"github.com/thecrazygm/hivebar/internal/hive"
	"github.com/thecrazygm/hivebar/internal/model"
)

// summaryErrorText is rendered whenever a poll fails; the cache keeps
// the last good records.
const summaryErrorText = "Notifications: Error"

// HiveAPI is the subset of the Hive client the summary needs.
type HiveAPI interface {
	AccountNotifications(ctx context.Context, account string, limit int) ([]*model.Record, error)
	UnreadNotifications(ctx context.Context, account string) (hive.Unread, error)
	MarkNotificationsRead(ctx context.Context, key *secp256k1.PrivateKey, account string, at time.Time) error
}

// Summary polls Hive account notifications and owns the record cache
// that the detail list, popup, and CLI read from.
type Summary struct {
	log        *slog.Logger
	api        HiveAPI
	account    string
	limit      int
	onlyUnread bool
	icon       string
	emptyText  string
	interval   time.Duration
	wif        func() string // Resolved per call so env changes apply

	mu        sync.Mutex
	records   []*model.Record
	count     int
	lastFetch time.Time
	lastErr   error

	listenerMu sync.Mutex
	listeners  []Listener
}

// NewSummary builds the notification summary widget.
func NewSummary(log *slog.Logger, api HiveAPI, cfg *config.Config) *Summary {
	return &Summary{
		log:        log.With("widget", "hive-notifications"),
		api:        api,
		account:    cfg.Hive.Account,
		limit:      cfg.Notifications.Limit,
		onlyUnread: cfg.Notifications.OnlyUnread,
		icon:       cfg.Notifications.Icon,
		emptyText:  cfg.Notifications.EmptyText,
		interval:   cfg.Notifications.Interval.Duration(),
		wif:        cfg.WIF,
	}
}

// Name implements Widget.
func (s *Summary) Name() string {
	return "hive-notifications"
}

// Interval implements Widget.
func (s *Summary) Interval() time.Duration {
	return s.interval
}

// Poll implements Widget. A poll inside the debounce window renders from
// the cache without touching the network.
func (s *Summary) Poll(ctx context.Context) State {
	if err := s.fetch(ctx, false); err != nil {
		s.log.Warn("notification fetch failed", "error", err)
		return State{Text: summaryErrorText, Class: ClassError}
	}
	return s.render()
}

// ForceRefresh bypasses the debounce window.
func (s *Summary) ForceRefresh(ctx context.Context) State {
	if err := s.fetch(ctx, true); err != nil {
		s.log.Warn("notification fetch failed", "error", err)
		return State{Text: summaryErrorText, Class: ClassError}
	}
	return s.render()
}

// fetch refreshes the cache unless the last fetch is still fresh. On
// success, listeners are notified exactly once; on failure, the cache
// and timestamp are left untouched.
func (s *Summary) fetch(ctx context.Context, force bool) error {
	s.mu.Lock()
	if !force && !s.lastFetch.IsZero() && time.Since(s.lastFetch) < s.interval {
		s.mu.Unlock()
		return s.lastErr
	}
	s.mu.Unlock()

	records, count, err := s.query(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.records = records
	s.count = count
	s.lastFetch = time.Now()
	s.lastErr = nil
	s.mu.Unlock()

	s.notifyListeners()
	return nil
}

func (s *Summary) query(ctx context.Context) ([]*model.Record, int, error) {
	if !s.onlyUnread {
		records, err := s.api.AccountNotifications(ctx, s.account, s.limit)
		if err != nil {
			return nil, 0, err
		}
		return records, len(records), nil
	}

	unread, err := s.api.UnreadNotifications(ctx, s.account)
	if err != nil {
		return nil, 0, err
	}
	if unread.Count == 0 {
		return nil, 0, nil
	}

	records, err := s.api.AccountNotifications(ctx, s.account, s.limit)
	if err != nil {
		return nil, 0, err
	}

	fresh := records[:0:0]
	for _, r := range records {
		if r.Date.After(unread.Lastread) {
			fresh = append(fresh, r)
		}
	}
	return fresh, unread.Count, nil
}

func (s *Summary) render() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return State{Text: s.emptyText}
	}
	return State{Text: fmt.Sprintf("%s %d", s.icon, s.count), Class: ClassUnread}
}

// Records returns a snapshot of the cached records.
func (s *Summary) Records() []*model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Count returns the cached unread count.
func (s *Summary) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Register adds a listener for successful polls.
func (s *Summary) Register(l Listener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Unregister removes a previously registered listener.
func (s *Summary) Unregister(l Listener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	for i, reg := range s.listeners {
		if reg == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

func (s *Summary) notifyListeners() {
	s.listenerMu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.listenerMu.Unlock()

	for _, l := range listeners {
		l.Refreshed()
	}
}

// MarkAsRead broadcasts a setLastRead marker and forces a re-poll.
// Returns a human-readable outcome; the no-op cases (missing key, not in
// unread-only mode) are not errors.
func (s *Summary) MarkAsRead(ctx context.Context) (string, error) {
	if !s.onlyUnread {
		return "not tracking unread notifications, nothing to mark", nil
	}
	wif := s.wif()
	if wif == "" {
		return "no posting key in environment, skipping mark as read", nil
	}

	key, err := hive.DecodeWIF(wif)
	if err != nil {
		return "", fmt.Errorf("bad posting key: %w", err)
	}

	if err := s.api.MarkNotificationsRead(ctx, key, s.account, time.Now()); err != nil {
		return "", fmt.Errorf("failed to broadcast setLastRead: %w", err)
	}

	s.mu.Lock()
	cleared := s.count
	s.records = nil
	s.count = 0
	s.mu.Unlock()

	s.ForceRefresh(ctx)
	return fmt.Sprintf("marked %d notifications as read", cleared), nil
}

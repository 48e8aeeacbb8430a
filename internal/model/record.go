// Package model defines the core data structures for hivebar.
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"
)

// Known notification types returned by the Hive bridge API.
const (
	TypeVote    = "vote"
	TypeMention = "mention"
	TypeReply   = "reply"
	TypeReblog  = "reblog"
	TypeFollow  = "follow"
)

// Record is a single account notification as fetched from a Hive node.
// Records are immutable once fetched; the summary widget holds them in a
// short-lived in-process cache.
type Record struct {
	// ID is assigned locally at fetch time.
	ID string `json:"id" yaml:"id"`

	// Fields sourced verbatim from the bridge API.
	Type  string    `json:"type" yaml:"type"`
	Date  time.Time `json:"date" yaml:"date"`
	Msg   string    `json:"msg" yaml:"msg"`
	URL   string    `json:"url" yaml:"url"`
	Score int       `json:"score,omitempty" yaml:"score,omitempty"`
}

// Validation errors.
var (
	ErrEmptyID   = errors.New("record id cannot be empty")
	ErrEmptyType = errors.New("record type cannot be empty")
	ErrZeroDate  = errors.New("record date cannot be zero")
)

// NewRecord creates a Record with a generated ULID.
func NewRecord() (*Record, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}
	return &Record{ID: id.String()}, nil
}

// Validate checks that the record has all required fields.
func (r *Record) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}
	if r.Type == "" {
		return ErrEmptyType
	}
	if r.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Sender extracts the originating account from the record.
// The bridge API embeds it as the first @name token in the message; some
// notification types only carry it in the URL (format: @name/permlink).
func (r *Record) Sender() string {
	for _, part := range strings.Fields(r.Msg) {
		if strings.HasPrefix(part, "@") && len(part) > 1 {
			return part
		}
	}
	if strings.HasPrefix(r.URL, "@") {
		if i := strings.IndexByte(r.URL, '/'); i > 0 {
			return r.URL[:i]
		}
		return r.URL
	}
	return "N/A"
}

// Summary derives a short human-readable description from the raw message.
// Falls back to the message itself, then to the post referenced by the URL.
func (r *Record) Summary() string {
	switch r.Type {
	case TypeVote:
		if strings.Contains(r.Msg, "voted on your post") {
			if amount, ok := extractParenAmount(r.Msg); ok {
				return "voted " + amount + " on your post"
			}
			return "voted on your post"
		}
	case TypeMention:
		if strings.Contains(r.Msg, "mentioned you") {
			if others, ok := extractOthersCount(r.Msg); ok {
				return "mentioned you and " + others + " others"
			}
			return "mentioned you"
		}
	case TypeReply:
		if strings.Contains(r.Msg, "replied to your") {
			return "replied to your post"
		}
		if strings.Contains(r.Msg, "replied to you") {
			return "replied to you"
		}
	case TypeReblog:
		if strings.Contains(r.Msg, "reblogged your post") {
			return "reblogged your post"
		}
	}
	if r.Msg != "" {
		return r.Msg
	}
	if i := strings.IndexByte(r.URL, '/'); i > 0 && i+1 < len(r.URL) {
		return "re: " + r.URL[i+1:]
	}
	return "N/A"
}

// extractParenAmount pulls the "$0.05" out of "... voted on your post ($0.05)".
func extractParenAmount(msg string) (string, bool) {
	start := strings.Index(msg, "($")
	if start < 0 {
		return "", false
	}
	rest := msg[start+1:]
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// extractOthersCount pulls the "3" out of "@x mentioned you and 3 others".
func extractOthersCount(msg string) (string, bool) {
	start := strings.Index(msg, "and ")
	if start < 0 {
		return "", false
	}
	rest := msg[start+4:]
	end := strings.Index(rest, " others")
	if end <= 0 {
		return "", false
	}
	return rest[:end], true
}

// RelativeTime returns a human-readable relative time, e.g. "3 minutes ago".
func (r *Record) RelativeTime() string {
	return humanize.Time(r.Date)
}

// SummaryTruncated returns the summary truncated to maxLen characters with
// "..." appended when cut.
func (r *Record) SummaryTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	s := strings.Join(strings.Fields(r.Summary()), " ")
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// Clone creates a copy of the record.
func (r *Record) Clone() *Record {
	clone := *r
	return &clone
}

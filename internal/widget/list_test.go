package widget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thecrazygm/hivebar/internal/hive"
	"github.com/thecrazygm/hivebar/internal/model"
)

func TestListRendersCachedRecords(t *testing.T) {
	now := time.Now().UTC()
	api := &fakeHive{
		unread: hive.Unread{Count: 2, Lastread: now.Add(-time.Hour)},
		records: []*model.Record{
			record(model.TypeVote, "@bob voted on your post ($0.05)", now),
			record(model.TypeReply, "@carol replied to you", now.Add(-time.Minute)),
		},
	}
	s := NewSummary(testLogger(), api, summaryConfig(t))
	l := NewList(s, 10, nil)

	s.Poll(context.Background())

	state := l.Poll(context.Background())
	assert.Equal(t, "@bob voted $0.05 on your post; @carol replied to you", state.Text)
	assert.Equal(t, ClassUnread, state.Class)
}

func TestListEmptyCache(t *testing.T) {
	s := NewSummary(testLogger(), &fakeHive{}, summaryConfig(t))
	l := NewList(s, 10, nil)

	state := l.Poll(context.Background())
	assert.Empty(t, state.Text)
}

func TestListTruncatesWithMoreMarker(t *testing.T) {
	now := time.Now().UTC()
	api := &fakeHive{
		unread: hive.Unread{Count: 3, Lastread: now.Add(-time.Hour)},
		records: []*model.Record{
			record(model.TypeReply, "@a replied to you", now),
			record(model.TypeReply, "@b replied to you", now),
			record(model.TypeReply, "@c replied to you", now),
		},
	}
	s := NewSummary(testLogger(), api, summaryConfig(t))
	l := NewList(s, 2, nil)

	s.Poll(context.Background())

	state := l.Poll(context.Background())
	assert.Equal(t, "@a replied to you; @b replied to you; +1 more", state.Text)
}

func TestListRefreshedSchedulesEnginePoll(t *testing.T) {
	s := NewSummary(testLogger(), &fakeHive{}, summaryConfig(t))

	e := NewEngine(testLogger(), nil)
	l := NewList(s, 10, e)
	e.Add(l)

	l.Refreshed()

	select {
	case name := <-e.refreshCh:
		assert.Equal(t, "hive-list", name)
	default:
		t.Fatal("expected a refresh to be queued")
	}
}

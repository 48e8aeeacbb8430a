package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thecrazygm/hivebar/internal/model"
)

func browserRecords() []model.Record {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	return []model.Record{
		{ID: "1", Type: model.TypeVote, Date: base, Msg: "@alice voted on your post ($0.10)", URL: "@bob/my-post"},
		{ID: "2", Type: model.TypeReply, Date: base.Add(-time.Hour), Msg: "@carol replied to your post", URL: "@bob/my-post#re"},
		{ID: "3", Type: model.TypeFollow, Date: base.Add(-2 * time.Hour), Msg: "@dave followed you", URL: "@dave"},
	}
}

func TestBuildListItemsHidesRead(t *testing.T) {
	m := New(nil, nil, false)
	m.records = browserRecords()
	// Everything except the newest vote is already read
	m.lastread = time.Date(2026, 8, 25, 11, 30, 0, 0, time.UTC)

	items := m.buildListItems()
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].(recordItem).record.ID)
	assert.False(t, items[0].(recordItem).read)
}

func TestBuildListItemsShowsReadWhenToggled(t *testing.T) {
	m := New(nil, nil, true)
	m.records = browserRecords()
	m.lastread = time.Date(2026, 8, 25, 11, 30, 0, 0, time.UTC)

	items := m.buildListItems()
	require.Len(t, items, 3)
	assert.False(t, items[0].(recordItem).read)
	assert.True(t, items[1].(recordItem).read)
	assert.True(t, items[2].(recordItem).read)
}

func TestBuildListItemsSearchFilter(t *testing.T) {
	m := New(nil, nil, true)
	m.records = browserRecords()
	m.searchQuery = "CAROL"

	items := m.buildListItems()
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].(recordItem).record.ID)
}

func TestMatchesQueryFields(t *testing.T) {
	r := model.Record{Type: model.TypeMention, Msg: "@eve mentioned you", URL: "@eve/hello-world"}

	assert.True(t, matchesQuery(r, "eve"))
	assert.True(t, matchesQuery(r, "hello-world"))
	assert.True(t, matchesQuery(r, "mention"))
	assert.False(t, matchesQuery(r, "absent"))
}

func TestRecordLink(t *testing.T) {
	assert.Equal(t, "https://hive.blog/@bob/my-post",
		recordLink(model.Record{URL: "@bob/my-post"}))
	assert.Empty(t, recordLink(model.Record{}))
}

func TestRecordItemText(t *testing.T) {
	r := browserRecords()[0]
	item := recordItem{record: r}

	assert.Contains(t, item.Title(), "@alice")
	assert.Contains(t, item.Description(), model.TypeVote)
	assert.Contains(t, item.FilterValue(), "@alice voted on your post ($0.10)")
}

func TestRenderDetail(t *testing.T) {
	r := model.Record{
		Type:  model.TypeVote,
		Date:  time.Now().Add(-time.Minute),
		Msg:   "@alice voted on your post ($0.10)",
		URL:   "@bob/my-post",
		Score: 70,
	}

	detail := renderDetail(r)
	assert.Contains(t, detail, "@alice")
	assert.Contains(t, detail, "vote")
	assert.Contains(t, detail, "70")
	assert.Contains(t, detail, "https://hive.blog/@bob/my-post")
}

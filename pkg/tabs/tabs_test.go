package tabs

import (
	"context"
	"errors"
	"testing"

	"github.com/entrhq/tabguard/pkg/hostname"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticBrowser struct {
	tabs []Tab
	err  error
}

func (b staticBrowser) Query(ctx context.Context) ([]Tab, error) { return b.tabs, b.err }
func (b staticBrowser) Remove(ctx context.Context, id TabID) error { return nil }
func (b staticBrowser) SendMessage(ctx context.Context, id TabID, message interface{}) error {
	return nil
}

func TestTab_EffectiveURL(t *testing.T) {
	assert.Equal(t, "https://b.com/", Tab{URL: "https://a.com/", PendingURL: "https://b.com/"}.EffectiveURL())
	assert.Equal(t, "https://a.com/", Tab{URL: "https://a.com/"}.EffectiveURL())
}

func TestHostOf_PrefersPendingURL(t *testing.T) {
	r := hostname.Default()

	host, ok := HostOf(r, Tab{ID: 1, URL: "https://old.com/", PendingURL: "https://www.new.com/"})
	require.True(t, ok)
	assert.Equal(t, "new.com", host)

	_, ok = HostOf(r, Tab{ID: 2, URL: "about:blank"})
	assert.False(t, ok)
}

func TestForHost(t *testing.T) {
	b := staticBrowser{tabs: []Tab{
		{ID: 1, URL: "https://example.com/a"},
		{ID: 2, URL: "https://www.example.com/b"},
		{ID: 3, URL: "https://other.com/"},
		{ID: 4, URL: "https://other.com/", PendingURL: "https://example.com/c"},
		{ID: 5, URL: "https://example.com/", PendingURL: "https://other.com/"},
		{ID: 6, URL: "chrome-extension://x/suspended.html#uri=https://example.com/d"},
	}}

	got, err := ForHost(context.Background(), b, hostname.Default(), "example.com")
	require.NoError(t, err)

	var ids []TabID
	for _, tab := range got {
		ids = append(ids, tab.ID)
	}
	assert.Equal(t, []TabID{1, 2, 4, 6}, ids)
}

func TestForHost_QueryError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ForHost(context.Background(), staticBrowser{err: boom}, hostname.Default(), "example.com")
	assert.ErrorIs(t, err, boom)
}

func TestGroupByHost(t *testing.T) {
	all := []Tab{
		{ID: 1, URL: "https://b.com/"},
		{ID: 2, URL: "about:blank"},
		{ID: 3, URL: "https://a.com/"},
		{ID: 4, URL: "https://b.com/x"},
	}

	groups := GroupByHost(hostname.Default(), all)
	require.Len(t, groups, 2)
	assert.Equal(t, "a.com", groups[0].Host)
	assert.Len(t, groups[0].Tabs, 1)
	assert.Equal(t, "b.com", groups[1].Host)
	assert.Equal(t, []Tab{all[0], all[3]}, groups[1].Tabs)

	assert.Equal(t, []string{"a.com", "b.com"}, Hosts(hostname.Default(), all))
}

func TestNewest(t *testing.T) {
	newest, ok := Newest([]Tab{{ID: 4}, {ID: 11}, {ID: NoID}, {ID: 7}})
	require.True(t, ok)
	assert.Equal(t, TabID(11), newest.ID)

	_, ok = Newest([]Tab{{ID: NoID}, {ID: NoID}})
	assert.False(t, ok)

	_, ok = Newest(nil)
	assert.False(t, ok)
}

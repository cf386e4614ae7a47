package client

import (
	"testing"

	"github.com/dmitrijs2005/chirp/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_KeepsDeliveryOrder(t *testing.T) {
	f := NewFeed()
	f.Add(protocol.Post{ID: 1, Author: "a@x.com", Body: "first"})
	f.Add(protocol.Post{ID: 2, Author: "b@x.com", Body: "second"})

	all := f.All()
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Body)
	assert.Equal(t, "second", all[1].Body)
}

func TestFeed_DeduplicatesByID(t *testing.T) {
	f := NewFeed()
	f.Add(protocol.Post{ID: 1, Author: "a@x.com", Body: "once"})
	f.Add(protocol.Post{ID: 1, Author: "a@x.com", Body: "once"})

	assert.Len(t, f.All(), 1)
}

func TestFeed_VisibleFiltersIgnoredAuthors(t *testing.T) {
	f := NewFeed()
	f.Add(protocol.Post{ID: 1, Author: "b@x.com", Body: "from b"})
	f.Add(protocol.Post{ID: 2, Author: "c@x.com", Body: "from c"})

	viewer := protocol.Account{
		UserID:  "a@x.com",
		Friends: []string{"b@x.com", "c@x.com"},
		Ignored: []string{"c@x.com"},
	}

	visible := f.Visible(viewer)
	require.Len(t, visible, 1)
	assert.Equal(t, "from b", visible[0].Body)

	// unignoring brings the hidden history back
	viewer.Ignored = nil
	assert.Len(t, f.Visible(viewer), 2)
}

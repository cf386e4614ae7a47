package client

import "github.com/dmitrijs2005/chirp/internal/protocol"

// Feed is the local post store, in delivery order. It keeps every post the
// server delivered, ignored authors included; filtering happens when
// rendering, so unignoring a friend later brings their history back.
type Feed struct {
	posts []protocol.Post
	seen  map[int64]struct{}
}

func NewFeed() *Feed {
	return &Feed{seen: make(map[int64]struct{})}
}

// Add appends p unless a post with the same id is already present.
func (f *Feed) Add(p protocol.Post) {
	if _, ok := f.seen[p.ID]; ok {
		return
	}
	f.seen[p.ID] = struct{}{}
	f.posts = append(f.posts, p)
}

// All returns every stored post in delivery order.
func (f *Feed) All() []protocol.Post {
	out := make([]protocol.Post, len(f.posts))
	copy(out, f.posts)
	return out
}

// Visible returns the posts viewer should see: everything except posts by
// authors viewer currently ignores.
func (f *Feed) Visible(viewer protocol.Account) []protocol.Post {
	out := make([]protocol.Post, 0, len(f.posts))
	for _, p := range f.posts {
		if viewer.IsIgnoring(p.Author) {
			continue
		}
		out = append(out, p)
	}
	return out
}

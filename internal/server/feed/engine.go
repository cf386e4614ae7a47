// Package feed computes per-account synchronization results: everything an
// account has not yet seen from its friends, plus the current account set.
package feed

import "github.com/dmitrijs2005/chirp/internal/server/directory"

// Engine answers sync requests. Cursor bookkeeping lives inside the
// directory's critical section; the engine only assembles the result.
type Engine struct {
	dir *directory.Directory
}

func NewEngine(dir *directory.Directory) *Engine {
	return &Engine{dir: dir}
}

// Sync advances userID's cursor and returns the current account snapshot
// plus the posts by friends the account has not seen yet. Delivery is
// at-most-once: a response lost after this call is never re-sent.
func (e *Engine) Sync(userID string) ([]*directory.Account, []*directory.Post) {
	posts := e.dir.NewFriendPosts(userID)
	accounts := e.dir.SnapshotAccounts()
	return accounts, posts
}

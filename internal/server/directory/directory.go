// Package directory holds the server's shared state: every known account,
// its login record, and the append-only post log. All access goes through
// Directory methods, each of which is one critical section, so any number
// of sessions may call them concurrently. Nothing here is persisted;
// restarting the server starts from an empty directory.
package directory

import "sync"

// Directory is the shared repository of accounts, logins, and posts.
// The zero value is not usable; call New.
type Directory struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	logins   map[string]*Login
	posts    []*Post
}

func New() *Directory {
	return &Directory{
		accounts: make(map[string]*Account),
		logins:   make(map[string]*Login),
	}
}

// FindAccount returns a copy of the account for userID, if known.
func (d *Directory) FindAccount(userID string) (*Account, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[userID]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// FindLogin returns a copy of the login for userID, if known.
func (d *Directory) FindLogin(userID string) (*Login, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.logins[userID]
	if !ok {
		return nil, false
	}
	return l.clone(), true
}

// UpsertAccount inserts or replaces the account keyed by its UserID.
func (d *Directory) UpsertAccount(a *Account) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts[a.UserID] = a.Clone()
}

// UpsertLogin inserts or replaces the login keyed by its UserID.
func (d *Directory) UpsertLogin(l *Login) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logins[l.UserID] = l.clone()
}

// RemoveAccount deletes the account for userID. Idempotent.
func (d *Directory) RemoveAccount(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.accounts, userID)
}

// RemoveLogin deletes the login for userID. Idempotent.
func (d *Directory) RemoveLogin(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.logins, userID)
}

// ReplaceCredentials atomically swaps the account and login records for
// oldID with fresh ones built from account and login. The replacement
// inherits the old record's friends, ignore set, and sync cursor, and a
// rename rewrites oldID inside every other account's friend and ignore
// sets, so relationships survive the swap. Returns a copy of the stored
// account.
func (d *Directory) ReplaceCredentials(oldID string, account *Account, login *Login) *Account {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored := account.Clone()
	if old, ok := d.accounts[oldID]; ok {
		stored.LastSyncCursor = old.LastSyncCursor
		stored.Friends = old.Friends
		stored.Ignored = old.Ignored
	}

	delete(d.accounts, oldID)
	delete(d.logins, oldID)
	d.accounts[stored.UserID] = stored
	d.logins[login.UserID] = login.clone()

	if oldID != stored.UserID {
		for _, a := range d.accounts {
			if _, ok := a.Friends[oldID]; ok {
				delete(a.Friends, oldID)
				a.Friends[stored.UserID] = struct{}{}
			}
			if _, ok := a.Ignored[oldID]; ok {
				delete(a.Ignored, oldID)
				a.Ignored[stored.UserID] = struct{}{}
			}
		}
	}

	return stored.Clone()
}

// SnapshotAccounts returns a point-in-time copy of every known account.
// Later directory mutation is not visible through the returned slice.
func (d *Directory) SnapshotAccounts() []*Account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Account, 0, len(d.accounts))
	for _, a := range d.accounts {
		out = append(out, a.Clone())
	}
	return out
}

// AppendPost appends p to the end of the log. The post must already carry a
// unique id from the IDAllocator. Log position order is creation order and
// is never reordered or compacted.
func (d *Directory) AppendPost(p *Post) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.posts = append(d.posts, p)
}

// PostsSince returns all posts with log position >= index, in creation
// order.
func (d *Directory) PostsSince(index int) []*Post {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if index < 0 {
		index = 0
	}
	if index > len(d.posts) {
		index = len(d.posts)
	}
	out := make([]*Post, len(d.posts)-index)
	copy(out, d.posts[index:])
	return out
}

// PostCount returns the current length of the post log.
func (d *Directory) PostCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.posts)
}

// Befriend adds each account to the other's friend set. Both sides update
// in one critical section so no reader ever observes the relationship
// half-applied. Unknown ids are a no-op. Idempotent.
func (d *Directory) Befriend(aID, bID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, okA := d.accounts[aID]
	b, okB := d.accounts[bID]
	if !okA || !okB || aID == bID {
		return
	}
	a.Friends[bID] = struct{}{}
	b.Friends[aID] = struct{}{}
}

// Unfriend removes each account from the other's friend set. Ignore state
// is deliberately left alone. Idempotent.
func (d *Directory) Unfriend(aID, bID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, okA := d.accounts[aID]
	b, okB := d.accounts[bID]
	if !okA || !okB {
		return
	}
	delete(a.Friends, bID)
	delete(b.Friends, aID)
}

// Ignore adds bID to aID's ignore set, only if they are currently friends.
// Ignoring a stranger is a silent no-op.
func (d *Directory) Ignore(aID, bID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accounts[aID]
	if !ok {
		return
	}
	if _, ok := a.Friends[bID]; ok {
		a.Ignored[bID] = struct{}{}
	}
}

// Unignore removes bID from aID's ignore set, gated on friendship the same
// way as Ignore.
func (d *Directory) Unignore(aID, bID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accounts[aID]
	if !ok {
		return
	}
	if _, ok := a.Friends[bID]; ok {
		delete(a.Ignored, bID)
	}
}

// IsFriend reports whether bID is in aID's friend set.
func (d *Directory) IsFriend(aID, bID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[aID]
	if !ok {
		return false
	}
	_, ok = a.Friends[bID]
	return ok
}

// IsIgnoring reports whether bID is in aID's ignore set.
func (d *Directory) IsIgnoring(aID, bID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[aID]
	if !ok {
		return false
	}
	_, ok = a.Ignored[bID]
	return ok
}

// NewFriendPosts advances userID's sync cursor to the end of the log and
// returns the posts between the old cursor and the new one whose author is
// currently a friend. Cursor read and advance happen in one critical
// section, so two syncs for the same account can never observe the same
// window. Posts by ignored friends are included: ignoring filters display
// on the client, not delivery.
func (d *Directory) NewFriendPosts(userID string) []*Post {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.accounts[userID]
	if !ok {
		return nil
	}

	since := a.LastSyncCursor
	if since > len(d.posts) {
		since = len(d.posts)
	}
	a.LastSyncCursor = len(d.posts)

	out := make([]*Post, 0)
	for _, p := range d.posts[since:] {
		if _, ok := a.Friends[p.Author]; ok {
			out = append(out, p)
		}
	}
	return out
}

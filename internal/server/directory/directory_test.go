package directory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDirWithAccounts(t *testing.T, ids ...string) *Directory {
	t.Helper()
	d := New()
	for _, id := range ids {
		d.UpsertAccount(NewAccount(id, "user "+id))
	}
	return d
}

func TestFindAccount(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com")

	a, ok := d.FindAccount("a@x.com")
	require.True(t, ok)
	assert.Equal(t, "a@x.com", a.UserID)
	assert.Equal(t, "user a@x.com", a.DisplayName)

	_, ok = d.FindAccount("nobody@x.com")
	assert.False(t, ok)
}

func TestFindAccount_ReturnsCopy(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com", "b@x.com")

	a, ok := d.FindAccount("a@x.com")
	require.True(t, ok)
	a.Friends["b@x.com"] = struct{}{}
	a.DisplayName = "changed"

	stored, ok := d.FindAccount("a@x.com")
	require.True(t, ok)
	assert.False(t, stored.IsFriend("b@x.com"), "mutating a returned account must not touch the directory")
	assert.Equal(t, "user a@x.com", stored.DisplayName)
}

func TestUpsertAccount_ReplacesByUserID(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com")

	d.UpsertAccount(NewAccount("a@x.com", "renamed"))

	a, ok := d.FindAccount("a@x.com")
	require.True(t, ok)
	assert.Equal(t, "renamed", a.DisplayName)
	assert.Len(t, d.SnapshotAccounts(), 1)
}

func TestRemoveAccount_Idempotent(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com")

	d.RemoveAccount("a@x.com")
	d.RemoveAccount("a@x.com")

	_, ok := d.FindAccount("a@x.com")
	assert.False(t, ok)
}

func TestLogins(t *testing.T) {
	d := New()

	l, err := NewLogin("a@x.com", "secret")
	require.NoError(t, err)
	d.UpsertLogin(l)

	got, ok := d.FindLogin("a@x.com")
	require.True(t, ok)
	assert.True(t, got.Verify("secret"))
	assert.False(t, got.Verify("wrong"))

	d.RemoveLogin("a@x.com")
	_, ok = d.FindLogin("a@x.com")
	assert.False(t, ok)
	d.RemoveLogin("a@x.com") // idempotent
}

func TestSnapshotAccounts_IsPointInTime(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com", "b@x.com")

	snap := d.SnapshotAccounts()
	require.Len(t, snap, 2)

	d.UpsertAccount(NewAccount("c@x.com", ""))
	d.Befriend("a@x.com", "b@x.com")

	assert.Len(t, snap, 2)
	for _, a := range snap {
		assert.Empty(t, a.Friends, "snapshot must not see later mutation")
	}
}

func TestPostLog(t *testing.T) {
	d := New()
	var ids IDAllocator

	for i := 0; i < 3; i++ {
		d.AppendPost(&Post{ID: ids.Next(), Author: "a@x.com", Body: fmt.Sprintf("post %d", i), CreatedAt: time.Now()})
	}

	assert.Equal(t, 3, d.PostCount())

	all := d.PostsSince(0)
	require.Len(t, all, 3)
	assert.Equal(t, "post 0", all[0].Body)
	assert.Equal(t, "post 2", all[2].Body)

	tail := d.PostsSince(2)
	require.Len(t, tail, 1)
	assert.Equal(t, "post 2", tail[0].Body)

	assert.Empty(t, d.PostsSince(3))
	assert.Empty(t, d.PostsSince(100))
	assert.Len(t, d.PostsSince(-1), 3)
}

func TestBefriend_Symmetric(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com", "b@x.com")

	d.Befriend("a@x.com", "b@x.com")
	assert.True(t, d.IsFriend("a@x.com", "b@x.com"))
	assert.True(t, d.IsFriend("b@x.com", "a@x.com"))

	// idempotent
	d.Befriend("a@x.com", "b@x.com")
	a, _ := d.FindAccount("a@x.com")
	assert.Len(t, a.Friends, 1)

	d.Unfriend("a@x.com", "b@x.com")
	assert.False(t, d.IsFriend("a@x.com", "b@x.com"))
	assert.False(t, d.IsFriend("b@x.com", "a@x.com"))

	// unfriending again is a no-op, not an error
	d.Unfriend("a@x.com", "b@x.com")
}

func TestBefriend_UnknownOrSelf_NoOp(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com")

	d.Befriend("a@x.com", "ghost@x.com")
	assert.False(t, d.IsFriend("a@x.com", "ghost@x.com"))

	d.Befriend("a@x.com", "a@x.com")
	assert.False(t, d.IsFriend("a@x.com", "a@x.com"))
}

func TestIgnore_GatedOnFriendship(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com", "b@x.com")

	// ignoring a stranger leaves the ignore set untouched
	d.Ignore("a@x.com", "b@x.com")
	assert.False(t, d.IsIgnoring("a@x.com", "b@x.com"))

	d.Befriend("a@x.com", "b@x.com")
	d.Ignore("a@x.com", "b@x.com")
	assert.True(t, d.IsIgnoring("a@x.com", "b@x.com"))
	assert.False(t, d.IsIgnoring("b@x.com", "a@x.com"), "ignore is one-sided")

	d.Unignore("a@x.com", "b@x.com")
	assert.False(t, d.IsIgnoring("a@x.com", "b@x.com"))
}

func TestUnfriend_KeepsIgnoreState(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com", "b@x.com")

	d.Befriend("a@x.com", "b@x.com")
	d.Ignore("a@x.com", "b@x.com")
	d.Unfriend("a@x.com", "b@x.com")

	// ignore state survives unfriending
	a, _ := d.FindAccount("a@x.com")
	assert.True(t, a.IsIgnoring("b@x.com"))
	assert.False(t, a.IsFriend("b@x.com"))
}

func TestNewFriendPosts_CursorAdvances(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com", "b@x.com")
	d.Befriend("a@x.com", "b@x.com")
	var ids IDAllocator

	d.AppendPost(&Post{ID: ids.Next(), Author: "b@x.com", Body: "hello"})

	got := d.NewFriendPosts("a@x.com")
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Body)

	// second sync with nothing new is empty, cursor equals log length
	assert.Empty(t, d.NewFriendPosts("a@x.com"))
	a, _ := d.FindAccount("a@x.com")
	assert.Equal(t, d.PostCount(), a.LastSyncCursor)
}

func TestNewFriendPosts_FiltersNonFriends(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com", "b@x.com", "c@x.com")
	d.Befriend("a@x.com", "b@x.com")
	var ids IDAllocator

	d.AppendPost(&Post{ID: ids.Next(), Author: "b@x.com", Body: "from friend"})
	d.AppendPost(&Post{ID: ids.Next(), Author: "c@x.com", Body: "from stranger"})

	got := d.NewFriendPosts("a@x.com")
	require.Len(t, got, 1)
	assert.Equal(t, "from friend", got[0].Body)

	// the stranger's post is gone for good: the cursor moved past it
	d.Befriend("a@x.com", "c@x.com")
	assert.Empty(t, d.NewFriendPosts("a@x.com"))
}

func TestNewFriendPosts_IncludesIgnoredFriends(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com", "b@x.com")
	d.Befriend("a@x.com", "b@x.com")
	d.Ignore("a@x.com", "b@x.com")
	var ids IDAllocator

	d.AppendPost(&Post{ID: ids.Next(), Author: "b@x.com", Body: "hi"})

	// ignoring filters rendering, not sync delivery
	got := d.NewFriendPosts("a@x.com")
	require.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].Body)
}

func TestNewFriendPosts_UnknownAccount(t *testing.T) {
	d := New()
	assert.Empty(t, d.NewFriendPosts("ghost@x.com"))
}

func TestReplaceCredentials_KeepsRelationshipsOnRename(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com", "b@x.com", "c@x.com")
	d.Befriend("a@x.com", "b@x.com")
	d.Befriend("c@x.com", "a@x.com")
	d.Ignore("b@x.com", "a@x.com")
	var ids IDAllocator
	d.AppendPost(&Post{ID: ids.Next(), Author: "b@x.com", Body: "x"})
	d.NewFriendPosts("a@x.com") // cursor now 1

	login, err := NewLogin("a2@x.com", "newpw")
	require.NoError(t, err)
	got := d.ReplaceCredentials("a@x.com", NewAccount("a2@x.com", "renamed"), login)

	assert.Equal(t, "a2@x.com", got.UserID)
	assert.Equal(t, "renamed", got.DisplayName)
	assert.Equal(t, 1, got.LastSyncCursor, "cursor carries over")
	assert.True(t, got.IsFriend("b@x.com"))
	assert.True(t, got.IsFriend("c@x.com"))

	_, ok := d.FindAccount("a@x.com")
	assert.False(t, ok)
	_, ok = d.FindLogin("a@x.com")
	assert.False(t, ok)

	l, ok := d.FindLogin("a2@x.com")
	require.True(t, ok)
	assert.True(t, l.Verify("newpw"))

	// other accounts now point at the new id, ignore state included
	assert.True(t, d.IsFriend("b@x.com", "a2@x.com"))
	assert.False(t, d.IsFriend("b@x.com", "a@x.com"))
	assert.True(t, d.IsIgnoring("b@x.com", "a2@x.com"))
	assert.True(t, d.IsFriend("c@x.com", "a2@x.com"))
}

func TestReplaceCredentials_SameID(t *testing.T) {
	d := newDirWithAccounts(t, "a@x.com", "b@x.com")
	d.Befriend("a@x.com", "b@x.com")

	login, err := NewLogin("a@x.com", "pw2")
	require.NoError(t, err)
	got := d.ReplaceCredentials("a@x.com", NewAccount("a@x.com", "new name"), login)

	assert.Equal(t, "new name", got.DisplayName)
	assert.True(t, got.IsFriend("b@x.com"))
	assert.True(t, d.IsFriend("b@x.com", "a@x.com"))
}

func TestConcurrentMutation(t *testing.T) {
	d := New()
	var ids IDAllocator
	const workers = 16

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("u%d@x.com", n)
			d.UpsertAccount(NewAccount(id, ""))
			d.Befriend(id, fmt.Sprintf("u%d@x.com", (n+1)%workers))
			d.AppendPost(&Post{ID: ids.Next(), Author: id, Body: "hi"})
			d.SnapshotAccounts()
			d.NewFriendPosts(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, workers, d.PostCount())
	assert.Len(t, d.SnapshotAccounts(), workers)
}

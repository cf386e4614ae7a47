package directory

import (
	"sort"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Account is a user's identity record plus friend/ignore state and the sync
// cursor. Two accounts are the same account iff UserID matches. The
// Directory hands out clones, never its live records, so holders of an
// Account can read it without locking.
type Account struct {
	UserID         string
	DisplayName    string
	LastSyncCursor int
	Friends        map[string]struct{}
	Ignored        map[string]struct{}
}

func NewAccount(userID, displayName string) *Account {
	return &Account{
		UserID:      userID,
		DisplayName: displayName,
		Friends:     make(map[string]struct{}),
		Ignored:     make(map[string]struct{}),
	}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := &Account{
		UserID:         a.UserID,
		DisplayName:    a.DisplayName,
		LastSyncCursor: a.LastSyncCursor,
		Friends:        make(map[string]struct{}, len(a.Friends)),
		Ignored:        make(map[string]struct{}, len(a.Ignored)),
	}
	for id := range a.Friends {
		c.Friends[id] = struct{}{}
	}
	for id := range a.Ignored {
		c.Ignored[id] = struct{}{}
	}
	return c
}

// IsFriend reports whether id is in the friend set.
func (a *Account) IsFriend(id string) bool {
	_, ok := a.Friends[id]
	return ok
}

// IsIgnoring reports whether id is in the ignore set. The ignore set is
// always a subset of the friend set.
func (a *Account) IsIgnoring(id string) bool {
	_, ok := a.Ignored[id]
	return ok
}

// FriendIDs returns the friend set as a sorted slice.
func (a *Account) FriendIDs() []string {
	return sortedIDs(a.Friends)
}

// IgnoredIDs returns the ignore set as a sorted slice.
func (a *Account) IgnoredIDs() []string {
	return sortedIDs(a.Ignored)
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Login pairs an account id with its current credential. Only the bcrypt
// hash of the password is kept. Logins are replaced wholesale on credential
// updates, never mutated in place.
type Login struct {
	UserID       string
	PasswordHash []byte
}

// NewLogin hashes password and returns the credential record for userID.
func NewLogin(userID, password string) (*Login, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Login{UserID: userID, PasswordHash: hash}, nil
}

// Verify reports whether password matches the stored hash.
func (l *Login) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword(l.PasswordHash, []byte(password)) == nil
}

func (l *Login) clone() *Login {
	hash := make([]byte, len(l.PasswordHash))
	copy(hash, l.PasswordHash)
	return &Login{UserID: l.UserID, PasswordHash: hash}
}

// Post is an immutable, uniquely numbered authored message. The ID comes
// from the IDAllocator before the post enters the log.
type Post struct {
	ID        int64
	Author    string
	Body      string
	CreatedAt time.Time
}

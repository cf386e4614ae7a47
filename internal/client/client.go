// Package client is the programmatic chirp client: one WebSocket
// connection, the logged-in account's local copy, the set of accounts known
// from the last sync, and the local feed. A Client is not safe for
// concurrent use; callers drive it from one goroutine, the way the CLI
// does.
package client

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/chirp/internal/protocol"
	"github.com/gorilla/websocket"
)

type Client struct {
	conn    protocol.Conn
	account protocol.Account
	known   map[string]protocol.Account
	feed    *Feed
}

// Dial connects to url (e.g. "ws://localhost:8080/ws"), performs the
// handshake with login, and returns a client bound to the resolved account.
// A handshake rejection surfaces as a read error: the server closes the
// connection without sending anything.
func Dial(ctx context.Context, url string, login protocol.Login) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	conn := protocol.NewWSConn(ws, 10*time.Second)

	if err := conn.Write(protocol.TypeLogin, login); err != nil {
		conn.Close()
		return nil, err
	}

	env, err := conn.Read()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake rejected: %w", err)
	}
	if env.Type != protocol.TypeAccount {
		conn.Close()
		return nil, fmt.Errorf("unexpected first frame %q", env.Type)
	}

	var account protocol.Account
	if err := env.DecodePayload(&account); err != nil {
		conn.Close()
		return nil, err
	}

	return &Client{
		conn:    conn,
		account: account,
		known:   make(map[string]protocol.Account),
		feed:    NewFeed(),
	}, nil
}

// Account returns the local copy of the logged-in account. Friend and
// ignore mutations made through this client are reflected here immediately,
// without waiting for a sync.
func (c *Client) Account() protocol.Account {
	return c.account
}

// KnownAccounts lists the accounts received from the last sync, sorted by
// user id.
func (c *Client) KnownAccounts() []protocol.Account {
	out := make([]protocol.Account, 0, len(c.known))
	for _, a := range c.known {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Feed returns the local feed.
func (c *Client) Feed() *Feed {
	return c.feed
}

// Post publishes body under the logged-in account. No response.
func (c *Client) Post(body string) error {
	return c.conn.Write(protocol.TypePostMessage, protocol.PostMessage{Body: body})
}

// AddFriend befriends userID on the server and in the local account copy.
func (c *Client) AddFriend(userID string) error {
	if err := c.conn.Write(protocol.TypeAddFriend, protocol.AddFriend{UserID: userID}); err != nil {
		return err
	}
	if !c.account.IsFriend(userID) && userID != c.account.UserID {
		c.account.Friends = append(c.account.Friends, userID)
	}
	return nil
}

// RemoveFriend unfriends userID. The local ignore state is kept, matching
// the server: unfriending never clears ignore entries.
func (c *Client) RemoveFriend(userID string) error {
	if err := c.conn.Write(protocol.TypeRemoveFriend, protocol.RemoveFriend{UserID: userID}); err != nil {
		return err
	}
	c.account.Friends = remove(c.account.Friends, userID)
	return nil
}

// IgnoreFriend hides userID's posts from the rendered feed. Local only:
// ignore state never crosses the wire, and ignoring a non-friend is a
// silent no-op.
func (c *Client) IgnoreFriend(userID string) {
	if !c.account.IsFriend(userID) || c.account.IsIgnoring(userID) {
		return
	}
	c.account.Ignored = append(c.account.Ignored, userID)
}

// UnignoreFriend undoes IgnoreFriend, gated on friendship the same way.
// Posts delivered while ignored become visible again.
func (c *Client) UnignoreFriend(userID string) {
	if !c.account.IsFriend(userID) {
		return
	}
	c.account.Ignored = remove(c.account.Ignored, userID)
}

// UpdateCredentials replaces the account and login records on the server.
// No response; the local account picks up the new id and display name.
func (c *Client) UpdateCredentials(login protocol.Login) error {
	if err := c.conn.Write(protocol.TypeLogin, login); err != nil {
		return err
	}
	c.account.UserID = login.UserID
	c.account.DisplayName = login.DisplayName
	return nil
}

// ValidatePassword asks the server whether login matches its stored
// credential.
func (c *Client) ValidatePassword(login protocol.Login) (bool, error) {
	if err := c.conn.Write(protocol.TypeValidatePassword, protocol.ValidatePassword{Login: login}); err != nil {
		return false, err
	}
	env, err := c.conn.Read()
	if err != nil {
		return false, err
	}
	if env.Type != protocol.TypeValidationResult {
		return false, fmt.Errorf("unexpected frame %q", env.Type)
	}
	var res protocol.ValidationResult
	if err := env.DecodePayload(&res); err != nil {
		return false, err
	}
	return res.Valid, nil
}

// Sync fetches everything new from friends, refreshes the known-accounts
// set, and appends the delivered posts to the local feed. Posts from
// ignored friends are delivered and stored too; they are only skipped when
// rendering. The local account copy is reconciled against the server's
// snapshot, so an optimistic friend entry the server rejected (unknown id)
// is dropped here; the ignore list stays local.
func (c *Client) Sync() ([]protocol.Post, error) {
	if err := c.conn.Write(protocol.TypeSyncRequest, protocol.SyncRequest{}); err != nil {
		return nil, err
	}
	env, err := c.conn.Read()
	if err != nil {
		return nil, err
	}
	if env.Type != protocol.TypeSyncResponse {
		return nil, fmt.Errorf("unexpected frame %q", env.Type)
	}
	var resp protocol.SyncResponse
	if err := env.DecodePayload(&resp); err != nil {
		return nil, err
	}

	c.known = make(map[string]protocol.Account, len(resp.Accounts))
	for _, a := range resp.Accounts {
		c.known[a.UserID] = a
		if a.UserID == c.account.UserID {
			c.account.DisplayName = a.DisplayName
			c.account.Friends = a.Friends
		}
	}
	for _, p := range resp.NewFriendPosts {
		c.feed.Add(p)
	}
	return resp.NewFriendPosts, nil
}

// Logout removes the account from the server and closes the connection.
func (c *Client) Logout() error {
	err := c.conn.Write(protocol.TypeLogout, protocol.Logout{UserID: c.account.UserID})
	if closeErr := c.conn.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Close drops the connection without logging out; the account stays on the
// server.
func (c *Client) Close() error {
	return c.conn.Close()
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

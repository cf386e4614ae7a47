// Package session implements the per-connection message loop. A session is
// created only after the handshake authenticated the connection; it owns the
// client's identity until logout or a transport failure ends it. Every
// session runs in its own goroutine and talks to the shared directory, which
// does its own locking.
package session

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chirp/internal/logging"
	"github.com/dmitrijs2005/chirp/internal/protocol"
	"github.com/dmitrijs2005/chirp/internal/server/directory"
	"github.com/dmitrijs2005/chirp/internal/server/feed"
	"github.com/google/uuid"
)

type Session struct {
	id     string
	userID string
	conn   protocol.Conn
	dir    *directory.Directory
	engine *feed.Engine
	ids    *directory.IDAllocator
	logger logging.Logger
}

// New binds a session to an authenticated account. The account must already
// be resolved (existing or freshly provisioned) by the handshake.
func New(conn protocol.Conn, dir *directory.Directory, engine *feed.Engine, ids *directory.IDAllocator, account *directory.Account, logger logging.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		userID: account.UserID,
		conn:   conn,
		dir:    dir,
		engine: engine,
		ids:    ids,
		logger: logger.With("module", "session", "session", id, "user", account.UserID),
	}
}

// Run sends the resolved account as the first outbound frame, then reads and
// dispatches one message at a time until logout or a transport failure.
// Errors never propagate to the client; they end the session and go to the
// operator log. Run returns when the session is closed.
func (s *Session) Run(ctx context.Context) {
	account, ok := s.dir.FindAccount(s.userID)
	if !ok {
		s.logger.Error(ctx, "account vanished before session start")
		return
	}
	if err := s.conn.Write(protocol.TypeAccount, wireAccount(account)); err != nil {
		s.logger.Warn(ctx, "greeting failed", "error", err)
		return
	}

	s.logger.Info(ctx, "session started")

	for {
		env, err := s.conn.Read()
		if err != nil {
			s.logger.Info(ctx, "session ended", "error", err)
			return
		}

		switch env.Type {
		case protocol.TypeLogin:
			if err := s.updateCredentials(ctx, env); err != nil {
				s.logger.Warn(ctx, "credential update failed", "error", err)
				return
			}

		case protocol.TypeValidatePassword:
			if err := s.validatePassword(ctx, env); err != nil {
				s.logger.Warn(ctx, "password validation failed", "error", err)
				return
			}

		case protocol.TypePostMessage:
			var msg protocol.PostMessage
			if err := env.DecodePayload(&msg); err != nil {
				s.logger.Warn(ctx, "bad post message", "error", err)
				return
			}
			s.dir.AppendPost(&directory.Post{
				ID:        s.ids.Next(),
				Author:    s.userID,
				Body:      msg.Body,
				CreatedAt: time.Now().UTC(),
			})

		case protocol.TypeAddFriend:
			var msg protocol.AddFriend
			if err := env.DecodePayload(&msg); err != nil {
				s.logger.Warn(ctx, "bad add-friend message", "error", err)
				return
			}
			s.dir.Befriend(s.userID, msg.UserID)

		case protocol.TypeRemoveFriend:
			var msg protocol.RemoveFriend
			if err := env.DecodePayload(&msg); err != nil {
				s.logger.Warn(ctx, "bad remove-friend message", "error", err)
				return
			}
			s.dir.Unfriend(s.userID, msg.UserID)

		case protocol.TypeSyncRequest:
			if err := s.sync(ctx); err != nil {
				s.logger.Warn(ctx, "sync response failed", "error", err)
				return
			}

		case protocol.TypeLogout:
			s.logout(ctx)
			return

		default:
			// unrecognized but readable: skip, no response
			s.logger.Debug(ctx, "skipping unknown message", "type", env.Type)
		}
	}
}

// updateCredentials replaces the session's account and login records. The
// directory keeps friendships and the sync cursor across the swap, so a
// rename is invisible to everyone but lookups by the old id.
func (s *Session) updateCredentials(ctx context.Context, env protocol.Envelope) error {
	var msg protocol.Login
	if err := env.DecodePayload(&msg); err != nil {
		return err
	}
	login, err := directory.NewLogin(msg.UserID, msg.Password)
	if err != nil {
		return err
	}
	s.dir.ReplaceCredentials(s.userID, directory.NewAccount(msg.UserID, msg.DisplayName), login)
	if s.userID != msg.UserID {
		s.logger.Info(ctx, "account renamed", "new_user", msg.UserID)
		s.userID = msg.UserID
		s.logger = s.logger.With("user", msg.UserID)
	}
	return nil
}

func (s *Session) validatePassword(ctx context.Context, env protocol.Envelope) error {
	var msg protocol.ValidatePassword
	if err := env.DecodePayload(&msg); err != nil {
		return err
	}
	valid := false
	if login, ok := s.dir.FindLogin(msg.Login.UserID); ok {
		valid = login.Verify(msg.Login.Password)
	}
	return s.conn.Write(protocol.TypeValidationResult, protocol.ValidationResult{Valid: valid})
}

func (s *Session) sync(ctx context.Context) error {
	accounts, posts := s.engine.Sync(s.userID)
	resp := protocol.SyncResponse{
		Accounts:       make([]protocol.Account, 0, len(accounts)),
		NewFriendPosts: make([]protocol.Post, 0, len(posts)),
	}
	for _, a := range accounts {
		resp.Accounts = append(resp.Accounts, wireAccount(a))
	}
	for _, p := range posts {
		resp.NewFriendPosts = append(resp.NewFriendPosts, wirePost(p))
	}
	return s.conn.Write(protocol.TypeSyncResponse, resp)
}

// logout removes the account and its login from the directory entirely.
// Other accounts keep the removed id in their friend sets; lookups by that
// id simply fail from here on.
func (s *Session) logout(ctx context.Context) {
	s.dir.RemoveLogin(s.userID)
	s.dir.RemoveAccount(s.userID)
	s.logger.Info(ctx, "logged out")
}

func wireAccount(a *directory.Account) protocol.Account {
	return protocol.Account{
		UserID:      a.UserID,
		DisplayName: a.DisplayName,
		Friends:     a.FriendIDs(),
		Ignored:     a.IgnoredIDs(),
	}
}

func wirePost(p *directory.Post) protocol.Post {
	return protocol.Post{
		ID:        p.ID,
		Author:    p.Author,
		Body:      p.Body,
		CreatedAt: p.CreatedAt,
	}
}

// Package protocol defines the typed messages exchanged between a chirp
// client and the server, and the framing used to carry them over a
// WebSocket connection. Every frame is a JSON Envelope: a type tag plus the
// message payload. The connection is persistent and ordered, so a client
// that sends a request expecting a response simply reads the next frame.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message type tags. Client → server unless noted.
const (
	// TypeLogin is the handshake message and, after authentication, a
	// credential update for the session's account.
	TypeLogin            = "login"
	TypeValidatePassword = "validate_password"
	TypePostMessage      = "post_message"
	TypeAddFriend        = "add_friend"
	TypeRemoveFriend     = "remove_friend"
	TypeSyncRequest      = "sync_request"
	TypeLogout           = "logout"

	// Server → client.
	TypeAccount          = "account"
	TypeValidationResult = "validation_result"
	TypeSyncResponse     = "sync_response"
)

// Envelope is a single wire frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope wraps payload into an Envelope with the given type tag.
func NewEnvelope(typ string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: typ}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", typ, err)
	}
	return Envelope{Type: typ, Payload: raw}, nil
}

// DecodePayload unmarshals the envelope's payload into v.
func (e Envelope) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("empty %s payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Type, err)
	}
	return nil
}

// Login carries an account id with its credential. The first frame of every
// connection must be a Login; sent again mid-session it replaces the
// session's account and login records.
type Login struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Password    string `json:"password"`
}

type ValidatePassword struct {
	Login Login `json:"login"`
}

type PostMessage struct {
	Body string `json:"body"`
}

type AddFriend struct {
	UserID string `json:"user_id"`
}

type RemoveFriend struct {
	UserID string `json:"user_id"`
}

type SyncRequest struct{}

type Logout struct {
	UserID string `json:"user_id"`
}

// Account is the wire form of an account. Passwords never travel here.
type Account struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name,omitempty"`
	Friends     []string `json:"friends,omitempty"`
	Ignored     []string `json:"ignored,omitempty"`
}

// IsFriend reports whether id is in the account's friend set.
func (a Account) IsFriend(id string) bool {
	for _, f := range a.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// IsIgnoring reports whether id is in the account's ignore set.
func (a Account) IsIgnoring(id string) bool {
	for _, f := range a.Ignored {
		if f == id {
			return true
		}
	}
	return false
}

// Post is the wire form of a post.
type Post struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type ValidationResult struct {
	Valid bool `json:"valid"`
}

type SyncResponse struct {
	Accounts       []Account `json:"accounts"`
	NewFriendPosts []Post    `json:"new_friend_posts"`
}

// Package common defines shared constants and sentinel errors used across
// client and server layers of chirp. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Handshake errors. A failed handshake closes the connection before a
	// session exists; neither value ever reaches a client as a payload.
	ErrWrongPassword = errors.New("wrong password")
	ErrBadHandshake  = errors.New("bad handshake")
)

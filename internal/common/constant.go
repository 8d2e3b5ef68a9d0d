// Package common contains shared constants and sentinel errors used across
// the petition service components.
package common

// AuthorizationHeaderName is the HTTP header carrying the session token.
const AuthorizationHeaderName = "X-Authorization"

// SessionTokenBytes is the number of random bytes in a session token. Tokens
// are hex encoded, so the resulting string is twice as long.
const SessionTokenBytes = 16

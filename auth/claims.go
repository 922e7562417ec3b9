package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenKindLocal marks tokens minted by this server's own TokenService.
// The federated verifier never accepts it and the TokenService never
// accepts tokens without it, so the two token populations stay disjoint
// even though clients treat both as opaque bearer strings.
const TokenKindLocal = "local"

// JWTClaims is the payload of a server-issued bearer token.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID  int64  `json:"uid,omitempty"`
	Kind string `json:"kind,omitempty"`
}

// Email returns the subject claim. Server tokens use the account email as
// the JWT subject.
func (c *JWTClaims) Email() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the internal numeric user id.
func (c *JWTClaims) UserID() int64 {
	return c.UID
}

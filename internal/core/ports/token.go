package ports

import "github.com/globely/globely-api/internal/core/domain"

// TokenIssuer mints bearer tokens for an authenticated identity.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// TokenVerifier resolves a bearer token. A false result is the only failure
// signal: bad signature, malformed and expired tokens all look the same.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, bool)
}

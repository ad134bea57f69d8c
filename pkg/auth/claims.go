package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
)

// AccessTokenPayload captures the data an identity service puts in a token.
type AccessTokenPayload struct {
	AccountID uuid.UUID
	Role      enums.AccountRole
	JTI       string
}

// AccessTokenClaims is the verified token body. The account id travels in
// the registered sub claim.
type AccessTokenClaims struct {
	Role enums.AccountRole `json:"role"`
	jwt.RegisteredClaims
}

// AccountID parses the sub claim.
func (c AccessTokenClaims) AccountID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

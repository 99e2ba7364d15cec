package auth

import "github.com/golang-jwt/jwt/v5"

// Authenticator verifies identity tokens minted by the external auth
// provider. The provider owns signup and credentials; this service only
// needs the stable user id carried in the token's subject claim.
type Authenticator interface {
	GenerateToken(userID int64) (string, error)
	ValidateToken(token string) (*jwt.Token, error)
}

// Package auth verifies the bearer tokens issued by the property-management
// identity service and turns them into domain actors.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vbonduro/housecheck/internal/domain"
)

var ErrMissingSubject = errors.New("token has no subject")

// Claims carries the caller's role alongside the registered claims. The
// user ID is the subject.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Actor returns the caller described by c.
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{UserID: c.Subject, Role: domain.Role(c.Role)}
}

// ParseToken verifies an HS256 token signed with secret. An empty issuer
// disables the issuer check.
func ParseToken(secret []byte, issuer, tokenString string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, options...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

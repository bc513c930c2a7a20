package identity

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"ccsledger/core/ledger"
)

// CallerClaims is the credential payload the enrollment layer signs into each
// caller's bearer token: who they are and their attested role attributes.
type CallerClaims struct {
	Org        string `json:"org"`
	Department string `json:"department"`
	jwt.RegisteredClaims
}

// TokenVerifier parses and verifies caller bearer tokens (HS256, shared
// secret with the enrollment layer).
type TokenVerifier struct {
	Secret []byte
}

// VerifyCallerToken checks the token signature and extracts the caller's
// organization and department claims into a CallerContext.
func (v *TokenVerifier) VerifyCallerToken(tokenString string) (ledger.CallerContext, error) {
	var claims CallerClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.Secret, nil
	})
	if err != nil {
		return ledger.CallerContext{}, err
	}
	if !token.Valid {
		return ledger.CallerContext{}, errors.New("invalid caller token")
	}
	if claims.Org == "" || claims.Department == "" {
		return ledger.CallerContext{}, errors.New("caller token missing org or department claim")
	}
	return ledger.CallerContext{
		ID:         claims.Subject,
		MSPID:      claims.Org,
		Department: claims.Department,
	}, nil
}

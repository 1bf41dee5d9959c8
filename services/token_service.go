package services

import (
	"fmt"

	"backend/apperror"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies the stateless session tokens the sync
// endpoints run under. There is no session store and no revocation list:
// validity is purely cryptographic.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
}

// TokenClaims is the decoded claim set of a verified token.
type TokenClaims struct {
	UserID uint
	Email  string
	// Set is the credential-digest snapshot taken at issue time. A later
	// password change does not invalidate tokens already carrying the old
	// snapshot.
	Set string
}

func NewTokenService(secret, algorithm string) (*TokenService, error) {
	if secret == "" {
		return nil, apperror.Configuration("JWT_SECRET not configured")
	}
	if algorithm == "" {
		algorithm = "HS256"
	}
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, apperror.Configuration(fmt.Sprintf("unsupported JWT algorithm %q", algorithm))
	}
	return &TokenService{secret: []byte(secret), method: method}, nil
}

// Issue builds header.payload.signature over the shared secret. No exp
// claim is written; old clients hold tokens without one and the verifier
// must keep accepting those.
func (s *TokenService) Issue(userID uint, email, passwordDigest string) (string, error) {
	token := jwt.NewWithClaims(s.method, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"set":     passwordDigest,
		"iat":     jwt.NewNumericDate(timeNow()).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify checks the signature and, only when present, the exp claim.
func (s *TokenService) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperror.Unauthorized("invalid claims")
	}

	out := &TokenClaims{}
	if v, ok := claims["user_id"].(float64); ok {
		out.UserID = uint(v)
	}
	out.Email, _ = claims["email"].(string)
	out.Set, _ = claims["set"].(string)
	if out.UserID == 0 {
		return nil, apperror.Unauthorized("user_id claim missing")
	}
	return out, nil
}

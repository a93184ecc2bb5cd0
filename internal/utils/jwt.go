package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and sent in the Authorization header when
// calling protected endpoints.
type AccessToken struct {
	Token string	// the serialized JWT string
	Exp	  time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  Beside the
// standard exp/iat claims the token carries the user's id, name and
// email so handlers can act without an extra lookup.
func NewAccessToken(secret, userID, name, email string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"id":	 userID,
		"name":	 name,
		"email": email,
		"exp":	 exp.Unix(),
		"iat":	 now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewEmailToken signs a single-purpose token embedded in email
// verification links.  The "purpose" claim keeps it from doubling as an
// access token.
func NewEmailToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"id":	   userID,
		"purpose": "email_verification",
		"exp":	   now.Add(ttl).Unix(),
		"iat":	   now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseEmailToken validates a verification token and returns the user id
// it was issued for.
func ParseEmailToken(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", errors.New("invalid verification token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	if purpose, _ := claims["purpose"].(string); purpose != "email_verification" {
		return "", errors.New("not a verification token")
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", errors.New("missing user id")
	}
	return id, nil
}

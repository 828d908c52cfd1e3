// Package jwt issues and verifies the bearer tokens that identify API users.
package jwt

import (
	"errors"
	"strconv"
	"strings"
	"time"

	go_jwt "github.com/golang-jwt/jwt/v5"
)

// AuthorizationType is a prefix for the signed JWT.
const AuthorizationType = "Bearer"

var (
	ErrIncorrectSigningMethod = errors.New("signing method not HS256")
	ErrMalformedHeader        = errors.New("malformed header value")
	ErrInvalidSubject         = errors.New("token subject is not a user id")
)

// New returns a signed token whose subject is userID.
func New(userID uint, issuer string, signingKey []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := go_jwt.NewWithClaims(go_jwt.SigningMethodHS256, go_jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatUint(uint64(userID), 10),
		NotBefore: go_jwt.NewNumericDate(now),
		IssuedAt:  go_jwt.NewNumericDate(now),
		ExpiresAt: go_jwt.NewNumericDate(now.Add(ttl)),
	})
	return tok.SignedString(signingKey)
}

// Decode verifies tokenStr and returns the parsed token.
func Decode(tokenStr string, signingKey []byte, issuer string) (*go_jwt.Token, error) {
	opts := []go_jwt.ParserOption{go_jwt.WithValidMethods([]string{go_jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, go_jwt.WithIssuer(issuer))
	}
	return go_jwt.Parse(tokenStr,
		func(token *go_jwt.Token) (any, error) {
			if _, ok := token.Method.(*go_jwt.SigningMethodHMAC); !ok {
				return nil, ErrIncorrectSigningMethod
			}
			return signingKey, nil
		}, opts...)
}

// UserID extracts the numeric subject of a decoded token.
func UserID(token *go_jwt.Token) (uint, error) {
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidSubject
	}
	return uint(id), nil
}

// SignedStringToHeaderValue produces the value for the Authorization header.
func SignedStringToHeaderValue(signedString string) string {
	return AuthorizationType + " " + signedString
}

func HeaderValueToSignedString(headerValue string) (string, error) {
	authorizationType, signedString, found := strings.Cut(headerValue, " ")
	if !found || authorizationType != AuthorizationType || len(signedString) == 0 {
		return "", ErrMalformedHeader
	}
	return signedString, nil
}

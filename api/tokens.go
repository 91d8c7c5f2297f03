package main

import (
	"errors"
	"strconv"
	"time"

	"eventdesk/data/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "eventdesk"

type tokenClaims struct {
	UserID   int64  `json:"userId"`
	UserType string `json:"userType"`
	jwt.RegisteredClaims
}

// tokenMaker issues and verifies HS256 access tokens.
type tokenMaker struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenMaker(secret string, ttl time.Duration) *tokenMaker {
	return &tokenMaker{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (tm *tokenMaker) Generate(user models.AuthResult) (string, time.Time, error) {
	issued := tm.now()
	expires := issued.Add(tm.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID:   user.UserID,
		UserType: user.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(user.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (tm *tokenMaker) Verify(raw string) (models.AuthResult, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return models.AuthResult{}, err
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return models.AuthResult{}, errors.New("invalid token")
	}

	return models.AuthResult{UserID: claims.UserID, UserType: claims.UserType}, nil
}

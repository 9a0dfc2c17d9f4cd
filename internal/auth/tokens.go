package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	internal_errors "github.com/agora-dev/agora/internal/errors"
	"github.com/agora-dev/agora/internal/logger"
	"github.com/agora-dev/agora/internal/session"
)

// Tokens issues and decodes the identity tokens of the provider. Custom
// claims (admin) travel inside the token, so reading the claim set needs no
// round trip.
type Tokens struct {
	secretKey string
	ttl       time.Duration
}

func NewTokens(secretKey string, ttl time.Duration) *Tokens {
	return &Tokens{secretKey: secretKey, ttl: ttl}
}

func (t *Tokens) Issue(user User) (string, error) {
	claims := jwt.MapClaims{}
	claims["uid"] = user.Id
	claims["email"] = user.Email
	claims["name"] = user.Name
	claims["admin"] = user.Admin
	claims["exp"] = time.Now().Add(t.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(t.secretKey))
	if err != nil {
		logger.Log.Error("signing token", "error", err)
		return "", errors.New("can't create token")
	}

	return tokenString, nil
}

// Fetch implements session.ClaimsFetcher.
func (t *Tokens) Fetch(_ context.Context, tokenStr string) (session.Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &internal_errors.ErrorWithStatusCode{Message: fmt.Sprintf("Unexpected signing method: %v", token.Header["alg"]), StatusCode: http.StatusUnauthorized}
		}
		return []byte(t.secretKey), nil
	})
	if err != nil {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token signature", StatusCode: http.StatusUnauthorized}
	}
	if !token.Valid {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid claims", StatusCode: http.StatusUnauthorized}
	}
	return session.Claims(claims), nil
}

package devserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MuhamedUsman/letstore/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type userCtxKey struct{}

func withUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

func userFrom(ctx context.Context) domain.User {
	u, _ := ctx.Value(userCtxKey{}).(domain.User)
	return u
}

func (s *Server) issueToken(u domain.User) (string, error) {
	now := s.now()
	c := claims{
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return tok, nil
}

// verifyToken returns the user the token was issued to.
func (s *Server) verifyToken(raw string) (domain.User, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return domain.User{}, fmt.Errorf("parsing token: %w", err)
	}
	u, ok := s.store.user(c.Subject)
	if !ok {
		return domain.User{}, errors.New("token subject does not exist")
	}
	return u, nil
}

package services

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

type contextKey string

const UserContextKey contextKey = "user"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNotAdmin     = errors.New("user is not authorized as admin")
)

// User is the identity slice this service cares about. Accounts live in the
// hosted auth provider; tokens are verified here, never minted.
type User struct {
	ID   string
	Role string
}

type AuthService interface {
	VerifyToken(token string) (*User, error)
	VerifyTokenAdmin(token string) (*User, error)
}

type authService struct {
	jwtSecret string
}

func NewAuthService(jwtSecret string) AuthService {
	return &authService{jwtSecret: jwtSecret}
}

func (s *authService) VerifyToken(tokenString string) (*User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	rawID, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	// Provider user ids are UUIDs; reject anything else up front.
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	role, _ := claims["role"].(string)

	return &User{ID: userID.String(), Role: role}, nil
}

func (s *authService) VerifyTokenAdmin(tokenString string) (*User, error) {
	user, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	if user.Role != "admin" {
		return nil, ErrNotAdmin
	}
	return user, nil
}

// Helper function to add user to context
func WithUserContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// Helper function to get user from context
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(UserContextKey).(*User)
	return user, ok
}

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/golang-jwt/jwt/v5"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithPermissions(ctx context.Context, userID int64) (*internal.User, error)
}

type RepositoryAPI interface {
	GetCredentials(ctx context.Context, login string) (userID int64, passwordHash string, err error)
	GetUserWithPermissions(ctx context.Context, userID int64) (*internal.User, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID int64, login string) (string, error)
	GenerateRefreshToken(userID int64, login string) (string, error)
	ValidateToken(tokenString string, tokenType TokenType) (*Claims, error)
}

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID    int64     `json:"uid"`
	Login     string    `json:"login"`
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var ErrUserNotFound = errors.New("user not found")

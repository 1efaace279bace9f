package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrTokenExpired is returned when a bearer token is past its expiry
var ErrTokenExpired = errors.New("token expired")

// ErrInvalidCredentials is returned when login credentials do not match
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminClaims are the JWT claims carried by the administrative bearer token
type AdminClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies administrative bearer tokens. The only
// principal is the configured admin; there is no user database behind
// settlement operations.
type Authenticator struct {
	secret            []byte
	tokenTTL          time.Duration
	adminEmail        string
	adminPasswordHash string
}

// NewAuthenticator creates an authenticator for the configured admin
// principal
func NewAuthenticator(secret string, tokenTTL time.Duration, adminEmail, adminPasswordHash string) *Authenticator {
	return &Authenticator{
		secret:            []byte(secret),
		tokenTTL:          tokenTTL,
		adminEmail:        adminEmail,
		adminPasswordHash: adminPasswordHash,
	}
}

// Login verifies the credentials and issues a signed bearer token
func (a *Authenticator) Login(email, password string) (string, error) {
	if email != a.adminEmail {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.adminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := AdminClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
			Issuer:    "trooc-settlement",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a bearer token and returns its claims
func (a *Authenticator) ParseToken(tokenStr string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

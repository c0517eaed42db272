package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leaftown/property-api/internal/config"
	"github.com/leaftown/property-api/internal/domain"
)

// Claims holds the JWT payload fields. Subject carries the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Provider signs and verifies RS256 JWTs for both access and refresh credentials.
// Access tokens are stateless; refresh tokens are additionally checked against
// the value stored on the user record by the auth service.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Provider{
		privateKey: privKey,
		publicKey:  pubKey,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

// SignAccess issues a short-lived access token with claims {sub, role, iat, exp}.
func (p *Provider) SignAccess(userID, role string) (string, error) {
	return p.sign(userID, role, p.accessTTL)
}

// SignRefresh issues a long-lived refresh token with the same claim shape.
func (p *Provider) SignRefresh(userID, role string) (string, error) {
	return p.sign(userID, role, p.refreshTTL)
}

func (p *Provider) sign(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

// Verify checks signature and expiry. Expiry is reported as domain.ErrExpiredToken
// with the parsed claims still returned, so callers can read the expiry timestamp
// and prompt a refresh instead of a re-login. Any other failure (bad signature,
// malformed token, wrong algorithm) is domain.ErrInvalidToken.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && token != nil {
			if claims, ok := token.Claims.(*Claims); ok {
				return claims, fmt.Errorf("token expired: %w", domain.ErrExpiredToken)
			}
		}
		return nil, fmt.Errorf("verify token: %w", domain.ErrInvalidToken)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims: %w", domain.ErrInvalidToken)
	}
	return claims, nil
}

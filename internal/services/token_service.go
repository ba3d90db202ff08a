package services

import (
	"context"
	"fmt"
	"time"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

type TokenService struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    RevocationStore
	now        func() time.Time
}

func NewTokenService(secretKey string, accessTTL, refreshTTL time.Duration, revoked RevocationStore) *TokenService {
	return &TokenService{
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    revoked,
		now:        time.Now,
	}
}

func (s *TokenService) Issue(userID uuid.UUID) (*TokenPair, error) {
	access, err := s.sign(userID, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(userID, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) sign(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	issuedAt := s.now().UTC()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// Verify validates signature, expiry and revocation of either token type.
func (s *TokenService) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, helpers.WrapError(helpers.KindUnauthorized, "Token is invalid or expired", err)
	}

	if claims.TokenType != TokenTypeAccess && claims.TokenType != TokenTypeRefresh {
		return nil, helpers.NewError(helpers.KindUnauthorized, "Token is invalid or expired")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, helpers.WrapError(helpers.KindUnauthorized, "Token is invalid or expired", err)
	}

	if claims.TokenType == TokenTypeRefresh {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, helpers.NewError(helpers.KindUnauthorized, "Token is blacklisted")
		}
	}

	return claims, nil
}

// VerifyAccess accepts only access tokens.
func (s *TokenService) VerifyAccess(ctx context.Context, tokenStr string) (*Claims, error) {
	return s.verifyType(ctx, tokenStr, TokenTypeAccess)
}

func (s *TokenService) verifyType(ctx context.Context, tokenStr, tokenType string) (*Claims, error) {
	claims, err := s.Verify(ctx, tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, helpers.NewError(helpers.KindUnauthorized, "Token has wrong type")
	}
	return claims, nil
}

// Refresh exchanges a live refresh token for a new access token.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.verifyType(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	userID, _ := claims.UserID()
	return s.sign(userID, TokenTypeAccess, s.accessTTL)
}

// Invalidate revokes a refresh token until its natural expiry.
func (s *TokenService) Invalidate(ctx context.Context, refreshToken string) error {
	claims, err := s.verifyType(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return err
	}
	userID, _ := claims.UserID()
	if err := s.revoked.Revoke(ctx, claims.ID, userID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

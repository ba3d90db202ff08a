package services

import (
	"context"
	"testing"
	"time"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens(t *testing.T) *TokenService {
	return NewTokenService("test-secret", time.Hour, 7*24*time.Hour, NewGormRevocationStore(newTestDB(t)))
}

func TestTokenIssueAndVerify(t *testing.T) {
	tokens := newTestTokens(t)
	userID := uuid.New()

	pair, err := tokens.Issue(userID)
	require.NoError(t, err)

	access, err := tokens.VerifyAccess(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	id, err := access.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, id)

	refresh, err := tokens.Verify(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestTokenVerifyRejectsTampered(t *testing.T) {
	tokens := newTestTokens(t)
	other := NewTokenService("other-secret", time.Hour, time.Hour, NewGormRevocationStore(newTestDB(t)))

	pair, err := other.Issue(uuid.New())
	require.NoError(t, err)

	_, err = tokens.Verify(context.Background(), pair.AccessToken)
	assert.Equal(t, helpers.KindUnauthorized, helpers.KindOf(err))

	_, err = tokens.Verify(context.Background(), "not-a-token")
	assert.Equal(t, helpers.KindUnauthorized, helpers.KindOf(err))
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	tokens := newTestTokens(t)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	pair, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.VerifyAccess(context.Background(), pair.AccessToken)
	assert.Equal(t, helpers.KindUnauthorized, helpers.KindOf(err))
}

func TestTokenRefresh(t *testing.T) {
	tokens := newTestTokens(t)
	userID := uuid.New()

	pair, err := tokens.Issue(userID)
	require.NoError(t, err)

	access, err := tokens.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	claims, err := tokens.VerifyAccess(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)

	_, err = tokens.Refresh(context.Background(), pair.AccessToken)
	assert.Equal(t, helpers.KindUnauthorized, helpers.KindOf(err), "access tokens cannot refresh")
}

func TestTokenInvalidate(t *testing.T) {
	tokens := newTestTokens(t)
	ctx := context.Background()

	pair, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	require.NoError(t, tokens.Invalidate(ctx, pair.RefreshToken))

	_, err = tokens.Verify(ctx, pair.RefreshToken)
	assert.Equal(t, helpers.KindUnauthorized, helpers.KindOf(err))
	_, err = tokens.Refresh(ctx, pair.RefreshToken)
	assert.Equal(t, helpers.KindUnauthorized, helpers.KindOf(err))
	assert.Equal(t, helpers.KindUnauthorized, helpers.KindOf(tokens.Invalidate(ctx, pair.RefreshToken)))

	_, err = tokens.VerifyAccess(ctx, pair.AccessToken)
	assert.NoError(t, err, "access token lives until expiry")
}

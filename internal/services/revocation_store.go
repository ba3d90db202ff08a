package services

import (
	"context"
	"errors"
	"time"

	"github.com/farellandr/hydrovibe/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevocationStore remembers revoked refresh token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, userID uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type GormRevocationStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormRevocationStore(db *gorm.DB) *GormRevocationStore {
	return &GormRevocationStore{db: db, now: time.Now}
}

func (s *GormRevocationStore) Revoke(ctx context.Context, jti string, userID uuid.UUID, expiresAt time.Time) error {
	row := models.RevokedToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: s.now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&row).Error
}

func (s *GormRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeExpired deletes rows whose tokens could no longer verify anyway.
func (s *GormRevocationStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now().UTC()).
		Delete(&models.RevokedToken{})
	return result.RowsAffected, result.Error
}

type RedisRevocationStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, prefix: "revoked_refresh:", now: time.Now}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, userID uuid.UUID, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.prefix+jti, userID.String(), ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.client.Get(ctx, s.prefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

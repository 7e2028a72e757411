package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Marketplace/internal/models"
)

// Denylist remembers revoked token IDs until the token would have expired.
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type RedisDenylist struct {
	rdb *redis.Client
}

func NewRedisDenylist(rdb *redis.Client) *RedisDenylist {
	return &RedisDenylist{rdb: rdb}
}

func redisKey(jti string) string {
	return "revoked_token:" + jti
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := d.rdb.Set(ctx, redisKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := d.rdb.Get(ctx, redisKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return true, nil
}

// DBDenylist stores revocations in the revoked_tokens table.
type DBDenylist struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDBDenylist(db *gorm.DB) *DBDenylist {
	return &DBDenylist{db: db, now: time.Now}
}

func (d *DBDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	db := d.db.WithContext(ctx)
	// expired rows can never match again
	if err := db.Where("expires_at <= ?", d.now()).Delete(&models.RevokedToken{}).Error; err != nil {
		return fmt.Errorf("purge revoked tokens: %w", err)
	}
	row := models.RevokedToken{JTI: jti, ExpiresAt: until}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (d *DBDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("jti = ? AND expires_at > ?", jti, d.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return count > 0, nil
}

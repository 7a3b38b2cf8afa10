package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bitwise74/blog/internal/model"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrTokenUsed is returned when a reset token has already been consumed
var ErrTokenUsed = errors.New("token already used")

// UsedTokens remembers which password reset tokens were consumed. MarkUsed
// must be atomic: out of two concurrent calls for the same id only one
// succeeds. Release undoes MarkUsed when the reset could not be completed
type UsedTokens interface {
	MarkUsed(ctx context.Context, id string, userID uint, expiresAt time.Time) error
	IsUsed(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// DBUsedTokens keeps consumed tokens in the used_reset_tokens table
type DBUsedTokens struct {
	db *gorm.DB
}

func NewDBUsedTokens(db *gorm.DB) *DBUsedTokens {
	return &DBUsedTokens{db: db}
}

func (s *DBUsedTokens) MarkUsed(ctx context.Context, id string, userID uint, expiresAt time.Time) error {
	err := s.db.WithContext(ctx).Create(&model.UsedResetToken{
		ID:        id,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
	}).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrTokenUsed
		}

		return fmt.Errorf("failed to mark token as used, %w", err)
	}

	return nil
}

func (s *DBUsedTokens) IsUsed(ctx context.Context, id string) (bool, error) {
	var n int64

	err := s.db.WithContext(ctx).
		Model(&model.UsedResetToken{}).
		Where("id = ?", id).
		Count(&n).
		Error
	if err != nil {
		return false, fmt.Errorf("failed to look up token, %w", err)
	}

	return n > 0, nil
}

func (s *DBUsedTokens) Release(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&model.UsedResetToken{ID: id}).Error; err != nil {
		return fmt.Errorf("failed to release token, %w", err)
	}

	return nil
}

// PurgeExpired deletes rows of tokens that expired before now. Their
// signature check fails on its own from that point on
func (s *DBUsedTokens) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", now.UTC()).
		Delete(&model.UsedResetToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge used tokens, %w", res.Error)
	}

	return res.RowsAffected, nil
}

const usedTokenPrefix = "blog:used_reset_token:"

// RedisUsedTokens keeps consumed tokens as keys that expire together with
// the token itself
type RedisUsedTokens struct {
	c   *redis.Client
	now func() time.Time
}

func NewRedisUsedTokens(c *redis.Client) *RedisUsedTokens {
	return &RedisUsedTokens{c: c, now: time.Now}
}

func (s *RedisUsedTokens) MarkUsed(ctx context.Context, id string, userID uint, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}

	ok, err := s.c.SetNX(ctx, usedTokenPrefix+id, strconv.FormatUint(uint64(userID), 10), ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to mark token as used, %w", err)
	}

	if !ok {
		return ErrTokenUsed
	}

	return nil
}

func (s *RedisUsedTokens) IsUsed(ctx context.Context, id string) (bool, error) {
	n, err := s.c.Exists(ctx, usedTokenPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up token, %w", err)
	}

	return n > 0, nil
}

func (s *RedisUsedTokens) Release(ctx context.Context, id string) error {
	if err := s.c.Del(ctx, usedTokenPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to release token, %w", err)
	}

	return nil
}

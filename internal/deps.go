package internal

import (
	"errors"
	"fmt"

	"bitwise74/blog/internal/service"
	"bitwise74/blog/internal/store"
	"bitwise74/blog/pkg/security"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps holds everything the handlers need. It's built once at startup and
// handed to every route
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client // nil unless redis.url is set
	Users       *store.UserStore
	Posts       *store.PostStore
	UsedTokens  store.UsedTokens
	Argon       *security.ArgonHash
	Sessions    *security.Sessions
	ResetTokens *security.ResetTokens
	Mail        *service.MailQueue
	Avatars     *service.Avatars
}

// Close releases the redis client and the database pool
func (d *Deps) Close() error {
	var errs []error

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client, %w", err))
		}
	}

	if d.DB != nil {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.Close()
		}

		if err != nil {
			errs = append(errs, fmt.Errorf("failed to close database, %w", err))
		}
	}

	return errors.Join(errs...)
}

package app

import (
	"context"
	"fmt"

	"bitwise74/blog/aws"
	"bitwise74/blog/db"
	"bitwise74/blog/internal"
	"bitwise74/blog/internal/service"
	"bitwise74/blog/internal/store"
	"bitwise74/blog/pkg/security"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewDeps connects to everything configured and builds the dependencies
// shared by all handlers. Background workers are not started
func NewDeps(ctx context.Context) (*internal.Deps, error) {
	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	secret := viper.GetString("security.secret")

	d := &internal.Deps{
		DB:          database,
		Users:       store.NewUserStore(database),
		Posts:       store.NewPostStore(database),
		Argon:       security.New(),
		Sessions:    security.NewSessions(secret),
		ResetTokens: security.NewResetTokens(secret),
		Mail: service.NewMailQueue(
			service.NewSMTPMailer(),
			viper.GetInt("mail.workers"),
			viper.GetInt("mail.queue_size"),
		),
	}

	if url := viper.GetString("redis.url"); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url, %w", err)
		}

		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis, %w", err)
		}

		zap.L().Debug("Connected to redis", zap.String("addr", opts.Addr))

		d.Redis = client
		d.UsedTokens = store.NewRedisUsedTokens(client)
	} else {
		d.UsedTokens = store.NewDBUsedTokens(database)
	}

	avatars, err := newAvatarStore(ctx)
	if err != nil {
		return nil, err
	}
	d.Avatars = service.NewAvatars(avatars)

	return d, nil
}

func newAvatarStore(ctx context.Context) (service.AvatarStore, error) {
	if viper.GetString("storage.type") == "s3" {
		s3, err := aws.NewS3(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		return service.NewS3AvatarStore(s3, viper.GetString("storage.public_url")), nil
	}

	local, err := service.NewLocalAvatarStore(viper.GetString("storage.local_path"))
	if err != nil {
		return nil, err
	}

	return local, nil
}

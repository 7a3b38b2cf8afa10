// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	MigrateOnly = pflag.Bool("migrate-only", false, "Migrates the database and exits")

	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"s3", "local"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	if !pflag.Parsed() {
		pflag.Parse()
	}
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	bindEnvs()
	SetDefaults()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		fmt.Println("[WARNING]: config.toml not found, using environment variables and defaults")
	}

	if v.GetString("security.secret") == "" {
		fmt.Println("WARNING: You haven't set a secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if err := Validate(); err != nil {
		return err
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

func bindEnvs() {
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.domain", "HOST_DOMAIN")
	v.BindEnv("host.cors", "HOST_CORS")

	v.BindEnv("host.ssl.enabled", "HOST_SSL_ENABLED")
	v.BindEnv("host.ssl.certificate_path", "HOST_SSL_CERTIFICATE_PATH")
	v.BindEnv("host.ssl.certificate_key_path", "HOST_SSL_CERTIFICATE_KEY_PATH")

	v.BindEnv("security.secret", "SECURITY_SECRET", "SECRET_KEY")
	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")

	v.BindEnv("database.url", "DATABASE_URL", "SQLALCHEMY_DATABASE_URI")
	v.BindEnv("redis.url", "REDIS_URL")

	v.BindEnv("mail.host", "MAIL_HOST")
	v.BindEnv("mail.port", "MAIL_PORT")
	v.BindEnv("mail.username", "MAIL_USERNAME", "EMAIL_USER")
	v.BindEnv("mail.password", "MAIL_PASSWORD", "EMAIL_PASS")
	v.BindEnv("mail.sender_address", "MAIL_SENDER_ADDRESS")
	v.BindEnv("mail.workers", "MAIL_WORKERS")
	v.BindEnv("mail.queue_size", "MAIL_QUEUE_SIZE")

	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.local_path", "STORAGE_LOCAL_PATH")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")

	v.BindEnv("aws.access_key", "AWS_ACCESS_KEY")
	v.BindEnv("aws.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.bucket", "AWS_BUCKET")
	v.BindEnv("aws.endpoint", "AWS_ENDPOINT")

	v.BindEnv("upload.max_size", "UPLOAD_MAX_SIZE")

	v.BindEnv("cloudflare.turnstile.enabled", "CLOUDFLARE_TURNSTILE_ENABLED")
	v.BindEnv("cloudflare.turnstile.site_key", "CLOUDFLARE_TURNSTILE_SITE_KEY")
	v.BindEnv("cloudflare.turnstile.secret_token", "CLOUDFLARE_TURNSTILE_SECRET_TOKEN")
}

// SetDefaults registers the default value of every known key
func SetDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost:8080")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("security.rate_limit", 5)

	v.SetDefault("database.url", "database.db")

	v.SetDefault("mail.host", "smtp.googlemail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.workers", 2)
	v.SetDefault("mail.queue_size", 100)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "static/profile_pics")

	v.SetDefault("upload.max_size", 5)

	v.SetDefault("cloudflare.turnstile.enabled", false)
}

// Validate checks the loaded configuration and reports the first problem
func Validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetInt("mail.workers") <= 0 {
		return errors.New("mail.workers must be bigger than 0")
	}

	if v.GetString("mail.sender_address") == "" {
		if v.GetString("mail.username") == "" {
			zap.L().Warn("No mail.sender_address or mail.username set, password reset emails can't be delivered")
		}
	}

	storage := v.GetString("storage.type")
	if !slices.Contains(validStorageTypes, storage) {
		return errors.New("invalid storage type provided")
	}

	switch storage {
	case "s3":
		if v.GetString("aws.access_key") == "" {
			return errors.New("aws access key can't be empty")
		}
		if v.GetString("aws.secret_access_key") == "" {
			return errors.New("aws secret access key can't be empty")
		}
		if v.GetString("aws.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("aws.region") == "" && v.GetString("aws.endpoint") == "" {
			return errors.New("either aws.region or aws.endpoint must be set")
		}
		if v.GetString("storage.public_url") == "" {
			return errors.New("storage.public_url is required when avatars are stored in a bucket")
		}
	case "local":
		if v.GetString("storage.local_path") == "" {
			return errors.New("storage.local_path can't be empty")
		}
	}

	if !v.GetBool("cloudflare.turnstile.enabled") {
		fmt.Println("[WARNING]: Cloudflare's turnstile is disabled. Registration and password resets won't be guarded against bots")
	} else {
		if v.GetString("cloudflare.turnstile.secret_token") == "" {
			return errors.New("turnstile secret token is missing")
		}
	}

	return nil
}

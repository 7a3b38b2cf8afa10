package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitwise74/blog/app"
	"bitwise74/blog/config"
	"bitwise74/blog/db"
	"bitwise74/blog/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	if err := app.MakeLogger(viper.GetString("app.log_level")); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	if *config.MigrateOnly {
		if _, err := db.New(); err != nil {
			zap.L().Fatal("Failed to migrate database", zap.Error(err))
		}

		zap.L().Info("Database migrated")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := app.NewDeps(ctx)
	if err != nil {
		zap.L().Fatal("Failed to initialize dependencies", zap.Error(err))
	}

	router, err := app.NewRouter(d)
	if err != nil {
		zap.L().Fatal("Failed to initialize router", zap.Error(err))
	}

	d.Mail.StartWorkerPool()

	// Used tokens kept in redis expire on their own
	if p, ok := d.UsedTokens.(service.Purger); ok {
		go service.TokenCleanup(ctx, time.Hour, p)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", viper.GetInt("host.port")),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr))

		var err error
		if viper.GetBool("host.ssl.enabled") {
			err = srv.ListenAndServeTLS(
				viper.GetString("host.ssl.certificate_path"),
				viper.GetString("host.ssl.certificate_key_path"),
			)
		} else {
			err = srv.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed to shut down server", zap.Error(err))
	}

	d.Mail.Shutdown()

	if err := d.Close(); err != nil {
		zap.L().Error("Failed to release resources", zap.Error(err))
	}
}

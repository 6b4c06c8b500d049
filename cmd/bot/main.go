// Точка входа платформы «Спасибо»: Telegram-бот, HTTP API и планировщик.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"thanks-bot/internal/app"
	"thanks-bot/internal/config"
)

func main() {
	// .env нужен только для локальной разработки
	if err := godotenv.Load(); err != nil {
		log.Debug(".env не найден, используем переменные окружения")
	}

	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Ошибка загрузки конфигурации")
	}

	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Ошибка инициализации приложения")
	}
	defer application.DB.Close()
	defer application.Bot.Close()

	if cfg.CronEnabled {
		application.Scheduler.Start(ctx)
		defer application.Scheduler.Stop()
	} else {
		log.Info("Внутренний cron отключён, задачи запускаются внешним планировщиком")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           application.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("HTTP-сервер слушает %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Ошибка HTTP-сервера")
		}
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infof("Получен сигнал %v, завершаем работу...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Ошибка остановки HTTP-сервера")
	}

	log.Info("Приложение остановлено")
}

// setupLogging настраивает формат логов.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
}

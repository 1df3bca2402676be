// Точка входа Share Vault — сервиса контроля доступа и шаринга файлов.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bigkaa/sharevault/internal/api/handlers"
	"github.com/bigkaa/sharevault/internal/api/middleware"
	"github.com/bigkaa/sharevault/internal/config"
	"github.com/bigkaa/sharevault/internal/server"
	"github.com/bigkaa/sharevault/internal/service"
	"github.com/bigkaa/sharevault/internal/storage/catalog"
	"github.com/bigkaa/sharevault/internal/storage/filestore"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Share Vault запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.Int64("max_file_size", cfg.MaxFileSize),
	)

	// --- Инициализация компонентов ---

	// 1. Файловое хранилище
	store, err := filestore.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации файлового хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Каталог метаданных и журнал активности
	cat := catalog.New(logger)
	activity := service.NewActivityRecorder(logger)

	// 3. Политика размера и реестр прав
	policy := service.NewSizePolicy(cfg.MaxFileSize, logger)
	registry := service.NewPermissionRegistry(cat, logger)

	// 4. Менеджер публичных ссылок
	links := service.NewShareLinkManager(
		registry,
		cat,
		store,
		activity,
		service.NewBcryptHasher(cfg.BcryptCost),
		cfg.PublicURL,
		logger,
	)

	// 5. Сервисы загрузки, скачивания и адресных выдач
	uploadSvc := service.NewUploadService(policy, store, cat, activity, logger)
	downloadSvc := service.NewDownloadService(registry, cat, store, logger)
	shares := service.NewSharesService(registry, cat, activity, logger)

	// 6. JWT-аутентификация (опциональна: без SV_JWKS_URL dev-режим)
	var auth *middleware.JWTAuth
	if cfg.JWKSUrl != "" {
		auth, err = middleware.NewJWTAuth(middleware.JWTAuthConfig{
			JWKSURL:         cfg.JWKSUrl,
			CACertPath:      cfg.JWKSCACert,
			RefreshInterval: cfg.JWKSRefreshInterval,
			JWTLeeway:       cfg.JWTLeeway,
		}, logger)
		if err != nil {
			logger.Error("Ошибка инициализации JWT-аутентификации", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("JWT-аутентификация включена", slog.String("jwks_url", cfg.JWKSUrl))
	} else {
		logger.Warn("SV_JWKS_URL не задан: аутентификация отключена, запросы анонимны")
	}

	// 7. Мониторинг зависимостей topologymetrics (только при включённой
	// аутентификации: единственная внешняя зависимость — JWKS endpoint)
	if cfg.JWKSUrl != "" {
		dh, dhErr := service.NewDephealthService(
			cfg.ServiceName,
			cfg.DephealthGroup,
			cfg.DephealthDepName,
			cfg.JWKSUrl,
			cfg.DephealthCheckInterval,
			logger,
		)
		if dhErr != nil {
			logger.Warn("Dephealth не инициализирован", slog.String("error", dhErr.Error()))
		} else if startErr := dh.Start(context.Background()); startErr != nil {
			logger.Warn("Dephealth не запущен", slog.String("error", startErr.Error()))
		} else {
			defer dh.Stop()
		}
	}

	// 8. HTTP handlers
	h := server.Handlers{
		Files:    handlers.NewFilesHandler(uploadSvc, downloadSvc, registry, cat, activity),
		Share:    handlers.NewShareHandler(links, shares),
		Activity: handlers.NewActivityHandler(activity, policy),
		Health:   handlers.NewHealthHandler(cfg.DataDir),
	}

	// 9. HTTP-сервер
	srv := server.New(cfg, logger, h, auth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

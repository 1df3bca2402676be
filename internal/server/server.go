// Пакет server — HTTP-сервер Share Vault с TLS и graceful shutdown.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/sharevault/internal/api/handlers"
	"github.com/bigkaa/sharevault/internal/api/middleware"
	"github.com/bigkaa/sharevault/internal/config"
)

// Handlers — набор обработчиков, монтируемых в роутер.
type Handlers struct {
	Files    *handlers.FilesHandler
	Share    *handlers.ShareHandler
	Activity *handlers.ActivityHandler
	Health   *handlers.HealthHandler
}

// Server — HTTP-сервер Share Vault.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
// auth == nil означает работу без аутентификации (dev-режим):
// маршруты монтируются без JWT-проверки.
func New(cfg *config.Config, logger *slog.Logger, h Handlers, auth *middleware.JWTAuth) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.MetricsMiddleware())

	// Публичные endpoints: probes, метрики и погашение ссылок.
	// Токен ссылки — самостоятельный credential, JWT не требуется.
	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	router.Get("/api/v1/share/{token}", h.Share.Redeem)

	// Аутентифицированные endpoints
	router.Group(func(r chi.Router) {
		if auth != nil {
			r.Use(auth.Middleware())
		}

		r.Post("/api/v1/files/upload", h.Files.UploadFile)
		r.Get("/api/v1/files/{fileID}", h.Files.GetFileMetadata)
		r.Get("/api/v1/files/{fileID}/download", h.Files.DownloadFile)
		r.Put("/api/v1/files/{fileID}/permissions", h.Files.SetPermissions)

		r.Post("/api/v1/files/{fileID}/links", h.Share.IssueShareLink)
		r.Post("/api/v1/files/{fileID}/shares/user", h.Share.ShareWithUser)
		r.Post("/api/v1/files/{fileID}/shares/email", h.Share.ShareByEmail)
		r.Post("/api/v1/shares/email/{shareID}/accept", h.Share.AcceptEmailShare)

		r.Get("/api/v1/projects/{projectID}/activity", h.Activity.QueryActivity)

		// Изменение лимитов — административная операция
		r.With(middleware.RequireScope("admin")).Put("/api/v1/limits", h.Activity.UpsertLimit)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		srv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown с таймаутом
// из конфигурации.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
			slog.Bool("tls", s.cfg.TLSCert != ""),
		)

		var err error
		if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
			err = s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			err = s.httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}

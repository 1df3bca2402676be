// download.go — сервис авторизованного скачивания файлов.
package service

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bigkaa/sharevault/internal/api/middleware"
	"github.com/bigkaa/sharevault/internal/domain/model"
	"github.com/bigkaa/sharevault/internal/storage/catalog"
	"github.com/bigkaa/sharevault/internal/storage/filestore"
)

// DownloadService — сервис скачивания файлов аутентифицированными
// пользователями. Скачивание по публичной ссылке идёт через
// ShareLinkManager.Redeem, не через этот сервис.
type DownloadService struct {
	registry *PermissionRegistry
	cat      *catalog.Catalog
	store    *filestore.FileStore
	logger   *slog.Logger
}

// NewDownloadService создаёт сервис скачивания файлов.
func NewDownloadService(
	registry *PermissionRegistry,
	cat *catalog.Catalog,
	store *filestore.FileStore,
	logger *slog.Logger,
) *DownloadService {
	return &DownloadService{
		registry: registry,
		cat:      cat,
		store:    store,
		logger:   logger.With(slog.String("component", "download_service")),
	}
}

// Serve отдаёт файл клиенту через http.ServeContent.
// Требует у пользователя право DOWNLOAD на файл.
func (s *DownloadService) Serve(w http.ResponseWriter, r *http.Request, fileID, userID string) *OpError {
	meta := s.cat.Get(fileID)
	if meta == nil {
		return errNotFound("Файл %s не найден", fileID)
	}

	if opErr := s.registry.RequireCapability(fileID, userID, model.CapDownload); opErr != nil {
		return opErr
	}

	file, err := s.store.ReadFile(meta.StoragePath)
	if err != nil {
		s.logger.Error("Файл не найден на диске",
			slog.String("file_id", fileID),
			slog.String("storage_path", meta.StoragePath),
			slog.String("error", err.Error()),
		)
		return errNotFound("Файл %s не найден на диске", fileID)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return errInternal("Ошибка чтения файла")
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Name))
	w.Header().Set("Accept-Ranges", "bytes")

	// http.ServeContent автоматически обрабатывает Range requests,
	// If-Modified-Since и Content-Length.
	http.ServeContent(w, r, meta.Name, stat.ModTime(), file)

	middleware.OperationsTotal.WithLabelValues("download", "success").Inc()

	s.logger.Debug("Файл скачан",
		slog.String("file_id", fileID),
		slog.String("user_id", userID),
		slog.Int64("size", meta.Size),
	)

	return nil
}

// Пакет service — бизнес-логика Share Vault.
// upload.go — сервис загрузки файлов.
package service

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/sharevault/internal/api/middleware"
	"github.com/bigkaa/sharevault/internal/domain/model"
	"github.com/bigkaa/sharevault/internal/storage/catalog"
	"github.com/bigkaa/sharevault/internal/storage/filestore"
)

// UploadParams — параметры загрузки файла.
type UploadParams struct {
	// Reader — поток данных файла
	Reader io.Reader
	// OriginalFilename — оригинальное имя файла
	OriginalFilename string
	// ProjectID — проект, в который загружается файл
	ProjectID string
	// Size — размер файла (из Content-Length multipart part)
	Size int64
	// UploadedBy — идентификатор пользователя (sub из JWT)
	UploadedBy string
	// Description — описание файла (опционально)
	Description string
	// DeclaredFormat — объявленный формат (опционально; пусто —
	// формат выводится из расширения имени)
	DeclaredFormat string
}

// UploadService — сервис загрузки файлов.
//
// Поток: политика размера → запись байтов на диск → запись в каталог →
// журнал активности. Права загрузившему явно не выдаются: владелец
// файла всегда имеет полный доступ по правилу реестра.
type UploadService struct {
	policy   *SizePolicy
	store    *filestore.FileStore
	cat      *catalog.Catalog
	activity *ActivityRecorder
	logger   *slog.Logger
}

// NewUploadService создаёт сервис загрузки файлов.
func NewUploadService(
	policy *SizePolicy,
	store *filestore.FileStore,
	cat *catalog.Catalog,
	activity *ActivityRecorder,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		policy:   policy,
		store:    store,
		cat:      cat,
		activity: activity,
		logger:   logger.With(slog.String("component", "upload_service")),
	}
}

// Upload загружает файл в хранилище.
func (s *UploadService) Upload(params UploadParams) (*model.FileRecord, *OpError) {
	// 1. Определяем формат и тип
	format := model.ParseFormat(params.DeclaredFormat)
	if format == model.FormatOther && params.DeclaredFormat == "" {
		format = model.FormatFromName(params.OriginalFilename)
	}
	ftype := model.TypeForFormat(format)

	// 2. Проверяем политику размера
	if opErr := s.policy.Evaluate(params.Size, ftype, format); opErr != nil {
		middleware.OperationsTotal.WithLabelValues("upload", "rejected").Inc()
		return nil, opErr
	}

	// 3. Сохраняем байты на диск
	saved, err := s.store.SaveFile(params.Reader, params.OriginalFilename)
	if err != nil {
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		// Ошибки хранилища отдаются клиенту как 400 с исходным сообщением
		return nil, errBadRequest("%s", err.Error())
	}

	// 4. Регистрируем файл в каталоге
	now := time.Now().UTC()
	rec := &model.FileRecord{
		FileID:      uuid.New().String(),
		ProjectID:   params.ProjectID,
		Name:        params.OriginalFilename,
		StoragePath: saved.StoragePath,
		Type:        ftype,
		Format:      format,
		Size:        saved.Size,
		UploadedBy:  params.UploadedBy,
		Description: params.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.cat.Add(rec)

	// 5. Журнал активности
	s.activity.Record(params.ProjectID, params.UploadedBy, model.EventFileUploaded, map[string]string{
		"file_id": rec.FileID,
		"name":    rec.Name,
		"format":  string(rec.Format),
	})

	middleware.OperationsTotal.WithLabelValues("upload", "success").Inc()
	middleware.FilesTotal.Set(float64(s.cat.Count()))

	s.logger.Info("Файл загружен",
		slog.String("file_id", rec.FileID),
		slog.String("project_id", params.ProjectID),
		slog.String("name", rec.Name),
		slog.Int64("size", rec.Size),
		slog.String("uploaded_by", params.UploadedBy),
	)

	return rec, nil
}

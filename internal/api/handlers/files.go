// files.go — HTTP handlers файловых операций Share Vault.
// Upload, Get metadata, Download, установка прав.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/sharevault/internal/api/errors"
	"github.com/bigkaa/sharevault/internal/api/middleware"
	"github.com/bigkaa/sharevault/internal/domain/model"
	"github.com/bigkaa/sharevault/internal/service"
	"github.com/bigkaa/sharevault/internal/storage/catalog"
)

// FilesHandler — обработчик файловых endpoints.
type FilesHandler struct {
	uploadSvc   *service.UploadService
	downloadSvc *service.DownloadService
	registry    *service.PermissionRegistry
	cat         *catalog.Catalog
	activity    *service.ActivityRecorder
}

// NewFilesHandler создаёт обработчик файловых endpoints.
func NewFilesHandler(
	uploadSvc *service.UploadService,
	downloadSvc *service.DownloadService,
	registry *service.PermissionRegistry,
	cat *catalog.Catalog,
	activity *service.ActivityRecorder,
) *FilesHandler {
	return &FilesHandler{
		uploadSvc:   uploadSvc,
		downloadSvc: downloadSvc,
		registry:    registry,
		cat:         cat,
		activity:    activity,
	}
}

// writeOpError записывает ошибку сервисного слоя в стандартном формате.
func writeOpError(w http.ResponseWriter, opErr *service.OpError) {
	errors.WriteError(w, opErr.StatusCode, opErr.Code, opErr.Message)
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// subject извлекает идентификатор пользователя из контекста.
// Пустое значение означает запрос без аутентификации.
func subject(r *http.Request) string {
	return middleware.SubjectFromContext(r.Context())
}

// UploadFile обрабатывает POST /api/v1/files/upload.
// Multipart form: file (обязательно), project_id (обязательно),
// description (опционально), format (опционально).
func (h *FilesHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	userID := subject(r)
	if userID == "" {
		errors.Unauthorized(w, "Отсутствует идентификатор пользователя")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32 MB buffer
		errors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errors.ValidationError(w, "Поле 'file' обязательно")
		return
	}
	defer file.Close()

	projectID := r.FormValue("project_id")
	if projectID == "" {
		errors.ValidationError(w, "Поле 'project_id' обязательно")
		return
	}

	rec, opErr := h.uploadSvc.Upload(service.UploadParams{
		Reader:           file,
		OriginalFilename: header.Filename,
		ProjectID:        projectID,
		Size:             header.Size,
		UploadedBy:       userID,
		Description:      r.FormValue("description"),
		DeclaredFormat:   r.FormValue("format"),
	})
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// GetFileMetadata обрабатывает GET /api/v1/files/{fileID}.
// Требует право VIEW.
func (h *FilesHandler) GetFileMetadata(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	meta := h.cat.Get(fileID)
	if meta == nil {
		errors.NotFound(w, fmt.Sprintf("Файл %s не найден", fileID))
		return
	}

	if opErr := h.registry.RequireCapability(fileID, subject(r), model.CapView); opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusOK, meta)
}

// DownloadFile обрабатывает GET /api/v1/files/{fileID}/download.
// Требует право DOWNLOAD.
func (h *FilesHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	if opErr := h.downloadSvc.Serve(w, r, fileID, subject(r)); opErr != nil {
		writeOpError(w, opErr)
	}
}

// setPermissionsRequest — тело запроса установки прав.
type setPermissionsRequest struct {
	UserID       string   `json:"user_id"`
	Capabilities []string `json:"capabilities"`
}

// permissionResponse — ответ с записью прав.
type permissionResponse struct {
	FileID       string             `json:"file_id"`
	UserID       string             `json:"user_id"`
	Capabilities []model.Capability `json:"capabilities"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// SetPermissions обрабатывает PUT /api/v1/files/{fileID}/permissions.
// Вызывающий должен иметь право SHARE; прежнее множество прав
// получателя полностью заменяется. Пустой список отзывает доступ.
func (h *FilesHandler) SetPermissions(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	var req setPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}
	if req.UserID == "" {
		errors.ValidationError(w, "Поле 'user_id' обязательно")
		return
	}

	caps, err := parseCapabilities(req.Capabilities)
	if err != nil {
		errors.ValidationError(w, err.Error())
		return
	}

	// Мутации прав доступны только тем, кто сам вправе делиться файлом
	if opErr := h.registry.RequireCapability(fileID, subject(r), model.CapShare); opErr != nil {
		writeOpError(w, opErr)
		return
	}

	rec, opErr := h.registry.SetPermissions(fileID, req.UserID, model.NewCapabilitySet(caps...))
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	if file := h.cat.Get(fileID); file != nil {
		h.activity.Record(file.ProjectID, subject(r), model.EventPermissionsSet, map[string]string{
			"file_id": fileID,
			"user_id": req.UserID,
		})
	}

	writeJSON(w, http.StatusOK, permissionResponse{
		FileID:       rec.FileID,
		UserID:       rec.UserID,
		Capabilities: rec.Capabilities.List(),
		UpdatedAt:    rec.UpdatedAt,
	})
}

// parseCapabilities валидирует список прав из запроса.
func parseCapabilities(raw []string) ([]model.Capability, error) {
	caps := make([]model.Capability, 0, len(raw))
	for _, s := range raw {
		c, err := model.ParseCapability(s)
		if err != nil {
			return nil, err
		}
		caps = append(caps, c)
	}
	return caps, nil
}

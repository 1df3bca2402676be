// activity.go — HTTP handlers журнала активности и лимитов размера.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/sharevault/internal/api/errors"
	"github.com/bigkaa/sharevault/internal/domain/model"
	"github.com/bigkaa/sharevault/internal/service"
)

// ActivityHandler — обработчик журнала активности и настроек лимитов.
type ActivityHandler struct {
	recorder *service.ActivityRecorder
	policy   *service.SizePolicy
}

// NewActivityHandler создаёт обработчик журнала активности.
func NewActivityHandler(recorder *service.ActivityRecorder, policy *service.SizePolicy) *ActivityHandler {
	return &ActivityHandler{recorder: recorder, policy: policy}
}

// activityResponse — ответ запроса журнала.
type activityResponse struct {
	ProjectID string                `json:"project_id"`
	Entries   []model.ActivityEntry `json:"entries"`
	Count     int                   `json:"count"`
}

// QueryActivity обрабатывает GET /api/v1/projects/{projectID}/activity.
// Параметр limit обрезает выдачу; записи отсортированы от новых к старым.
func (h *ActivityHandler) QueryActivity(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			errors.ValidationError(w, fmt.Sprintf("Некорректное значение limit: %q", raw))
			return
		}
		limit = parsed
	}

	entries := h.recorder.Query(projectID, limit)
	if entries == nil {
		entries = []model.ActivityEntry{}
	}

	writeJSON(w, http.StatusOK, activityResponse{
		ProjectID: projectID,
		Entries:   entries,
		Count:     len(entries),
	})
}

// upsertLimitRequest — тело запроса обновления лимита размера.
type upsertLimitRequest struct {
	MaxBytes int64    `json:"max_bytes"`
	Types    []string `json:"types,omitempty"`
	Formats  []string `json:"formats,omitempty"`
}

// UpsertLimit обрабатывает PUT /api/v1/limits.
// Без типов и форматов заменяется глобальный лимит, иначе обновляется
// или добавляется правило-переопределение.
func (h *ActivityHandler) UpsertLimit(w http.ResponseWriter, r *http.Request) {
	var req upsertLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}
	if req.MaxBytes <= 0 {
		errors.ValidationError(w, "Поле 'max_bytes' должно быть положительным")
		return
	}

	types := make([]model.FileType, 0, len(req.Types))
	for _, t := range req.Types {
		switch model.FileType(t) {
		case model.TypeDocument, model.TypeImage, model.TypeAudio, model.TypeVideo, model.TypeArchive, model.TypeOther:
			types = append(types, model.FileType(t))
		default:
			errors.ValidationError(w, fmt.Sprintf("Неизвестный тип файла: %q", t))
			return
		}
	}

	formats := make([]model.FileFormat, 0, len(req.Formats))
	for _, f := range req.Formats {
		formats = append(formats, model.ParseFormat(f))
	}

	h.policy.UpsertLimit(req.MaxBytes, types, formats)

	writeJSON(w, http.StatusOK, map[string]any{
		"max_bytes": req.MaxBytes,
		"types":     req.Types,
		"formats":   req.Formats,
	})
}

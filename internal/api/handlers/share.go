// share.go — HTTP handlers публичных ссылок и адресных выдач прав.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/sharevault/internal/api/errors"
	"github.com/bigkaa/sharevault/internal/domain/model"
	"github.com/bigkaa/sharevault/internal/service"
)

// passwordHeader — заголовок, в котором клиент передаёт пароль ссылки.
// Пароль не попадает в URL и, как следствие, в access-логи.
const passwordHeader = "X-Share-Password"

// ShareHandler — обработчик endpoints публичных ссылок и выдач прав.
type ShareHandler struct {
	links  *service.ShareLinkManager
	shares *service.SharesService
}

// NewShareHandler создаёт обработчик endpoints шаринга.
func NewShareHandler(links *service.ShareLinkManager, shares *service.SharesService) *ShareHandler {
	return &ShareHandler{links: links, shares: shares}
}

// issueLinkRequest — тело запроса выдачи публичной ссылки.
type issueLinkRequest struct {
	Capabilities []string   `json:"capabilities"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Password     string     `json:"password,omitempty"`
	MaxUses      *int       `json:"max_uses,omitempty"`
}

// IssueShareLink обрабатывает POST /api/v1/files/{fileID}/links.
// Выдающий должен иметь право SHARE на файл.
func (h *ShareHandler) IssueShareLink(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	var req issueLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}
	if len(req.Capabilities) == 0 {
		errors.ValidationError(w, "Поле 'capabilities' обязательно")
		return
	}
	if req.MaxUses != nil && *req.MaxUses <= 0 {
		errors.ValidationError(w, "Поле 'max_uses' должно быть положительным")
		return
	}

	caps, err := parseCapabilities(req.Capabilities)
	if err != nil {
		errors.ValidationError(w, err.Error())
		return
	}

	view, opErr := h.links.Issue(service.IssueParams{
		FileID:       fileID,
		IssuerID:     subject(r),
		Capabilities: caps,
		ExpiresAt:    req.ExpiresAt,
		Password:     req.Password,
		MaxUses:      req.MaxUses,
	})
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// redeemMetadata — метаданные файла в ответе погашения.
type redeemMetadata struct {
	FileID      string           `json:"file_id"`
	Name        string           `json:"name"`
	Type        model.FileType   `json:"type"`
	Format      model.FileFormat `json:"format"`
	Size        int64            `json:"size"`
	Description string           `json:"description,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Redeem обрабатывает GET /api/v1/share/{token}.
// Публичный endpoint: аутентификация не требуется, токен и есть
// credential. Пароль (если ссылка защищена) передаётся в заголовке
// X-Share-Password. Ссылка с правом DOWNLOAD отдаёт содержимое файла,
// иначе — только метаданные JSON.
func (h *ShareHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	result, opErr := h.links.Redeem(token, r.Header.Get(passwordHeader))
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	if result.Content != nil {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.File.Name))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(result.Content)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Content)
		return
	}

	writeJSON(w, http.StatusOK, redeemMetadata{
		FileID:      result.File.FileID,
		Name:        result.File.Name,
		Type:        result.File.Type,
		Format:      result.File.Format,
		Size:        result.File.Size,
		Description: result.File.Description,
		CreatedAt:   result.File.CreatedAt,
	})
}

// shareUserRequest — тело запроса выдачи прав пользователю.
type shareUserRequest struct {
	UserID       string     `json:"user_id"`
	Capabilities []string   `json:"capabilities"`
	Message      string     `json:"message,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// ShareWithUser обрабатывает POST /api/v1/files/{fileID}/shares/user.
func (h *ShareHandler) ShareWithUser(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	var req shareUserRequest
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

	share, opErr := h.shares.ShareWithUser(service.ShareWithUserParams{
		FileID:       fileID,
		GrantorID:    subject(r),
		GranteeID:    req.UserID,
		Capabilities: caps,
		Message:      req.Message,
		ExpiresAt:    req.ExpiresAt,
	})
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusCreated, share)
}

// shareEmailRequest — тело запроса приглашения по email.
type shareEmailRequest struct {
	Email        string     `json:"email"`
	Capabilities []string   `json:"capabilities"`
	Message      string     `json:"message,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// ShareByEmail обрабатывает POST /api/v1/files/{fileID}/shares/email.
func (h *ShareHandler) ShareByEmail(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	var req shareEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}
	if req.Email == "" {
		errors.ValidationError(w, "Поле 'email' обязательно")
		return
	}

	caps, err := parseCapabilities(req.Capabilities)
	if err != nil {
		errors.ValidationError(w, err.Error())
		return
	}

	share, opErr := h.shares.ShareByEmail(service.ShareByEmailParams{
		FileID:       fileID,
		GrantorID:    subject(r),
		Email:        req.Email,
		Capabilities: caps,
		Message:      req.Message,
		ExpiresAt:    req.ExpiresAt,
	})
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusCreated, share)
}

// AcceptEmailShare обрабатывает POST /api/v1/shares/email/{shareID}/accept.
func (h *ShareHandler) AcceptEmailShare(w http.ResponseWriter, r *http.Request) {
	shareID := chi.URLParam(r, "shareID")

	share, opErr := h.shares.AcceptEmailShare(shareID, subject(r))
	if opErr != nil {
		writeOpError(w, opErr)
		return
	}

	writeJSON(w, http.StatusOK, share)
}

// permissions.go — реестр прав доступа к файлам.
// Таблица (файл, пользователь) → множество прав. Загрузивший файл
// всегда имеет полный доступ, FULL_ACCESS разрешает любое право.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bigkaa/sharevault/internal/domain/model"
	"github.com/bigkaa/sharevault/internal/storage/catalog"
)

// PermissionRegistry — потокобезопасный реестр прав доступа.
// Запись и чтение одной пары (файл, пользователь) сериализованы
// через RWMutex: читатель не может увидеть наполовину записанное
// множество прав.
type PermissionRegistry struct {
	mu      sync.RWMutex
	records map[string]map[string]model.PermissionRecord // file_id → user_id → record
	cat     *catalog.Catalog
	logger  *slog.Logger
}

// NewPermissionRegistry создаёт пустой реестр прав.
func NewPermissionRegistry(cat *catalog.Catalog, logger *slog.Logger) *PermissionRegistry {
	return &PermissionRegistry{
		records: make(map[string]map[string]model.PermissionRecord),
		cat:     cat,
		logger:  logger.With(slog.String("component", "permission_registry")),
	}
}

// SetPermissions устанавливает права пользователя на файл.
// Прежнее множество прав полностью заменяется (не объединяется).
// Пустое множество фактически отзывает доступ.
// Возвращает NotFound, если файл не существует.
func (r *PermissionRegistry) SetPermissions(fileID, userID string, caps model.CapabilitySet) (*model.PermissionRecord, *OpError) {
	if !r.cat.Exists(fileID) {
		return nil, errNotFound("Файл %s не найден", fileID)
	}

	rec := model.PermissionRecord{
		FileID:       fileID,
		UserID:       userID,
		Capabilities: caps.Clone(),
		UpdatedAt:    time.Now().UTC(),
	}

	r.mu.Lock()
	byUser, ok := r.records[fileID]
	if !ok {
		byUser = make(map[string]model.PermissionRecord)
		r.records[fileID] = byUser
	}
	byUser[userID] = rec
	r.mu.Unlock()

	r.logger.Debug("Права обновлены",
		slog.String("file_id", fileID),
		slog.String("user_id", userID),
		slog.Any("capabilities", caps.List()),
	)

	result := rec
	result.Capabilities = rec.Capabilities.Clone()
	return &result, nil
}

// GetPermissions возвращает копию записи прав или nil, если записи нет.
func (r *PermissionRegistry) GetPermissions(fileID, userID string) *model.PermissionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byUser, ok := r.records[fileID]
	if !ok {
		return nil
	}
	rec, ok := byUser[userID]
	if !ok {
		return nil
	}
	result := rec
	result.Capabilities = rec.Capabilities.Clone()
	return &result
}

// HasCapability проверяет право пользователя на файл.
// Порядок правил:
//  1. загрузивший файл имеет любое право;
//  2. нет записи — доступа нет;
//  3. FULL_ACCESS в записи разрешает любое право;
//  4. иначе право должно присутствовать в множестве явно.
func (r *PermissionRegistry) HasCapability(fileID, userID string, cap model.Capability) bool {
	if owner, ok := r.cat.Owner(fileID); ok && owner == userID {
		return true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	byUser, ok := r.records[fileID]
	if !ok {
		return false
	}
	rec, ok := byUser[userID]
	if !ok {
		return false
	}
	return rec.Capabilities.Allows(cap)
}

// RequireCapability проверяет право и возвращает Forbidden с указанием
// недостающего права, если проверка не пройдена. Используется как guard
// перед мутирующими операциями.
func (r *PermissionRegistry) RequireCapability(fileID, userID string, cap model.Capability) *OpError {
	if r.HasCapability(fileID, userID, cap) {
		return nil
	}
	return errForbidden("Недостаточно прав: требуется %s", cap)
}

// Пакет catalog — потокобезопасная in-memory таблица метаданных файлов.
//
// Таблица живёт столько же, сколько процесс: метаданные не
// персистентны. Использует sync.RWMutex для конкурентного чтения
// и эксклюзивной записи; наружу отдаются копии записей.
package catalog

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bigkaa/sharevault/internal/domain/model"
)

// Catalog — потокобезопасная in-memory таблица файлов.
type Catalog struct {
	mu     sync.RWMutex
	files  map[string]*model.FileRecord // file_id → record
	logger *slog.Logger
}

// New создаёт пустой каталог.
func New(logger *slog.Logger) *Catalog {
	return &Catalog{
		files:  make(map[string]*model.FileRecord),
		logger: logger.With(slog.String("component", "catalog")),
	}
}

// Add добавляет запись файла в каталог.
// Если файл с таким ID уже существует, он будет перезаписан.
func (c *Catalog) Add(rec *model.FileRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Создаём копию, чтобы избежать data race при внешних изменениях
	copied := *rec
	c.files[rec.FileID] = &copied
}

// Get возвращает копию записи файла или nil, если файл не найден.
func (c *Catalog) Get(fileID string) *model.FileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.files[fileID]
	if !ok {
		return nil
	}
	copied := *rec
	return &copied
}

// Exists проверяет наличие файла в каталоге.
func (c *Catalog) Exists(fileID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.files[fileID]
	return ok
}

// Owner возвращает идентификатор загрузившего пользователя.
// Второе значение false, если файл не найден.
func (c *Catalog) Owner(fileID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.files[fileID]
	if !ok {
		return "", false
	}
	return rec.UploadedBy, true
}

// Update обновляет запись файла в каталоге.
// Возвращает ошибку, если файл не найден.
func (c *Catalog) Update(rec *model.FileRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.files[rec.FileID]; !ok {
		return fmt.Errorf("файл %s не найден в каталоге", rec.FileID)
	}

	copied := *rec
	copied.UpdatedAt = time.Now().UTC()
	c.files[rec.FileID] = &copied
	return nil
}

// MarkShared выставляет флаг shared у файла.
// Возвращает ошибку, если файл не найден.
func (c *Catalog) MarkShared(fileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.files[fileID]
	if !ok {
		return fmt.Errorf("файл %s не найден в каталоге", fileID)
	}
	rec.Shared = true
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// Remove удаляет файл из каталога по file_id.
// Возвращает true, если файл был найден и удалён.
func (c *Catalog) Remove(fileID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.files[fileID]; !ok {
		return false
	}
	delete(c.files, fileID)
	return true
}

// Count возвращает число файлов в каталоге.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// ListByProject возвращает копии записей файлов проекта.
func (c *Catalog) ListByProject(projectID string) []*model.FileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []*model.FileRecord
	for _, rec := range c.files {
		if rec.ProjectID == projectID {
			copied := *rec
			result = append(result, &copied)
		}
	}
	return result
}

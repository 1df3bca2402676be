// activity.go — append-only журнал активности проектов.
package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/sharevault/internal/domain/model"
)

// ActivityRecorder — потокобезопасный append-only журнал событий.
// Записи никогда не изменяются и не удаляются. Каждой записи под
// мьютексом присваивается порядковый номер вставки: он разрешает
// ничьи при равных timestamp и даёт стабильный порядок выдачи
// при конкурентных писателях.
type ActivityRecorder struct {
	mu      sync.Mutex
	entries []model.ActivityEntry
	seq     uint64
	logger  *slog.Logger
}

// NewActivityRecorder создаёт пустой журнал активности.
func NewActivityRecorder(logger *slog.Logger) *ActivityRecorder {
	return &ActivityRecorder{
		logger: logger.With(slog.String("component", "activity_recorder")),
	}
}

// Record добавляет запись в журнал. Никогда не возвращает ошибку:
// запись с пустым projectID, userID или eventType молча пропускается
// с предупреждением в логе.
func (a *ActivityRecorder) Record(projectID, userID string, eventType model.EventType, details map[string]string) {
	if projectID == "" || userID == "" || eventType == "" {
		a.logger.Warn("Запись активности пропущена: не заполнены обязательные поля",
			slog.String("project_id", projectID),
			slog.String("user_id", userID),
			slog.String("event_type", string(eventType)),
		)
		return
	}

	var detailsCopy map[string]string
	if len(details) > 0 {
		detailsCopy = make(map[string]string, len(details))
		for k, v := range details {
			detailsCopy[k] = v
		}
	}

	a.mu.Lock()
	a.seq++
	a.entries = append(a.entries, model.ActivityEntry{
		EntryID:   uuid.New().String(),
		ProjectID: projectID,
		UserID:    userID,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Seq:       a.seq,
		Details:   detailsCopy,
	})
	a.mu.Unlock()
}

// Query возвращает записи проекта, отсортированные по убыванию
// timestamp (ничьи — по убыванию номера вставки, новейшие первыми).
// limit > 0 обрезает результат; limit <= 0 возвращает все записи.
func (a *ActivityRecorder) Query(projectID string, limit int) []model.ActivityEntry {
	a.mu.Lock()
	var result []model.ActivityEntry
	for _, e := range a.entries {
		if e.ProjectID == projectID {
			result = append(result, e)
		}
	}
	a.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].Seq > result[j].Seq
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Count возвращает общее число записей журнала.
func (a *ActivityRecorder) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

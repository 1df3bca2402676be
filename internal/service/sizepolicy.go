// sizepolicy.go — движок политики размера загрузок.
// Глобальный лимит плюс упорядоченный список правил-переопределений
// по типу и формату файла.
package service

import (
	"log/slog"
	"sync"

	"github.com/bigkaa/sharevault/internal/domain/model"
)

// SizePolicy — движок политики размера загрузок.
// Правила-переопределения проверяются в порядке регистрации.
type SizePolicy struct {
	mu          sync.RWMutex
	globalLimit int64
	overrides   []model.SizeLimitRule
	logger      *slog.Logger
}

// NewSizePolicy создаёт движок с указанным глобальным лимитом в байтах.
func NewSizePolicy(globalLimit int64, logger *slog.Logger) *SizePolicy {
	return &SizePolicy{
		globalLimit: globalLimit,
		logger:      logger.With(slog.String("component", "size_policy")),
	}
}

// Evaluate проверяет размер кандидата на загрузку.
// Сначала глобальный лимит, затем правила-переопределения в порядке
// регистрации. Граница включительная: размер, равный лимиту, проходит.
func (p *SizePolicy) Evaluate(sizeBytes int64, ftype model.FileType, format model.FileFormat) *OpError {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if sizeBytes > p.globalLimit {
		return errBadRequest("Размер файла превышает глобальный лимит %d МБ", toMB(p.globalLimit))
	}

	for _, rule := range p.overrides {
		if !ruleApplies(rule, ftype, format) {
			continue
		}
		if sizeBytes > rule.MaxBytes {
			return errBadRequest("Размер файла превышает лимит переопределения %d МБ", toMB(rule.MaxBytes))
		}
	}

	return nil
}

// ruleApplies решает, применимо ли правило к типу/формату.
// Правило срабатывает, если совпал тип ИЛИ формат, даже когда в правиле
// заданы оба множества. TODO: подтвердить у продукта, не должна ли
// семантика при двух заданных множествах быть И вместо ИЛИ.
func ruleApplies(rule model.SizeLimitRule, ftype model.FileType, format model.FileFormat) bool {
	for _, t := range rule.Types {
		if t == ftype {
			return true
		}
	}
	for _, f := range rule.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// UpsertLimit обновляет или добавляет лимит.
// Без типов и форматов заменяется глобальный лимит. Иначе ищется
// правило с точно такими же множествами типов и форматов (сравнение
// как множеств): найдено — заменяется его лимит, нет — правило
// добавляется в конец списка. Операции удаления правил нет.
func (p *SizePolicy) UpsertLimit(maxBytes int64, types []model.FileType, formats []model.FileFormat) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(types) == 0 && len(formats) == 0 {
		p.logger.Info("Глобальный лимит размера обновлён",
			slog.Int64("old_bytes", p.globalLimit),
			slog.Int64("new_bytes", maxBytes),
		)
		p.globalLimit = maxBytes
		return
	}

	for i := range p.overrides {
		if equalTypeSets(p.overrides[i].Types, types) && equalFormatSets(p.overrides[i].Formats, formats) {
			p.logger.Info("Лимит переопределения обновлён",
				slog.Int64("old_bytes", p.overrides[i].MaxBytes),
				slog.Int64("new_bytes", maxBytes),
			)
			p.overrides[i].MaxBytes = maxBytes
			return
		}
	}

	p.overrides = append(p.overrides, model.SizeLimitRule{
		MaxBytes: maxBytes,
		Types:    append([]model.FileType(nil), types...),
		Formats:  append([]model.FileFormat(nil), formats...),
	})
	p.logger.Info("Добавлено правило переопределения лимита",
		slog.Int64("max_bytes", maxBytes),
		slog.Int("rules_total", len(p.overrides)),
	)
}

// GlobalLimit возвращает текущий глобальный лимит в байтах.
func (p *SizePolicy) GlobalLimit() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.globalLimit
}

// equalTypeSets сравнивает списки типов как множества
// (порядок и дубликаты не учитываются).
func equalTypeSets(a, b []model.FileType) bool {
	setA := make(map[model.FileType]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[model.FileType]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for t := range setA {
		if _, ok := setB[t]; !ok {
			return false
		}
	}
	return true
}

// equalFormatSets сравнивает списки форматов как множества.
func equalFormatSets(a, b []model.FileFormat) bool {
	setA := make(map[model.FileFormat]struct{}, len(a))
	for _, f := range a {
		setA[f] = struct{}{}
	}
	setB := make(map[model.FileFormat]struct{}, len(b))
	for _, f := range b {
		setB[f] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for f := range setA {
		if _, ok := setB[f]; !ok {
			return false
		}
	}
	return true
}

// toMB переводит байты в мегабайты для сообщений об ошибках.
func toMB(bytes int64) int64 {
	return bytes / (1024 * 1024)
}

// sharelink.go — жизненный цикл публичных ссылок на файлы.
// Выдача токенов, проверка срока/пароля/лимита использований,
// выдача содержимого при погашении.
package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/sharevault/internal/api/middleware"
	"github.com/bigkaa/sharevault/internal/domain/model"
	"github.com/bigkaa/sharevault/internal/storage/catalog"
	"github.com/bigkaa/sharevault/internal/storage/filestore"
)

// redeemUserID — синтетический идентификатор пользователя для записей
// активности о погашении: погашение анонимно, токен и есть credential.
const redeemUserID = "share-link"

// PasswordHasher — одностороннее хэширование паролей ссылок.
// Интерфейс позволяет заменить алгоритм, не трогая логику жизненного
// цикла ссылок.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Verify(hash []byte, password string) error
}

// BcryptHasher — PasswordHasher на основе bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher создаёт bcrypt-хэшер с указанной стоимостью.
func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

// Hash возвращает bcrypt-хэш пароля с солью.
func (h *BcryptHasher) Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), h.cost)
}

// Verify сверяет пароль с хэшем.
func (h *BcryptHasher) Verify(hash []byte, password string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

// ShareLinkManager — менеджер жизненного цикла публичных ссылок.
//
// Все операции выполняются под одним мьютексом. Инвариант: проверка
// исчерпания и инкремент use_count образуют одну критическую секцию,
// поэтому два конкурентных погашения ссылки с max_uses=1 не могут
// пройти оба.
type ShareLinkManager struct {
	mu        sync.Mutex
	links     map[string]*model.ShareLink // token → link
	registry  *PermissionRegistry
	cat       *catalog.Catalog
	store     *filestore.FileStore
	activity  *ActivityRecorder
	hasher    PasswordHasher
	publicURL string
	logger    *slog.Logger
}

// NewShareLinkManager создаёт менеджер публичных ссылок.
func NewShareLinkManager(
	registry *PermissionRegistry,
	cat *catalog.Catalog,
	store *filestore.FileStore,
	activity *ActivityRecorder,
	hasher PasswordHasher,
	publicURL string,
	logger *slog.Logger,
) *ShareLinkManager {
	return &ShareLinkManager{
		links:     make(map[string]*model.ShareLink),
		registry:  registry,
		cat:       cat,
		store:     store,
		activity:  activity,
		hasher:    hasher,
		publicURL: publicURL,
		logger:    logger.With(slog.String("component", "sharelink_manager")),
	}
}

// IssueParams — параметры выдачи публичной ссылки.
type IssueParams struct {
	// FileID — файл, на который выдаётся ссылка
	FileID string
	// IssuerID — кто выдаёт ссылку (должен иметь право SHARE)
	IssuerID string
	// Capabilities — права, которые даёт ссылка
	Capabilities []model.Capability
	// ExpiresAt — срок действия (nil — бессрочная)
	ExpiresAt *time.Time
	// Password — пароль ссылки (пусто — без пароля).
	// Хранится только bcrypt-хэш, открытый текст не сохраняется и не логируется.
	Password string
	// MaxUses — лимит использований (nil — без лимита)
	MaxUses *int
}

// Issue выдаёт публичную ссылку на файл.
// Требует у выдающего право SHARE. Помечает файл как shared.
func (m *ShareLinkManager) Issue(p IssueParams) (*model.ShareLinkView, *OpError) {
	file := m.cat.Get(p.FileID)
	if file == nil {
		return nil, errNotFound("Файл %s не найден", p.FileID)
	}

	if opErr := m.registry.RequireCapability(p.FileID, p.IssuerID, model.CapShare); opErr != nil {
		return nil, opErr
	}

	var passwordHash []byte
	if p.Password != "" {
		hash, err := m.hasher.Hash(p.Password)
		if err != nil {
			return nil, errInternal("Ошибка хэширования пароля")
		}
		passwordHash = hash
	}

	link := &model.ShareLink{
		LinkID:       uuid.New().String(),
		FileID:       p.FileID,
		IssuedBy:     p.IssuerID,
		Capabilities: model.NewCapabilitySet(p.Capabilities...),
		ExpiresAt:    p.ExpiresAt,
		PasswordHash: passwordHash,
		MaxUses:      p.MaxUses,
		CreatedAt:    time.Now().UTC(),
	}

	m.mu.Lock()
	link.Token = m.uniqueTokenLocked()
	m.links[link.Token] = link
	m.mu.Unlock()

	// Отметка shared и сохранение ссылки — две независимые мутации,
	// не транзакция. Рассинхронизация при падении между ними допустима.
	if err := m.cat.MarkShared(p.FileID); err != nil {
		m.logger.Warn("Не удалось отметить файл как shared",
			slog.String("file_id", p.FileID),
			slog.String("error", err.Error()),
		)
	}

	m.activity.Record(file.ProjectID, p.IssuerID, model.EventLinkIssued, map[string]string{
		"file_id": p.FileID,
		"link_id": link.LinkID,
	})

	m.logger.Info("Публичная ссылка выдана",
		slog.String("file_id", p.FileID),
		slog.String("link_id", link.LinkID),
		slog.String("issued_by", p.IssuerID),
		slog.Bool("password_protected", passwordHash != nil),
	)

	return &model.ShareLinkView{
		URL:               fmt.Sprintf("%s/api/v1/share/%s", m.publicURL, link.Token),
		Capabilities:      link.Capabilities.List(),
		ExpiresAt:         link.ExpiresAt,
		PasswordProtected: passwordHash != nil,
		MaxUses:           link.MaxUses,
		CreatedAt:         link.CreatedAt,
	}, nil
}

// RedeemResult — результат погашения ссылки.
// Content заполняется только если ссылка даёт право DOWNLOAD.
type RedeemResult struct {
	File    *model.FileRecord
	Content []byte
}

// Redeem погашает ссылку по токену.
// Фиксированный порядок проверок: срок действия → лимит использований →
// пароль. После успешных проверок use_count атомарно увеличивается.
// Ссылка с правом DOWNLOAD отдаёт содержимое файла, иначе — только
// метаданные.
func (m *ShareLinkManager) Redeem(token, suppliedPassword string) (*RedeemResult, *OpError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[token]
	if !ok {
		middleware.ShareRedemptionsTotal.WithLabelValues("not_found").Inc()
		return nil, errNotFound("Ссылка не найдена")
	}

	now := time.Now().UTC()

	if link.IsExpired(now) {
		middleware.ShareRedemptionsTotal.WithLabelValues("expired").Inc()
		return nil, errBadRequest("Срок действия ссылки истёк")
	}

	if link.IsExhausted() {
		middleware.ShareRedemptionsTotal.WithLabelValues("exhausted").Inc()
		return nil, errBadRequest("Лимит использований ссылки исчерпан")
	}

	if link.PasswordHash != nil {
		if suppliedPassword == "" {
			middleware.ShareRedemptionsTotal.WithLabelValues("unauthorized").Inc()
			return nil, errUnauthorized("Ссылка защищена паролем")
		}
		if err := m.hasher.Verify(link.PasswordHash, suppliedPassword); err != nil {
			middleware.ShareRedemptionsTotal.WithLabelValues("unauthorized").Inc()
			return nil, errUnauthorized("Неверный пароль")
		}
	}

	// Все проверки пройдены: инкремент в той же критической секции,
	// что и проверка исчерпания.
	link.UseCount++

	file := m.cat.Get(link.FileID)
	if file == nil {
		return nil, errNotFound("Файл %s не найден", link.FileID)
	}

	result := &RedeemResult{File: file}

	if link.Capabilities.Allows(model.CapDownload) {
		content, err := m.store.ReadAll(file.StoragePath)
		if err != nil {
			// Ошибки хранилища отдаются клиенту как 400 с исходным сообщением
			return nil, errBadRequest("%s", err.Error())
		}
		result.Content = content
	}

	m.activity.Record(file.ProjectID, redeemUserID, model.EventLinkRedeemed, map[string]string{
		"file_id":   link.FileID,
		"link_id":   link.LinkID,
		"use_count": fmt.Sprintf("%d", link.UseCount),
	})

	middleware.ShareRedemptionsTotal.WithLabelValues("success").Inc()

	m.logger.Debug("Ссылка погашена",
		slog.String("link_id", link.LinkID),
		slog.String("file_id", link.FileID),
		slog.Int("use_count", link.UseCount),
	)

	return result, nil
}

// GetByToken возвращает копию ссылки (для тестов и диагностики).
func (m *ShareLinkManager) GetByToken(token string) *model.ShareLink {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[token]
	if !ok {
		return nil
	}
	copied := *link
	copied.Capabilities = link.Capabilities.Clone()
	return &copied
}

// uniqueTokenLocked генерирует токен, уникальный среди всех выданных
// ссылок. Вызывается только под m.mu: коллизия (практически
// невозможная при 32 байтах энтропии) приводит к повторной генерации.
func (m *ShareLinkManager) uniqueTokenLocked() string {
	for {
		token := generateToken()
		if _, exists := m.links[token]; !exists {
			return token
		}
	}
}

// generateToken возвращает криптографически случайный токен:
// 32 байта из crypto/rand в hex (64 символа).
func generateToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand на поддерживаемых платформах не возвращает ошибку
		panic("crypto/rand недоступен: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

// Пакет model — доменные модели Share Vault.
// FileRecord — метаданные файла, PermissionRecord — права доступа,
// ShareLink — публичная ссылка, ActivityEntry — запись журнала событий.
package model

import (
	"fmt"
	"sort"
	"time"
)

// Capability — право доступа к файлу.
type Capability string

const (
	// CapView — просмотр метаданных файла
	CapView Capability = "VIEW"
	// CapDownload — скачивание содержимого файла
	CapDownload Capability = "DOWNLOAD"
	// CapEdit — изменение файла и его метаданных
	CapEdit Capability = "EDIT"
	// CapDelete — удаление файла
	CapDelete Capability = "DELETE"
	// CapShare — выдача прав и публичных ссылок
	CapShare Capability = "SHARE"
	// CapFullAccess — полный доступ, включает все остальные права
	CapFullAccess Capability = "FULL_ACCESS"
)

// ParseCapability валидирует строковое представление права.
func ParseCapability(s string) (Capability, error) {
	switch Capability(s) {
	case CapView, CapDownload, CapEdit, CapDelete, CapShare, CapFullAccess:
		return Capability(s), nil
	default:
		return "", fmt.Errorf("неизвестное право доступа: %q", s)
	}
}

// CapabilitySet — множество прав доступа. Дубликаты невозможны
// по построению (map-семантика).
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet создаёт множество из перечисленных прав.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Contains проверяет точное наличие права в множестве,
// без учёта FULL_ACCESS.
func (s CapabilitySet) Contains(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Allows проверяет, разрешает ли множество указанное право.
// FULL_ACCESS разрешает любое право, даже не перечисленное явно.
func (s CapabilitySet) Allows(c Capability) bool {
	if s.Contains(CapFullAccess) {
		return true
	}
	return s.Contains(c)
}

// Clone возвращает независимую копию множества.
func (s CapabilitySet) Clone() CapabilitySet {
	copied := make(CapabilitySet, len(s))
	for c := range s {
		copied[c] = struct{}{}
	}
	return copied
}

// List возвращает права в отсортированном виде (для API-ответов и логов).
func (s CapabilitySet) List() []Capability {
	caps := make([]Capability, 0, len(s))
	for c := range s {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// FileType — обобщённый тип файла, выводится из формата.
type FileType string

const (
	TypeDocument FileType = "DOCUMENT"
	TypeImage    FileType = "IMAGE"
	TypeAudio    FileType = "AUDIO"
	TypeVideo    FileType = "VIDEO"
	TypeArchive  FileType = "ARCHIVE"
	TypeOther    FileType = "OTHER"
)

// FileRecord — метаданные файла. Хранится только в памяти процесса.
type FileRecord struct {
	// FileID — уникальный идентификатор файла (UUID v4)
	FileID string `json:"file_id"`

	// ProjectID — идентификатор проекта-владельца
	ProjectID string `json:"project_id"`

	// Name — логическое имя файла при загрузке
	Name string `json:"name"`

	// StoragePath — имя объекта на диске (относительно SV_DATA_DIR).
	// Формат: {hash}-{name}. Не возвращается в API.
	StoragePath string `json:"-"`

	// Type — обобщённый тип файла
	Type FileType `json:"type"`

	// Format — формат файла (из объявленного значения или расширения)
	Format FileFormat `json:"format"`

	// Size — размер файла в байтах
	Size int64 `json:"size"`

	// UploadedBy — идентификатор загрузившего пользователя (из JWT sub).
	// Загрузивший всегда имеет полный доступ к файлу.
	UploadedBy string `json:"uploaded_by"`

	// Description — описание файла (опционально)
	Description string `json:"description,omitempty"`

	// Shared — выдана ли хотя бы одна публичная ссылка на файл
	Shared bool `json:"shared"`

	// CreatedAt, UpdatedAt — временные метки (UTC)
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PermissionRecord — права пользователя на файл.
// Не более одной записи на пару (файл, пользователь); повторная
// установка полностью заменяет прежнее множество прав.
type PermissionRecord struct {
	FileID       string        `json:"file_id"`
	UserID       string        `json:"user_id"`
	Capabilities CapabilitySet `json:"-"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ShareLink — публичная ссылка на файл с ограничениями по сроку,
// паролю и числу использований. Запись никогда не удаляется,
// истекает только её пригодность к использованию.
type ShareLink struct {
	// LinkID — идентификатор ссылки (UUID v4)
	LinkID string

	// FileID — файл, на который выдана ссылка
	FileID string

	// Token — непредсказуемый токен, уникален среди всех ссылок
	Token string

	// IssuedBy — кто выдал ссылку
	IssuedBy string

	// Capabilities — права, которые даёт ссылка
	Capabilities CapabilitySet

	// ExpiresAt — момент истечения срока действия (nil — бессрочная)
	ExpiresAt *time.Time

	// PasswordHash — bcrypt-хэш пароля (nil — без пароля).
	// Открытый пароль нигде не хранится и не логируется.
	PasswordHash []byte

	// MaxUses — максимальное число использований (nil — без лимита)
	MaxUses *int

	// UseCount — текущее число успешных использований.
	// Инвариант: UseCount <= *MaxUses, если MaxUses задан.
	UseCount int

	// CreatedAt — момент выдачи
	CreatedAt time.Time
}

// IsExpired проверяет, истёк ли срок действия ссылки.
func (l *ShareLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// IsExhausted проверяет, исчерпан ли лимит использований.
func (l *ShareLink) IsExhausted() bool {
	return l.MaxUses != nil && l.UseCount >= *l.MaxUses
}

// ShareLinkView — публичное представление выданной ссылки.
// Хэш пароля наружу не выдаётся никогда.
type ShareLinkView struct {
	URL               string       `json:"url"`
	Capabilities      []Capability `json:"capabilities"`
	ExpiresAt         *time.Time   `json:"expires_at,omitempty"`
	PasswordProtected bool         `json:"password_protected"`
	MaxUses           *int         `json:"max_uses,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

// UserShare — информационная запись о выдаче прав пользователю.
// Сама по себе доступ не открывает: доступ идёт через PermissionRecord.
type UserShare struct {
	ShareID      string        `json:"share_id"`
	FileID       string        `json:"file_id"`
	GrantorID    string        `json:"grantor_id"`
	GranteeID    string        `json:"grantee_id"`
	Capabilities CapabilitySet `json:"-"`
	Message      string        `json:"message,omitempty"`
	ExpiresAt    *time.Time    `json:"expires_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// EmailShare — информационная запись о приглашении по email.
// Accepted по умолчанию false, выставляется при принятии приглашения.
type EmailShare struct {
	ShareID      string        `json:"share_id"`
	FileID       string        `json:"file_id"`
	GrantorID    string        `json:"grantor_id"`
	Email        string        `json:"email"`
	Capabilities CapabilitySet `json:"-"`
	Message      string        `json:"message,omitempty"`
	ExpiresAt    *time.Time    `json:"expires_at,omitempty"`
	Accepted     bool          `json:"accepted"`
	CreatedAt    time.Time     `json:"created_at"`
}

// SizeLimitRule — правило ограничения размера загрузки.
// Пустые Types и Formats одновременно недопустимы: глобальный лимит
// хранится отдельно от переопределений.
type SizeLimitRule struct {
	// MaxBytes — максимальный размер файла в байтах
	MaxBytes int64 `json:"max_bytes"`
	// Types — типы файлов, к которым применяется правило
	Types []FileType `json:"types,omitempty"`
	// Formats — форматы файлов, к которым применяется правило
	Formats []FileFormat `json:"formats,omitempty"`
}

// EventType — тип события журнала активности.
type EventType string

const (
	EventFileUploaded       EventType = "file.uploaded"
	EventPermissionsSet     EventType = "permissions.set"
	EventLinkIssued         EventType = "share_link.issued"
	EventLinkRedeemed       EventType = "share_link.redeemed"
	EventUserShared         EventType = "share.user"
	EventEmailShared        EventType = "share.email"
	EventEmailShareAccepted EventType = "share.email.accepted"
)

// ActivityEntry — запись журнала активности проекта.
// Append-only: после записи никогда не изменяется и не удаляется.
type ActivityEntry struct {
	// EntryID — идентификатор записи (UUID v4)
	EntryID string `json:"entry_id"`

	// ProjectID — проект, к которому относится событие
	ProjectID string `json:"project_id"`

	// UserID — пользователь, совершивший действие
	UserID string `json:"user_id"`

	// EventType — тип события
	EventType EventType `json:"event_type"`

	// Timestamp — момент события (UTC)
	Timestamp time.Time `json:"timestamp"`

	// Seq — порядковый номер вставки. Разрешает ничьи при равных
	// Timestamp и даёт стабильный порядок выдачи.
	Seq uint64 `json:"-"`

	// Details — произвольные детали события
	Details map[string]string `json:"details,omitempty"`
}

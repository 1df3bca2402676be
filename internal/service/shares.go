// shares.go — адресные выдачи прав: пользователю и по email.
// Записи информационные: фактический доступ открывает PermissionRecord,
// который для user-выдачи записывается в реестр тут же.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/sharevault/internal/domain/model"
	"github.com/bigkaa/sharevault/internal/storage/catalog"
)

// SharesService — учёт адресных выдач прав.
type SharesService struct {
	mu          sync.Mutex
	userShares  []model.UserShare
	emailShares map[string]*model.EmailShare // share_id → share
	registry    *PermissionRegistry
	cat         *catalog.Catalog
	activity    *ActivityRecorder
	logger      *slog.Logger
}

// NewSharesService создаёт сервис адресных выдач.
func NewSharesService(
	registry *PermissionRegistry,
	cat *catalog.Catalog,
	activity *ActivityRecorder,
	logger *slog.Logger,
) *SharesService {
	return &SharesService{
		emailShares: make(map[string]*model.EmailShare),
		registry:    registry,
		cat:         cat,
		activity:    activity,
		logger:      logger.With(slog.String("component", "shares_service")),
	}
}

// ShareWithUserParams — параметры выдачи прав пользователю.
type ShareWithUserParams struct {
	FileID       string
	GrantorID    string
	GranteeID    string
	Capabilities []model.Capability
	Message      string
	ExpiresAt    *time.Time
}

// ShareWithUser выдаёт права пользователю.
// Требует у выдающего право SHARE. Права получателя записываются
// в реестр (с заменой прежнего множества), выдача фиксируется
// информационной записью и в журнале активности.
func (s *SharesService) ShareWithUser(p ShareWithUserParams) (*model.UserShare, *OpError) {
	file := s.cat.Get(p.FileID)
	if file == nil {
		return nil, errNotFound("Файл %s не найден", p.FileID)
	}

	if opErr := s.registry.RequireCapability(p.FileID, p.GrantorID, model.CapShare); opErr != nil {
		return nil, opErr
	}

	caps := model.NewCapabilitySet(p.Capabilities...)
	if _, opErr := s.registry.SetPermissions(p.FileID, p.GranteeID, caps); opErr != nil {
		return nil, opErr
	}

	share := model.UserShare{
		ShareID:      uuid.New().String(),
		FileID:       p.FileID,
		GrantorID:    p.GrantorID,
		GranteeID:    p.GranteeID,
		Capabilities: caps,
		Message:      p.Message,
		ExpiresAt:    p.ExpiresAt,
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	s.userShares = append(s.userShares, share)
	s.mu.Unlock()

	s.activity.Record(file.ProjectID, p.GrantorID, model.EventUserShared, map[string]string{
		"file_id":    p.FileID,
		"grantee_id": p.GranteeID,
	})

	result := share
	result.Capabilities = share.Capabilities.Clone()
	return &result, nil
}

// ShareByEmailParams — параметры приглашения по email.
type ShareByEmailParams struct {
	FileID       string
	GrantorID    string
	Email        string
	Capabilities []model.Capability
	Message      string
	ExpiresAt    *time.Time
}

// ShareByEmail создаёт приглашение по email.
// Права в реестр не записываются до принятия приглашения:
// запись информационная, Accepted по умолчанию false.
func (s *SharesService) ShareByEmail(p ShareByEmailParams) (*model.EmailShare, *OpError) {
	file := s.cat.Get(p.FileID)
	if file == nil {
		return nil, errNotFound("Файл %s не найден", p.FileID)
	}

	if opErr := s.registry.RequireCapability(p.FileID, p.GrantorID, model.CapShare); opErr != nil {
		return nil, opErr
	}

	share := &model.EmailShare{
		ShareID:      uuid.New().String(),
		FileID:       p.FileID,
		GrantorID:    p.GrantorID,
		Email:        p.Email,
		Capabilities: model.NewCapabilitySet(p.Capabilities...),
		Message:      p.Message,
		ExpiresAt:    p.ExpiresAt,
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	s.emailShares[share.ShareID] = share
	s.mu.Unlock()

	s.activity.Record(file.ProjectID, p.GrantorID, model.EventEmailShared, map[string]string{
		"file_id": p.FileID,
		"email":   p.Email,
	})

	result := *share
	result.Capabilities = share.Capabilities.Clone()
	return &result, nil
}

// AcceptEmailShare помечает приглашение принятым.
// Возвращает NotFound, если приглашение не существует.
func (s *SharesService) AcceptEmailShare(shareID, userID string) (*model.EmailShare, *OpError) {
	s.mu.Lock()
	share, ok := s.emailShares[shareID]
	if !ok {
		s.mu.Unlock()
		return nil, errNotFound("Приглашение %s не найдено", shareID)
	}
	share.Accepted = true
	copied := *share
	copied.Capabilities = share.Capabilities.Clone()
	s.mu.Unlock()

	if file := s.cat.Get(copied.FileID); file != nil {
		s.activity.Record(file.ProjectID, userID, model.EventEmailShareAccepted, map[string]string{
			"file_id":  copied.FileID,
			"share_id": shareID,
		})
	}

	return &copied, nil
}

// ListUserShares возвращает копии записей о выдачах по файлу.
func (s *SharesService) ListUserShares(fileID string) []model.UserShare {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.UserShare
	for _, share := range s.userShares {
		if share.FileID == fileID {
			copied := share
			copied.Capabilities = share.Capabilities.Clone()
			result = append(result, copied)
		}
	}
	return result
}

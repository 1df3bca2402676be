package service

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/sharevault/internal/domain/model"
	"github.com/bigkaa/sharevault/internal/storage/catalog"
	"github.com/bigkaa/sharevault/internal/storage/filestore"
)

// linkFixture — собранный набор зависимостей для тестов ссылок.
type linkFixture struct {
	manager  *ShareLinkManager
	registry *PermissionRegistry
	cat      *catalog.Catalog
	activity *ActivityRecorder
	fileID   string
	owner    string
	content  []byte
}

// newLinkFixture создаёт менеджер ссылок с одним файлом на диске.
// bcrypt.MinCost — чтобы не замедлять тесты хэшированием.
func newLinkFixture(t *testing.T) *linkFixture {
	t.Helper()

	store, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}

	content := []byte("содержимое тестового файла")
	saved, err := store.SaveFile(bytes.NewReader(content), "report.pdf")
	if err != nil {
		t.Fatalf("ошибка сохранения файла: %v", err)
	}

	cat := catalog.New(testLogger())
	cat.Add(&model.FileRecord{
		FileID:      "file-1",
		ProjectID:   "project-1",
		Name:        "report.pdf",
		StoragePath: saved.StoragePath,
		Type:        model.TypeDocument,
		Format:      model.FormatPDF,
		Size:        saved.Size,
		UploadedBy:  "alice",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	})

	registry := NewPermissionRegistry(cat, testLogger())
	activity := NewActivityRecorder(testLogger())
	manager := NewShareLinkManager(
		registry, cat, store, activity,
		NewBcryptHasher(bcrypt.MinCost),
		"http://localhost:8080",
		testLogger(),
	)

	return &linkFixture{
		manager:  manager,
		registry: registry,
		cat:      cat,
		activity: activity,
		fileID:   "file-1",
		owner:    "alice",
		content:  content,
	}
}

// tokenFromURL извлекает токен из публичного URL ссылки.
func tokenFromURL(t *testing.T, url string) string {
	t.Helper()
	idx := strings.LastIndex(url, "/")
	if idx < 0 {
		t.Fatalf("некорректный URL ссылки: %s", url)
	}
	return url[idx+1:]
}

func TestIssue_OwnerCanIssue(t *testing.T) {
	fx := newLinkFixture(t)

	view, opErr := fx.manager.Issue(IssueParams{
		FileID:       fx.fileID,
		IssuerID:     fx.owner,
		Capabilities: []model.Capability{model.CapView, model.CapDownload},
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}

	if !strings.HasPrefix(view.URL, "http://localhost:8080/api/v1/share/") {
		t.Errorf("некорректный URL ссылки: %s", view.URL)
	}
	token := tokenFromURL(t, view.URL)
	if len(token) != 64 {
		t.Errorf("токен должен быть 64 hex-символа, получено %d: %s", len(token), token)
	}
	if view.PasswordProtected {
		t.Error("ссылка без пароля не должна быть password_protected")
	}

	// Файл отмечен как shared
	if file := fx.cat.Get(fx.fileID); !file.Shared {
		t.Error("файл должен быть отмечен как shared")
	}

	// Выдача зафиксирована в журнале
	entries := fx.activity.Query("project-1", 0)
	if len(entries) != 1 || entries[0].EventType != model.EventLinkIssued {
		t.Errorf("ожидалась одна запись share_link.issued, получено %+v", entries)
	}
}

func TestIssue_RequiresShareCapability(t *testing.T) {
	fx := newLinkFixture(t)

	_, opErr := fx.manager.Issue(IssueParams{
		FileID:       fx.fileID,
		IssuerID:     "bob",
		Capabilities: []model.Capability{model.CapView},
	})
	if opErr == nil {
		t.Fatal("пользователь без SHARE не должен выдавать ссылки")
	}
	if opErr.StatusCode != http.StatusForbidden {
		t.Errorf("ожидался статус 403, получен %d", opErr.StatusCode)
	}

	// Пользователь с SHARE — может
	if _, setErr := fx.registry.SetPermissions(fx.fileID, "bob", model.NewCapabilitySet(model.CapShare)); setErr != nil {
		t.Fatalf("неожиданная ошибка: %v", setErr)
	}
	if _, opErr := fx.manager.Issue(IssueParams{
		FileID:       fx.fileID,
		IssuerID:     "bob",
		Capabilities: []model.Capability{model.CapView},
	}); opErr != nil {
		t.Errorf("пользователь с SHARE должен выдавать ссылки: %v", opErr)
	}
}

func TestIssue_FileNotFound(t *testing.T) {
	fx := newLinkFixture(t)

	_, opErr := fx.manager.Issue(IssueParams{
		FileID:       "missing",
		IssuerID:     fx.owner,
		Capabilities: []model.Capability{model.CapView},
	})
	if opErr == nil || opErr.StatusCode != http.StatusNotFound {
		t.Errorf("ожидался статус 404, получено %v", opErr)
	}
}

func TestIssue_PasswordStoredAsHashOnly(t *testing.T) {
	fx := newLinkFixture(t)

	view, opErr := fx.manager.Issue(IssueParams{
		FileID:       fx.fileID,
		IssuerID:     fx.owner,
		Capabilities: []model.Capability{model.CapView},
		Password:     "secret123",
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	if !view.PasswordProtected {
		t.Error("ссылка с паролем должна быть password_protected")
	}

	link := fx.manager.GetByToken(tokenFromURL(t, view.URL))
	if link == nil {
		t.Fatal("ссылка должна существовать")
	}
	if link.PasswordHash == nil {
		t.Fatal("хэш пароля должен храниться")
	}
	if strings.Contains(string(link.PasswordHash), "secret123") {
		t.Error("открытый пароль не должен храниться")
	}
}

func TestRedeem_NotFound(t *testing.T) {
	fx := newLinkFixture(t)

	_, opErr := fx.manager.Redeem("nope", "")
	if opErr == nil || opErr.StatusCode != http.StatusNotFound {
		t.Errorf("ожидался статус 404, получено %v", opErr)
	}
}

func TestRedeem_Expired(t *testing.T) {
	fx := newLinkFixture(t)

	past := time.Now().UTC().Add(-time.Hour)
	view, opErr := fx.manager.Issue(IssueParams{
		FileID:       fx.fileID,
		IssuerID:     fx.owner,
		Capabilities: []model.Capability{model.CapView},
		ExpiresAt:    &past,
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}

	_, opErr = fx.manager.Redeem(tokenFromURL(t, view.URL), "")
	if opErr == nil || opErr.StatusCode != http.StatusBadRequest {
		t.Errorf("ожидался статус 400 для просроченной ссылки, получено %v", opErr)
	}
}

func TestRedeem_MaxUsesSequential(t *testing.T) {
	fx := newLinkFixture(t)

	maxUses := 1
	view, opErr := fx.manager.Issue(IssueParams{
		FileID:       fx.fileID,
		IssuerID:     fx.owner,
		Capabilities: []model.Capability{model.CapView},
		MaxUses:      &maxUses,
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	token := tokenFromURL(t, view.URL)

	if _, opErr := fx.manager.Redeem(token, ""); opErr != nil {
		t.Fatalf("первое погашение должно пройти: %v", opErr)
	}
	if _, opErr := fx.manager.Redeem(token, ""); opErr == nil {
		t.Fatal("второе погашение при max_uses=1 должно отклоняться")
	}
}

func TestRedeem_MaxUsesConcurrent(t *testing.T) {
	fx := newLinkFixture(t)

	maxUses := 1
	view, opErr := fx.manager.Issue(IssueParams{
		FileID:       fx.fileID,
		IssuerID:     fx.owner,
		Capabilities: []model.Capability{model.CapView},
		MaxUses:      &maxUses,
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	token := tokenFromURL(t, view.URL)

	const goroutines = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, opErr := fx.manager.Redeem(token, ""); opErr == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("при max_uses=1 должно пройти ровно одно погашение, прошло %d", successes)
	}
	if link := fx.manager.GetByToken(token); link.UseCount != 1 {
		t.Errorf("use_count: ожидалось 1, получено %d", link.UseCount)
	}
}

func TestRedeem_Password(t *testing.T) {
	fx := newLinkFixture(t)

	view, opErr := fx.manager.Issue(IssueParams{
		FileID:       fx.fileID,
		IssuerID:     fx.owner,
		Capabilities: []model.Capability{model.CapView},
		Password:     "secret123",
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	token := tokenFromURL(t, view.URL)

	// Без пароля
	if _, opErr := fx.manager.Redeem(token, ""); opErr == nil || opErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("без пароля ожидался статус 401, получено %v", opErr)
	}

	// С неверным паролем
	if _, opErr := fx.manager.Redeem(token, "wrong"); opErr == nil || opErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("с неверным паролем ожидался статус 401, получено %v", opErr)
	}

	// Неудачные попытки не расходуют use_count
	if link := fx.manager.GetByToken(token); link.UseCount != 0 {
		t.Errorf("неудачные попытки не должны расходовать лимит: use_count=%d", link.UseCount)
	}

	// С верным паролем
	if _, opErr := fx.manager.Redeem(token, "secret123"); opErr != nil {
		t.Errorf("с верным паролем погашение должно пройти: %v", opErr)
	}
}

func TestRedeem_DownloadCapabilityReturnsContent(t *testing.T) {
	fx := newLinkFixture(t)

	view, opErr := fx.manager.Issue(IssueParams{
		FileID:       fx.fileID,
		IssuerID:     fx.owner,
		Capabilities: []model.Capability{model.CapDownload},
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}

	result, opErr := fx.manager.Redeem(tokenFromURL(t, view.URL), "")
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	if !bytes.Equal(result.Content, fx.content) {
		t.Error("ссылка с DOWNLOAD должна отдавать содержимое файла")
	}
}

func TestRedeem_ViewOnlyReturnsMetadataOnly(t *testing.T) {
	fx := newLinkFixture(t)

	view, opErr := fx.manager.Issue(IssueParams{
		FileID:       fx.fileID,
		IssuerID:     fx.owner,
		Capabilities: []model.Capability{model.CapView},
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}

	result, opErr := fx.manager.Redeem(tokenFromURL(t, view.URL), "")
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	if result.Content != nil {
		t.Error("ссылка только с VIEW не должна отдавать содержимое")
	}
	if result.File == nil || result.File.Name != "report.pdf" {
		t.Errorf("метаданные должны присутствовать: %+v", result.File)
	}
}

func TestRedeem_RecordsActivityAsShareLink(t *testing.T) {
	fx := newLinkFixture(t)

	view, opErr := fx.manager.Issue(IssueParams{
		FileID:       fx.fileID,
		IssuerID:     fx.owner,
		Capabilities: []model.Capability{model.CapView},
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}

	if _, opErr := fx.manager.Redeem(tokenFromURL(t, view.URL), ""); opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}

	entries := fx.activity.Query("project-1", 0)
	// Новейшая запись первой: погашение после выдачи
	if len(entries) != 2 {
		t.Fatalf("ожидались 2 записи журнала, получено %d", len(entries))
	}
	if entries[0].EventType != model.EventLinkRedeemed {
		t.Errorf("ожидалось share_link.redeemed, получено %s", entries[0].EventType)
	}
	if entries[0].UserID != redeemUserID {
		t.Errorf("погашение анонимно: ожидался user %q, получен %q", redeemUserID, entries[0].UserID)
	}
}

func TestGenerateToken_Unpredictable(t *testing.T) {
	t1 := generateToken()
	t2 := generateToken()
	if t1 == t2 {
		t.Error("токены должны быть уникальными")
	}
	if len(t1) != 64 {
		t.Errorf("токен должен быть 64 hex-символа, получено %d", len(t1))
	}
}

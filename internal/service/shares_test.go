package service

import (
	"net/http"
	"testing"

	"github.com/bigkaa/sharevault/internal/domain/model"
	"github.com/bigkaa/sharevault/internal/storage/catalog"
)

func newSharesFixture(t *testing.T) (*SharesService, *PermissionRegistry, *catalog.Catalog, *ActivityRecorder) {
	t.Helper()
	cat := newTestCatalog(t, "file-1", "alice")
	registry := NewPermissionRegistry(cat, testLogger())
	activity := NewActivityRecorder(testLogger())
	return NewSharesService(registry, cat, activity, testLogger()), registry, cat, activity
}

func TestShareWithUser_GrantsPermissions(t *testing.T) {
	svc, registry, _, activity := newSharesFixture(t)

	share, opErr := svc.ShareWithUser(ShareWithUserParams{
		FileID:       "file-1",
		GrantorID:    "alice",
		GranteeID:    "bob",
		Capabilities: []model.Capability{model.CapView, model.CapDownload},
		Message:      "смотри отчёт",
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	if share.ShareID == "" {
		t.Error("share_id должен быть присвоен")
	}

	// Права записаны в реестр
	if !registry.HasCapability("file-1", "bob", model.CapDownload) {
		t.Error("получатель должен иметь выданные права")
	}
	if registry.HasCapability("file-1", "bob", model.CapDelete) {
		t.Error("получатель не должен иметь невыданных прав")
	}

	// Событие в журнале
	entries := activity.Query("project-1", 0)
	if len(entries) != 1 || entries[0].EventType != model.EventUserShared {
		t.Errorf("ожидалась запись share.user, получено %+v", entries)
	}
}

func TestShareWithUser_RequiresShare(t *testing.T) {
	svc, _, _, _ := newSharesFixture(t)

	_, opErr := svc.ShareWithUser(ShareWithUserParams{
		FileID:       "file-1",
		GrantorID:    "mallory",
		GranteeID:    "bob",
		Capabilities: []model.Capability{model.CapView},
	})
	if opErr == nil || opErr.StatusCode != http.StatusForbidden {
		t.Errorf("выдача без SHARE должна отклоняться со статусом 403, получено %v", opErr)
	}
}

func TestShareWithUser_FileNotFound(t *testing.T) {
	svc, _, _, _ := newSharesFixture(t)

	_, opErr := svc.ShareWithUser(ShareWithUserParams{
		FileID:       "missing",
		GrantorID:    "alice",
		GranteeID:    "bob",
		Capabilities: []model.Capability{model.CapView},
	})
	if opErr == nil || opErr.StatusCode != http.StatusNotFound {
		t.Errorf("ожидался статус 404, получено %v", opErr)
	}
}

func TestShareByEmail_NoPermissionsUntilAccepted(t *testing.T) {
	svc, registry, _, activity := newSharesFixture(t)

	share, opErr := svc.ShareByEmail(ShareByEmailParams{
		FileID:       "file-1",
		GrantorID:    "alice",
		Email:        "bob@example.com",
		Capabilities: []model.Capability{model.CapView},
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	if share.Accepted {
		t.Error("приглашение не должно быть принято при создании")
	}

	// До принятия права не выдаются
	if registry.HasCapability("file-1", "bob@example.com", model.CapView) {
		t.Error("права не должны выдаваться до принятия приглашения")
	}

	accepted, opErr := svc.AcceptEmailShare(share.ShareID, "bob")
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	if !accepted.Accepted {
		t.Error("приглашение должно быть помечено принятым")
	}

	entries := activity.Query("project-1", 0)
	if len(entries) != 2 {
		t.Fatalf("ожидались 2 записи журнала, получено %d", len(entries))
	}
	if entries[0].EventType != model.EventEmailShareAccepted {
		t.Errorf("новейшей должна быть share.email.accepted, получено %s", entries[0].EventType)
	}
}

func TestAcceptEmailShare_NotFound(t *testing.T) {
	svc, _, _, _ := newSharesFixture(t)

	_, opErr := svc.AcceptEmailShare("missing", "bob")
	if opErr == nil || opErr.StatusCode != http.StatusNotFound {
		t.Errorf("ожидался статус 404, получено %v", opErr)
	}
}

func TestListUserShares(t *testing.T) {
	svc, _, _, _ := newSharesFixture(t)

	for _, grantee := range []string{"bob", "carol"} {
		if _, opErr := svc.ShareWithUser(ShareWithUserParams{
			FileID:       "file-1",
			GrantorID:    "alice",
			GranteeID:    grantee,
			Capabilities: []model.Capability{model.CapView},
		}); opErr != nil {
			t.Fatalf("неожиданная ошибка: %v", opErr)
		}
	}

	shares := svc.ListUserShares("file-1")
	if len(shares) != 2 {
		t.Errorf("ожидались 2 выдачи, получено %d", len(shares))
	}
	if shares := svc.ListUserShares("other-file"); len(shares) != 0 {
		t.Errorf("чужой файл должен быть без выдач, получено %d", len(shares))
	}
}

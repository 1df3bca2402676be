package service

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/bigkaa/sharevault/internal/domain/model"
	"github.com/bigkaa/sharevault/internal/storage/catalog"
	"github.com/bigkaa/sharevault/internal/storage/filestore"
)

func newUploadFixture(t *testing.T) (*UploadService, *catalog.Catalog, *ActivityRecorder) {
	t.Helper()
	store, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	cat := catalog.New(testLogger())
	activity := NewActivityRecorder(testLogger())
	policy := NewSizePolicy(1024, testLogger())
	return NewUploadService(policy, store, cat, activity, testLogger()), cat, activity
}

func TestUpload_Success(t *testing.T) {
	svc, cat, activity := newUploadFixture(t)

	content := []byte("pdf-данные")
	rec, opErr := svc.Upload(UploadParams{
		Reader:           bytes.NewReader(content),
		OriginalFilename: "report.pdf",
		ProjectID:        "project-1",
		Size:             int64(len(content)),
		UploadedBy:       "alice",
		Description:      "квартальный отчёт",
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}

	if rec.FileID == "" {
		t.Error("file_id должен быть присвоен")
	}
	if rec.Format != model.FormatPDF || rec.Type != model.TypeDocument {
		t.Errorf("формат должен выводиться из расширения: %s/%s", rec.Type, rec.Format)
	}
	if rec.Size != int64(len(content)) {
		t.Errorf("размер: ожидалось %d, получено %d", len(content), rec.Size)
	}
	if rec.Shared {
		t.Error("новый файл не должен быть shared")
	}

	// Файл зарегистрирован в каталоге
	if cat.Get(rec.FileID) == nil {
		t.Error("файл должен быть в каталоге")
	}

	// Журнал активности
	entries := activity.Query("project-1", 0)
	if len(entries) != 1 || entries[0].EventType != model.EventFileUploaded {
		t.Errorf("ожидалась запись file.uploaded, получено %+v", entries)
	}
}

func TestUpload_DeclaredFormatOverridesExtension(t *testing.T) {
	svc, _, _ := newUploadFixture(t)

	rec, opErr := svc.Upload(UploadParams{
		Reader:           bytes.NewReader([]byte("data")),
		OriginalFilename: "data.bin",
		ProjectID:        "project-1",
		Size:             4,
		UploadedBy:       "alice",
		DeclaredFormat:   "PNG",
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	if rec.Format != model.FormatPNG || rec.Type != model.TypeImage {
		t.Errorf("объявленный формат имеет приоритет: %s/%s", rec.Type, rec.Format)
	}
}

func TestUpload_UnknownExtensionIsOther(t *testing.T) {
	svc, _, _ := newUploadFixture(t)

	rec, opErr := svc.Upload(UploadParams{
		Reader:           bytes.NewReader([]byte("data")),
		OriginalFilename: "firmware.xyz",
		ProjectID:        "project-1",
		Size:             4,
		UploadedBy:       "alice",
	})
	if opErr != nil {
		t.Fatalf("неожиданная ошибка: %v", opErr)
	}
	if rec.Format != model.FormatOther || rec.Type != model.TypeOther {
		t.Errorf("неизвестное расширение должно давать OTHER: %s/%s", rec.Type, rec.Format)
	}
}

func TestUpload_RejectedBySizePolicy(t *testing.T) {
	svc, cat, activity := newUploadFixture(t)

	// Лимит фикстуры 1024 байта
	_, opErr := svc.Upload(UploadParams{
		Reader:           bytes.NewReader(make([]byte, 2048)),
		OriginalFilename: "big.pdf",
		ProjectID:        "project-1",
		Size:             2048,
		UploadedBy:       "alice",
	})
	if opErr == nil {
		t.Fatal("загрузка сверх лимита должна отклоняться")
	}
	if opErr.StatusCode != http.StatusBadRequest {
		t.Errorf("ожидался статус 400, получен %d", opErr.StatusCode)
	}

	// Отклонённая загрузка не оставляет следов
	if cat.Count() != 0 {
		t.Error("отклонённый файл не должен попадать в каталог")
	}
	if activity.Count() != 0 {
		t.Error("отклонённая загрузка не должна фиксироваться в журнале")
	}
}

func TestUpload_ExactLimitPasses(t *testing.T) {
	svc, _, _ := newUploadFixture(t)

	// Граница включительная
	_, opErr := svc.Upload(UploadParams{
		Reader:           bytes.NewReader(make([]byte, 1024)),
		OriginalFilename: "exact.pdf",
		ProjectID:        "project-1",
		Size:             1024,
		UploadedBy:       "alice",
	})
	if opErr != nil {
		t.Errorf("файл ровно в лимит должен проходить: %v", opErr)
	}
}

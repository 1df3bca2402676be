package service

import (
	"testing"

	"github.com/bigkaa/sharevault/internal/domain/model"
)

func TestActivityRecorder_RecordAndQuery(t *testing.T) {
	rec := NewActivityRecorder(testLogger())

	rec.Record("project-1", "alice", model.EventFileUploaded, map[string]string{"file_id": "f1"})
	rec.Record("project-1", "alice", model.EventLinkIssued, nil)
	rec.Record("project-2", "bob", model.EventFileUploaded, nil)

	entries := rec.Query("project-1", 0)
	if len(entries) != 2 {
		t.Fatalf("ожидались 2 записи project-1, получено %d", len(entries))
	}
	// Новейшие первыми
	if entries[0].EventType != model.EventLinkIssued {
		t.Errorf("первой должна быть новейшая запись, получено %s", entries[0].EventType)
	}
	if entries[1].Details["file_id"] != "f1" {
		t.Errorf("details должны сохраняться: %+v", entries[1].Details)
	}
}

func TestActivityRecorder_Limit(t *testing.T) {
	rec := NewActivityRecorder(testLogger())

	rec.Record("project-1", "alice", model.EventFileUploaded, nil)
	rec.Record("project-1", "alice", model.EventLinkIssued, nil)
	rec.Record("project-1", "alice", model.EventLinkRedeemed, nil)

	entries := rec.Query("project-1", 2)
	if len(entries) != 2 {
		t.Fatalf("limit=2 должен обрезать выдачу, получено %d", len(entries))
	}
	// Остаются две новейшие
	if entries[0].EventType != model.EventLinkRedeemed || entries[1].EventType != model.EventLinkIssued {
		t.Errorf("должны остаться новейшие записи: %s, %s", entries[0].EventType, entries[1].EventType)
	}
}

func TestActivityRecorder_StableOrderOnEqualTimestamps(t *testing.T) {
	rec := NewActivityRecorder(testLogger())

	// Записи подряд почти наверняка получают близкие (иногда равные)
	// timestamp; порядковый номер вставки обязан дать стабильный порядок.
	for i := 0; i < 50; i++ {
		rec.Record("project-1", "alice", model.EventFileUploaded, nil)
	}

	entries := rec.Query("project-1", 0)
	if len(entries) != 50 {
		t.Fatalf("ожидалось 50 записей, получено %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Seq <= entries[i].Seq && entries[i-1].Timestamp.Equal(entries[i].Timestamp) {
			t.Fatalf("нарушен порядок выдачи на позициях %d-%d", i-1, i)
		}
	}
}

func TestActivityRecorder_SkipsIncompleteEntries(t *testing.T) {
	rec := NewActivityRecorder(testLogger())

	// Record никогда не возвращает ошибку: неполные записи пропускаются
	rec.Record("", "alice", model.EventFileUploaded, nil)
	rec.Record("project-1", "", model.EventFileUploaded, nil)
	rec.Record("project-1", "alice", "", nil)

	if got := rec.Count(); got != 0 {
		t.Errorf("неполные записи должны пропускаться, в журнале %d", got)
	}
}

func TestActivityRecorder_DetailsCopied(t *testing.T) {
	rec := NewActivityRecorder(testLogger())

	details := map[string]string{"file_id": "f1"}
	rec.Record("project-1", "alice", model.EventFileUploaded, details)

	// Мутация исходной map не должна менять журнал
	details["file_id"] = "hacked"

	entries := rec.Query("project-1", 0)
	if entries[0].Details["file_id"] != "f1" {
		t.Error("details должны копироваться при записи")
	}
}

func TestActivityRecorder_EmptyProject(t *testing.T) {
	rec := NewActivityRecorder(testLogger())
	rec.Record("project-1", "alice", model.EventFileUploaded, nil)

	if entries := rec.Query("other-project", 0); len(entries) != 0 {
		t.Errorf("чужой проект должен быть пустым, получено %d записей", len(entries))
	}
}

package model

import (
	"testing"
	"time"
)

func TestFormatFromName(t *testing.T) {
	tests := []struct {
		name     string
		expected FileFormat
	}{
		{"report.pdf", FormatPDF},
		{"report.PDF", FormatPDF},
		{"photo.jpeg", FormatJPEG},
		{"archive.tar", FormatTAR},
		{"song.mp3", FormatMP3},
		{"movie.mkv", FormatMKV},
		{"page.html", FormatHTML},
		{"data.csv", FormatCSV},
		{"noext", FormatOther},
		{"firmware.xyz", FormatOther},
		{"", FormatOther},
	}

	for _, tt := range tests {
		if got := FormatFromName(tt.name); got != tt.expected {
			t.Errorf("FormatFromName(%q): ожидалось %s, получено %s", tt.name, tt.expected, got)
		}
	}
}

func TestTypeForFormat(t *testing.T) {
	tests := []struct {
		format   FileFormat
		expected FileType
	}{
		{FormatPDF, TypeDocument},
		{FormatMD, TypeDocument},
		{FormatPNG, TypeImage},
		{FormatWEBP, TypeImage},
		{FormatMP3, TypeAudio},
		{FormatWAV, TypeAudio},
		{FormatMP4, TypeVideo},
		{FormatMOV, TypeVideo},
		{FormatZIP, TypeArchive},
		{FormatGZ, TypeArchive},
		{FormatOther, TypeOther},
	}

	for _, tt := range tests {
		if got := TypeForFormat(tt.format); got != tt.expected {
			t.Errorf("TypeForFormat(%s): ожидалось %s, получено %s", tt.format, tt.expected, got)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if got := ParseFormat("pdf"); got != FormatPDF {
		t.Errorf("ParseFormat без учёта регистра: получено %s", got)
	}
	if got := ParseFormat("UNKNOWN"); got != FormatOther {
		t.Errorf("неизвестный формат должен давать OTHER: %s", got)
	}
	if got := ParseFormat(""); got != FormatOther {
		t.Errorf("пустая строка должна давать OTHER: %s", got)
	}
}

func TestCapabilitySet_Allows(t *testing.T) {
	set := NewCapabilitySet(CapView, CapDownload)

	if !set.Allows(CapView) || !set.Allows(CapDownload) {
		t.Error("явно перечисленные права должны разрешаться")
	}
	if set.Allows(CapDelete) {
		t.Error("неперечисленное право не должно разрешаться")
	}

	full := NewCapabilitySet(CapFullAccess)
	for _, c := range []Capability{CapView, CapDownload, CapEdit, CapDelete, CapShare} {
		if !full.Allows(c) {
			t.Errorf("FULL_ACCESS должен разрешать %s", c)
		}
	}
	// Contains проверяет строго, без wildcard
	if full.Contains(CapView) {
		t.Error("Contains не должен учитывать FULL_ACCESS")
	}
}

func TestParseCapability(t *testing.T) {
	if _, err := ParseCapability("VIEW"); err != nil {
		t.Errorf("VIEW должен парситься: %v", err)
	}
	if _, err := ParseCapability("view"); err == nil {
		t.Error("права чувствительны к регистру")
	}
	if _, err := ParseCapability("SUPERUSER"); err == nil {
		t.Error("неизвестное право должно давать ошибку")
	}
}

func TestShareLink_IsExpiredIsExhausted(t *testing.T) {
	link := &ShareLink{}
	now := time.Now().UTC()

	if link.IsExpired(now) {
		t.Error("ссылка без срока не истекает")
	}
	if link.IsExhausted() {
		t.Error("ссылка без лимита не исчерпывается")
	}

	past := now.Add(-1)
	link.ExpiresAt = &past
	if !link.IsExpired(now) {
		t.Error("ссылка с истёкшим сроком должна считаться просроченной")
	}

	maxUses := 2
	link.MaxUses = &maxUses
	link.UseCount = 2
	if !link.IsExhausted() {
		t.Error("use_count == max_uses означает исчерпание")
	}
	link.UseCount = 1
	if link.IsExhausted() {
		t.Error("use_count < max_uses не исчерпание")
	}
}

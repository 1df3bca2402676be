// format.go — определение формата файла по расширению имени.
package model

import (
	"path/filepath"
	"strings"
)

// FileFormat — формат файла.
type FileFormat string

const (
	FormatPDF  FileFormat = "PDF"
	FormatDOC  FileFormat = "DOC"
	FormatDOCX FileFormat = "DOCX"
	FormatXLS  FileFormat = "XLS"
	FormatXLSX FileFormat = "XLSX"
	FormatPPT  FileFormat = "PPT"
	FormatPPTX FileFormat = "PPTX"
	FormatTXT  FileFormat = "TXT"
	FormatMD   FileFormat = "MD"
	FormatCSV  FileFormat = "CSV"
	FormatJSON FileFormat = "JSON"
	FormatXML  FileFormat = "XML"
	FormatHTML FileFormat = "HTML"
	FormatJPG  FileFormat = "JPG"
	FormatJPEG FileFormat = "JPEG"
	FormatPNG  FileFormat = "PNG"
	FormatGIF  FileFormat = "GIF"
	FormatSVG  FileFormat = "SVG"
	FormatWEBP FileFormat = "WEBP"
	FormatMP3  FileFormat = "MP3"
	FormatWAV  FileFormat = "WAV"
	FormatMP4  FileFormat = "MP4"
	FormatAVI  FileFormat = "AVI"
	FormatMKV  FileFormat = "MKV"
	FormatMOV  FileFormat = "MOV"
	FormatZIP  FileFormat = "ZIP"
	FormatRAR  FileFormat = "RAR"
	FormatTAR  FileFormat = "TAR"
	FormatGZ   FileFormat = "GZ"
	// FormatOther — неизвестный или отсутствующий формат
	FormatOther FileFormat = "OTHER"
)

// formatByExtension — таблица соответствия расширений форматам.
var formatByExtension = map[string]FileFormat{
	".pdf":  FormatPDF,
	".doc":  FormatDOC,
	".docx": FormatDOCX,
	".xls":  FormatXLS,
	".xlsx": FormatXLSX,
	".ppt":  FormatPPT,
	".pptx": FormatPPTX,
	".txt":  FormatTXT,
	".md":   FormatMD,
	".csv":  FormatCSV,
	".json": FormatJSON,
	".xml":  FormatXML,
	".html": FormatHTML,
	".jpg":  FormatJPG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".svg":  FormatSVG,
	".webp": FormatWEBP,
	".mp3":  FormatMP3,
	".wav":  FormatWAV,
	".mp4":  FormatMP4,
	".avi":  FormatAVI,
	".mkv":  FormatMKV,
	".mov":  FormatMOV,
	".zip":  FormatZIP,
	".rar":  FormatRAR,
	".tar":  FormatTAR,
	".gz":   FormatGZ,
}

// typeByFormat — соответствие форматов обобщённым типам.
var typeByFormat = map[FileFormat]FileType{
	FormatPDF:  TypeDocument,
	FormatDOC:  TypeDocument,
	FormatDOCX: TypeDocument,
	FormatXLS:  TypeDocument,
	FormatXLSX: TypeDocument,
	FormatPPT:  TypeDocument,
	FormatPPTX: TypeDocument,
	FormatTXT:  TypeDocument,
	FormatMD:   TypeDocument,
	FormatCSV:  TypeDocument,
	FormatJSON: TypeDocument,
	FormatXML:  TypeDocument,
	FormatHTML: TypeDocument,
	FormatJPG:  TypeImage,
	FormatJPEG: TypeImage,
	FormatPNG:  TypeImage,
	FormatGIF:  TypeImage,
	FormatSVG:  TypeImage,
	FormatWEBP: TypeImage,
	FormatMP3:  TypeAudio,
	FormatWAV:  TypeAudio,
	FormatMP4:  TypeVideo,
	FormatAVI:  TypeVideo,
	FormatMKV:  TypeVideo,
	FormatMOV:  TypeVideo,
	FormatZIP:  TypeArchive,
	FormatRAR:  TypeArchive,
	FormatTAR:  TypeArchive,
	FormatGZ:   TypeArchive,
}

// FormatFromName выводит формат из расширения имени файла.
// Неизвестное или отсутствующее расширение даёт FormatOther.
func FormatFromName(name string) FileFormat {
	ext := strings.ToLower(filepath.Ext(name))
	if f, ok := formatByExtension[ext]; ok {
		return f
	}
	return FormatOther
}

// ParseFormat валидирует объявленный формат. Пустая строка и
// неизвестные значения дают FormatOther.
func ParseFormat(s string) FileFormat {
	f := FileFormat(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := typeByFormat[f]; ok {
		return f
	}
	return FormatOther
}

// TypeForFormat возвращает обобщённый тип для формата.
func TypeForFormat(f FileFormat) FileType {
	if t, ok := typeByFormat[f]; ok {
		return t
	}
	return TypeOther
}

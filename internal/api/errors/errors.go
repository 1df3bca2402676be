// Пакет errors — конструкторы стандартных ошибок Share Vault.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // конфликт имени со stdlib сознательный, как в остальных модулях

import (
	"encoding/json"
	"net/http"
)

// Машиночитаемые коды ошибок.
const (
	// CodeValidationError — 400: нарушение лимита размера, просроченная
	// или исчерпанная ссылка, ошибка дискового ввода-вывода.
	// Ошибки хранилища сознательно отдаются клиенту как 400 с исходным
	// сообщением, а не как 500.
	CodeValidationError = "VALIDATION_ERROR"
	// CodeNotFound — 404: файл, проект или ссылка не существуют.
	CodeNotFound = "NOT_FOUND"
	// CodeUnauthorized — 401: пароль ссылки отсутствует или неверен,
	// либо невалидный JWT.
	CodeUnauthorized = "UNAUTHORIZED"
	// CodeForbidden — 403: у вызывающего нет требуемого права.
	CodeForbidden = "FORBIDDEN"
	// CodeConflict — 409: зарезервировано для CRUD-слоя выше движка.
	CodeConflict = "CONFLICT"
	// CodeInternalError — 500: внутренняя ошибка.
	CodeInternalError = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}

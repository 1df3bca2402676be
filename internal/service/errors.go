// errors.go — типизированная ошибка операций сервисного слоя.
package service

import (
	"fmt"
	"net/http"

	apierrors "github.com/bigkaa/sharevault/internal/api/errors"
)

// OpError — ошибка операции с HTTP-кодом и машиночитаемым кодом.
// Все сервисы возвращают её вместо обычного error, чтобы HTTP-слой
// мог сформировать стандартный ответ без разбора текста.
type OpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// errNotFound — 404: файл, проект или ссылка не существуют.
func errNotFound(format string, args ...any) *OpError {
	return &OpError{
		StatusCode: http.StatusNotFound,
		Code:       apierrors.CodeNotFound,
		Message:    fmt.Sprintf(format, args...),
	}
}

// errForbidden — 403: у вызывающего нет требуемого права.
func errForbidden(format string, args ...any) *OpError {
	return &OpError{
		StatusCode: http.StatusForbidden,
		Code:       apierrors.CodeForbidden,
		Message:    fmt.Sprintf(format, args...),
	}
}

// errUnauthorized — 401: пароль ссылки отсутствует или неверен.
func errUnauthorized(format string, args ...any) *OpError {
	return &OpError{
		StatusCode: http.StatusUnauthorized,
		Code:       apierrors.CodeUnauthorized,
		Message:    fmt.Sprintf(format, args...),
	}
}

// errInternal — 500: внутренняя ошибка.
func errInternal(format string, args ...any) *OpError {
	return &OpError{
		StatusCode: http.StatusInternalServerError,
		Code:       apierrors.CodeInternalError,
		Message:    fmt.Sprintf(format, args...),
	}
}

// errBadRequest — 400: нарушение лимита, просроченная/исчерпанная
// ссылка, ошибка дискового ввода-вывода.
func errBadRequest(format string, args ...any) *OpError {
	return &OpError{
		StatusCode: http.StatusBadRequest,
		Code:       apierrors.CodeValidationError,
		Message:    fmt.Sprintf(format, args...),
	}
}

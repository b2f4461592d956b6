package service

import (
	"errors"
)

// Ошибки валидации параметров. Невалидные числовые параметры отчётов и
// очистки отклоняются, а не подменяются дефолтом: молчаливая подмена в
// контексте отчётов и удаления маскирует ошибки оператора.
var (
	ErrInvalidArticleID = errors.New("article id должен быть положительным числом")
	ErrInvalidDays      = errors.New("days должен быть в диапазоне 1..365")
	ErrInvalidLimit     = errors.New("limit должен быть в диапазоне 1..100")
	ErrInvalidMonths    = errors.New("months должен быть в диапазоне 1..120")
	ErrInvalidPage      = errors.New("page должен быть положительным числом")
	ErrInvalidPageSize  = errors.New("page_size должен быть в диапазоне 1..500")
)

// Границы параметров
const (
	maxDays     = 365
	maxLimit    = 100
	maxPageSize = 500
)

// IsValidationError сообщает, относится ли ошибка к валидации параметров
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidArticleID) ||
		errors.Is(err, ErrInvalidDays) ||
		errors.Is(err, ErrInvalidLimit) ||
		errors.Is(err, ErrInvalidMonths) ||
		errors.Is(err, ErrInvalidPage) ||
		errors.Is(err, ErrInvalidPageSize)
}

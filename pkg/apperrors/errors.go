package apperrors

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrNotFound возвращается, когда запись не найдена (обобщенная ошибка)
	ErrNotFound = errors.New("запись не найдена")

	// ErrCacheMiss возвращается, когда запись не найдена в кэше
	ErrCacheMiss = redis.Nil

	// ErrRecordNotFound возвращается, когда запись не найдена в базе данных
	ErrRecordNotFound = gorm.ErrRecordNotFound

	// ErrValidation возвращается при некорректном или неполном теле запроса
	ErrValidation = errors.New("некорректные данные запроса")

	// ErrDuplicateIdentifier возвращается, если идентификатор уже занят
	ErrDuplicateIdentifier = errors.New("идентификатор уже существует")

	// ErrInvalidCredentials возвращается при неверном пароле
	ErrInvalidCredentials = errors.New("неверный пароль")

	// ErrUnauthenticated возвращается, если сессия отсутствует или истекла
	ErrUnauthenticated = errors.New("сессия не найдена")

	// IgnoredErrors содержит ошибки бизнес-логики, которые не должны
	// открывать circuit breaker и запускать повторные попытки
	IgnoredErrors = []error{
		ErrNotFound,
		ErrCacheMiss,
		ErrRecordNotFound,
		ErrValidation,
		ErrDuplicateIdentifier,
		ErrInvalidCredentials,
		ErrUnauthenticated,
	}
)

// IsNotFound проверяет, является ли ошибка ошибкой "запись не найдена"
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCacheMiss) ||
		errors.Is(err, ErrRecordNotFound)
}

// IsClientError сообщает, вызвана ли ошибка данными клиента, а не сбоем инфраструктуры
func IsClientError(err error) bool {
	for _, target := range IgnoredErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package service

import "errors"

// Определяем кастомные ошибки для сервисов
var (
	// ErrInvalidToken возвращается при попытке погасить несуществующий или
	// уже использованный токен верификации.
	ErrInvalidToken = errors.New("invalid or expired verification token")

	// ErrFileSetNotFound возвращается, когда по уникальному id не найдено ни
	// одного файла.
	ErrFileSetNotFound = errors.New("file set not found")
)

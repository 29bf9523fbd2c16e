package database

import "errors"

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate нарушение уникальности (code, document, email)
	ErrDuplicate = errors.New("duplicate value for unique field")

	// ErrNotAvailable недостаточно свободного инвентаря в запрошенном окне
	ErrNotAvailable = errors.New("item is not available for the requested window")

	// ErrConcurrentModification версия брони изменилась между чтением и записью
	ErrConcurrentModification = errors.New("booking was modified concurrently")

	// ErrForeignKey ссылка на несуществующую запись (например, client_id)
	ErrForeignKey = errors.New("referenced record does not exist")

	// ErrPastDate дата брони в прошлом
	ErrPastDate = errors.New("booking date is in the past")

	// ErrInvalidTransition недопустимый переход статуса
	ErrInvalidTransition = errors.New("status transition is not allowed")
)

package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	LastLoginAt  time.Time `json:"last_login_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is the server-side record behind an opaque cookie token.
// Токен случайный и никакой информации о пользователе не несёт.
type Session struct {
	Token    string    `json:"token"`
	UserID   int64     `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

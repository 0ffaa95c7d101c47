package model

import (
	"strconv"
	"time"
)

type Role string

const (
	RoleStudent    Role = "student"    // записывает приёмы только на себя
	RoleSupervisor Role = "supervisor" // видит и записывает всех студентов
)

type User struct {
	ID           int64     `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	LanguageCode string    `json:"language_code"`
	Role         Role      `json:"role"`
	ResourceID   string    `json:"resource_id"` // идентификатор студента во внешнем API
	CreatedAt    time.Time `json:"created_at"`
}

// Actor кто выполняет действие с расписанием
type Actor struct {
	UserID     int64
	Role       Role
	ResourceID string
}

// Actor возвращает действующее лицо для пользователя
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role, ResourceID: u.ResourceID}
}

func (u *User) IsSupervisor() bool {
	return u.Role == RoleSupervisor
}

// DefaultResourceID ресурс нового пользователя по умолчанию
func DefaultResourceID(telegramID int64) string {
	return "tg-" + strconv.FormatInt(telegramID, 10)
}

// Constrained роль ограничена собственным ресурсом
func (a Actor) Constrained() bool {
	return a.Role != RoleSupervisor
}

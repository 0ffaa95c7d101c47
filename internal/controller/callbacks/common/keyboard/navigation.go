package keyboard

import (
	"github.com/go-telegram/bot/models"
)

// Noop callback кнопок-подписей
const Noop = "noop"

// BackButton создаёт кнопку "Назад"
func BackButton(callbackData string) models.InlineKeyboardButton {
	return Button("⬅️ Назад", callbackData)
}

// BackToMainButton создаёт кнопку "В главное меню"
func BackToMainButton() models.InlineKeyboardButton {
	return Button("🏠 В главное меню", "back_to_main")
}

// CancelButton создаёт кнопку "Отмена"
func CancelButton(callbackData string) models.InlineKeyboardButton {
	return Button("❌ Отмена", callbackData)
}

// ConfirmButton создаёт кнопку "Подтвердить"
func ConfirmButton(callbackData string) models.InlineKeyboardButton {
	return Button("✅ Подтвердить", callbackData)
}

// LabelButton кнопка без действия
func LabelButton(text string) models.InlineKeyboardButton {
	return Button(text, Noop)
}

// AddBackButton добавляет кнопку "Назад" к builder
func (b *Builder) AddBackButton(callbackData string) *Builder {
	return b.Row(BackButton(callbackData))
}

// AddBackToMainButton добавляет кнопку "В главное меню" к builder
func (b *Builder) AddBackToMainButton() *Builder {
	return b.Row(BackToMainButton())
}

// AddConfirmCancel добавляет ряд Подтвердить/Отмена
func (b *Builder) AddConfirmCancel(confirmCallback, cancelCallback string) *Builder {
	return b.Row(ConfirmButton(confirmCallback), CancelButton(cancelCallback))
}

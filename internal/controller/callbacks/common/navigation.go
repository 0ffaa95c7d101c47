package common

import (
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MainMenu текст и клавиатура главного меню в зависимости от роли
func MainMenu(user *model.User) (string, *models.InlineKeyboardMarkup) {
	text := fmt.Sprintf("📋 <b>Главное меню</b>\n\n"+
		"Ваш идентификатор студента: <code>%s</code>\n\n"+
		"Доступные команды:\n"+
		"/calendar - Календарь на месяц\n"+
		"/week - Расписание недели\n"+
		"/appointments - Список приёмов\n"+
		"/book - Записать пациента\n"+
		"/help - Справка\n",
		html.EscapeString(user.ResourceID))

	if user.IsSupervisor() {
		text += "\n🎓 Вы руководитель: видите приёмы всех студентов и можете записывать к любому."
	} else {
		text += "\n/resource - Сменить идентификатор студента\n" +
			"/becomesupervisor - Стать руководителем"
	}

	kb := keyboard.NewBuilder().
		Row(
			keyboard.Button("📅 Календарь", CbCalendarOpen),
			keyboard.Button("🗓 Неделя", CbCalendarWeek),
		).
		Row(
			keyboard.Button("📋 Приёмы", CbListOpen),
			keyboard.Button("➕ Записать", CbBookNew),
		)

	return text, kb.Build()
}

// HandleBackToMain возвращает пользователя к главному меню
func HandleBackToMain(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	WithUser(ctx, b, callback, h, func(hc *HandlerContext) {
		hc.ClearState()

		text, kb := MainMenu(hc.User)
		if err := hc.ShowText(text, kb); err != nil {
			h.Logger.Error("Failed to show main menu", zap.Int64("telegram_id", hc.TelegramID), zap.Error(err))
		}
		hc.Answer("")
	})
}

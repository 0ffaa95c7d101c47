package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/appointments"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/booking"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/schedule"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/state"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 <b>Справка по командам</b>\n\n" +
	"/start - Начать работу с ботом\n" +
	"/calendar - Календарь приёмов на месяц\n" +
	"/week - Расписание недели картинкой\n" +
	"/appointments - Список приёмов с поиском и фильтрами\n" +
	"/book - Записать пациента\n" +
	"/cancel - Отменить текущий диалог\n" +
	"/help - Показать эту справку\n\n" +
	"Для студентов:\n" +
	"/resource &lt;id&gt; - Указать свой идентификатор студента\n" +
	"/becomesupervisor - Стать руководителем\n\n" +
	"Записать пациента на конкретный день можно из календаря: откройте день и нажмите «Записать на этот день»."

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From

	user, err := h.userService.RegisterUser(
		ctx,
		from.ID,
		from.Username,
		from.FirstName,
		from.LastName,
		from.LanguageCode,
	)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	menu, kb := common.MainMenu(user)
	text := fmt.Sprintf("👋 Привет, %s!\n\nЭто бот записи пациентов на приёмы учебной клиники.\n\n%s",
		html.EscapeString(user.FirstName), menu)
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, kb)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.", nil)
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID,
		"✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.", nil)
}

// HandleBecomeSupervisor обрабатывает команду /becomesupervisor
func (h *Handlers) HandleBecomeSupervisor(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	if user.IsSupervisor() {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "ℹ️ Вы уже руководитель.", nil)
		return
	}

	updated, err := h.userService.MakeSupervisor(ctx, user.TelegramID)
	if err != nil {
		h.logger.Error("Failed to make supervisor", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
		return
	}

	menu, kb := common.MainMenu(updated)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "🎓 Теперь вы руководитель!\n\n"+menu, kb)
}

// HandleResource обрабатывает команду /resource <id>
func (h *Handlers) HandleResource(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	arg := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/resource"))
	// /resource@botname id
	if strings.HasPrefix(arg, "@") {
		if _, rest, found := strings.Cut(arg, " "); found {
			arg = strings.TrimSpace(rest)
		} else {
			arg = ""
		}
	}

	if arg == "" {
		h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
			"🎓 Ваш идентификатор студента: <code>%s</code>\n\nЧтобы сменить его, отправьте /resource &lt;id&gt;",
			html.EscapeString(user.ResourceID)), nil)
		return
	}

	if err := validResourceID(arg); err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
			"❌ Идентификатор должен быть одним словом без двоеточий, не длиннее %d символов.", ResourceIDMaxLength))
		return
	}

	updated, err := h.userService.SetResource(ctx, user.TelegramID, arg)
	if err != nil {
		h.logger.Error("Failed to set resource", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"✅ Идентификатор студента: <code>%s</code>", html.EscapeString(updated.ResourceID)), nil)
}

// HandleCalendar обрабатывает команду /calendar
func (h *Handlers) HandleCalendar(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.sendCalendar(ctx, b, update, service.ModeMonth)
}

// HandleWeek обрабатывает команду /week
func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.sendCalendar(ctx, b, update, service.ModeWeek)
}

func (h *Handlers) sendCalendar(ctx context.Context, b *bot.Bot, update *models.Update, mode service.ViewMode) {
	user, ws, ok := h.requireWorkspace(ctx, b, update)
	if !ok {
		return
	}

	now := time.Now()
	ws.Calendar().SetMode(mode)
	ws.Calendar().GoTo(now)

	screen, err := schedule.Build(ctx, ws, user.IsSupervisor(), now)
	if errors.Is(err, service.ErrStaleFetch) {
		return
	}
	if err != nil {
		h.logger.Error("Failed to build calendar",
			zap.Int64("telegram_id", user.TelegramID),
			zap.String("mode", mode.String()),
			zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
		return
	}

	if err := schedule.Send(ctx, b, update.Message.Chat.ID, screen); err != nil {
		h.logger.Error("Failed to send calendar", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
	}
}

// HandleAppointments обрабатывает команду /appointments
func (h *Handlers) HandleAppointments(ctx context.Context, b *bot.Bot, update *models.Update) {
	_, ws, ok := h.requireWorkspace(ctx, b, update)
	if !ok {
		return
	}

	msg := h.sendMessage(ctx, b, update.Message.Chat.ID, "⏳ Загружаем приёмы...", nil)
	if msg == nil {
		return
	}
	appointments.Bind(b, ws, msg.Chat.ID, msg.ID, h.logger)

	text, kb, err := appointments.Load(ctx, ws)
	switch {
	case errors.Is(err, service.ErrStaleFetch):
		return
	case err != nil:
		text, kb = common.ErrorMessage(err), appointments.ErrorKeyboard()
	}
	h.editMessage(ctx, b, msg, text, kb)
}

// HandleBook обрабатывает команду /book
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	text, kb, err := booking.Begin(ctx, h.deps, user, "")
	if err != nil {
		h.logger.Error("Failed to begin booking", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, kb)
}

func (h *Handlers) editMessage(ctx context.Context, b *bot.Bot, msg *models.Message, text string, kb *models.InlineKeyboardMarkup) {
	params := &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}
	if _, err := b.EditMessageText(ctx, params); err != nil && !common.IsMessageNotModifiedError(err) {
		h.logger.Error("Failed to edit message", zap.Int("message_id", msg.ID), zap.Error(err))
	}
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	// Игнорируем команды (они обрабатываются другими handlers)
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	if currentState == state.StateNone {
		h.logger.Debug("No active state, ignoring message", zap.Int64("telegram_id", telegramID))
		return
	}

	h.logger.Debug("Dialog step",
		zap.Int64("telegram_id", telegramID),
		zap.String("state", string(currentState)))

	switch currentState {
	case state.StateBookPatient:
		h.handlePatientStep(ctx, b, update)
	case state.StateBookTitle:
		h.handleTitleStep(ctx, b, update)
	case state.StateBookDate:
		h.handleDateStep(ctx, b, update)
	case state.StateBookCost:
		h.handleCostStep(ctx, b, update)
	case state.StateSearchAppointments:
		h.handleSearchInput(ctx, b, update)
	case state.StateBookResource, state.StateBookStartSlot, state.StateBookEndSlot, state.StateBookConfirm:
		h.sendMessage(ctx, b, update.Message.Chat.ID,
			"👆 Используйте кнопки в сообщении выше или /cancel для отмены.", nil)
	default:
		h.logger.Warn("Unknown state", zap.String("state", string(currentState)))
	}
}

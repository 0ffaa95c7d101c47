package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/appointments"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/booking"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/state"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// handlePatientStep шаг ввода идентификатора пациента
func (h *Handlers) handlePatientStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	patientID := strings.TrimSpace(update.Message.Text)

	if patientID == "" || utf8.RuneCountInString(patientID) > PatientIDMaxLength {
		h.logger.Debug("Patient id rejected",
			zap.Int64("telegram_id", telegramID),
			zap.Int("length", utf8.RuneCountInString(patientID)))
		h.sendMessage(ctx, b, chatID, fmt.Sprintf(
			"❌ Идентификатор пациента должен быть от 1 до %d символов.\n\nПопробуйте ещё раз:", PatientIDMaxLength),
			booking.CancelKeyboard())
		return
	}

	if _, ok := h.stateManager.UpdateForm(telegramID, state.StateBookTitle, func(f *service.AppointmentForm) {
		f.PatientID = patientID
	}); !ok {
		h.dialogLost(ctx, b, chatID)
		return
	}

	h.sendMessage(ctx, b, chatID, booking.TitlePrompt, booking.CancelKeyboard())
}

// handleTitleStep шаг ввода названия. Если дата выбрана в календаре, сразу выбор времени.
func (h *Handlers) handleTitleStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	title := strings.TrimSpace(update.Message.Text)

	length := utf8.RuneCountInString(title)
	if length < TitleMinLength || length > TitleMaxLength {
		h.sendMessage(ctx, b, chatID, fmt.Sprintf(
			"❌ Название должно быть от %d до %d символов.\n\nПопробуйте ещё раз:", TitleMinLength, TitleMaxLength),
			booking.CancelKeyboard())
		return
	}

	current, ok := h.stateManager.Dialog(telegramID)
	if !ok {
		h.dialogLost(ctx, b, chatID)
		return
	}

	next := state.StateBookDate
	if current.Form.Date != "" {
		next = state.StateBookStartSlot
	}
	d, _ := h.stateManager.UpdateForm(telegramID, next, func(f *service.AppointmentForm) {
		f.Title = title
	})

	if next == state.StateBookDate {
		h.sendMessage(ctx, b, chatID, booking.DatePrompt, booking.CancelKeyboard())
		return
	}
	h.sendStartPicker(ctx, b, update, d)
}

// handleDateStep шаг ввода даты
func (h *Handlers) handleDateStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	user, ws, ok := h.requireWorkspace(ctx, b, update)
	if !ok {
		return
	}

	date, day, err := parseDate(update.Message.Text, ws.Location())
	if err != nil {
		h.sendMessage(ctx, b, chatID,
			"❌ Не удалось разобрать дату. Используйте формат ДД.ММ.ГГГГ, например 16.10.2026.\n\nПопробуйте ещё раз:",
			booking.CancelKeyboard())
		return
	}

	d, ok := h.stateManager.UpdateForm(telegramID, state.StateBookStartSlot, func(f *service.AppointmentForm) {
		f.Date = date
		f.StartLabel = ""
		f.EndLabel = ""
	})
	if !ok {
		h.dialogLost(ctx, b, chatID)
		return
	}

	// календарь переходит к дате записи, чтобы показать занятые слоты
	if !ws.Calendar().Covers(day) {
		ws.Calendar().GoTo(day)
		if _, err := ws.Calendar().Refresh(ctx); err != nil {
			h.logger.Debug("Calendar refresh for booking date failed",
				zap.Int64("telegram_id", user.TelegramID),
				zap.Error(err))
		}
	}

	h.sendStartPicker(ctx, b, update, d)
}

// handleCostStep шаг ввода стоимости
func (h *Handlers) handleCostStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	cost, err := parseCost(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, fmt.Sprintf(
			"❌ Стоимость должна быть числом от 0 до %d.\n\nПопробуйте ещё раз:", MaxCost),
			booking.CostKeyboard())
		return
	}

	d, ok := h.stateManager.UpdateForm(telegramID, state.StateBookConfirm, func(f *service.AppointmentForm) {
		f.Cost = &cost
	})
	if !ok {
		h.dialogLost(ctx, b, chatID)
		return
	}

	text, kb := common.BuildBookingSummary(d.Form, d.EditingID != "")
	h.sendMessage(ctx, b, chatID, text, kb)
}

// handleSearchInput текст поиска для списка приёмов. Новое сообщение становится
// экраном списка: отложенная выборка обновит именно его.
func (h *Handlers) handleSearchInput(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	search := strings.TrimSpace(update.Message.Text)

	if utf8.RuneCountInString(search) > SearchMaxLength {
		h.sendError(ctx, b, chatID, fmt.Sprintf("❌ Слишком длинный запрос. Максимум %d символов.", SearchMaxLength))
		return
	}

	user, ws, ok := h.requireWorkspace(ctx, b, update)
	if !ok {
		return
	}
	h.stateManager.ClearState(user.TelegramID)

	msg := h.sendMessage(ctx, b, chatID,
		fmt.Sprintf("🔍 Ищем «%s»...", html.EscapeString(search)), nil)
	if msg == nil {
		return
	}
	appointments.Bind(b, ws, msg.Chat.ID, msg.ID, h.logger)
	ws.List().SetSearch(search)
}

func (h *Handlers) sendStartPicker(ctx context.Context, b *bot.Bot, update *models.Update, d state.Dialog) {
	_, ws, ok := h.requireWorkspace(ctx, b, update)
	if !ok {
		return
	}
	text, kb := booking.StartPicker(ws, d.Form, d.EditingID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, kb)
}

func (h *Handlers) dialogLost(ctx context.Context, b *bot.Bot, chatID int64) {
	h.sendError(ctx, b, chatID, common.ErrorMessage(common.ErrDialogNotFound))
}

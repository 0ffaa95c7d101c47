package common

import (
	"context"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// WithUser создаёт HandlerContext и загружает пользователя.
// При ошибке сам отвечает пользователю и не вызывает handler.
func WithUser(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	if err := hc.LoadUser(); err != nil {
		h.Logger.Error("Failed to load user",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.Error(err))
		hc.AnswerAlert(ErrorMessage(err))
		return
	}

	handler(hc)
}

// WithWorkspace как WithUser, но дополнительно открывает рабочее пространство пользователя
func WithWorkspace(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	if err := hc.RequireWorkspace(); err != nil {
		h.Logger.Error("Failed to open workspace",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.Error(err))
		hc.AnswerAlert(ErrorMessage(err))
		return
	}

	handler(hc)
}

// WithSupervisor проверяет роль руководителя и открывает рабочее пространство
func WithSupervisor(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	WithWorkspace(ctx, b, callback, h, func(hc *HandlerContext) {
		if err := hc.RequireSupervisor(); err != nil {
			h.Logger.Warn("Supervisor check failed",
				zap.Int64("telegram_id", hc.TelegramID),
				zap.Error(err))
			hc.AnswerAlert(ErrorMessage(err))
			return
		}
		handler(hc)
	})
}

// HandleError обрабатывает ошибку и отправляет ответ пользователю.
// Ошибки сервисов уже залогированы ими, здесь только уровень Debug.
func HandleError(hc *HandlerContext, err error, operation string) {
	hc.Handler.Logger.Debug("Operation failed",
		zap.String("operation", operation),
		zap.Int64("telegram_id", hc.TelegramID),
		zap.Error(err))
	hc.AnswerAlert(ErrorMessage(err))
}

package common

import (
	"bytes"
	"context"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandlerContext содержит общие данные для обработки callback
type HandlerContext struct {
	Ctx        context.Context
	Bot        *bot.Bot
	Callback   *models.CallbackQuery
	Handler    *callbacktypes.Handler
	Message    *models.Message
	User       *model.User
	Workspace  *service.Workspace
	TelegramID int64
	ChatID     int64
}

// NewHandlerContext создаёт новый контекст обработчика
func NewHandlerContext(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
) *HandlerContext {
	msg := GetMessageFromCallback(callback)
	var chatID int64
	if msg != nil {
		chatID = msg.Chat.ID
	}

	return &HandlerContext{
		Ctx:        ctx,
		Bot:        b,
		Callback:   callback,
		Handler:    h,
		Message:    msg,
		TelegramID: callback.From.ID,
		ChatID:     chatID,
	}
}

// LoadUser загружает пользователя в контекст
func (hc *HandlerContext) LoadUser() error {
	user, err := hc.Handler.UserService.GetByTelegramID(hc.Ctx, hc.TelegramID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	hc.User = user
	return nil
}

// RequireUser проверяет что пользователь загружен
func (hc *HandlerContext) RequireUser() error {
	if hc.User == nil {
		return hc.LoadUser()
	}
	return nil
}

// RequireSupervisor проверяет что пользователь руководитель
func (hc *HandlerContext) RequireSupervisor() error {
	if err := hc.RequireUser(); err != nil {
		return err
	}
	if !hc.User.IsSupervisor() {
		return ErrNotSupervisor
	}
	return nil
}

// RequireWorkspace загружает пользователя и его рабочее пространство
func (hc *HandlerContext) RequireWorkspace() error {
	if err := hc.RequireUser(); err != nil {
		return err
	}
	hc.Workspace = hc.Handler.Workspaces.Get(hc.TelegramID, hc.User.Actor())
	return nil
}

// Answer отвечает на callback query
func (hc *HandlerContext) Answer(text string) {
	AnswerCallback(hc.Ctx, hc.Bot, hc.Callback.ID, text)
}

// AnswerAlert отвечает на callback query с alert
func (hc *HandlerContext) AnswerAlert(text string) {
	AnswerCallbackAlert(hc.Ctx, hc.Bot, hc.Callback.ID, text)
}

// EditMessage редактирует сообщение
func (hc *HandlerContext) EditMessage(text string, keyboard *models.InlineKeyboardMarkup) error {
	if hc.Message == nil {
		return ErrNoMessage
	}

	params := &bot.EditMessageTextParams{
		ChatID:    hc.ChatID,
		MessageID: hc.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	_, err := hc.Bot.EditMessageText(hc.Ctx, params)

	// Игнорируем ошибку "message is not modified" - это не настоящая ошибка
	if IsMessageNotModifiedError(err) {
		return nil
	}

	return err
}

// DeleteMessage удаляет сообщение
func (hc *HandlerContext) DeleteMessage() error {
	if hc.Message == nil {
		return ErrNoMessage
	}

	_, err := hc.Bot.DeleteMessage(hc.Ctx, &bot.DeleteMessageParams{
		ChatID:    hc.ChatID,
		MessageID: hc.Message.ID,
	})

	return err
}

// SendMessage отправляет новое сообщение
func (hc *HandlerContext) SendMessage(text string, keyboard *models.InlineKeyboardMarkup) (*models.Message, error) {
	params := &bot.SendMessageParams{
		ChatID:    hc.ChatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	// nil-указатель в интерфейсе ReplyMarkup ушёл бы в запрос как null
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	return hc.Bot.SendMessage(hc.Ctx, params)
}

// ShowText показывает текстовый экран в текущем сообщении.
// Сообщение с фото заменяется новым, и hc.Message указывает уже на него.
func (hc *HandlerContext) ShowText(text string, keyboard *models.InlineKeyboardMarkup) error {
	if hc.Message != nil && len(hc.Message.Photo) == 0 {
		return hc.EditMessage(text, keyboard)
	}
	if hc.Message != nil {
		_ = hc.DeleteMessage()
	}
	msg, err := hc.SendMessage(text, keyboard)
	if err != nil {
		return err
	}
	hc.Message = msg
	return nil
}

// ShowPhoto отправляет картинку новым сообщением и удаляет старое
func (hc *HandlerContext) ShowPhoto(img []byte, caption string, keyboard *models.InlineKeyboardMarkup) error {
	msg, err := hc.Bot.SendPhoto(hc.Ctx, &bot.SendPhotoParams{
		ChatID: hc.ChatID,
		Photo: &models.InputFileUpload{
			Filename: "week.png",
			Data:     bytes.NewReader(img),
		},
		Caption:     caption,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		return err
	}
	if hc.Message != nil {
		_ = hc.DeleteMessage()
	}
	hc.Message = msg
	return nil
}

// ClearState очищает состояние пользователя
func (hc *HandlerContext) ClearState() {
	hc.Handler.StateManager.ClearState(hc.TelegramID)
}

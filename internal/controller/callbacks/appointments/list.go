package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/state"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const (
	editTimeout  = 10 * time.Second
	loadingText  = "⏳ Загружаем приёмы..."
	maxPageSize  = 100
	searchPrompt = "🔍 Введите текст для поиска по названию, пациенту или лечению.\n\n/cancel - отменить"
)

// Bind привязывает отложенные выборки списка к сообщению: каждый применённый ответ
// перерисовывает его. Привязка одна на пространство, последнее открытое сообщение побеждает.
func Bind(b *bot.Bot, ws *service.Workspace, chatID int64, messageID int, logger *zap.Logger) {
	list := ws.List()
	loc := ws.Location()

	edit := func(text string, kb *models.InlineKeyboardMarkup) {
		ctx, cancel := context.WithTimeout(context.Background(), editTimeout)
		defer cancel()

		_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        text,
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: kb,
		})
		if err != nil && !common.IsMessageNotModifiedError(err) {
			logger.Warn("Failed to update list message",
				zap.Int64("chat_id", chatID),
				zap.Int("message_id", messageID),
				zap.Error(err))
		}
	}

	list.OnUpdate(func(snap service.PageSnapshot) {
		edit(common.BuildListScreen(snap, loc))
	})
	list.OnError(func(err error) {
		edit(common.ErrorMessage(err), ErrorKeyboard())
	})
}

// ErrorKeyboard клавиатура списка после неудачной загрузки
func ErrorKeyboard() *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().
		Row(keyboard.Button("🔄 Повторить", common.CbListRefresh)).
		Row(keyboard.Button("📅 Календарь", common.CbCalendarOpen)).
		Build()
}

// Load выполняет выборку сразу и возвращает экран списка
func Load(ctx context.Context, ws *service.Workspace) (string, *models.InlineKeyboardMarkup, error) {
	snap, err := ws.List().FetchNow(ctx)
	if err != nil {
		return "", nil, err
	}
	text, kb := common.BuildListScreen(snap, ws.Location())
	return text, kb, nil
}

// HandleOpen показывает список приёмов в текущем сообщении
func HandleOpen(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		hc.ClearState()
		refresh(hc)
	})
}

// HandleRefresh перезапрашивает текущую страницу
func HandleRefresh(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		refresh(hc)
	})
}

func refresh(hc *common.HandlerContext) {
	if err := hc.ShowText(loadingText, nil); err != nil {
		hc.Handler.Logger.Error("Failed to show list placeholder", zap.Error(err))
		hc.Answer("")
		return
	}
	Bind(hc.Bot, hc.Workspace, hc.ChatID, hc.Message.ID, hc.Handler.Logger)

	text, kb, err := Load(hc.Ctx, hc.Workspace)
	switch {
	case errors.Is(err, service.ErrStaleFetch):
		// ответ на более новую выборку перерисует сообщение сам
	case err != nil:
		_ = hc.EditMessage(common.ErrorMessage(err), ErrorKeyboard())
	default:
		if err := hc.EditMessage(text, kb); err != nil {
			hc.Handler.Logger.Error("Failed to show list", zap.Error(err))
		}
	}
	hc.Answer("")
}

// change применяет изменение запроса. Выборка отложена, сообщение обновит привязка.
func change(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler, apply func(hc *common.HandlerContext) error) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		if hc.Message == nil {
			common.HandleError(hc, common.ErrNoMessage, "list change")
			return
		}
		Bind(b, hc.Workspace, hc.ChatID, hc.Message.ID, h.Logger)

		if err := apply(hc); err != nil {
			common.HandleError(hc, err, "list change")
			return
		}
		hc.Answer("⏳")
	})
}

// HandlePage apl:p:<page>
func HandlePage(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	change(ctx, b, callback, h, func(hc *common.HandlerContext) error {
		page, err := common.CallbackInt(callback.Data, common.CbListPage)
		if err != nil {
			return err
		}
		hc.Workspace.List().SetPage(page)
		return nil
	})
}

// HandleStatusFilter apl:s:<index>, -1 снимает фильтр
func HandleStatusFilter(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	change(ctx, b, callback, h, func(hc *common.HandlerContext) error {
		idx, err := common.CallbackInt(callback.Data, common.CbListStatus)
		if err != nil {
			return err
		}

		var status model.Status
		if idx != common.StatusFilterAll {
			s, ok := formatting.StatusAt(idx)
			if !ok {
				return common.ErrInvalidFormat
			}
			status = s
		}
		hc.Workspace.List().SetStatusFilter(status)
		return nil
	})
}

// HandlePageSize apl:z:<size>
func HandlePageSize(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	change(ctx, b, callback, h, func(hc *common.HandlerContext) error {
		size, err := common.CallbackInt(callback.Data, common.CbListSize)
		if err != nil {
			return err
		}
		if size < 1 || size > maxPageSize {
			return common.ErrInvalidFormat
		}
		hc.Workspace.List().SetPageSize(size)
		return nil
	})
}

// HandleSort apl:o:<field>:<asc|desc>
func HandleSort(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	change(ctx, b, callback, h, func(hc *common.HandlerContext) error {
		args, err := common.CallbackArgs(callback.Data, common.CbListSort, 2)
		if err != nil {
			return err
		}
		order := model.SortOrder(args[1])
		if order != model.SortAsc && order != model.SortDesc {
			return common.ErrInvalidFormat
		}
		hc.Workspace.List().SetSort(args[0], order)
		return nil
	})
}

// HandleClearSearch apl:qc
func HandleClearSearch(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	change(ctx, b, callback, h, func(hc *common.HandlerContext) error {
		hc.Workspace.List().SetSearch("")
		return nil
	})
}

// HandleSearch переводит пользователя в ввод поискового запроса
func HandleSearch(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		if hc.Message != nil {
			Bind(b, hc.Workspace, hc.ChatID, hc.Message.ID, h.Logger)
		}
		h.StateManager.SetState(hc.TelegramID, state.StateSearchAppointments)

		if _, err := hc.SendMessage(searchPrompt, nil); err != nil {
			h.Logger.Error("Failed to send search prompt", zap.Error(err))
		}
		hc.Answer("")
	})
}

package schedule

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/calendar"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Screen экран календаря. Для недели Photo содержит картинку, Text идёт подписью.
type Screen struct {
	Text     string
	Keyboard *models.InlineKeyboardMarkup
	Photo    []byte
}

// Build загружает текущее окно календаря и собирает экран его режима.
// ErrStaleFetch означает, что экран нарисует более новый запрос.
func Build(ctx context.Context, ws *service.Workspace, supervisor bool, now time.Time) (Screen, error) {
	view := ws.Calendar()
	snap, err := view.Refresh(ctx)
	if err != nil {
		return Screen{}, err
	}

	loc := ws.Location()
	filter := ""
	if !ws.Actor().Constrained() {
		filter = view.ResourceFilter()
	}

	if snap.Mode == service.ModeWeek {
		img, err := common.GenerateWeekImage(snap.Window, snap.Appointments, now, loc)
		if err != nil {
			return Screen{}, err
		}
		text, kb := common.BuildWeekCaption(snap, loc, filter)
		return Screen{Text: text, Keyboard: kb, Photo: img}, nil
	}

	ref := snap.Reference
	grid := calendar.Populate(calendar.BuildMonthGrid(ref.Year(), ref.Month()), snap.Appointments)
	text, kb := common.BuildMonthScreen(snap, grid, calendar.DateOf(now.In(loc)), filter, supervisor)
	return Screen{Text: text, Keyboard: kb}, nil
}

// Send отправляет экран новым сообщением (для команд)
func Send(ctx context.Context, b *bot.Bot, chatID int64, s Screen) error {
	if s.Photo != nil {
		_, err := b.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID: chatID,
			Photo: &models.InputFileUpload{
				Filename: "week.png",
				Data:     bytes.NewReader(s.Photo),
			},
			Caption:     s.Text,
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: s.Keyboard,
		})
		return err
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        s.Text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: s.Keyboard,
	})
	return err
}

// show перерисовывает календарь в сообщении callback
func show(hc *common.HandlerContext) {
	s, err := Build(hc.Ctx, hc.Workspace, hc.User.IsSupervisor(), time.Now())
	if errors.Is(err, service.ErrStaleFetch) {
		hc.Answer("")
		return
	}
	if err != nil {
		common.HandleError(hc, err, "build calendar")
		return
	}

	if s.Photo != nil {
		err = hc.ShowPhoto(s.Photo, s.Text, s.Keyboard)
	} else {
		err = hc.ShowText(s.Text, s.Keyboard)
	}
	if err != nil {
		hc.Handler.Logger.Error("Failed to show calendar",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.Error(err))
	}
	hc.Answer("")
}

// HandleOpen показывает календарь в текущем режиме
func HandleOpen(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		hc.ClearState()
		show(hc)
	})
}

// HandleToday возвращает календарь к сегодняшнему дню
func HandleToday(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		hc.Workspace.Calendar().GoTo(time.Now())
		show(hc)
	})
}

// HandleMode переключает месяц и неделю
func HandleMode(mode service.ViewMode) callbacktypes.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
		common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
			hc.Workspace.Calendar().SetMode(mode)
			show(hc)
		})
	}
}

// HandleShift листает календарь: cal:m:-1, cal:w:1
func HandleShift(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		prefix, mode := common.CbMonthShift, service.ModeMonth
		if strings.HasPrefix(callback.Data, common.CbWeekShift) {
			prefix, mode = common.CbWeekShift, service.ModeWeek
		}

		n, err := common.CallbackInt(callback.Data, prefix)
		if err != nil {
			common.HandleError(hc, err, "parse shift")
			return
		}

		view := hc.Workspace.Calendar()
		// кнопки старого сообщения листают в своём режиме
		view.SetMode(mode)
		view.Shift(n)
		show(hc)
	})
}

// HandleDay показывает приёмы дня: cal:d:2026-10-16
func HandleDay(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		args, err := common.CallbackArgs(callback.Data, common.CbDay, 1)
		if err != nil {
			common.HandleError(hc, err, "parse day")
			return
		}
		loc := hc.Workspace.Location()
		day, err := time.ParseInLocation(model.DateLayout, args[0], loc)
		if err != nil {
			common.HandleError(hc, common.ErrInvalidFormat, "parse day")
			return
		}

		view := hc.Workspace.Calendar()
		if !view.Covers(day) {
			view.GoTo(day)
			if _, err := view.Refresh(hc.Ctx); err != nil && !errors.Is(err, service.ErrStaleFetch) {
				common.HandleError(hc, err, "load day")
				return
			}
		}

		date := calendar.DateOf(day)
		text, kb := common.BuildDayScreen(date, view.Day(date), loc)
		if err := hc.ShowText(text, kb); err != nil {
			h.Logger.Error("Failed to show day", zap.Error(err))
		}
		hc.Answer("")
	})
}

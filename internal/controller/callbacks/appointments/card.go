package appointments

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// find ищет приём среди загруженных данных пространства
func find(hc *common.HandlerContext, id string) (*model.Appointment, error) {
	a := hc.Workspace.Find(id)
	if a == nil {
		return nil, service.ErrAppointmentNotFound
	}
	return a, nil
}

func showCard(hc *common.HandlerContext, a *model.Appointment) {
	text, kb := common.BuildAppointmentScreen(a, hc.Workspace.Actor(), hc.Workspace.Location())
	if err := hc.ShowText(text, kb); err != nil {
		hc.Handler.Logger.Error("Failed to show appointment",
			zap.String("appointment_id", a.ID),
			zap.Error(err))
	}
}

// HandleView карточка приёма: apt:v:<id>
func HandleView(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		args, err := common.CallbackArgs(callback.Data, common.CbView, 1)
		if err != nil {
			common.HandleError(hc, err, "parse appointment")
			return
		}

		a, err := find(hc, args[0])
		if err != nil {
			common.HandleError(hc, err, "find appointment")
			return
		}

		showCard(hc, a)
		hc.Answer("")
	})
}

// HandleStatus быстрое действие: apt:st:<status index>:<id>
func HandleStatus(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		args, err := common.CallbackArgs(callback.Data, common.CbStatus, 2)
		if err != nil {
			common.HandleError(hc, err, "parse status")
			return
		}

		idx, err := strconv.Atoi(args[0])
		if err != nil {
			common.HandleError(hc, common.ErrInvalidFormat, "parse status")
			return
		}
		status, ok := formatting.StatusAt(idx)
		if !ok {
			common.HandleError(hc, common.ErrInvalidFormat, "parse status")
			return
		}

		updated, err := hc.Workspace.ChangeStatus(hc.Ctx, args[1], status)
		if err != nil {
			common.HandleError(hc, err, "change status")
			return
		}

		h.Logger.Debug("Status quick action applied",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.String("appointment_id", updated.ID),
			zap.String("status", string(updated.Status)))

		showCard(hc, updated)
		display := formatting.GetStatusDisplay(updated.Status)
		hc.Answer(fmt.Sprintf("%s %s", display.Emoji, display.Text))
	})
}

// HandleDelete подтверждение удаления: apt:del:<id>
func HandleDelete(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		args, err := common.CallbackArgs(callback.Data, common.CbDelete, 1)
		if err != nil {
			common.HandleError(hc, err, "parse delete")
			return
		}

		a, err := find(hc, args[0])
		if err != nil {
			common.HandleError(hc, err, "find appointment")
			return
		}

		text, kb := common.BuildDeleteConfirmScreen(a, hc.Workspace.Location())
		if err := hc.ShowText(text, kb); err != nil {
			h.Logger.Error("Failed to show delete confirmation", zap.Error(err))
		}
		hc.Answer("")
	})
}

// HandleDeleteConfirm удаляет приём: apt:delok:<id>
func HandleDeleteConfirm(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		args, err := common.CallbackArgs(callback.Data, common.CbDeleteConfirm, 1)
		if err != nil {
			common.HandleError(hc, err, "parse delete")
			return
		}

		if err := hc.Workspace.Delete(hc.Ctx, args[0]); err != nil {
			common.HandleError(hc, err, "delete appointment")
			return
		}

		h.Logger.Debug("Delete confirmed",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.String("appointment_id", args[0]))

		kb := keyboard.NewBuilder().
			Row(
				keyboard.Button("📅 Календарь", common.CbCalendarOpen),
				keyboard.Button("📋 Список", common.CbListOpen),
			).
			Build()
		if err := hc.ShowText("🗑 Приём удалён.", kb); err != nil {
			h.Logger.Error("Failed to show delete result", zap.Error(err))
		}
		hc.Answer("Удалено")
	})
}

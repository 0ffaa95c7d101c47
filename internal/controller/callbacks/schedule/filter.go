package schedule

import (
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleFilterPick список студентов для фильтра календаря и списка
func HandleFilterPick(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithSupervisor(ctx, b, callback, h, func(hc *common.HandlerContext) {
		students, err := h.UserService.Students(ctx)
		if err != nil {
			common.HandleError(hc, err, "list students")
			return
		}

		text := fmt.Sprintf("🎓 <b>Фильтр по студенту</b>\n\n%d %s. Выберите, чьи приёмы показывать.",
			len(students), formatting.PluralizeStudents(len(students)))
		if current := hc.Workspace.Calendar().ResourceFilter(); current != "" {
			text += fmt.Sprintf("\n\nСейчас: <code>%s</code>", html.EscapeString(current))
		}

		if err := hc.ShowText(text, common.BuildResourcePicker(students, common.CbFilterSet, true)); err != nil {
			h.Logger.Error("Failed to show student filter", zap.Error(err))
		}
		hc.Answer("")
	})
}

// HandleFilterSet применяет фильтр: flt:r:<resource>, flt:r:* снимает его
func HandleFilterSet(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithSupervisor(ctx, b, callback, h, func(hc *common.HandlerContext) {
		args, err := common.CallbackArgs(callback.Data, common.CbFilterSet, 1)
		if err != nil {
			common.HandleError(hc, err, "parse filter")
			return
		}

		resourceID := args[0]
		if resourceID == common.FilterAll {
			resourceID = ""
		}
		if err := hc.Workspace.SetResourceFilter(resourceID); err != nil {
			common.HandleError(hc, err, "set filter")
			return
		}

		h.Logger.Debug("Resource filter changed",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.String("resource_id", resourceID))
		show(hc)
	})
}

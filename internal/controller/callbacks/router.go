package callbacks

import (
	"context"
	"strings"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/appointments"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/booking"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/schedule"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// BackToMain callback возврата в главное меню
const BackToMain = "back_to_main"

// exact обработчики callback data без аргументов
var exact = map[string]callbacktypes.HandlerFunc{
	BackToMain:              common.HandleBackToMain,
	common.CbCalendarOpen:   schedule.HandleOpen,
	common.CbCalendarToday:  schedule.HandleToday,
	common.CbCalendarMonth:  schedule.HandleMode(service.ModeMonth),
	common.CbCalendarWeek:   schedule.HandleMode(service.ModeWeek),
	common.CbFilterPick:     schedule.HandleFilterPick,
	common.CbListOpen:       appointments.HandleOpen,
	common.CbListRefresh:    appointments.HandleRefresh,
	common.CbListSearch:     appointments.HandleSearch,
	common.CbListClear:      appointments.HandleClearSearch,
	common.CbBookNew:        booking.HandleNew,
	common.CbBookSkipCost:   booking.HandleSkipCost,
	common.CbBookConfirm:    booking.HandleConfirm,
	common.CbBookRetime:     booking.HandleRetime,
	common.CbBookCancel:     booking.HandleCancel,
}

// prefixed обработчики с аргументами. Порядок важен: apt:delok: проверяется раньше apt:del:.
var prefixed = []struct {
	prefix  string
	handler callbacktypes.HandlerFunc
}{
	{common.CbMonthShift, schedule.HandleShift},
	{common.CbWeekShift, schedule.HandleShift},
	{common.CbDay, schedule.HandleDay},
	{common.CbFilterSet, schedule.HandleFilterSet},
	{common.CbListPage, appointments.HandlePage},
	{common.CbListStatus, appointments.HandleStatusFilter},
	{common.CbListSize, appointments.HandlePageSize},
	{common.CbListSort, appointments.HandleSort},
	{common.CbView, appointments.HandleView},
	{common.CbStatus, appointments.HandleStatus},
	{common.CbDeleteConfirm, appointments.HandleDeleteConfirm},
	{common.CbDelete, appointments.HandleDelete},
	{common.CbMove, booking.HandleMove},
	{common.CbBookDay, booking.HandleNewOnDay},
	{common.CbBookResource, booking.HandleResource},
	{common.CbBookStart, booking.HandleStartSlot},
	{common.CbBookEnd, booking.HandleEndSlot},
}

// resolve находит обработчик для callback data, nil если он неизвестен
func resolve(data string) callbacktypes.HandlerFunc {
	if handler, ok := exact[data]; ok {
		return handler
	}
	for _, p := range prefixed {
		if strings.HasPrefix(data, p.prefix) {
			return p.handler
		}
	}
	return nil
}

// Route маршрутизирует callback по его данным
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	if data == keyboard.Noop {
		common.AnswerCallback(ctx, b, callback.ID, "")
		return
	}

	if handler := resolve(data); handler != nil {
		handler(ctx, b, callback, h)
		return
	}

	h.Logger.Warn("Unknown callback data", zap.String("data", data))
	common.AnswerCallback(ctx, b, callback.ID, "Неизвестная команда")
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/state"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/Freeeeeet/clinic_scheduler/internal/timeslot"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Begin начинает диалог записи. Руководитель сначала выбирает студента,
// студент записывает только на себя. Возвращает экран первого шага.
func Begin(ctx context.Context, h *callbacktypes.Handler, user *model.User, date string) (string, *models.InlineKeyboardMarkup, error) {
	form := service.AppointmentForm{Date: date, Status: model.StatusScheduled}

	if !user.IsSupervisor() {
		form.ResourceID = user.ResourceID
		h.StateManager.Start(user.TelegramID, state.StateBookPatient, form, "")
		return "📝 <b>Новая запись</b>\n\n" + PatientPrompt, CancelKeyboard(), nil
	}

	students, err := h.UserService.Students(ctx)
	if err != nil {
		return "", nil, err
	}
	h.StateManager.Start(user.TelegramID, state.StateBookResource, form, "")
	return "📝 <b>Новая запись</b>\n\n🎓 Выберите студента:", common.BuildResourcePicker(students, common.CbBookResource, false), nil
}

// HandleNew bk:new
func HandleNew(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		begin(hc, "")
	})
}

// HandleNewOnDay bk:day:2026-10-16, дата уже выбрана в календаре
func HandleNewOnDay(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		args, err := common.CallbackArgs(callback.Data, common.CbBookDay, 1)
		if err != nil {
			common.HandleError(hc, err, "parse booking day")
			return
		}
		if _, err := time.Parse(model.DateLayout, args[0]); err != nil {
			common.HandleError(hc, common.ErrInvalidFormat, "parse booking day")
			return
		}
		begin(hc, args[0])
	})
}

func begin(hc *common.HandlerContext, date string) {
	text, kb, err := Begin(hc.Ctx, hc.Handler, hc.User, date)
	if err != nil {
		common.HandleError(hc, err, "begin booking")
		return
	}
	if err := hc.ShowText(text, kb); err != nil {
		hc.Handler.Logger.Error("Failed to show booking step", zap.Error(err))
	}
	hc.Answer("")
}

// HandleResource bk:r:<resource>
func HandleResource(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithSupervisor(ctx, b, callback, h, func(hc *common.HandlerContext) {
		args, err := common.CallbackArgs(callback.Data, common.CbBookResource, 1)
		if err != nil {
			common.HandleError(hc, err, "parse resource")
			return
		}

		if _, ok := h.StateManager.UpdateForm(hc.TelegramID, state.StateBookPatient, func(f *service.AppointmentForm) {
			f.ResourceID = args[0]
		}); !ok {
			common.HandleError(hc, common.ErrDialogNotFound, "booking resource")
			return
		}

		if err := hc.ShowText("📝 <b>Новая запись</b>\n\n"+PatientPrompt, CancelKeyboard()); err != nil {
			h.Logger.Error("Failed to show booking step", zap.Error(err))
		}
		hc.Answer("")
	})
}

// HandleStartSlot bk:s:<index>
func HandleStartSlot(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		slot, err := slotArg(callback.Data, common.CbBookStart)
		if err != nil {
			common.HandleError(hc, err, "parse start slot")
			return
		}

		d, ok := h.StateManager.UpdateForm(hc.TelegramID, state.StateBookEndSlot, func(f *service.AppointmentForm) {
			f.StartLabel = slot.Label()
			f.EndLabel = ""
		})
		if !ok {
			common.HandleError(hc, common.ErrDialogNotFound, "booking start")
			return
		}

		text, kb := EndPicker(hc.Workspace, d.Form, d.EditingID)
		if err := hc.ShowText(text, kb); err != nil {
			h.Logger.Error("Failed to show end picker", zap.Error(err))
		}
		hc.Answer("")
	})
}

// HandleEndSlot bk:e:<index>. При переносе шаг стоимости пропускается.
func HandleEndSlot(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		slot, err := slotArg(callback.Data, common.CbBookEnd)
		if err != nil {
			common.HandleError(hc, err, "parse end slot")
			return
		}

		current, ok := h.StateManager.Dialog(hc.TelegramID)
		if !ok || current.State != state.StateBookEndSlot {
			common.HandleError(hc, common.ErrDialogNotFound, "booking end")
			return
		}

		next := state.StateBookCost
		if current.EditingID != "" {
			next = state.StateBookConfirm
		}
		d, _ := h.StateManager.UpdateForm(hc.TelegramID, next, func(f *service.AppointmentForm) {
			f.EndLabel = slot.Label()
		})

		if next == state.StateBookCost {
			err = hc.ShowText(CostPrompt, CostKeyboard())
		} else {
			text, kb := common.BuildBookingSummary(d.Form, true)
			err = hc.ShowText(text, kb)
		}
		if err != nil {
			h.Logger.Error("Failed to show booking step", zap.Error(err))
		}
		hc.Answer("")
	})
}

// HandleSkipCost bk:nocost
func HandleSkipCost(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		d, ok := h.StateManager.UpdateForm(hc.TelegramID, state.StateBookConfirm, func(f *service.AppointmentForm) {
			f.Cost = nil
		})
		if !ok {
			common.HandleError(hc, common.ErrDialogNotFound, "skip cost")
			return
		}

		text, kb := common.BuildBookingSummary(d.Form, d.EditingID != "")
		if err := hc.ShowText(text, kb); err != nil {
			h.Logger.Error("Failed to show booking summary", zap.Error(err))
		}
		hc.Answer("")
	})
}

// HandleRetime bk:time возвращает к выбору времени, остальные поля сохраняются
func HandleRetime(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		d, ok := h.StateManager.UpdateForm(hc.TelegramID, state.StateBookStartSlot, nil)
		if !ok {
			common.HandleError(hc, common.ErrDialogNotFound, "retime")
			return
		}
		showStartPicker(hc, d)
	})
}

func showStartPicker(hc *common.HandlerContext, d state.Dialog) {
	renderStartPicker(hc, d)
	hc.Answer("")
}

// renderStartPicker без ответа на callback: после пересечения уже показан alert
func renderStartPicker(hc *common.HandlerContext, d state.Dialog) {
	text, kb := StartPicker(hc.Workspace, d.Form, d.EditingID)
	if err := hc.ShowText(text, kb); err != nil {
		hc.Handler.Logger.Error("Failed to show start picker", zap.Error(err))
	}
}

// HandleConfirm bk:ok сохраняет запись. После ошибки проверки или пересечения
// диалог сохраняется, чтобы пользователь поправил время и попробовал снова.
func HandleConfirm(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		d, ok := h.StateManager.Dialog(hc.TelegramID)
		if !ok || d.State != state.StateBookConfirm {
			common.HandleError(hc, common.ErrDialogNotFound, "confirm booking")
			return
		}

		appt, err := hc.Workspace.Submit(hc.Ctx, d.Form, d.EditingID)
		if err != nil {
			var conflictErr *service.ConflictError
			if errors.As(err, &conflictErr) {
				h.StateManager.SetState(hc.TelegramID, state.StateBookStartSlot)
				hc.AnswerAlert(common.ErrorMessage(err))
				renderStartPicker(hc, d)
				return
			}
			common.HandleError(hc, err, "submit booking")
			return
		}

		hc.ClearState()
		h.Logger.Debug("Booking dialog completed",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.String("appointment_id", appt.ID),
			zap.Bool("reschedule", d.EditingID != ""))

		text, kb := common.BuildAppointmentScreen(appt, hc.Workspace.Actor(), hc.Workspace.Location())
		header := "✅ Пациент записан!\n\n"
		if d.EditingID != "" {
			header = "✅ Приём перенесён!\n\n"
		}
		if err := hc.ShowText(header+text, kb); err != nil {
			h.Logger.Error("Failed to show booking result", zap.Error(err))
		}
		hc.Answer("")
	})
}

// HandleCancel bk:no
func HandleCancel(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	hc.ClearState()

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("📅 Календарь", common.CbCalendarOpen)).
		AddBackToMainButton().
		Build()
	if err := hc.ShowText("❌ Запись отменена.", kb); err != nil {
		h.Logger.Error("Failed to show cancel result", zap.Error(err))
	}
	hc.Answer("")
}

// HandleMove apt:mv:<id> начинает перенос приёма с уже заполненной формой
func HandleMove(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithWorkspace(ctx, b, callback, h, func(hc *common.HandlerContext) {
		args, err := common.CallbackArgs(callback.Data, common.CbMove, 1)
		if err != nil {
			common.HandleError(hc, err, "parse move")
			return
		}

		a := hc.Workspace.Find(args[0])
		if a == nil {
			common.HandleError(hc, service.ErrAppointmentNotFound, "find appointment")
			return
		}
		actor := hc.Workspace.Actor()
		if actor.Constrained() && a.ResourceID != actor.ResourceID {
			common.HandleError(hc, service.ErrForbidden, "move appointment")
			return
		}

		form := service.FormFromAppointment(a, hc.Workspace.Location())
		h.StateManager.Start(hc.TelegramID, state.StateBookDate, form, a.ID)

		text := fmt.Sprintf("🕐 <b>Перенос приёма</b>\n\nСейчас: %s\n\n%s",
			dateText(form.Date)+" "+form.StartLabel+" - "+form.EndLabel, DatePrompt)
		kb := keyboard.NewBuilder().
			Row(keyboard.Button("📅 Оставить дату", common.CbBookRetime)).
			Row(keyboard.CancelButton(common.CbBookCancel)).
			Build()
		if err := hc.ShowText(text, kb); err != nil {
			h.Logger.Error("Failed to show move dialog", zap.Error(err))
		}
		hc.Answer("")
	})
}

func slotArg(data, prefix string) (timeslot.Slot, error) {
	idx, err := common.CallbackInt(data, prefix)
	if err != nil {
		return timeslot.Slot{}, err
	}
	slot, ok := timeslot.FromIndex(idx)
	if !ok {
		return timeslot.Slot{}, common.ErrInvalidFormat
	}
	return slot, nil
}

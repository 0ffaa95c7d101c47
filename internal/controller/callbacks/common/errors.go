package common

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/clinic_scheduler/internal/gateway/httpapi"
	"github.com/Freeeeeet/clinic_scheduler/internal/repository"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/sony/gobreaker/v2"
)

// Общие ошибки для обработчиков
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrNotSupervisor  = errors.New("user is not a supervisor")
	ErrNoMessage      = errors.New("no message in callback")
	ErrInvalidFormat  = errors.New("invalid callback format")
	ErrDialogNotFound = errors.New("no active dialog")
)

var fieldNames = map[string]string{
	"patientId":  "пациент",
	"resourceId": "студент",
	"title":      "название",
	"date":       "дата",
	"startTime":  "начало",
	"endTime":    "окончание",
	"cost":       "стоимость",
	"status":     "статус",
}

// IsMessageNotModifiedError Telegram отвечает ошибкой, если текст и клавиатура не изменились
func IsMessageNotModifiedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	var (
		vErr      *service.ValidationError
		cErr      *service.ConflictError
		statusErr *httpapi.StatusError
		rErr      *service.RemoteError
	)

	switch {
	case errors.As(err, &vErr):
		return validationMessage(vErr)
	case errors.As(err, &cErr):
		return fmt.Sprintf("❌ Время пересекается с другим приёмом: %s",
			formatting.FormatDateTimeRange(cErr.Start, cErr.End))
	case errors.Is(err, repository.ErrOverlap):
		return "❌ Это время у студента уже занято"
	case errors.Is(err, ErrUserNotFound), errors.Is(err, service.ErrUserNotFound):
		return "❌ Пользователь не найден. Используйте /start"
	case errors.Is(err, ErrNotSupervisor):
		return "❌ Эта функция доступна только руководителю"
	case errors.Is(err, service.ErrForbidden):
		return "❌ Этот приём закреплён за другим студентом"
	case errors.Is(err, service.ErrAppointmentNotFound), errors.Is(err, repository.ErrAppointmentNotFound):
		return "❌ Приём не найден. Обновите календарь"
	case errors.Is(err, ErrDialogNotFound):
		return "❌ Диалог устарел. Начните заново: /book"
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "❌ Сервис расписания временно недоступен. Попробуйте позже"
	case errors.As(err, &statusErr):
		switch {
		case statusErr.Code == http.StatusConflict:
			return "❌ Это время у студента уже занято"
		case statusErr.Code == http.StatusNotFound:
			return "❌ Приём не найден. Обновите календарь"
		case statusErr.Code < http.StatusInternalServerError:
			return "❌ Сервер отклонил запрос: " + html.EscapeString(statusErr.Body)
		}
		return "❌ Сервис расписания ответил ошибкой. Попробуйте позже"
	case errors.As(err, &rErr):
		return "❌ Не удалось связаться с сервисом расписания"
	default:
		return "❌ Произошла ошибка"
	}
}

func validationMessage(e *service.ValidationError) string {
	switch e.Reason {
	case service.ReasonMissingField:
		name, ok := fieldNames[e.Field]
		if !ok {
			name = e.Field
		}
		return "❌ Не заполнено поле: " + name
	case service.ReasonInvalidDate:
		return "❌ Неверная дата. Используйте формат ДД.ММ.ГГГГ"
	case service.ReasonUnknownSlot:
		return "❌ Время должно совпадать с сеткой слотов по 30 минут"
	case service.ReasonEndNotAfterStart:
		return "❌ Окончание должно быть позже начала"
	case service.ReasonNegativeCost:
		return "❌ Стоимость не может быть отрицательной"
	case service.ReasonInvalidStatus:
		return "❌ Неизвестный статус приёма"
	}
	return "❌ Проверьте заполнение формы"
}

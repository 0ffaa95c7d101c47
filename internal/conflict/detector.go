package conflict

import (
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
)

// Candidate интервал, который пытаются записать на ресурс
type Candidate struct {
	Start      time.Time
	End        time.Time
	ResourceID string
}

// Result итог проверки
type Result struct {
	Conflicting bool
	WithID      string
	With        *model.Appointment
}

// Overlaps полуоткрытые интервалы [aStart,aEnd) и [bStart,bEnd) пересекаются
// тогда и только тогда, когда aStart < bEnd && aEnd > bStart. Соседние приёмы не конфликтуют.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Detect ищет первый приём того же ресурса, пересекающийся с кандидатом.
// Приём excludeID (редактируемый) и отменённые приёмы пропускаются.
// Проверка рекомендательная: она видит только загруженные на клиенте приёмы.
func Detect(candidate Candidate, existing []*model.Appointment, excludeID string) Result {
	for _, other := range existing {
		if blocks(candidate, other, excludeID) {
			return Result{Conflicting: true, WithID: other.ID, With: other}
		}
	}
	return Result{}
}

// DetectAll возвращает все пересекающиеся приёмы того же ресурса
func DetectAll(candidate Candidate, existing []*model.Appointment, excludeID string) []*model.Appointment {
	var conflicts []*model.Appointment
	for _, other := range existing {
		if blocks(candidate, other, excludeID) {
			conflicts = append(conflicts, other)
		}
	}
	return conflicts
}

func blocks(candidate Candidate, other *model.Appointment, excludeID string) bool {
	if other == nil || other.ResourceID != candidate.ResourceID {
		return false
	}
	if excludeID != "" && other.ID == excludeID {
		return false
	}
	if other.Status == model.StatusCancelled {
		return false
	}
	return Overlaps(candidate.Start, candidate.End, other.Start, other.End)
}

package daterange

import "time"

// DateRange окно календаря, обе границы включительно
type DateRange struct {
	Start time.Time
	End   time.Time
}

// MonthRange возвращает окно месячного вида: от воскресенья, предшествующего первому
// числу месяца, до субботы после последнего числа (включительно до 23:59:59.999).
func MonthRange(reference time.Time) DateRange {
	loc := reference.Location()
	first := time.Date(reference.Year(), reference.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	return DateRange{Start: start, End: endOfDay(end)}
}

// WeekRange возвращает неделю Вс-Сб, содержащую reference
func WeekRange(reference time.Time) DateRange {
	day := startOfDay(reference)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	end := start.AddDate(0, 0, 6)

	return DateRange{Start: start, End: endOfDay(end)}
}

// ShiftMonth сдвигает опорную дату на n месяцев, приводя её к первому числу,
// чтобы 31 января не превращалось в 3 марта
func ShiftMonth(reference time.Time, n int) time.Time {
	first := time.Date(reference.Year(), reference.Month(), 1, 0, 0, 0, 0, reference.Location())
	return first.AddDate(0, n, 0)
}

// ShiftWeek сдвигает опорную дату на n недель
func ShiftWeek(reference time.Time, n int) time.Time {
	return startOfDay(reference).AddDate(0, 0, 7*n)
}

// Contains проверяет попадание t в окно
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days возвращает начало каждого дня окна
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := startOfDay(r.Start); !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Overlaps проверяет пересечение интервала [start, end) с окном
func (r DateRange) Overlaps(start, end time.Time) bool {
	return start.Before(r.End.Add(time.Millisecond)) && end.After(r.Start)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay 23:59:59.999 того же дня; через time.Date, чтобы не зависеть от длины суток при переходе на летнее время
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

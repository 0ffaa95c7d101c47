package calendar

import (
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
)

// DaysInWeek ширина сетки
const DaysInWeek = 7

// Date календарная дата без времени и часового пояса
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf возвращает календарную дату момента t в его собственной зоне
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time начало дня в зоне loc
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

func (d Date) String() string {
	return d.Time(time.UTC).Format(model.DateLayout)
}

// Cell ячейка месячной сетки. Дата есть у каждой ячейки: дни соседних месяцев
// заполняют края сетки и помечаются InMonth == false.
type Cell struct {
	Date         Date
	InMonth      bool
	Appointments []*model.Appointment
}

// BuildMonthGrid строит сетку месяца по 7 дней в ряд, начиная с воскресенья.
// Длина результата всегда кратна 7.
func BuildMonthGrid(year int, month time.Month) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// нормализуем, чтобы month=13 превращался в январь следующего года
	year, month = first.Year(), first.Month()
	daysInMonth := first.AddDate(0, 1, -1).Day()
	leading := int(first.Weekday())

	total := leading + daysInMonth
	if rem := total % DaysInWeek; rem != 0 {
		total += DaysInWeek - rem
	}

	cells := make([]Cell, 0, total)
	start := first.AddDate(0, 0, -leading)
	for i := 0; i < total; i++ {
		day := start.AddDate(0, 0, i)
		cells = append(cells, Cell{
			Date:    DateOf(day),
			InMonth: day.Year() == year && day.Month() == month,
		})
	}

	return cells
}

// AppointmentsForCell возвращает приёмы, начинающиеся в день ячейки. Ресурс не учитывается.
func AppointmentsForCell(cell Cell, appointments []*model.Appointment) []*model.Appointment {
	var result []*model.Appointment
	for _, a := range appointments {
		if a.SameDay(cell.Date.Year, cell.Date.Month, cell.Date.Day) {
			result = append(result, a)
		}
	}
	return result
}

// Populate раскладывает приёмы по ячейкам сетки
func Populate(grid []Cell, appointments []*model.Appointment) []Cell {
	byDay := make(map[Date][]*model.Appointment)
	for _, a := range appointments {
		d := DateOf(a.Start)
		byDay[d] = append(byDay[d], a)
	}

	populated := make([]Cell, len(grid))
	for i, cell := range grid {
		cell.Appointments = byDay[cell.Date]
		populated[i] = cell
	}
	return populated
}

// Weeks разбивает сетку на ряды по 7 ячеек
func Weeks(grid []Cell) [][]Cell {
	var rows [][]Cell
	for i := 0; i+DaysInWeek <= len(grid); i += DaysInWeek {
		rows = append(rows, grid[i:i+DaysInWeek])
	}
	return rows
}

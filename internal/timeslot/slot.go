package timeslot

import (
	"errors"
	"fmt"
	"time"
)

const (
	// SlotMinutes длительность одного слота
	SlotMinutes = 30
	// SlotsPerDay количество слотов в сутках
	SlotsPerDay = 24 * 60 / SlotMinutes
)

var ErrUnknownLabel = errors.New("unknown slot label")

// Slot получасовой слот внутри суток, хранится как минута от полуночи
type Slot struct {
	minute int
}

// FromIndex возвращает слот по порядковому номеру 0..47
func FromIndex(index int) (Slot, bool) {
	if index < 0 || index >= SlotsPerDay {
		return Slot{}, false
	}
	return Slot{minute: index * SlotMinutes}, true
}

// FromTime возвращает слот, в который попадает время суток t
func FromTime(t time.Time) Slot {
	return Slot{minute: (t.Hour()*60 + t.Minute()) / SlotMinutes * SlotMinutes}
}

// Index порядковый номер слота
func (s Slot) Index() int {
	return s.minute / SlotMinutes
}

// MinuteOfDay минута от начала суток
func (s Slot) MinuteOfDay() int {
	return s.minute
}

func (s Slot) Hour() int {
	return s.minute / 60
}

func (s Slot) Minute() int {
	return s.minute % 60
}

// Label форматирует слот в 12-часовом формате, например "1:30 PM".
// Не зависит от локали окружения.
func (s Slot) Label() string {
	hour := s.Hour()
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, s.Minute(), suffix)
}

func (s Slot) String() string {
	return s.Label()
}

// Before сравнивает слоты внутри одних суток
func (s Slot) Before(other Slot) bool {
	return s.minute < other.minute
}

// At собирает момент времени из календарной даты и слота в зоне loc.
// Берутся только год, месяц и день даты, часовой пояс даты игнорируется.
func At(date time.Time, s Slot, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), s.Hour(), s.Minute(), 0, 0, loc)
}

// Aligned проверяет что t лежит на границе слота
func Aligned(t time.Time) bool {
	return t.Second() == 0 && t.Nanosecond() == 0 && t.Minute()%SlotMinutes == 0
}

package timeslot

import "fmt"

var (
	catalogSlots  []Slot
	catalogLabels []string
	labelIndex    map[string]int
)

func init() {
	catalogSlots = make([]Slot, SlotsPerDay)
	catalogLabels = make([]string, SlotsPerDay)
	labelIndex = make(map[string]int, SlotsPerDay)

	for i := 0; i < SlotsPerDay; i++ {
		s := Slot{minute: i * SlotMinutes}
		catalogSlots[i] = s
		catalogLabels[i] = s.Label()
		labelIndex[s.Label()] = i
	}
}

// Generate возвращает 48 меток слотов по порядку, с "12:00 AM" до "11:30 PM".
// Каждый вызов отдаёт новую копию.
func Generate() []string {
	labels := make([]string, len(catalogLabels))
	copy(labels, catalogLabels)
	return labels
}

// Slots возвращает все слоты суток по порядку
func Slots() []Slot {
	slots := make([]Slot, len(catalogSlots))
	copy(slots, catalogSlots)
	return slots
}

// IndexOf возвращает позицию метки в Generate(), или -1 если метка неизвестна
func IndexOf(label string) int {
	if i, ok := labelIndex[label]; ok {
		return i
	}
	return -1
}

// Next возвращает метку следующего слота. Для "11:30 PM" и неизвестных меток ok == false.
func Next(label string) (string, bool) {
	i := IndexOf(label)
	if i < 0 || i+1 >= SlotsPerDay {
		return "", false
	}
	return catalogLabels[i+1], true
}

// Parse разбирает метку слота
func Parse(label string) (Slot, error) {
	i := IndexOf(label)
	if i < 0 {
		return Slot{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return catalogSlots[i], nil
}

// After возвращает метки, идущие строго после label (варианты окончания приёма)
func After(label string) []string {
	i := IndexOf(label)
	if i < 0 {
		return nil
	}
	labels := make([]string, SlotsPerDay-i-1)
	copy(labels, catalogLabels[i+1:])
	return labels
}

package formatting

// PluralizeAppointments возвращает правильное склонение слова "приём"
func PluralizeAppointments(count int) string {
	if count%10 == 1 && count%100 != 11 {
		return "приём"
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return "приёма"
	}
	return "приёмов"
}

// PluralizeStudents возвращает правильное склонение слова "студент"
func PluralizeStudents(count int) string {
	if count%10 == 1 && count%100 != 11 {
		return "студент"
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return "студента"
	}
	return "студентов"
}

package handlers

// Ограничения ввода в диалогах
const (
	// Идентификатор пациента во внешней системе
	PatientIDMaxLength = 64

	// Название приёма
	TitleMinLength = 2
	TitleMaxLength = 200

	// Идентификатор студента, он же ресурс. Попадает в callback data, поэтому короткий.
	ResourceIDMaxLength = 40

	// Стоимость приёма в рублях
	MaxCost = 10_000_000

	SearchMaxLength = 100
)

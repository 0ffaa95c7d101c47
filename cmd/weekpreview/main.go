package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/clinic_scheduler/internal/daterange"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/google/uuid"
)

// Рисует картинку недели на демонстрационных приёмах, чтобы проверить вёрстку без бота
func main() {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.Local
	}

	now := time.Now().In(loc)
	week := daterange.WeekRange(now)
	day := func(offset, hour, minute int) time.Time {
		return time.Date(week.Start.Year(), week.Start.Month(), week.Start.Day()+offset, hour, minute, 0, 0, loc)
	}

	cost := 2500.0
	appts := []*model.Appointment{
		sample(day(1, 9, 0), 60, "Консультация", model.StatusCompleted, &cost),
		sample(day(1, 11, 30), 30, "Осмотр", model.StatusCancelled, nil),
		sample(day(2, 10, 0), 90, "Пломбирование", model.StatusInProgress, &cost),
		sample(day(3, 14, 0), 60, "Профессиональная чистка зубов", model.StatusScheduled, nil),
		sample(day(5, 16, 30), 120, "Удаление", model.StatusScheduled, &cost),
		sample(day(6, 23, 30), 60, "Ночной приём", model.StatusScheduled, nil),
	}

	imageData, err := common.GenerateWeekImage(week, appts, now, loc)
	if err != nil {
		fmt.Printf("Ошибка генерации изображения: %v\n", err)
		os.Exit(1)
	}

	filename := "week.png"
	if err := os.WriteFile(filename, imageData, 0644); err != nil {
		fmt.Printf("Ошибка сохранения файла: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Изображение сохранено в %s\n", filename)
	fmt.Printf("📅 Период: %s - %s\n", week.Start.Format("02.01.2006"), week.End.Format("02.01.2006"))
	fmt.Printf("📊 Приёмов: %d\n", len(appts))
}

func sample(start time.Time, minutes int, title string, status model.Status, cost *float64) *model.Appointment {
	return &model.Appointment{
		ID:         uuid.NewString(),
		ResourceID: "demo",
		PatientID:  "P-" + start.Format("0102"),
		Title:      title,
		Start:      start,
		End:        start.Add(time.Duration(minutes) * time.Minute),
		Status:     status,
		Cost:       cost,
	}
}

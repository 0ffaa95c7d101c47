package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
)

var (
	errBadDate     = errors.New("bad date")
	errBadCost     = errors.New("bad cost")
	errBadResource = errors.New("bad resource id")
)

var dateLayouts = []string{"02.01.2006", "2.1.2006", model.DateLayout}

// parseDate принимает ДД.ММ.ГГГГ и ГГГГ-ММ-ДД, возвращает дату в формате формы
func parseDate(text string, loc *time.Location) (string, time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, text, loc); err == nil {
			return d.Format(model.DateLayout), d, nil
		}
	}
	return "", time.Time{}, errBadDate
}

// parseCost разбирает стоимость в рублях, допускает запятую и пробелы между разрядами
func parseCost(text string) (float64, error) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "₽"))
	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, ",", ".")

	cost, err := strconv.ParseFloat(text, 64)
	if err != nil || cost < 0 || cost > MaxCost {
		return 0, errBadCost
	}
	return cost, nil
}

// validResourceID идентификатор студента попадает в callback data через ":"
func validResourceID(id string) error {
	if id == "" || utf8.RuneCountInString(id) > ResourceIDMaxLength || len(id) > ResourceIDMaxLength {
		return errBadResource
	}
	if strings.ContainsAny(id, ": \t\n") {
		return errBadResource
	}
	return nil
}

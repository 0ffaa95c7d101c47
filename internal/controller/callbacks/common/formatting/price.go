package formatting

import (
	"fmt"
	"math"
)

// FormatCost форматирует стоимость приёма, копейки выводятся только если они есть
func FormatCost(cost *float64) string {
	if cost == nil {
		return "не указана"
	}
	if *cost == math.Trunc(*cost) {
		return fmt.Sprintf("%.0f ₽", *cost)
	}
	return fmt.Sprintf("%.2f ₽", *cost)
}

package keyboard

import (
	"fmt"

	"github.com/go-telegram/bot/models"
)

// PaginationButtons создаёт ряд кнопок пагинации.
// Страницы нумеруются с 1, prefix - префикс callback (например "apl:p:").
func PaginationButtons(prefix string, currentPage, totalPages int) []models.InlineKeyboardButton {
	if totalPages <= 1 {
		return nil
	}

	var buttons []models.InlineKeyboardButton

	if currentPage > 1 {
		buttons = append(buttons, Button("⬅️", fmt.Sprintf("%s%d", prefix, currentPage-1)))
	}

	buttons = append(buttons, LabelButton(fmt.Sprintf("📄 %d/%d", currentPage, totalPages)))

	if currentPage < totalPages {
		buttons = append(buttons, Button("➡️", fmt.Sprintf("%s%d", prefix, currentPage+1)))
	}

	return buttons
}

// AddPagination добавляет пагинацию к builder
func (b *Builder) AddPagination(prefix string, currentPage, totalPages int) *Builder {
	return b.Row(PaginationButtons(prefix, currentPage, totalPages)...)
}

// ShiftButtons ряд "назад / подпись / вперёд" для навигации по месяцам и неделям
func ShiftButtons(prevCallback, label, nextCallback string) []models.InlineKeyboardButton {
	return []models.InlineKeyboardButton{
		Button("◀️", prevCallback),
		LabelButton(label),
		Button("▶️", nextCallback),
	}
}

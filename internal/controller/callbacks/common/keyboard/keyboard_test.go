package keyboard

import "testing"

func TestPaginationButtons(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []string
	}{
		{"single page", 1, 1, nil},
		{"first", 1, 3, []string{"noop", "apl:p:2"}},
		{"middle", 2, 3, []string{"apl:p:1", "noop", "apl:p:3"}},
		{"last", 3, 3, []string{"apl:p:2", "noop"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buttons := PaginationButtons("apl:p:", tt.current, tt.total)
			if len(buttons) != len(tt.want) {
				t.Fatalf("got %d buttons, want %d", len(buttons), len(tt.want))
			}
			for i, b := range buttons {
				if b.CallbackData != tt.want[i] {
					t.Errorf("button %d = %q, want %q", i, b.CallbackData, tt.want[i])
				}
			}
		})
	}
}

func TestGrid(t *testing.T) {
	b := NewBuilder().Grid(3, Button("1", "a"), Button("2", "b"), Button("3", "c"), Button("4", "d"))
	kb := b.Build()
	if len(kb.InlineKeyboard) != 2 || len(kb.InlineKeyboard[0]) != 3 || len(kb.InlineKeyboard[1]) != 1 {
		t.Fatalf("unexpected layout %+v", kb.InlineKeyboard)
	}
}

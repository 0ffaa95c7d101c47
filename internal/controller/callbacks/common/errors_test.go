package common

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Freeeeeet/clinic_scheduler/internal/gateway/httpapi"
)

func TestErrorMessage_StatusError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "conflict",
			err:  &httpapi.StatusError{Method: http.MethodPost, Path: "/appointments", Code: http.StatusConflict},
			want: "❌ Это время у студента уже занято",
		},
		{
			name: "body is escaped",
			err: fmt.Errorf("create: %w", &httpapi.StatusError{
				Method: http.MethodPost, Path: "/appointments", Code: http.StatusBadRequest,
				Body: `<b>cost</b> must be >= 0 & "integer"`,
			}),
			want: "❌ Сервер отклонил запрос: &lt;b&gt;cost&lt;/b&gt; must be &gt;= 0 &amp; &#34;integer&#34;",
		},
		{
			name: "server error hides body",
			err:  &httpapi.StatusError{Method: http.MethodGet, Path: "/appointments", Code: http.StatusBadGateway, Body: "<html>"},
			want: "❌ Сервис расписания ответил ошибкой. Попробуйте позже",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

package booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/state"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// telegramStub отвечает ошибкой на любой метод и запоминает вызовы
type telegramStub struct {
	mu      sync.Mutex
	methods []string
}

func (s *telegramStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.methods = append(s.methods, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: message to edit not found"}`))
}

func (s *telegramStub) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.methods...)
}

func TestRenderStartPicker_LogsShowError(t *testing.T) {
	stub := &telegramStub{}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	b, err := bot.New("test-token", bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zap.ErrorLevel)
	h := &callbacktypes.Handler{StateManager: state.NewManager(), Logger: zap.New(core)}

	scheduler := service.NewAppointmentScheduler(nil, nil, time.UTC, nil, zap.NewNop())
	ws := service.NewWorkspace(model.Actor{UserID: 1, Role: model.RoleSupervisor}, service.WorkspaceDeps{
		Scheduler: scheduler,
		PageSize:  10,
		Logger:    zap.NewNop(),
	})

	hc := &common.HandlerContext{
		Ctx:       context.Background(),
		Bot:       b,
		Callback:  &models.CallbackQuery{ID: "cb"},
		Handler:   h,
		Message:   &models.Message{ID: 7, Chat: models.Chat{ID: 42}},
		Workspace: ws,
		ChatID:    42,
	}
	d := state.Dialog{
		State: state.StateBookStartSlot,
		Form:  service.AppointmentForm{ResourceID: "R1", Date: "2026-10-16"},
	}

	renderStartPicker(hc, d)

	entries := logs.FilterMessage("Failed to show start picker").All()
	if len(entries) != 1 {
		t.Fatalf("expected the show error to be logged once, got %d", len(entries))
	}
	// ответ на callback уже отправлен alert'ом о пересечении
	for _, m := range stub.calls() {
		if m == "answerCallbackQuery" {
			t.Fatalf("start picker after a conflict must not answer the callback, calls %v", stub.calls())
		}
	}
}

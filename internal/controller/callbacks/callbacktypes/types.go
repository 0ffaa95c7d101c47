package callbacktypes

import (
	"context"

	"github.com/Freeeeeet/clinic_scheduler/internal/controller/state"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	UserService  *service.UserService
	Workspaces   *service.WorkspaceRegistry
	StateManager *state.Manager
	Logger       *zap.Logger
}

// HandlerFunc сигнатура обработчика одного вида callback
type HandlerFunc func(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *Handler)

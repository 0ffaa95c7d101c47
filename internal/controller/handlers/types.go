package handlers

import (
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/state"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService  *service.UserService
	workspaces   *service.WorkspaceRegistry
	stateManager *state.Manager
	deps         *callbacktypes.Handler // общие зависимости с callback handlers
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(deps *callbacktypes.Handler) *Handlers {
	return &Handlers{
		userService:  deps.UserService,
		workspaces:   deps.Workspaces,
		stateManager: deps.StateManager,
		deps:         deps,
		logger:       deps.Logger,
	}
}

package state

import (
	"sync"

	"github.com/Freeeeeet/clinic_scheduler/internal/service"
)

// Manager управляет диалогами пользователей
type Manager struct {
	mu      sync.RWMutex
	dialogs map[int64]*Dialog // telegramID -> Dialog
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		dialogs: make(map[int64]*Dialog),
	}
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if d, exists := sm.dialogs[telegramID]; exists {
		return d.State
	}
	return StateNone
}

// SetState устанавливает состояние, сохраняя уже введённые данные
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.dialogs, telegramID)
		return
	}

	if d, exists := sm.dialogs[telegramID]; exists {
		d.State = state
		return
	}
	sm.dialogs[telegramID] = &Dialog{State: state}
}

// Start начинает новый диалог, затирая предыдущий
func (sm *Manager) Start(telegramID int64, state UserState, form service.AppointmentForm, editingID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.dialogs[telegramID] = &Dialog{State: state, Form: form, EditingID: editingID}
}

// Dialog возвращает копию диалога
func (sm *Manager) Dialog(telegramID int64) (Dialog, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	d, exists := sm.dialogs[telegramID]
	if !exists {
		return Dialog{}, false
	}
	return *d, true
}

// UpdateForm изменяет форму и переводит диалог в следующее состояние.
// Возвращает false, если диалога нет.
func (sm *Manager) UpdateForm(telegramID int64, next UserState, mutate func(f *service.AppointmentForm)) (Dialog, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	d, exists := sm.dialogs[telegramID]
	if !exists {
		return Dialog{}, false
	}
	if mutate != nil {
		mutate(&d.Form)
	}
	if next != StateNone {
		d.State = next
	}
	return *d, true
}

// ClearState очищает состояние и данные пользователя
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.dialogs, telegramID)
}

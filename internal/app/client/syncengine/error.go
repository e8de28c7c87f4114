package syncengine

import (
	"errors"
	"fmt"
)

var (
	ErrSyncInProgress = errors.New("синхронизация уже выполняется")
	ErrNoIdentity     = errors.New("нет активного пользователя")
)

// Step шаг прохода синхронизации
type Step string

const (
	StepDelete  Step = "delete"
	StepUpload  Step = "upload"
	StepPresets Step = "presets"
	StepPull    Step = "pull"
)

// SyncError ошибка удаленной операции; проход прерывается на этом шаге,
// уже примененные локальные отметки сохраняются
type SyncError struct {
	Step Step
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Step, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

package service

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden            = errors.New("only administrators can remove alerts")
	ErrConfirmationRequired = errors.New("action requires explicit confirmation")
	ErrAlertNotFound        = errors.New("alert not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrPremiumRequired      = errors.New("theme requires premium")
	ErrNoBackup             = errors.New("no backup found")
	ErrInvalidSettings      = errors.New("invalid settings")
	ErrNoActiveReport       = errors.New("no report in progress")
	ErrCandidateIndex       = errors.New("search result index out of range")
)

// PersistError - изменение применено в памяти, но не сохранено
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("state changed but could not be saved: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// IsPersistError сообщает, что ошибка означает только сбой сохранения
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}

// Package repository holds the MySQL implementations of the stores used by
// the service layer. Every sentinel below wraps one of the apperr kinds so
// services can pass them through untouched and handlers can map them to a
// status code.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/repairhub/internal/apperr"
)

var (
	ErrTaskNotFound         = fmt.Errorf("task: %w", apperr.ErrNotFound)
	ErrTaskTypeNotFound     = fmt.Errorf("task type: %w", apperr.ErrNotFound)
	ErrPaymentNotFound      = fmt.Errorf("payment: %w", apperr.ErrNotFound)
	ErrDetailNotFound       = fmt.Errorf("payment detail: %w", apperr.ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user: %w", apperr.ErrNotFound)
	ErrTechnicianNotFound   = fmt.Errorf("technician: %w", apperr.ErrNotFound)
	ErrRegistrationNotFound = fmt.Errorf("registration: %w", apperr.ErrNotFound)
	ErrAdminNotFound        = fmt.Errorf("admin: %w", apperr.ErrNotFound)
	ErrSessionNotFound      = fmt.Errorf("session: %w", apperr.ErrNotFound)
)

var (
	// ErrAlreadyClaimed is returned when a claim loses the race for a task.
	ErrAlreadyClaimed = fmt.Errorf("task already claimed: %w", apperr.ErrConflict)
	// ErrTaskStateChanged means a conditional status write matched no row.
	ErrTaskStateChanged = fmt.Errorf("task state changed: %w", apperr.ErrConflict)
	// ErrPaymentConfirmed means the payment is terminal and can no longer change.
	ErrPaymentConfirmed = fmt.Errorf("payment already confirmed: %w", apperr.ErrConflict)
	// ErrPaymentStateChanged means a conditional payment write matched no row.
	ErrPaymentStateChanged = fmt.Errorf("payment state changed: %w", apperr.ErrConflict)
	// ErrRegistrationDecided means the registration is no longer pending.
	ErrRegistrationDecided = fmt.Errorf("registration already decided: %w", apperr.ErrConflict)
	// ErrDuplicate wraps MySQL error 1062 on unique columns.
	ErrDuplicate = fmt.Errorf("duplicate entry: %w", apperr.ErrConflict)
)

// isDuplicate reports whether err is a MySQL duplicate-key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// affected returns ErrX when a write matched no rows. The DSN sets
// clientFoundRows, so RowsAffected counts matched rows, not changed ones.
func affected(res interface{ RowsAffected() (int64, error) }, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return none
	}
	return nil
}

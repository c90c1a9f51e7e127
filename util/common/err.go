// Package common holds small helpers shared across inkwell packages.
package common

import (
	"errors"

	"github.com/inkwell-blog/inkwell/logger"
)

// Combine joins the non-nil errors into one, or returns nil.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}

// Recover must be deferred directly (defer common.Recover("...")); it logs and swallows a panic.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, " panic: ", panicErr)
		}
	}
	return panicErr
}

package utils

import (
	"context"
	"fmt"
)

func Ptr[T any](x T) *T {
	return &x
}

// RunAndWrapOnError runs fn and combines its error with err. Only err stays matchable with errors.Is.
func RunAndWrapOnError(err error, msg string, fn func() error) error {
	runErr := fn()
	if runErr == nil {
		return err
	}
	if err == nil {
		return fmt.Errorf("%s: %v", msg, runErr)
	}
	return fmt.Errorf("operation failed: %s: %v, previous error: %w", msg, runErr, err)
}

// Cause returns the cause passed to the context's cancel func, or nil if there was none.
func Cause(ctx context.Context) error {
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}
	return nil
}

package menu

import (
	"errors"
	"fmt"
)

// Path resolution errors. These are reported back to the caller as a failed
// dispatch; the session keeps going.
var (
	ErrUnknownPath        = errors.New("unknown menu path")
	ErrUnknownRowID       = errors.New("unknown row id")
	ErrInvalidKeyEncoding = errors.New("invalid key encoding")
)

// Construction errors, surfaced when the menu tree is mounted.
var (
	ErrDuplicatePath   = errors.New("duplicate menu path")
	ErrDuplicateRowID  = errors.New("duplicate row id")
	ErrInvalidPath     = errors.New("invalid menu path")
	ErrInvalidRowID    = errors.New("invalid row id")
	ErrInvalidLayout   = errors.New("invalid row layout")
	ErrMissingCallback = errors.New("row callback is missing")
	ErrOrphanPath      = errors.New("parent menu path is not registered")
	ErrCyclicMenu      = errors.New("menu contains itself")
)

// ErrCallbackDataTooLong is wrapped in a RenderError when a button would carry
// more callback data than Telegram accepts.
var ErrCallbackDataTooLong = errors.New("callback data exceeds telegram limit")

// ErrDelivery wraps a failure of Interaction.Deliver.
var ErrDelivery = errors.New("deliver render")

// IsPathResolution reports whether err means the callback path could not be
// mapped onto a menu row.
func IsPathResolution(err error) bool {
	return errors.Is(err, ErrUnknownPath) ||
		errors.Is(err, ErrUnknownRowID) ||
		errors.Is(err, ErrInvalidKeyEncoding)
}

// RenderError reports a body or predicate failure while rendering a menu.
type RenderError struct {
	Path  Path
	RowID string
	Err   error
}

func (e *RenderError) Error() string {
	if e.RowID == "" {
		return fmt.Sprintf("render %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("render %s row %q: %v", e.Path, e.RowID, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ActionError reports a failing row callback during dispatch. No re-render is
// performed when it is returned.
type ActionError struct {
	Path  Path
	RowID string
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %s row %q: %v", e.Path, e.RowID, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// protect runs fn and turns a panic into an error.
func protect[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if recErr, ok := rec.(error); ok {
				err = fmt.Errorf("panic: %w", recErr)
				return
			}
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	return fn()
}

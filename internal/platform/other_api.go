//go:build !windows && !linux && !darwin

package platform

import (
	"errors"
	"runtime"
)

// unsupportedAPI reports every sample as a focus error
type unsupportedAPI struct{}

// NewFocusSource returns a source that always fails on this platform
func NewFocusSource() FocusSource {
	return unsupportedAPI{}
}

func (unsupportedAPI) CurrentFocus() (string, error) {
	return "", focusError("current_focus", errors.New("focus tracking is not supported on "+runtime.GOOS))
}

package platform

import (
	"errors"
	"fmt"
	"strings"
)

// FocusSource reports the display name of the focused application.
// An empty name means nothing is focused.
type FocusSource interface {
	CurrentFocus() (string, error)
}

// FocusError is a transient failure to resolve the focused application
type FocusError struct {
	Op  string
	Err error
}

func (e *FocusError) Error() string {
	return fmt.Sprintf("focus %s: %v", e.Op, e.Err)
}

func (e *FocusError) Unwrap() error {
	return e.Err
}

func focusError(op string, err error) error {
	return &FocusError{Op: op, Err: err}
}

// IsFocusError reports whether err came from focus resolution
func IsFocusError(err error) bool {
	var fe *FocusError
	return errors.As(err, &fe)
}

// frameHostExe hosts UWP apps; its windows are named by their title instead
const frameHostExe = "ApplicationFrameHost.exe"

// DisplayName derives the entity name from the executable path of the
// focused process. title is consulted only for frame-hosted apps and is
// fetched lazily.
func DisplayName(exePath string, title func() (string, error)) (string, error) {
	name := baseName(exePath)
	if name == "" {
		return "", focusError("display_name", fmt.Errorf("no file name in path %q", exePath))
	}
	if !strings.EqualFold(name, frameHostExe) {
		return name, nil
	}

	t, err := title()
	if err != nil {
		return "", focusError("window_title", err)
	}
	if t = strings.TrimSpace(t); t == "" {
		return "", focusError("window_title", errors.New("empty window title"))
	}
	return t, nil
}

// baseName handles both separators so Windows paths parse on any OS
func baseName(p string) string {
	p = strings.TrimRight(p, `\/`)
	if i := strings.LastIndexAny(p, `\/`); i >= 0 {
		p = p[i+1:]
	}
	if p == "." {
		return ""
	}
	return strings.TrimSpace(p)
}
